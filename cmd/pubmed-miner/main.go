// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pubmed-miner CLI: build PubMed
// queries, search and fetch article records, and extract keywords.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pubmed-miner/internal/secrets"
	"github.com/pdiddy/pubmed-miner/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// loadedSecrets holds credentials loaded from .secrets/ at startup.
	loadedSecrets map[string]string

	logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
)

var rootCmd = &cobra.Command{
	Use:   "pubmed-miner",
	Short: "Query PubMed and mine article metadata",
	Long: `pubmed-miner turns boolean query expressions into PubMed search strings,
finds matching article identifiers, fetches titles, abstracts and author
keywords, and extracts ranked keywords from the collected text.

Credentials are read from .secrets/ncbi-api-key and .secrets/ncbi-email
unless set by flag, config file or PUBMED_MINER_* environment variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("log-format")
		verbose, _ := cmd.Flags().GetBool("verbose")
		l, err := newLogger(os.Stderr, format, verbose)
		if err != nil {
			return err
		}
		logger = l

		s, err := secrets.Load(secrets.DefaultDir, logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("loaded secrets", "keys", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./pubmed-miner.yaml or ~/.config/pubmed-miner/config.yaml)")
	pf.String("log-format", "text", "log format on stderr: text or json")
	pf.BoolP("verbose", "v", false, "log requests at debug level")

	pf.String("db", types.DefaultDB, "Entrez database")
	pf.Int("retmax", types.DefaultRetMax, "maximum identifiers per search")
	pf.String("sort", types.DefaultSort, "result ordering")
	pf.String("retmode", types.DefaultRetMode, "esearch response format: xml or json")
	pf.String("strategy", string(types.DefaultStrategy), "search strategy: eutils or page")
	pf.String("email", "", "contact email sent to NCBI")
	pf.String("api-key", "", "NCBI API key")
	pf.Duration("timeout", 0, "HTTP request timeout (0 means none)")

	for key, flag := range map[string]string{
		"entrez.db":       "db",
		"entrez.retmax":   "retmax",
		"entrez.sort":     "sort",
		"entrez.retmode":  "retmode",
		"entrez.strategy": "strategy",
		"entrez.email":    "email",
		"entrez.api_key":  "api-key",
		"http.timeout":    "timeout",
	} {
		if err := viper.BindPFlag(key, pf.Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pubmed-miner")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pubmed-miner"))
		}
	}

	viper.SetEnvPrefix("PUBMED_MINER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// entrezConfig assembles the effective Entrez settings from flags, config
// file, environment and secrets, in that order of precedence.
func entrezConfig() types.EntrezConfig {
	cfg := types.EntrezConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("http.timeout"),
			UserAgent: viper.GetString("http.user_agent"),
		},
		DB:         viper.GetString("entrez.db"),
		RetMode:    viper.GetString("entrez.retmode"),
		Sort:       viper.GetString("entrez.sort"),
		RetMax:     viper.GetInt("entrez.retmax"),
		Email:      viper.GetString("entrez.email"),
		Tool:       viper.GetString("entrez.tool"),
		APIKey:     viper.GetString("entrez.api_key"),
		Strategy:   types.SearchStrategy(viper.GetString("entrez.strategy")),
		MaxRetries: viper.GetInt("entrez.max_retries"),
	}.WithDefaults()
	secrets.Apply(loadedSecrets, &cfg)
	return cfg
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
