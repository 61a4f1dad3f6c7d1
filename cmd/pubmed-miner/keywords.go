// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pubmed-miner/internal/keyword"
	"github.com/pdiddy/pubmed-miner/internal/table"
	"github.com/pdiddy/pubmed-miner/pkg/types"
)

var keywordsCmd = &cobra.Command{
	Use:   "keywords [file]",
	Short: "Extract ranked keywords from text",
	Long: `Keywords reads text from a file, or stdin when no file or "-" is given,
and prints the most relevant keywords first. Lower scores are more
relevant.

A profile file (yaml, json or toml) sets the extractor parameters:

  lan: en
  n: 3
  dedup_lim: 0.9
  dedup_func: seqm
  window_size: 1
  top: 20

PUBMED_KEYWORD_* environment variables override the profile.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runKeywords,
}

func init() {
	keywordsCmd.Flags().String("profile", "", "keyword extractor profile (yaml, json or toml)")
	keywordsCmd.Flags().Int("top", 0, "number of keywords (default from profile)")
	keywordsCmd.Flags().Int("ngram", 0, "maximum words per keyword (default from profile)")
	keywordsCmd.Flags().StringP("format", "f", "table", "output format: table, json, csv or yaml")

	rootCmd.AddCommand(keywordsCmd)
}

func runKeywords(cmd *cobra.Command, args []string) error {
	format, err := table.ParseFormat(flagString(cmd, "format"))
	if err != nil {
		return err
	}

	in := cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening text: %w", err)
		}
		defer f.Close()
		in = f
	}
	text, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("reading text: %w", err)
	}

	cfg, err := keywordConfig(cmd)
	if err != nil {
		return err
	}
	ex, err := keyword.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	logger.Debug("keyword extractor ready", "config", ex.String())
	return table.WriteKeywords(cmd.OutOrStdout(), format, ex.Extract(string(text)))
}

// keywordConfig loads the profile named by --profile (or the environment
// alone) and applies --top and --ngram when given.
func keywordConfig(cmd *cobra.Command) (types.KeywordConfig, error) {
	cfg, err := keyword.LoadConfig(flagString(cmd, "profile"))
	if err != nil {
		return types.KeywordConfig{}, err
	}
	if top, _ := cmd.Flags().GetInt("top"); top > 0 {
		cfg.Top = top
	}
	if cmd.Flags().Lookup("ngram") != nil {
		if n, _ := cmd.Flags().GetInt("ngram"); n > 0 {
			cfg.NGram = n
		}
	}
	return cfg, nil
}
