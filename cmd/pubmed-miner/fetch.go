// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pubmed-miner/internal/pubmed"
	"github.com/pdiddy/pubmed-miner/internal/table"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [ids...]",
	Short: "Fetch title, abstract and keywords for PubMed identifiers",
	Long: `Fetch retrieves article records for the given identifiers in one efetch
request and prints them in request order. Identifiers may also be read
from a file (one per line, "-" for stdin), for example the output of search.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().String("ids-file", "", "file with one identifier per line (- for stdin)")
	fetchCmd.Flags().StringP("format", "f", "table", "output format: table, json, csv or yaml")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	format, err := table.ParseFormat(flagString(cmd, "format"))
	if err != nil {
		return err
	}

	ids := append([]string(nil), args...)
	if path := flagString(cmd, "ids-file"); path != "" {
		more, err := readIDs(cmd, path)
		if err != nil {
			return err
		}
		ids = append(ids, more...)
	}
	if len(ids) == 0 {
		return fmt.Errorf("provide one or more PubMed identifiers")
	}

	cfg := entrezConfig()
	f := &pubmed.Fetcher{Client: newClient(cfg.HTTPConfig)}
	articles, err := f.FetchDetails(cmd.Context(), ids, cfg)
	if err != nil {
		return err
	}
	return table.Write(cmd.OutOrStdout(), format, articles)
}

func readIDs(cmd *cobra.Command, path string) ([]string, error) {
	in := cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening ids file: %w", err)
		}
		defer f.Close()
		in = f
	}

	var ids []string
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if id := strings.TrimSpace(sc.Text()); id != "" && !strings.HasPrefix(id, "#") {
			ids = append(ids, id)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading ids: %w", err)
	}
	return ids, nil
}

func flagString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}
