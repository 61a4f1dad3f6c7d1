// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pubmed-miner/internal/pubmed"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "List PubMed identifiers matching a query",
	Long: `Search sends a query to PubMed and prints the matching identifiers, one
per line, in ranking order. The page strategy reads the PubMed web search in
PMID format; the eutils strategy calls the E-utilities esearch endpoint.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("expr", "", "expression tree as YAML")
	searchCmd.Flags().String("term", "", "raw PubMed query string")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	q, err := resolveQuery(cmd, args)
	if err != nil {
		return err
	}

	cfg := entrezConfig()
	searcher, err := pubmed.NewSearcher(cfg.Strategy, newClient(cfg.HTTPConfig))
	if err != nil {
		return err
	}

	ids, err := searcher.Search(cmd.Context(), q, cfg)
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Fprintln(cmd.OutOrStdout(), id)
	}
	logger.Info("search complete", "strategy", searcher.Name(), "query", q, "ids", len(ids))
	return nil
}
