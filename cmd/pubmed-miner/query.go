// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pubmed-miner/internal/pubmed"
	"github.com/pdiddy/pubmed-miner/internal/query"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Render a boolean expression as a PubMed query string",
	Long: `Query renders an expression tree to the fully parenthesized string PubMed
expects. The expression is YAML: a scalar is a term searched in
Title/Abstract, a sequence or {all: [...]} is a conjunction, {any: [...]} is
a disjunction, and {term: ..., field: ...} targets another field.

  pubmed-miner query --expr '[PFS, Clinical Trial]'
  pubmed-miner query --expr '{any: [PFS, {term: Smith J, field: Author}]}'

With --file every query in a query file is rendered.`,
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().String("expr", "", "expression tree as YAML")
	queryCmd.Flags().String("file", "", "query file to render")

	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	if file != "" {
		f, err := query.ReadFile(file)
		if err != nil {
			return err
		}
		if err := f.Resolve(); err != nil {
			return err
		}
		for _, q := range f.Queries {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", q.Name, q.Resolved)
		}
		return nil
	}

	expr, _ := cmd.Flags().GetString("expr")
	if expr == "" {
		return fmt.Errorf("provide --expr or --file")
	}
	q, err := constructExpr(expr)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), q)
	return nil
}

func constructExpr(src string) (string, error) {
	e, err := query.ParseExpr(src)
	if err != nil {
		return "", err
	}
	return query.Construct(e)
}

// resolveQuery picks the query string for search and run: --expr is
// rendered, --term is used verbatim, otherwise the positional arguments
// are joined. "-" reads the query from stdin.
func resolveQuery(cmd *cobra.Command, args []string) (string, error) {
	expr, _ := cmd.Flags().GetString("expr")
	term, _ := cmd.Flags().GetString("term")

	switch {
	case expr != "" && (term != "" || len(args) > 0):
		return "", errors.New("--expr cannot be combined with --term or a query argument")
	case expr != "":
		return constructExpr(expr)
	case term != "":
		return term, nil
	case len(args) == 1 && args[0] == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading query from stdin: %w", err)
		}
		if q := strings.TrimSpace(string(data)); q != "" {
			return q, nil
		}
	case len(args) > 0:
		return strings.Join(args, " "), nil
	}
	return "", fmt.Errorf("provide a query with --expr, --term or as an argument: %w", pubmed.ErrEmptyQuery)
}
