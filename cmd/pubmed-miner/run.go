// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pubmed-miner/internal/keyword"
	"github.com/pdiddy/pubmed-miner/internal/pubmed"
	"github.com/pdiddy/pubmed-miner/internal/query"
	"github.com/pdiddy/pubmed-miner/internal/table"
	"github.com/pdiddy/pubmed-miner/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run [query]",
	Short: "Search and fetch in one step",
	Long: `Run builds the query, searches PubMed and fetches every hit. Results are
printed in the chosen format and optionally appended to a SQLite export.

With --query-file every query in the file runs, up to --concurrency at a
time. The file is updated with the resolved query strings, the identifiers
found and a run summary. Any failing query fails the whole batch.

--summarize extracts ranked keywords from the collected titles and
abstracts.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().String("expr", "", "expression tree as YAML")
	runCmd.Flags().String("term", "", "raw PubMed query string")
	runCmd.Flags().String("query-file", "", "YAML file of named queries")
	runCmd.Flags().StringP("format", "f", "table", "output format: table, json, csv or yaml")
	runCmd.Flags().String("sqlite", "", "append results to this SQLite file")
	runCmd.Flags().Int("concurrency", 1, "queries in flight for --query-file")
	runCmd.Flags().Bool("summarize", false, "extract keywords from the fetched articles")
	runCmd.Flags().String("profile", "", "keyword extractor profile (yaml, json or toml)")
	runCmd.Flags().Int("top", 0, "number of summary keywords (default from profile)")

	if err := viper.BindPFlag("concurrency", runCmd.Flags().Lookup("concurrency")); err != nil {
		panic(err)
	}
	if err := viper.BindPFlag("output.sqlite_path", runCmd.Flags().Lookup("sqlite")); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(runCmd)
}

// pipelineConfig gathers the settings for run from viper and the command's
// flags.
func pipelineConfig(cmd *cobra.Command) (types.PipelineConfig, error) {
	format, err := table.ParseFormat(flagString(cmd, "format"))
	if err != nil {
		return types.PipelineConfig{}, err
	}
	pc := types.PipelineConfig{
		Entrez: entrezConfig(),
		Output: types.OutputConfig{
			Format:     format,
			SQLitePath: viper.GetString("output.sqlite_path"),
		},
		Concurrency: viper.GetInt("concurrency"),
	}
	if summarize, _ := cmd.Flags().GetBool("summarize"); summarize {
		if pc.Keyword, err = keywordConfig(cmd); err != nil {
			return types.PipelineConfig{}, err
		}
	}
	return pc, nil
}

// newClient builds the HTTP client for search and fetch. Tests point it at
// a local server.
var newClient = func(cfg types.HTTPConfig) *pubmed.Client {
	return pubmed.NewClient(cfg, logger)
}

func newPipeline(pc types.PipelineConfig) (*pubmed.Pipeline, error) {
	client := newClient(pc.Entrez.HTTPConfig)
	searcher, err := pubmed.NewSearcher(pc.Entrez.Strategy, client)
	if err != nil {
		return nil, err
	}
	return &pubmed.Pipeline{
		Searcher:    searcher,
		Fetcher:     &pubmed.Fetcher{Client: client},
		Config:      pc.Entrez,
		Concurrency: pc.Concurrency,
	}, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	pc, err := pipelineConfig(cmd)
	if err != nil {
		return err
	}

	var results []pubmed.Result
	if path := flagString(cmd, "query-file"); path != "" {
		results, err = runQueryFile(cmd.Context(), path, pc, cmd.ErrOrStderr())
	} else {
		results, err = runSingle(cmd, args, pc)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var all []types.Article
	for _, res := range results {
		if len(results) > 1 {
			fmt.Fprintf(out, "\n== %s\n", res.Query)
		}
		if err := table.Write(out, pc.Output.Format, res.Articles); err != nil {
			return err
		}
		all = append(all, res.Articles...)
	}

	if path := pc.Output.SQLitePath; path != "" {
		for _, res := range results {
			run := table.NewRun(res.Query, res.Strategy)
			if err := table.ExportSQLite(cmd.Context(), path, run, res.Articles); err != nil {
				return fmt.Errorf("exporting run: %w", err)
			}
			logger.Info("exported run", "path", path, "run", run.ID, "articles", len(res.Articles))
		}
	}

	if summarize, _ := cmd.Flags().GetBool("summarize"); summarize {
		ex, err := keyword.NewFromConfig(pc.Keyword)
		if err != nil {
			return err
		}
		fmt.Fprintln(out)
		return table.WriteKeywords(out, pc.Output.Format, ex.Extract(articleText(all)))
	}
	return nil
}

func runSingle(cmd *cobra.Command, args []string, pc types.PipelineConfig) ([]pubmed.Result, error) {
	q, err := resolveQuery(cmd, args)
	if err != nil {
		return nil, err
	}
	p, err := newPipeline(pc)
	if err != nil {
		return nil, err
	}

	res, err := p.Run(cmd.Context(), q)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%d articles for %s\n", len(res.Articles), q)
	return []pubmed.Result{res}, nil
}

// runQueryFile runs every query in the file and writes the resolved
// queries, identifiers and a summary back to it.
func runQueryFile(ctx context.Context, path string, pc types.PipelineConfig, progress io.Writer) ([]pubmed.Result, error) {
	f, err := query.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := f.Resolve(); err != nil {
		return nil, err
	}

	if f.Config.RetMax > 0 {
		pc.Entrez.RetMax = f.Config.RetMax
	}
	if f.Config.Sort != "" {
		pc.Entrez.Sort = f.Config.Sort
	}
	if f.Config.Strategy != "" {
		pc.Entrez.Strategy = types.SearchStrategy(f.Config.Strategy)
	}
	p, err := newPipeline(pc)
	if err != nil {
		return nil, err
	}

	queries := make([]string, len(f.Queries))
	for i, q := range f.Queries {
		queries[i] = q.Resolved
	}
	results, err := p.RunAll(ctx, queries)
	if err != nil {
		return nil, err
	}

	total := 0
	for i, res := range results {
		f.Queries[i].IDs = res.IDs
		total += len(res.Articles)
		fmt.Fprintf(progress, "%-20s  %d articles\n", f.Queries[i].Name, len(res.Articles))
	}
	f.Summary = &query.FileSummary{
		Queries:   len(results),
		Articles:  total,
		Timestamp: time.Now().UTC(),
	}
	if err := query.WriteFile(path, f); err != nil {
		return nil, err
	}
	return results, nil
}

// articleText concatenates titles and abstracts, one sentence block per
// article, for keyword extraction.
func articleText(articles []types.Article) string {
	var b strings.Builder
	for _, a := range articles {
		b.WriteString(a.Title)
		b.WriteString(".\n")
		if a.Abstract != "" {
			b.WriteString(a.Abstract)
			b.WriteString("\n")
		}
	}
	return b.String()
}
