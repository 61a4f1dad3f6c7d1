// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package table renders article records and keywords for the terminal and
// for downstream tools, and exports runs to SQLite.
package table

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pubmed-miner/internal/keyword"
	"github.com/pdiddy/pubmed-miner/pkg/types"
)

// Header lists the columns of the csv rendering.
var Header = []string{"id", "title", "abstract", "keywords"}

// keywordSep joins article keywords into one csv cell.
const keywordSep = "; "

// ParseFormat validates a user supplied format name. Empty means table.
func ParseFormat(s string) (types.OutputFormat, error) {
	switch f := types.OutputFormat(strings.ToLower(s)); f {
	case "":
		return types.OutputTable, nil
	case types.OutputTable, types.OutputJSON, types.OutputCSV, types.OutputYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json, csv or yaml)", s)
	}
}

// Write renders articles to w in the given format.
func Write(w io.Writer, format types.OutputFormat, articles []types.Article) error {
	if articles == nil {
		articles = []types.Article{}
	}
	switch format {
	case types.OutputTable, "":
		FormatTable(w, articles)
		return nil
	case types.OutputJSON:
		return writeJSON(w, articles)
	case types.OutputCSV:
		return FormatCSV(w, articles)
	case types.OutputYAML:
		return writeYAML(w, articles)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// FormatTable prints one fixed-width row per article.
func FormatTable(w io.Writer, articles []types.Article) {
	if len(articles) == 0 {
		fmt.Fprintln(w, "No articles found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-10s  %-60s  %-8s  %s\n", "#", "PMID", "Title", "Abstract", "Keywords")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for i, a := range articles {
		abstract := "-"
		if a.Abstract != "" {
			abstract = fmt.Sprintf("%d w", len(strings.Fields(a.Abstract)))
		}
		fmt.Fprintf(w, "%-4d  %-10s  %-60s  %-8s  %s\n",
			i+1, a.ID, truncate(a.Title, 60), abstract, formatKeywords(a.Keywords))
	}

	fmt.Fprintf(w, "\n%d articles\n", len(articles))
}

// FormatCSV writes a header row followed by one row per article.
func FormatCSV(w io.Writer, articles []types.Article) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, a := range articles {
		row := []string{a.ID, a.Title, a.Abstract, strings.Join(a.Keywords, keywordSep)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row %s: %w", a.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteKeywords renders extracted keywords in the given format.
func WriteKeywords(w io.Writer, format types.OutputFormat, kws []keyword.Keyword) error {
	if kws == nil {
		kws = []keyword.Keyword{}
	}
	switch format {
	case types.OutputTable, "":
		if len(kws) == 0 {
			fmt.Fprintln(w, "No keywords found.")
			return nil
		}
		fmt.Fprintf(w, "%-4s  %-50s  %s\n", "Rank", "Keyword", "Score")
		fmt.Fprintln(w, strings.Repeat("-", 70))
		for i, kw := range kws {
			fmt.Fprintf(w, "%-4d  %-50s  %.6f\n", i+1, truncate(kw.Text, 50), kw.Score)
		}
		return nil
	case types.OutputJSON:
		return writeJSON(w, kws)
	case types.OutputCSV:
		return keywordsCSV(w, kws)
	case types.OutputYAML:
		return writeYAML(w, kws)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func keywordsCSV(w io.Writer, kws []keyword.Keyword) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"rank", "keyword", "score"}); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for i, kw := range kws {
		row := []string{fmt.Sprint(i + 1), kw.Text, fmt.Sprintf("%g", kw.Score)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func formatKeywords(kws []string) string {
	switch len(kws) {
	case 0:
		return "-"
	case 1, 2, 3:
		return strings.Join(kws, ", ")
	default:
		return strings.Join(kws[:3], ", ") + fmt.Sprintf(" (+%d)", len(kws)-3)
	}
}
