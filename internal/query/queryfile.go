// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package query

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"
)

// File is the on-disk representation of a batch of named queries. A query
// gives either an expression tree (expr) or a ready-made query string
// (term). After a run the resolved strings and result summaries are filled
// in so the file documents exactly what was sent.
type File struct {
	Queries []Entry      `yaml:"queries"`
	Config  FileConfig   `yaml:"config,omitempty"`
	Summary *FileSummary `yaml:"summary,omitempty"`
}

// Entry is one named query.
type Entry struct {
	Name string `yaml:"name"`
	Expr *Node  `yaml:"expr,omitempty"`
	Term string `yaml:"term,omitempty"`

	// Resolved is the query string sent to PubMed.
	Resolved string `yaml:"resolved,omitempty"`
	// IDs are the identifiers the search returned.
	IDs []string `yaml:"ids,omitempty"`
}

// FileConfig stores per-file search overrides.
type FileConfig struct {
	RetMax   int    `yaml:"retmax,omitempty"`
	Sort     string `yaml:"sort,omitempty"`
	Strategy string `yaml:"strategy,omitempty"`
}

// FileSummary records when the queries were last run.
type FileSummary struct {
	Queries   int       `yaml:"queries"`
	Articles  int       `yaml:"articles"`
	Timestamp time.Time `yaml:"timestamp"`
}

// QueryString returns the PubMed query for the entry, rendering Expr when
// present and falling back to the raw Term.
func (e Entry) QueryString() (string, error) {
	switch {
	case e.Expr != nil && e.Expr.Expr != nil:
		return Construct(e.Expr.Expr)
	case e.Term != "":
		return e.Term, nil
	}
	return "", &ValidationError{Path: "root", Node: fmt.Sprintf("query %q", e.Name), Reason: "neither expr nor term given"}
}

// Resolve renders every entry and stores the result in Resolved.
func (f *File) Resolve() error {
	for i := range f.Queries {
		q, err := f.Queries[i].QueryString()
		if err != nil {
			return fmt.Errorf("query %d (%s): %w", i, f.Queries[i].Name, err)
		}
		f.Queries[i].Resolved = q
	}
	return nil
}

// ReadFile loads a query file from disk.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	if len(f.Queries) == 0 {
		return nil, fmt.Errorf("query file %s has no queries", path)
	}
	return &f, nil
}

// WriteFile saves f as YAML.
func WriteFile(path string, f *File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
