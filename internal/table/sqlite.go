// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package table

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/pubmed-miner/pkg/types"
)

// Run identifies one exported query execution.
type Run struct {
	ID        string
	Query     string
	Strategy  string
	CreatedAt time.Time
}

// NewRun stamps a run with a fresh id and the current time.
func NewRun(query, strategy string) Run {
	return Run{
		ID:        uuid.NewString(),
		Query:     query,
		Strategy:  strategy,
		CreatedAt: time.Now().UTC(),
	}
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		query TEXT NOT NULL,
		strategy TEXT,
		created_at TEXT NOT NULL,
		article_count INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS articles (
		run_id TEXT NOT NULL REFERENCES runs(id),
		position INTEGER NOT NULL,
		pmid TEXT NOT NULL,
		title TEXT,
		abstract TEXT,
		keywords TEXT,
		PRIMARY KEY (run_id, position)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_pmid ON articles(pmid)`,
}

// ExportSQLite appends run and its articles to the SQLite file at path,
// creating the file and schema when missing. The run is written in one
// transaction. Keywords are stored as a JSON array.
func ExportSQLite(ctx context.Context, path string, run Run, articles []types.Article) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating export directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, query, strategy, created_at, article_count) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Query, run.Strategy, run.CreatedAt.Format(time.RFC3339Nano), len(articles),
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO articles (run_id, position, pmid, title, abstract, keywords) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, a := range articles {
		kws := a.Keywords
		if kws == nil {
			kws = []string{}
		}
		kwJSON, err := json.Marshal(kws)
		if err != nil {
			return fmt.Errorf("encoding keywords for %s: %w", a.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, run.ID, i, a.ID, a.Title, a.Abstract, string(kwJSON)); err != nil {
			return fmt.Errorf("inserting article %s: %w", a.ID, err)
		}
	}

	return tx.Commit()
}
