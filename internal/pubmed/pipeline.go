// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/pubmed-miner/pkg/types"
)

// Pipeline chains a Searcher and a Fetcher: query string in, article
// records out.
type Pipeline struct {
	Searcher Searcher
	Fetcher  *Fetcher
	Config   types.EntrezConfig

	// Concurrency bounds RunAll. Values below 1 mean sequential.
	Concurrency int
}

// Result is the outcome of one query.
type Result struct {
	Query    string          `json:"query" yaml:"query"`
	Strategy string          `json:"strategy" yaml:"strategy"`
	IDs      []string        `json:"ids" yaml:"ids"`
	Articles []types.Article `json:"articles" yaml:"articles"`
}

// Run searches for query and fetches the details of every hit.
func (p *Pipeline) Run(ctx context.Context, query string) (Result, error) {
	ids, err := p.Searcher.Search(ctx, query, p.Config)
	if err != nil {
		return Result{}, fmt.Errorf("searching %s: %w", p.Searcher.Name(), err)
	}

	articles, err := p.Fetcher.FetchDetails(ctx, ids, p.Config)
	if err != nil {
		return Result{}, fmt.Errorf("fetching %d articles: %w", len(ids), err)
	}

	return Result{
		Query:    query,
		Strategy: p.Searcher.Name(),
		IDs:      ids,
		Articles: articles,
	}, nil
}

// RunAll runs independent queries with at most Concurrency in flight.
// Results keep the order of queries. The first failure cancels the
// remaining queries and is returned.
func (p *Pipeline) RunAll(ctx context.Context, queries []string) ([]Result, error) {
	results := make([]Result, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	limit := p.Concurrency
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for i, q := range queries {
		g.Go(func() error {
			res, err := p.Run(gctx, q)
			if err != nil {
				return fmt.Errorf("query %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
