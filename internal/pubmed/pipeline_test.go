// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eutilsMux answers esearch with the ids listed per query term and efetch
// with one document per requested id.
func eutilsMux(hits map[string][]string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/esearch.fcgi", func(w http.ResponseWriter, r *http.Request) {
		term := r.URL.Query().Get("term")
		ids, ok := hits[term]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var b strings.Builder
		b.WriteString("<eSearchResult><IdList>")
		for _, id := range ids {
			fmt.Fprintf(&b, "<Id>%s</Id>", id)
		}
		b.WriteString("</IdList></eSearchResult>")
		w.Write([]byte(b.String()))
	})
	mux.HandleFunc("/efetch.fcgi", func(w http.ResponseWriter, r *http.Request) {
		ids := strings.Split(r.URL.Query().Get("id"), ",")
		docs := make([]string, len(ids))
		for i, id := range ids {
			docs[i] = efetchDoc(id, "Title "+id, "<AbstractText>Abstract "+id+"</AbstractText>", []string{"kw-" + id})
		}
		w.Write([]byte(efetchSet(docs...)))
	})
	return mux
}

func TestPipelineRun(t *testing.T) {
	c := withServer(t, eutilsMux(map[string][]string{
		"(PFS[Title/Abstract])": {"3", "1", "2"},
	}))

	p := &Pipeline{
		Searcher: &EUtilsSearcher{Client: c},
		Fetcher:  &Fetcher{Client: c},
		Config:   testCfg(),
	}
	res, err := p.Run(context.Background(), "(PFS[Title/Abstract])")
	require.NoError(t, err)

	assert.Equal(t, "(PFS[Title/Abstract])", res.Query)
	assert.Equal(t, "eutils", res.Strategy)
	assert.Equal(t, []string{"3", "1", "2"}, res.IDs)
	require.Len(t, res.Articles, 3)
	for i, id := range res.IDs {
		assert.Equal(t, id, res.Articles[i].ID)
		assert.Equal(t, "Abstract "+id, res.Articles[i].Abstract)
		assert.Equal(t, []string{"kw-" + id}, res.Articles[i].Keywords)
	}
}

func TestPipelineRunNoHits(t *testing.T) {
	c := withServer(t, eutilsMux(map[string][]string{"nothing": {}}))

	p := &Pipeline{
		Searcher: &EUtilsSearcher{Client: c},
		Fetcher:  &Fetcher{Client: c},
		Config:   testCfg(),
	}
	res, err := p.Run(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Empty(t, res.IDs)
	assert.Empty(t, res.Articles)
}

func TestPipelineRunSearchFailure(t *testing.T) {
	c := withServer(t, eutilsMux(map[string][]string{}))

	p := &Pipeline{
		Searcher: &EUtilsSearcher{Client: c},
		Fetcher:  &Fetcher{Client: c},
		Config:   testCfg(),
	}
	_, err := p.Run(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrTransport)
	assert.Contains(t, err.Error(), "searching eutils")
}

func TestPipelineRunAll(t *testing.T) {
	c := withServer(t, eutilsMux(map[string][]string{
		"a": {"1", "2"},
		"b": {"3"},
		"c": {"4", "5", "6"},
	}))

	p := &Pipeline{
		Searcher:    &EUtilsSearcher{Client: c},
		Fetcher:     &Fetcher{Client: c},
		Config:      testCfg(),
		Concurrency: 2,
	}
	results, err := p.RunAll(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].Query)
	assert.Len(t, results[0].Articles, 2)
	assert.Equal(t, "b", results[1].Query)
	assert.Len(t, results[1].Articles, 1)
	assert.Equal(t, "c", results[2].Query)
	assert.Len(t, results[2].Articles, 3)
}

func TestPipelineRunAllFailsWholeBatch(t *testing.T) {
	c := withServer(t, eutilsMux(map[string][]string{"a": {"1"}}))

	p := &Pipeline{
		Searcher: &EUtilsSearcher{Client: c},
		Fetcher:  &Fetcher{Client: c},
		Config:   testCfg(),
	}
	results, err := p.RunAll(context.Background(), []string{"a", "missing"})
	assert.Nil(t, results)
	assert.ErrorIs(t, err, ErrTransport)
	assert.Contains(t, err.Error(), "query 1")
}
