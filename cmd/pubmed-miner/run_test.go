// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pubmed-miner/internal/pubmed"
	"github.com/pdiddy/pubmed-miner/internal/query"
	"github.com/pdiddy/pubmed-miner/pkg/types"
)

// fakeNCBI answers esearch, efetch and the results page. Queries that
// mention PFS match two articles, everything else matches one.
type fakeNCBI struct {
	mu   sync.Mutex
	seen []*url.URL
	fail bool
}

func (f *fakeNCBI) idsFor(term string) []string {
	if strings.Contains(term, "PFS") {
		return []string{"111", "222"}
	}
	return []string{"333"}
}

func (f *fakeNCBI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.seen = append(f.seen, r.URL)
	fail := f.fail
	f.mu.Unlock()

	if fail {
		http.Error(w, "backend unavailable", http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	switch r.URL.Path {
	case "/eutils/esearch.fcgi":
		var b strings.Builder
		b.WriteString("<eSearchResult><IdList>")
		for _, id := range f.idsFor(q.Get("term")) {
			fmt.Fprintf(&b, "<Id>%s</Id>", id)
		}
		b.WriteString("</IdList></eSearchResult>")
		w.Write([]byte(b.String()))
	case "/eutils/efetch.fcgi":
		var b strings.Builder
		b.WriteString("<PubmedArticleSet>")
		for _, id := range strings.Split(q.Get("id"), ",") {
			fmt.Fprintf(&b, "<PubmedArticle><MedlineCitation><PMID>%s</PMID>"+
				"<Article><ArticleTitle>Article %s</ArticleTitle></Article>"+
				"</MedlineCitation></PubmedArticle>", id, id)
		}
		b.WriteString("</PubmedArticleSet>")
		w.Write([]byte(b.String()))
	case "/page/":
		fmt.Fprintf(w, `<html><body><pre class="search-results-chunk">%s</pre></body></html>`,
			strings.Join(f.idsFor(q.Get("term")), "\n"))
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeNCBI) failAll() {
	f.mu.Lock()
	f.fail = true
	f.mu.Unlock()
}

// searches returns every request path seen so far, and the paging and sort
// parameters of each search request.
func (f *fakeNCBI) searches() (paths []string, params []map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.seen {
		paths = append(paths, u.Path)
		if strings.HasSuffix(u.Path, "efetch.fcgi") {
			continue
		}
		q := u.Query()
		params = append(params, map[string]string{
			"retmax": q.Get("retmax"),
			"size":   q.Get("size"),
			"sort":   q.Get("sort"),
		})
	}
	return paths, params
}

// withFakeNCBI routes every client the CLI builds to a local fake.
func withFakeNCBI(t *testing.T) *fakeNCBI {
	t.Helper()
	fake := &fakeNCBI{}
	ts := httptest.NewServer(fake)
	t.Cleanup(ts.Close)

	old := newClient
	newClient = func(types.HTTPConfig) *pubmed.Client {
		return &pubmed.Client{
			HTTP:      ts.Client(),
			EUtilsURL: ts.URL + "/eutils",
			PageURL:   ts.URL + "/page/",
		}
	}
	t.Cleanup(func() { newClient = old })
	return fake
}

func writeQueryFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "queries.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testPipelineConfig() types.PipelineConfig {
	return types.PipelineConfig{
		Entrez:      types.DefaultEntrezConfig(),
		Concurrency: 2,
	}
}

func TestRunQueryFileWritesResults(t *testing.T) {
	fake := withFakeNCBI(t)
	path := writeQueryFile(t, `queries:
  - name: pfs
    expr: [PFS, Clinical Trial]
  - name: survival
    term: overall survival[ti]
config:
  retmax: 7
  sort: pub_date
  strategy: eutils
`)

	var progress bytes.Buffer
	results, err := runQueryFile(context.Background(), path, testPipelineConfig(), &progress)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "eutils", results[0].Strategy)
	assert.Equal(t, []string{"111", "222"}, results[0].IDs)
	require.Len(t, results[1].Articles, 1)
	assert.Equal(t, "Article 333", results[1].Articles[0].Title)
	assert.Contains(t, progress.String(), "pfs")
	assert.Contains(t, progress.String(), "2 articles")

	f, err := query.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, f.Queries, 2)
	assert.Equal(t, "((PFS[Title/Abstract]) AND (Clinical Trial[Title/Abstract]))", f.Queries[0].Resolved)
	assert.Equal(t, "overall survival[ti]", f.Queries[1].Resolved)
	assert.Equal(t, []string{"111", "222"}, f.Queries[0].IDs)
	assert.Equal(t, []string{"333"}, f.Queries[1].IDs)
	require.NotNil(t, f.Summary)
	assert.Equal(t, 2, f.Summary.Queries)
	assert.Equal(t, 3, f.Summary.Articles)
	assert.False(t, f.Summary.Timestamp.IsZero())
	assert.Equal(t, 7, f.Config.RetMax)

	paths, params := fake.searches()
	assert.NotContains(t, paths, "/page/")
	require.Len(t, params, 2)
	for _, p := range params {
		assert.Equal(t, "7", p["retmax"])
		assert.Equal(t, "pub_date", p["sort"])
	}
}

func TestRunQueryFileDefaultStrategy(t *testing.T) {
	fake := withFakeNCBI(t)
	path := writeQueryFile(t, `queries:
  - name: pfs
    term: PFS
`)

	results, err := runQueryFile(context.Background(), path, testPipelineConfig(), &bytes.Buffer{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "page", results[0].Strategy)

	paths, params := fake.searches()
	assert.Contains(t, paths, "/page/")
	assert.NotContains(t, paths, "/eutils/esearch.fcgi")
	require.Len(t, params, 1)
	assert.Equal(t, fmt.Sprint(types.DefaultRetMax), params[0]["size"])
}

func TestRunQueryFileFailureLeavesFile(t *testing.T) {
	fake := withFakeNCBI(t)
	fake.failAll()
	content := `queries:
  - name: pfs
    term: PFS
`
	path := writeQueryFile(t, content)

	_, err := runQueryFile(context.Background(), path, testPipelineConfig(), &bytes.Buffer{})
	assert.ErrorIs(t, err, pubmed.ErrTransport)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestRunQueryFileInvalidQuery(t *testing.T) {
	withFakeNCBI(t)
	path := writeQueryFile(t, `queries:
  - name: blank
`)

	_, err := runQueryFile(context.Background(), path, testPipelineConfig(), &bytes.Buffer{})
	assert.ErrorIs(t, err, query.ErrInvalid)
}
