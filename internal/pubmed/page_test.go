// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePMIDPage = `<!DOCTYPE html>
<html lang="en">
<head><title>PFS - Search Results - PubMed</title></head>
<body>
<main class="search-page">
  <div class="results-amount"><span class="value">1,234</span> results</div>
  <div class="search-results" id="search-results">
    <div class="search-results-chunks">
      <div class="search-results-chunk results-chunk" data-page-number="1">
        <pre class="search-results-chunk">38012345
37999999
   37888888
</pre>
      </div>
    </div>
  </div>
</main>
</body>
</html>`

func TestPageSearch(t *testing.T) {
	c := withServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "((PFS[Title/Abstract]) AND (Clinical Trial[Title/Abstract]))", q.Get("term"))
		assert.Equal(t, "pmid", q.Get("format"))
		assert.Equal(t, "50", q.Get("size"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(samplePMIDPage))
	}))

	cfg := testCfg()
	cfg.RetMax = 50

	s := &PageSearcher{Client: c}
	ids, err := s.Search(context.Background(), "((PFS[Title/Abstract]) AND (Clinical Trial[Title/Abstract]))", cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"38012345", "37999999", "37888888"}, ids)
}

func TestExtractResultsChunk(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    []string
		wantErr error
	}{
		{
			name: "class among others",
			body: `<pre class="wide search-results-chunk">1 2</pre>`,
			want: []string{"1", "2"},
		},
		{
			name: "empty block",
			body: `<pre class="search-results-chunk">   </pre>`,
			want: []string{},
		},
		{
			name: "div with the class is not the block",
			body: `<div class="search-results-chunk">1 2</div>`,
			wantErr: ErrParse,
		},
		{
			name:    "no block",
			body:    `<html><body><p>No results were found.</p></body></html>`,
			wantErr: ErrParse,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractResultsChunk([]byte(tt.body))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPageSearchFailures(t *testing.T) {
	t.Run("not found status", func(t *testing.T) {
		c := withServer(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		s := &PageSearcher{Client: c}
		_, err := s.Search(context.Background(), "PFS", testCfg())
		assert.ErrorIs(t, err, ErrTransport)
	})

	t.Run("markup missing", func(t *testing.T) {
		c := withServer(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`<html><body><h1 class="heading-title">Single article page</h1></body></html>`))
		}))
		s := &PageSearcher{Client: c}
		_, err := s.Search(context.Background(), "PFS", testCfg())
		assert.ErrorIs(t, err, ErrParse)
	})

	t.Run("empty query", func(t *testing.T) {
		s := &PageSearcher{Client: &Client{}}
		_, err := s.Search(context.Background(), "", testCfg())
		assert.ErrorIs(t, err, ErrEmptyQuery)
	})
}
