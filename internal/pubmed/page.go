// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/pdiddy/pubmed-miner/pkg/types"
)

// resultsChunkClass marks the <pre> block that holds the PMIDs when the
// results page is rendered with format=pmid.
const resultsChunkClass = "search-results-chunk"

// PageSearcher scrapes the public PubMed results page. Its ordering is the
// page's default "best match" display order.
type PageSearcher struct {
	Client *Client
}

// Name returns the strategy identifier.
func (s *PageSearcher) Name() string { return string(types.StrategyPage) }

// Search requests the results page in PMID format and splits the
// preformatted identifier block on whitespace.
func (s *PageSearcher) Search(ctx context.Context, query string, cfg types.EntrezConfig) ([]string, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	cfg = cfg.WithDefaults()

	params := url.Values{
		"term":   {query},
		"format": {"pmid"},
		"size":   {strconv.Itoa(cfg.RetMax)},
	}

	body, err := s.Client.do(ctx, http.MethodGet, s.Client.pageURL(), params, cfg)
	if err != nil {
		return nil, err
	}

	ids, err := extractResultsChunk(body)
	if err != nil {
		return nil, err
	}

	s.Client.logger().Info("page search complete", "ids", len(ids), "size", cfg.RetMax)
	return ids, nil
}

// extractResultsChunk finds <pre class="search-results-chunk"> and returns
// the whitespace-separated identifiers it contains.
func extractResultsChunk(body []byte) ([]string, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing results page: %w", ErrParse, err)
	}

	pre := findElement(doc, func(n *html.Node) bool {
		return n.Data == "pre" && hasClass(n, resultsChunkClass)
	})
	if pre == nil {
		return nil, fmt.Errorf("%w: results page has no <pre class=%q> block", ErrParse, resultsChunkClass)
	}

	var text strings.Builder
	collectText(pre, &text)
	return strings.Fields(text.String()), nil
}

func findElement(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, match); found != nil {
			return found
		}
	}
	return nil
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteByte(' ')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}
