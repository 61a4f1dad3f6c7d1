// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/pubmed-miner/internal/httputil"
	"github.com/pdiddy/pubmed-miner/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = 1 * time.Millisecond
}

func testCfg() types.EntrezConfig {
	cfg := types.DefaultEntrezConfig()
	cfg.Email = "dev@example.org"
	cfg.UserAgent = "test/0.1"
	return cfg
}

// withServer starts an httptest server, points both base URLs at it and
// returns a Client that talks to it.
func withServer(t *testing.T, h http.Handler) *Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	oldEUtils, oldPage := eutilsBase, pageBase
	eutilsBase = ts.URL
	pageBase = ts.URL + "/"
	t.Cleanup(func() {
		eutilsBase, pageBase = oldEUtils, oldPage
	})
	return &Client{HTTP: ts.Client()}
}

// efetchDoc renders one PubmedArticle. An empty abstract omits the
// Abstract element; an empty pmid omits the PMID element.
func efetchDoc(pmid, title, abstract string, keywordLists ...[]string) string {
	var b strings.Builder
	b.WriteString("<PubmedArticle><MedlineCitation Status=\"MEDLINE\" Owner=\"NLM\">")
	if pmid != "" {
		fmt.Fprintf(&b, "<PMID Version=\"1\">%s</PMID>", pmid)
	}
	fmt.Fprintf(&b, "<Article PubModel=\"Print\"><ArticleTitle>%s</ArticleTitle>", title)
	if abstract != "" {
		fmt.Fprintf(&b, "<Abstract>%s</Abstract>", abstract)
	}
	b.WriteString("</Article>")
	for _, list := range keywordLists {
		b.WriteString("<KeywordList Owner=\"NOTNLM\">")
		for _, kw := range list {
			fmt.Fprintf(&b, "<Keyword MajorTopicYN=\"N\">%s</Keyword>", kw)
		}
		b.WriteString("</KeywordList>")
	}
	b.WriteString("</MedlineCitation></PubmedArticle>")
	return b.String()
}

func efetchSet(docs ...string) string {
	return `<?xml version="1.0" ?>
<!DOCTYPE PubmedArticleSet PUBLIC "-//NLM//DTD PubMedArticle, 1st January 2024//EN" "https://dtd.nlm.nih.gov/ncbi/pubmed/out/pubmed_240101.dtd">
<PubmedArticleSet>` + strings.Join(docs, "\n") + `</PubmedArticleSet>`
}
