// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/pdiddy/pubmed-miner/pkg/types"
)

// Fetcher retrieves article details with efetch.
type Fetcher struct {
	Client *Client
}

// FetchDetails fetches all ids in one batched request and returns one
// record per id, in the order of ids. efetch is always asked for XML;
// cfg.RetMode only applies to esearch.
//
// Documents are matched to ids by their PMID. If any document lacks a PMID
// the match falls back to position, which requires the document count to
// equal the id count. Any mismatch fails the whole batch with ErrMismatch.
func (f *Fetcher) FetchDetails(ctx context.Context, ids []string, cfg types.EntrezConfig) ([]types.Article, error) {
	if len(ids) == 0 {
		return []types.Article{}, nil
	}
	cfg = cfg.WithDefaults()

	params := url.Values{
		"db":      {cfg.DB},
		"retmode": {"xml"},
		"id":      {strings.Join(ids, ",")},
	}
	identify(params, cfg)

	method := http.MethodGet
	if len(ids) > postThreshold {
		method = http.MethodPost
	}

	body, err := f.Client.do(ctx, method, f.Client.eutilsURL("efetch.fcgi"), params, cfg)
	if err != nil {
		return nil, err
	}

	articles, err := decodeArticles(body, ids)
	if err != nil {
		return nil, err
	}

	f.Client.logger().Info("efetch complete", "requested", len(ids), "articles", len(articles))
	return articles, nil
}

// decodeArticles decodes an efetch PubmedArticleSet and reconciles it with
// the requested ids.
func decodeArticles(body []byte, ids []string) ([]types.Article, error) {
	var set pubmedArticleSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("%w: decoding efetch XML: %w", ErrParse, err)
	}

	for i, doc := range set.Articles {
		if err := doc.validate(); err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
	}
	return reconcile(ids, set.Articles)
}

func reconcile(ids []string, docs []pubmedArticle) ([]types.Article, error) {
	byPMID := make(map[string]int, len(docs))
	for i, doc := range docs {
		pmid := doc.pmid()
		if pmid == "" {
			return reconcileByPosition(ids, docs)
		}
		byPMID[pmid] = i
	}

	requested := make(map[string]bool, len(ids))
	for _, id := range ids {
		requested[id] = true
	}
	for pmid := range byPMID {
		if !requested[pmid] {
			return nil, fmt.Errorf("%w: response contains unrequested PMID %s", ErrMismatch, pmid)
		}
	}

	articles := make([]types.Article, 0, len(ids))
	for _, id := range ids {
		i, ok := byPMID[id]
		if !ok {
			return nil, fmt.Errorf("%w: no document returned for PMID %s", ErrMismatch, id)
		}
		articles = append(articles, docs[i].normalize(id))
	}
	return articles, nil
}

func reconcileByPosition(ids []string, docs []pubmedArticle) ([]types.Article, error) {
	if len(docs) != len(ids) {
		return nil, fmt.Errorf("%w: requested %d identifiers, received %d documents without PMIDs",
			ErrMismatch, len(ids), len(docs))
	}
	articles := make([]types.Article, len(docs))
	for i, doc := range docs {
		articles[i] = doc.normalize(ids[i])
	}
	return articles, nil
}

// efetch XML structures. Optional elements are pointers so that absence
// can be told apart from emptiness.
type pubmedArticleSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	Citation *medlineCitation `xml:"MedlineCitation"`
}

type medlineCitation struct {
	PMID         markupText    `xml:"PMID"`
	Article      *article      `xml:"Article"`
	KeywordLists []keywordList `xml:"KeywordList"`
}

type article struct {
	Title    *markupText `xml:"ArticleTitle"`
	Abstract *abstract   `xml:"Abstract"`
}

type abstract struct {
	Texts []markupText `xml:"AbstractText"`
}

type keywordList struct {
	Keywords []markupText `xml:"Keyword"`
}

func (d pubmedArticle) validate() error {
	switch {
	case d.Citation == nil:
		return fmt.Errorf("%w: missing MedlineCitation", ErrSchema)
	case d.Citation.Article == nil:
		return fmt.Errorf("%w: PMID %s: missing Article", ErrSchema, d.pmid())
	case d.Citation.Article.Title == nil:
		return fmt.Errorf("%w: PMID %s: missing ArticleTitle", ErrSchema, d.pmid())
	}
	return nil
}

func (d pubmedArticle) pmid() string {
	return strings.TrimSpace(string(d.Citation.PMID))
}

// normalize flattens a validated document into an Article for id.
func (d pubmedArticle) normalize(id string) types.Article {
	art := d.Citation.Article

	var abstractText string
	if art.Abstract != nil {
		segments := make([]string, len(art.Abstract.Texts))
		for i, t := range art.Abstract.Texts {
			segments[i] = string(t)
		}
		abstractText = strings.Join(segments, " ")
	}

	return types.Article{
		ID:       id,
		Title:    string(*art.Title),
		Abstract: abstractText,
		Keywords: normalizeKeywords(d.Citation.KeywordLists),
	}
}

// normalizeKeywords merges every keyword list, drops duplicates, sorts the
// result and keeps the first MaxArticleKeywords entries.
func normalizeKeywords(lists []keywordList) []string {
	seen := make(map[string]bool)
	keywords := []string{}
	for _, list := range lists {
		for _, kw := range list.Keywords {
			k := strings.TrimSpace(string(kw))
			if k == "" || seen[k] {
				continue
			}
			seen[k] = true
			keywords = append(keywords, k)
		}
	}
	sort.Strings(keywords)
	if len(keywords) > types.MaxArticleKeywords {
		keywords = keywords[:types.MaxArticleKeywords]
	}
	return keywords
}

// markupText is the text content of an element, with inline markup such
// as <i> or <sup> flattened away.
type markupText string

// UnmarshalXML implements xml.Unmarshaler.
func (t *markupText) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var b strings.Builder
	depth := 0
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch tt := tok.(type) {
		case xml.CharData:
			b.Write(tt)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				*t = markupText(b.String())
				return nil
			}
			depth--
		}
	}
}
