// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/pubmed-miner/pkg/types"
)

// Searcher resolves a query string into PMIDs. The two strategies may
// return different orders for the same query.
type Searcher interface {
	Name() string
	Search(ctx context.Context, query string, cfg types.EntrezConfig) ([]string, error)
}

// NewSearcher returns the Searcher for strategy.
func NewSearcher(strategy types.SearchStrategy, c *Client) (Searcher, error) {
	switch strategy {
	case types.StrategyEUtils:
		return &EUtilsSearcher{Client: c}, nil
	case types.StrategyPage, "":
		return &PageSearcher{Client: c}, nil
	}
	return nil, fmt.Errorf("unknown search strategy %q (want %q or %q)",
		strategy, types.StrategyEUtils, types.StrategyPage)
}

// EUtilsSearcher queries the esearch endpoint. Results follow the
// endpoint's ranking for cfg.Sort.
type EUtilsSearcher struct {
	Client *Client
}

// Name returns the strategy identifier.
func (s *EUtilsSearcher) Name() string { return string(types.StrategyEUtils) }

// Search submits query with the configured database, format, sort and cap.
func (s *EUtilsSearcher) Search(ctx context.Context, query string, cfg types.EntrezConfig) ([]string, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	cfg = cfg.WithDefaults()

	params := url.Values{
		"db":      {cfg.DB},
		"term":    {query},
		"retmax":  {strconv.Itoa(cfg.RetMax)},
		"sort":    {cfg.Sort},
		"retmode": {cfg.RetMode},
	}
	identify(params, cfg)

	body, err := s.Client.do(ctx, http.MethodGet, s.Client.eutilsURL("esearch.fcgi"), params, cfg)
	if err != nil {
		return nil, err
	}

	var ids []string
	if strings.EqualFold(cfg.RetMode, "json") {
		ids, err = decodeESearchJSON(body)
	} else {
		ids, err = decodeESearchXML(body)
	}
	if err != nil {
		return nil, err
	}

	s.Client.logger().Info("esearch complete", "ids", len(ids), "retmax", cfg.RetMax)
	return ids, nil
}

// esearch XML structures.
type eSearchResult struct {
	XMLName xml.Name   `xml:"eSearchResult"`
	Count   string     `xml:"Count"`
	IDList  *eSearchID `xml:"IdList"`
	Error   string     `xml:"ERROR"`
}

type eSearchID struct {
	IDs []string `xml:"Id"`
}

func decodeESearchXML(body []byte) ([]string, error) {
	var res eSearchResult
	if err := xml.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("%w: decoding esearch XML: %w", ErrParse, err)
	}
	if res.Error != "" {
		return nil, fmt.Errorf("%w: esearch: %s", ErrTransport, strings.TrimSpace(res.Error))
	}
	if res.IDList == nil {
		return nil, fmt.Errorf("%w: esearch response has no IdList", ErrParse)
	}
	return trimIDs(res.IDList.IDs), nil
}

// esearch JSON structures.
type eSearchJSON struct {
	Result *struct {
		Count  string   `json:"count"`
		IDList []string `json:"idlist"`
		Error  string   `json:"ERROR"`
	} `json:"esearchresult"`
	Error string `json:"error"`
}

func decodeESearchJSON(body []byte) ([]string, error) {
	var res eSearchJSON
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("%w: decoding esearch JSON: %w", ErrParse, err)
	}
	if res.Error != "" {
		return nil, fmt.Errorf("%w: esearch: %s", ErrTransport, res.Error)
	}
	if res.Result == nil {
		return nil, fmt.Errorf("%w: esearch response has no esearchresult", ErrParse)
	}
	if res.Result.Error != "" {
		return nil, fmt.Errorf("%w: esearch: %s", ErrTransport, res.Result.Error)
	}
	return trimIDs(res.Result.IDList), nil
}

func trimIDs(raw []string) []string {
	ids := make([]string, 0, len(raw))
	for _, id := range raw {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
