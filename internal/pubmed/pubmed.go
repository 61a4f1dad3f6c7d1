// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pubmed resolves PubMed queries into identifier lists and fetches
// normalized article records.
//
// Identifier search has two interchangeable strategies behind the Searcher
// interface: the E-utilities esearch endpoint and a scrape of the public
// results page. Fetcher batches identifiers into one efetch request and
// reconciles the returned documents with the requested identifiers.
package pubmed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/pubmed-miner/internal/httputil"
	"github.com/pdiddy/pubmed-miner/pkg/types"
)

// Failure classes. Every error returned by this package wraps one of them.
var (
	// ErrTransport covers network errors, non-2xx responses and errors the
	// service reports in an otherwise well-formed response.
	ErrTransport = errors.New("pubmed request failed")

	// ErrParse means the expected response structure is absent or cannot
	// be decoded.
	ErrParse = errors.New("pubmed response parse failed")

	// ErrSchema means a decoded document lacks a required element.
	ErrSchema = errors.New("pubmed document schema mismatch")

	// ErrMismatch means the fetched documents do not correspond to the
	// requested identifiers.
	ErrMismatch = errors.New("pubmed documents do not match requested identifiers")

	// ErrEmptyQuery is returned when a search is given no query string.
	ErrEmptyQuery = errors.New("empty query")
)

// Base URLs. Declared as vars so tests can substitute an httptest server.
var (
	eutilsBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"
	pageBase   = "https://pubmed.ncbi.nlm.nih.gov/"
)

// postThreshold is the identifier count above which efetch is sent as a
// form POST; NCBI rejects overlong GET URLs.
const postThreshold = 200

// Client carries the HTTP transport and logger shared by the searchers and
// the fetcher.
type Client struct {
	HTTP   *http.Client
	Logger *slog.Logger

	// EUtilsURL and PageURL replace the NCBI endpoints when set, for a
	// mirror or a local stand-in.
	EUtilsURL string
	PageURL   string
}

// NewClient returns a Client whose transport applies cfg.Timeout.
func NewClient(cfg types.HTTPConfig, logger *slog.Logger) *Client {
	return &Client{
		HTTP:   &http.Client{Timeout: cfg.Timeout},
		Logger: logger,
	}
}

func (c *Client) httpClient() *http.Client {
	if c == nil || c.HTTP == nil {
		return http.DefaultClient
	}
	return c.HTTP
}

func (c *Client) eutilsURL(endpoint string) string {
	base := eutilsBase
	if c != nil && c.EUtilsURL != "" {
		base = strings.TrimSuffix(c.EUtilsURL, "/")
	}
	return base + "/" + endpoint
}

func (c *Client) pageURL() string {
	if c != nil && c.PageURL != "" {
		return c.PageURL
	}
	return pageBase
}

func (c *Client) logger() *slog.Logger {
	if c == nil || c.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c.Logger
}

// identify adds the caller identification parameters NCBI asks for.
func identify(params url.Values, cfg types.EntrezConfig) {
	if cfg.Email != "" {
		params.Set("email", cfg.Email)
	}
	if cfg.Tool != "" {
		params.Set("tool", cfg.Tool)
	}
	if cfg.APIKey != "" {
		params.Set("api_key", cfg.APIKey)
	}
}

// do sends one request and returns the body of a 2xx response. Parameters
// go in the query string for GET and in a form body for POST.
func (c *Client) do(ctx context.Context, method, endpoint string, params url.Values, cfg types.EntrezConfig) ([]byte, error) {
	var (
		req *http.Request
		err error
	)
	if method == http.MethodPost {
		req, err = http.NewRequestWithContext(ctx, method, endpoint, strings.NewReader(params.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, method, endpoint+"?"+params.Encode(), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %w", ErrTransport, err)
	}
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}

	c.logger().Debug("pubmed request", "method", method, "endpoint", endpoint)

	resp, err := httputil.DoWithRetry(ctx, c.httpClient(), req, cfg.MaxRetries, c.logger())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTransport, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned HTTP %d", ErrTransport, endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s response: %w", ErrTransport, endpoint, err)
	}
	return body, nil
}
