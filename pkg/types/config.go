// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout. Zero leaves the transport default.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "pubmed-miner/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SearchStrategy selects how a query string is resolved into PMIDs.
type SearchStrategy string

const (
	// StrategyEUtils queries the E-utilities esearch endpoint.
	StrategyEUtils SearchStrategy = "eutils"
	// StrategyPage scrapes the PubMed results page in PMID format.
	StrategyPage SearchStrategy = "page"
)

// Entrez defaults. The page strategy is the default because its ordering
// matches what a user sees on pubmed.ncbi.nlm.nih.gov.
const (
	DefaultDB         = "pubmed"
	DefaultRetMode    = "xml"
	DefaultSort       = "relevance"
	DefaultRetMax     = 100
	DefaultTool       = "pubmed-miner"
	DefaultStrategy   = StrategyPage
	DefaultMaxRetries = 3
	DefaultUserAgent  = "pubmed-miner/0.1"
)

// EntrezConfig holds the pass-through parameters for search and fetch
// requests. Values are not validated locally; the remote service rejects
// invalid ones at request time.
type EntrezConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// DB is the target Entrez database (default "pubmed").
	DB string `json:"db" yaml:"db" mapstructure:"db"`

	// RetMode is the requested response format (default "xml").
	RetMode string `json:"retmode" yaml:"retmode" mapstructure:"retmode"`

	// Sort is the ranking mode for esearch (default "relevance").
	Sort string `json:"sort" yaml:"sort" mapstructure:"sort"`

	// RetMax caps the number of identifiers returned (default 100).
	RetMax int `json:"retmax" yaml:"retmax" mapstructure:"retmax"`

	// Email and Tool identify the caller to NCBI.
	Email string `json:"email,omitempty" yaml:"email,omitempty" mapstructure:"email"`
	Tool  string `json:"tool,omitempty" yaml:"tool,omitempty" mapstructure:"tool"`

	// APIKey raises the NCBI rate limit from 3 to 10 requests per second.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Strategy selects the identifier search strategy (default "page").
	Strategy SearchStrategy `json:"strategy" yaml:"strategy" mapstructure:"strategy"`

	// MaxRetries is the number of retries on HTTP 429 (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// DefaultEntrezConfig returns the documented defaults.
func DefaultEntrezConfig() EntrezConfig {
	return EntrezConfig{
		HTTPConfig: HTTPConfig{UserAgent: DefaultUserAgent},
		DB:         DefaultDB,
		RetMode:    DefaultRetMode,
		Sort:       DefaultSort,
		RetMax:     DefaultRetMax,
		Tool:       DefaultTool,
		Strategy:   DefaultStrategy,
		MaxRetries: DefaultMaxRetries,
	}
}

// WithDefaults returns a copy of c with every zero field replaced by its
// default. Explicitly set fields are kept as-is.
func (c EntrezConfig) WithDefaults() EntrezConfig {
	d := DefaultEntrezConfig()
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
	if c.DB == "" {
		c.DB = d.DB
	}
	if c.RetMode == "" {
		c.RetMode = d.RetMode
	}
	if c.Sort == "" {
		c.Sort = d.Sort
	}
	if c.RetMax <= 0 {
		c.RetMax = d.RetMax
	}
	if c.Tool == "" {
		c.Tool = d.Tool
	}
	if c.Strategy == "" {
		c.Strategy = d.Strategy
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = d.MaxRetries
	}
	return c
}

// KeywordConfig configures the keyword extractor. Zero fields fall back
// to the defaults in the env-default tags.
type KeywordConfig struct {
	// Language is the stopword language code (default "en").
	Language string `json:"lan" yaml:"lan" env:"PUBMED_KEYWORD_LANGUAGE" env-default:"en"`

	// NGram is the maximum number of words per keyword (default 3).
	NGram int `json:"n" yaml:"n" env:"PUBMED_KEYWORD_NGRAM" env-default:"3"`

	// DedupLimit is the similarity above which a candidate is dropped as a
	// duplicate of an already selected keyword (default 0.9).
	DedupLimit float64 `json:"dedup_lim" yaml:"dedup_lim" env:"PUBMED_KEYWORD_DEDUP_LIMIT" env-default:"0.9"`

	// DedupFunc names the similarity function: seqm, levs or jaro (default "seqm").
	DedupFunc string `json:"dedup_func" yaml:"dedup_func" env:"PUBMED_KEYWORD_DEDUP_FUNC" env-default:"seqm"`

	// WindowSize is the co-occurrence window in tokens (default 1).
	WindowSize int `json:"window_size" yaml:"window_size" env:"PUBMED_KEYWORD_WINDOW_SIZE" env-default:"1"`

	// Top caps the number of keywords returned (default 100).
	Top int `json:"top" yaml:"top" env:"PUBMED_KEYWORD_TOP" env-default:"100"`

	// Features restricts which term features contribute to the score.
	// Nil means all features.
	Features []string `json:"features,omitempty" yaml:"features,omitempty" env:"PUBMED_KEYWORD_FEATURES" env-separator:","`
}

// OutputFormat selects how article records are rendered.
type OutputFormat string

const (
	OutputTable OutputFormat = "table"
	OutputJSON  OutputFormat = "json"
	OutputCSV   OutputFormat = "csv"
	OutputYAML  OutputFormat = "yaml"
)

// OutputConfig holds settings for rendering and exporting results.
type OutputConfig struct {
	// Format selects the rendering: table, json, csv or yaml.
	Format OutputFormat `json:"format" yaml:"format" mapstructure:"format"`

	// SQLitePath, when set, also appends the run to a SQLite export file.
	SQLitePath string `json:"sqlite_path,omitempty" yaml:"sqlite_path,omitempty" mapstructure:"sqlite_path"`
}

// PipelineConfig groups all stage configurations for the CLI.
type PipelineConfig struct {
	Entrez  EntrezConfig  `json:"entrez" yaml:"entrez" mapstructure:"entrez"`
	Keyword KeywordConfig `json:"keyword" yaml:"keyword" mapstructure:"keyword"`
	Output  OutputConfig  `json:"output" yaml:"output" mapstructure:"output"`

	// Concurrency bounds parallel queries in batch runs (default 1).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`
}
