// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package keyword

import (
	"errors"
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/pdiddy/pubmed-miner/pkg/types"
)

// ErrConfig is wrapped by every configuration error New returns.
var ErrConfig = errors.New("invalid keyword extractor configuration")

// Defaults applied by New and NewFromConfig.
const (
	DefaultLanguage   = "en"
	DefaultNGram      = 3
	DefaultDedupLimit = 0.9
	DefaultDedupFunc  = "seqm"
	DefaultWindowSize = 1
	DefaultTop        = 100
)

// Feature names accepted by WithFeatures.
const (
	FeatureCase   = "wcase"
	FeaturePos    = "wpos"
	FeatureFreq   = "wfreq"
	FeatureRel    = "wrel"
	FeatureSpread = "wspread"
)

var allFeatures = []string{FeatureCase, FeaturePos, FeatureFreq, FeatureRel, FeatureSpread}

// DefaultConfig returns the documented defaults. Features is nil, meaning
// every feature contributes.
func DefaultConfig() types.KeywordConfig {
	return types.KeywordConfig{
		Language:   DefaultLanguage,
		NGram:      DefaultNGram,
		DedupLimit: DefaultDedupLimit,
		DedupFunc:  DefaultDedupFunc,
		WindowSize: DefaultWindowSize,
		Top:        DefaultTop,
	}
}

// Option overrides one configuration field.
type Option func(*types.KeywordConfig)

// WithLanguage sets the stopword language.
func WithLanguage(lang string) Option {
	return func(c *types.KeywordConfig) { c.Language = lang }
}

// WithNGram sets the maximum keyword length in words.
func WithNGram(n int) Option {
	return func(c *types.KeywordConfig) { c.NGram = n }
}

// WithDedupLimit sets the similarity threshold for dropping near-duplicate
// keywords. A limit of 1 or more disables deduplication.
func WithDedupLimit(limit float64) Option {
	return func(c *types.KeywordConfig) { c.DedupLimit = limit }
}

// WithDedupFunc sets the similarity function: seqm, levs or jaro.
func WithDedupFunc(name string) Option {
	return func(c *types.KeywordConfig) { c.DedupFunc = name }
}

// WithWindowSize sets the co-occurrence window.
func WithWindowSize(n int) Option {
	return func(c *types.KeywordConfig) { c.WindowSize = n }
}

// WithTop caps the number of keywords returned.
func WithTop(n int) Option {
	return func(c *types.KeywordConfig) { c.Top = n }
}

// WithFeatures restricts scoring to the named features.
func WithFeatures(features ...string) Option {
	return func(c *types.KeywordConfig) { c.Features = append([]string(nil), features...) }
}

// withDefaults fills zero fields of cfg from DefaultConfig.
func withDefaults(cfg types.KeywordConfig) types.KeywordConfig {
	d := DefaultConfig()
	if cfg.Language == "" {
		cfg.Language = d.Language
	}
	if cfg.NGram == 0 {
		cfg.NGram = d.NGram
	}
	if cfg.DedupLimit == 0 {
		cfg.DedupLimit = d.DedupLimit
	}
	if cfg.DedupFunc == "" {
		cfg.DedupFunc = d.DedupFunc
	}
	if cfg.WindowSize == 0 {
		cfg.WindowSize = d.WindowSize
	}
	if cfg.Top == 0 {
		cfg.Top = d.Top
	}
	return cfg
}

// LoadConfig reads an extractor profile (YAML, JSON or TOML, chosen by
// extension). PUBMED_KEYWORD_* environment variables override the file and
// unset fields take their defaults. An empty path reads the environment
// only.
func LoadConfig(path string) (types.KeywordConfig, error) {
	var cfg types.KeywordConfig
	var err error
	if path == "" {
		err = cleanenv.ReadEnv(&cfg)
	} else {
		err = cleanenv.ReadConfig(path, &cfg)
	}
	if err != nil {
		return types.KeywordConfig{}, fmt.Errorf("loading keyword config: %w", err)
	}
	return withDefaults(cfg), nil
}

func validate(cfg types.KeywordConfig) error {
	if _, ok := stopwordSets[cfg.Language]; !ok {
		return fmt.Errorf("%w: unsupported language %q", ErrConfig, cfg.Language)
	}
	if _, ok := similarityFuncs[cfg.DedupFunc]; !ok {
		return fmt.Errorf("%w: unknown dedup function %q (want seqm, levs or jaro)", ErrConfig, cfg.DedupFunc)
	}
	if cfg.NGram < 1 {
		return fmt.Errorf("%w: n-gram size must be at least 1, got %d", ErrConfig, cfg.NGram)
	}
	if cfg.WindowSize < 1 {
		return fmt.Errorf("%w: window size must be at least 1, got %d", ErrConfig, cfg.WindowSize)
	}
	if cfg.Top < 1 {
		return fmt.Errorf("%w: top must be at least 1, got %d", ErrConfig, cfg.Top)
	}
	if cfg.DedupLimit < 0 {
		return fmt.Errorf("%w: dedup limit must not be negative, got %g", ErrConfig, cfg.DedupLimit)
	}
	for _, f := range cfg.Features {
		if !isFeature(f) {
			return fmt.Errorf("%w: unknown feature %q", ErrConfig, f)
		}
	}
	return nil
}

func isFeature(name string) bool {
	for _, f := range allFeatures {
		if f == name {
			return true
		}
	}
	return false
}
