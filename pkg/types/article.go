// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the pubmed-miner pipeline:
// article records and stage configuration.
package types

// MaxArticleKeywords caps the author keywords kept per article.
const MaxArticleKeywords = 15

// Article is one normalized row of a detail fetch.
type Article struct {
	// ID is the PubMed identifier requested by the caller.
	ID string `json:"id" yaml:"id"`

	// Title is the article title with inline markup flattened to text.
	Title string `json:"title" yaml:"title"`

	// Abstract joins all abstract segments with a single space, or is
	// empty when the article has no abstract.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Keywords are the author keywords across all keyword lists,
	// deduplicated, sorted and truncated to MaxArticleKeywords.
	Keywords []string `json:"keywords" yaml:"keywords"`
}
