// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package keyword

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		fn   func(a, b string) float64
		a, b string
		want float64
	}{
		{"seqm identical", seqRatio, "survival", "survival", 1},
		{"seqm disjoint", seqRatio, "abc", "xyz", 0},
		{"seqm plural", seqRatio, "survival", "survivals", 16.0 / 17.0},
		{"seqm empty", seqRatio, "", "", 1},
		{"levs kitten", levenshteinSimilarity, "kitten", "sitting", 1 - 3.0/7.0},
		{"levs identical", levenshteinSimilarity, "pfs", "pfs", 1},
		{"levs one empty", levenshteinSimilarity, "", "abc", 0},
		{"jaro martha", jaroWinkler, "MARTHA", "MARHTA", 0.9611111},
		{"jaro disjoint", jaroWinkler, "abc", "xyz", 0},
		{"jaro identical", jaroWinkler, "trial", "trial", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.fn(tt.a, tt.b), 1e-6)
		})
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	for name, fn := range similarityFuncs {
		t.Run(name, func(t *testing.T) {
			assert.InDelta(t, fn("overall survival", "survival"), fn("survival", "overall survival"), 1e-9)
		})
	}
}
