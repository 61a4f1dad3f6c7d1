// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pubmed-miner/internal/pubmed"
	"github.com/pdiddy/pubmed-miner/internal/query"
	"github.com/pdiddy/pubmed-miner/pkg/types"
)

func queryFlagsCmd(t *testing.T, flags map[string]string, stdin string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{}
	cmd.Flags().String("expr", "", "")
	cmd.Flags().String("term", "", "")
	for k, v := range flags {
		require.NoError(t, cmd.Flags().Set(k, v))
	}
	cmd.SetIn(strings.NewReader(stdin))
	return cmd
}

func TestResolveQuery(t *testing.T) {
	tests := []struct {
		name  string
		flags map[string]string
		args  []string
		stdin string
		want  string
	}{
		{"expr", map[string]string{"expr": "[PFS, Clinical Trial]"}, nil, "", "((PFS[Title/Abstract]) AND (Clinical Trial[Title/Abstract]))"},
		{"term", map[string]string{"term": "PFS[ti]"}, nil, "", "PFS[ti]"},
		{"args", nil, []string{"breast", "cancer"}, "", "breast cancer"},
		{"stdin", nil, []string{"-"}, "  PFS AND OS \n", "PFS AND OS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveQuery(queryFlagsCmd(t, tt.flags, tt.stdin), tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveQueryErrors(t *testing.T) {
	t.Run("nothing given", func(t *testing.T) {
		_, err := resolveQuery(queryFlagsCmd(t, nil, ""), nil)
		assert.ErrorIs(t, err, pubmed.ErrEmptyQuery)
	})

	t.Run("empty stdin", func(t *testing.T) {
		_, err := resolveQuery(queryFlagsCmd(t, nil, "   "), []string{"-"})
		assert.ErrorIs(t, err, pubmed.ErrEmptyQuery)
	})

	t.Run("expr and term", func(t *testing.T) {
		_, err := resolveQuery(queryFlagsCmd(t, map[string]string{"expr": "PFS", "term": "OS"}, ""), nil)
		assert.Error(t, err)
	})

	t.Run("invalid expr", func(t *testing.T) {
		_, err := resolveQuery(queryFlagsCmd(t, map[string]string{"expr": "{any: []}"}, ""), nil)
		assert.ErrorIs(t, err, query.ErrInvalid)
	})
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l, err := newLogger(&buf, "json", false)
	require.NoError(t, err)
	l.Debug("hidden")
	l.Info("search complete", "ids", 3)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "search complete", rec["msg"])
	assert.Equal(t, float64(3), rec["ids"])

	buf.Reset()
	l, err = newLogger(&buf, "text", true)
	require.NoError(t, err)
	l.Debug("request")
	assert.Contains(t, buf.String(), "level=DEBUG")

	_, err = newLogger(&buf, "xml", false)
	assert.Error(t, err)
}

func TestArticleText(t *testing.T) {
	got := articleText([]types.Article{
		{ID: "1", Title: "Survival outcomes", Abstract: "Median PFS improved."},
		{ID: "2", Title: "No abstract here"},
	})
	assert.Equal(t, "Survival outcomes.\nMedian PFS improved.\nNo abstract here.\n", got)
}
