// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package query builds PubMed boolean search strings from expression trees.
//
// An expression is a Term (or FieldTerm) leaf, an AllOf conjunction, or an
// AnyOf disjunction. Construct renders the tree fully parenthesized with
// every leaf tagged by its search field:
//
//	AllOf{AnyOf{Term("a"), Term("b")}, Term("c")}
//	=> (((a[Title/Abstract]) OR (b[Title/Abstract])) AND (c[Title/Abstract]))
package query

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultField is the search field applied to plain terms.
const DefaultField = "Title/Abstract"

// ErrInvalid is wrapped by every ValidationError.
var ErrInvalid = errors.New("invalid query expression")

// Expr is a node of a query expression tree. The set of implementations
// is closed: Term, FieldTerm, AllOf and AnyOf.
type Expr interface {
	render(b *strings.Builder, path string) error
}

// Term is a leaf searched in the title and abstract.
type Term string

// FieldTerm is a leaf searched in an explicit field (e.g. "MeSH Terms").
// An empty Field means DefaultField.
type FieldTerm struct {
	Text  string
	Field string
}

// AllOf matches documents satisfying every child.
type AllOf []Expr

// AnyOf matches documents satisfying at least one child.
type AnyOf []Expr

// ValidationError reports a malformed node and where it sits in the tree.
type ValidationError struct {
	// Path locates the node, e.g. "root[1][0]".
	Path string
	// Node describes the offending node.
	Node string
	// Reason says what is wrong with it.
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s at %s (%s): %s", ErrInvalid, e.Path, e.Node, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

// Construct renders expr as a PubMed query string.
func Construct(expr Expr) (string, error) {
	var b strings.Builder
	if err := renderNode(&b, expr, "root"); err != nil {
		return "", err
	}
	return b.String(), nil
}

func renderNode(b *strings.Builder, e Expr, path string) error {
	if e == nil {
		return &ValidationError{Path: path, Node: "nil", Reason: "missing node"}
	}
	return e.render(b, path)
}

func (t Term) render(b *strings.Builder, path string) error {
	return FieldTerm{Text: string(t)}.render(b, path)
}

func (t FieldTerm) render(b *strings.Builder, path string) error {
	if strings.TrimSpace(t.Text) == "" {
		return &ValidationError{Path: path, Node: fmt.Sprintf("term %q", t.Text), Reason: "empty term"}
	}
	field := t.Field
	if field == "" {
		field = DefaultField
	}
	b.WriteString("(")
	b.WriteString(t.Text)
	b.WriteString("[")
	b.WriteString(field)
	b.WriteString("])")
	return nil
}

func (a AllOf) render(b *strings.Builder, path string) error {
	return renderGroup(b, []Expr(a), " AND ", "AllOf", path)
}

func (a AnyOf) render(b *strings.Builder, path string) error {
	return renderGroup(b, []Expr(a), " OR ", "AnyOf", path)
}

func renderGroup(b *strings.Builder, children []Expr, sep, kind, path string) error {
	if len(children) == 0 {
		return &ValidationError{Path: path, Node: kind, Reason: "container has no children"}
	}
	b.WriteString("(")
	for i, child := range children {
		if i > 0 {
			b.WriteString(sep)
		}
		if err := renderNode(b, child, fmt.Sprintf("%s[%d]", path, i)); err != nil {
			return err
		}
	}
	b.WriteString(")")
	return nil
}
