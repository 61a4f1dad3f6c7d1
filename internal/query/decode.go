// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package query

import (
	"fmt"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Mapping keys recognized by Decode.
const (
	keyAny   = "any"
	keyOr    = "or"
	keyAll   = "all"
	keyAnd   = "and"
	keyTerm  = "term"
	keyField = "field"
)

// ParseExpr decodes a YAML expression. Flow style keeps command-line
// expressions short:
//
//	[{any: [PFS, progression-free survival]}, Clinical Trial]
//
// A scalar is a Term, a sequence is an AllOf, {any: [...]} (or "or") is an
// AnyOf, {all: [...]} (or "and") is an AllOf and {term: x, field: f} is a
// FieldTerm.
func ParseExpr(src string) (Expr, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(src), &doc); err != nil {
		return nil, fmt.Errorf("parsing expression: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, &ValidationError{Path: "root", Node: "document", Reason: "empty expression"}
	}
	return Decode(doc.Content[0])
}

// Decode converts a YAML node into an Expr.
func Decode(n *yaml.Node) (Expr, error) {
	return decodeNode(n, "root")
}

func decodeNode(n *yaml.Node, path string) (Expr, error) {
	if n == nil {
		return nil, &ValidationError{Path: path, Node: "nil", Reason: "missing node"}
	}
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return nil, invalidNode(n, path, "null is not a term")
		}
		return Term(n.Value), nil
	case yaml.SequenceNode:
		children, err := decodeChildren(n, path)
		if err != nil {
			return nil, err
		}
		return AllOf(children), nil
	case yaml.MappingNode:
		return decodeMapping(n, path)
	case yaml.AliasNode:
		return decodeNode(n.Alias, path)
	default:
		return nil, invalidNode(n, path, "unsupported node kind")
	}
}

func decodeChildren(n *yaml.Node, path string) ([]Expr, error) {
	children := make([]Expr, 0, len(n.Content))
	for i, c := range n.Content {
		e, err := decodeNode(c, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		children = append(children, e)
	}
	return children, nil
}

func decodeMapping(n *yaml.Node, path string) (Expr, error) {
	fields := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		fields[strings.ToLower(n.Content[i].Value)] = n.Content[i+1]
	}

	if t, ok := fields[keyTerm]; ok {
		if len(fields) > 2 || (len(fields) == 2 && fields[keyField] == nil) {
			return nil, invalidNode(n, path, "term mapping accepts only term and field")
		}
		if t.Kind != yaml.ScalarNode {
			return nil, invalidNode(t, path, "term must be a scalar")
		}
		ft := FieldTerm{Text: t.Value}
		if f := fields[keyField]; f != nil {
			if f.Kind != yaml.ScalarNode || f.Tag == "!!null" {
				return nil, invalidNode(f, path, "field must be a scalar")
			}
			ft.Field = f.Value
		}
		return ft, nil
	}

	if len(fields) != 1 {
		return nil, invalidNode(n, path, "operator mapping must have exactly one key")
	}
	key := strings.ToLower(n.Content[0].Value)
	val := n.Content[1]
	if val.Kind != yaml.SequenceNode {
		return nil, invalidNode(val, path, fmt.Sprintf("%q expects a sequence", key))
	}
	children, err := decodeChildren(val, path)
	if err != nil {
		return nil, err
	}
	switch key {
	case keyAny, keyOr:
		return AnyOf(children), nil
	case keyAll, keyAnd:
		return AllOf(children), nil
	}
	return nil, invalidNode(n, path, fmt.Sprintf("unknown operator %q", key))
}

func invalidNode(n *yaml.Node, path, reason string) error {
	return &ValidationError{
		Path:   path,
		Node:   fmt.Sprintf("%s at line %d, column %d", kindName(n.Kind), n.Line, n.Column),
		Reason: reason,
	}
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	}
	return "node"
}

// Encode converts expr into plain values that Decode reads back: strings,
// slices and single-key maps.
func Encode(expr Expr) any {
	switch n := expr.(type) {
	case Term:
		return string(n)
	case FieldTerm:
		if n.Field == "" {
			return n.Text
		}
		return map[string]string{keyTerm: n.Text, keyField: n.Field}
	case AllOf:
		return encodeChildren(n)
	case AnyOf:
		return map[string]any{keyAny: encodeChildren(n)}
	}
	return nil
}

func encodeChildren(children []Expr) []any {
	out := make([]any, len(children))
	for i, c := range children {
		out[i] = Encode(c)
	}
	return out
}

// Node wraps an Expr so it can be embedded in YAML documents.
type Node struct {
	Expr Expr
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	e, err := Decode(value)
	if err != nil {
		return err
	}
	n.Expr = e
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (n Node) MarshalYAML() (any, error) {
	return Encode(n.Expr), nil
}
