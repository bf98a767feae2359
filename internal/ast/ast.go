// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ast models the pandoc JSON document tree. Elements are kept in
// their decoded generic form so that any construct this package does not
// interpret survives a decode/encode cycle unchanged; Node gives typed
// access to the tagged {"t": kind, "c": content} objects.
package ast

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Block and inline constructor names used by pandoc.
const (
	KindPlain          = "Plain"
	KindPara           = "Para"
	KindLineBlock      = "LineBlock"
	KindCodeBlock      = "CodeBlock"
	KindRawBlock       = "RawBlock"
	KindBlockQuote     = "BlockQuote"
	KindOrderedList    = "OrderedList"
	KindBulletList     = "BulletList"
	KindDefinitionList = "DefinitionList"
	KindHeader         = "Header"
	KindHorizontalRule = "HorizontalRule"
	KindTable          = "Table"
	KindFigure         = "Figure"
	KindDiv            = "Div"

	KindStr         = "Str"
	KindEmph        = "Emph"
	KindUnderline   = "Underline"
	KindStrong      = "Strong"
	KindStrikeout   = "Strikeout"
	KindSuperscript = "Superscript"
	KindSubscript   = "Subscript"
	KindSmallCaps   = "SmallCaps"
	KindQuoted      = "Quoted"
	KindCite        = "Cite"
	KindCode        = "Code"
	KindSpace       = "Space"
	KindSoftBreak   = "SoftBreak"
	KindLineBreak   = "LineBreak"
	KindMath        = "Math"
	KindRawInline   = "RawInline"
	KindLink        = "Link"
	KindImage       = "Image"
	KindNote        = "Note"
	KindSpan        = "Span"
)

// literalKinds hold verbatim user text. Their content is opaque: it is
// never searched for markup and never mutated.
var literalKinds = map[string]bool{
	KindCode:      true,
	KindCodeBlock: true,
	KindRawInline: true,
	KindRawBlock:  true,
	KindMath:      true,
}

// containerKinds carry further markup in their content.
var containerKinds = map[string]bool{
	KindPlain:          true,
	KindPara:           true,
	KindLineBlock:      true,
	KindBlockQuote:     true,
	KindOrderedList:    true,
	KindBulletList:     true,
	KindDefinitionList: true,
	KindHeader:         true,
	KindTable:          true,
	KindFigure:         true,
	KindDiv:            true,
	KindEmph:           true,
	KindUnderline:      true,
	KindStrong:         true,
	KindStrikeout:      true,
	KindSuperscript:    true,
	KindSubscript:      true,
	KindSmallCaps:      true,
	KindQuoted:         true,
	KindCite:           true,
	KindLink:           true,
	KindImage:          true,
	KindNote:           true,
	KindSpan:           true,
}

// blockKinds end a line of text when converted to a plain string.
var blockKinds = map[string]bool{
	KindPlain:          true,
	KindPara:           true,
	KindLineBlock:      true,
	KindCodeBlock:      true,
	KindRawBlock:       true,
	KindHeader:         true,
	KindHorizontalRule: true,
}

// IsLiteral reports whether kind holds verbatim text.
func IsLiteral(kind string) bool { return literalKinds[kind] }

// IsContainer reports whether kind may hold further markup.
func IsContainer(kind string) bool { return containerKinds[kind] }

// Document is a pandoc JSON document.
type Document struct {
	APIVersion []int           `json:"pandoc-api-version"`
	Meta       json.RawMessage `json:"meta"`
	Blocks     []any           `json:"blocks"`
}

// Decode parses pandoc JSON output. Numbers are kept as json.Number so that
// list start values and column widths re-encode exactly.
func Decode(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding pandoc JSON: %w", err)
	}
	if doc.Blocks == nil {
		doc.Blocks = []any{}
	}
	return &doc, nil
}

// Encode serialises the document back to pandoc JSON.
func Encode(doc *Document) ([]byte, error) {
	out := *doc
	if len(out.Meta) == 0 {
		out.Meta = json.RawMessage("{}")
	}
	if out.Blocks == nil {
		out.Blocks = []any{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(&out); err != nil {
		return nil, fmt.Errorf("encoding pandoc JSON: %w", err)
	}
	return buf.Bytes(), nil
}

// Node is a tagged element of the tree. It aliases the underlying decoded
// object, so setters mutate the document in place.
type Node struct {
	obj map[string]any
}

// NewNode builds a tagged element. It is mostly useful in tests.
func NewNode(kind string, content any) Node {
	obj := map[string]any{"t": kind}
	if content != nil {
		obj["c"] = content
	}
	return Node{obj: obj}
}

// Raw returns the underlying decoded object.
func (n Node) Raw() map[string]any { return n.obj }

// Kind returns the constructor name.
func (n Node) Kind() string {
	k, _ := n.obj["t"].(string)
	return k
}

// Content returns the raw "c" value, or nil for nullary constructors.
func (n Node) Content() any { return n.obj["c"] }

func (n Node) contentSlice() ([]any, bool) {
	c, ok := n.obj["c"].([]any)
	return c, ok
}

// Text returns the plain-text contribution of a leaf: the string of a Str,
// a blank for Space and SoftBreak, a newline for LineBreak and the verbatim
// text of literal kinds. Containers report false.
func (n Node) Text() (string, bool) {
	switch n.Kind() {
	case KindStr:
		s, ok := n.obj["c"].(string)
		return s, ok
	case KindSpace, KindSoftBreak:
		return " ", true
	case KindLineBreak:
		return "\n", true
	}
	if !IsLiteral(n.Kind()) {
		return "", false
	}
	c, ok := n.contentSlice()
	if !ok || len(c) < 2 {
		return "", false
	}
	s, ok := c[len(c)-1].(string)
	return s, ok
}

// SpanInlines returns the inline children of a Span.
func (n Node) SpanInlines() []any {
	if n.Kind() != KindSpan {
		return nil
	}
	c, ok := n.contentSlice()
	if !ok || len(c) < 2 {
		return nil
	}
	ils, _ := c[1].([]any)
	return ils
}
