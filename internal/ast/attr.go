// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ast

import (
	"fmt"
	"slices"
)

// KeyVal is one attribute pair.
type KeyVal struct {
	Key   string
	Value string
}

// Attr is pandoc's (identifier, classes, key-value pairs) triple.
type Attr struct {
	ID      string
	Classes []string
	KeyVals []KeyVal
}

// HasClass reports whether class is present.
func (a Attr) HasClass(class string) bool {
	return slices.Contains(a.Classes, class)
}

// Get returns the value of the first pair named key.
func (a Attr) Get(key string) (string, bool) {
	for _, kv := range a.KeyVals {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// Set updates key in place or appends it. It reports whether the stored
// value changed.
func (a *Attr) Set(key, value string) bool {
	for i, kv := range a.KeyVals {
		if kv.Key == key {
			if kv.Value == value {
				return false
			}
			a.KeyVals[i].Value = value
			return true
		}
	}
	a.KeyVals = append(a.KeyVals, KeyVal{Key: key, Value: value})
	return true
}

// Delete removes every pair named key and reports how many were removed.
func (a *Attr) Delete(key string) int {
	before := len(a.KeyVals)
	a.KeyVals = slices.DeleteFunc(a.KeyVals, func(kv KeyVal) bool { return kv.Key == key })
	return before - len(a.KeyVals)
}

// attrIndex is the position of the Attr triple inside a constructor's
// content array, or -1 when the kind carries none.
func attrIndex(kind string) int {
	switch kind {
	case KindSpan, KindDiv, KindCode, KindCodeBlock, KindLink, KindImage, KindFigure, KindTable:
		return 0
	case KindHeader:
		return 1
	}
	return -1
}

// Attr decodes the node's attribute triple.
func (n Node) Attr() (Attr, error) {
	idx := attrIndex(n.Kind())
	if idx < 0 {
		return Attr{}, fmt.Errorf("%s carries no attributes", n.Kind())
	}
	c, ok := n.contentSlice()
	if !ok || len(c) <= idx {
		return Attr{}, fmt.Errorf("%s content is not an array", n.Kind())
	}
	return decodeAttr(c[idx])
}

// SetAttr writes a back into the node's attribute triple.
func (n Node) SetAttr(a Attr) error {
	idx := attrIndex(n.Kind())
	if idx < 0 {
		return fmt.Errorf("%s carries no attributes", n.Kind())
	}
	c, ok := n.contentSlice()
	if !ok || len(c) <= idx {
		return fmt.Errorf("%s content is not an array", n.Kind())
	}
	c[idx] = encodeAttr(a)
	return nil
}

func decodeAttr(v any) (Attr, error) {
	triple, ok := v.([]any)
	if !ok || len(triple) != 3 {
		return Attr{}, fmt.Errorf("attribute is not an (id, classes, pairs) triple")
	}

	var a Attr
	if a.ID, ok = triple[0].(string); !ok {
		return Attr{}, fmt.Errorf("attribute identifier is not a string")
	}

	classes, ok := triple[1].([]any)
	if !ok {
		return Attr{}, fmt.Errorf("attribute classes are not a list")
	}
	for _, c := range classes {
		s, ok := c.(string)
		if !ok {
			return Attr{}, fmt.Errorf("attribute class %v is not a string", c)
		}
		a.Classes = append(a.Classes, s)
	}

	pairs, ok := triple[2].([]any)
	if !ok {
		return Attr{}, fmt.Errorf("attribute pairs are not a list")
	}
	for i, p := range pairs {
		kv, ok := p.([]any)
		if !ok || len(kv) != 2 {
			return Attr{}, fmt.Errorf("attribute pair %d is not a key/value pair", i)
		}
		k, kok := kv[0].(string)
		val, vok := kv[1].(string)
		if !kok || !vok {
			return Attr{}, fmt.Errorf("attribute pair %d has a non-string key or value", i)
		}
		a.KeyVals = append(a.KeyVals, KeyVal{Key: k, Value: val})
	}
	return a, nil
}

func encodeAttr(a Attr) []any {
	classes := make([]any, len(a.Classes))
	for i, c := range a.Classes {
		classes[i] = c
	}
	pairs := make([]any, len(a.KeyVals))
	for i, kv := range a.KeyVals {
		pairs[i] = []any{kv.Key, kv.Value}
	}
	return []any{a.ID, classes, pairs}
}

// NewSpan builds a Span element with the given attributes and inlines.
func NewSpan(a Attr, inlines ...any) Node {
	if inlines == nil {
		inlines = []any{}
	}
	return NewNode(KindSpan, []any{encodeAttr(a), inlines})
}
