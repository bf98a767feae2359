// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ast

import (
	"maps"
	"slices"
	"strings"
)

// WalkStatus tells Walk how to proceed after visiting a node.
type WalkStatus int

const (
	// WalkContinue descends into the node's children.
	WalkContinue WalkStatus = iota
	// WalkSkipChildren moves on to the next sibling.
	WalkSkipChildren
	// WalkStop ends the traversal.
	WalkStop
)

// Walker is called twice per node, once entering and once leaving. The
// status returned when leaving is only checked for WalkStop.
type Walker func(n Node, entering bool) (WalkStatus, error)

// Walk visits every tagged element of the document body in document order.
// Container kinds are descended into; literal kinds and kinds this package
// does not know are visited as leaves, so text inside code, raw and math
// elements is never reached as markup.
func Walk(doc *Document, fn Walker) error {
	_, err := walkValue(doc.Blocks, fn)
	return err
}

// WalkValues walks a list of blocks or inlines, such as the children of a
// Span.
func WalkValues(vs []any, fn Walker) error {
	_, err := walkValue(vs, fn)
	return err
}

func walkValue(v any, fn Walker) (WalkStatus, error) {
	switch x := v.(type) {
	case []any:
		for _, e := range x {
			st, err := walkValue(e, fn)
			if err != nil || st == WalkStop {
				return st, err
			}
		}
	case map[string]any:
		if _, tagged := x["t"].(string); tagged {
			return walkNode(Node{obj: x}, fn)
		}
		// Untagged records such as Citation hold inline lists in named
		// fields; visit them in key order.
		for _, k := range slices.Sorted(maps.Keys(x)) {
			st, err := walkValue(x[k], fn)
			if err != nil || st == WalkStop {
				return st, err
			}
		}
	}
	return WalkContinue, nil
}

func walkNode(n Node, fn Walker) (WalkStatus, error) {
	st, err := fn(n, true)
	if err != nil || st == WalkStop {
		return WalkStop, err
	}
	if st != WalkSkipChildren && IsContainer(n.Kind()) {
		st, err = walkValue(n.obj["c"], fn)
		if err != nil || st == WalkStop {
			return WalkStop, err
		}
	}
	st, err = fn(n, false)
	if err != nil || st == WalkStop {
		return WalkStop, err
	}
	return WalkContinue, nil
}

// IsBlockBoundary reports whether leaving a node of this kind ends a line
// of plain text.
func IsBlockBoundary(kind string) bool { return blockKinds[kind] }

// Stringify flattens blocks or inlines to plain text. Leaves contribute
// their Text; each block boundary contributes one newline, and trailing
// newlines are dropped.
func Stringify(vs []any) string {
	var b strings.Builder
	_ = WalkValues(vs, func(n Node, entering bool) (WalkStatus, error) {
		if entering {
			if s, ok := n.Text(); ok {
				b.WriteString(s)
			}
			return WalkContinue, nil
		}
		if IsBlockBoundary(n.Kind()) {
			b.WriteByte('\n')
		}
		return WalkContinue, nil
	})
	return strings.TrimRight(b.String(), "\n")
}
