// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package comments finds, annotates and strips comment anchor markers in a
// pandoc document tree and reconciles comment metadata between Markdown and
// DOCX.
//
// A comment is encoded as a start span carrying its attributes and body,
// followed later by an empty end span with the same id:
//
//	[body]{.comment-start id="3" author="A" state="resolved"}text[]{.comment-end id="3"}
//
// Markers are only ever found through ast.Walk, which treats code, raw and
// math elements as opaque, so marker-like text inside them is never read or
// rewritten.
package comments

import (
	"errors"
	"fmt"

	"github.com/pdiddy/dmc/internal/ast"
)

// Marker classes and attribute keys of the wire format.
const (
	ClassStart = "comment-start"
	ClassEnd   = "comment-end"

	KeyID               = "id"
	KeyAuthor           = "author"
	KeyDate             = "date"
	KeyParent           = "parent"
	KeyState            = "state"
	KeyParaID           = "paraId"
	KeyDurableID        = "durableId"
	KeyPresenceProvider = "presenceProvider"
	KeyPresenceUserID   = "presenceUserId"

	// keyParentAlias is accepted when reading.
	keyParentAlias = "parentId"
)

// TransportKeys are bookkeeping attributes carried only so that a later
// conversion back to DOCX can restore them.
var TransportKeys = []string{KeyParaID, KeyDurableID, KeyPresenceProvider, KeyPresenceUserID}

// MarkerKind distinguishes start and end markers.
type MarkerKind int

const (
	MarkerStart MarkerKind = iota
	MarkerEnd
)

func (k MarkerKind) String() string {
	if k == MarkerEnd {
		return "end"
	}
	return "start"
}

// Occurrence is one marker found in the tree.
type Occurrence struct {
	ID   string
	Kind MarkerKind
	// Position is the marker's index in document order.
	Position int
	// Block is the index of the top-level block holding the marker.
	Block int
	Attr  ast.Attr
	Node  ast.Node
}

// scanHooks receive events from scan in document order.
type scanHooks struct {
	marker func(o Occurrence)
	text   func(s string)
}

// scan walks doc once, collecting markers. Text hooks see every leaf's text
// outside comment bodies and a newline at each block boundary. Attribute
// decoding failures are collected and do not stop the scan.
func scan(doc *ast.Document, hooks scanHooks) ([]Occurrence, error) {
	var (
		occs []Occurrence
		errs []error
	)
	for bi, block := range doc.Blocks {
		err := ast.WalkValues([]any{block}, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
			if !entering {
				if hooks.text != nil && ast.IsBlockBoundary(n.Kind()) {
					hooks.text("\n")
				}
				return ast.WalkContinue, nil
			}
			if n.Kind() == ast.KindSpan {
				if o, ok, err := markerOf(n, bi, len(occs)); ok {
					if err != nil {
						errs = append(errs, err)
						return ast.WalkSkipChildren, nil
					}
					occs = append(occs, o)
					if hooks.marker != nil {
						hooks.marker(o)
					}
					// A start span's children are the comment body, not
					// document text.
					return ast.WalkSkipChildren, nil
				}
			}
			if hooks.text != nil {
				if s, ok := n.Text(); ok {
					hooks.text(s)
				}
			}
			return ast.WalkContinue, nil
		})
		if err != nil {
			return nil, err
		}
	}
	return occs, errors.Join(errs...)
}

// markerOf classifies a Span. ok is false for ordinary spans.
func markerOf(n ast.Node, block, position int) (Occurrence, bool, error) {
	attr, err := n.Attr()
	if err != nil {
		// A span whose attributes cannot be read cannot be classified
		// either; only report it when it looks like a marker.
		if looksLikeMarker(n) {
			return Occurrence{}, true, &DecodeError{Block: block, Marker: position, Reason: err.Error()}
		}
		return Occurrence{}, false, nil
	}

	var kind MarkerKind
	switch {
	case attr.HasClass(ClassStart):
		kind = MarkerStart
	case attr.HasClass(ClassEnd):
		kind = MarkerEnd
	default:
		return Occurrence{}, false, nil
	}

	id, ok := attr.Get(KeyID)
	if !ok {
		id = attr.ID
	}
	if id == "" {
		return Occurrence{}, true, &DecodeError{Block: block, Marker: position, Reason: fmt.Sprintf("%s marker has no id", kind)}
	}
	return Occurrence{ID: id, Kind: kind, Position: position, Block: block, Attr: attr, Node: n}, true, nil
}

// looksLikeMarker checks the raw class list of a span whose attribute
// triple failed to decode.
func looksLikeMarker(n ast.Node) bool {
	c, ok := n.Content().([]any)
	if !ok || len(c) == 0 {
		return false
	}
	triple, ok := c[0].([]any)
	if !ok || len(triple) < 2 {
		return false
	}
	classes, _ := triple[1].([]any)
	for _, cl := range classes {
		if cl == ClassStart || cl == ClassEnd {
			return true
		}
	}
	return false
}

// Locate returns every comment marker in document order. Markers inside
// literal elements are not visible to it.
func Locate(doc *ast.Document) ([]Occurrence, error) {
	return scan(doc, scanHooks{})
}

// Pair is a matched start and end marker.
type Pair struct {
	ID    string
	Start Occurrence
	End   Occurrence
}

// PairMarkers matches start and end markers by id and returns the pairs in
// start order. Unmatched, duplicated or reversed markers are reported as
// *StructureError.
func PairMarkers(occs []Occurrence) ([]Pair, error) {
	starts := make(map[string]int)
	ends := make(map[string]Occurrence)
	var (
		pairs []Pair
		errs  []error
	)
	for _, o := range occs {
		switch o.Kind {
		case MarkerStart:
			if _, dup := starts[o.ID]; dup {
				errs = append(errs, &StructureError{ID: o.ID, Reason: "duplicate start marker"})
				continue
			}
			starts[o.ID] = len(pairs)
			pairs = append(pairs, Pair{ID: o.ID, Start: o})
		case MarkerEnd:
			if _, dup := ends[o.ID]; dup {
				errs = append(errs, &StructureError{ID: o.ID, Reason: "duplicate end marker"})
				continue
			}
			if _, seen := starts[o.ID]; !seen {
				errs = append(errs, &StructureError{ID: o.ID, Reason: "end marker has no preceding start marker"})
				continue
			}
			ends[o.ID] = o
			pairs[starts[o.ID]].End = o
		}
	}
	for _, p := range pairs {
		if _, ok := ends[p.ID]; !ok {
			errs = append(errs, &StructureError{ID: p.ID, Reason: "start marker has no matching end marker"})
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return pairs, nil
}

// locatePairs locates and pairs markers, failing on any decoding or
// structural problem.
func locatePairs(doc *ast.Document) ([]Pair, error) {
	occs, err := Locate(doc)
	if err != nil {
		return nil, err
	}
	return PairMarkers(occs)
}
