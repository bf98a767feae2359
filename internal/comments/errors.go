// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package comments

import "fmt"

// StructureError reports a marker or thread inconsistency: an unmatched
// start or end marker, a duplicate id, or a parent reference that does not
// resolve.
type StructureError struct {
	ID     string
	Reason string
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("comment %q: %s", e.ID, e.Reason)
}

// DecodeError reports a marker whose attribute payload cannot be read.
// Block is the index of the top-level block holding the marker and Marker
// its position among all markers, both zero-based.
type DecodeError struct {
	Block  int
	Marker int
	ID     string
	Reason string
}

func (e *DecodeError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("block %d, marker %d (comment %q): %s", e.Block+1, e.Marker+1, e.ID, e.Reason)
	}
	return fmt.Sprintf("block %d, marker %d: %s", e.Block+1, e.Marker+1, e.Reason)
}
