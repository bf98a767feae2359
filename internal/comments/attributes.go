// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package comments

import "github.com/pdiddy/dmc/pkg/types"

// AttributeSet holds per-comment values to write onto start markers, one
// map per attribute keyed by comment id. A nil map or a missing id means
// there is nothing to set for that attribute on that comment.
type AttributeSet struct {
	Parent           map[string]string
	State            map[string]string
	ParaID           map[string]string
	DurableID        map[string]string
	PresenceProvider map[string]string
	PresenceUserID   map[string]string
}

// annotatedKeys is the order in which Annotate writes keys.
var annotatedKeys = []string{KeyParent, KeyState, KeyParaID, KeyDurableID, KeyPresenceProvider, KeyPresenceUserID}

func (s *AttributeSet) field(key string) *map[string]string {
	switch key {
	case KeyParent:
		return &s.Parent
	case KeyState:
		return &s.State
	case KeyParaID:
		return &s.ParaID
	case KeyDurableID:
		return &s.DurableID
	case KeyPresenceProvider:
		return &s.PresenceProvider
	case KeyPresenceUserID:
		return &s.PresenceUserID
	}
	return nil
}

// Lookup returns the value to set for key on comment id.
func (s AttributeSet) Lookup(id, key string) (string, bool) {
	m := s.field(key)
	if m == nil || *m == nil {
		return "", false
	}
	v, ok := (*m)[id]
	return v, ok
}

// Put records value for key on comment id, allocating the map on demand.
func (s *AttributeSet) Put(id, key, value string) {
	m := s.field(key)
	if m == nil {
		return
	}
	if *m == nil {
		*m = make(map[string]string)
	}
	(*m)[id] = value
}

// Has reports whether any map carries a value for id.
func (s AttributeSet) Has(id string) bool {
	for _, k := range annotatedKeys {
		if _, ok := s.Lookup(id, k); ok {
			return true
		}
	}
	return false
}

// Len returns the number of id/key values held.
func (s AttributeSet) Len() int {
	n := 0
	for _, k := range annotatedKeys {
		n += len(*s.field(k))
	}
	return n
}

// Merge returns a set holding the values of s overlaid with those of
// other. When both define the same key for the same id, other wins.
func (s AttributeSet) Merge(other AttributeSet) AttributeSet {
	var out AttributeSet
	for _, k := range annotatedKeys {
		for id, v := range *s.field(k) {
			out.Put(id, k, v)
		}
		for id, v := range *other.field(k) {
			out.Put(id, k, v)
		}
	}
	return out
}

// BuildAttributes builds the maps Annotate consumes from a comment list.
// State is always set so that every comment reports it explicitly. The
// transport maps are filled only when transport is true; empty values are
// never recorded, so identifiers absent from the source are never invented.
func BuildAttributes(list []types.Comment, transport bool) AttributeSet {
	var s AttributeSet
	for _, c := range list {
		if c.ParentID != "" {
			s.Put(c.ID, KeyParent, c.ParentID)
		}
		state := c.State
		if state == "" {
			state = types.StateActive
		}
		s.Put(c.ID, KeyState, string(state))
		if !transport {
			continue
		}
		for key, v := range map[string]string{
			KeyParaID:           c.ParaID,
			KeyDurableID:        c.DurableID,
			KeyPresenceProvider: c.PresenceProvider,
			KeyPresenceUserID:   c.PresenceUserID,
		} {
			if v != "" {
				s.Put(c.ID, key, v)
			}
		}
	}
	return s
}
