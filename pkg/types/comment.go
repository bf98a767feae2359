// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// State is the review status of a comment.
type State string

const (
	StateActive   State = "active"
	StateResolved State = "resolved"
)

// Valid reports whether s is one of the two known states.
func (s State) Valid() bool {
	return s == StateActive || s == StateResolved
}

// ParseState maps a marker or package value to a State. The empty string
// maps to StateActive; anything else unrecognised reports false.
func ParseState(v string) (State, bool) {
	switch State(v) {
	case "", StateActive:
		return StateActive, true
	case StateResolved:
		return StateResolved, true
	}
	return "", false
}

// Comment holds one review annotation as read from either document model.
type Comment struct {
	// ID is unique within a document and stable for one conversion pass.
	ID string `json:"id" yaml:"id"`

	Author string `json:"author,omitempty" yaml:"author,omitempty"`

	// Date is an ISO-8601 timestamp carried verbatim.
	Date string `json:"date,omitempty" yaml:"date,omitempty"`

	// ParentID is set iff this comment is a reply.
	ParentID string `json:"parent,omitempty" yaml:"parent,omitempty"`

	State State `json:"state" yaml:"state"`

	// ParaID and DurableID are the word processor's anchor identifiers.
	// They are copied byte-for-byte and never invented on the Markdown side.
	ParaID    string `json:"paraId,omitempty" yaml:"paraId,omitempty"`
	DurableID string `json:"durableId,omitempty" yaml:"durableId,omitempty"`

	PresenceProvider string `json:"presenceProvider,omitempty" yaml:"presenceProvider,omitempty"`
	PresenceUserID   string `json:"presenceUserId,omitempty" yaml:"presenceUserId,omitempty"`

	// Text is the comment body.
	Text string `json:"text" yaml:"text"`

	// AnchorText is the document text the comment covers.
	AnchorText string `json:"anchorText" yaml:"anchorText"`
}

// IsReply reports whether the comment answers another comment.
func (c Comment) IsReply() bool {
	return c.ParentID != ""
}

// Resolved reports whether the comment is marked done.
func (c Comment) Resolved() bool {
	return c.State == StateResolved
}
