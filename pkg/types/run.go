// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Operation names what a conversion run did.
type Operation string

const (
	OperationToMarkdown Operation = "docx2md"
	OperationToDocx     Operation = "md2docx"
	OperationAnnotate   Operation = "annotate"
	OperationStrip      Operation = "strip"
)

// RunStatus is the outcome of a run.
type RunStatus string

const (
	RunSucceeded RunStatus = "converted"
	RunSkipped   RunStatus = "skipped"
	RunFailed    RunStatus = "failed"
)

// Run records one conversion for the history log.
type Run struct {
	// ID is a random UUID assigned when the run is recorded.
	ID string `json:"id" yaml:"id"`

	Operation Operation `json:"operation" yaml:"operation"`
	Source    string    `json:"source" yaml:"source"`
	Dest      string    `json:"dest,omitempty" yaml:"dest,omitempty"`
	Format    string    `json:"format,omitempty" yaml:"format,omitempty"`

	// Comments is the number of comments carried; Changes the number of
	// marker attributes written or removed.
	Comments int `json:"comments" yaml:"comments"`
	Changes  int `json:"changes" yaml:"changes"`

	Status RunStatus `json:"status" yaml:"status"`
	Error  string    `json:"error,omitempty" yaml:"error,omitempty"`

	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
}
