// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/dmc/pkg/types"
)

// Difference is one disagreement between two comment lists.
type Difference struct {
	ID    string `json:"id" yaml:"id"`
	Field string `json:"field" yaml:"field"`
	Left  string `json:"left" yaml:"left"`
	Right string `json:"right" yaml:"right"`
}

func (d Difference) String() string {
	return fmt.Sprintf("comment %s: %s %q != %q", d.ID, d.Field, d.Left, d.Right)
}

const absent = "<absent>"

// normalizeText collapses whitespace so that reflowed Markdown and Word
// paragraphs compare equal.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CompareComments reports differences in the id set, parent, state and
// anchor text of two comment lists. Comment bodies and authors are not
// compared; writers are free to restyle them.
func CompareComments(left, right []types.Comment) []Difference {
	lm := make(map[string]types.Comment, len(left))
	for _, c := range left {
		lm[c.ID] = c
	}
	rm := make(map[string]types.Comment, len(right))
	for _, c := range right {
		rm[c.ID] = c
	}

	var diffs []Difference
	for _, l := range left {
		r, ok := rm[l.ID]
		if !ok {
			diffs = append(diffs, Difference{ID: l.ID, Field: "id", Left: l.ID, Right: absent})
			continue
		}
		if l.ParentID != r.ParentID {
			diffs = append(diffs, Difference{ID: l.ID, Field: "parent", Left: l.ParentID, Right: r.ParentID})
		}
		if stateOf(l) != stateOf(r) {
			diffs = append(diffs, Difference{ID: l.ID, Field: "state", Left: string(stateOf(l)), Right: string(stateOf(r))})
		}
		if normalizeText(l.AnchorText) != normalizeText(r.AnchorText) {
			diffs = append(diffs, Difference{ID: l.ID, Field: "anchorText", Left: l.AnchorText, Right: r.AnchorText})
		}
	}
	for _, r := range right {
		if _, ok := lm[r.ID]; !ok {
			diffs = append(diffs, Difference{ID: r.ID, Field: "id", Left: absent, Right: r.ID})
		}
	}
	return diffs
}

func stateOf(c types.Comment) types.State {
	if c.State == "" {
		return types.StateActive
	}
	return c.State
}

// CompareFiles inspects two files and compares their comments.
func (e *Engine) CompareFiles(ctx context.Context, left, right string, args []string) ([]Difference, error) {
	l, err := e.Inspect(ctx, left, args)
	if err != nil {
		return nil, err
	}
	r, err := e.Inspect(ctx, right, args)
	if err != nil {
		return nil, err
	}
	return CompareComments(l, r), nil
}

// Check converts path to the other format and back inside a scratch
// directory and compares the comments of all three representations with
// the original. Nothing is written next to path.
func (e *Engine) Check(ctx context.Context, path string, args []string) ([]Difference, error) {
	original, err := e.Inspect(ctx, path, args)
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "dmc-check-*")
	if err != nil {
		return nil, fmt.Errorf("creating scratch directory: %w", err)
	}
	defer os.RemoveAll(dir)

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var middle, back string
	if IsDocx(path) {
		middle = filepath.Join(dir, base+extMarkdown)
		back = filepath.Join(dir, base+".roundtrip"+extDocx)
	} else {
		middle = filepath.Join(dir, base+extDocx)
		back = filepath.Join(dir, base+".roundtrip"+extMarkdown)
	}

	// Scratch conversions are not recorded.
	scratch := *e
	scratch.recorder = nil
	if _, err := scratch.Convert(ctx, Request{Source: path, Dest: middle, Args: args}); err != nil {
		return nil, err
	}
	if _, err := scratch.Convert(ctx, Request{Source: middle, Dest: back, Args: args}); err != nil {
		return nil, err
	}

	var diffs []Difference
	for _, p := range []string{middle, back} {
		got, err := scratch.Inspect(ctx, p, args)
		if err != nil {
			return nil, err
		}
		for _, d := range CompareComments(original, got) {
			d.Field = filepath.Ext(p)[1:] + " " + d.Field
			diffs = append(diffs, d)
		}
	}
	sort.SliceStable(diffs, func(i, j int) bool { return diffs[i].ID < diffs[j].ID })
	return diffs, nil
}
