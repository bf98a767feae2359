// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/dmc/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "state", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func run(op types.Operation, source string, status types.RunStatus, offset time.Duration) types.Run {
	return types.Run{
		Operation: op,
		Source:    source,
		Dest:      source + ".out",
		Format:    "markdown",
		Comments:  3,
		Changes:   7,
		Status:    status,
		StartedAt: base.Add(offset),
		Duration:  1500 * time.Millisecond,
	}
}

func TestRecordAndList(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, run(types.OperationToMarkdown, "a.docx", types.RunSucceeded, 0)))
	require.NoError(t, s.Record(ctx, run(types.OperationToDocx, "b.md", types.RunSucceeded, time.Minute)))
	failed := run(types.OperationToDocx, "c.md", types.RunFailed, 2*time.Minute)
	failed.Error = "pandoc failed (exit 64)"
	require.NoError(t, s.Record(ctx, failed))

	runs, err := s.List(ctx, QueryOptions{})
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "c.md", runs[0].Source, "newest first")
	assert.Equal(t, "a.docx", runs[2].Source)

	got := runs[0]
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, types.OperationToDocx, got.Operation)
	assert.Equal(t, types.RunFailed, got.Status)
	assert.Equal(t, "pandoc failed (exit 64)", got.Error)
	assert.Equal(t, "c.md.out", got.Dest)
	assert.Equal(t, 3, got.Comments)
	assert.Equal(t, 7, got.Changes)
	assert.Equal(t, 1500*time.Millisecond, got.Duration)
	assert.True(t, base.Add(2*time.Minute).Equal(got.StartedAt))
}

func TestRecordAssignsIDs(t *testing.T) {
	s := testStore(t)
	s.now = func() time.Time { return base }
	ctx := context.Background()

	r := run(types.OperationStrip, "x.md", types.RunSucceeded, 0)
	r.StartedAt = time.Time{}
	require.NoError(t, s.Record(ctx, r))
	require.NoError(t, s.Record(ctx, r))

	runs, err := s.List(ctx, QueryOptions{})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.NotEqual(t, runs[0].ID, runs[1].ID)
	assert.True(t, base.Equal(runs[0].StartedAt))

	r.ID = runs[0].ID
	assert.Error(t, s.Record(ctx, r), "ids are unique")
}

func TestListFilters(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	for i, r := range []types.Run{
		run(types.OperationToMarkdown, "docs/a.docx", types.RunSucceeded, 0),
		run(types.OperationToDocx, "docs/b.md", types.RunFailed, 0),
		run(types.OperationToDocx, "notes/c.md", types.RunSucceeded, 0),
		run(types.OperationAnnotate, "notes/c.md", types.RunSucceeded, 0),
	} {
		r.StartedAt = r.StartedAt.Add(time.Duration(i) * time.Second)
		require.NoError(t, s.Record(ctx, r))
	}

	tests := []struct {
		name string
		opts QueryOptions
		want []string
	}{
		{"limit", QueryOptions{Limit: 2}, []string{"notes/c.md", "notes/c.md"}},
		{"operation", QueryOptions{Operation: types.OperationToDocx}, []string{"notes/c.md", "docs/b.md"}},
		{"status", QueryOptions{Status: types.RunFailed}, []string{"docs/b.md"}},
		{"source", QueryOptions{Source: "docs/"}, []string{"docs/b.md", "docs/a.docx"}},
		{"combined", QueryOptions{Operation: types.OperationToDocx, Status: types.RunSucceeded}, []string{"notes/c.md"}},
		{"no match", QueryOptions{Source: "missing"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := s.List(ctx, tt.opts)
			require.NoError(t, err)
			var got []string
			for _, r := range runs {
				got = append(got, r.Source)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrune(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	require.NoError(t, s.Record(ctx, run(types.OperationToDocx, "old.md", types.RunSucceeded, -48*time.Hour)))
	require.NoError(t, s.Record(ctx, run(types.OperationToDocx, "new.md", types.RunSucceeded, 0)))

	n, err := s.Prune(ctx, base.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	runs, err := s.List(ctx, QueryOptions{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "new.md", runs[0].Source)
}

func TestReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	s, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Record(ctx, run(types.OperationToMarkdown, "a.docx", types.RunSucceeded, 0)))
	require.NoError(t, s.Close())

	s, err = NewStore(path)
	require.NoError(t, err)
	defer s.Close()
	runs, err := s.List(ctx, QueryOptions{})
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestNewStoreRejectsEmptyPath(t *testing.T) {
	_, err := NewStore("")
	assert.Error(t, err)
}

func TestWriters(t *testing.T) {
	runs := []types.Run{run(types.OperationToDocx, "b.md", types.RunSucceeded, 0)}
	runs[0].ID = "run-1"

	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, runs))
	var fromYAML []types.Run
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &fromYAML))
	require.Len(t, fromYAML, 1)
	assert.Equal(t, "run-1", fromYAML[0].ID)
	assert.Equal(t, types.OperationToDocx, fromYAML[0].Operation)

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, runs))
	var fromJSON []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fromJSON))
	require.Len(t, fromJSON, 1)
	assert.Equal(t, "md2docx", fromJSON[0]["operation"])
	assert.Equal(t, "converted", fromJSON[0]["status"])

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteText(&buf, runs))
	assert.Contains(t, buf.String(), "OPERATION")
	assert.Contains(t, buf.String(), "md2docx")
	assert.Contains(t, buf.String(), "b.md.out")

	buf.Reset()
	require.NoError(t, WriteText(&buf, nil))
	assert.Equal(t, "no conversions recorded\n", buf.String())
}
