// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/dmc/internal/pandoc"
	"github.com/pdiddy/dmc/pkg/types"
)

const threadMarkdown = `# Review

[First]{.comment-start id="1" author="Ann" date="2024-03-01T09:00:00Z"}alpha one[]{.comment-end id="1"}

[Second]{.comment-start id="2" author="Bob" date="2024-03-01T10:00:00Z" state="resolved"}beta two[]{.comment-end id="2"}

[Third]{.comment-start id="3" author="Ann" date="2024-03-02T09:00:00Z"}gamma[]{.comment-end id="3"}

[Fourth]{.comment-start id="4" author="Cy" date="2024-03-02T11:00:00Z"}[Reply]{.comment-start id="5" author="Ann" date="2024-03-03T08:00:00Z" parent="4" state="resolved"}delta four[]{.comment-end id="5"}[]{.comment-end id="4"}

~~~
FAKE {.comment-start id="999"}
~~~
`

func realPandoc(t *testing.T) *pandoc.Transducer {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping pandoc integration test in short mode")
	}
	if _, err := exec.LookPath("pandoc"); err != nil {
		t.Skip("pandoc not installed")
	}
	tr, err := pandoc.New(types.PandocConfig{Runtime: types.RuntimeLocal})
	require.NoError(t, err)
	return tr
}

func TestPandocRoundTrip(t *testing.T) {
	tr := realPandoc(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "thread.md")
	require.NoError(t, os.WriteFile(src, []byte(threadMarkdown), 0o644))

	e := New(tr, types.Config{})
	ctx := context.Background()

	original, err := e.Inspect(ctx, src, nil)
	require.NoError(t, err)
	require.Len(t, original, 5)

	diffs, err := e.Check(ctx, src, nil)
	require.NoError(t, err)
	assert.Empty(t, diffs)

	toDocx, err := e.Convert(ctx, Request{Source: src})
	require.NoError(t, err)
	back := filepath.Join(dir, "back.md")
	_, err = e.Convert(ctx, Request{Source: toDocx.Dest, Dest: back})
	require.NoError(t, err)

	for _, path := range []string{toDocx.Dest, back} {
		got, err := e.Inspect(ctx, path, nil)
		require.NoError(t, err, path)
		byID := make(map[string]types.Comment)
		for _, c := range got {
			byID[c.ID] = c
		}
		assert.Equal(t, "4", byID["5"].ParentID, path)
		assert.Equal(t, types.StateResolved, byID["2"].State, path)
	}

	data, err := os.ReadFile(back)
	require.NoError(t, err)
	assert.Contains(t, string(data), `FAKE {.comment-start id="999"}`)
}
