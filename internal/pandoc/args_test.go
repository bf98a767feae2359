// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pandoc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriterFormat(t *testing.T) {
	tests := []struct {
		name string
		args []string
		def  string
		want string
	}{
		{"two-token short", []string{"-t", "commonmark"}, "markdown", "commonmark"},
		{"embedded long", []string{"--to=gfm"}, "markdown", "gfm"},
		{"none uses default", []string{}, "markdown", "markdown"},
		{"nil uses default", nil, "markdown", "markdown"},
		{"two-token long", []string{"--wrap=none", "--to", "markdown_strict"}, "markdown", "markdown_strict"},
		{"glued short", []string{"-tplain"}, "markdown", "plain"},
		{"last one wins", []string{"-t", "gfm", "--columns=80", "--to=commonmark_x"}, "markdown", "commonmark_x"},
		{"write alias", []string{"--write", "org"}, "markdown", "org"},
		{"dangling selector ignored", []string{"--to=gfm", "-t"}, "markdown", "gfm"},
		{"empty embedded value ignored", []string{"--to="}, "markdown", "markdown"},
		{"toc is not a target", []string{"--toc"}, "markdown", "markdown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WriterFormat(tt.args, tt.def))
		})
	}
}

func TestReaderFormat(t *testing.T) {
	assert.Equal(t, "markdown+smart", ReaderFormat([]string{"-f", "markdown+smart"}, "markdown"))
	assert.Equal(t, "commonmark_x", ReaderFormat([]string{"--from=gfm", "--read", "commonmark_x"}, "markdown"))
	assert.Equal(t, "markdown", ReaderFormat([]string{"-t", "gfm"}, "markdown"))
}

func TestRenderArgs(t *testing.T) {
	in := []string{
		"-t", "commonmark",
		"--extract-media=.",
		"--output=out.md",
		"--wrap=none",
		"--columns=120",
	}
	got := RenderArgs(in)
	assert.Equal(t, []string{"--wrap=none", "--columns=120"}, got)

	assert.NotContains(t, got, "-t")
	for _, arg := range got {
		assert.False(t, strings.HasPrefix(arg, "--to"), arg)
		assert.False(t, strings.HasPrefix(arg, "--output"), arg)
		assert.False(t, strings.HasPrefix(arg, "--extract-media"), arg)
	}
}

func TestRenderArgsExclusivity(t *testing.T) {
	in := []string{
		"--wrap=preserve",
		"-o", "out.md",
		"--to", "gfm",
		"-tgfm",
		"--extract-media", "media",
		"--columns", "72",
		"-ofile.md",
		"--reference-links",
		"--unknown-future-flag=1",
		"--toc",
		"--to=markdown",
		"--toc-depth=2",
		"-w", "org",
	}
	got := RenderArgs(in)
	assert.Equal(t, []string{
		"--wrap=preserve",
		"--columns", "72",
		"--reference-links",
		"--unknown-future-flag=1",
		"--toc",
		"--toc-depth=2",
	}, got, "--toc shares a prefix with --to but is a formatting option")
	assert.Equal(t, "org", WriterFormat(in, "markdown"), "resolver sees the last selector")
}

func TestRenderArgsLeavesInputUntouched(t *testing.T) {
	in := []string{"-t", "gfm", "--wrap=none"}
	_ = RenderArgs(in)
	assert.Equal(t, []string{"-t", "gfm", "--wrap=none"}, in)
	assert.Empty(t, RenderArgs(nil))
}

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		from string
		want []string
	}{
		{
			name: "markdown keeps media extraction",
			args: []string{"--to=gfm", "--extract-media=.", "-o", "x.md"},
			from: "markdown",
			want: []string{"--extract-media=."},
		},
		{
			name: "docx gets tracked changes",
			args: []string{"--wrap=none"},
			from: "docx",
			want: []string{"--wrap=none", "--track-changes=all"},
		},
		{
			name: "explicit track-changes mode is kept",
			args: []string{"--track-changes", "accept"},
			from: "docx+styles",
			want: []string{"--track-changes", "accept"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseArgs(tt.args, tt.from))
		})
	}
}

func TestMarkdownReader(t *testing.T) {
	assert.Equal(t, "markdown", MarkdownReader("markdown"))
	assert.Equal(t, "markdown+smart", MarkdownReader("markdown+smart"))
	assert.Equal(t, "commonmark_x", MarkdownReader("commonmark_x"))
	assert.Equal(t, "markdown", MarkdownReader("gfm"))
	assert.Equal(t, "markdown", MarkdownReader("commonmark"))
}
