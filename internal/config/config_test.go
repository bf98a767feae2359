// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/dmc/pkg/types"
)

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "pandoc", cfg.Pandoc.Path)
	assert.Equal(t, types.RuntimeAuto, cfg.Pandoc.Runtime)
	assert.Equal(t, "pandoc/core:latest", cfg.Pandoc.Image)
	assert.Empty(t, cfg.Pandoc.Args)
	assert.Equal(t, "markdown", cfg.Markdown.Format)
	assert.False(t, cfg.Markdown.Clean)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, DefaultHistoryPath(), cfg.History.Path)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
pandoc:
  runtime: docker
  image: pandoc/extra:3.1
  args: ["--wrap=none", "--toc"]
markdown:
  format: gfm
  clean: true
docx:
  reference_doc: house.docx
history:
  enabled: false
`), 0o644))

	v := viper.New()
	SetDefaults(v)
	used, err := ReadFile(v, path)
	require.NoError(t, err)
	assert.Equal(t, path, used)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, types.RuntimeDocker, cfg.Pandoc.Runtime)
	assert.Equal(t, "pandoc/extra:3.1", cfg.Pandoc.Image)
	assert.Equal(t, []string{"--wrap=none", "--toc"}, cfg.Pandoc.Args)
	assert.Equal(t, "gfm", cfg.Markdown.Format)
	assert.True(t, cfg.Markdown.Clean)
	assert.Equal(t, "house.docx", cfg.Docx.ReferenceDoc)
	assert.False(t, cfg.History.Enabled)
}

func TestReadFileMissing(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	v := viper.New()
	used, err := ReadFile(v, "")
	require.NoError(t, err, "no default file is fine")
	assert.Empty(t, used)

	_, err = ReadFile(viper.New(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err, "an explicit file must exist")
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("DMC_MARKDOWN_FORMAT", "commonmark_x")
	t.Setenv("DMC_PANDOC_RUNTIME", "podman")
	t.Setenv("DMC_HISTORY_ENABLED", "false")

	v := viper.New()
	SetDefaults(v)
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "commonmark_x", cfg.Markdown.Format)
	assert.Equal(t, types.RuntimePodman, cfg.Pandoc.Runtime)
	assert.False(t, cfg.History.Enabled)
}

func TestValidate(t *testing.T) {
	valid := func() types.Config {
		return types.Config{
			Pandoc:   types.PandocConfig{Path: "pandoc", Runtime: types.RuntimeAuto, Image: "pandoc/core:latest"},
			Markdown: types.MarkdownConfig{Format: "markdown"},
			History:  types.HistoryConfig{Enabled: true, Path: "h.db"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*types.Config)
		wantErr string
	}{
		{"valid", func(*types.Config) {}, ""},
		{"empty runtime", func(c *types.Config) { c.Pandoc.Runtime = "" }, ""},
		{"unknown runtime", func(c *types.Config) { c.Pandoc.Runtime = "lxc" }, "must be auto, local, docker or podman"},
		{"no path", func(c *types.Config) { c.Pandoc.Path = "" }, "path"},
		{"docker needs image", func(c *types.Config) {
			c.Pandoc.Runtime = types.RuntimeDocker
			c.Pandoc.Image = ""
		}, "image"},
		{"local ignores image", func(c *types.Config) {
			c.Pandoc.Runtime = types.RuntimeLocal
			c.Pandoc.Image = ""
		}, ""},
		{"docx writer", func(c *types.Config) { c.Markdown.Format = "docx" }, "must be a Markdown writer format"},
		{"history without path", func(c *types.Config) { c.History.Path = "" }, "history"},
		{"disabled history without path", func(c *types.Config) {
			c.History.Enabled = false
			c.History.Path = ""
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
