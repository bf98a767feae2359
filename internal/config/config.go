// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads dmc settings from viper and validates them.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"

	"github.com/pdiddy/dmc/pkg/types"
)

// Configuration keys.
const (
	KeyPandocPath         = "pandoc.path"
	KeyPandocRuntime      = "pandoc.runtime"
	KeyPandocImage        = "pandoc.image"
	KeyPandocArgs         = "pandoc.args"
	KeyMarkdownFormat     = "markdown.format"
	KeyMarkdownClean      = "markdown.clean"
	KeyDocxReferenceDoc   = "docx.reference_doc"
	KeyHistoryEnabled     = "history.enabled"
	KeyHistoryPath        = "history.path"
	EnvPrefix             = "DMC"
	ConfigName            = "dmc"
	defaultImage          = "pandoc/core:latest"
	defaultMarkdownFormat = "markdown"
)

// DefaultHistoryPath returns the history database location under the user
// cache directory, or a relative path when that cannot be resolved.
func DefaultHistoryPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(".dmc", "history.db")
	}
	return filepath.Join(dir, "dmc", "history.db")
}

// SetDefaults registers default values and environment binding on v.
// Keys map to DMC_ variables with dots replaced by underscores.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyPandocPath, "pandoc")
	v.SetDefault(KeyPandocRuntime, string(types.RuntimeAuto))
	v.SetDefault(KeyPandocImage, defaultImage)
	v.SetDefault(KeyPandocArgs, []string{})
	v.SetDefault(KeyMarkdownFormat, defaultMarkdownFormat)
	v.SetDefault(KeyMarkdownClean, false)
	v.SetDefault(KeyDocxReferenceDoc, "")
	v.SetDefault(KeyHistoryEnabled, true)
	v.SetDefault(KeyHistoryPath, DefaultHistoryPath())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// ReadFile points v at file, or at dmc.yaml in the working directory and
// ~/.config/dmc when file is empty, and reads it. A missing default file is
// not an error. It returns the file used, if any.
func ReadFile(v *viper.Viper, file string) (string, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", ConfigName))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file == "" && errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("reading config: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

// Load decodes v into a Config and validates it. DMC_PANDOC_ARGS is split
// on commas.
func Load(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks value ranges that viper cannot.
func Validate(cfg types.Config) error {
	return validation.Errors{
		"pandoc": validation.ValidateStruct(&cfg.Pandoc,
			validation.Field(&cfg.Pandoc.Path, validation.Required),
			validation.Field(&cfg.Pandoc.Runtime, validation.In(
				types.RuntimeAuto, types.RuntimeLocal, types.RuntimeDocker, types.RuntimePodman,
			).Error("must be auto, local, docker or podman")),
			validation.Field(&cfg.Pandoc.Image, validation.When(
				cfg.Pandoc.Runtime == types.RuntimeDocker || cfg.Pandoc.Runtime == types.RuntimePodman,
				validation.Required,
			)),
		),
		"markdown": validation.ValidateStruct(&cfg.Markdown,
			validation.Field(&cfg.Markdown.Format, validation.Required, validation.By(notDocx)),
		),
		"history": validation.ValidateStruct(&cfg.History,
			validation.Field(&cfg.History.Path, validation.When(cfg.History.Enabled, validation.Required)),
		),
	}.Filter()
}

func notDocx(value any) error {
	s, _ := value.(string)
	if strings.HasPrefix(s, "docx") {
		return validation.NewError("validation_not_markdown", "must be a Markdown writer format")
	}
	return nil
}
