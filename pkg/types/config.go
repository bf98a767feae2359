package types

// PandocRuntime selects where the pandoc binary runs.
type PandocRuntime string

const (
	RuntimeAuto   PandocRuntime = "auto"
	RuntimeLocal  PandocRuntime = "local"
	RuntimeDocker PandocRuntime = "docker"
	RuntimePodman PandocRuntime = "podman"
)

// PandocConfig holds settings for invoking the external transducer.
type PandocConfig struct {
	// Path is the pandoc binary used by the local runtime (default "pandoc").
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// Runtime is auto, local, docker or podman. Auto prefers a local binary
	// and falls back to a container runtime.
	Runtime PandocRuntime `json:"runtime" yaml:"runtime" mapstructure:"runtime"`

	// Image is the container image used by the docker and podman runtimes.
	Image string `json:"image" yaml:"image" mapstructure:"image"`

	// Args are passthrough options prepended to every command-line list.
	Args []string `json:"args,omitempty" yaml:"args,omitempty" mapstructure:"args"`
}

// MarkdownConfig holds settings for the Markdown side of a conversion.
type MarkdownConfig struct {
	// Format is the default writer format when no -t/--to is passed through.
	Format string `json:"format" yaml:"format" mapstructure:"format"`

	// Clean drops transport attributes from docx2md output.
	Clean bool `json:"clean" yaml:"clean" mapstructure:"clean"`
}

// DocxConfig holds settings for the DOCX side of a conversion.
type DocxConfig struct {
	// ReferenceDoc maps to pandoc --reference-doc on md2docx.
	ReferenceDoc string `json:"reference_doc,omitempty" yaml:"reference_doc,omitempty" mapstructure:"reference_doc"`
}

// HistoryConfig controls the conversion run log.
type HistoryConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Path is the SQLite database file.
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// Config groups all dmc settings.
type Config struct {
	Pandoc   PandocConfig   `json:"pandoc" yaml:"pandoc" mapstructure:"pandoc"`
	Markdown MarkdownConfig `json:"markdown" yaml:"markdown" mapstructure:"markdown"`
	Docx     DocxConfig     `json:"docx" yaml:"docx" mapstructure:"docx"`
	History  HistoryConfig  `json:"history" yaml:"history" mapstructure:"history"`
}
