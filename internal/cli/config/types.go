// Package config provides configuration management for the swmmkit CLI.
package config

import "time"

// Config holds all CLI configuration options.
type Config struct {
	// ProjectDir is the directory holding the project manifest and tables.
	ProjectDir string `koanf:"project" validate:"required"`
	// StorePath is the SQLite run store. Empty disables recording.
	StorePath    string       `koanf:"store"`
	Verbose      bool         `koanf:"verbose"`
	OutputFormat string       `koanf:"output" validate:"oneof=auto text markdown json csv"`
	Trace        TraceConfig  `koanf:"trace"`
	Report       ReportConfig `koanf:"report"`

	// ProjectRoot is the directory the configuration was resolved against.
	ProjectRoot string `koanf:"-"`
}

// TraceConfig holds defaults for the trace command.
type TraceConfig struct {
	Direction string `koanf:"direction" validate:"oneof=upstream downstream"`
	// BatchSize caps the handles per selection batch.
	BatchSize int `koanf:"batch_size" validate:"min=1,max=200"`
}

// ReportConfig holds defaults for the report command.
type ReportConfig struct {
	// Topics are parsed when no topic is named on the command line. Empty
	// means every topic present in the report.
	Topics   []string      `koanf:"topics"`
	Debounce time.Duration `koanf:"debounce" validate:"min=0"`
}

// Default configuration values.
const (
	ConfigFileName   = "swmmkit.yaml"
	DefaultProject   = "."
	DefaultOutput    = "auto" // TTY=text, non-TTY=markdown
	DefaultDirection = "upstream"
	DefaultBatchSize = 200
	DefaultDebounce  = 500 * time.Millisecond
	DefaultStoreFile = ".swmmkit/runs.db"
)
