// Package config provides configuration management for the boardkit CLI.
package config

import (
	"fmt"
	"strings"
)

// OutputMode selects how commands render their results.
type OutputMode string

// Output modes accepted by the output key and the --output flag.
const (
	OutputAuto     OutputMode = "auto"
	OutputText     OutputMode = "text"
	OutputMarkdown OutputMode = "markdown"
	OutputJSON     OutputMode = "json"
)

// UnmarshalText normalises case and accepts "md" as markdown.
func (m *OutputMode) UnmarshalText(b []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(b)))
	switch s {
	case "":
		*m = OutputAuto
	case "md":
		*m = OutputMarkdown
	case string(OutputAuto), string(OutputText), string(OutputMarkdown), string(OutputJSON):
		*m = OutputMode(s)
	default:
		return fmt.Errorf("unknown output mode %q (want auto, text, markdown or json)", s)
	}
	return nil
}

// FramingConfig holds defaults for the image framing tool.
type FramingConfig struct {
	Width      int     `koanf:"width"`
	Height     int     `koanf:"height"`
	Background string  `koanf:"background"`
	MaxZoom    float64 `koanf:"max_zoom"`
}

// MigrateConfig holds schema change policy.
type MigrateConfig struct {
	AutoConfirm bool `koanf:"auto_confirm"`
}

// Config holds all CLI configuration options.
type Config struct {
	StatePath    string        `koanf:"state_path"`
	Verbose      bool          `koanf:"verbose"`
	OutputFormat OutputMode    `koanf:"output"`
	Framing      FramingConfig `koanf:"framing"`
	Migrate      MigrateConfig `koanf:"migrate"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// Default configuration values.
const (
	DefaultStateFile  = ".boardkit/state.db"
	DefaultOutput     = OutputAuto
	DefaultWidth      = 750
	DefaultHeight     = 1050
	DefaultBackground = "#ffffff"
	DefaultMaxZoom    = 8.0
)

// Default returns a configuration populated with defaults only.
func Default() *Config {
	return &Config{
		StatePath:    DefaultStateFile,
		OutputFormat: DefaultOutput,
		Framing: FramingConfig{
			Width:      DefaultWidth,
			Height:     DefaultHeight,
			Background: DefaultBackground,
			MaxZoom:    DefaultMaxZoom,
		},
	}
}
