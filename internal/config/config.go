// Package config handles modelbake configuration loading and management.
package config

import (
	"errors"
	"fmt"
)

// ErrInvalid is returned by Validate for out-of-range settings.
var ErrInvalid = errors.New("invalid config")

// Manifest formats accepted in Output.Format.
const (
	FormatJSON    = "json"
	FormatYAML    = "yaml"
	FormatLiteral = "literal"
)

// Config holds all modelbake settings.
type Config struct {
	Output  OutputConfig  `yaml:"output" toml:"output"`
	Compile CompileConfig `yaml:"compile" toml:"compile"`
	Data    DataConfig    `yaml:"data" toml:"data"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// OutputConfig controls where and how compiled models are written.
type OutputConfig struct {
	Dir    string `yaml:"dir" toml:"dir"`
	Format string `yaml:"format" toml:"format"` // json, yaml or literal
	Indent int    `yaml:"indent" toml:"indent"` // manifest indent width

	// Literal output only.
	Declaration string `yaml:"declaration" toml:"declaration"` // const, let or var
	IndentChar  string `yaml:"indent_char" toml:"indent_char"` // tab or space
	IndentWidth int    `yaml:"indent_width" toml:"indent_width"`
}

// CompileConfig holds source conversion settings.
type CompileConfig struct {
	TwoSided       bool    `yaml:"two_sided" toml:"two_sided"`             // emit back faces for every RSM face
	ReverseWinding bool    `yaml:"reverse_winding" toml:"reverse_winding"` // flip RSM winding
	AnimTimeMs     float32 `yaml:"anim_time_ms" toml:"anim_time_ms"`       // RSM keyframe sample time
}

// DataConfig holds archive inputs for batch compiles.
type DataConfig struct {
	GRFPaths []string `yaml:"grf_paths" toml:"grf_paths"` // Paths to GRF archives
	Pattern  string   `yaml:"pattern" toml:"pattern"`     // models to compile from each archive
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Dir:         ".",
			Format:      FormatJSON,
			Indent:      4,
			Declaration: "const",
			IndentChar:  "tab",
			IndentWidth: 2,
		},
		Data: DataConfig{
			GRFPaths: []string{"data.grf"},
			Pattern:  "data/model/*/*.rsm",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks enumerated and numeric settings.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case FormatJSON, FormatYAML, FormatLiteral:
	default:
		return fmt.Errorf("%w: output format %q", ErrInvalid, c.Output.Format)
	}
	switch c.Output.Declaration {
	case "const", "let", "var":
	default:
		return fmt.Errorf("%w: declaration %q", ErrInvalid, c.Output.Declaration)
	}
	switch c.Output.IndentChar {
	case "tab", "space":
	default:
		return fmt.Errorf("%w: indent char %q", ErrInvalid, c.Output.IndentChar)
	}
	if c.Output.Indent < 0 || c.Output.IndentWidth < 0 {
		return fmt.Errorf("%w: negative indent", ErrInvalid)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log level %q", ErrInvalid, c.Logging.Level)
	}
	return nil
}
