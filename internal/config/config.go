// Package config loads workspace settings from a YAML file with
// environment-variable overrides. Every field has a working default so
// a missing file is not an error.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig indicates a setting that fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the full settings tree.
type Config struct {
	Project   Project   `yaml:"project"`
	Documents Documents `yaml:"documents"`
	Analyzer  Analyzer  `yaml:"analyzer"`
	Terminal  Terminal  `yaml:"terminal"`
	Headers   Headers   `yaml:"headers"`
	Log       Log       `yaml:"log"`
}

// Project identifies the workspace.
type Project struct {
	Name string `yaml:"name"`
	Root string `yaml:"root"`
}

// Documents controls the open-document set.
type Documents struct {
	// MaxActive caps how many documents stay open before MRU eviction.
	MaxActive int `yaml:"max_active"`

	// UndoDepth bounds each document's undo stack.
	UndoDepth int `yaml:"undo_depth"`

	// WholeLineEdits gates edits to line granularity.
	WholeLineEdits bool `yaml:"whole_line_edits"`
}

// Analyzer configures the external analysis process.
type Analyzer struct {
	Command        string   `yaml:"command"`
	Args           []string `yaml:"args"`
	Env            []string `yaml:"env"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
}

// Timeout returns the request timeout as a duration.
func (a Analyzer) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// Enabled reports whether an analyzer command is configured.
func (a Analyzer) Enabled() bool { return a.Command != "" }

// Terminal configures the command executor. When Allow is non-empty
// only listed commands run; otherwise Deny (or the built-in deny list)
// applies.
type Terminal struct {
	Allow          []string `yaml:"allow"`
	Deny           []string `yaml:"deny"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
}

// Timeout returns the command timeout as a duration.
func (t Terminal) Timeout() time.Duration {
	return time.Duration(t.TimeoutSeconds) * time.Second
}

// Headers maps file extensions (with dot) to the header text written on
// file creation.
type Headers map[string]string

// Log configures logging.
type Log struct {
	Level string `yaml:"level"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Project: Project{Name: "workspace", Root: "."},
		Documents: Documents{
			MaxActive:      3,
			UndoDepth:      10,
			WholeLineEdits: true,
		},
		Analyzer: Analyzer{TimeoutSeconds: 30},
		Terminal: Terminal{TimeoutSeconds: 10},
		Headers:  Headers{},
		Log:      Log{Level: "info"},
	}
}

// Load reads settings from path, layering file values over the defaults
// and environment overrides over both. An empty path or a missing file
// yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults apply.
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
			}
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overlays AGENTIDE_* environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("AGENTIDE_PROJECT_ROOT"); v != "" {
		cfg.Project.Root = v
	}
	if v := os.Getenv("AGENTIDE_PROJECT_NAME"); v != "" {
		cfg.Project.Name = v
	}
	if v := os.Getenv("AGENTIDE_ANALYZER_COMMAND"); v != "" {
		cfg.Analyzer.Command = v
	}
	if v := os.Getenv("AGENTIDE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("AGENTIDE_MAX_ACTIVE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Documents.MaxActive = n
		}
	}
}

// Validate checks settings that would break the workspace at runtime.
func (c Config) Validate() error {
	if c.Documents.MaxActive < 1 {
		return fmt.Errorf("%w: documents.max_active must be at least 1, got %d",
			ErrInvalidConfig, c.Documents.MaxActive)
	}
	if c.Documents.UndoDepth < 1 {
		return fmt.Errorf("%w: documents.undo_depth must be at least 1, got %d",
			ErrInvalidConfig, c.Documents.UndoDepth)
	}
	if c.Analyzer.TimeoutSeconds < 1 {
		return fmt.Errorf("%w: analyzer.timeout_seconds must be at least 1, got %d",
			ErrInvalidConfig, c.Analyzer.TimeoutSeconds)
	}
	if c.Terminal.TimeoutSeconds < 1 {
		return fmt.Errorf("%w: terminal.timeout_seconds must be at least 1, got %d",
			ErrInvalidConfig, c.Terminal.TimeoutSeconds)
	}
	switch c.Log.Level {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.Log.Level)
	}
	return nil
}
