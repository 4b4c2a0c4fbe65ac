package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the trompe.yaml tool configuration.
type Config struct {
	// Color controls coloured output: "auto" (default), "always" or "never".
	Color string `yaml:"color,omitempty"`

	// LogLevel is one of "debug", "info" (default), "warn", "error".
	LogLevel string `yaml:"log_level,omitempty"`

	// FailFast stops a scenario run at the first failing check.
	FailFast bool `yaml:"fail_fast,omitempty"`

	// Scenarios lists glob patterns (relative to the config file) that are
	// run when no files are given on the command line.
	Scenarios []string `yaml:"scenarios,omitempty"`

	dir string
}

const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

var logLevels = []string{"debug", "info", "warn", "error"}

// Default returns the configuration used when no trompe.yaml is found.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// LoadConfig reads and parses a trompe.yaml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses trompe.yaml content from bytes.
// The path argument is used for error messages and to anchor Scenarios.
func ParseConfig(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.setDefaults()
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.dir = filepath.Dir(path)
	return &cfg, nil
}

// FindConfig searches for trompe.yaml starting from dir and walking up
// to parent directories. It returns "" and a nil error if none is found.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		for _, name := range ConfigFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func (c *Config) setDefaults() {
	if c.Color == "" {
		c.Color = ColorAuto
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	c.Color = strings.ToLower(c.Color)
	c.LogLevel = strings.ToLower(c.LogLevel)
}

func (c *Config) validate(path string) error {
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("%s: color must be auto, always or never, got %q", path, c.Color)
	}

	valid := false
	for _, l := range logLevels {
		if c.LogLevel == l {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("%s: unknown log_level %q", path, c.LogLevel)
	}

	for i, pattern := range c.Scenarios {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("%s: scenarios[%d]: %w", path, i, err)
		}
	}
	return nil
}

// SlogLevel returns LogLevel as a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// ScenarioFiles expands the Scenarios globs relative to the config file.
func (c *Config) ScenarioFiles() ([]string, error) {
	var files []string
	for _, pattern := range c.Scenarios {
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(c.dir, pattern)
		}
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if HasScenarioExt(m) {
				files = append(files, m)
			}
		}
	}
	return files, nil
}

// HasScenarioExt checks whether the path ends with a scenario extension.
func HasScenarioExt(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range ScenarioFileExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
