// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Defaults for the relaxation schedule and output naming.
const (
	DefaultOutput           = "repaired.obj"
	DefaultMarker           = "#QNAN"
	DefaultInitialThreshold = 0.25
	DefaultThresholdStep    = 0.05
)

// Config represents the CLI configuration that can be loaded from a JSON or YAML file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Paths
	Input       string `json:"input,omitempty" yaml:"input,omitempty"`               // OBJ file to repair
	Output      string `json:"output,omitempty" yaml:"output,omitempty"`             // Repaired copy
	Report      string `json:"report,omitempty" yaml:"report,omitempty"`             // JSON repair report
	MetricsFile string `json:"metrics_file,omitempty" yaml:"metrics_file,omitempty"` // Prometheus textfile

	// Detection
	Marker string `json:"marker,omitempty" yaml:"marker,omitempty"` // Corruption sentinel

	// Relaxation
	InitialThreshold float64 `json:"initial_threshold,omitempty" yaml:"initial_threshold,omitempty" validate:"gte=0"`
	ThresholdStep    float64 `json:"threshold_step,omitempty" yaml:"threshold_step,omitempty" validate:"gte=0"`
	MaxThreshold     float64 `json:"max_threshold,omitempty" yaml:"max_threshold,omitempty" validate:"gte=0"` // 0 = unbounded
	MaxCycles        int     `json:"max_cycles,omitempty" yaml:"max_cycles,omitempty" validate:"gte=0"`       // 0 = unbounded

	// Execution
	Workers     int      `json:"workers,omitempty" yaml:"workers,omitempty" validate:"gte=0"`
	TaskTimeout Duration `json:"task_timeout,omitempty" yaml:"task_timeout,omitempty"`

	// Behavior
	Verbose     bool   `json:"verbose,omitempty" yaml:"verbose,omitempty"`
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url,omitempty" validate:"omitempty,url"`
}

// Duration is a time.Duration that reads as a string such as "30s" in config files.
type Duration time.Duration

// UnmarshalJSON accepts a duration string or a number of nanoseconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		return d.set(s)
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid duration %s", string(b))
	}
	*d = Duration(n)
	return nil
}

// UnmarshalYAML accepts a duration string.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.set(node.Value)
}

func (d *Duration) set(s string) error {
	if s == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by extension.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

var validate = validator.New()

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config error: '%s' failed '%s' check", fe.Field(), fe.Tag())
		}
		return fmt.Errorf("config error: %w", err)
	}

	if c.TaskTimeout < 0 {
		return fmt.Errorf("config error: 'task_timeout' must be non-negative")
	}

	if c.MaxThreshold > 0 && c.InitialThreshold > 0 && c.MaxThreshold < c.InitialThreshold {
		return fmt.Errorf("config error: 'max_threshold' must not be below 'initial_threshold'")
	}

	if c.Input != "" && c.Output != "" {
		if filepath.Clean(c.Input) == filepath.Clean(c.Output) {
			return fmt.Errorf("config error: 'output' must differ from 'input'")
		}
	}

	// Validate file paths exist (if specified)
	if c.Input != "" {
		if _, err := os.Stat(c.Input); os.IsNotExist(err) {
			return fmt.Errorf("config error: input file not found: %s", c.Input)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.Input == "" {
		result.Input = defaults.Input
	}
	if result.Output == "" {
		result.Output = defaults.Output
	}
	if result.Report == "" {
		result.Report = defaults.Report
	}
	if result.MetricsFile == "" {
		result.MetricsFile = defaults.MetricsFile
	}
	if result.Marker == "" {
		result.Marker = defaults.Marker
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}

	// Numeric fields: use default if zero
	if result.Workers == 0 {
		result.Workers = defaults.Workers
	}
	if result.MaxCycles == 0 {
		result.MaxCycles = defaults.MaxCycles
	}
	if result.MaxThreshold == 0 {
		result.MaxThreshold = defaults.MaxThreshold
	}
	if result.TaskTimeout == 0 {
		result.TaskTimeout = defaults.TaskTimeout
	}
	if result.InitialThreshold == 0 {
		result.InitialThreshold = defaults.InitialThreshold
	}
	if result.ThresholdStep == 0 {
		result.ThresholdStep = defaults.ThresholdStep
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// WithBuiltinDefaults fills anything still unset with the built-in defaults.
// The default output is DefaultOutput in the input's directory.
func (c *Config) WithBuiltinDefaults() Config {
	output := DefaultOutput
	if c.Input != "" {
		output = filepath.Join(filepath.Dir(c.Input), DefaultOutput)
	}
	return c.MergeWithDefaults(Config{
		Output:           output,
		Marker:           DefaultMarker,
		InitialThreshold: DefaultInitialThreshold,
		ThresholdStep:    DefaultThresholdStep,
	})
}
