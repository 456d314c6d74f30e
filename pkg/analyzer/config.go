// Package analyzer is the public pipeline API: load captures, sanitize,
// cluster endpoints, infer schemas, and emit an OpenAPI document.
package analyzer

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/PentesterFlow/harspec/internal/sanitize"
)

// Config holds all analyzer configuration.
type Config struct {
	// Capture files to analyze, processed in order
	Captures []string `json:"captures" yaml:"captures"`

	// Keep only API-looking exchanges (JSON responses, /api/ paths, XHR
	// markers, mutating methods)
	APIOnly bool `json:"api_only" yaml:"api_only"`

	// Document metadata
	Title       string `json:"title" yaml:"title"`
	SpecVersion string `json:"spec_version" yaml:"spec_version"`

	// Output configuration
	Output OutputConfig `json:"output" yaml:"output"`

	// Sanitization rules file; defaults apply when empty
	RulesFile string `json:"rules_file" yaml:"rules_file"`

	// Optional sanitized HAR output path
	SanitizedHAR string `json:"sanitized_har" yaml:"sanitized_har"`

	// Run report configuration
	Report ReportConfig `json:"report" yaml:"report"`

	// Run archive configuration
	Archive ArchiveConfig `json:"archive" yaml:"archive"`

	// Self-check the emitted document against the structural validator
	SelfValidate bool `json:"self_validate" yaml:"self_validate"`

	// Verbose logging
	Verbose bool `json:"verbose" yaml:"verbose"`

	// Debug mode
	Debug bool `json:"debug" yaml:"debug"`

	// Explicit rule set; takes precedence over RulesFile. Not serialized.
	Rules *sanitize.RuleSet `json:"-" yaml:"-"`
}

// OutputConfig controls where and how the OpenAPI document is written.
type OutputConfig struct {
	// File path; empty means stdout
	FilePath string `json:"file_path" yaml:"file_path"`

	// Format: yaml or json; empty picks from the file extension
	Format string `json:"format" yaml:"format"`
}

// ReportConfig controls the run report.
type ReportConfig struct {
	// File path for the JSON report; empty disables the file
	FilePath string `json:"file_path" yaml:"file_path"`
}

// ArchiveConfig controls run history persistence.
type ArchiveConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	FilePath string `json:"file_path" yaml:"file_path"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		APIOnly:      true,
		Title:        "Discovered API",
		SpecVersion:  "1.0.0",
		SelfValidate: true,
	}
}

// LoadFromFile loads configuration from a file (YAML or JSON).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()

	// Try YAML first, then JSON
	if err := yaml.Unmarshal(data, config); err != nil {
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	return config, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Captures) == 0 {
		return fmt.Errorf("at least one capture file is required")
	}

	switch c.Output.Format {
	case "", "yaml", "json":
	default:
		return fmt.Errorf("unknown output format %q", c.Output.Format)
	}

	if c.Archive.Enabled && c.Archive.FilePath == "" {
		return fmt.Errorf("archive file path is required when the archive is enabled")
	}

	if c.Rules != nil {
		if err := c.Rules.Validate(); err != nil {
			return fmt.Errorf("invalid sanitization rules: %w", err)
		}
	}

	return nil
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	data, _ := json.Marshal(c)
	clone := &Config{}
	json.Unmarshal(data, clone)
	clone.Rules = c.Rules
	return clone
}
