// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the auditor configuration that can be loaded from a JSON
// file. All fields are optional; missing values use defaults or must be
// provided via CLI flags.
type Config struct {
	// Paths
	Input      string `json:"input,omitempty"`       // Canonical match CSV
	OutputBase string `json:"output_base,omitempty"` // Base path for shard logs and the combined file

	// Pacing
	MinDelayMs    int `json:"min_delay_ms,omitempty"`    // Minimum inter-request delay
	MaxDelayMs    int `json:"max_delay_ms,omitempty"`    // Maximum inter-request delay
	MaxAttempts   int `json:"max_attempts,omitempty"`    // Fetch attempts per match
	BackoffBaseMs int `json:"backoff_base_ms,omitempty"` // First retry backoff

	// Fetching
	FetchTimeoutSec int    `json:"fetch_timeout_sec,omitempty"` // Per-page render timeout
	DatabaseURL     string `json:"database_url,omitempty"`      // PostgreSQL page cache (optional)
	CacheTTLHours   int    `json:"cache_ttl_hours,omitempty"`   // Rendered page cache lifetime

	// Behavior
	Verbose bool `json:"verbose,omitempty"` // Print detailed debug information
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

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
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: required fields are enforced by flag validation after merging.
func (c *Config) Validate() error {
	if c.MinDelayMs < 0 {
		return fmt.Errorf("config error: 'min_delay_ms' must be non-negative")
	}
	if c.MaxDelayMs < 0 {
		return fmt.Errorf("config error: 'max_delay_ms' must be non-negative")
	}
	if c.MaxDelayMs > 0 && c.MaxDelayMs < c.MinDelayMs {
		return fmt.Errorf("config error: 'max_delay_ms' must be >= 'min_delay_ms'")
	}
	if c.MaxAttempts < 0 {
		return fmt.Errorf("config error: 'max_attempts' must be non-negative")
	}
	if c.BackoffBaseMs < 0 {
		return fmt.Errorf("config error: 'backoff_base_ms' must be non-negative")
	}
	if c.FetchTimeoutSec < 0 {
		return fmt.Errorf("config error: 'fetch_timeout_sec' must be non-negative")
	}
	if c.CacheTTLHours < 0 {
		return fmt.Errorf("config error: 'cache_ttl_hours' must be non-negative")
	}

	if c.Input != "" {
		if _, err := os.Stat(c.Input); os.IsNotExist(err) {
			return fmt.Errorf("config error: input file not found: %s", c.Input)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from
// defaults. This is used to apply config file values as defaults for CLI
// flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Input == "" {
		result.Input = defaults.Input
	}
	if result.OutputBase == "" {
		result.OutputBase = defaults.OutputBase
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}

	if result.MinDelayMs == 0 {
		result.MinDelayMs = defaults.MinDelayMs
	}
	if result.MaxDelayMs == 0 {
		result.MaxDelayMs = defaults.MaxDelayMs
	}
	if result.MaxAttempts == 0 {
		result.MaxAttempts = defaults.MaxAttempts
	}
	if result.BackoffBaseMs == 0 {
		result.BackoffBaseMs = defaults.BackoffBaseMs
	}
	if result.FetchTimeoutSec == 0 {
		result.FetchTimeoutSec = defaults.FetchTimeoutSec
	}
	if result.CacheTTLHours == 0 {
		result.CacheTTLHours = defaults.CacheTTLHours
	}

	// Bool fields stay as-is: unset is indistinguishable from false, so
	// flags always win.

	return result
}
