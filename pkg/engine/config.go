package engine

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the per-key counter parameters and the engine's key
// capacity.
//
// Every key managed by an engine shares the same window shape: the same
// trailing duration and the same bucket precision. MaxKeys bounds how many
// per-key counters are live at once; beyond that, the least recently used
// key is evicted and its window state is lost.
//
// Example configurations:
//
//	// Requests per minute per user, 1 second resolution, 10k users
//	config := Config{DurationSeconds: 60, PrecisionSeconds: 1, MaxKeys: 10_000}
//
//	// Connections per 10 seconds per IP, coarse buckets
//	config := Config{DurationSeconds: 10, PrecisionSeconds: 5, MaxKeys: 100_000}
type Config struct {
	// DurationSeconds is the trailing window each counter reports over.
	// Must be >= 1.
	DurationSeconds int64 `yaml:"duration_seconds"`

	// PrecisionSeconds is the bucket width within the window. Must be >= 1.
	// Maximum live buckets per key = DurationSeconds / PrecisionSeconds.
	PrecisionSeconds int64 `yaml:"precision_seconds"`

	// MaxKeys is the maximum number of per-key counters kept live.
	// Must be > 0.
	MaxKeys int `yaml:"max_keys"`
}

// DefaultConfig returns a sensible default configuration.
//
// Configuration:
//   - DurationSeconds: 60 (one minute window)
//   - PrecisionSeconds: 1 (60 buckets per key)
//   - MaxKeys: 10,000
func DefaultConfig() Config {
	return Config{
		DurationSeconds:  60,
		PrecisionSeconds: 1,
		MaxKeys:          10_000,
	}
}

// Validate checks the configuration for construction-time errors.
//
// Returns the first violation found:
//   - DurationSeconds < 1
//   - PrecisionSeconds < 1
//   - MaxKeys <= 0
func (c Config) Validate() error {
	if c.DurationSeconds < 1 {
		return fmt.Errorf("duration_seconds must be >= 1, got: %d", c.DurationSeconds)
	}
	if c.PrecisionSeconds < 1 {
		return fmt.Errorf("precision_seconds must be >= 1, got: %d", c.PrecisionSeconds)
	}
	if c.MaxKeys <= 0 {
		return fmt.Errorf("max_keys must be > 0, got: %d", c.MaxKeys)
	}
	return nil
}

// LoadConfig reads a Config from a YAML file.
//
// Unset fields fall back to DefaultConfig values, so a file may override
// only what it needs:
//
//	duration_seconds: 300
//	max_keys: 50000
//
// Returns an error if the file cannot be read, the YAML is malformed, or
// the resulting config fails Validate.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config in %s: %w", path, err)
	}
	return cfg, nil
}
