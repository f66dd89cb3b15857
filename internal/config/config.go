// Package config defines the service configuration and how it is loaded.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// CatalogPath points at a YAML catalog. Empty means the embedded demo catalog.
	CatalogPath string `koanf:"catalog_path"`

	// QueueSize bounds the pending re-analysis requests.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of re-analysis workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds the remembered note idempotency keys.
	DedupeSize int `koanf:"dedupe_size"`

	// AnalysisDelayMS simulates the time a re-analysis takes.
	AnalysisDelayMS int `koanf:"analysis_delay_ms"`

	// MaxNoteLength caps coaching note text, in characters.
	MaxNoteLength int `koanf:"max_note_length"`

	// DefaultAuthor is used for notes submitted without an author.
	DefaultAuthor string `koanf:"default_author"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":9080",
		QueueSize:       256,
		WorkerCount:     2,
		DedupeSize:      10_000,
		AnalysisDelayMS: 800,
		MaxNoteLength:   2000,
		DefaultAuthor:   "Coach",
	}
}

// AnalysisDelay returns AnalysisDelayMS as a duration.
func (c *Config) AnalysisDelay() time.Duration {
	return time.Duration(c.AnalysisDelayMS) * time.Millisecond
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}

	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.DedupeSize < 1:
		return fmt.Errorf("%w: dedupe_size must be positive", ErrInvalidConfig)
	case c.AnalysisDelayMS < 0:
		return fmt.Errorf("%w: analysis_delay_ms must not be negative", ErrInvalidConfig)
	case c.MaxNoteLength < 1:
		return fmt.Errorf("%w: max_note_length must be positive", ErrInvalidConfig)
	}
	return nil
}
