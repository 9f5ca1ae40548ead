package config

import (
	"fmt"
	"time"
)

// Config holds parser runtime configuration.
type Config struct {
	Workers         int      `toml:"workers"`
	BufferSize      int      `toml:"buffer_size"`
	BatchSize       int      `toml:"batch_size"`
	DedupeMaxSize   int      `toml:"dedupe_max_size"`
	OutputFile      string   `toml:"output_file"`
	OutputFormat    string   `toml:"output_format"` // csv, json, yaml, or dual
	Timeout         Duration `toml:"timeout"`
	MaxRetries      int      `toml:"max_retries"`
	RetryBackoff    Duration `toml:"retry_backoff"`
	RetryBackoffMax Duration `toml:"retry_backoff_max"`
	UserAgent       string   `toml:"user_agent"`
	MaxInputBytes   int64    `toml:"max_input_bytes"`
	Verbose         bool     `toml:"verbose"`
	MetricsAddr     string   `toml:"metrics_addr"`
}

// DefaultConfig returns defaults suitable for local files.
func DefaultConfig() *Config {
	return &Config{
		Workers:         4,
		BufferSize:      64,
		BatchSize:       32,
		DedupeMaxSize:   0,
		OutputFile:      "output/books.json",
		OutputFormat:    "json",
		Timeout:         Duration{10 * time.Second},
		MaxRetries:      2,
		RetryBackoff:    Duration{200 * time.Millisecond},
		RetryBackoffMax: Duration{2 * time.Second},
		UserAgent:       "go-parse-books/1.0",
		MaxInputBytes:   8 << 20,
		Verbose:         false,
		MetricsAddr:     "",
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}
	if c.BufferSize <= 0 {
		return fmt.Errorf("buffer size must be positive")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.DedupeMaxSize < 0 {
		return fmt.Errorf("dedupe max size cannot be negative")
	}
	if c.Timeout.Duration <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.RetryBackoff.Duration < 0 {
		return fmt.Errorf("retry backoff cannot be negative")
	}
	if c.RetryBackoffMax.Duration < 0 {
		return fmt.Errorf("retry backoff max cannot be negative")
	}
	if c.RetryBackoffMax.Duration > 0 && c.RetryBackoff.Duration > c.RetryBackoffMax.Duration {
		return fmt.Errorf("retry backoff (%s) cannot exceed retry backoff max (%s)", c.RetryBackoff, c.RetryBackoffMax)
	}
	if c.MaxInputBytes <= 0 {
		return fmt.Errorf("max input bytes must be positive")
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	switch c.OutputFormat {
	case "csv", "json", "yaml", "dual":
	default:
		return fmt.Errorf("output format must be csv, json, yaml, or dual")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}

	return nil
}

// Duration is a time.Duration that reads and writes its text form,
// e.g. "250ms" in a TOML file.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}
