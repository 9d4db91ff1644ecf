package history

import (
	"errors"
	"fmt"
	"time"
)

const (
	DefaultDSN   = "./data/scribe.db"
	DefaultLimit = 50
	MaxLimit     = 500
)

// Config configures the history database.
type Config struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// DSN is a SQLite file path or ":memory:".
	DSN string `yaml:"dsn" mapstructure:"dsn"`

	// SQLite serialises writers, so one open connection is the default.
	MaxOpenConns int `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxRetries   int `yaml:"max_retries" mapstructure:"max_retries"`

	// SlowQueryThreshold is parsed with time.ParseDuration, e.g. "200ms".
	SlowQueryThreshold string `yaml:"slow_query_threshold" mapstructure:"slow_query_threshold"`
	// LogLevel is one of silent, error, warn, info.
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`

	// Retention is the number of records kept. Older rows are pruned on
	// write. Zero keeps everything.
	Retention int `yaml:"retention" mapstructure:"retention"`
}

func (c *Config) ApplyDefaults() {
	if c.DSN == "" {
		c.DSN = DefaultDSN
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 1
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.SlowQueryThreshold == "" {
		c.SlowQueryThreshold = "200ms"
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
}

func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	var errs []error
	if c.DSN == "" {
		errs = append(errs, errors.New("dsn is required"))
	}
	if _, err := time.ParseDuration(c.SlowQueryThreshold); err != nil {
		errs = append(errs, fmt.Errorf("invalid slow_query_threshold %q: %w", c.SlowQueryThreshold, err))
	}
	switch c.LogLevel {
	case "silent", "error", "warn", "info":
	default:
		errs = append(errs, fmt.Errorf("log_level must be one of silent, error, warn, info (got: %s)", c.LogLevel))
	}
	if c.Retention < 0 {
		errs = append(errs, errors.New("retention must be >= 0"))
	}
	return errors.Join(errs...)
}
