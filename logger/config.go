package logger

import (
	"fmt"
	"slices"
	"strings"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
	FormatPretty  = "pretty"
)

// Config contains logging configuration.
type Config struct {
	Service   string `yaml:"-" mapstructure:"-"`
	Level     string `yaml:"level" mapstructure:"level"`
	Format    string `yaml:"format" mapstructure:"format"`
	Output    string `yaml:"output" mapstructure:"output"`
	NoColor   bool   `yaml:"no_color" mapstructure:"no_color"`
	Timestamp bool   `yaml:"timestamp" mapstructure:"timestamp"`
	Caller    bool   `yaml:"caller" mapstructure:"caller"`
}

// ApplyDefaults fills empty fields.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = FormatConsole
	}
	if c.Output == "" {
		c.Output = "stdout"
	}
	c.Timestamp = true
}

// Validate checks level and format.
func (c *Config) Validate() error {
	levels := []string{"trace", "debug", "info", "warn", "error", "fatal"}
	if !slices.Contains(levels, strings.ToLower(c.Level)) {
		return fmt.Errorf("logging.level must be one of %v (got: %s)", levels, c.Level)
	}
	formats := []string{FormatJSON, FormatConsole, FormatPretty}
	if !slices.Contains(formats, strings.ToLower(c.Format)) {
		return fmt.Errorf("logging.format must be one of %v (got: %s)", formats, c.Format)
	}
	return nil
}

// IsConsole reports whether entries are rendered for humans.
func (c *Config) IsConsole() bool {
	f := strings.ToLower(c.Format)
	return f == FormatConsole || f == FormatPretty
}
