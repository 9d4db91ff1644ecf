package httpclient

import (
	"fmt"
	"time"

	"github.com/kbukum/scribe/resilience"
)

const defaultTimeout = 30 * time.Second

// Config configures a Client.
type Config struct {
	// Name labels breaker and bulkhead state in logs.
	Name    string            `yaml:"name" mapstructure:"name"`
	BaseURL string            `yaml:"base_url" mapstructure:"base_url"`
	Timeout time.Duration     `yaml:"timeout" mapstructure:"timeout"`
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`
	TLS     *TLSConfig        `yaml:"tls" mapstructure:"tls"`

	Auth Auth `yaml:"-" mapstructure:"-"`

	// CircuitBreaker is nil to disable. IsFailure defaults to IsRetryable so
	// client errors such as a bad API key never open the circuit.
	CircuitBreaker *resilience.CircuitBreakerConfig `yaml:"-" mapstructure:"-"`
	// Bulkhead is nil to disable.
	Bulkhead *resilience.BulkheadConfig `yaml:"-" mapstructure:"-"`
}

func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.Name == "" {
		c.Name = "http"
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("httpclient: timeout must be positive")
	}
	return c.TLS.Validate()
}
