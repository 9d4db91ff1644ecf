package elevenlabs

import (
	"fmt"
	"time"

	"github.com/kbukum/scribe/resilience"
)

const (
	DefaultBaseURL = "https://api.elevenlabs.io"
	DefaultModelID = "scribe_v1"
	DefaultTimeout = 300 * time.Second

	// maxSpeakers is the upper bound the API accepts for num_speakers.
	maxSpeakers = 32
)

// Config configures the ElevenLabs provider.
type Config struct {
	APIKey  string        `yaml:"api_key" mapstructure:"api_key"`
	BaseURL string        `yaml:"base_url" mapstructure:"base_url"`
	ModelID string        `yaml:"model_id" mapstructure:"model_id"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// LanguageCode is sent as language_code when set.
	LanguageCode string `yaml:"language_code" mapstructure:"language_code"`
	// NumSpeakers is sent as num_speakers when positive.
	NumSpeakers int `yaml:"num_speakers" mapstructure:"num_speakers"`

	CircuitBreaker BreakerConfig  `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`
	Bulkhead       BulkheadConfig `yaml:"bulkhead" mapstructure:"bulkhead"`
}

type BreakerConfig struct {
	Enabled     bool          `yaml:"enabled" mapstructure:"enabled"`
	MaxFailures int           `yaml:"max_failures" mapstructure:"max_failures"`
	OpenTimeout time.Duration `yaml:"open_timeout" mapstructure:"open_timeout"`
}

type BulkheadConfig struct {
	// MaxConcurrent is 0 for no limit.
	MaxConcurrent int           `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	MaxWait       time.Duration `yaml:"max_wait" mapstructure:"max_wait"`
}

func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.ModelID == "" {
		c.ModelID = DefaultModelID
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.CircuitBreaker.MaxFailures <= 0 {
		c.CircuitBreaker.MaxFailures = 5
	}
	if c.CircuitBreaker.OpenTimeout <= 0 {
		c.CircuitBreaker.OpenTimeout = 30 * time.Second
	}
}

// Validate does not require APIKey. A provider without a key is registered
// but reports itself unavailable.
func (c *Config) Validate() error {
	if c.NumSpeakers < 0 || c.NumSpeakers > maxSpeakers {
		return fmt.Errorf("elevenlabs: num_speakers must be between 0 and %d", maxSpeakers)
	}
	if c.Bulkhead.MaxConcurrent < 0 {
		return fmt.Errorf("elevenlabs: bulkhead.max_concurrent must not be negative")
	}
	return nil
}

func (c *Config) breaker() *resilience.CircuitBreakerConfig {
	if !c.CircuitBreaker.Enabled {
		return nil
	}
	cb := resilience.DefaultCircuitBreakerConfig("elevenlabs")
	cb.MaxFailures = c.CircuitBreaker.MaxFailures
	cb.Timeout = c.CircuitBreaker.OpenTimeout
	return &cb
}

func (c *Config) bulkhead() *resilience.BulkheadConfig {
	if c.Bulkhead.MaxConcurrent == 0 {
		return nil
	}
	return &resilience.BulkheadConfig{
		Name:          "elevenlabs",
		MaxConcurrent: c.Bulkhead.MaxConcurrent,
		MaxWait:       c.Bulkhead.MaxWait,
	}
}
