package kafka

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/kbukum/scribe/httpclient"
)

const DefaultTopic = "scribe.events"

var (
	compressions   = []string{"none", "gzip", "snappy", "lz4", "zstd"}
	saslMechanisms = []string{"PLAIN", "SCRAM-SHA-256", "SCRAM-SHA-512"}
)

type Config struct {
	Enabled  bool     `yaml:"enabled" mapstructure:"enabled"`
	Brokers  []string `yaml:"brokers" mapstructure:"brokers"`
	Topic    string   `yaml:"topic" mapstructure:"topic"`
	ClientID string   `yaml:"client_id" mapstructure:"client_id"`

	// Compression is one of none, gzip, snappy, lz4, zstd.
	Compression  string        `yaml:"compression" mapstructure:"compression"`
	BatchTimeout time.Duration `yaml:"batch_timeout" mapstructure:"batch_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	DialTimeout  time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`
	// RequiredAcks is -1 for all replicas, 0 for none or 1 for the leader.
	RequiredAcks int `yaml:"required_acks" mapstructure:"required_acks"`
	Retries      int `yaml:"retries" mapstructure:"retries"`

	TLSEnabled bool                  `yaml:"tls_enabled" mapstructure:"tls_enabled"`
	TLS        *httpclient.TLSConfig `yaml:"tls" mapstructure:"tls"`
	SASL       SASLConfig            `yaml:"sasl" mapstructure:"sasl"`
}

type SASLConfig struct {
	// Mechanism is empty to disable SASL, or PLAIN, SCRAM-SHA-256, SCRAM-SHA-512.
	Mechanism string `yaml:"mechanism" mapstructure:"mechanism"`
	Username  string `yaml:"username" mapstructure:"username"`
	Password  string `yaml:"password" mapstructure:"password"`
}

func (c *Config) ApplyDefaults() {
	if len(c.Brokers) == 0 {
		c.Brokers = []string{"localhost:9092"}
	}
	if c.Topic == "" {
		c.Topic = DefaultTopic
	}
	if c.ClientID == "" {
		c.ClientID = "scribe"
	}
	if c.Compression == "" {
		c.Compression = "snappy"
	}
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = 50 * time.Millisecond
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 10 * time.Second
	}
	if c.RequiredAcks == 0 {
		c.RequiredAcks = -1
	}
	if c.Retries <= 0 {
		c.Retries = 3
	}
}

func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	var errs []error
	if len(c.Brokers) == 0 {
		errs = append(errs, errors.New("brokers are required"))
	}
	if c.Topic == "" {
		errs = append(errs, errors.New("topic is required"))
	}
	if !slices.Contains(compressions, c.Compression) {
		errs = append(errs, fmt.Errorf("compression must be one of %v (got: %s)", compressions, c.Compression))
	}
	if c.RequiredAcks < -1 || c.RequiredAcks > 1 {
		errs = append(errs, fmt.Errorf("required_acks must be -1, 0 or 1 (got: %d)", c.RequiredAcks))
	}
	if m := c.SASL.Mechanism; m != "" {
		if !slices.Contains(saslMechanisms, m) {
			errs = append(errs, fmt.Errorf("sasl.mechanism must be one of %v (got: %s)", saslMechanisms, m))
		}
		if c.SASL.Username == "" {
			errs = append(errs, errors.New("sasl.username is required"))
		}
	}
	if c.TLSEnabled {
		if err := c.TLS.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
