package redis

import (
	"errors"
	"time"
)

const DefaultChannel = "scribe.events"

type Config struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`

	PoolSize     int           `yaml:"pool_size" mapstructure:"pool_size"`
	MaxRetries   int           `yaml:"max_retries" mapstructure:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`

	// Channel receives every event via PUBLISH.
	Channel string `yaml:"channel" mapstructure:"channel"`
	// Stream, when set, also receives every event via XADD, trimmed to
	// roughly StreamMaxLen entries.
	Stream       string `yaml:"stream" mapstructure:"stream"`
	StreamMaxLen int64  `yaml:"stream_max_len" mapstructure:"stream_max_len"`
}

func (c *Config) ApplyDefaults() {
	if c.PoolSize <= 0 {
		c.PoolSize = 10
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 3 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 3 * time.Second
	}
	if c.Channel == "" {
		c.Channel = DefaultChannel
	}
	if c.Stream != "" && c.StreamMaxLen <= 0 {
		c.StreamMaxLen = 10000
	}
}

func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if c.DB < 0 {
		errs = append(errs, errors.New("db must be >= 0"))
	}
	if c.Channel == "" && c.Stream == "" {
		errs = append(errs, errors.New("channel or stream is required"))
	}
	return errors.Join(errs...)
}
