package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/kbukum/scribe/logger"
)

// Environments lists the accepted values of ServiceConfig.Environment.
var Environments = []string{"development", "staging", "production"}

// ServiceConfig holds the fields every service needs. Embed it with
// mapstructure:",squash" so its keys sit at the top level.
type ServiceConfig struct {
	Name        string        `yaml:"name" mapstructure:"name"`
	Environment string        `yaml:"environment" mapstructure:"environment"`
	Version     string        `yaml:"version" mapstructure:"version"`
	Debug       bool          `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
}

// GetServiceConfig is promoted to embedding structs.
func (c *ServiceConfig) GetServiceConfig() *ServiceConfig {
	return c
}

// ApplyDefaults turns debug on in development and tags log entries with
// the service name.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = Environments[0]
	}
	c.Debug = c.Debug || c.Environment == "development"
	if c.Logging.Service == "" {
		c.Logging.Service = c.Name
	}
	c.Logging.ApplyDefaults()
}

// Validate reports every problem at once.
func (c *ServiceConfig) Validate() error {
	var errs []error
	if c.Name == "" {
		errs = append(errs, errors.New("config.name is required"))
	}
	if !slices.Contains(Environments, c.Environment) {
		errs = append(errs, fmt.Errorf("config.environment must be one of %v (got: %s)", Environments, c.Environment))
	}
	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("config.logging: %w", err))
	}
	return errors.Join(errs...)
}
