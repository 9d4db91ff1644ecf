package scribe

import (
	"fmt"
	"slices"

	"github.com/kbukum/scribe/config"
	"github.com/kbukum/scribe/diarization/pyannote"
	"github.com/kbukum/scribe/history"
	"github.com/kbukum/scribe/kafka"
	"github.com/kbukum/scribe/observability"
	"github.com/kbukum/scribe/redis"
	"github.com/kbukum/scribe/server"
	"github.com/kbukum/scribe/storage"
	"github.com/kbukum/scribe/transcription/elevenlabs"
	"github.com/kbukum/scribe/transcription/whisper"
)

const (
	ServiceName = "scribe"

	DefaultWorkspaceDir = "./data/workspace"
	DefaultInboxWorkers = 2
	DefaultInboxQueue   = 64
)

// EnvAliases maps legacy environment variable names to config keys.
var EnvAliases = map[string]string{
	"ELEVENLABS": "elevenlabs.api_key",
}

// Config is the full service configuration, loaded by config.LoadConfig.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config        `yaml:"server" mapstructure:"server"`
	ElevenLabs    elevenlabs.Config    `yaml:"elevenlabs" mapstructure:"elevenlabs"`
	Whisper       whisper.Config       `yaml:"whisper" mapstructure:"whisper"`
	Pyannote      pyannote.Config      `yaml:"pyannote" mapstructure:"pyannote"`
	Storage       storage.Config       `yaml:"storage" mapstructure:"storage"`
	History       history.Config       `yaml:"history" mapstructure:"history"`
	Redis         redis.Config         `yaml:"redis" mapstructure:"redis"`
	Kafka         kafka.Config         `yaml:"kafka" mapstructure:"kafka"`
	Workspace     WorkspaceConfig      `yaml:"workspace" mapstructure:"workspace"`
	Inbox         InboxConfig          `yaml:"inbox" mapstructure:"inbox"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
	Transcription TranscriptionConfig  `yaml:"transcription" mapstructure:"transcription"`
}

// WorkspaceConfig is where uploads are staged while a provider reads them.
type WorkspaceConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// InboxConfig configures the drop-folder watcher.
type InboxConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir     string `yaml:"dir" mapstructure:"dir"`
	Workers int    `yaml:"workers" mapstructure:"workers"`
	// QueueSize bounds files waiting for a worker. Files arriving while the
	// queue is full are skipped and left in place.
	QueueSize int    `yaml:"queue_size" mapstructure:"queue_size"`
	ModelID   string `yaml:"model_id" mapstructure:"model_id"`
	Provider  string `yaml:"provider" mapstructure:"provider"`
}

type TranscriptionConfig struct {
	// DefaultProvider serves requests that do not name one.
	DefaultProvider string `yaml:"default_provider" mapstructure:"default_provider"`
}

func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = ServiceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.ElevenLabs.ApplyDefaults()
	c.Whisper.ApplyDefaults()
	c.Pyannote.ApplyDefaults()
	c.Storage.ApplyDefaults()
	c.History.ApplyDefaults()
	c.Redis.ApplyDefaults()
	c.Kafka.ApplyDefaults()
	c.Observability.ApplyDefaults()

	if c.Workspace.Dir == "" {
		c.Workspace.Dir = DefaultWorkspaceDir
	}
	if c.Inbox.Workers <= 0 {
		c.Inbox.Workers = DefaultInboxWorkers
	}
	if c.Inbox.QueueSize <= 0 {
		c.Inbox.QueueSize = DefaultInboxQueue
	}
	if c.Inbox.ModelID == "" {
		c.Inbox.ModelID = DefaultModelID
	}
	if c.Transcription.DefaultProvider == "" {
		c.Transcription.DefaultProvider = elevenlabs.ProviderName
	}
}

func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("config.server: %w", err)
	}
	if err := c.ElevenLabs.Validate(); err != nil {
		return fmt.Errorf("config.elevenlabs: %w", err)
	}
	if c.Storage.Enabled {
		if err := c.Storage.Validate(); err != nil {
			return fmt.Errorf("config.storage: %w", err)
		}
	}
	if err := c.History.Validate(); err != nil {
		return fmt.Errorf("config.history: %w", err)
	}
	if err := c.Redis.Validate(); err != nil {
		return fmt.Errorf("config.redis: %w", err)
	}
	if err := c.Kafka.Validate(); err != nil {
		return fmt.Errorf("config.kafka: %w", err)
	}
	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("config.observability: %w", err)
	}
	if c.Pyannote.Enabled && !c.Whisper.Enabled {
		return fmt.Errorf("config.pyannote: diarization only applies to the whisper provider, enable whisper too")
	}
	if c.Inbox.Enabled && c.Inbox.Dir == "" {
		return fmt.Errorf("config.inbox.dir is required when the inbox is enabled")
	}

	providers := c.ProviderNames()
	if !slices.Contains(providers, c.Transcription.DefaultProvider) {
		return fmt.Errorf("config.transcription.default_provider must be one of %v (got: %s)",
			providers, c.Transcription.DefaultProvider)
	}
	if c.Inbox.Provider != "" && !slices.Contains(providers, c.Inbox.Provider) {
		return fmt.Errorf("config.inbox.provider must be one of %v (got: %s)", providers, c.Inbox.Provider)
	}
	return nil
}

// ProviderNames lists the transcription providers this config enables.
// ElevenLabs is always registered.
func (c *Config) ProviderNames() []string {
	names := []string{elevenlabs.ProviderName}
	if c.Whisper.Enabled {
		names = append(names, whisper.ProviderName)
	}
	return names
}
