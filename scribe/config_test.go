package scribe

import (
	"strings"
	"testing"

	"github.com/kbukum/scribe/storage"
	"github.com/kbukum/scribe/transcription/elevenlabs"
	"github.com/kbukum/scribe/transcription/whisper"
)

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Name != ServiceName || cfg.Environment != "development" {
		t.Errorf("service = %+v", cfg.ServiceConfig)
	}
	if cfg.Server.Port != 8000 || cfg.Server.MaxBodySize != "1GB" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.ElevenLabs.ModelID != elevenlabs.DefaultModelID || cfg.ElevenLabs.BaseURL != elevenlabs.DefaultBaseURL {
		t.Errorf("elevenlabs = %+v", cfg.ElevenLabs)
	}
	if cfg.Workspace.Dir != DefaultWorkspaceDir || cfg.Inbox.Workers != DefaultInboxWorkers {
		t.Errorf("workspace = %+v inbox = %+v", cfg.Workspace, cfg.Inbox)
	}
	if cfg.Transcription.DefaultProvider != elevenlabs.ProviderName {
		t.Errorf("default provider = %q", cfg.Transcription.DefaultProvider)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"whisper default without whisper", func(c *Config) { c.Transcription.DefaultProvider = whisper.ProviderName }, "default_provider"},
		{"whisper default with whisper", func(c *Config) {
			c.Whisper.Enabled = true
			c.Transcription.DefaultProvider = whisper.ProviderName
		}, ""},
		{"pyannote alone", func(c *Config) { c.Pyannote.Enabled = true }, "config.pyannote"},
		{"inbox without dir", func(c *Config) { c.Inbox.Enabled = true }, "config.inbox.dir"},
		{"inbox unknown provider", func(c *Config) { c.Inbox.Provider = "azure" }, "config.inbox.provider"},
		{"s3 without bucket", func(c *Config) {
			c.Storage.Enabled = true
			c.Storage.Provider = storage.ProviderS3
		}, "config.storage"},
		{"too many speakers", func(c *Config) { c.ElevenLabs.NumSpeakers = 33 }, "config.elevenlabs"},
		{"bad environment", func(c *Config) { c.Environment = "qa" }, "config.environment"},
		{"history bad level", func(c *Config) {
			c.History.Enabled = true
			c.History.LogLevel = "loud"
		}, "config.history"},
		{"redis without addr", func(c *Config) { c.Redis.Enabled = true }, "config.redis"},
		{"kafka bad compression", func(c *Config) {
			c.Kafka.Enabled = true
			c.Kafka.Compression = "brotli"
		}, "config.kafka"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var cfg Config
			cfg.ApplyDefaults()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.errMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.errMsg) {
				t.Errorf("error = %v, want containing %q", err, tc.errMsg)
			}
		})
	}
}

func TestProviderNames(t *testing.T) {
	var cfg Config
	if got := cfg.ProviderNames(); len(got) != 1 || got[0] != elevenlabs.ProviderName {
		t.Errorf("names = %v", got)
	}
	cfg.Whisper.Enabled = true
	if got := cfg.ProviderNames(); len(got) != 2 {
		t.Errorf("names = %v", got)
	}
}
