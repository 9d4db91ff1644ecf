package scribe

import (
	"fmt"
	"net/http"

	"github.com/kbukum/scribe/diarization"
	"github.com/kbukum/scribe/diarization/pyannote"
	"github.com/kbukum/scribe/logger"
	"github.com/kbukum/scribe/transcription"
	"github.com/kbukum/scribe/transcription/elevenlabs"
	"github.com/kbukum/scribe/transcription/whisper"
)

// NewProviders registers the providers cfg enables and selects the default.
// transport may be nil.
func NewProviders(cfg *Config, log *logger.Logger, transport http.RoundTripper) (*transcription.Registry, error) {
	reg := transcription.NewRegistry()

	el, err := elevenlabs.New(cfg.ElevenLabs, log, transport)
	if err != nil {
		return nil, err
	}
	reg.Register(el)
	if cfg.ElevenLabs.APIKey == "" {
		log.Warn("elevenlabs.api_key is not set, the elevenlabs provider will report unavailable")
	}

	if cfg.Whisper.Enabled {
		var diarizer diarization.Provider
		if cfg.Pyannote.Enabled {
			d, err := pyannote.NewProvider(cfg.Pyannote, transport)
			if err != nil {
				reg.Close()
				return nil, err
			}
			diarizer = d
		}
		w, err := whisper.NewProvider(cfg.Whisper, diarizer, log, transport)
		if err != nil {
			reg.Close()
			return nil, err
		}
		reg.Register(w)
	}

	if err := reg.SetDefault(cfg.Transcription.DefaultProvider); err != nil {
		reg.Close()
		return nil, fmt.Errorf("default provider: %w", err)
	}
	return reg, nil
}
