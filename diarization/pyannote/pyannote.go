// Package pyannote is the diarization.Provider for a pyannote.audio HTTP
// sidecar.
package pyannote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/kbukum/scribe/diarization"
	"github.com/kbukum/scribe/httpclient"
	"github.com/kbukum/scribe/util"
)

const (
	ProviderName = "pyannote"

	DefaultURL     = "http://localhost:8388"
	DefaultTimeout = 300 * time.Second

	healthTimeout = 3 * time.Second
)

var _ diarization.Provider = (*Provider)(nil)

type Config struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	BaseURL string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// MinSpeakers and MaxSpeakers are hints, 0 to let the model decide.
	MinSpeakers int    `yaml:"min_speakers" mapstructure:"min_speakers"`
	MaxSpeakers int    `yaml:"max_speakers" mapstructure:"max_speakers"`
	Token       string `yaml:"token" mapstructure:"token"`
}

func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultURL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
}

type Provider struct {
	cfg    Config
	client *httpclient.Client
}

// NewProvider builds the adapter. transport may be nil.
func NewProvider(cfg Config, transport http.RoundTripper) (*Provider, error) {
	cfg.ApplyDefaults()
	if cfg.MaxSpeakers > 0 && cfg.MinSpeakers > cfg.MaxSpeakers {
		return nil, errors.New("pyannote: min_speakers exceeds max_speakers")
	}
	client, err := httpclient.New(httpclient.Config{
		Name:    ProviderName,
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Auth:    httpclient.Bearer(cfg.Token),
	}, transport)
	if err != nil {
		return nil, fmt.Errorf("pyannote: %w", err)
	}
	return &Provider{cfg: cfg, client: client}, nil
}

func (p *Provider) Name() string { return ProviderName }

func (p *Provider) Client() *httpclient.Client { return p.client }

// IsAvailable probes GET /health.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	_, err := p.client.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: "/health"})
	return err == nil
}

func (p *Provider) Diarize(ctx context.Context, req diarization.Request) (*diarization.Response, error) {
	f, err := os.Open(req.AudioPath)
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat audio: %w", err)
	}

	body := &httpclient.MultipartBody{}
	addCount(body, "num_speakers", req.NumSpeakers)
	addCount(body, "min_speakers", util.Coalesce(req.MinSpeakers, p.cfg.MinSpeakers))
	addCount(body, "max_speakers", util.Coalesce(req.MaxSpeakers, p.cfg.MaxSpeakers))
	if req.Language != "" {
		body.AddField("language", req.Language)
	}
	body.AddFile(httpclient.FileField{
		FieldName: "audio",
		FileName:  util.Coalesce(util.BaseName(req.FileName), filepath.Base(req.AudioPath)),
		Reader:    f,
		Size:      info.Size(),
	})

	resp, err := p.client.Do(ctx, httpclient.Request{Method: http.MethodPost, Path: "/diarize", Body: body})
	if err != nil {
		return nil, err
	}
	out, err := httpclient.DecodeJSON[apiResponse](resp)
	if err != nil {
		return nil, err
	}
	if out.Error != "" {
		return nil, fmt.Errorf("pyannote: %s", out.Error)
	}
	return out.toResponse(), nil
}

func addCount(body *httpclient.MultipartBody, name string, n int) {
	if n > 0 {
		body.AddField(name, strconv.Itoa(n))
	}
}

type apiResponse struct {
	Segments    []apiSegment `json:"segments"`
	NumSpeakers int          `json:"num_speakers"`
	Error       string       `json:"error,omitempty"`
}

type apiSegment struct {
	SpeakerID string  `json:"speaker_id"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

func (r *apiResponse) toResponse() *diarization.Response {
	turns := make([]diarization.Turn, len(r.Segments))
	for i, s := range r.Segments {
		turns[i] = diarization.Turn{Speaker: s.SpeakerID, Start: s.StartTime, End: s.EndTime}
	}
	n := r.NumSpeakers
	if n == 0 {
		n = diarization.CountSpeakers(turns)
	}
	return &diarization.Response{Turns: turns, NumSpeakers: n}
}
