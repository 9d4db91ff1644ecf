// Package whisper is the transcription.Provider for a local faster-whisper
// HTTP sidecar. Whisper does not diarize, so speakers come from an optional
// diarization.Provider.
package whisper

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kbukum/scribe/diarization"
	"github.com/kbukum/scribe/httpclient"
	"github.com/kbukum/scribe/logger"
	"github.com/kbukum/scribe/observability"
	"github.com/kbukum/scribe/transcription"
	"github.com/kbukum/scribe/util"
)

const (
	ProviderName = "whisper"

	DefaultURL     = "http://localhost:8387"
	DefaultModel   = "base"
	DefaultTimeout = 300 * time.Second

	healthTimeout = 3 * time.Second
)

var _ transcription.Provider = (*Provider)(nil)

type Config struct {
	Enabled     bool          `yaml:"enabled" mapstructure:"enabled"`
	URL         string        `yaml:"url" mapstructure:"url"`
	Model       string        `yaml:"model" mapstructure:"model"`
	Language    string        `yaml:"language" mapstructure:"language"`
	Device      string        `yaml:"device" mapstructure:"device"`
	ComputeType string        `yaml:"compute_type" mapstructure:"compute_type"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// Token is sent as a bearer token when the sidecar sits behind an
	// authenticating proxy.
	Token string `yaml:"token" mapstructure:"token"`
}

func (c *Config) ApplyDefaults() {
	if c.URL == "" {
		c.URL = DefaultURL
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
}

type Provider struct {
	cfg      Config
	client   *httpclient.Client
	diarizer diarization.Provider
	log      *logger.Logger
}

// NewProvider builds the adapter. diarizer and transport may be nil.
func NewProvider(cfg Config, diarizer diarization.Provider, log *logger.Logger, transport http.RoundTripper) (*Provider, error) {
	cfg.ApplyDefaults()
	client, err := httpclient.New(httpclient.Config{
		Name:    ProviderName,
		BaseURL: cfg.URL,
		Timeout: cfg.Timeout,
		Auth:    httpclient.Bearer(cfg.Token),
	}, transport)
	if err != nil {
		return nil, fmt.Errorf("whisper: %w", err)
	}
	return &Provider{cfg: cfg, client: client, diarizer: diarizer, log: log.WithComponent(ProviderName)}, nil
}

func (p *Provider) Name() string { return ProviderName }

func (p *Provider) Client() *httpclient.Client { return p.client }

// IsAvailable probes GET /health on the sidecar.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	_, err := p.client.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: "/health"})
	return err == nil
}

// Transcribe ignores req.ModelID, which names ElevenLabs models. The
// sidecar model comes from configuration.
func (p *Provider) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Result, error) {
	ctx = context.WithoutCancel(ctx)

	raw, err := p.transcribe(ctx, req)
	if err != nil {
		return nil, err
	}
	result := &transcription.Result{
		LanguageCode:        raw.Language,
		LanguageProbability: raw.LanguageProbability,
		AudioEvents:         []transcription.AudioEvent{},
		Tokens:              raw.tokens(),
	}

	if p.diarizer == nil {
		for i := range result.Tokens {
			if result.Tokens[i].Type == transcription.TokenWord {
				result.Tokens[i].SpeakerID = diarization.DefaultSpeaker
			}
		}
		return result, nil
	}

	dctx, span := observability.StartSpan(ctx, observability.SpanDiarizationCall)
	observability.SetSpanAttribute(dctx, observability.AttrProvider, p.diarizer.Name())
	d, err := p.diarizer.Diarize(dctx, diarization.Request{
		AudioPath: req.AudioPath,
		FileName:  req.FileName,
		Language:  raw.Language,
	})
	if err != nil {
		observability.SetSpanError(dctx, err)
		span.End()
		return nil, fmt.Errorf("diarize: %w", err)
	}
	span.End()
	turns := diarization.NormalizeSpeakers(d.Turns)
	result.Tokens = diarization.AssignSpeakers(result.Tokens, turns)
	result.Diarize = true
	result.NumSpeakers = util.Ptr(diarization.CountSpeakers(turns))

	p.log.WithContext(ctx).Debug("assigned speakers", logger.Fields(
		"turns", len(turns),
		"speakers", *result.NumSpeakers,
	))
	return result, nil
}

func (p *Provider) transcribe(ctx context.Context, req transcription.Request) (*apiResponse, error) {
	f, err := os.Open(req.AudioPath)
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat audio: %w", err)
	}

	body := (&httpclient.MultipartBody{}).
		AddField("model", p.cfg.Model).
		AddField("word_timestamps", "true")
	if lang := util.Coalesce(req.Language, p.cfg.Language); lang != "" {
		body.AddField("language", lang)
	}
	if p.cfg.Device != "" {
		body.AddField("device", p.cfg.Device)
	}
	if p.cfg.ComputeType != "" {
		body.AddField("compute_type", p.cfg.ComputeType)
	}
	body.AddFile(httpclient.FileField{
		FieldName: "audio",
		FileName:  util.Coalesce(util.BaseName(req.FileName), filepath.Base(req.AudioPath)),
		Reader:    f,
		Size:      info.Size(),
	})

	resp, err := p.client.Do(ctx, httpclient.Request{
		Method:   http.MethodPost,
		Path:     "/transcribe",
		Body:     body,
		Progress: req.Progress,
	})
	if err != nil {
		return nil, err
	}
	out, err := httpclient.DecodeJSON[apiResponse](resp)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type apiResponse struct {
	Text                string       `json:"text"`
	Language            string       `json:"language"`
	LanguageProbability float64      `json:"language_probability"`
	Segments            []apiSegment `json:"segments"`
}

type apiSegment struct {
	Text  string    `json:"text"`
	Start float64   `json:"start"`
	End   float64   `json:"end"`
	Words []apiWord `json:"words"`
}

type apiWord struct {
	Word        string  `json:"word"`
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Probability float64 `json:"probability"`
}

// tokens flattens segment words into word tokens with a spacing token
// between neighbours, the shape BuildSegments expects.
func (r *apiResponse) tokens() []transcription.Token {
	var out []transcription.Token
	var prev *apiWord
	for si := range r.Segments {
		for wi := range r.Segments[si].Words {
			w := &r.Segments[si].Words[wi]
			text := strings.TrimSpace(w.Word)
			if text == "" {
				continue
			}
			if prev != nil {
				out = append(out, transcription.Token{
					Type:  transcription.TokenSpacing,
					Text:  " ",
					Start: prev.End,
					End:   w.Start,
				})
			}
			out = append(out, transcription.Token{
				Type:  transcription.TokenWord,
				Text:  text,
				Start: w.Start,
				End:   w.End,
			})
			prev = w
		}
	}
	if out == nil {
		out = []transcription.Token{}
	}
	return out
}
