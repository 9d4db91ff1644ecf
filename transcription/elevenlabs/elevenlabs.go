// Package elevenlabs is the transcription.Provider for the ElevenLabs
// speech-to-text API.
package elevenlabs

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kbukum/scribe/httpclient"
	"github.com/kbukum/scribe/logger"
	"github.com/kbukum/scribe/transcription"
	"github.com/kbukum/scribe/util"
)

const (
	ProviderName = "elevenlabs"

	speechToTextPath = "/v1/speech-to-text"
	apiKeyHeader     = "xi-api-key"
)

var _ transcription.Provider = (*Provider)(nil)

// audioTypes covers extensions that mime.TypeByExtension does not know on
// minimal systems.
var audioTypes = map[string]string{
	".wav":  "audio/x-wav",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
	".webm": "audio/webm",
	".mp4":  "video/mp4",
	".aac":  "audio/aac",
}

type Provider struct {
	cfg    Config
	client *httpclient.Client
	log    *logger.Logger
}

// New builds the provider. transport may be nil.
func New(cfg Config, log *logger.Logger, transport http.RoundTripper) (*Provider, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := httpclient.New(httpclient.Config{
		Name:           ProviderName,
		BaseURL:        cfg.BaseURL,
		Timeout:        cfg.Timeout,
		Auth:           httpclient.HeaderKey(apiKeyHeader, cfg.APIKey),
		CircuitBreaker: cfg.breaker(),
		Bulkhead:       cfg.bulkhead(),
	}, transport)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: %w", err)
	}
	return &Provider{cfg: cfg, client: client, log: log.WithComponent(ProviderName)}, nil
}

func (p *Provider) Name() string { return ProviderName }

func (p *Provider) IsAvailable(_ context.Context) bool {
	return p.cfg.APIKey != "" && p.client.Available()
}

// Client exposes the underlying HTTP client for startup summaries.
func (p *Provider) Client() *httpclient.Client { return p.client }

// Close drops idle upstream connections.
func (p *Provider) Close() { p.client.Close() }

// Transcribe streams req.AudioPath to the API. The call ignores ctx
// cancellation and is bounded only by the configured timeout.
func (p *Provider) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Result, error) {
	f, err := os.Open(req.AudioPath)
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat audio: %w", err)
	}

	fileName := util.Coalesce(util.BaseName(req.FileName), filepath.Base(req.AudioPath))
	body := p.form(req).AddFile(httpclient.FileField{
		FieldName:   "file",
		FileName:    fileName,
		ContentType: contentTypeFor(fileName),
		Reader:      f,
		Size:        info.Size(),
	})

	log := p.log.WithContext(ctx)
	log.Debug("uploading audio", logger.Fields(
		logger.FieldFile, fileName,
		"size", util.FormatSize(info.Size()),
	))

	start := time.Now()
	resp, err := p.client.Do(context.WithoutCancel(ctx), httpclient.Request{
		Method:   http.MethodPost,
		Path:     speechToTextPath,
		Body:     body,
		Progress: req.Progress,
	})
	if err != nil {
		log.Warn("speech-to-text request failed", logger.Fields(
			logger.FieldError, err.Error(),
			"code", errorCode(err),
			logger.FieldDuration, time.Since(start).Milliseconds(),
		))
		return nil, err
	}

	raw, err := httpclient.DecodeJSON[apiResponse](resp)
	if err != nil {
		return nil, err
	}
	result, err := raw.toResult()
	if err != nil {
		return nil, httpclient.NewDecodeError(err, resp.Body)
	}

	log.Debug("speech-to-text response", logger.Fields(
		"language_code", result.LanguageCode,
		"tokens", len(result.Tokens),
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return result, nil
}

func (p *Provider) form(req transcription.Request) *httpclient.MultipartBody {
	body := (&httpclient.MultipartBody{}).
		AddField("model_id", util.Coalesce(req.ModelID, p.cfg.ModelID)).
		AddField("diarize", "true").
		AddField("tag_audio_events", "true").
		AddField("timestamps_granularity", "word")
	if lang := util.Coalesce(req.Language, p.cfg.LanguageCode); lang != "" {
		body.AddField("language_code", lang)
	}
	if p.cfg.NumSpeakers > 0 {
		body.AddField("num_speakers", strconv.Itoa(p.cfg.NumSpeakers))
	}
	return body
}

func contentTypeFor(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ct, ok := audioTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func errorCode(err error) string {
	var he *httpclient.Error
	if errors.As(err, &he) {
		return he.Code.String()
	}
	return "unknown"
}
