package scribe

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/kbukum/scribe/storage"
	"github.com/kbukum/scribe/transcription"
	"github.com/kbukum/scribe/util"
)

// fakeProvider records each request and checks the staged file is readable
// while the call runs.
type fakeProvider struct {
	name      string
	available bool
	result    *transcription.Result
	err       error

	mu       sync.Mutex
	requests []transcription.Request
	audio    [][]byte
}

func (p *fakeProvider) Name() string                     { return p.name }
func (p *fakeProvider) IsAvailable(context.Context) bool { return p.available }

func (p *fakeProvider) Transcribe(_ context.Context, req transcription.Request) (*transcription.Result, error) {
	data, readErr := os.ReadFile(req.AudioPath)
	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.audio = append(p.audio, data)
	p.mu.Unlock()
	if readErr != nil {
		return nil, readErr
	}
	if req.Progress != nil {
		n := int64(len(data))
		req.Progress.BytesTransferred(n/2, n)
		req.Progress.BytesTransferred(n, n)
	}
	return p.result, p.err
}

func (p *fakeProvider) lastRequest() transcription.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests[len(p.requests)-1]
}

func sampleResult() *transcription.Result {
	return &transcription.Result{
		LanguageCode:        "en",
		LanguageProbability: 0.98,
		Diarize:             true,
		NumSpeakers:         util.Ptr(2),
		Tokens: []transcription.Token{
			{Type: transcription.TokenWord, Text: "Hello", Start: 0, End: 0.5, SpeakerID: "speaker_0"},
			{Type: transcription.TokenSpacing, Text: " ", Start: 0.5, End: 0.6, SpeakerID: "speaker_0"},
			{Type: transcription.TokenWord, Text: "<world>", Start: 0.6, End: 1.0, SpeakerID: "speaker_0"},
			{Type: transcription.TokenWord, Text: "Hi", Start: 1.2, End: 1.5, SpeakerID: "speaker_1"},
		},
	}
}

type staticSource struct{ s storage.Storage }

func (s staticSource) Storage() storage.Storage { return s.s }

// brokenStorage fails every write.
type brokenStorage struct{ storage.Storage }

func (brokenStorage) Upload(context.Context, string, io.Reader) error {
	return errors.New("disk full")
}

// stubTranscriber stands in for the Service in handler and inbox tests.
type stubTranscriber struct {
	resp  *Response
	err   error
	delay time.Duration

	mu      sync.Mutex
	uploads []Upload
	bodies  []string
	done    chan struct{}
}

func (s *stubTranscriber) Transcribe(_ context.Context, up Upload) (*Response, error) {
	body, _ := io.ReadAll(up.Body)
	s.mu.Lock()
	s.uploads = append(s.uploads, up)
	s.bodies = append(s.bodies, string(body))
	s.mu.Unlock()
	if s.done != nil {
		s.done <- struct{}{}
	}
	time.Sleep(s.delay)
	return s.resp, s.err
}

func (s *stubTranscriber) calls() ([]Upload, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Upload(nil), s.uploads...), append([]string(nil), s.bodies...)
}
