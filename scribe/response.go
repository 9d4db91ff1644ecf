package scribe

import (
	"math"
	"time"

	"github.com/kbukum/scribe/transcription"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response is the body of a successful POST /transcribe/ and of the audit
// copy. Field names are part of the public contract.
type Response struct {
	Status              string                     `json:"status"`
	Segments            []transcription.Segment    `json:"segments"`
	LanguageCode        string                     `json:"language_code"`
	LanguageProbability float64                    `json:"language_probability"`
	Diarize             bool                       `json:"diarize"`
	NumSpeakers         *int                       `json:"num_speakers"`
	AudioEvents         []transcription.AudioEvent `json:"audio_events"`
	ExecTime            float64                    `json:"exec_time"`
}

// Assemble segments result and attaches its metadata. The status is
// "success" whenever the provider reported a language, even if no words
// were recognised.
func Assemble(result *transcription.Result, elapsed time.Duration) *Response {
	resp := &Response{
		Status:              StatusError,
		Segments:            transcription.BuildSegments(result.Tokens),
		LanguageCode:        result.LanguageCode,
		LanguageProbability: result.LanguageProbability,
		Diarize:             result.Diarize,
		NumSpeakers:         result.NumSpeakers,
		AudioEvents:         result.AudioEvents,
		ExecTime:            roundSeconds(elapsed),
	}
	if resp.LanguageCode != "" {
		resp.Status = StatusSuccess
	}
	if resp.AudioEvents == nil {
		resp.AudioEvents = []transcription.AudioEvent{}
	}
	return resp
}

// roundSeconds is d in seconds, rounded to milliseconds.
func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*1000) / 1000
}
