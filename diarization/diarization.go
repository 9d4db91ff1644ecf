package diarization

import "context"

// Provider is a speaker diarization backend.
type Provider interface {
	Name() string
	IsAvailable(ctx context.Context) bool
	Diarize(ctx context.Context, req Request) (*Response, error)
}

// Request holds parameters for a diarization call. Zero speaker counts let
// the backend decide.
type Request struct {
	AudioPath   string
	FileName    string
	NumSpeakers int
	MinSpeakers int
	MaxSpeakers int
	Language    string
}

type Response struct {
	Turns       []Turn `json:"turns"`
	NumSpeakers int    `json:"num_speakers"`
}

// Turn is a time range attributed to one speaker, in seconds.
type Turn struct {
	Speaker string  `json:"speaker"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}
