package transcription

import "context"

// Provider is a speech-to-text backend.
type Provider interface {
	// Name is the key the provider is registered under.
	Name() string
	// IsAvailable reports whether the provider can take a call right now.
	IsAvailable(ctx context.Context) bool
	// Transcribe uploads req.AudioPath and returns the raw token stream.
	Transcribe(ctx context.Context, req Request) (*Result, error)
}
