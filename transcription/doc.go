// Package transcription holds the provider contract, the token and segment
// types, and BuildSegments, which turns a provider's word stream into
// speaker turns.
//
// Backends live in subpackages:
//
//   - transcription/elevenlabs: the ElevenLabs speech-to-text API
//   - transcription/whisper: a local faster-whisper sidecar
package transcription
