// Package diarization labels word tokens with speakers for transcription
// backends that do not diarize themselves.
//
// A Provider returns speaker turns for an audio file. AssignSpeakers then
// maps every word token onto the turn it overlaps most:
//
//	resp, err := pyannote.Diarize(ctx, diarization.Request{AudioPath: path})
//	tokens = diarization.AssignSpeakers(tokens, diarization.NormalizeSpeakers(resp.Turns))
//
// # Backends
//
//   - diarization/pyannote: a pyannote.audio HTTP sidecar
package diarization
