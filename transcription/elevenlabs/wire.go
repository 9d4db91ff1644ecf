package elevenlabs

import (
	"fmt"
	"strings"

	"github.com/kbukum/scribe/transcription"
	"github.com/kbukum/scribe/util"
	"github.com/kbukum/scribe/validation"
)

// apiResponse is the subset of the speech-to-text response we read.
type apiResponse struct {
	LanguageCode        string          `json:"language_code"`
	LanguageProbability float64         `json:"language_probability"`
	Diarize             bool            `json:"diarize"`
	NumSpeakers         *int            `json:"num_speakers"`
	AudioEvents         []apiAudioEvent `json:"audio_events"`
	Words               []apiWord       `json:"words"`
}

// apiWord uses pointers so a missing field is distinguishable from zero.
type apiWord struct {
	Type      string   `json:"type"`
	Text      *string  `json:"text" validate:"required"`
	Start     *float64 `json:"start" validate:"required"`
	End       *float64 `json:"end" validate:"required"`
	SpeakerID *string  `json:"speaker_id" validate:"required"`
}

type apiAudioEvent struct {
	Type  *string  `json:"type" validate:"required"`
	Start *float64 `json:"start" validate:"required"`
	End   *float64 `json:"end" validate:"required"`
}

// retained reports whether BuildSegments will keep the word.
func (w apiWord) retained() bool {
	return w.Type == string(transcription.TokenWord) && strings.TrimSpace(util.Deref(w.Text)) != ""
}

// toResult validates the fields segments depend on and converts the
// response. Tokens that will be dropped are not validated.
func (r *apiResponse) toResult() (*transcription.Result, error) {
	tokens := make([]transcription.Token, 0, len(r.Words))
	for i, w := range r.Words {
		if w.retained() {
			if err := validation.Validate(w); err != nil {
				return nil, fmt.Errorf("word %d: %w", i, err)
			}
		}
		tokens = append(tokens, transcription.Token{
			Type:      transcription.TokenType(w.Type),
			Text:      util.Deref(w.Text),
			Start:     util.Deref(w.Start),
			End:       util.Deref(w.End),
			SpeakerID: util.Deref(w.SpeakerID),
		})
	}

	events := make([]transcription.AudioEvent, 0, len(r.AudioEvents))
	for i, e := range r.AudioEvents {
		if err := validation.Validate(e); err != nil {
			return nil, fmt.Errorf("audio event %d: %w", i, err)
		}
		events = append(events, transcription.AudioEvent{
			Type:  *e.Type,
			Start: *e.Start,
			End:   *e.End,
		})
	}

	return &transcription.Result{
		LanguageCode:        r.LanguageCode,
		LanguageProbability: r.LanguageProbability,
		Diarize:             r.Diarize,
		NumSpeakers:         r.NumSpeakers,
		AudioEvents:         events,
		Tokens:              tokens,
	}, nil
}
