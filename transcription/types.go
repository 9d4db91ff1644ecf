package transcription

// TokenType distinguishes the units a provider returns.
type TokenType string

const (
	TokenWord       TokenType = "word"
	TokenSpacing    TokenType = "spacing"
	TokenAudioEvent TokenType = "audio_event"
)

// Token is one timestamped unit of a transcript. Tokens arrive in
// non-decreasing time order. SpeakerID is only meaningful for words.
type Token struct {
	Type      TokenType `json:"type"`
	Text      string    `json:"text"`
	Start     float64   `json:"start"`
	End       float64   `json:"end"`
	SpeakerID string    `json:"speaker_id,omitempty"`
}

// Segment is a contiguous run of one speaker's words.
type Segment struct {
	SpeakerID string  `json:"speaker_id"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Text      string  `json:"text"`
}

// AudioEvent is a non-speech occurrence such as laughter.
type AudioEvent struct {
	Type  string  `json:"type"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Request describes one transcription call.
type Request struct {
	// AudioPath is the staged audio on local disk.
	AudioPath string
	// FileName is sent to the provider as the multipart file name.
	FileName string
	ModelID  string
	// Language is an optional ISO hint. Empty lets the provider detect it.
	Language string
	Progress ProgressReporter
}

// Result is what a provider returns before segmenting.
type Result struct {
	LanguageCode        string
	LanguageProbability float64
	Diarize             bool
	NumSpeakers         *int
	AudioEvents         []AudioEvent
	Tokens              []Token
}
