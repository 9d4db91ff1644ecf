package transcription

import "strings"

// BuildSegments groups word tokens into speaker turns.
//
// Only words with non-blank text take part. A new segment starts whenever
// the speaker id changes; time gaps never split a segment. The first word of
// a segment is trimmed, later words are appended as given and the joined
// text is trimmed once. Output order
// follows input order and speaker ids are kept verbatim. The result is never
// nil.
func BuildSegments(tokens []Token) []Segment {
	segments := make([]Segment, 0)

	var (
		cur   Segment
		words []string
		open  bool
	)
	flush := func() {
		cur.Text = strings.TrimSpace(strings.Join(words, " "))
		segments = append(segments, cur)
	}

	for _, tok := range tokens {
		if tok.Type != TokenWord {
			continue
		}
		text := strings.TrimSpace(tok.Text)
		if text == "" {
			continue
		}

		switch {
		case !open:
			open = true
		case tok.SpeakerID != cur.SpeakerID:
			flush()
		default:
			words = append(words, tok.Text)
			cur.End = tok.End
			continue
		}
		cur = Segment{SpeakerID: tok.SpeakerID, Start: tok.Start, End: tok.End}
		words = append(words[:0], text)
	}

	if open {
		flush()
	}
	return segments
}
