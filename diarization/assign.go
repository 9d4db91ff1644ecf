package diarization

import (
	"fmt"
	"math"

	"github.com/kbukum/scribe/transcription"
)

// DefaultSpeaker labels words when there are no turns at all.
const DefaultSpeaker = "speaker_0"

// AssignSpeakers returns a copy of tokens with every word labelled. A word
// takes the speaker of the turn it overlaps most, or of the nearest turn
// when it overlaps none. Ties go to the earlier turn. Other token types are
// copied unchanged.
func AssignSpeakers(tokens []transcription.Token, turns []Turn) []transcription.Token {
	out := make([]transcription.Token, len(tokens))
	copy(out, tokens)
	for i := range out {
		if out[i].Type != transcription.TokenWord {
			continue
		}
		out[i].SpeakerID = speakerFor(out[i].Start, out[i].End, turns)
	}
	return out
}

func speakerFor(start, end float64, turns []Turn) string {
	if len(turns) == 0 {
		return DefaultSpeaker
	}

	best, bestOverlap := -1, 0.0
	for i, t := range turns {
		if ov := math.Min(end, t.End) - math.Max(start, t.Start); ov > bestOverlap {
			best, bestOverlap = i, ov
		}
	}
	if best >= 0 {
		return turns[best].Speaker
	}

	nearest, nearestDist := 0, math.Inf(1)
	for i, t := range turns {
		if d := gap(start, end, t); d < nearestDist {
			nearest, nearestDist = i, d
		}
	}
	return turns[nearest].Speaker
}

// gap is the distance between [start, end] and the turn, zero if they touch.
func gap(start, end float64, t Turn) float64 {
	switch {
	case end < t.Start:
		return t.Start - end
	case start > t.End:
		return start - t.End
	default:
		return 0
	}
}

// NormalizeSpeakers renames backend labels such as SPEAKER_03 to
// speaker_0, speaker_1, ... in order of first appearance.
func NormalizeSpeakers(turns []Turn) []Turn {
	ids := make(map[string]string)
	out := make([]Turn, len(turns))
	for i, t := range turns {
		id, ok := ids[t.Speaker]
		if !ok {
			id = fmt.Sprintf("speaker_%d", len(ids))
			ids[t.Speaker] = id
		}
		t.Speaker = id
		out[i] = t
	}
	return out
}

// CountSpeakers returns the number of distinct speakers in turns.
func CountSpeakers(turns []Turn) int {
	seen := make(map[string]struct{}, len(turns))
	for _, t := range turns {
		seen[t.Speaker] = struct{}{}
	}
	return len(seen)
}
