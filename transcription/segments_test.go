package transcription

import (
	"fmt"
	"math/rand"
	"reflect"
	"strings"
	"sync"
	"testing"
)

func word(speaker, text string, start, end float64) Token {
	return Token{Type: TokenWord, Text: text, Start: start, End: end, SpeakerID: speaker}
}

func spacing(start, end float64) Token {
	return Token{Type: TokenSpacing, Text: " ", Start: start, End: end}
}

func TestBuildSegments(t *testing.T) {
	tests := []struct {
		name   string
		tokens []Token
		want   []Segment
	}{
		{
			name:   "nil input",
			tokens: nil,
			want:   []Segment{},
		},
		{
			name:   "no qualifying words",
			tokens: []Token{spacing(0, 0.1), {Type: TokenAudioEvent, Text: "(laughs)", Start: 0.1, End: 0.5}},
			want:   []Segment{},
		},
		{
			name: "two speakers",
			tokens: []Token{
				word("0", "hi", 0, 0.3),
				word("0", "there", 0.3, 0.6),
				word("1", "hey", 0.7, 1.0),
			},
			want: []Segment{
				{SpeakerID: "0", Start: 0, End: 0.6, Text: "hi there"},
				{SpeakerID: "1", Start: 0.7, End: 1.0, Text: "hey"},
			},
		},
		{
			name:   "single token",
			tokens: []Token{word("speaker_3", "  hello ", 1.25, 1.5)},
			want:   []Segment{{SpeakerID: "speaker_3", Start: 1.25, End: 1.5, Text: "hello"}},
		},
		{
			name: "whitespace word dropped",
			tokens: []Token{
				word("0", "a", 0, 0.1),
				word("0", " ", 5, 9),
				word("0", "b", 0.2, 0.3),
			},
			want: []Segment{{SpeakerID: "0", Start: 0, End: 0.3, Text: "a b"}},
		},
		{
			name: "whitespace word with other speaker does not split",
			tokens: []Token{
				word("0", "a", 0, 0.1),
				word("1", "\t", 0.1, 0.2),
				word("0", "b", 0.2, 0.3),
			},
			want: []Segment{{SpeakerID: "0", Start: 0, End: 0.3, Text: "a b"}},
		},
		{
			name: "later words keep their own whitespace",
			tokens: []Token{
				word("0", " hi ", 0, 0.2),
				word("0", " there", 0.2, 0.4),
				word("0", "you ", 0.4, 0.6),
			},
			want: []Segment{{SpeakerID: "0", Start: 0, End: 0.6, Text: "hi  there you"}},
		},
		{
			name: "spacing and events ignored",
			tokens: []Token{
				word("0", "one", 0, 0.2),
				spacing(0.2, 0.3),
				{Type: TokenAudioEvent, Text: "(cough)", Start: 0.3, End: 0.6, SpeakerID: "1"},
				word("0", "two", 0.6, 0.8),
			},
			want: []Segment{{SpeakerID: "0", Start: 0, End: 0.8, Text: "one two"}},
		},
		{
			name: "single differing speaker splits run",
			tokens: []Token{
				word("a", "w1", 0, 1),
				word("a", "w2", 1, 2),
				word("b", "w3", 2, 3),
				word("a", "w4", 3, 4),
				word("a", "w5", 4, 5),
			},
			want: []Segment{
				{SpeakerID: "a", Start: 0, End: 2, Text: "w1 w2"},
				{SpeakerID: "b", Start: 2, End: 3, Text: "w3"},
				{SpeakerID: "a", Start: 3, End: 5, Text: "w4 w5"},
			},
		},
		{
			name: "time gaps do not split",
			tokens: []Token{
				word("0", "before", 0, 1),
				word("0", "after", 120, 121),
			},
			want: []Segment{{SpeakerID: "0", Start: 0, End: 121, Text: "before after"}},
		},
		{
			name: "ids are not renumbered",
			tokens: []Token{
				word("speaker_7", "x", 0, 1),
				word("speaker_2", "y", 1, 2),
				word("speaker_7", "z", 2, 3),
			},
			want: []Segment{
				{SpeakerID: "speaker_7", Start: 0, End: 1, Text: "x"},
				{SpeakerID: "speaker_2", Start: 1, End: 2, Text: "y"},
				{SpeakerID: "speaker_7", Start: 2, End: 3, Text: "z"},
			},
		},
		{
			name: "empty speaker id is its own speaker",
			tokens: []Token{
				word("", "x", 0, 1),
				word("", "y", 1, 2),
				word("0", "z", 2, 3),
			},
			want: []Segment{
				{SpeakerID: "", Start: 0, End: 2, Text: "x y"},
				{SpeakerID: "0", Start: 2, End: 3, Text: "z"},
			},
		},
		{
			name: "input order kept even when times go backwards",
			tokens: []Token{
				word("0", "late", 5, 6),
				word("1", "early", 1, 2),
			},
			want: []Segment{
				{SpeakerID: "0", Start: 5, End: 6, Text: "late"},
				{SpeakerID: "1", Start: 1, End: 2, Text: "early"},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := BuildSegments(tc.tokens)
			if got == nil {
				t.Fatal("BuildSegments returned nil")
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("BuildSegments() =\n  %+v\nwant\n  %+v", got, tc.want)
			}
		})
	}
}

// randomTranscript produces a plausible ordered token stream with a few
// speakers, spacing tokens, events and blank words mixed in.
func randomTranscript(r *rand.Rand, n int) []Token {
	tokens := make([]Token, 0, n*2)
	clock := 0.0
	speaker := "speaker_0"
	for i := 0; i < n; i++ {
		if r.Intn(4) == 0 {
			speaker = fmt.Sprintf("speaker_%d", r.Intn(3))
		}
		dur := 0.05 + r.Float64()/2
		text := fmt.Sprintf("w%d", i)
		switch r.Intn(10) {
		case 0:
			text = "  "
		case 1:
			tokens = append(tokens, Token{Type: TokenAudioEvent, Text: "(laughter)", Start: clock, End: clock + dur})
		}
		tokens = append(tokens, word(speaker, text, clock, clock+dur))
		clock += dur
		tokens = append(tokens, spacing(clock, clock))
	}
	return tokens
}

func TestBuildSegmentsProperties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for iter := 0; iter < 200; iter++ {
		tokens := randomTranscript(r, r.Intn(60))
		segs := BuildSegments(tokens)

		var kept []Token
		for _, tok := range tokens {
			if tok.Type == TokenWord && strings.TrimSpace(tok.Text) != "" {
				kept = append(kept, tok)
			}
		}

		words := 0
		for _, s := range segs {
			words += len(strings.Fields(s.Text))
		}
		if words != len(kept) {
			t.Fatalf("iter %d: word count %d, want %d", iter, words, len(kept))
		}

		for i, s := range segs {
			if s.Start > s.End {
				t.Fatalf("iter %d: segment %d has start %v > end %v", iter, i, s.Start, s.End)
			}
			if s.Text != strings.TrimSpace(s.Text) || strings.Contains(s.Text, "  ") {
				t.Fatalf("iter %d: segment %d text not normalised: %q", iter, i, s.Text)
			}
			if i > 0 {
				if segs[i-1].Start > s.Start {
					t.Fatalf("iter %d: segments out of order at %d", iter, i)
				}
				if segs[i-1].SpeakerID == s.SpeakerID {
					t.Fatalf("iter %d: adjacent segments share speaker %q", iter, s.SpeakerID)
				}
			}
		}

		runs := 0
		for i, tok := range kept {
			if i == 0 || tok.SpeakerID != kept[i-1].SpeakerID {
				runs++
			}
		}
		if runs != len(segs) {
			t.Fatalf("iter %d: %d speaker runs but %d segments", iter, runs, len(segs))
		}
	}
}

func TestBuildSegmentsConcurrent(t *testing.T) {
	tokens := []Token{word("0", "a", 0, 1), word("1", "b", 1, 2)}
	want := BuildSegments(tokens)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := BuildSegments(tokens); !reflect.DeepEqual(got, want) {
				t.Errorf("concurrent result differs: %+v", got)
			}
		}()
	}
	wg.Wait()
}

func TestBuildSegmentsDoesNotMutateInput(t *testing.T) {
	tokens := []Token{word("0", " a ", 0, 1), word("0", "b", 1, 2)}
	orig := append([]Token(nil), tokens...)
	BuildSegments(tokens)
	if !reflect.DeepEqual(tokens, orig) {
		t.Errorf("input mutated: %+v", tokens)
	}
}
