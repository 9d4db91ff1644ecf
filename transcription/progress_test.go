package transcription

import (
	"bytes"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/kbukum/scribe/logger"
)

func TestMultiProgress(t *testing.T) {
	var a, b atomic.Int64
	m := MultiProgress(
		ProgressFunc(func(sent, _ int64) { a.Store(sent) }),
		nil,
		ProgressFunc(func(sent, _ int64) { b.Store(sent) }),
	)
	m.BytesTransferred(42, 100)
	if a.Load() != 42 || b.Load() != 42 {
		t.Errorf("fan out failed: a=%d b=%d", a.Load(), b.Load())
	}

	if _, ok := MultiProgress(nil, nil).(NopProgress); !ok {
		t.Error("all-nil reporters should collapse to NopProgress")
	}
	single := ProgressFunc(func(int64, int64) {})
	if _, ok := MultiProgress(single).(ProgressFunc); !ok {
		t.Error("single reporter should be returned as is")
	}
}

func TestLogProgressThrottles(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: logger.FormatJSON}, "scribe", &buf)
	p := NewLogProgress(log, 25)

	for sent := int64(0); sent <= 1000; sent += 10 {
		p.BytesTransferred(sent, 1000)
	}
	lines := strings.Count(strings.TrimSpace(buf.String()), "\n") + 1
	// 0, 25, 50, 75 and 100 percent
	if lines != 5 {
		t.Errorf("logged %d lines, want 5:\n%s", lines, buf.String())
	}
}

func TestLogProgressUnknownTotal(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: logger.FormatJSON}, "scribe", &buf)
	NewLogProgress(log, 10).BytesTransferred(10, -1)
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}
