package transcription

import (
	"sync"

	"github.com/kbukum/scribe/logger"
)

// ProgressReporter receives upload progress. total is -1 when unknown.
// Implementations must be safe for use from the upload goroutine.
type ProgressReporter interface {
	BytesTransferred(sent, total int64)
}

// ProgressFunc adapts a function to ProgressReporter.
type ProgressFunc func(sent, total int64)

func (f ProgressFunc) BytesTransferred(sent, total int64) { f(sent, total) }

// NopProgress discards notifications.
type NopProgress struct{}

func (NopProgress) BytesTransferred(int64, int64) {}

// MultiProgress fans out to every non-nil reporter.
func MultiProgress(reporters ...ProgressReporter) ProgressReporter {
	var live []ProgressReporter
	for _, r := range reporters {
		if r != nil {
			live = append(live, r)
		}
	}
	switch len(live) {
	case 0:
		return NopProgress{}
	case 1:
		return live[0]
	}
	return multiProgress(live)
}

type multiProgress []ProgressReporter

func (m multiProgress) BytesTransferred(sent, total int64) {
	for _, r := range m {
		r.BytesTransferred(sent, total)
	}
}

// LogProgress logs at debug level each time another step percent of the
// upload completes, and once more when it finishes.
type LogProgress struct {
	log  *logger.Logger
	step int64

	mu   sync.Mutex
	last int64
}

func NewLogProgress(log *logger.Logger, step int) *LogProgress {
	if step <= 0 || step > 100 {
		step = 10
	}
	return &LogProgress{log: log, step: int64(step), last: -1}
}

func (p *LogProgress) BytesTransferred(sent, total int64) {
	if total <= 0 {
		return
	}
	pct := sent * 100 / total
	bucket := pct / p.step * p.step

	p.mu.Lock()
	if bucket <= p.last && sent < total {
		p.mu.Unlock()
		return
	}
	if sent >= total && p.last == 100 {
		p.mu.Unlock()
		return
	}
	if sent >= total {
		bucket = 100
	}
	p.last = bucket
	p.mu.Unlock()

	p.log.Debug("upload progress", logger.Fields(
		logger.FieldBytesSent, sent,
		"total_bytes", total,
		"percent", bucket,
	))
}
