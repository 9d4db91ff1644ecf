package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Instrument names.
const (
	MetricRequests        = "scribe.requests"
	MetricRequestDuration = "scribe.request.duration"
	MetricInFlight        = "scribe.requests.in_flight"
	MetricProviderCalls   = "scribe.provider.calls"
	MetricProviderLatency = "scribe.provider.duration"
	MetricErrors          = "scribe.errors"
	MetricBytesUploaded   = "scribe.upload.bytes"
	MetricSegments        = "scribe.segments"
)

// Metrics holds the service's instruments. All methods are safe for
// concurrent use.
type Metrics struct {
	requests        metric.Int64Counter
	requestDuration metric.Float64Histogram
	inFlight        metric.Int64UpDownCounter
	providerCalls   metric.Int64Counter
	providerLatency metric.Float64Histogram
	errors          metric.Int64Counter
	bytesUploaded   metric.Int64Counter
	segments        metric.Int64Histogram
}

// instrumentSet creates instruments on one meter and keeps the errors so
// NewMetrics can report them together.
type instrumentSet struct {
	meter metric.Meter
	errs  []error
}

func (s *instrumentSet) check(name string, err error) {
	if err != nil {
		s.errs = append(s.errs, fmt.Errorf("creating %s: %w", name, err))
	}
}

func (s *instrumentSet) counter(name, desc string, opts ...metric.Int64CounterOption) metric.Int64Counter {
	c, err := s.meter.Int64Counter(name, append(opts, metric.WithDescription(desc))...)
	s.check(name, err)
	return c
}

func (s *instrumentSet) seconds(name, desc string) metric.Float64Histogram {
	h, err := s.meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
	s.check(name, err)
	return h
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	s := &instrumentSet{meter: meter}
	m := &Metrics{
		requests:        s.counter(MetricRequests, "Transcription requests by outcome"),
		requestDuration: s.seconds(MetricRequestDuration, "End-to-end transcription time"),
		providerCalls:   s.counter(MetricProviderCalls, "Calls to transcription providers"),
		providerLatency: s.seconds(MetricProviderLatency, "Transcription provider latency"),
		errors:          s.counter(MetricErrors, "Failed transcriptions by operation and provider"),
		bytesUploaded:   s.counter(MetricBytesUploaded, "Audio bytes sent to providers", metric.WithUnit("By")),
	}

	var err error
	m.inFlight, err = meter.Int64UpDownCounter(MetricInFlight, metric.WithDescription("Transcriptions in progress"))
	s.check(MetricInFlight, err)
	m.segments, err = meter.Int64Histogram(MetricSegments, metric.WithDescription("Speaker segments per transcript"))
	s.check(MetricSegments, err)

	if len(s.errs) > 0 {
		return nil, errors.Join(s.errs...)
	}
	return m, nil
}

func (m *Metrics) RecordRequestStart(ctx context.Context) {
	m.inFlight.Add(ctx, 1)
}

// RecordRequestEnd closes a RecordRequestStart and records the outcome.
func (m *Metrics) RecordRequestEnd(ctx context.Context, service, operation, status string, d time.Duration) {
	m.inFlight.Add(ctx, -1)
	attrs := metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("operation", operation),
		attribute.String("status", status),
	)
	m.requests.Add(ctx, 1, attrs)
	m.requestDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordOperation records one provider call.
func (m *Metrics) RecordOperation(ctx context.Context, provider, operation, status string, d time.Duration) {
	m.providerCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
	m.providerLatency.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("operation", operation),
	))
}

func (m *Metrics) RecordError(ctx context.Context, operation, provider string) {
	m.errors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("provider", provider),
	))
}

func (m *Metrics) RecordBytesUploaded(ctx context.Context, provider string, n int64) {
	if n <= 0 {
		return
	}
	m.bytesUploaded.Add(ctx, n, metric.WithAttributes(attribute.String("provider", provider)))
}

func (m *Metrics) RecordSegments(ctx context.Context, provider string, n int) {
	m.segments.Record(ctx, int64(n), metric.WithAttributes(attribute.String("provider", provider)))
}
