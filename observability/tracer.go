package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/kbukum/scribe"

// Span names.
const (
	SpanTranscribe        = "scribe.transcribe"
	SpanTranscriptionCall = "transcription.call"
	SpanDiarizationCall   = "diarization.call"
)

// Attribute keys.
const (
	AttrServiceName   = "service.name"
	AttrOperationName = "operation.name"
	AttrRequestID     = "request.id"
	AttrProvider      = "transcription.provider"
	AttrModelID       = "transcription.model_id"
	AttrSegments      = "transcription.segments"
	AttrBytes         = "transcription.bytes"
	AttrDurationMs    = "duration_ms"
	AttrStatus        = "status"
	AttrErrorMessage  = "error.message"
)

// StartSpan starts a span on the global tracer provider, which stays a no-op
// until Telemetry starts with exporters enabled.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, opts...)
}

// SetSpanAttribute sets an attribute on the span in ctx. Unsupported value
// types are ignored.
func SetSpanAttribute(ctx context.Context, key string, value any) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	var kv attribute.KeyValue
	switch v := value.(type) {
	case string:
		kv = attribute.String(key, v)
	case int:
		kv = attribute.Int(key, v)
	case int64:
		kv = attribute.Int64(key, v)
	case float64:
		kv = attribute.Float64(key, v)
	case bool:
		kv = attribute.Bool(key, v)
	case []string:
		kv = attribute.StringSlice(key, v)
	default:
		return
	}
	span.SetAttributes(kv)
}

func SetSpanError(ctx context.Context, err error) {
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.RecordError(err)
	}
}
