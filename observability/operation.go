package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OperationContext follows one provider call from span start to end and
// records it on Metrics.
type OperationContext struct {
	ServiceName   string
	OperationName string
	RequestID     string
	Provider      string
	StartTime     time.Time
	// Metrics may be nil, in which case only the span is recorded.
	Metrics *Metrics
}

func NewOperationContext(serviceName, operationName, requestID, provider string, metrics *Metrics) *OperationContext {
	return &OperationContext{
		ServiceName:   serviceName,
		OperationName: operationName,
		RequestID:     requestID,
		Provider:      provider,
		StartTime:     time.Now(),
		Metrics:       metrics,
	}
}

type operationKey struct{}

func WithOperationContext(ctx context.Context, oc *OperationContext) context.Context {
	return context.WithValue(ctx, operationKey{}, oc)
}

// OperationContextFromContext returns nil when ctx carries none.
func OperationContextFromContext(ctx context.Context) *OperationContext {
	oc, _ := ctx.Value(operationKey{}).(*OperationContext)
	return oc
}

func (oc *OperationContext) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrServiceName, oc.ServiceName),
		attribute.String(AttrOperationName, oc.OperationName),
		attribute.String(AttrRequestID, oc.RequestID),
	}
	if oc.Provider != "" {
		attrs = append(attrs, attribute.String(AttrProvider, oc.Provider))
	}
	return attrs
}

// StartSpanForOperation starts spanName, counts the operation as in flight
// and stores oc in the returned context.
func (oc *OperationContext) StartSpanForOperation(ctx context.Context, spanName string) (context.Context, trace.Span) {
	ctx, span := StartSpan(ctx, spanName, trace.WithAttributes(oc.attributes()...))
	if oc.Metrics != nil {
		oc.Metrics.RecordRequestStart(ctx)
	}
	return WithOperationContext(ctx, oc), span
}

// EndOperation ends span with status and err, then records the outcome.
func (oc *OperationContext) EndOperation(ctx context.Context, span trace.Span, status string, err error) {
	elapsed := oc.Duration()
	span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, elapsed.Milliseconds()),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	}
	span.End()

	m := oc.Metrics
	if m == nil {
		return
	}
	m.RecordRequestEnd(ctx, oc.ServiceName, oc.OperationName, status, elapsed)
	if oc.Provider != "" {
		m.RecordOperation(ctx, oc.Provider, oc.OperationName, status, elapsed)
	}
	if err != nil {
		m.RecordError(ctx, oc.OperationName, oc.Provider)
	}
}

func (oc *OperationContext) Duration() time.Duration {
	return time.Since(oc.StartTime)
}
