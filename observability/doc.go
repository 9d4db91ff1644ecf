// Package observability wires OpenTelemetry tracing and metrics.
//
// Telemetry is registered as a component. With exporters disabled the
// instruments are backed by no-op providers, so callers never check for nil:
//
//	tel, _ := observability.NewTelemetry(cfg.Observability, "scribe", version, env)
//	oc := observability.NewOperationContext("scribe", "transcribe", reqID, "elevenlabs", tel.Metrics())
//	ctx, span := oc.StartSpanForOperation(ctx, observability.SpanTranscriptionCall)
//	defer oc.EndOperation(ctx, span, "ok", nil)
package observability
