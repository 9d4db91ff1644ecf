package observability

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/scribe/component"
	"github.com/kbukum/scribe/logger"
)

// Telemetry owns the tracer and meter providers and the service Metrics.
// It is a lifecycle component so shutdown flushes pending exports.
type Telemetry struct {
	cfg     Config
	service string
	version string
	env     string

	tp      *sdktrace.TracerProvider
	mp      *sdkmetric.MeterProvider
	metrics *Metrics
}

// NewTelemetry builds Metrics on a no-op meter. Start swaps in the OTLP
// providers when cfg.Enabled is set.
func NewTelemetry(cfg Config, service, version, environment string) (*Telemetry, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m, err := NewMetrics(noop.NewMeterProvider().Meter(service))
	if err != nil {
		return nil, err
	}
	return &Telemetry{cfg: cfg, service: service, version: version, env: environment, metrics: m}, nil
}

// Metrics is never nil.
func (t *Telemetry) Metrics() *Metrics { return t.metrics }

func (t *Telemetry) Name() string { return "observability" }

func (t *Telemetry) Start(ctx context.Context) error {
	if !t.cfg.Enabled {
		return nil
	}

	res, err := newResource(t.service, t.version, t.env)
	if err != nil {
		return fmt.Errorf("creating resource: %w", err)
	}
	tp, err := newTracerProvider(ctx, t.cfg, res)
	if err != nil {
		return err
	}
	mp, err := newMeterProvider(ctx, t.cfg, res)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return err
	}

	m, err := NewMetrics(mp.Meter(t.service))
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return err
	}
	t.tp, t.mp = tp, mp
	*t.metrics = *m

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	logger.Info("telemetry exporters started", logger.Fields(
		"endpoint", t.cfg.Endpoint,
		"sample_rate", t.cfg.SampleRate,
		"interval", t.cfg.Interval.String(),
	))
	return nil
}

func (t *Telemetry) Stop(ctx context.Context) error {
	var errs []error
	if t.tp != nil {
		if err := t.tp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
	}
	if t.mp != nil {
		if err := t.mp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (t *Telemetry) Health(ctx context.Context) component.Health {
	h := component.Health{Name: t.Name(), Status: component.StatusHealthy}
	if !t.cfg.Enabled {
		h.Message = "exporters disabled"
	}
	return h
}

func (t *Telemetry) Describe() component.Description {
	details := "disabled"
	if t.cfg.Enabled {
		details = fmt.Sprintf("otlp %s sample=%.2f", t.cfg.Endpoint, t.cfg.SampleRate)
	}
	return component.Description{Name: "Telemetry", Type: "observability", Details: details}
}
