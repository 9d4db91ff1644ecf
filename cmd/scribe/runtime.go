package main

import (
	"fmt"

	"github.com/kbukum/scribe/bootstrap"
	"github.com/kbukum/scribe/component"
	"github.com/kbukum/scribe/history"
	"github.com/kbukum/scribe/kafka"
	"github.com/kbukum/scribe/logger"
	"github.com/kbukum/scribe/observability"
	"github.com/kbukum/scribe/redis"
	"github.com/kbukum/scribe/scribe"
	"github.com/kbukum/scribe/storage"
	"github.com/kbukum/scribe/transcription"
	"github.com/kbukum/scribe/transcription/whisper"
)

// runtime is the service graph shared by serve and transcribe.
type runtime struct {
	cfg       *scribe.Config
	telemetry *observability.Telemetry
	storage   *storage.Component
	history   *history.Component
	providers *transcription.Registry
	events    *scribe.EventHub
	service   *scribe.Service

	// sinkComponents start before the forwarder that feeds them.
	sinkComponents []component.Component
	forwarder      *scribe.SinkForwarder
}

func buildRuntime(cfg *scribe.Config, log *logger.Logger) (*runtime, error) {
	tel, err := observability.NewTelemetry(cfg.Observability, cfg.Name, cfg.Version, cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	ws, err := scribe.NewWorkspace(cfg.Workspace.Dir)
	if err != nil {
		return nil, err
	}
	providers, err := scribe.NewProviders(cfg, log, nil)
	if err != nil {
		return nil, err
	}

	store := storage.NewComponent(cfg.Storage, log)
	hist := history.NewComponent(cfg.History, log)
	events := scribe.NewEventHub(log, cfg.Server.CORS.AllowedOrigins)

	var (
		sinks          []scribe.EventSink
		sinkComponents []component.Component
	)
	if cfg.Redis.Enabled {
		rc := redis.NewComponent(cfg.Redis, log)
		sinks, sinkComponents = append(sinks, rc), append(sinkComponents, rc)
	}
	if cfg.Kafka.Enabled {
		kc := kafka.NewComponent(cfg.Kafka, log)
		sinks, sinkComponents = append(sinks, kc), append(sinkComponents, kc)
	}
	svc, err := scribe.NewService(scribe.Options{
		ServiceName: cfg.Name,
		Providers:   providers,
		Workspace:   ws,
		Audit:       store,
		AuditPrefix: cfg.Storage.Prefix,
		History:     hist,
		Events:      events,
		Metrics:     tel.Metrics(),
		Logger:      log,
	})
	if err != nil {
		providers.Close()
		return nil, err
	}
	rt := &runtime{
		cfg:            cfg,
		telemetry:      tel,
		storage:        store,
		history:        hist,
		providers:      providers,
		events:         events,
		service:        svc,
		sinkComponents: sinkComponents,
	}
	if len(sinks) > 0 {
		rt.forwarder = scribe.NewSinkForwarder(events, log, sinks...)
	}
	return rt, nil
}

// register adds the lifecycle components and lists providers in the
// startup summary.
func (rt *runtime) register(a *bootstrap.App[*scribe.Config]) error {
	if err := a.RegisterComponent(rt.telemetry); err != nil {
		return err
	}
	if err := a.RegisterComponent(rt.storage); err != nil {
		return err
	}
	if err := a.RegisterComponent(rt.history); err != nil {
		return err
	}
	for _, c := range rt.sinkComponents {
		if err := a.RegisterComponent(c); err != nil {
			return err
		}
	}
	if rt.forwarder != nil {
		if err := a.RegisterComponent(rt.forwarder); err != nil {
			return err
		}
	}

	for _, name := range rt.providers.Names() {
		target := rt.cfg.ElevenLabs.BaseURL
		if name == whisper.ProviderName {
			target = rt.cfg.Whisper.URL
		}
		status := "registered"
		if name == rt.providers.Default() {
			status = "default"
		}
		a.Summary.TrackClient(name, target, "transcription", status)
	}
	if rt.cfg.Pyannote.Enabled {
		a.Summary.TrackClient("pyannote", rt.cfg.Pyannote.BaseURL, "diarization", "registered")
	}
	return nil
}

// info adds provider details to /info.
func (rt *runtime) info() map[string]any {
	return map[string]any{
		"providers":        rt.providers.Names(),
		"default_provider": rt.providers.Default(),
		"audit_enabled":    rt.cfg.Storage.Enabled,
		"history_enabled":  rt.cfg.History.Enabled,
		"event_sinks":      len(rt.sinkComponents),
	}
}

func (rt *runtime) close() {
	rt.events.Close()
	rt.providers.Close()
}
