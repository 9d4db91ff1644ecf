package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/scribe/component"
	"github.com/kbukum/scribe/config"
	"github.com/kbukum/scribe/logger"
)

type testConfig struct {
	config.ServiceConfig
}

type mockComponent struct {
	name     string
	startErr error
	health   component.Health
	events   *[]string
}

func (m *mockComponent) Name() string { return m.name }

func (m *mockComponent) Start(ctx context.Context) error {
	*m.events = append(*m.events, "start:"+m.name)
	return m.startErr
}

func (m *mockComponent) Stop(ctx context.Context) error {
	*m.events = append(*m.events, "stop:"+m.name)
	return nil
}

func (m *mockComponent) Health(ctx context.Context) component.Health { return m.health }

func (m *mockComponent) Describe() component.Description {
	return component.Description{Type: "test", Details: "mock", Port: 9000}
}

func newTestApp(t *testing.T, out *bytes.Buffer) *App[*testConfig] {
	t.Helper()
	cfg := &testConfig{ServiceConfig: config.ServiceConfig{Name: "scribe", Version: "1.0.0", Environment: "production"}}
	app, err := NewApp(cfg, WithLogger(logger.Nop()), WithSummaryOutput(out), WithGracefulTimeout(time.Second))
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	return app
}

func TestNewApp(t *testing.T) {
	var out bytes.Buffer
	app := newTestApp(t, &out)
	if app.Name != "scribe" || app.Version != "1.0.0" {
		t.Errorf("name=%q version=%q", app.Name, app.Version)
	}
	if app.Cfg.Name != "scribe" {
		t.Errorf("typed config lost: %+v", app.Cfg)
	}
	if app.Components == nil || app.Logger == nil || app.Summary == nil {
		t.Error("expected components, logger and summary")
	}
	if app.gracefulTimeout != time.Second {
		t.Errorf("graceful timeout = %s", app.gracefulTimeout)
	}
}

func TestNewAppValidates(t *testing.T) {
	_, err := NewApp(&testConfig{}, WithLogger(logger.Nop()))
	if err == nil || !strings.Contains(err.Error(), "config validation") {
		t.Fatalf("err = %v", err)
	}
}

func TestRunTaskLifecycle(t *testing.T) {
	var out bytes.Buffer
	var events []string
	app := newTestApp(t, &out)

	app.OnConfigure(func(ctx context.Context, a *App[*testConfig]) error {
		events = append(events, "configure")
		return a.RegisterComponent(&mockComponent{
			name:   "storage",
			events: &events,
			health: component.Health{Name: "storage", Status: component.StatusHealthy},
		})
	})
	app.OnStart(func(ctx context.Context) error { events = append(events, "onStart"); return nil })
	app.OnReady(func(ctx context.Context) error { events = append(events, "onReady"); return nil })
	app.OnStop(func(ctx context.Context) error { events = append(events, "onStop"); return nil })

	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		events = append(events, "task")
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask: %v", err)
	}

	want := "configure,start:storage,onStart,onReady,task,onStop,stop:storage"
	if got := strings.Join(events, ","); got != want {
		t.Errorf("events = %s\nwant     %s", got, want)
	}
	if !strings.Contains(out.String(), "scribe 1.0.0 started") || !strings.Contains(out.String(), "storage [test]: mock (:9000)") {
		t.Errorf("summary = %q", out.String())
	}
}

func TestRunTaskReturnsTaskError(t *testing.T) {
	var out bytes.Buffer
	app := newTestApp(t, &out)
	want := errors.New("task failed")
	if err := app.RunTask(context.Background(), func(ctx context.Context) error { return want }); !errors.Is(err, want) {
		t.Errorf("err = %v", err)
	}
}

func TestStartupFailureStopsStarted(t *testing.T) {
	var out bytes.Buffer
	var events []string
	app := newTestApp(t, &out)
	_ = app.RegisterComponent(&mockComponent{name: "storage", events: &events})
	_ = app.RegisterComponent(&mockComponent{name: "inbox", events: &events, startErr: errors.New("boom")})

	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		t.Fatal("task must not run")
		return nil
	})
	if err == nil || !strings.Contains(err.Error(), "initialization failed") {
		t.Fatalf("err = %v", err)
	}
	if got := strings.Join(events, ","); got != "start:storage,start:inbox,stop:storage" {
		t.Errorf("events = %s", got)
	}
}

func TestOnStartHookFailureShutsDown(t *testing.T) {
	var out bytes.Buffer
	var events []string
	app := newTestApp(t, &out)
	_ = app.RegisterComponent(&mockComponent{name: "storage", events: &events})
	app.OnStart(func(ctx context.Context) error { return errors.New("hook") })

	if err := app.RunTask(context.Background(), func(ctx context.Context) error { return nil }); err == nil {
		t.Fatal("expected hook error")
	}
	if got := strings.Join(events, ","); got != "start:storage,stop:storage" {
		t.Errorf("events = %s", got)
	}
}

func TestReadyCheck(t *testing.T) {
	var out bytes.Buffer
	var events []string
	app := newTestApp(t, &out)
	_ = app.RegisterComponent(&mockComponent{name: "ok", events: &events, health: component.Health{Name: "ok", Status: component.StatusHealthy}})
	_ = app.RegisterComponent(&mockComponent{name: "sidecar", events: &events, health: component.Health{Name: "sidecar", Status: component.StatusDegraded, Message: "slow"}})

	err := app.ReadyCheck(context.Background())
	if err == nil || !strings.Contains(err.Error(), "sidecar=degraded(slow)") {
		t.Errorf("err = %v", err)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	var out bytes.Buffer
	var events []string
	app := newTestApp(t, &out)
	_ = app.RegisterComponent(&mockComponent{name: "server", events: &events})

	ctx, cancel := context.WithCancel(context.Background())
	app.OnReady(func(context.Context) error { cancel(); return nil })

	if err := app.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := strings.Join(events, ","); got != "start:server,stop:server" {
		t.Errorf("events = %s", got)
	}
}

func TestSummaryClientsAndHealth(t *testing.T) {
	var out bytes.Buffer
	s := NewSummary("scribe", "")
	s.SetOutput(&out)
	s.TrackClient("elevenlabs", "https://api.elevenlabs.io", "http", "configured")

	var events []string
	r := component.NewRegistry()
	_ = r.Register(&mockComponent{name: "inbox", events: &events, health: component.Health{Name: "inbox", Status: component.StatusUnhealthy}})
	s.Display(context.Background(), r)

	got := out.String()
	for _, want := range []string{"scribe dev started", "elevenlabs -> https://api.elevenlabs.io [http] (configured)", "Health (unhealthy)", "❌ inbox: unhealthy"} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q:\n%s", want, got)
		}
	}
}
