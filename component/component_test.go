package component

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type mockComponent struct {
	name     string
	startErr error
	stopErr  error
	health   Health
	events   *[]string
}

func (m *mockComponent) Name() string { return m.name }

func (m *mockComponent) Start(ctx context.Context) error {
	if m.events != nil {
		*m.events = append(*m.events, "start:"+m.name)
	}
	return m.startErr
}

func (m *mockComponent) Stop(ctx context.Context) error {
	if m.events != nil {
		*m.events = append(*m.events, "stop:"+m.name)
	}
	return m.stopErr
}

func (m *mockComponent) Health(ctx context.Context) Health { return m.health }

type describedComponent struct {
	mockComponent
	desc   Description
	routes []Route
}

func (d *describedComponent) Describe() Description { return d.desc }
func (d *describedComponent) Routes() []Route       { return d.routes }

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&mockComponent{name: "storage"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(&mockComponent{name: "storage"}); err == nil {
		t.Error("expected error for duplicate registration")
	}
}

func TestGet(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(&mockComponent{name: "storage"})

	if got := r.Get("storage"); got == nil || got.Name() != "storage" {
		t.Errorf("Get(storage) = %v", got)
	}
	if r.Get("missing") != nil {
		t.Error("expected nil for unregistered component")
	}
}

func TestLifecycleOrder(t *testing.T) {
	var events []string
	r := NewRegistry()
	for _, name := range []string{"telemetry", "storage", "http-server"} {
		_ = r.Register(&mockComponent{name: name, events: &events})
	}

	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll: %v", err)
	}
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll: %v", err)
	}

	want := "start:telemetry,start:storage,start:http-server,stop:http-server,stop:storage,stop:telemetry"
	if got := strings.Join(events, ","); got != want {
		t.Errorf("events = %s\nwant     %s", got, want)
	}
}

func TestStartAllRollsBack(t *testing.T) {
	var events []string
	r := NewRegistry()
	_ = r.Register(&mockComponent{name: "telemetry", events: &events})
	_ = r.Register(&mockComponent{name: "storage", events: &events})
	_ = r.Register(&mockComponent{name: "inbox", events: &events, startErr: errors.New("no such directory")})
	_ = r.Register(&mockComponent{name: "http-server", events: &events})

	err := r.StartAll(context.Background())
	if err == nil || !strings.Contains(err.Error(), "failed to start inbox") {
		t.Fatalf("err = %v", err)
	}

	want := "start:telemetry,start:storage,start:inbox,stop:storage,stop:telemetry"
	if got := strings.Join(events, ","); got != want {
		t.Errorf("events = %s\nwant     %s", got, want)
	}

	events = events[:0]
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll after rollback: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("rolled back components stopped twice: %v", events)
	}
}

func TestStopAllSkipsUnstarted(t *testing.T) {
	var events []string
	r := NewRegistry()
	_ = r.Register(&mockComponent{name: "storage", events: &events})

	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no stops, got %v", events)
	}
}

func TestStopAllJoinsErrors(t *testing.T) {
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	r := NewRegistry()
	_ = r.Register(&mockComponent{name: "a", stopErr: errA})
	_ = r.Register(&mockComponent{name: "b", stopErr: errB})
	_ = r.StartAll(context.Background())

	err := r.StopAll(context.Background())
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("err = %v", err)
	}
}

func TestHealthAllAndWorst(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(&mockComponent{name: "storage", health: Health{Name: "storage", Status: StatusHealthy}})
	_ = r.Register(&mockComponent{name: "inbox", health: Health{Name: "inbox", Status: StatusDegraded}})

	results := r.HealthAll(context.Background())
	if len(results) != 2 || results[1].Status != StatusDegraded {
		t.Fatalf("results = %+v", results)
	}

	tests := []struct {
		name string
		in   []Health
		want HealthStatus
	}{
		{"empty", nil, StatusHealthy},
		{"all healthy", []Health{{Status: StatusHealthy}}, StatusHealthy},
		{"degraded", results, StatusDegraded},
		{"unhealthy wins", []Health{{Status: StatusDegraded}, {Status: StatusUnhealthy}, {Status: StatusHealthy}}, StatusUnhealthy},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Worst(tc.in); got != tc.want {
				t.Errorf("Worst() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestDescriptionsAndRoutes(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(&mockComponent{name: "plain"})
	_ = r.Register(&describedComponent{
		mockComponent: mockComponent{name: "http-server"},
		desc:          Description{Type: "server", Details: ":8000", Port: 8000},
		routes:        []Route{{Method: "POST", Path: "/transcribe/"}},
	})

	descs := r.Descriptions()
	if len(descs) != 1 || descs[0].Name != "http-server" || descs[0].Port != 8000 {
		t.Errorf("descriptions = %+v", descs)
	}
	routes := r.Routes()
	if len(routes) != 1 || routes[0].Path != "/transcribe/" {
		t.Errorf("routes = %+v", routes)
	}
}
