package component

import "context"

type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDegraded  HealthStatus = "degraded"
)

type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component is a long-lived part of the service: the HTTP server, a storage
// backend, the inbox watcher, telemetry exporters.
type Component interface {
	Name() string
	Start(ctx context.Context) error
	// Stop releases resources. It is only called after a successful Start.
	Stop(ctx context.Context) error
	Health(ctx context.Context) Health
}

// Description is one line of the startup summary.
type Description struct {
	// Name defaults to the component's Name().
	Name string
	// Type is "server", "storage", "watcher" and so on.
	Type    string
	Details string
	Port    int
}

// Describable components appear in the startup summary.
type Describable interface {
	Describe() Description
}

type Route struct {
	Method  string
	Path    string
	Handler string
}

// RouteProvider is implemented by the HTTP server component.
type RouteProvider interface {
	Routes() []Route
}

// Worst folds component health into one status.
func Worst(results []Health) HealthStatus {
	status := StatusHealthy
	for _, h := range results {
		switch h.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}
