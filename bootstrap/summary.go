package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/kbukum/scribe/component"
)

// Summary prints the startup banner: components, routes and live health.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	out             io.Writer
	clients         []ClientInfo
}

// ClientInfo is an outbound dependency such as a transcription provider.
type ClientInfo struct {
	Name   string
	Target string
	Type   string
	Status string
}

func NewSummary(serviceName, version string) *Summary {
	return &Summary{serviceName: serviceName, version: version, out: os.Stdout}
}

func (s *Summary) SetOutput(w io.Writer) { s.out = w }

func (s *Summary) SetStartupDuration(d time.Duration) { s.startupDuration = d }

// TrackClient lists an outbound client in the summary.
func (s *Summary) TrackClient(name, target, clientType, status string) {
	s.clients = append(s.clients, ClientInfo{Name: name, Target: target, Type: clientType, Status: status})
}

// Display writes the summary. Health is read live from the registry.
func (s *Summary) Display(ctx context.Context, registry *component.Registry) {
	w := s.out
	version := s.version
	if version == "" {
		version = "dev"
	}
	fmt.Fprintf(w, "\n%s %s started in %.2fs\n", s.serviceName, version, s.startupDuration.Seconds())

	if registry == nil {
		fmt.Fprintln(w)
		return
	}

	descs := registry.Descriptions()
	if len(descs) > 0 {
		fmt.Fprintf(w, "\nComponents\n")
		for i, d := range descs {
			details := d.Details
			if d.Port > 0 && !strings.Contains(details, fmt.Sprintf(":%d", d.Port)) {
				details = fmt.Sprintf("%s (:%d)", details, d.Port)
			}
			fmt.Fprintf(w, "   %s %s [%s]: %s\n", branch(i, len(descs)), d.Name, d.Type, details)
		}
	}

	if len(s.clients) > 0 {
		fmt.Fprintf(w, "\nClients\n")
		for i, c := range s.clients {
			fmt.Fprintf(w, "   %s %s -> %s [%s] (%s)\n", branch(i, len(s.clients)), c.Name, c.Target, c.Type, c.Status)
		}
	}

	routes := registry.Routes()
	if len(routes) > 0 {
		fmt.Fprintf(w, "\nRoutes (%d)\n", len(routes))
		for i, r := range routes {
			fmt.Fprintf(w, "   %s %-7s %s -> %s\n", branch(i, len(routes)), r.Method, r.Path, r.Handler)
		}
	}

	health := registry.HealthAll(ctx)
	if len(health) > 0 {
		fmt.Fprintf(w, "\nHealth (%s)\n", component.Worst(health))
		for i, h := range health {
			msg := ""
			if h.Message != "" {
				msg = " - " + h.Message
			}
			fmt.Fprintf(w, "   %s %s %s: %s%s\n", branch(i, len(health)), healthIcon(h.Status), h.Name, h.Status, msg)
		}
	}
	fmt.Fprintln(w)
}

func branch(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func healthIcon(status component.HealthStatus) string {
	switch status {
	case component.StatusHealthy:
		return "✅"
	case component.StatusDegraded:
		return "⚠️"
	case component.StatusUnhealthy:
		return "❌"
	default:
		return "❓"
	}
}
