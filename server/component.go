package server

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kbukum/scribe/component"
)

const componentName = "http-server"

var (
	_ component.Component     = (*Component)(nil)
	_ component.Describable   = (*Component)(nil)
	_ component.RouteProvider = (*Component)(nil)
)

// Component adapts Server to the lifecycle registry.
type Component struct {
	server *Server
}

func NewComponent(s *Server) *Component {
	return &Component{server: s}
}

func (sc *Component) Name() string { return componentName }

func (sc *Component) Start(ctx context.Context) error { return sc.server.Start(ctx) }

func (sc *Component) Stop(ctx context.Context) error { return sc.server.Stop(ctx) }

func (sc *Component) Health(_ context.Context) component.Health {
	sc.server.mu.Lock()
	started := sc.server.listener != nil
	sc.server.mu.Unlock()
	if !started {
		return component.Health{Name: componentName, Status: component.StatusUnhealthy, Message: "not listening"}
	}
	return component.Health{Name: componentName, Status: component.StatusHealthy}
}

func (sc *Component) Describe() component.Description {
	cfg := sc.server.config
	details := sc.server.Addr()
	if n := cfg.RateLimit.RequestsPerMinute; n > 0 {
		details = fmt.Sprintf("%s rate_limit=%d/min", details, n)
	}
	return component.Description{
		Name:    "HTTP Server",
		Type:    "server",
		Details: details,
		Port:    cfg.Port,
	}
}

// systemPaths are the operational endpoints, listed after API routes.
var systemPaths = map[string]bool{
	"/health":    true,
	"/liveness":  true,
	"/readiness": true,
	"/info":      true,
	"/version":   true,
	"/metrics":   true,
}

// Routes lists Gin routes for the startup summary, API routes first.
func (sc *Component) Routes() []component.Route {
	ginRoutes := sc.server.engine.Routes()
	sort.Slice(ginRoutes, func(i, j int) bool {
		iSys, jSys := systemPaths[ginRoutes[i].Path], systemPaths[ginRoutes[j].Path]
		if iSys != jSys {
			return !iSys
		}
		if ginRoutes[i].Path != ginRoutes[j].Path {
			return ginRoutes[i].Path < ginRoutes[j].Path
		}
		return methodOrder(ginRoutes[i].Method) < methodOrder(ginRoutes[j].Method)
	})

	routes := make([]component.Route, 0, len(ginRoutes))
	for _, r := range ginRoutes {
		handler := formatHandlerName(r.Handler)
		if systemPaths[r.Path] {
			handler += " ⚙️"
		}
		routes = append(routes, component.Route{Method: r.Method, Path: r.Path, Handler: handler})
	}
	return routes
}

// formatHandlerName shortens Gin's handler names, e.g.
// "github.com/kbukum/scribe/scribe.(*Handler).Transcribe-fm" becomes
// "Handler.Transcribe" and endpoint closures become their factory name.
func formatHandlerName(fullPath string) string {
	name := strings.TrimSuffix(fullPath, "-fm")
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	name = strings.ReplaceAll(name, "(*", "")
	name = strings.ReplaceAll(name, ")", "")

	if strings.Contains(name, ".func") {
		parts := strings.Split(name, ".")
		for i := len(parts) - 1; i >= 0; i-- {
			if !strings.HasPrefix(parts[i], "func") {
				return strings.ToLower(parts[i])
			}
		}
	}

	// Drop a lowercase package prefix.
	if pkg, rest, ok := strings.Cut(name, "."); ok && rest != "" && strings.ToLower(pkg) == pkg {
		name = rest
	}
	return name
}

func methodOrder(method string) int {
	switch method {
	case "GET":
		return 0
	case "POST":
		return 1
	case "PUT":
		return 2
	case "PATCH":
		return 3
	case "DELETE":
		return 4
	default:
		return 5
	}
}
