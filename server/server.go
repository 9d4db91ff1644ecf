package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/scribe/logger"
	"github.com/kbukum/scribe/resilience"
	"github.com/kbukum/scribe/server/endpoint"
	"github.com/kbukum/scribe/server/middleware"
)

const (
	sweepInterval = 5 * time.Minute
)

// Server is a Gin engine mounted on a ServeMux, served over HTTP/1.1 and
// h2c. Middleware runs at the handler level in front of the mux.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	mux        *http.ServeMux
	h2s        *http2.Server
	handler    http.Handler
	limiter    *resilience.WindowLimiter
	config     Config
	log        *logger.Logger

	mu       sync.Mutex
	listener net.Listener
	stop     chan struct{}
}

// New creates a Server with no middleware. Call ApplyMiddleware before
// Start.
func New(cfg Config, log *logger.Logger) *Server {
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	mux := http.NewServeMux()
	mux.Handle("/", engine)

	s := &Server{
		engine: engine,
		mux:    mux,
		h2s: &http2.Server{
			MaxConcurrentStreams: 250,
			IdleTimeout:          time.Duration(cfg.IdleTimeout) * time.Second,
		},
		config: cfg,
		log:    log.WithComponent("server"),
	}
	s.handler = mux
	s.httpServer = &http.Server{
		Addr:              cfg.Addr(),
		ReadTimeout:       time.Duration(cfg.ReadTimeout) * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:       time.Duration(cfg.IdleTimeout) * time.Second,
	}
	return s
}

// GinEngine returns the engine for route registration.
func (s *Server) GinEngine() *gin.Engine { return s.engine }

// Handler is the full stack, middleware included. Tests drive it directly.
func (s *Server) Handler() http.Handler { return s.handler }

// Handle mounts handler beside Gin on the root mux.
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
	s.log.Debug("handler mounted", logger.Fields("pattern", pattern))
}

// ApplyMiddleware installs recovery, request id, CORS, body size limit,
// rate limit and request logging, outermost first.
func (s *Server) ApplyMiddleware() {
	if n := s.config.RateLimit.RequestsPerMinute; n > 0 {
		s.limiter = resilience.NewWindowLimiter(n, time.Minute)
	}
	chain := middleware.Chain(
		middleware.Recovery(s.log),
		middleware.RequestID(),
		middleware.CORS(&s.config.CORS),
		middleware.BodySizeLimit(s.config.MaxBodySize),
		middleware.RateLimit(s.limiter, middleware.ClientIP),
		middleware.RequestLogger(s.log),
	)
	s.handler = chain(s.mux)
}

// RegisterDefaultEndpoints adds the operational endpoints. info may be nil.
func (s *Server) RegisterDefaultEndpoints(serviceName string, checker endpoint.HealthChecker, info func() map[string]any) {
	s.engine.GET("/health", endpoint.Health(serviceName, checker))
	s.engine.GET("/liveness", endpoint.Liveness(serviceName))
	s.engine.GET("/readiness", endpoint.Readiness(serviceName, checker))
	s.engine.GET("/info", endpoint.Info(serviceName, info))
	s.engine.GET("/version", endpoint.Version())
	s.engine.GET("/metrics", endpoint.Metrics())
}

// Start binds the port and serves in the background. It returns once the
// listener is bound.
func (s *Server) Start(_ context.Context) error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", s.httpServer.Addr, err)
	}
	s.httpServer.Handler = h2c.NewHandler(s.handler, s.h2s)

	s.mu.Lock()
	s.listener = listener
	s.stop = make(chan struct{})
	stop := s.stop
	s.mu.Unlock()

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("server error", logger.Fields(logger.FieldError, err.Error()))
		}
	}()
	if s.limiter != nil {
		go s.sweep(stop)
	}

	s.log.Info("HTTP server started", logger.Fields("addr", listener.Addr().String()))
	return nil
}

func (s *Server) sweep(stop <-chan struct{}) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.limiter.Sweep()
		case <-stop:
			return
		}
	}
}

// Stop drains in-flight requests for up to ShutdownTimeout seconds.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	s.mu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownDuration())
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error("server shutdown error", logger.Fields(logger.FieldError, err.Error()))
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.log.Info("HTTP server stopped")
	return nil
}

// Addr returns the bound address once started, else the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}
