package bootstrap

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kbukum/scribe/component"
	"github.com/kbukum/scribe/logger"
)

const defaultGracefulTimeout = 15 * time.Second

// App runs a service through a fixed lifecycle: configure, start components,
// start hooks, ready check, ready hooks, summary, wait, stop hooks, stop
// components.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.OnConfigure(func(ctx context.Context, a *bootstrap.App[*scribe.Config]) error {
//	    return a.RegisterComponent(srv)
//	})
//	err = app.Run(ctx)
type App[C Config] struct {
	Name       string
	Version    string
	Cfg        C
	Components *component.Registry
	Logger     *logger.Logger
	Summary    *Summary

	gracefulTimeout time.Duration
	onConfigure     []func(ctx context.Context, app *App[C]) error
	hooks           map[phase][]Hook
}

// Option customizes NewApp.
type Option func(*appOptions)

type appOptions struct {
	logger          *logger.Logger
	gracefulTimeout time.Duration
	summaryOut      io.Writer
}

// WithLogger skips logger initialization from config.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) { o.logger = l }
}

// WithGracefulTimeout bounds stop hooks plus component shutdown.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) { o.gracefulTimeout = d }
}

// WithSummaryOutput redirects the startup summary. io.Discard silences it,
// which the CLI does for one-shot runs.
func WithSummaryOutput(w io.Writer) Option {
	return func(o *appOptions) { o.summaryOut = w }
}

// NewApp applies defaults, validates cfg and initializes the global logger
// from its logging section.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	base := cfg.GetServiceConfig()

	o := appOptions{gracefulTimeout: defaultGracefulTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Init(base.Logging)
	}

	summary := NewSummary(base.Name, base.Version)
	if o.summaryOut != nil {
		summary.SetOutput(o.summaryOut)
	}
	return &App[C]{
		Name:            base.Name,
		Version:         base.Version,
		Cfg:             cfg,
		Components:      component.NewRegistry(),
		Logger:          o.logger,
		Summary:         summary,
		gracefulTimeout: o.gracefulTimeout,
		hooks:           map[phase][]Hook{},
	}, nil
}

func (a *App[C]) RegisterComponent(c component.Component) error {
	return a.Components.Register(c)
}

// OnConfigure callbacks run before components start. They build the service
// graph and register components.
func (a *App[C]) OnConfigure(fn func(ctx context.Context, app *App[C]) error) {
	a.onConfigure = append(a.onConfigure, fn)
}

// ReadyCheck fails when any component is not healthy.
func (a *App[C]) ReadyCheck(ctx context.Context) error {
	var b strings.Builder
	for _, h := range a.Components.HealthAll(ctx) {
		if h.Status == component.StatusHealthy {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%s", h.Name, h.Status)
		if h.Message != "" {
			fmt.Fprintf(&b, "(%s)", h.Message)
		}
	}
	if b.Len() > 0 {
		return fmt.Errorf("unhealthy components: %s", b.String())
	}
	return nil
}
