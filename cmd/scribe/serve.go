package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/scribe/bootstrap"
	"github.com/kbukum/scribe/logger"
	"github.com/kbukum/scribe/scribe"
	"github.com/kbukum/scribe/server"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API until SIGINT or SIGTERM",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			overrides := map[string]any{}
			if cmd.Flags().Changed("port") {
				overrides["server.port"] = port
			}
			cfg, err := loadConfig(flags, overrides)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port, overrides server.port")
	return cmd
}

func runServe(ctx context.Context, cfg *scribe.Config) error {
	cfg.Server.ApplyDefaults()
	// Leave the server its full drain window before components stop.
	grace := cfg.Server.ShutdownDuration() + 5*time.Second
	app, err := bootstrap.NewApp(cfg, bootstrap.WithGracefulTimeout(grace))
	if err != nil {
		return err
	}

	app.OnConfigure(func(_ context.Context, a *bootstrap.App[*scribe.Config]) error {
		rt, err := buildRuntime(a.Cfg, a.Logger)
		if err != nil {
			return err
		}
		if err := rt.register(a); err != nil {
			return err
		}

		srv := server.New(a.Cfg.Server, a.Logger)
		srv.ApplyMiddleware()
		srv.RegisterDefaultEndpoints(a.Name, a.Components.HealthAll, rt.info)
		scribe.NewHandler(rt.service, rt.events).WithHistory(rt.history).Register(srv.GinEngine())
		if err := a.RegisterComponent(server.NewComponent(srv)); err != nil {
			return err
		}
		a.OnReady(func(context.Context) error {
			a.Logger.Info("accepting uploads", logger.Fields(
				"addr", srv.Addr(),
				"providers", rt.providers.Names(),
				"default_provider", a.Cfg.Transcription.DefaultProvider,
			))
			return nil
		})

		if a.Cfg.Inbox.Enabled {
			inbox := scribe.NewInbox(a.Cfg.Inbox, rt.service, rt.events, a.Logger)
			if err := a.RegisterComponent(inbox); err != nil {
				return err
			}
		}

		a.OnStop(func(context.Context) error {
			rt.close()
			return nil
		})
		return nil
	})
	return app.Run(ctx)
}
