package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kbukum/scribe/bootstrap"
	"github.com/kbukum/scribe/logger"
	"github.com/kbukum/scribe/scribe"
)

func newTranscribeCmd(flags *rootFlags) *cobra.Command {
	var modelID, provider string
	cmd := &cobra.Command{
		Use:   "transcribe FILE",
		Short: "Transcribe one audio file and print the response JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// stdout carries the JSON response only.
			cfg, err := loadConfig(flags, map[string]any{"logging.output": "stderr"})
			if err != nil {
				return err
			}
			return runTranscribe(cmd.Context(), cfg, args[0], modelID, provider, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&modelID, "model", scribe.DefaultModelID, "provider model id")
	cmd.Flags().StringVar(&provider, "provider", "", "transcription provider, defaults to transcription.default_provider")
	return cmd
}

func runTranscribe(ctx context.Context, cfg *scribe.Config, path, modelID, provider string, out io.Writer) error {
	app, err := bootstrap.NewApp(cfg, bootstrap.WithSummaryOutput(io.Discard))
	if err != nil {
		return err
	}

	var rt *runtime
	app.OnConfigure(func(_ context.Context, a *bootstrap.App[*scribe.Config]) error {
		rt, err = buildRuntime(a.Cfg, a.Logger)
		if err != nil {
			return err
		}
		a.OnStop(func(context.Context) error {
			rt.close()
			return nil
		})
		return rt.register(a)
	})

	return app.RunTask(ctx, func(ctx context.Context) error {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()

		requestID := uuid.NewString()
		resp, err := rt.service.Transcribe(logger.ContextWithRequestID(ctx, requestID), scribe.Upload{
			FileName:  filepath.Base(path),
			Body:      f,
			ModelID:   modelID,
			Provider:  provider,
			RequestID: requestID,
			Source:    scribe.SourceCLI,
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(out)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
		return nil
	})
}
