package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/kbukum/scribe/bootstrap"
	"github.com/kbukum/scribe/history"
	"github.com/kbukum/scribe/scribe"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

func newHistoryCmd(flags *rootFlags) *cobra.Command {
	var (
		f      history.Filter
		format string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent transcription attempts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != formatTable && format != formatJSON {
				return fmt.Errorf("--format must be %s or %s", formatTable, formatJSON)
			}
			cfg, err := loadConfig(flags, map[string]any{"logging.output": "stderr"})
			if err != nil {
				return err
			}
			return runHistory(cmd.Context(), cfg, f, format, cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVarP(&f.Limit, "limit", "n", history.DefaultLimit, "maximum records to print")
	cmd.Flags().StringVar(&f.Provider, "provider", "", "only records from this provider")
	cmd.Flags().StringVar(&f.Status, "status", "", "only records with this status: success, error or failed")
	cmd.Flags().StringVarP(&format, "format", "o", formatTable, "output format: table or json (one record per line)")
	return cmd
}

func runHistory(ctx context.Context, cfg *scribe.Config, f history.Filter, format string, out io.Writer) error {
	if !cfg.History.Enabled {
		return errors.New("history is disabled, set history.enabled in config.yml")
	}
	app, err := bootstrap.NewApp(cfg, bootstrap.WithSummaryOutput(io.Discard))
	if err != nil {
		return err
	}
	hist := history.NewComponent(cfg.History, app.Logger)
	app.OnConfigure(func(_ context.Context, a *bootstrap.App[*scribe.Config]) error {
		return a.RegisterComponent(hist)
	})

	return app.RunTask(ctx, func(ctx context.Context) error {
		records, err := hist.Store().List(ctx, f)
		if err != nil {
			return err
		}
		if format == formatJSON {
			return writeJSONLines(out, records)
		}
		writeTable(out, records)
		return nil
	})
}

func writeJSONLines(out io.Writer, records []history.Record) error {
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	return nil
}

func writeTable(out io.Writer, records []history.Record) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Created", "File", "Provider", "Source", "Status", "Segments", "Exec", "ID"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	for _, r := range records {
		status := r.Status
		if r.Error != "" {
			status += " (" + r.Error + ")"
		}
		table.Append([]string{
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			r.FileName,
			r.Provider,
			r.Source,
			status,
			strconv.Itoa(r.Segments),
			fmt.Sprintf("%.2fs", r.ExecTime),
			r.ID,
		})
	}
	table.Render()
}
