package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sragwatch/internal/config"
	"sragwatch/internal/format"
	"sragwatch/internal/store"
)

var statusFlags struct {
	limit    int
	runID    string
	markdown bool
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent runs, or the stage detail of one run",
	RunE:  runStatus,
}

func init() {
	f := statusCmd.Flags()
	f.IntVar(&statusFlags.limit, "limit", 10, "Max runs to list")
	f.StringVar(&statusFlags.runID, "run", "", "Show stage detail for this run")
	f.BoolVar(&statusFlags.markdown, "markdown", false, "Render tables as Markdown")
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadOrDefault(rootFlags.configPath)
	if err != nil {
		return err
	}
	db, err := store.Open(cfg.StorePath())
	if err != nil {
		return err
	}
	defer db.Close()

	mode := format.ASCII
	if statusFlags.markdown {
		mode = format.Markdown
	}
	out := cmd.OutOrStdout()

	if statusFlags.runID != "" {
		rows, err := db.ListStages(statusFlags.runID)
		if err != nil {
			return fmt.Errorf("list stages: %w", err)
		}
		if len(rows) == 0 {
			fmt.Fprintf(out, "No stages recorded for run %s\n", statusFlags.runID)
			return nil
		}
		tb := format.NewTable(mode)
		tb.Header("STAGE", "STATUS", "DURATION", "ERROR")
		tb.Columns(format.ColumnConfig{Number: 4, MaxWidth: 60})
		for _, r := range rows {
			tb.Row(r.Stage, r.Status, format.FmtDuration(time.Duration(r.DurationMS)*time.Millisecond),
				format.Truncate(r.Error, 60))
		}
		fmt.Fprintln(out, tb.String())
		return nil
	}

	runs, err := db.ListRuns(statusFlags.limit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded. Run 'sragwatch run' to start one.")
		return nil
	}
	tb := format.NewTable(mode)
	tb.Header("RUN", "STATUS", "ANCHOR", "STARTED", "DURATION", "FAILED AT")
	for _, r := range runs {
		duration := ""
		if !r.FinishedAt.IsZero() {
			duration = format.FmtDuration(r.FinishedAt.Sub(r.StartedAt))
		}
		tb.Row(r.ID, r.Status, r.Anchor, r.StartedAt.Format("2006-01-02 15:04"), duration, r.FailedStage)
	}
	fmt.Fprintln(out, tb.String())
	return nil
}
