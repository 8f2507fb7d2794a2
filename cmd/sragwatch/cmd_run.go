package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"sragwatch/internal/config"
	"sragwatch/internal/logging"
	"sragwatch/internal/pipeline"
	"sragwatch/internal/stages"
	"sragwatch/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one full pipeline run",
	RunE:  runRun,
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadOrDefault(rootFlags.configPath)
	if err != nil {
		return err
	}

	logFile, err := logging.InitWithFile(parseLevel(cfg.LogLevel), cfg.LogFormat, cfg.LogsDir())
	if err != nil {
		return err
	}
	defer logFile.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	state, rc, err := executeRun(ctx, cfg)
	if rc != nil && state != nil {
		printRunSummary(cmd, state, rc)
	}
	return err
}

// executeRun wires the store, stages, and runner, and drives one run. The
// scheduler reuses it.
func executeRun(ctx context.Context, cfg *config.Config) (*pipeline.RunState, *pipeline.RunContext, error) {
	creds := config.LoadCredentials()

	db, err := store.Open(cfg.StorePath())
	if err != nil {
		return nil, nil, err
	}
	defer db.Close()

	runner := pipeline.NewRunner(stages.All(cfg, creds),
		pipeline.WithTimeouts(stages.Timeouts(cfg)),
		pipeline.WithRecorder(store.Recorder{S: db}),
	)
	rc := pipeline.NewRunContext(cfg.RunsDir())
	if err := os.MkdirAll(rc.Dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create run dir: %w", err)
	}

	state, err := runner.Run(ctx, rc)
	return state, rc, err
}

func printRunSummary(cmd *cobra.Command, state *pipeline.RunState, rc *pipeline.RunContext) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run:    %s\n", state.RunID)
	fmt.Fprintf(out, "Status: %s\n", state.Status)
	if state.Anchor != "" {
		fmt.Fprintf(out, "Anchor: %s\n", state.Anchor)
	}
	if state.Status == pipeline.StatusFailed {
		fmt.Fprintf(out, "Failed: %s (%s)\n", state.FailedStage, state.Reason)
		return
	}
	if html, err := rc.Path(stages.KeyReportHTML); err == nil {
		fmt.Fprintf(out, "Report: %s\n", html)
	}
	if pdf, err := rc.Path(stages.KeyReportPDF); err == nil {
		fmt.Fprintf(out, "PDF:    %s\n", pdf)
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
