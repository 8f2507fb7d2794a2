package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"sragwatch/internal/config"
	"sragwatch/internal/logging"
)

var scheduleFlags struct {
	spec string
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline on a cron schedule until interrupted",
	RunE:  runSchedule,
}

func init() {
	scheduleCmd.Flags().StringVar(&scheduleFlags.spec, "cron", "0 8 * * *", "Cron expression (standard 5-field)")
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadOrDefault(rootFlags.configPath)
	if err != nil {
		return err
	}
	logFile, err := logging.InitWithFile(parseLevel(cfg.LogLevel), cfg.LogFormat, cfg.LogsDir())
	if err != nil {
		return err
	}
	defer logFile.Close()
	log := logging.New("schedule")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Overlapping triggers skip instead of queueing: one run at a time.
	var running sync.Mutex
	c := cron.New()
	_, err = c.AddFunc(scheduleFlags.spec, func() {
		if !running.TryLock() {
			log.Warn("previous run still in progress, skipping trigger")
			return
		}
		defer running.Unlock()

		state, _, err := executeRun(ctx, cfg)
		if err != nil {
			log.Error("scheduled run failed", "error", err)
			return
		}
		log.Info("scheduled run completed", "run_id", state.RunID, "anchor", state.Anchor)
	})
	if err != nil {
		return fmt.Errorf("parse cron expression %q: %w", scheduleFlags.spec, err)
	}

	log.Info("scheduler started", "cron", scheduleFlags.spec)
	fmt.Fprintf(cmd.OutOrStdout(), "Scheduling runs at %q. Ctrl-C to stop.\n", scheduleFlags.spec)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
