package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobdigest/internal/scheduler"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the crawl daemon",
	Long:  "Start the cron-driven crawl daemon; runs one crawl immediately and blocks until SIGINT/SIGTERM.",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return err
	}
	defer a.Close()

	logger.Info("config loaded",
		"schedule", cfg.Schedule,
		"sources", len(cfg.Sources),
		"filter", a.window,
		"notification", a.sinks.Channel(),
	)

	sched := scheduler.New(cfg.Schedule, a.crawler, logger)
	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		return err
	}

	logger.Info("goodbye")
	return nil
}
