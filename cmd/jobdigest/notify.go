package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobdigest/internal/notifier"
	"github.com/amishk599/jobdigest/internal/settings"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Notification subcommands",
}

var notifyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test notification",
	Long:  "Sends a test alert to the webhook from the stored notification settings, falling back to the configured one.",
	RunE:  runNotifyTest,
}

func init() {
	rootCmd.AddCommand(notifyCmd)
	notifyCmd.AddCommand(notifyTestCmd)
}

func runNotifyTest(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}

	ctx := context.Background()
	a, err := openApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return err
	}
	defer a.Close()

	n := settings.NewLoader(a.store, logger).Notifications(ctx)
	if err := notifier.SendTestMessage(ctx, a.sinks.Sink(n.WebhookURL)); err != nil {
		logger.Error("test notification failed", "error", err)
		return err
	}
	logger.Info("test notification sent successfully", "channel", a.sinks.Channel())
	return nil
}
