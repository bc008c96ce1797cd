package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobdigest/internal/pipeline"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Run one crawl and deliver the digest",
	Long:  "Runs a single crawl invocation over every enabled source, delivers the digest, prints a summary and exits.",
	RunE:  runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cmd *cobra.Command, args []string) error {
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

	report, err := a.crawler.Run(ctx)
	if err != nil {
		logger.Error("crawl failed", "error", err)
		return err
	}
	printReport(report)
	return nil
}

func printReport(r *pipeline.Report) {
	fmt.Printf("\nInvocation %s (%s)\n\n", r.InvocationID, r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	fmt.Printf("%-25s %-8s %8s %8s %5s %8s\n", "Source", "Status", "Fetched", "Filtered", "New", "Accepted")
	for _, s := range r.Sources {
		fmt.Printf("%-25s %-8s %8d %8d %5d %8d\n", s.Source.Name, s.Status, s.Fetched, s.Filtered, s.New, s.Accepted)
		if s.Err != nil {
			fmt.Printf("  └ %v\n", s.Err)
		}
	}
	fmt.Printf("\nNew: %d  Accepted: %d  Pushed: %d", r.NewJobs, r.AcceptedJobs, len(r.Selection.Selected))
	if r.Selection.QuotaExhausted {
		fmt.Print("  (daily quota exhausted)")
	}
	if r.QuietHours {
		fmt.Print("  (quiet hours: delivery suppressed)")
	}
	fmt.Printf("\nAlerts: %d sent, %d failed  Digest payloads: %d sent, %d failed\n",
		r.AlertsSent, r.AlertsFailed, r.PayloadsSent, r.PayloadsFailed)
}
