package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobdigest/internal/audit"
	"github.com/amishk599/jobdigest/internal/scoring"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Fetch once, print scored postings, exit",
	Long:  "One-shot check: fetches one enabled source per kind, filters and scores with the default rubric, prints accepted postings and exits. Nothing is written to the store and nothing is sent.",
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}

	logger.Info("check mode: nothing will be stored or sent")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := newRegistry(cfg, logger)
	f, window := buildFilter(cfg.Crawl)
	rubric := scoring.DefaultRubric()

	// Fetch only one source per kind.
	seen := make(map[string]bool)
	for _, sc := range cfg.Sources {
		if !sc.Enabled {
			continue
		}
		if seen[sc.Kind] {
			logger.Info("skipping (kind already tested)", "source", sc.Name, "kind", sc.Kind)
			continue
		}
		seen[sc.Kind] = true

		a, err := registry.Build(sc.Source())
		if err != nil {
			logger.Error("building adapter failed", "source", sc.Name, "error", err)
			continue
		}
		jobs, err := a.Fetch(ctx)
		if err != nil {
			logger.Error("fetch failed", "source", sc.Name, "error", err)
			continue
		}

		entries := audit.Evaluate(jobs, rubric, f, time.Now().UTC())
		passed, acceptedCount := 0, 0
		for _, e := range entries {
			if e.Passed {
				passed++
			}
			if e.Accepted() {
				acceptedCount++
				fmt.Printf("  [%5.1f] %s @ %s\n          %s\n", e.Score.Total, e.Job.Title, e.Job.Company, e.Job.CanonicalURL)
			}
		}
		logger.Info("source checked",
			"source", sc.Name,
			"kind", sc.Kind,
			"fetched", len(jobs),
			"passed_filter", passed,
			"filter", window,
			"accepted", acceptedCount,
		)
	}

	logger.Info("check complete")
	return nil
}
