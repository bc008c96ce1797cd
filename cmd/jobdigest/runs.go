package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recent crawl runs",
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "number of runs to show")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx := context.Background()
	a, err := openApp(ctx, cfg, discardLogger())
	if err != nil {
		return err
	}
	defer a.Close()

	runs, err := a.store.ListRuns(ctx, runsLimit)
	if err != nil {
		return err
	}

	fmt.Printf("%-20s %-20s %-8s %7s %8s %5s %8s\n", "Started (UTC)", "Source", "Status", "Fetched", "Filtered", "New", "Accepted")
	fmt.Println(strings.Repeat("─", 84))
	for _, r := range runs {
		fmt.Printf("%-20s %-20s %-8s %7d %8d %5d %8d\n",
			r.StartedAt.UTC().Format("2006-01-02 15:04:05"), r.SourceName, r.Status,
			r.FetchedCount, r.FilteredCount, r.NewCount, r.HighPriorityCount)
		if r.ErrorSummary != "" {
			fmt.Printf("  └ %s\n", firstLine(r.ErrorSummary))
		}
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
