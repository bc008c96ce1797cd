package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List configured sources",
	Long:  "Syncs the configured sources into the store and prints a table of every known source.",
	RunE:  runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
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

	sources, err := a.store.ListSources(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("%-4s %-25s %-11s %-40s %s\n", "ID", "Source", "Kind", "Target", "Status")
	fmt.Println(strings.Repeat("─", 92))

	enabled, disabled := 0, 0
	for _, s := range sources {
		status := "enabled"
		if !s.Enabled {
			status = "disabled"
			disabled++
		} else {
			enabled++
		}
		target := s.BoardToken
		if target == "" {
			target = s.ListingURL
		}
		fmt.Printf("%-4d %-25s %-11s %-40s %s\n", s.ID, s.Name, s.Kind, target, status)
	}

	fmt.Printf("\nTotal: %d sources (%d enabled, %d disabled)\n", len(sources), enabled, disabled)
	return nil
}
