package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobdigest/internal/audit"
	"github.com/amishk599/jobdigest/internal/settings"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit the scoring rubric interactively (TUI)",
	Long:  "Shows the source picker, fetches the chosen source live and launches the split-pane view of how each posting is filtered and scored. Nothing is stored or sent.",
	RunE:  runAuditCmd,
}

func init() {
	rootCmd.AddCommand(auditCmd)
}

func runAuditCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Any log output before the alt-screen starts corrupts the display.
	logger := discardLogger()
	ctx := context.Background()
	a, err := openApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	sources, err := a.store.ListSources(ctx)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		fmt.Println("No sources configured.")
		return nil
	}
	loader := settings.NewLoader(a.store, logger)

	for {
		choice, err := audit.RunSourcePicker(sources)
		if err != nil {
			return fmt.Errorf("picker: %w", err)
		}
		if choice < 0 {
			return nil
		}
		src := sources[choice]

		adapter, err := a.registry.Build(src)
		if err != nil {
			fmt.Printf("Cannot audit %s: %v\n", src.Name, err)
			continue
		}

		jobs, err := audit.RunLoader(src.Name, adapter.Fetch)
		if errors.Is(err, audit.ErrCancelled) {
			continue
		}
		if err != nil {
			fmt.Printf("Error fetching postings: %v\n", err)
			continue
		}

		entries := audit.Evaluate(jobs, loader.Rubric(ctx), a.filter, time.Now().UTC())
		wantQuit, err := audit.RunAuditTUI(src.Name, entries)
		if err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
		if wantQuit {
			return nil
		}
		// else: loop → back to picker
	}
}
