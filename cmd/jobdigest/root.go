package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobdigest/internal/adapter"
	"github.com/amishk599/jobdigest/internal/config"
	"github.com/amishk599/jobdigest/internal/filter"
	"github.com/amishk599/jobdigest/internal/model"
	"github.com/amishk599/jobdigest/internal/notifier"
	"github.com/amishk599/jobdigest/internal/pipeline"
	"github.com/amishk599/jobdigest/internal/ratelimit"
	"github.com/amishk599/jobdigest/internal/retry"
	"github.com/amishk599/jobdigest/internal/settings"
	"github.com/amishk599/jobdigest/internal/store"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobdigest",
	Short: "Job source crawler with scored digests",
	Long:  "jobdigest crawls job boards, scores new postings against a rubric and pushes a daily-limited digest to Discord or Slack.",
	// Default to `start` so that `jobdigest` with no args runs the daemon.
	RunE:         runStart,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBDIGEST_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > JOBDIGEST_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("JOBDIGEST_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

// discardLogger is used by TUI commands; log output would corrupt the screen.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// app is the wired process: store, adapters, sinks and the orchestrator.
type app struct {
	cfg      *config.Config
	store    *store.SQLStore
	registry *adapter.Registry
	sinks    notifier.Factory
	filter   model.JobFilter
	window   string
	crawler  *pipeline.Exclusive
	logger   *slog.Logger
}

// openApp opens the store, seeds runtime settings, syncs configured sources
// and builds the orchestrator.
func openApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	st, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	loader := settings.NewLoader(st, logger)
	if err := loader.Seed(ctx, seedNotifications(cfg)); err != nil {
		st.Close()
		return nil, fmt.Errorf("seeding settings: %w", err)
	}
	if err := syncSources(ctx, st, cfg.Sources, logger); err != nil {
		st.Close()
		return nil, err
	}

	registry := newRegistry(cfg, logger)

	sinks := notifier.Factory{
		Kind:       cfg.Notification.Type,
		DefaultURL: cfg.Notification.WebhookURL,
		HTTPClient: &http.Client{Timeout: cfg.Notification.Timeout},
		Logger:     logger,
	}

	f, window := buildFilter(cfg.Crawl)
	orch := pipeline.New(st, registry, sinks, logger, pipeline.WithFilter(f, window))

	return &app{
		cfg:      cfg,
		store:    st,
		registry: registry,
		sinks:    sinks,
		filter:   f,
		window:   window,
		crawler:  pipeline.NewExclusive(orch),
		logger:   logger,
	}, nil
}

// newRegistry builds the adapter registry. Rate limiting sits inside retry
// so every attempt waits its turn.
func newRegistry(cfg *config.Config, logger *slog.Logger) *adapter.Registry {
	httpClient := &http.Client{Timeout: cfg.Crawl.HTTPTimeout}
	limiter := ratelimit.NewHostRateLimiter(cfg.RateLimit.MinDelay, cfg.RateLimit.HostOverrides)
	return adapter.NewRegistry(httpClient,
		func(src model.Source, a model.SourceAdapter) model.SourceAdapter {
			return ratelimit.NewRateLimitedAdapter(a, limiter, adapter.Host(src))
		},
		func(_ model.Source, a model.SourceAdapter) model.SourceAdapter {
			return retry.NewRetryAdapter(a, cfg.Retry.MaxRetries, cfg.Retry.BaseDelay, logger)
		},
	)
}

func (a *app) Close() error {
	return a.store.Close()
}

func seedNotifications(cfg *config.Config) settings.Notifications {
	n := cfg.Notification
	return settings.Notifications{
		WebhookURL:    n.WebhookURL,
		QuietStart:    n.QuietStartUTC,
		QuietEnd:      n.QuietEndUTC,
		DailyLimit:    n.DailyLimit,
		InstantAlerts: n.InstantAlerts,
		Sentinel:      n.Sentinel,
	}
}

// syncSources upserts every configured source by name. Sources only present
// in the store are left alone.
func syncSources(ctx context.Context, repo model.Repository, sources []config.SourceConfig, logger *slog.Logger) error {
	for _, sc := range sources {
		src := sc.Source()
		if err := repo.UpsertSource(ctx, &src); err != nil {
			return fmt.Errorf("syncing source %q: %w", sc.Name, err)
		}
		logger.Debug("source synced", "name", src.Name, "kind", src.Kind, "enabled", src.Enabled)
	}
	return nil
}

// buildFilter assembles the pre-dedup filter chain and its digest
// description. It returns nil when nothing is configured.
func buildFilter(c config.CrawlConfig) (model.JobFilter, string) {
	var chain filter.Chain
	var parts []string
	if c.RecentOnly {
		chain = append(chain, filter.NewRecencyFilter(c.RecentWindow, c.ClockSkew))
		parts = append(parts, "posted within "+c.RecentWindow.String())
	}
	if len(c.ExcludeKeywords) > 0 {
		chain = append(chain, filter.NewExcludeKeywordFilter(c.ExcludeKeywords))
		parts = append(parts, fmt.Sprintf("%d excluded keywords", len(c.ExcludeKeywords)))
	}
	if len(c.TitleKeywords) > 0 || len(c.Locations) > 0 {
		chain = append(chain, filter.NewTitleAndLocationFilter(c.TitleKeywords, c.Locations))
		parts = append(parts, "title/location match")
	}
	if len(chain) == 0 {
		return nil, "all postings"
	}
	return chain, strings.Join(parts, ", ")
}
