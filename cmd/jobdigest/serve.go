package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/amishk599/jobdigest/internal/api"
	"github.com/amishk599/jobdigest/internal/scheduler"
)

var noSchedule bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API alongside the crawl daemon",
	Long:  "Serves the read/admin API and, unless --no-schedule is set, runs the cron-driven crawl daemon in the same process.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&noSchedule, "no-schedule", false, "serve the API only; crawls run on manual trigger")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

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

	srv := &http.Server{
		Addr:              cfg.API.Addr,
		Handler:           api.NewServer(a.store, a.crawler, cfg.API.CORSOrigins, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("api listening", "addr", cfg.API.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if !noSchedule {
		g.Go(func() error {
			return scheduler.New(cfg.Schedule, a.crawler, logger).Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("serve failed", "error", err)
		return err
	}
	logger.Info("goodbye")
	return nil
}
