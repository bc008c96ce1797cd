// Package api serves the read/admin HTTP API: sources, runs, jobs, runtime
// settings and manual crawl triggers.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"github.com/amishk599/jobdigest/internal/model"
	"github.com/amishk599/jobdigest/internal/pipeline"
	"github.com/amishk599/jobdigest/internal/settings"
)

// Crawler runs one crawl invocation. It returns pipeline.ErrBusy when one is
// already in flight.
type Crawler interface {
	Run(ctx context.Context) (*pipeline.Report, error)
}

// Server holds the API dependencies.
type Server struct {
	repo        model.Repository
	settings    *settings.Loader
	crawler     Crawler
	corsOrigins []string
	logger      *slog.Logger
}

// NewServer creates a Server. corsOrigins may be empty, in which case no
// CORS headers are added.
func NewServer(repo model.Repository, crawler Crawler, corsOrigins []string, logger *slog.Logger) *Server {
	return &Server{
		repo:        repo,
		settings:    settings.NewLoader(repo, logger),
		crawler:     crawler,
		corsOrigins: corsOrigins,
		logger:      logger,
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", s.health)

	v1 := r.Group("/api/v1")
	v1.GET("/sources", s.listSources)
	v1.PATCH("/sources/:id", s.patchSource)
	v1.GET("/runs", s.listRuns)
	v1.GET("/jobs", s.listJobs)
	v1.GET("/jobs/:id", s.getJob)
	v1.GET("/settings/scoring", s.getScoring)
	v1.PUT("/settings/scoring", s.putScoring)
	v1.GET("/settings/notifications", s.getNotifications)
	v1.PUT("/settings/notifications", s.putNotifications)
	v1.POST("/crawl/trigger", s.triggerCrawl)
	return r
}

// Handler returns the router wrapped with CORS handling.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.Router())
	if len(s.corsOrigins) == 0 {
		return h
	}
	c := cors.New(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(h)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("api request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) triggerCrawl(c *gin.Context) {
	// The crawl outlives a disconnected client.
	ctx := context.WithoutCancel(c.Request.Context())
	report, err := s.crawler.Run(ctx)
	if errors.Is(err, pipeline.ErrBusy) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		s.fail(c, "crawl", err)
		return
	}
	c.JSON(http.StatusOK, triggerResponse{
		Success:          true,
		Message:          "crawl completed",
		InvocationID:     report.InvocationID,
		NewJobs:          report.NewJobs,
		AcceptedJobs:     report.AcceptedJobs,
		FailedSources:    nonNil(report.FailedSources()),
		DigestSuppressed: report.QuietHours,
	})
}

// fail logs err and answers 500 without leaking internals.
func (s *Server) fail(c *gin.Context, op string, err error) {
	s.logger.Error("api request failed", "op", op, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": op + " failed"})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func notFound(c *gin.Context, what string) {
	c.JSON(http.StatusNotFound, gin.H{"error": what + " not found"})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
