// Package scheduler runs crawl invocations on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/amishk599/jobdigest/internal/pipeline"
)

// Runner performs one crawl invocation.
type Runner interface {
	Run(ctx context.Context) (*pipeline.Report, error)
}

// Scheduler fires the runner on a cron spec. An invocation that is still
// running when the next tick arrives causes that tick to be skipped.
type Scheduler struct {
	cron   *cron.Cron
	spec   string
	runner Runner
	logger *slog.Logger
}

// Validate reports whether spec is a usable schedule, e.g. "@every 1h" or
// "0 7 * * *".
func Validate(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// New creates a Scheduler.
func New(spec string, runner Runner, logger *slog.Logger) *Scheduler {
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		spec:   spec,
		runner: runner,
		logger: logger,
	}
}

// Run registers the job, runs one invocation immediately and then follows
// the schedule until ctx is cancelled. It waits for an in-flight invocation
// before returning nil.
func (s *Scheduler) Run(ctx context.Context) error {
	id, err := s.cron.AddFunc(s.spec, func() { s.runOnce(ctx) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "schedule", s.spec)

	// The first run goes through the wrapped job so it shares the
	// skip-if-running guard with scheduled ticks.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.cron.Entry(id).WrappedJob.Run()
	}()

	<-ctx.Done()
	s.logger.Info("shutting down scheduler")
	<-s.cron.Stop().Done()
	wg.Wait()
	return nil
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	report, err := s.runner.Run(ctx)
	if errors.Is(err, pipeline.ErrBusy) {
		s.logger.Info("crawl already running, tick skipped")
		return
	}
	if err != nil {
		s.logger.Error("crawl failed", "error", err)
		return
	}
	if failed := report.FailedSources(); len(failed) > 0 {
		s.logger.Warn("crawl finished with failed sources", "failed", failed)
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
