// Package pipeline drives one crawl invocation: every enabled source is
// fetched, deduplicated, scored and aggregated in turn, then the digest is
// selected, chunked and delivered.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/amishk599/jobdigest/internal/company"
	"github.com/amishk599/jobdigest/internal/dedup"
	"github.com/amishk599/jobdigest/internal/digest"
	"github.com/amishk599/jobdigest/internal/model"
	"github.com/amishk599/jobdigest/internal/scoring"
	"github.com/amishk599/jobdigest/internal/settings"
)

// maxErrorSummary bounds error text stored on runs and notifications.
const maxErrorSummary = 2000

// AdapterFactory builds the adapter for a source record.
type AdapterFactory interface {
	Build(src model.Source) (model.SourceAdapter, error)
}

// SinkFactory builds the outbound sink for a webhook address.
type SinkFactory interface {
	Sink(webhookURL string) model.Sink
	Channel() string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithFilter installs a pre-dedup filter. window describes it in the digest
// overview, e.g. "posted within 24h".
func WithFilter(f model.JobFilter, window string) Option {
	return func(o *Orchestrator) {
		o.filter = f
		o.window = window
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// Orchestrator runs crawl invocations. It is not safe for concurrent Run
// calls; callers serialise them.
type Orchestrator struct {
	repo     model.Repository
	adapters AdapterFactory
	sinks    SinkFactory
	settings *settings.Loader
	dedup    *dedup.Deduplicator
	filter   model.JobFilter
	window   string
	now      func() time.Time
	logger   *slog.Logger
}

// New creates an Orchestrator.
func New(repo model.Repository, adapters AdapterFactory, sinks SinkFactory, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		repo:     repo,
		adapters: adapters,
		sinks:    sinks,
		settings: settings.NewLoader(repo, logger),
		dedup:    dedup.New(repo, logger),
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// invocation is the state owned by one Run.
type invocation struct {
	id            string
	rubric        scoring.Rubric
	notifications settings.Notifications
	quiet         bool
	sink          model.Sink
	stats         company.Stats
	candidates    []digest.Candidate
	report        *Report
}

// Run processes every enabled source sequentially and delivers the digest.
// Source failures are recorded and never abort the run; only failing to
// list sources or to finalise a CrawlRun returns an error.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	started := o.now()
	inv := &invocation{
		id:            uuid.NewString(),
		rubric:        o.settings.Rubric(ctx),
		notifications: o.settings.Notifications(ctx),
		stats:         company.Stats{},
		report:        &Report{StartedAt: started},
	}
	inv.report.InvocationID = inv.id
	inv.quiet = inv.notifications.InQuietHours(started)
	inv.report.QuietHours = inv.quiet
	inv.sink = o.sinks.Sink(inv.notifications.WebhookURL)

	logger := o.logger.With("invocation", inv.id)
	logger.Info("crawl started", "quiet_hours", inv.quiet)

	sources, err := o.repo.ListEnabledSources(ctx)
	if err != nil {
		return inv.report, fmt.Errorf("listing enabled sources: %w", err)
	}

	for _, src := range sources {
		res, err := o.runSource(ctx, inv, src)
		inv.report.Sources = append(inv.report.Sources, res)
		inv.report.NewJobs += res.New
		inv.report.AcceptedJobs += res.Accepted
		if err != nil {
			return inv.report, err
		}
	}

	o.deliverDigest(ctx, inv)

	inv.report.FinishedAt = o.now()
	logger.Info("crawl finished",
		"sources", len(sources),
		"failed", len(inv.report.FailedSources()),
		"new", inv.report.NewJobs,
		"accepted", inv.report.AcceptedJobs,
		"duration", inv.report.FinishedAt.Sub(started),
	)
	return inv.report, nil
}

// runSource moves one source through running → success | failed. The
// returned error is set only when the CrawlRun cannot be finalised.
func (o *Orchestrator) runSource(ctx context.Context, inv *invocation, src model.Source) (SourceResult, error) {
	res := SourceResult{Source: src, Status: model.RunRunning}
	logger := o.logger.With("invocation", inv.id, "source", src.Name)

	run := &model.CrawlRun{
		InvocationID: inv.id,
		SourceID:     src.ID,
		StartedAt:    o.now(),
		Status:       model.RunRunning,
	}
	if err := o.repo.CreateRun(ctx, run); err != nil {
		res.Status = model.RunFailed
		res.Err = fmt.Errorf("creating crawl run: %w", err)
		logger.Error("source skipped", "error", res.Err)
		return res, nil
	}
	res.RunID = run.ID

	procErr := o.processSource(ctx, inv, src, &res)

	finished := o.now()
	run.FinishedAt = &finished
	run.FetchedCount = res.Fetched
	run.NewCount = res.New
	run.HighPriorityCount = res.Accepted
	run.FilteredCount = res.Filtered
	if procErr != nil {
		res.Status = model.RunFailed
		res.Err = procErr
		run.Status = model.RunFailed
		run.ErrorSummary = truncate(procErr.Error(), maxErrorSummary)
		logger.Error("source failed", "error", procErr, "fetched", res.Fetched, "new", res.New)
	} else {
		res.Status = model.RunSuccess
		run.Status = model.RunSuccess
		logger.Info("source processed",
			"fetched", res.Fetched,
			"filtered", res.Filtered,
			"new", res.New,
			"accepted", res.Accepted,
		)
	}

	if err := o.repo.FinishRun(ctx, run); err != nil {
		return res, fmt.Errorf("finishing crawl run for %s: %w", src.Name, err)
	}
	return res, nil
}

// processSource fetches and ingests one source. Adapter panics come back
// as errors.
func (o *Orchestrator) processSource(ctx context.Context, inv *invocation, src model.Source, res *SourceResult) (err error) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Debug("recovered panic", "source", src.Name, "stack", string(debug.Stack()))
			err = fmt.Errorf("panic while processing %s: %v", src.Name, r)
		}
	}()

	adapter, err := o.adapters.Build(src)
	if err != nil {
		return fmt.Errorf("building adapter: %w", err)
	}

	jobs, err := adapter.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetching: %w", err)
	}
	res.Fetched = len(jobs)

	for _, n := range jobs {
		if err := o.ingest(ctx, inv, src, n, res); err != nil {
			return err
		}
	}
	return nil
}

// ingest runs one posting through filter, dedup, scoring and persistence.
func (o *Orchestrator) ingest(ctx context.Context, inv *invocation, src model.Source, n model.NormalizedJob, res *SourceResult) error {
	now := o.now()
	if o.filter != nil && !o.filter.Match(n, now) {
		res.Filtered++
		return nil
	}

	check, err := o.dedup.Check(ctx, src.ID, n)
	if err != nil {
		return err
	}
	if check.Known {
		return nil
	}

	result := scoring.Score(inv.rubric, scoring.TextOf(n))
	job := dedup.NewJob(src.ID, n, check)
	job.CollectedAt = now
	score := model.JobScore{
		Total:           result.Total,
		KeywordScore:    result.KeywordScore,
		SeniorityScore:  result.SeniorityScore,
		RemoteBonus:     result.RemoteBonus,
		RegionBonus:     result.RegionBonus,
		Decision:        result.Decision,
		MatchedKeywords: result.MatchedKeywords,
		ScoredAt:        now,
	}

	inserted, err := o.dedup.Persist(ctx, job, &score)
	if err != nil {
		return fmt.Errorf("persisting %q: %w", job.Title, err)
	}
	if !inserted {
		return nil
	}
	res.New++

	inv.stats.Observe(company.Entry{Job: *job, Score: score, Source: src})
	inv.candidates = append(inv.candidates, digest.NewCandidate(digest.Candidate{
		JobID:      job.ID,
		Title:      job.Title,
		Company:    job.Company,
		URL:        job.CanonicalURL,
		SourceName: src.Name,
		Score:      score.Total,
		Seniority:  score.SeniorityScore,
		PostedAt:   job.PostedAt,
	}))

	if score.Decision == model.DecisionAccept {
		res.Accepted++
		o.alert(ctx, inv, src, job, score)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
