package pipeline

import (
	"context"
	"time"

	"github.com/amishk599/jobdigest/internal/company"
	"github.com/amishk599/jobdigest/internal/digest"
	"github.com/amishk599/jobdigest/internal/model"
)

// quotaWindow is the rolling window of the daily push limit.
const quotaWindow = 24 * time.Hour

// alert sends the instant single-job message for an accepted job unless
// alerts are disabled or the run is in quiet hours.
func (o *Orchestrator) alert(ctx context.Context, inv *invocation, src model.Source, job *model.Job, score model.JobScore) {
	if inv.quiet || !inv.notifications.InstantAlerts {
		return
	}

	var companyURL string
	if st, ok := inv.stats[company.Key(job.Company)]; ok {
		companyURL = st.CompanyURL
	}
	msg := digest.BuildAlert(digest.AlertInput{
		Job:          *job,
		Score:        score,
		Source:       src,
		CompanyURL:   companyURL,
		InvocationID: inv.id,
	})

	err := inv.sink.Send(ctx, msg)
	if err != nil {
		inv.report.AlertsFailed++
		o.logger.Warn("job alert failed", "source", src.Name, "job_id", job.ID, "error", err)
	} else {
		inv.report.AlertsSent++
	}
	id := job.ID
	o.record(ctx, model.ModeSingle, &id, err)
}

// deliverDigest selects, builds and sends the digest. Every payload is
// attempted even when earlier ones fail.
func (o *Orchestrator) deliverDigest(ctx context.Context, inv *invocation) {
	now := o.now()
	inv.report.Companies = company.Summarize(ctx, inv.stats, o.repo, now, o.logger)

	limit := inv.notifications.DailyLimit
	sent, err := o.repo.CountNotificationsSince(ctx, now.Add(-quotaWindow), model.ModeDigestItem, model.StatusSent)
	if err != nil {
		// Without a count the quota cannot be honoured, so push nothing.
		o.logger.Warn("counting pushed jobs failed, treating quota as used", "error", err)
		sent = limit
	}
	inv.report.Selection = digest.Select(inv.candidates, limit, sent)

	stats := make([]digest.SourceStat, 0, len(inv.report.Sources))
	for _, r := range inv.report.Sources {
		stats = append(stats, r.stat())
	}
	payloads := digest.Build(digest.Input{
		Window:       o.window,
		NewJobs:      inv.report.NewJobs,
		AcceptedJobs: inv.report.AcceptedJobs,
		Sources:      stats,
		Selection:    inv.report.Selection,
		Companies:    inv.report.Companies,
	})

	if inv.quiet {
		o.logger.Info("quiet hours, digest suppressed", "payloads", len(payloads))
		return
	}

	for i, p := range payloads {
		err := inv.sink.Send(ctx, model.Message{Content: p.Content})
		if err != nil {
			inv.report.PayloadsFailed++
			o.logger.Warn("digest payload failed", "index", i, "error", err)
		} else {
			inv.report.PayloadsSent++
		}
		o.record(ctx, model.ModeDigest, nil, err)
		for _, id := range p.JobIDs {
			o.record(ctx, model.ModeDigestItem, &id, err)
		}
	}

	if s := inv.notifications.Sentinel; s != "" {
		err := inv.sink.Send(ctx, model.Message{Content: s})
		if err != nil {
			o.logger.Warn("digest sentinel failed", "error", err)
		}
		o.record(ctx, model.ModeSentinel, nil, err)
	}
}

// record appends one row to the notification log. A failed insert is
// logged only.
func (o *Orchestrator) record(ctx context.Context, mode model.NotificationMode, jobID *int64, sendErr error) {
	n := &model.Notification{
		JobID:   jobID,
		Channel: o.sinks.Channel(),
		Mode:    mode,
		SentAt:  o.now(),
		Status:  model.StatusSent,
	}
	if sendErr != nil {
		n.Status = model.StatusFailed
		n.Error = truncate(sendErr.Error(), maxErrorSummary)
	}
	if err := o.repo.InsertNotification(ctx, n); err != nil {
		o.logger.Error("recording notification failed", "mode", mode, "error", err)
	}
}
