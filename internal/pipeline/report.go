package pipeline

import (
	"time"

	"github.com/amishk599/jobdigest/internal/company"
	"github.com/amishk599/jobdigest/internal/digest"
	"github.com/amishk599/jobdigest/internal/model"
)

// SourceResult is the outcome of processing one source: success with its
// counters, or failure with the reason. Counters reflect the work done
// before a failure.
type SourceResult struct {
	Source   model.Source
	RunID    int64
	Status   model.RunStatus
	Fetched  int
	Filtered int
	New      int
	Accepted int
	Err      error
}

// Failed reports whether the source ended in failure.
func (r SourceResult) Failed() bool { return r.Status == model.RunFailed }

func (r SourceResult) stat() digest.SourceStat {
	s := digest.SourceStat{
		Name:     r.Source.Name,
		Fetched:  r.Fetched,
		New:      r.New,
		Accepted: r.Accepted,
		Filtered: r.Filtered,
		Status:   r.Status,
	}
	if r.Err != nil {
		s.Error = r.Err.Error()
	}
	return s
}

// Report summarises one invocation.
type Report struct {
	InvocationID string
	StartedAt    time.Time
	FinishedAt   time.Time
	Sources      []SourceResult
	NewJobs      int
	AcceptedJobs int
	Companies    []company.Summary
	Selection    digest.Selection

	QuietHours     bool // digest and alerts were suppressed
	AlertsSent     int
	AlertsFailed   int
	PayloadsSent   int
	PayloadsFailed int
}

// FailedSources lists the names of failed sources in processing order.
func (r *Report) FailedSources() []string {
	var out []string
	for _, s := range r.Sources {
		if s.Failed() {
			out = append(out, s.Source.Name)
		}
	}
	return out
}
