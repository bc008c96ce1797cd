// Package audit is the interactive rubric audit: fetch one source live and
// browse how each posting is filtered and scored, without persisting
// anything.
package audit

import (
	"sort"
	"time"

	"github.com/amishk599/jobdigest/internal/model"
	"github.com/amishk599/jobdigest/internal/scoring"
)

// Entry is one fetched posting with its audit verdicts.
type Entry struct {
	Job    model.NormalizedJob
	Passed bool // passed the pre-dedup filter
	Score  scoring.Result
}

// Accepted reports whether the posting would be pushed as a candidate alert.
func (e Entry) Accepted() bool {
	return e.Passed && e.Score.Decision == model.DecisionAccept
}

// Evaluate filters and scores jobs, newest first. f may be nil.
func Evaluate(jobs []model.NormalizedJob, rubric scoring.Rubric, f model.JobFilter, now time.Time) []Entry {
	out := make([]Entry, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, Entry{
			Job:    j,
			Passed: f == nil || f.Match(j, now),
			Score:  scoring.Score(rubric, scoring.TextOf(j)),
		})
	}
	sort.SliceStable(out, func(a, b int) bool {
		pa, pb := out[a].Job.PostedAt, out[b].Job.PostedAt
		switch {
		case pa == nil:
			return false
		case pb == nil:
			return true
		}
		return pa.After(*pb)
	})
	return out
}

// accepted returns the entries that would be accepted.
func accepted(entries []Entry) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.Accepted() {
			out = append(out, e)
		}
	}
	return out
}
