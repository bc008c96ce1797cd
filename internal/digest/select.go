// Package digest selects which new jobs are pushed under the daily quota and
// renders the digest and alert payloads, each sized for the channel.
package digest

import (
	"sort"
	"strings"
	"time"

	"github.com/amishk599/jobdigest/internal/scoring"
)

// Candidate is a newly ingested job competing for a push slot.
type Candidate struct {
	JobID       int64
	Title       string
	Company     string
	URL         string
	SourceName  string
	Score       float64
	Seniority   float64
	SeniorTitle bool
	PostedAt    *time.Time
}

// NewCandidate fills SeniorTitle from the title.
func NewCandidate(c Candidate) Candidate {
	c.SeniorTitle = scoring.HasSeniorSignal(c.Title)
	return c
}

// Selection is the outcome of applying the rolling 24h quota.
type Selection struct {
	Limit          int
	SentLast24h    int
	Remaining      int
	Candidates     int
	Selected       []Candidate
	Deferred       []Candidate
	QuotaExhausted bool
}

// Select ranks candidates and takes as many as the remaining quota allows.
// candidates is not modified.
func Select(candidates []Candidate, dailyLimit, sentLast24h int) Selection {
	remaining := dailyLimit - sentLast24h
	if remaining < 0 {
		remaining = 0
	}
	ranked := append([]Candidate(nil), candidates...)
	Rank(ranked)

	sel := Selection{
		Limit:          dailyLimit,
		SentLast24h:    sentLast24h,
		Remaining:      remaining,
		Candidates:     len(ranked),
		QuotaExhausted: remaining == 0,
	}
	n := remaining
	if n > len(ranked) {
		n = len(ranked)
	}
	sel.Selected = ranked[:n:n]
	sel.Deferred = ranked[n:]
	return sel
}

// Rank orders candidates by score, seniority score and senior-title signal
// (all descending), then most recent posting first with undated postings
// last, then company and title.
func Rank(c []Candidate) {
	sort.SliceStable(c, func(i, j int) bool {
		a, b := c[i], c[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Seniority != b.Seniority {
			return a.Seniority > b.Seniority
		}
		if a.SeniorTitle != b.SeniorTitle {
			return a.SeniorTitle
		}
		switch {
		case a.PostedAt != nil && b.PostedAt == nil:
			return true
		case a.PostedAt == nil && b.PostedAt != nil:
			return false
		case a.PostedAt != nil && !a.PostedAt.Equal(*b.PostedAt):
			return a.PostedAt.After(*b.PostedAt)
		}
		if ac, bc := strings.ToLower(a.Company), strings.ToLower(b.Company); ac != bc {
			return ac < bc
		}
		return strings.ToLower(a.Title) < strings.ToLower(b.Title)
	})
}

// SelectedBySource counts selected jobs per source.
func (s Selection) SelectedBySource() map[string]int {
	out := make(map[string]int)
	for _, c := range s.Selected {
		out[c.SourceName]++
	}
	return out
}
