package filter

import (
	"strings"
	"time"

	"github.com/amishk599/jobdigest/internal/model"
)

// Ensure the filters implement model.JobFilter.
var (
	_ model.JobFilter = (*TitleAndLocationFilter)(nil)
	_ model.JobFilter = (*RecencyFilter)(nil)
	_ model.JobFilter = (*ExcludeKeywordFilter)(nil)
	_ model.JobFilter = Chain(nil)
)

// TitleAndLocationFilter matches jobs whose title contains any of the title
// keywords and whose location contains any of the location keywords.
// Matching is case-insensitive. Empty keyword lists are treated as "match all".
type TitleAndLocationFilter struct {
	titleKeywords []string
	locations     []string
}

// NewTitleAndLocationFilter returns a filter that requires both a title keyword
// match and a location keyword match (case-insensitive substring).
func NewTitleAndLocationFilter(titleKeywords []string, locations []string) *TitleAndLocationFilter {
	return &TitleAndLocationFilter{
		titleKeywords: lowerAll(titleKeywords),
		locations:     lowerAll(locations),
	}
}

// Match returns true if the job's title contains any title keyword and the
// job's location contains any location keyword. Empty keyword lists pass all.
func (f *TitleAndLocationFilter) Match(job model.NormalizedJob, _ time.Time) bool {
	if len(f.titleKeywords) > 0 && !containsAny(strings.ToLower(job.Title), f.titleKeywords) {
		return false
	}
	if len(f.locations) > 0 && !containsAny(strings.ToLower(job.Location), f.locations) {
		return false
	}
	return true
}

// RecencyFilter drops postings older than a window. Postings without a
// posted time always pass, as do future-dated ones.
type RecencyFilter struct {
	window time.Duration
	skew   time.Duration
}

// NewRecencyFilter keeps postings published within window of now, widened
// by skew to absorb clock differences between us and the source.
func NewRecencyFilter(window, skew time.Duration) *RecencyFilter {
	return &RecencyFilter{window: window, skew: skew}
}

// Match reports whether job was posted recently enough.
func (f *RecencyFilter) Match(job model.NormalizedJob, now time.Time) bool {
	if job.PostedAt == nil {
		return true
	}
	cutoff := now.Add(-f.window - f.skew)
	return !job.PostedAt.Before(cutoff)
}

// ExcludeKeywordFilter drops postings whose title or description contains
// any excluded keyword (case-insensitive substring).
type ExcludeKeywordFilter struct {
	keywords []string
}

// NewExcludeKeywordFilter returns a filter rejecting any of keywords.
// Blank keywords are ignored.
func NewExcludeKeywordFilter(keywords []string) *ExcludeKeywordFilter {
	return &ExcludeKeywordFilter{keywords: lowerAll(keywords)}
}

// Match returns false when an excluded keyword appears.
func (f *ExcludeKeywordFilter) Match(job model.NormalizedJob, _ time.Time) bool {
	if len(f.keywords) == 0 {
		return true
	}
	text := strings.ToLower(job.Title + "\n" + job.Description)
	return !containsAny(text, f.keywords)
}

// Chain passes a job only when every filter in it does. An empty chain
// passes everything.
type Chain []model.JobFilter

// Match applies each filter in order and stops at the first rejection.
func (c Chain) Match(job model.NormalizedJob, now time.Time) bool {
	for _, f := range c {
		if !f.Match(job, now) {
			return false
		}
	}
	return true
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

func lowerAll(list []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
