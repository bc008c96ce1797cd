package company

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/amishk599/jobdigest/internal/model"
	"github.com/amishk599/jobdigest/internal/scoring"
)

// HistoryWindow is how far back company history is read.
const HistoryWindow = 30 * 24 * time.Hour

const week = 7 * 24 * time.Hour

// seniorScoreFloor marks a stored seniority score as a senior signal.
const seniorScoreFloor = 20

// HiringStatus classifies a company's recent hiring activity.
type HiringStatus string

const (
	StatusNoActivity HiringStatus = "no new activity"
	StatusNewlyOpen  HiringStatus = "newly opened"
	StatusExpanding  HiringStatus = "expanding"
	StatusSustained  HiringStatus = "sustained hiring"
)

// HistoryReader is the slice of the repository the summaries need.
type HistoryReader interface {
	JobsByCompanySince(ctx context.Context, company string, since time.Time) ([]model.HistoryJob, error)
}

// History is a company's posting activity over the trailing 30 days.
type History struct {
	ActiveDays  int
	Sources     int
	Recent7     int
	Prev7       int
	Total30     int
	SeniorRatio float64
	Earliest    time.Time
}

// ComputeHistory derives activity counters from persisted postings.
func ComputeHistory(jobs []model.HistoryJob, now time.Time) History {
	var h History
	days := make(map[string]struct{})
	sources := make(map[int64]struct{})
	senior := 0
	for _, j := range jobs {
		age := now.Sub(j.CollectedAt)
		if age > HistoryWindow {
			continue
		}
		h.Total30++
		days[j.CollectedAt.UTC().Format(time.DateOnly)] = struct{}{}
		sources[j.SourceID] = struct{}{}
		switch {
		case age <= week:
			h.Recent7++
		case age <= 2*week:
			h.Prev7++
		}
		if scoring.HasSeniorSignal(j.Title) || j.SeniorityScore >= seniorScoreFloor {
			senior++
		}
		if h.Earliest.IsZero() || j.CollectedAt.Before(h.Earliest) {
			h.Earliest = j.CollectedAt
		}
	}
	h.ActiveDays = len(days)
	h.Sources = len(sources)
	if h.Total30 > 0 {
		h.SeniorRatio = float64(senior) / float64(h.Total30)
	}
	return h
}

// Classify returns the first matching hiring status.
func Classify(newJobs int, h History) HiringStatus {
	switch {
	case newJobs == 0:
		return StatusNoActivity
	case h.Prev7 == 0 && h.Recent7 == newJobs:
		return StatusNewlyOpen
	case newJobs >= 3 || float64(h.Recent7) >= math.Max(3, 1.5*float64(h.Prev7)):
		return StatusExpanding
	default:
		return StatusSustained
	}
}

// ContactPriority is a 0-100 heuristic of how worthwhile reaching out is.
func ContactPriority(newJobs int, h History) int {
	activity := math.Min(40, 6*float64(h.Recent7)+4*float64(newJobs))
	consistency := math.Min(20, 3*float64(h.ActiveDays))
	reach := math.Min(20, 8*float64(h.Sources))
	seniority := math.Min(20, 20*h.SeniorRatio)
	return int(math.Round(activity + consistency + reach + seniority))
}

// ContactAction maps a contact priority to a suggested next step.
func ContactAction(priority int) string {
	switch {
	case priority >= 70:
		return "reach out today"
	case priority >= 40:
		return "reach out this week"
	default:
		return "monitor"
	}
}

// Summary is the digest view of one company.
type Summary struct {
	Name              string
	NewJobs           int
	MaxScore          float64
	AvgScore          float64
	CompanyURL        string
	MainSource        string
	MainSourceWebsite string
	Status            HiringStatus
	Priority          int
	Action            string
	History           History
	FirstSeen         time.Time
	Clues             Clues
	TopRoles          []Role
	Titles            []string
}

// Summarize builds ordered company summaries from the run aggregate. A failed
// history lookup degrades that company to this run's numbers.
func Summarize(ctx context.Context, stats Stats, history HistoryReader, now time.Time, logger *slog.Logger) []Summary {
	out := make([]Summary, 0, len(stats))
	for key, st := range stats {
		if key == strings.ToLower(UnknownCompany) || st.NewJobs == 0 {
			continue
		}

		jobs, err := history.JobsByCompanySince(ctx, st.Name, now.Add(-HistoryWindow))
		if err != nil {
			logger.Warn("company history unavailable", "company", st.Name, "error", err)
			jobs = nil
		}
		h := ComputeHistory(jobs, now)
		if h.Total30 == 0 {
			h = History{Recent7: st.NewJobs, Total30: st.NewJobs, ActiveDays: 1, Sources: len(st.SourceCounts), Earliest: st.FirstSeen}
		}

		main := st.MainSource()
		priority := ContactPriority(st.NewJobs, h)
		first := st.FirstSeen
		if !h.Earliest.IsZero() && h.Earliest.Before(first) {
			first = h.Earliest
		}
		out = append(out, Summary{
			Name:              st.Name,
			NewJobs:           st.NewJobs,
			MaxScore:          st.MaxScore,
			AvgScore:          st.ScoreSum / float64(st.NewJobs),
			CompanyURL:        st.CompanyURL,
			MainSource:        main,
			MainSourceWebsite: st.SourceWebsites[main],
			Status:            Classify(st.NewJobs, h),
			Priority:          priority,
			Action:            ContactAction(priority),
			History:           h,
			FirstSeen:         first,
			Clues:             st.Clues,
			TopRoles:          st.TopRoles,
			Titles:            st.Titles,
		})
	}
	Sort(out)
	return out
}

// Sort orders summaries by max score, contact priority and new jobs, all
// descending, then by name.
func Sort(s []Summary) {
	sort.SliceStable(s, func(i, j int) bool {
		a, b := s[i], s[j]
		if a.MaxScore != b.MaxScore {
			return a.MaxScore > b.MaxScore
		}
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.NewJobs != b.NewJobs {
			return a.NewJobs > b.NewJobs
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
}
