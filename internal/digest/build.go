package digest

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/amishk599/jobdigest/internal/company"
	"github.com/amishk599/jobdigest/internal/model"
)

const notAvailable = "N/A"

// maxErrorInOverview bounds a failed source's error text in the overview.
const maxErrorInOverview = 200

// Payload is one digest message plus the jobs it pushes.
type Payload struct {
	Content string
	JobIDs  []int64
}

// SourceStat is the per-source line of the overview.
type SourceStat struct {
	Name     string
	Fetched  int
	New      int
	Accepted int
	Filtered int
	Status   model.RunStatus
	Error    string
}

// Input is everything one digest renders.
type Input struct {
	Window       string // human description of the recency window, empty when unfiltered
	NewJobs      int
	AcceptedJobs int
	Sources      []SourceStat
	Selection    Selection
	Companies    []company.Summary
}

// Build renders the digest as ordered payloads of at most MaxMessageLen
// characters: overview, selected jobs, deferred jobs, company details and the
// overflow company list.
func Build(in Input) []Payload {
	var out []Payload
	add := func(lines []string) {
		for _, c := range SplitLines(lines, MaxMessageLen) {
			out = append(out, Payload{Content: c})
		}
	}

	add(overviewLines(in))
	out = append(out, selectedPayloads(in.Selection)...)

	if len(in.Selection.Deferred) > 0 {
		lines := []string{fmt.Sprintf("Deferred over the daily limit (company and title only, %d):", len(in.Selection.Deferred))}
		for _, c := range in.Selection.Deferred {
			lines = append(lines, fmt.Sprintf("- %s | %s", orNA(c.Company), c.Title))
		}
		add(lines)
	}

	if len(in.Companies) == 0 {
		add([]string{"Hiring companies: none this run"})
		return out
	}
	detailed, overflow := SplitCompanies(in.Companies, MaxDetailedCompanies, MinDetailedPerSource)
	for i, c := range detailed {
		add(companyLines(i+1, c))
	}
	if len(overflow) > 0 {
		lines := []string{fmt.Sprintf("Other companies (company and titles only, %d):", len(overflow))}
		for _, c := range overflow {
			lines = append(lines, fmt.Sprintf("- %s | %s", c.Name, overflowTitles(c)))
		}
		add(lines)
	}
	return out
}

func overviewLines(in Input) []string {
	sel := in.Selection
	window := in.Window
	if window == "" {
		window = "all fetched postings"
	}
	lines := []string{
		"Job digest",
		"Window: " + window,
		fmt.Sprintf("Daily push limit: %d", sel.Limit),
		fmt.Sprintf("Pushed in the last 24h: %d", sel.SentLast24h),
		fmt.Sprintf("Remaining quota: %d", sel.Remaining),
		fmt.Sprintf("Candidates: %d", sel.Candidates),
		fmt.Sprintf("Selected: %d", len(sel.Selected)),
		fmt.Sprintf("Deferred: %d", len(sel.Deferred)),
		fmt.Sprintf("New jobs: %d", in.NewJobs),
		fmt.Sprintf("Accepted jobs: %d", in.AcceptedJobs),
	}

	var failed []string
	for _, s := range in.Sources {
		if s.Status == model.RunFailed {
			failed = append(failed, s.Name)
		}
	}
	if len(failed) == 0 {
		lines = append(lines, "Failed sources: none")
	} else {
		lines = append(lines, "Failed sources: "+strings.Join(failed, ", "))
		for _, s := range in.Sources {
			if s.Status == model.RunFailed {
				lines = append(lines, fmt.Sprintf("- %s: %s", s.Name, truncate(oneLine(s.Error), maxErrorInOverview)))
			}
		}
	}

	if len(in.Sources) > 0 {
		lines = append(lines, "", "Sources:")
		for _, s := range in.Sources {
			lines = append(lines, fmt.Sprintf("- %s: fetched=%d new=%d accepted=%d filtered=%d status=%s",
				s.Name, s.Fetched, s.New, s.Accepted, s.Filtered, s.Status))
		}
	}

	bySource := sel.SelectedBySource()
	if len(bySource) > 0 {
		names := make([]string, 0, len(bySource))
		for name := range bySource {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool {
			if bySource[names[i]] != bySource[names[j]] {
				return bySource[names[i]] > bySource[names[j]]
			}
			return names[i] < names[j]
		})
		lines = append(lines, "", "Selected by source:")
		for _, name := range names {
			lines = append(lines, fmt.Sprintf("- %s: %d", name, bySource[name]))
		}
	}
	return lines
}

// selectedPayloads renders the pushed jobs, recording in each payload the
// jobs whose entry starts in it.
func selectedPayloads(sel Selection) []Payload {
	if len(sel.Selected) == 0 {
		reason := "no new jobs this run"
		if sel.QuotaExhausted {
			reason = "daily push limit reached"
		}
		return []Payload{{Content: "Selected jobs: none (" + reason + ")"}}
	}

	lines := []string{"Selected jobs (by score and seniority):"}
	owner := []int64{0}
	for i, c := range sel.Selected {
		lines = append(lines,
			fmt.Sprintf("%d. %s | %s | score %.1f | seniority %.1f | source %s | posted %s",
				i+1, orNA(c.Company), c.Title, c.Score, c.Seniority, c.SourceName, formatTime(c.PostedAt)),
			"   "+c.URL,
		)
		owner = append(owner, c.JobID, 0)
	}

	chunks, where := pack(lines, MaxMessageLen)
	out := make([]Payload, len(chunks))
	for i, c := range chunks {
		out[i].Content = c
	}
	for i, id := range owner {
		if id != 0 {
			out[where[i]].JobIDs = append(out[where[i]].JobIDs, id)
		}
	}
	return out
}

func companyLines(n int, c company.Summary) []string {
	h := c.History
	lines := []string{
		fmt.Sprintf("Company %d: %s", n, c.Name),
		fmt.Sprintf("Hiring status: %s", c.Status),
		fmt.Sprintf("Contact priority: %d (%s)", c.Priority, c.Action),
		fmt.Sprintf("New jobs: %d (7d %d | prior 7d %d | 30d %d | active days %d | sources %d)",
			c.NewJobs, h.Recent7, h.Prev7, h.Total30, h.ActiveDays, h.Sources),
		fmt.Sprintf("Scores: max %.1f | avg %.1f", c.MaxScore, c.AvgScore),
		"First seen: " + formatTime(&c.FirstSeen),
		"Company URL: " + orNA(c.CompanyURL),
		fmt.Sprintf("Main source: %s (%s)", orNA(c.MainSource), orNA(c.MainSourceWebsite)),
		fmt.Sprintf("Contacts: email %s | telegram %s | careers %s",
			joinOrNA(c.Clues.Emails), joinOrNA(c.Clues.Telegrams), joinOrNA(c.Clues.CareerURLs)),
	}
	if len(c.TopRoles) == 0 {
		return append(lines, "Top roles: N/A")
	}
	lines = append(lines, "Top roles:")
	for _, r := range c.TopRoles {
		lines = append(lines,
			fmt.Sprintf("- %s | score %.1f | posted %s | %s | %s",
				r.Title, r.Score, formatTime(r.PostedAt), orNA(r.Location), orNA(r.EmploymentType)),
			"  "+r.URL,
		)
	}
	return lines
}

func overflowTitles(c company.Summary) string {
	titles := c.Titles
	if len(titles) == 0 {
		for _, r := range c.TopRoles {
			titles = append(titles, r.Title)
		}
	}
	if len(titles) == 0 {
		return notAvailable
	}
	if len(titles) > 3 {
		titles = titles[:3]
	}
	return strings.Join(titles, " / ")
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return notAvailable
	}
	return t.UTC().Format("2006-01-02 15:04 UTC")
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}

func joinOrNA(list []string) string {
	if len(list) == 0 {
		return notAvailable
	}
	return strings.Join(list, ", ")
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
