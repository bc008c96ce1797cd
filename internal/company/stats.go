// Package company aggregates newly ingested jobs per hiring company and turns
// the aggregate into ranked hiring summaries.
package company

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/amishk599/jobdigest/internal/model"
)

// UnknownCompany is the bucket for postings without a company name. It is
// aggregated but never summarized.
const UnknownCompany = "Unknown Company"

const (
	maxTopRoles = 3
	maxTitles   = 10
	maxClues    = 3
)

// companyURLKeys are raw payload keys adapters use for the company homepage.
var companyURLKeys = []string{"company_url", "company_website", "companySite", "company_link"}

var (
	emailRe    = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	telegramRe = regexp.MustCompile(`(?i)(?:https?://)?(?:t\.me|telegram\.me)/[A-Za-z0-9_]{4,}`)
	careerRe   = regexp.MustCompile(`(?i)https?://[^\s"'<>()]*(?:careers?|jobs|join-us|work-with-us)[^\s"'<>()]*`)
)

// Entry is one newly persisted and scored job, as seen by the aggregator.
type Entry struct {
	Job    model.Job
	Score  model.JobScore
	Source model.Source
}

// Role is a representative posting of a company.
type Role struct {
	JobID          int64
	Title          string
	URL            string
	Location       string
	EmploymentType string
	Score          float64
	PostedAt       *time.Time
}

// Clues are contact hints extracted from descriptions and raw payloads.
type Clues struct {
	Emails     []string
	Telegrams  []string
	CareerURLs []string
}

// Stat is the running aggregate of one company within a crawl invocation.
type Stat struct {
	Name           string
	NewJobs        int
	MaxScore       float64
	ScoreSum       float64
	CompanyURL     string
	SourceCounts   map[string]int
	SourceWebsites map[string]string
	Clues          Clues
	TopRoles       []Role
	Titles         []string
	FirstSeen      time.Time
}

// MainSource is the source with the most sightings, ties broken by name.
func (s *Stat) MainSource() string {
	var best string
	bestCount := -1
	for name, n := range s.SourceCounts {
		if n > bestCount || (n == bestCount && name < best) {
			best, bestCount = name, n
		}
	}
	return best
}

// Stats maps lower-cased company names to their aggregate. It is created per
// invocation and owned by the orchestrator.
type Stats map[string]*Stat

// Key normalizes a company name into its Stats key.
func Key(company string) string {
	if key := model.CompanyKey(company); key != "" {
		return key
	}
	return model.CompanyKey(UnknownCompany)
}

// Observe folds one new job into the aggregate.
func (s Stats) Observe(e Entry) {
	key := Key(e.Job.Company)
	st, ok := s[key]
	if !ok {
		name := strings.TrimSpace(e.Job.Company)
		if name == "" {
			name = UnknownCompany
		}
		st = &Stat{
			Name:           name,
			SourceCounts:   make(map[string]int),
			SourceWebsites: make(map[string]string),
			FirstSeen:      e.Job.CollectedAt,
		}
		s[key] = st
	}

	score := e.Score.Total
	if st.NewJobs == 0 || score > st.MaxScore {
		st.MaxScore = score
	}
	st.NewJobs++
	st.ScoreSum += score
	if st.CompanyURL == "" {
		st.CompanyURL = pickCompanyURL(e.Job.Raw, e.Job.CanonicalURL)
	}
	st.SourceCounts[e.Source.Name]++
	st.SourceWebsites[e.Source.Name] = e.Source.BaseURL
	if e.Job.CollectedAt.Before(st.FirstSeen) {
		st.FirstSeen = e.Job.CollectedAt
	}

	text := e.Job.Description + "\n" + strings.Join(e.Job.Raw.Strings(), "\n")
	st.Clues.Emails = addClues(st.Clues.Emails, emailRe.FindAllString(text, -1))
	st.Clues.Telegrams = addClues(st.Clues.Telegrams, telegramRe.FindAllString(text, -1))
	st.Clues.CareerURLs = addClues(st.Clues.CareerURLs, careerRe.FindAllString(text, -1))

	st.TopRoles = append(st.TopRoles, Role{
		JobID:          e.Job.ID,
		Title:          e.Job.Title,
		URL:            e.Job.CanonicalURL,
		Location:       e.Job.Location,
		EmploymentType: e.Job.EmploymentType,
		Score:          score,
		PostedAt:       e.Job.PostedAt,
	})
	sort.SliceStable(st.TopRoles, func(i, j int) bool { return st.TopRoles[i].Score > st.TopRoles[j].Score })
	if len(st.TopRoles) > maxTopRoles {
		st.TopRoles = st.TopRoles[:maxTopRoles]
	}

	if t := strings.TrimSpace(e.Job.Title); t != "" && len(st.Titles) < maxTitles && !contains(st.Titles, t) {
		st.Titles = append(st.Titles, t)
	}
}

func pickCompanyURL(raw model.RawPayload, fallback string) string {
	for _, k := range companyURLKeys {
		if v, ok := raw.GetString(k); ok && strings.HasPrefix(v, "http") {
			return v
		}
	}
	return fallback
}

func addClues(have, found []string) []string {
	for _, f := range found {
		if len(have) >= maxClues {
			break
		}
		f = strings.TrimRight(f, ".,;:")
		if !contains(have, f) {
			have = append(have, f)
		}
	}
	return have
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
