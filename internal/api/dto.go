package api

import (
	"time"

	"github.com/amishk599/jobdigest/internal/model"
)

type sourceDTO struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Kind       string    `json:"kind"`
	BaseURL    string    `json:"base_url,omitempty"`
	BoardToken string    `json:"board_token,omitempty"`
	ListingURL string    `json:"listing_url,omitempty"`
	Enabled    bool      `json:"enabled"`
	CreatedAt  time.Time `json:"created_at"`
}

func toSourceDTO(s model.Source) sourceDTO {
	return sourceDTO{
		ID:         s.ID,
		Name:       s.Name,
		Kind:       s.Kind,
		BaseURL:    s.BaseURL,
		BoardToken: s.BoardToken,
		ListingURL: s.ListingURL,
		Enabled:    s.Enabled,
		CreatedAt:  s.CreatedAt,
	}
}

type runDTO struct {
	ID                int64      `json:"id"`
	InvocationID      string     `json:"invocation_id"`
	SourceID          int64      `json:"source_id"`
	SourceName        string     `json:"source_name"`
	StartedAt         time.Time  `json:"started_at"`
	FinishedAt        *time.Time `json:"finished_at"`
	FetchedCount      int        `json:"fetched_count"`
	NewCount          int        `json:"new_count"`
	HighPriorityCount int        `json:"high_priority_count"`
	FilteredCount     int        `json:"filtered_count"`
	Status            string     `json:"status"`
	ErrorSummary      string     `json:"error_summary,omitempty"`
}

func toRunDTO(r model.CrawlRun) runDTO {
	return runDTO{
		ID:                r.ID,
		InvocationID:      r.InvocationID,
		SourceID:          r.SourceID,
		SourceName:        r.SourceName,
		StartedAt:         r.StartedAt,
		FinishedAt:        r.FinishedAt,
		FetchedCount:      r.FetchedCount,
		NewCount:          r.NewCount,
		HighPriorityCount: r.HighPriorityCount,
		FilteredCount:     r.FilteredCount,
		Status:            string(r.Status),
		ErrorSummary:      r.ErrorSummary,
	}
}

type scoreDTO struct {
	TotalScore      float64   `json:"total_score"`
	KeywordScore    float64   `json:"keyword_score"`
	SeniorityScore  float64   `json:"seniority_score"`
	RemoteBonus     float64   `json:"remote_bonus"`
	RegionBonus     float64   `json:"region_bonus"`
	Decision        string    `json:"decision"`
	MatchedKeywords []string  `json:"matched_keywords"`
	ScoredAt        time.Time `json:"scored_at"`
}

type jobDTO struct {
	ID             int64            `json:"id"`
	SourceID       int64            `json:"source_id"`
	SourceJobID    string           `json:"source_job_id,omitempty"`
	CanonicalURL   string           `json:"canonical_url"`
	Title          string           `json:"title"`
	Company        string           `json:"company"`
	Location       string           `json:"location"`
	RemoteType     string           `json:"remote_type"`
	EmploymentType string           `json:"employment_type"`
	Description    string           `json:"description"`
	PostedAt       *time.Time       `json:"posted_at"`
	CollectedAt    time.Time        `json:"collected_at"`
	IsNew          bool             `json:"is_new"`
	Raw            model.RawPayload `json:"raw,omitempty"`
	Score          *scoreDTO        `json:"score"`
}

func toJobDTO(sj model.ScoredJob) jobDTO {
	j := sj.Job
	out := jobDTO{
		ID:             j.ID,
		SourceID:       j.SourceID,
		SourceJobID:    j.SourceJobID,
		CanonicalURL:   j.CanonicalURL,
		Title:          j.Title,
		Company:        j.Company,
		Location:       j.Location,
		RemoteType:     j.RemoteType,
		EmploymentType: j.EmploymentType,
		Description:    j.Description,
		PostedAt:       j.PostedAt,
		CollectedAt:    j.CollectedAt,
		IsNew:          j.IsNew,
		Raw:            j.Raw,
	}
	if s := sj.Score; s != nil {
		out.Score = &scoreDTO{
			TotalScore:      s.Total,
			KeywordScore:    s.KeywordScore,
			SeniorityScore:  s.SeniorityScore,
			RemoteBonus:     s.RemoteBonus,
			RegionBonus:     s.RegionBonus,
			Decision:        string(s.Decision),
			MatchedKeywords: nonNil(s.MatchedKeywords),
			ScoredAt:        s.ScoredAt,
		}
	}
	return out
}

type triggerResponse struct {
	Success          bool     `json:"success"`
	Message          string   `json:"message"`
	InvocationID     string   `json:"invocation_id"`
	NewJobs          int      `json:"new_jobs"`
	AcceptedJobs     int      `json:"high_priority_jobs"`
	FailedSources    []string `json:"failed_sources"`
	DigestSuppressed bool     `json:"digest_suppressed"`
}
