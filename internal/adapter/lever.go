package adapter

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/amishk599/jobdigest/internal/model"
)

const leverBaseURL = "https://api.lever.co/v0/postings"

// Ensure LeverAdapter implements model.SourceAdapter.
var _ model.SourceAdapter = (*LeverAdapter)(nil)

// leverCategories represents the categories object in a Lever job.
type leverCategories struct {
	Team         string   `json:"team"`
	Department   string   `json:"department"`
	Location     string   `json:"location"`
	Commitment   string   `json:"commitment"`
	AllLocations []string `json:"allLocations"`
}

// leverJob represents a single job in the Lever API response.
type leverJob struct {
	ID               string          `json:"id"`
	Text             string          `json:"text"`
	Description      string          `json:"description"`
	DescriptionPlain string          `json:"descriptionPlain"`
	Categories       leverCategories `json:"categories"`
	CreatedAt        int64           `json:"createdAt"`
	WorkplaceType    string          `json:"workplaceType"`
	HostedURL        string          `json:"hostedUrl"`
	ApplyURL         string          `json:"applyUrl"`
}

// LeverAdapter fetches jobs from the Lever public postings API.
type LeverAdapter struct {
	name        string
	companySlug string
	companyName string
	client      *http.Client
}

// NewLeverAdapter creates a new adapter for a Lever board.
func NewLeverAdapter(name, companySlug, companyName string, client *http.Client) *LeverAdapter {
	return &LeverAdapter{
		name:        name,
		companySlug: companySlug,
		companyName: companyName,
		client:      client,
	}
}

// Name returns the source name.
func (a *LeverAdapter) Name() string { return a.name }

// Fetch retrieves all postings from the Lever board.
func (a *LeverAdapter) Fetch(ctx context.Context) ([]model.NormalizedJob, error) {
	url := fmt.Sprintf("%s/%s?mode=json", leverBaseURL, a.companySlug)

	var leverJobs []leverJob
	if err := getJSON(ctx, a.client, url, &leverJobs); err != nil {
		return nil, fmt.Errorf("lever fetch for %s: %w", a.companySlug, err)
	}

	jobs := make([]model.NormalizedJob, 0, len(leverJobs))
	for _, lj := range leverJobs {
		// Prefer allLocations if available, fallback to location.
		location := lj.Categories.Location
		if len(lj.Categories.AllLocations) > 0 {
			location = strings.Join(lj.Categories.AllLocations, ", ")
		}

		// createdAt is Unix milliseconds.
		var postedAt *time.Time
		if lj.CreatedAt > 0 {
			t := time.UnixMilli(lj.CreatedAt).UTC()
			postedAt = &t
		}

		description := lj.DescriptionPlain
		if description == "" {
			description = lj.Description
		}

		raw := model.RawPayload{}
		for k, v := range map[string]string{
			"team":           lj.Categories.Team,
			"department":     lj.Categories.Department,
			"commitment":     lj.Categories.Commitment,
			"workplace_type": lj.WorkplaceType,
			"apply_url":      lj.ApplyURL,
		} {
			if v != "" {
				raw[k] = model.String(v)
			}
		}

		jobs = append(jobs, model.NormalizedJob{
			SourceJobID:    lj.ID,
			CanonicalURL:   lj.HostedURL,
			Title:          strings.TrimSpace(lj.Text),
			Company:        a.companyName,
			Location:       location,
			RemoteType:     remoteType(lj.WorkplaceType, location),
			EmploymentType: employmentType(lj.Categories.Commitment),
			Description:    extractText(description),
			PostedAt:       postedAt,
			Raw:            raw,
		})
	}

	return jobs, nil
}
