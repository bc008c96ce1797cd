package adapter

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/amishk599/jobdigest/internal/model"
)

const ashbyBaseURL = "https://api.ashbyhq.com/posting-api/job-board"

// Ensure AshbyAdapter implements model.SourceAdapter.
var _ model.SourceAdapter = (*AshbyAdapter)(nil)

// ashbyJob represents a single job in the Ashby API response.
type ashbyJob struct {
	ID               string             `json:"id"`
	Title            string             `json:"title"`
	Location         string             `json:"location"`
	Department       string             `json:"department"`
	Team             string             `json:"team"`
	EmploymentType   string             `json:"employmentType"`
	WorkplaceType    string             `json:"workplaceType"`
	IsRemote         bool               `json:"isRemote"`
	DescriptionPlain string             `json:"descriptionPlain"`
	DescriptionHTML  string             `json:"descriptionHtml"`
	JobURL           string             `json:"jobUrl"`
	ApplyURL         string             `json:"applyUrl"`
	PublishedAt      string             `json:"publishedAt"`
	IsListed         bool               `json:"isListed"`
	Compensation     *ashbyCompensation `json:"compensation"`
}

type ashbyCompensation struct {
	Summary string `json:"compensationTierSummary"`
}

// ashbyResponse is the top-level Ashby job board API response.
type ashbyResponse struct {
	Jobs []ashbyJob `json:"jobs"`
}

// AshbyAdapter fetches jobs from the Ashby public job board API.
type AshbyAdapter struct {
	name        string
	boardToken  string
	companyName string
	client      *http.Client
}

// NewAshbyAdapter creates a new adapter for an Ashby job board.
func NewAshbyAdapter(name, boardToken, companyName string, client *http.Client) *AshbyAdapter {
	return &AshbyAdapter{
		name:        name,
		boardToken:  boardToken,
		companyName: companyName,
		client:      client,
	}
}

// Name returns the source name.
func (a *AshbyAdapter) Name() string { return a.name }

// Fetch retrieves the listed postings on the Ashby job board.
func (a *AshbyAdapter) Fetch(ctx context.Context) ([]model.NormalizedJob, error) {
	url := fmt.Sprintf("%s/%s?includeCompensation=true", ashbyBaseURL, a.boardToken)

	var ashbyResp ashbyResponse
	if err := getJSON(ctx, a.client, url, &ashbyResp); err != nil {
		return nil, fmt.Errorf("ashby fetch for %s: %w", a.boardToken, err)
	}

	jobs := make([]model.NormalizedJob, 0, len(ashbyResp.Jobs))
	for _, aj := range ashbyResp.Jobs {
		if !aj.IsListed {
			continue
		}

		remote := remoteType(aj.WorkplaceType, aj.Location)
		if remote == "unknown" && aj.IsRemote {
			remote = "remote"
		}

		description := aj.DescriptionPlain
		if description == "" {
			description = aj.DescriptionHTML
		}

		raw := model.RawPayload{}
		for k, v := range map[string]string{
			"department": aj.Department,
			"team":       aj.Team,
			"apply_url":  aj.ApplyURL,
		} {
			if v != "" {
				raw[k] = model.String(v)
			}
		}
		if aj.Compensation != nil && aj.Compensation.Summary != "" {
			raw["compensation"] = model.String(aj.Compensation.Summary)
		}
		raw["is_remote"] = model.Bool(aj.IsRemote)

		jobs = append(jobs, model.NormalizedJob{
			SourceJobID:    aj.ID,
			CanonicalURL:   aj.JobURL,
			Title:          strings.TrimSpace(aj.Title),
			Company:        a.companyName,
			Location:       aj.Location,
			RemoteType:     remote,
			EmploymentType: employmentType(aj.EmploymentType),
			Description:    extractText(description),
			PostedAt:       parseTime(aj.PublishedAt),
			Raw:            raw,
		})
	}

	return jobs, nil
}
