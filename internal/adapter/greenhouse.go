package adapter

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/amishk599/jobdigest/internal/model"
)

const greenhouseBaseURL = "https://boards-api.greenhouse.io/v1/boards"

// Ensure GreenhouseAdapter implements model.SourceAdapter.
var _ model.SourceAdapter = (*GreenhouseAdapter)(nil)

// greenhouseJob represents a single job in the Greenhouse API response.
type greenhouseJob struct {
	ID             int64              `json:"id"`
	Title          string             `json:"title"`
	CompanyName    string             `json:"company_name"`
	Location       greenhouseLocation `json:"location"`
	AbsoluteURL    string             `json:"absolute_url"`
	UpdatedAt      string             `json:"updated_at"`
	FirstPublished string             `json:"first_published"`
	Content        string             `json:"content"`
	Departments    []greenhouseName   `json:"departments"`
	Offices        []greenhouseName   `json:"offices"`
}

type greenhouseLocation struct {
	Name string `json:"name"`
}

type greenhouseName struct {
	Name string `json:"name"`
}

// greenhouseResponse is the top-level Greenhouse jobs API response.
type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

// GreenhouseAdapter fetches jobs from the Greenhouse public boards API.
type GreenhouseAdapter struct {
	name        string
	boardToken  string
	companyName string
	client      *http.Client
}

// NewGreenhouseAdapter creates a new adapter for a Greenhouse board.
// companyName is used when the board does not report one.
func NewGreenhouseAdapter(name, boardToken, companyName string, client *http.Client) *GreenhouseAdapter {
	return &GreenhouseAdapter{
		name:        name,
		boardToken:  boardToken,
		companyName: companyName,
		client:      client,
	}
}

// Name returns the source name.
func (a *GreenhouseAdapter) Name() string { return a.name }

// Fetch retrieves every posting on the board with its description.
func (a *GreenhouseAdapter) Fetch(ctx context.Context) ([]model.NormalizedJob, error) {
	url := fmt.Sprintf("%s/%s/jobs?content=true", greenhouseBaseURL, a.boardToken)

	var ghResp greenhouseResponse
	if err := getJSON(ctx, a.client, url, &ghResp); err != nil {
		return nil, fmt.Errorf("greenhouse fetch for %s: %w", a.boardToken, err)
	}

	jobs := make([]model.NormalizedJob, 0, len(ghResp.Jobs))
	for _, gj := range ghResp.Jobs {
		company := gj.CompanyName
		if company == "" {
			company = a.companyName
		}

		posted := gj.FirstPublished
		if posted == "" {
			posted = gj.UpdatedAt
		}

		raw := model.RawPayload{
			"board_token": model.String(a.boardToken),
		}
		if gj.UpdatedAt != "" {
			raw["updated_at"] = model.String(gj.UpdatedAt)
		}
		if d := joinNames(gj.Departments); d != "" {
			raw["department"] = model.String(d)
		}
		if o := joinNames(gj.Offices); o != "" {
			raw["office"] = model.String(o)
		}

		jobs = append(jobs, model.NormalizedJob{
			SourceJobID:    strconv.FormatInt(gj.ID, 10),
			CanonicalURL:   gj.AbsoluteURL,
			Title:          strings.TrimSpace(gj.Title),
			Company:        company,
			Location:       gj.Location.Name,
			RemoteType:     remoteType(gj.Location.Name),
			EmploymentType: "unknown",
			Description:    extractText(gj.Content),
			PostedAt:       parseTime(posted),
			Raw:            raw,
		})
	}

	return jobs, nil
}

func joinNames(names []greenhouseName) string {
	parts := make([]string, 0, len(names))
	for _, n := range names {
		if n.Name != "" {
			parts = append(parts, n.Name)
		}
	}
	return strings.Join(parts, ", ")
}
