package digest

import (
	"fmt"
	"strings"

	"github.com/amishk599/jobdigest/internal/model"
)

const maxAlertTitle = 110

// AlertInput is one accepted job to announce immediately.
type AlertInput struct {
	Job          model.Job
	Score        model.JobScore
	Source       model.Source
	CompanyURL   string
	InvocationID string
}

// BuildAlert renders the single-job alert message.
func BuildAlert(in AlertInput) model.Message {
	title := in.Job.Title
	if i := strings.IndexAny(title, "\r\n"); i >= 0 {
		title = title[:i]
	}
	title = truncate(oneLine(title), maxAlertTitle)

	s := in.Score
	desc := strings.Join([]string{
		"Company: " + orNA(in.Job.Company),
		"Source: " + in.Source.Name,
		"Source website: " + orNA(in.Source.BaseURL),
		"Company URL: " + orNA(in.CompanyURL),
		"Posted: " + formatTime(in.Job.PostedAt),
		"Location: " + orNA(in.Job.Location),
		"Remote: " + orNA(in.Job.RemoteType),
		fmt.Sprintf("Score: %.1f (%s)", s.Total, s.Decision),
		fmt.Sprintf("Breakdown: keywords %.1f + seniority %.1f + remote %.1f + region %.1f",
			s.KeywordScore, s.SeniorityScore, s.RemoteBonus, s.RegionBonus),
	}, "\n")
	if len(s.MatchedKeywords) > 0 {
		desc += "\nMatched: " + strings.Join(s.MatchedKeywords, ", ")
	}

	return model.Message{Alert: &model.Alert{
		Title:       "[ACCEPT] " + title,
		URL:         in.Job.CanonicalURL,
		Description: truncate(desc, MaxMessageLen),
		Footer:      "run " + in.InvocationID,
	}}
}
