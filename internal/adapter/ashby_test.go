package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAshbyAdapter_Fetch_Success(t *testing.T) {
	payload := `{
		"apiVersion": "1",
		"jobs": [
			{
				"id": "abc-123",
				"title": "Software Engineer",
				"location": "San Francisco, CA",
				"employmentType": "FullTime",
				"workplaceType": "OnSite",
				"descriptionHtml": "<p>Ship the thing</p>",
				"jobUrl": "https://jobs.ashbyhq.com/acme/abc-123",
				"publishedAt": "2026-02-13T10:00:00.000+00:00",
				"isListed": true,
				"compensation": {"compensationTierSummary": "$150K - $190K"}
			},
			{
				"id": "def-456",
				"title": "Backend Engineer",
				"location": "United States",
				"employmentType": "Contract",
				"isRemote": true,
				"descriptionPlain": "Plain text",
				"jobUrl": "https://jobs.ashbyhq.com/acme/def-456",
				"publishedAt": "2026-02-13T11:30:00Z",
				"isListed": true
			},
			{
				"id": "ghi-789",
				"title": "Unlisted Role",
				"location": "NYC",
				"jobUrl": "https://jobs.ashbyhq.com/acme/ghi-789",
				"publishedAt": "2026-02-13T12:00:00Z",
				"isListed": false
			}
		]
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/posting-api/job-board/acme" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	adapter := newAshbyTestAdapter(srv, "acme", "Acme Corp")

	jobs, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs (unlisted filtered), got %d", len(jobs))
	}

	j := jobs[0]
	if j.SourceJobID != "abc-123" {
		t.Errorf("expected SourceJobID abc-123, got %s", j.SourceJobID)
	}
	if j.Company != "Acme Corp" || j.Title != "Software Engineer" {
		t.Errorf("unexpected job %+v", j)
	}
	if j.CanonicalURL != "https://jobs.ashbyhq.com/acme/abc-123" {
		t.Errorf("unexpected url %s", j.CanonicalURL)
	}
	if j.RemoteType != "onsite" || j.EmploymentType != "full-time" {
		t.Errorf("remote=%s employment=%s", j.RemoteType, j.EmploymentType)
	}
	if j.Description != "Ship the thing" {
		t.Errorf("description = %q", j.Description)
	}
	if s, _ := j.Raw["compensation"].AsString(); s != "$150K - $190K" {
		t.Errorf("compensation = %q", s)
	}
	if j.PostedAt == nil || j.PostedAt.Day() != 13 || j.PostedAt.Hour() != 10 {
		t.Errorf("unexpected PostedAt: %v", j.PostedAt)
	}

	j2 := jobs[1]
	if j2.RemoteType != "remote" {
		t.Errorf("isRemote should mark the job remote, got %s", j2.RemoteType)
	}
	if j2.EmploymentType != "contract" {
		t.Errorf("employment = %s", j2.EmploymentType)
	}
}

func TestAshbyAdapter_Fetch_EmptyBoard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"apiVersion": "1", "jobs": []}`))
	}))
	defer srv.Close()

	adapter := newAshbyTestAdapter(srv, "empty-co", "Empty Co")

	jobs, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 0 {
		t.Fatalf("expected 0 jobs, got %d", len(jobs))
	}
}

func TestAshbyAdapter_Fetch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	adapter := newAshbyTestAdapter(srv, "fail-co", "Fail Co")

	if _, err := adapter.Fetch(context.Background()); err == nil {
		t.Fatal("expected error for HTTP 500, got nil")
	}
}

// newAshbyTestAdapter creates an AshbyAdapter wired to a test server.
func newAshbyTestAdapter(srv *httptest.Server, token, company string) *AshbyAdapter {
	return NewAshbyAdapter(company, token, company, redirectTo(srv))
}
