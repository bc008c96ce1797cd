package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amishk599/jobdigest/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleAlert() model.Message {
	return model.Message{Alert: &model.Alert{
		Title:       "[ACCEPT] Backend Engineer",
		URL:         "https://example.com/apply",
		Description: "Company: Acme Corp\nScore: 80.0 (accept)",
		Footer:      "run abc",
	}}
}

func TestSlackSink_DigestText(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewSlackSink(srv.URL, srv.Client(), discardLogger())
	if err := s.Send(context.Background(), model.Message{Content: "Job digest\nNew jobs: 2"}); err != nil {
		t.Fatalf("Send() = %v, want nil", err)
	}

	var payload slackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Text != "Job digest\nNew jobs: 2" {
		t.Errorf("text = %q", payload.Text)
	}
	if len(payload.Blocks) != 0 {
		t.Errorf("expected no blocks for digest text, got %d", len(payload.Blocks))
	}
}

func TestSlackSink_AlertPayloadFormat(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewSlackSink(srv.URL, srv.Client(), discardLogger())
	if err := s.Send(context.Background(), sampleAlert()); err != nil {
		t.Fatalf("Send() = %v", err)
	}

	var payload slackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(payload.Blocks) != 5 {
		t.Fatalf("expected 5 blocks, got %d", len(payload.Blocks))
	}
	if payload.Blocks[0].Type != "header" || payload.Blocks[0].Text.Text != "[ACCEPT] Backend Engineer" {
		t.Errorf("block[0] = %+v, want header with alert title", payload.Blocks[0])
	}
	if payload.Blocks[1].Type != "section" || !strings.Contains(payload.Blocks[1].Text.Text, "Acme Corp") {
		t.Errorf("block[1] not the description section")
	}
	if payload.Blocks[2].Type != "actions" || payload.Blocks[2].Elements[0].URL != "https://example.com/apply" {
		t.Errorf("block[2] not the apply button")
	}
	if payload.Blocks[2].Elements[0].Style != "primary" {
		t.Errorf("button style = %q, want primary", payload.Blocks[2].Elements[0].Style)
	}
	if payload.Blocks[4].Type != "divider" {
		t.Errorf("block[4] type = %q, want divider", payload.Blocks[4].Type)
	}
	if !strings.HasPrefix(payload.Text, "[ACCEPT] Backend Engineer") {
		t.Errorf("fallback text = %q", payload.Text)
	}
}

func TestSlackSink_ReturnsErrorOnFailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("invalid_payload"))
	}))
	defer srv.Close()

	s := NewSlackSink(srv.URL, srv.Client(), discardLogger())
	err := s.Send(context.Background(), model.Message{Content: "x"})
	if err == nil {
		t.Fatal("expected error for 500 response, got nil")
	}
	if !strings.Contains(err.Error(), "invalid_payload") {
		t.Errorf("error %q should carry the response body", err)
	}
}

func TestSlackSink_RateLimited(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := calls.Add(1)
		if c == 1 {
			w.Header().Set("Retry-After", "0.05")
			w.WriteHeader(http.StatusTooManyRequests)
		} else {
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	s := NewSlackSink(srv.URL, srv.Client(), discardLogger())
	if err := s.Send(context.Background(), model.Message{Content: "x"}); err != nil {
		t.Fatalf("expected nil after retry, got %v", err)
	}
	if c := calls.Load(); c != 2 {
		t.Errorf("expected 2 HTTP calls (initial + retry), got %d", c)
	}
}

func TestSlackSink_RateLimitWaitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "20")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	s := NewSlackSink(srv.URL, srv.Client(), discardLogger())
	start := time.Now()
	err := s.Send(ctx, model.Message{Content: "x"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want context.DeadlineExceeded", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("Send did not return promptly after cancellation")
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", time.Second},
		{"garbage", time.Second},
		{"2", 2 * time.Second},
		{"0.5", 500 * time.Millisecond},
		{"3600", maxRetryAfter},
	}
	for _, tt := range tests {
		if got := parseRetryAfter(tt.in); got != tt.want {
			t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
