package adapter

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/amishk599/jobdigest/internal/model"
)

func TestRegistry_Build(t *testing.T) {
	r := NewRegistry(http.DefaultClient)

	tests := []struct {
		src  model.Source
		want string
	}{
		{model.Source{Name: "acme", Kind: KindGreenhouse, BoardToken: "acme"}, "*adapter.GreenhouseAdapter"},
		{model.Source{Name: "acme", Kind: KindLever, BoardToken: "acme"}, "*adapter.LeverAdapter"},
		{model.Source{Name: "acme", Kind: KindAshby, BoardToken: "acme"}, "*adapter.AshbyAdapter"},
		{model.Source{Name: "board", Kind: KindJSONLD, ListingURL: "https://jobs.example/"}, "*adapter.JSONLDAdapter"},
	}
	for _, tt := range tests {
		a, err := r.Build(tt.src)
		if err != nil {
			t.Fatalf("Build(%s) error: %v", tt.src.Kind, err)
		}
		if got := typeName(a); got != tt.want {
			t.Errorf("Build(%s) = %s, want %s", tt.src.Kind, got, tt.want)
		}
		if a.Name() != tt.src.Name {
			t.Errorf("Name() = %q, want %q", a.Name(), tt.src.Name)
		}
	}
}

func TestRegistry_BuildRejectsBadSources(t *testing.T) {
	r := NewRegistry(http.DefaultClient)

	if _, err := r.Build(model.Source{Name: "x", Kind: "workday"}); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("unknown kind: err = %v, want ErrUnknownKind", err)
	}
	if _, err := r.Build(model.Source{Name: "x", Kind: KindLever}); err == nil {
		t.Error("expected error for missing board token")
	}
	if _, err := r.Build(model.Source{Name: "x", Kind: KindJSONLD, ListingURL: "not a url"}); err == nil {
		t.Error("expected error for invalid listing url")
	}
}

type namedAdapter struct {
	model.SourceAdapter
	tag string
}

func TestRegistry_DecoratorsApplyInOrder(t *testing.T) {
	var order []string
	wrap := func(tag string) Decorator {
		return func(src model.Source, a model.SourceAdapter) model.SourceAdapter {
			order = append(order, tag+":"+src.Name)
			return &namedAdapter{SourceAdapter: a, tag: tag}
		}
	}

	r := NewRegistry(http.DefaultClient, wrap("inner"), wrap("outer"))
	a, err := r.Build(model.Source{Name: "acme", Kind: KindGreenhouse, BoardToken: "acme"})
	if err != nil {
		t.Fatal(err)
	}
	if len(order) != 2 || order[0] != "inner:acme" || order[1] != "outer:acme" {
		t.Errorf("order = %v", order)
	}
	if a.(*namedAdapter).tag != "outer" {
		t.Error("last decorator should be outermost")
	}
}

func TestHost(t *testing.T) {
	tests := []struct {
		src  model.Source
		want string
	}{
		{model.Source{Kind: KindGreenhouse}, "boards-api.greenhouse.io"},
		{model.Source{Kind: KindLever}, "api.lever.co"},
		{model.Source{Kind: KindAshby}, "api.ashbyhq.com"},
		{model.Source{Kind: KindJSONLD, ListingURL: "https://web3.career/jobs"}, "web3.career"},
		{model.Source{Kind: KindJSONLD}, KindJSONLD},
	}
	for _, tt := range tests {
		if got := Host(tt.src); got != tt.want {
			t.Errorf("Host(%+v) = %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestRemoteType(t *testing.T) {
	tests := []struct {
		hints []string
		want  string
	}{
		{[]string{"Remote, US"}, "remote"},
		{[]string{"TELECOMMUTE"}, "remote"},
		{[]string{"hybrid", "Remote"}, "hybrid"},
		{[]string{"", "On-site"}, "onsite"},
		{[]string{"unspecified", "Berlin"}, "unknown"},
		{nil, "unknown"},
	}
	for _, tt := range tests {
		if got := remoteType(tt.hints...); got != tt.want {
			t.Errorf("remoteType(%q) = %q, want %q", tt.hints, got, tt.want)
		}
	}
}

func TestEmploymentType(t *testing.T) {
	tests := map[string]string{
		"FullTime":   "full-time",
		"FULL_TIME":  "full-time",
		"Part time":  "part-time",
		"Contractor": "contract",
		"Internship": "internship",
		"Volunteer":  "volunteer",
		"":           "unknown",
	}
	for in, want := range tests {
		if got := employmentType(in); got != want {
			t.Errorf("employmentType(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseRetryAfter(t *testing.T) {
	if got := parseRetryAfter("120"); got != 2*time.Minute {
		t.Errorf("seconds form = %v", got)
	}
	if got := parseRetryAfter(""); got != 0 {
		t.Errorf("empty = %v", got)
	}
	if got := parseRetryAfter("soon"); got != 0 {
		t.Errorf("garbage = %v", got)
	}
	future := time.Now().Add(time.Hour).UTC().Format(http.TimeFormat)
	if got := parseRetryAfter(future); got <= 0 || got > time.Hour {
		t.Errorf("date form = %v", got)
	}
}

func TestParseTime(t *testing.T) {
	for _, in := range []string{"2026-03-01T08:00:00Z", "2026-03-01T08:00:00.123+00:00", "2026-03-01T08:00:00", "2026-03-01"} {
		if parseTime(in) == nil {
			t.Errorf("parseTime(%q) = nil", in)
		}
	}
	if parseTime("last week") != nil {
		t.Error("expected nil for unparseable input")
	}
}

func typeName(a model.SourceAdapter) string {
	switch a.(type) {
	case *GreenhouseAdapter:
		return "*adapter.GreenhouseAdapter"
	case *LeverAdapter:
		return "*adapter.LeverAdapter"
	case *AshbyAdapter:
		return "*adapter.AshbyAdapter"
	case *JSONLDAdapter:
		return "*adapter.JSONLDAdapter"
	}
	return "unknown"
}
