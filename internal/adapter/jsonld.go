package adapter

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/amishk599/jobdigest/internal/model"
)

const (
	// maxJSONLDJobs bounds one fetch from a listing page.
	maxJSONLDJobs = 80
	// maxDescriptionLen bounds the stored description, in runes.
	maxDescriptionLen = 4000
)

// Ensure JSONLDAdapter implements model.SourceAdapter.
var _ model.SourceAdapter = (*JSONLDAdapter)(nil)

// JSONLDAdapter reads schema.org JobPosting objects embedded as
// application/ld+json scripts in a listing page.
type JSONLDAdapter struct {
	name       string
	listingURL string
	client     *http.Client
}

// NewJSONLDAdapter creates an adapter for the page at listingURL.
func NewJSONLDAdapter(name, listingURL string, client *http.Client) *JSONLDAdapter {
	return &JSONLDAdapter{
		name:       name,
		listingURL: listingURL,
		client:     client,
	}
}

// Name returns the source name.
func (a *JSONLDAdapter) Name() string { return a.name }

// Fetch downloads the listing page and converts every JobPosting it embeds.
// Blocks that are not valid JSON are skipped.
func (a *JSONLDAdapter) Fetch(ctx context.Context) ([]model.NormalizedJob, error) {
	base, err := url.Parse(a.listingURL)
	if err != nil {
		return nil, fmt.Errorf("jsonld fetch for %s: parsing listing url: %w", a.name, err)
	}

	resp, err := get(ctx, a.client, a.listingURL, "text/html")
	if err != nil {
		return nil, fmt.Errorf("jsonld fetch for %s: %w", a.name, err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("jsonld fetch for %s: parsing html: %w", a.name, err)
	}

	var postings []map[string]any
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}
		var data any
		if err := json.Unmarshal([]byte(text), &data); err != nil {
			return
		}
		collectPostings(data, &postings)
	})

	jobs := make([]model.NormalizedJob, 0, len(postings))
	for _, p := range postings {
		job, ok := normalizePosting(p, base)
		if !ok {
			continue
		}
		jobs = append(jobs, job)
		if len(jobs) == maxJSONLDJobs {
			break
		}
	}
	return jobs, nil
}

// collectPostings walks a decoded JSON-LD value and appends every object
// typed JobPosting. Arrays, @graph containers and ItemList elements are
// descended into.
func collectPostings(v any, out *[]map[string]any) {
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			collectPostings(item, out)
		}
	case map[string]any:
		if hasType(t["@type"], "JobPosting") {
			*out = append(*out, t)
			return
		}
		if g, ok := t["@graph"]; ok {
			collectPostings(g, out)
		}
		if hasType(t["@type"], "ItemList") {
			collectPostings(t["itemListElement"], out)
		}
		if hasType(t["@type"], "ListItem") {
			collectPostings(t["item"], out)
		}
	}
}

func hasType(v any, want string) bool {
	switch t := v.(type) {
	case string:
		return t == want
	case []any:
		for _, s := range t {
			if str, ok := s.(string); ok && str == want {
				return true
			}
		}
	}
	return false
}

func normalizePosting(p map[string]any, base *url.URL) (model.NormalizedJob, bool) {
	title := text(p["title"])
	if title == "" {
		return model.NormalizedJob{}, false
	}

	var company, companyURL string
	if org, ok := p["hiringOrganization"].(map[string]any); ok {
		company = text(org["name"])
		companyURL = text(org["url"])
		if companyURL == "" {
			companyURL = text(org["sameAs"])
		}
	} else {
		company = text(p["hiringOrganization"])
	}

	datePosted := text(p["datePosted"])

	id := identifier(p["identifier"])
	if id == "" {
		sum := sha1.Sum([]byte(title + "|" + company + "|" + datePosted))
		id = hex.EncodeToString(sum[:])
	}

	canonical := base.String()
	if u := text(p["url"]); u != "" {
		if ref, err := url.Parse(u); err == nil {
			canonical = base.ResolveReference(ref).String()
		}
	}

	location := jobLocation(p["jobLocation"])
	locationType := text(p["jobLocationType"])
	if req := applicantLocation(p["applicantLocationRequirements"]); req != "" && location == "" {
		location = req
	}
	if location == "" {
		location = locationType
	}

	description := extractText(text(p["description"]))
	if r := []rune(description); len(r) > maxDescriptionLen {
		description = string(r[:maxDescriptionLen])
	}

	raw := model.RawPayload{"listing_url": model.String(base.String())}
	if companyURL != "" {
		raw["company_url"] = model.String(companyURL)
	}
	if datePosted != "" {
		raw["date_posted"] = model.String(datePosted)
	}
	if v := text(p["validThrough"]); v != "" {
		raw["valid_through"] = model.String(v)
	}
	if v := text(p["industry"]); v != "" {
		raw["industry"] = model.String(v)
	}
	addSalary(raw, p["baseSalary"])

	return model.NormalizedJob{
		SourceJobID:    id,
		CanonicalURL:   canonical,
		Title:          title,
		Company:        company,
		Location:       location,
		RemoteType:     remoteType(locationType, location),
		EmploymentType: employmentType(firstText(p["employmentType"])),
		Description:    description,
		PostedAt:       parseTime(datePosted),
		Raw:            raw,
	}, true
}

// text renders a scalar JSON-LD value as trimmed, unescaped text.
func text(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(html.UnescapeString(t))
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}

func firstText(v any) string {
	if list, ok := v.([]any); ok {
		for _, item := range list {
			if s := text(item); s != "" {
				return s
			}
		}
		return ""
	}
	return text(v)
}

// identifier accepts the plain and PropertyValue forms.
func identifier(v any) string {
	if m, ok := v.(map[string]any); ok {
		return text(m["value"])
	}
	return text(v)
}

func jobLocation(v any) string {
	var places []string
	var add func(v any)
	add = func(v any) {
		switch t := v.(type) {
		case []any:
			for _, item := range t {
				add(item)
			}
		case map[string]any:
			if s := address(t["address"]); s != "" {
				places = append(places, s)
			} else if s := text(t["name"]); s != "" {
				places = append(places, s)
			}
		case string:
			if s := text(t); s != "" {
				places = append(places, s)
			}
		}
	}
	add(v)
	return strings.Join(places, "; ")
}

func address(v any) string {
	m, ok := v.(map[string]any)
	if !ok {
		return text(v)
	}
	var parts []string
	for _, key := range []string{"addressLocality", "addressRegion", "addressCountry"} {
		val := m[key]
		if country, ok := val.(map[string]any); ok {
			val = country["name"]
		}
		if s := text(val); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

func applicantLocation(v any) string {
	switch t := v.(type) {
	case map[string]any:
		return text(t["name"])
	case []any:
		var names []string
		for _, item := range t {
			if s := applicantLocation(item); s != "" {
				names = append(names, s)
			}
		}
		return strings.Join(names, ", ")
	}
	return text(v)
}

func addSalary(raw model.RawPayload, v any) {
	salary, ok := v.(map[string]any)
	if !ok {
		return
	}
	if c := text(salary["currency"]); c != "" {
		raw["salary_currency"] = model.String(c)
	}
	value, ok := salary["value"].(map[string]any)
	if !ok {
		return
	}
	if n, ok := value["minValue"].(float64); ok {
		raw["salary_min"] = model.Number(n)
	}
	if n, ok := value["maxValue"].(float64); ok {
		raw["salary_max"] = model.Number(n)
	}
	if u := text(value["unitText"]); u != "" {
		raw["salary_unit"] = model.String(u)
	}
}
