package adapter

import (
	"html"
	"regexp"
	"strings"
	"time"
)

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

// extractText converts an HTML or HTML-encoded string to plain text.
// It first unescapes HTML entities (handles Greenhouse's double-encoding;
// no-op on already-real HTML), strips all tags, then collapses whitespace.
func extractText(content string) string {
	unescaped := html.UnescapeString(content)
	plain := htmlTagRegex.ReplaceAllString(unescaped, " ")
	return strings.Join(strings.Fields(html.UnescapeString(plain)), " ")
}

// remoteType maps a workplace hint ("Remote", "on-site", "TELECOMMUTE")
// to remote, hybrid, onsite or unknown. Hints are tried in order and the
// first recognised one wins.
func remoteType(hints ...string) string {
	for _, h := range hints {
		l := strings.ToLower(h)
		switch {
		case strings.Contains(l, "hybrid"):
			return "hybrid"
		case strings.Contains(l, "remote"), strings.Contains(l, "telecommute"), strings.Contains(l, "anywhere"):
			return "remote"
		case strings.Contains(l, "onsite"), strings.Contains(l, "on-site"), strings.Contains(l, "in office"), strings.Contains(l, "in-office"):
			return "onsite"
		}
	}
	return "unknown"
}

// employmentType folds the many spellings sources use ("FullTime",
// "FULL_TIME", "Full time") into one lower-case form.
func employmentType(s string) string {
	l := strings.ToLower(strings.TrimSpace(s))
	if l == "" {
		return "unknown"
	}
	folded := strings.NewReplacer("_", "", "-", "", " ", "").Replace(l)
	switch {
	case strings.HasPrefix(folded, "fulltime"):
		return "full-time"
	case strings.HasPrefix(folded, "parttime"):
		return "part-time"
	case strings.HasPrefix(folded, "contract"):
		return "contract"
	case strings.HasPrefix(folded, "intern"):
		return "internship"
	case strings.HasPrefix(folded, "temp"):
		return "temporary"
	case strings.HasPrefix(folded, "freelance"):
		return "freelance"
	}
	return l
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02",
}

// parseTime parses the timestamp shapes job APIs emit and returns it in UTC.
// It returns nil for empty or unparseable input.
func parseTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
