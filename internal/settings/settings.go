// Package settings reads and seeds the runtime configuration blobs kept in
// the store: the scoring rubric and the notification settings. Malformed
// values fall back to safe defaults with a warning; they are never fatal.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/jobdigest/internal/model"
	"github.com/amishk599/jobdigest/internal/scoring"
)

// Setting keys.
const (
	KeyScoring       = "scoring"
	KeyNotifications = "notifications"
)

// DefaultDailyLimit is the daily push limit when none is configured.
const DefaultDailyLimit = 50

// Notifications is the notification settings blob.
type Notifications struct {
	WebhookURL    string `json:"webhook_url"`
	QuietStart    *int   `json:"quiet_hours_start_utc"`
	QuietEnd      *int   `json:"quiet_hours_end_utc"`
	DailyLimit    int    `json:"daily_job_push_limit"`
	InstantAlerts bool   `json:"instant_alerts"`
	Sentinel      string `json:"digest_sentinel"`
}

// DefaultNotifications returns the settings used when nothing is stored.
func DefaultNotifications() Notifications {
	return Notifications{DailyLimit: DefaultDailyLimit, InstantAlerts: true}
}

// InQuietHours reports whether now falls in the quiet window. The window is
// [start, end) in UTC hours and wraps past midnight when start > end.
func (n Notifications) InQuietHours(now time.Time) bool {
	if n.QuietStart == nil || n.QuietEnd == nil {
		return false
	}
	start, end := *n.QuietStart, *n.QuietEnd
	hour := now.UTC().Hour()
	if start <= end {
		return start <= hour && hour < end
	}
	return hour >= start || hour < end
}

// ParseNotifications decodes the blob field by field. Each malformed field is
// replaced by its default and reported in warnings.
func ParseNotifications(data []byte) (Notifications, []string) {
	n := DefaultNotifications()
	var warnings []string

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return n, []string{fmt.Sprintf("notification settings are not a JSON object: %v", err)}
	}

	if raw, ok := fields["webhook_url"]; ok {
		if err := json.Unmarshal(raw, &n.WebhookURL); err != nil {
			warnings = append(warnings, "webhook_url is not a string")
		}
	} else if raw, ok := fields["discord_webhook_url"]; ok {
		if err := json.Unmarshal(raw, &n.WebhookURL); err != nil {
			warnings = append(warnings, "discord_webhook_url is not a string")
		}
	}

	if raw, ok := fields["daily_job_push_limit"]; ok && !isNull(raw) {
		limit, err := lenientInt(raw)
		switch {
		case err != nil:
			warnings = append(warnings, fmt.Sprintf("daily_job_push_limit %s is not a number, using %d", raw, DefaultDailyLimit))
		case limit < 1:
			warnings = append(warnings, fmt.Sprintf("daily_job_push_limit %d is below 1, using 1", limit))
			n.DailyLimit = 1
		default:
			n.DailyLimit = limit
		}
	}

	n.QuietStart, warnings = parseHour(fields, "quiet_hours_start_utc", warnings)
	n.QuietEnd, warnings = parseHour(fields, "quiet_hours_end_utc", warnings)

	if raw, ok := fields["instant_alerts"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &n.InstantAlerts); err != nil {
			n.InstantAlerts = true
			warnings = append(warnings, "instant_alerts is not a boolean, using true")
		}
	}
	if raw, ok := fields["digest_sentinel"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &n.Sentinel); err != nil {
			warnings = append(warnings, "digest_sentinel is not a string")
		}
	}
	return n, warnings
}

func parseHour(fields map[string]json.RawMessage, key string, warnings []string) (*int, []string) {
	raw, ok := fields[key]
	if !ok || isNull(raw) {
		return nil, warnings
	}
	h, err := lenientInt(raw)
	if err != nil || h < 0 || h > 23 {
		return nil, append(warnings, fmt.Sprintf("%s %s is not an hour 0-23, quiet hours disabled", key, raw))
	}
	return &h, warnings
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

// lenientInt accepts JSON numbers and numeric strings.
func lenientInt(raw json.RawMessage) (int, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		if f != math.Trunc(f) {
			return 0, fmt.Errorf("%v is not an integer", f)
		}
		return int(f), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(s))
}

// Loader reads settings from the repository.
type Loader struct {
	repo   model.Repository
	logger *slog.Logger
}

// NewLoader creates a Loader.
func NewLoader(repo model.Repository, logger *slog.Logger) *Loader {
	return &Loader{repo: repo, logger: logger}
}

// Rubric returns the stored rubric, or the default one when it is missing or
// invalid.
func (l *Loader) Rubric(ctx context.Context) scoring.Rubric {
	data, err := l.repo.GetSetting(ctx, KeyScoring)
	if errors.Is(err, model.ErrNotFound) {
		return scoring.DefaultRubric()
	}
	if err != nil {
		l.logger.Warn("reading scoring settings failed, using default rubric", "error", err)
		return scoring.DefaultRubric()
	}
	r, err := scoring.ParseRubric(data)
	if err != nil {
		l.logger.Warn("invalid scoring settings, using default rubric", "error", err)
		return scoring.DefaultRubric()
	}
	return r
}

// Notifications returns the stored notification settings with defaults
// substituted for malformed fields.
func (l *Loader) Notifications(ctx context.Context) Notifications {
	data, err := l.repo.GetSetting(ctx, KeyNotifications)
	if errors.Is(err, model.ErrNotFound) {
		return DefaultNotifications()
	}
	if err != nil {
		l.logger.Warn("reading notification settings failed, using defaults", "error", err)
		return DefaultNotifications()
	}
	n, warnings := ParseNotifications(data)
	for _, w := range warnings {
		l.logger.Warn("invalid notification setting", "detail", w)
	}
	return n
}

// Seed stores the default rubric and the given notification settings for
// keys that do not exist yet.
func (l *Loader) Seed(ctx context.Context, notifications Notifications) error {
	defaults := map[string]any{
		KeyScoring:       scoring.DefaultRubric(),
		KeyNotifications: notifications,
	}
	for _, key := range []string{KeyScoring, KeyNotifications} {
		_, err := l.repo.GetSetting(ctx, key)
		if err == nil {
			continue
		}
		if !errors.Is(err, model.ErrNotFound) {
			return fmt.Errorf("checking setting %q: %w", key, err)
		}
		data, err := json.Marshal(defaults[key])
		if err != nil {
			return fmt.Errorf("encoding default %q: %w", key, err)
		}
		if err := l.repo.PutSetting(ctx, key, data); err != nil {
			return err
		}
		l.logger.Info("seeded setting", "key", key)
	}
	return nil
}
