package settings

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/jobdigest/internal/scoring"
	"github.com/amishk599/jobdigest/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func intPtr(i int) *int { return &i }

func TestParseNotifications_Valid(t *testing.T) {
	n, warnings := ParseNotifications([]byte(`{
		"webhook_url": "https://hooks.example/1",
		"quiet_hours_start_utc": 22,
		"quiet_hours_end_utc": 6,
		"daily_job_push_limit": 20,
		"instant_alerts": false,
		"digest_sentinel": "DONE"
	}`))
	assert.Empty(t, warnings)
	assert.Equal(t, "https://hooks.example/1", n.WebhookURL)
	assert.Equal(t, 22, *n.QuietStart)
	assert.Equal(t, 6, *n.QuietEnd)
	assert.Equal(t, 20, n.DailyLimit)
	assert.False(t, n.InstantAlerts)
	assert.Equal(t, "DONE", n.Sentinel)
}

func TestParseNotifications_Defaults(t *testing.T) {
	n, warnings := ParseNotifications([]byte(`{}`))
	assert.Empty(t, warnings)
	assert.Equal(t, DefaultNotifications(), n)
	assert.Equal(t, 50, n.DailyLimit)
	assert.True(t, n.InstantAlerts)
}

func TestParseNotifications_MalformedFieldsFallBack(t *testing.T) {
	n, warnings := ParseNotifications([]byte(`{
		"daily_job_push_limit": "lots",
		"quiet_hours_start_utc": 25,
		"quiet_hours_end_utc": 3,
		"instant_alerts": "yes"
	}`))
	assert.Len(t, warnings, 3)
	assert.Equal(t, DefaultDailyLimit, n.DailyLimit)
	assert.Nil(t, n.QuietStart)
	assert.True(t, n.InstantAlerts)
	assert.False(t, n.InQuietHours(time.Date(2026, 1, 1, 2, 0, 0, 0, time.UTC)))
}

func TestParseNotifications_LimitCoercion(t *testing.T) {
	n, _ := ParseNotifications([]byte(`{"daily_job_push_limit": "30"}`))
	assert.Equal(t, 30, n.DailyLimit)

	n, warnings := ParseNotifications([]byte(`{"daily_job_push_limit": 0}`))
	assert.Equal(t, 1, n.DailyLimit)
	assert.Len(t, warnings, 1)

	n, _ = ParseNotifications([]byte(`{"daily_job_push_limit": null}`))
	assert.Equal(t, DefaultDailyLimit, n.DailyLimit)
}

func TestParseNotifications_NotAnObject(t *testing.T) {
	n, warnings := ParseNotifications([]byte(`[1,2]`))
	assert.Len(t, warnings, 1)
	assert.Equal(t, DefaultNotifications(), n)
}

func TestParseNotifications_LegacyWebhookKey(t *testing.T) {
	n, _ := ParseNotifications([]byte(`{"discord_webhook_url": "https://discord.example/x"}`))
	assert.Equal(t, "https://discord.example/x", n.WebhookURL)
}

func TestParseNotifications_BadLegacyWebhookKeyWarns(t *testing.T) {
	n, warnings := ParseNotifications([]byte(`{"discord_webhook_url": 42}`))
	assert.Empty(t, n.WebhookURL)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "discord_webhook_url")
}

func TestInQuietHours(t *testing.T) {
	at := func(h int) time.Time { return time.Date(2026, 1, 1, h, 30, 0, 0, time.UTC) }

	day := Notifications{QuietStart: intPtr(9), QuietEnd: intPtr(17)}
	assert.False(t, day.InQuietHours(at(8)))
	assert.True(t, day.InQuietHours(at(9)))
	assert.True(t, day.InQuietHours(at(16)))
	assert.False(t, day.InQuietHours(at(17)))

	night := Notifications{QuietStart: intPtr(22), QuietEnd: intPtr(6)}
	assert.True(t, night.InQuietHours(at(23)))
	assert.True(t, night.InQuietHours(at(0)))
	assert.True(t, night.InQuietHours(at(5)))
	assert.False(t, night.InQuietHours(at(6)))
	assert.False(t, night.InQuietHours(at(12)))

	assert.False(t, Notifications{QuietStart: intPtr(3)}.InQuietHours(at(3)))

	// Non-UTC clocks are converted first.
	local := time.FixedZone("UTC+2", 2*3600)
	assert.True(t, night.InQuietHours(time.Date(2026, 1, 1, 1, 0, 0, 0, local)))
}

func TestLoader_RubricFallsBack(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryStore()
	l := NewLoader(repo, discardLogger())

	assert.Equal(t, scoring.DefaultRubric(), l.Rubric(ctx))

	require.NoError(t, repo.PutSetting(ctx, KeyScoring, []byte(`{"threshold": "nope"}`)))
	assert.Equal(t, scoring.DefaultRubric(), l.Rubric(ctx))

	custom := scoring.DefaultRubric()
	custom.Threshold = 55
	data, err := json.Marshal(custom)
	require.NoError(t, err)
	require.NoError(t, repo.PutSetting(ctx, KeyScoring, data))
	assert.Equal(t, 55.0, l.Rubric(ctx).Threshold)
}

func TestLoader_SeedOnlyFillsMissing(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryStore()
	l := NewLoader(repo, discardLogger())

	require.NoError(t, repo.PutSetting(ctx, KeyNotifications, []byte(`{"daily_job_push_limit": 5}`)))
	require.NoError(t, l.Seed(ctx, Notifications{WebhookURL: "https://x", DailyLimit: 50}))

	assert.Equal(t, 5, l.Notifications(ctx).DailyLimit)

	data, err := repo.GetSetting(ctx, KeyScoring)
	require.NoError(t, err)
	r, err := scoring.ParseRubric(data)
	require.NoError(t, err)
	assert.Equal(t, scoring.DefaultRubric(), r)
}
