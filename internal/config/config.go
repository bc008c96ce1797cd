package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/amishk599/jobdigest/internal/adapter"
	"github.com/amishk599/jobdigest/internal/model"
	"github.com/amishk599/jobdigest/internal/scheduler"
)

// Config is the root configuration for the jobdigest process.
type Config struct {
	Database     DatabaseConfig
	Schedule     string // cron spec for the daemon, e.g. "@every 1h"
	Crawl        CrawlConfig
	Notification NotificationConfig
	Sources      []SourceConfig
	RateLimit    RateLimitConfig
	Retry        RetryConfig
	API          APIConfig
}

// DatabaseConfig selects the repository backend.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "postgres"
	DSN    string `yaml:"dsn"`
}

// CrawlConfig controls the pre-dedup filter and outbound fetches.
type CrawlConfig struct {
	RecentOnly      bool
	RecentWindow    time.Duration
	ClockSkew       time.Duration
	ExcludeKeywords []string
	TitleKeywords   []string
	Locations       []string
	HTTPTimeout     time.Duration
}

// NotificationConfig picks the delivery channel. The remaining fields seed
// the runtime notification settings the first time the store is opened.
type NotificationConfig struct {
	Type          string
	WebhookURL    string
	Timeout       time.Duration
	DailyLimit    int
	QuietStartUTC *int
	QuietEndUTC   *int
	InstantAlerts bool
	Sentinel      string
}

// SourceConfig describes one job source. Sources are synced into the store
// by name at startup.
type SourceConfig struct {
	Name       string `yaml:"name"`
	Kind       string `yaml:"kind"`
	BaseURL    string `yaml:"base_url"`
	BoardToken string `yaml:"board_token"`
	ListingURL string `yaml:"listing_url"`
	Enabled    bool   `yaml:"enabled"`
}

// Source converts the entry to its store record.
func (s SourceConfig) Source() model.Source {
	return model.Source{
		Name:       s.Name,
		Kind:       s.Kind,
		BaseURL:    s.BaseURL,
		BoardToken: s.BoardToken,
		ListingURL: s.ListingURL,
		Enabled:    s.Enabled,
	}
}

// RateLimitConfig controls per-host politeness delays.
type RateLimitConfig struct {
	MinDelay      time.Duration            // minimum gap between requests to the same host
	HostOverrides map[string]time.Duration // keyed by host name
}

// RetryConfig controls the adapter retry decorator.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// APIConfig controls the HTTP API served by `jobdigest serve`.
type APIConfig struct {
	Addr        string
	CORSOrigins []string
}

const (
	defaultSchedule     = "@every 1h"
	defaultDSN          = "jobdigest.db"
	defaultAddr         = ":8080"
	defaultDailyLimit   = 50
	defaultMaxRetries   = 2
	slackWebhookPrefix  = "https://hooks.slack.com/"
	discordWebhookHost  = "discord.com"
	discordLegacyHost   = "discordapp.com"
	notificationDiscord = "discord"
	notificationSlack   = "slack"
	notificationLog     = "log"
)

// rawConfig is used for YAML unmarshaling (snake_case fields and durations as strings).
type rawConfig struct {
	Database     DatabaseConfig        `yaml:"database"`
	Schedule     string                `yaml:"schedule"`
	Crawl        rawCrawlConfig        `yaml:"crawl"`
	Notification rawNotificationConfig `yaml:"notification"`
	Sources      []SourceConfig        `yaml:"sources"`
	RateLimit    rawRateLimitConfig    `yaml:"rate_limit"`
	Retry        rawRetryConfig        `yaml:"retry"`
	API          rawAPIConfig          `yaml:"api"`
}

type rawCrawlConfig struct {
	RecentOnly      *bool    `yaml:"recent_only"`
	RecentWindow    string   `yaml:"recent_window"`
	ClockSkew       string   `yaml:"clock_skew"`
	ExcludeKeywords []string `yaml:"exclude_keywords"`
	TitleKeywords   []string `yaml:"title_keywords"`
	Locations       []string `yaml:"locations"`
	HTTPTimeout     string   `yaml:"http_timeout"`
}

type rawNotificationConfig struct {
	Type          string `yaml:"type"`
	WebhookURL    string `yaml:"webhook_url"`
	Timeout       string `yaml:"timeout"`
	DailyLimit    *int   `yaml:"daily_job_push_limit"`
	QuietStartUTC *int   `yaml:"quiet_hours_start_utc"`
	QuietEndUTC   *int   `yaml:"quiet_hours_end_utc"`
	InstantAlerts *bool  `yaml:"instant_alerts"`
	Sentinel      string `yaml:"digest_sentinel"`
}

type rawRateLimitConfig struct {
	MinDelay      string            `yaml:"min_delay"`
	HostOverrides map[string]string `yaml:"host_overrides"`
}

type rawRetryConfig struct {
	MaxRetries *int   `yaml:"max_retries"`
	BaseDelay  string `yaml:"base_delay"`
}

type rawAPIConfig struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// Load reads the YAML config file at path, expands environment variables
// (after loading a .env file next to it, if present), applies defaults,
// validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := loadDotEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg, err := fromRaw(raw)
	if err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv loads KEY=VALUE pairs from file without overriding variables
// that are already set. A missing file is not an error.
func loadDotEnv(file string) error {
	if _, err := os.Stat(file); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(file); err != nil {
		return fmt.Errorf("load %s: %w", file, err)
	}
	return nil
}

func fromRaw(raw rawConfig) (*Config, error) {
	var err error
	cfg := &Config{
		Database: raw.Database,
		Schedule: raw.Schedule,
		Sources:  raw.Sources,
		API: APIConfig{
			Addr:        raw.API.Addr,
			CORSOrigins: raw.API.CORSOrigins,
		},
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" && cfg.Database.Driver == "sqlite" {
		cfg.Database.DSN = defaultDSN
	}
	if cfg.Schedule == "" {
		cfg.Schedule = defaultSchedule
	}
	if cfg.API.Addr == "" {
		cfg.API.Addr = defaultAddr
	}

	crawl := CrawlConfig{
		RecentOnly:      true,
		ExcludeKeywords: raw.Crawl.ExcludeKeywords,
		TitleKeywords:   raw.Crawl.TitleKeywords,
		Locations:       raw.Crawl.Locations,
	}
	if raw.Crawl.RecentOnly != nil {
		crawl.RecentOnly = *raw.Crawl.RecentOnly
	}
	if crawl.RecentWindow, err = parseDuration("crawl.recent_window", raw.Crawl.RecentWindow, 24*time.Hour); err != nil {
		return nil, err
	}
	if crawl.ClockSkew, err = parseDuration("crawl.clock_skew", raw.Crawl.ClockSkew, 10*time.Minute); err != nil {
		return nil, err
	}
	if crawl.HTTPTimeout, err = parseDuration("crawl.http_timeout", raw.Crawl.HTTPTimeout, 30*time.Second); err != nil {
		return nil, err
	}
	cfg.Crawl = crawl

	n := NotificationConfig{
		Type:          strings.ToLower(raw.Notification.Type),
		WebhookURL:    raw.Notification.WebhookURL,
		DailyLimit:    defaultDailyLimit,
		QuietStartUTC: raw.Notification.QuietStartUTC,
		QuietEndUTC:   raw.Notification.QuietEndUTC,
		InstantAlerts: true,
		Sentinel:      raw.Notification.Sentinel,
	}
	if n.Type == "" {
		n.Type = notificationDiscord
	}
	if raw.Notification.DailyLimit != nil {
		n.DailyLimit = *raw.Notification.DailyLimit
	}
	if raw.Notification.InstantAlerts != nil {
		n.InstantAlerts = *raw.Notification.InstantAlerts
	}
	if n.Timeout, err = parseDuration("notification.timeout", raw.Notification.Timeout, 20*time.Second); err != nil {
		return nil, err
	}
	cfg.Notification = n

	if cfg.RateLimit.MinDelay, err = parseDuration("rate_limit.min_delay", raw.RateLimit.MinDelay, 2*time.Second); err != nil {
		return nil, err
	}
	cfg.RateLimit.HostOverrides = make(map[string]time.Duration, len(raw.RateLimit.HostOverrides))
	for host, v := range raw.RateLimit.HostOverrides {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse rate_limit.host_overrides[%q]: %w", host, err)
		}
		cfg.RateLimit.HostOverrides[strings.ToLower(host)] = d
	}

	cfg.Retry.MaxRetries = defaultMaxRetries
	if raw.Retry.MaxRetries != nil {
		cfg.Retry.MaxRetries = *raw.Retry.MaxRetries
	}
	if cfg.Retry.BaseDelay, err = parseDuration("retry.base_delay", raw.Retry.BaseDelay, 5*time.Second); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseDuration(field, value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, value, err)
	}
	return d, nil
}

func validate(cfg *Config) error {
	switch cfg.Database.Driver {
	case "sqlite":
	case "postgres":
		if cfg.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", cfg.Database.Driver)
	}

	if err := scheduler.Validate(cfg.Schedule); err != nil {
		return fmt.Errorf("schedule: %w", err)
	}

	if cfg.Crawl.RecentWindow <= 0 {
		return fmt.Errorf("crawl.recent_window must be positive, got %v", cfg.Crawl.RecentWindow)
	}
	if cfg.Crawl.ClockSkew < 0 {
		return fmt.Errorf("crawl.clock_skew must not be negative, got %v", cfg.Crawl.ClockSkew)
	}
	if cfg.Crawl.HTTPTimeout <= 0 {
		return fmt.Errorf("crawl.http_timeout must be positive, got %v", cfg.Crawl.HTTPTimeout)
	}

	if err := validateNotification(cfg.Notification); err != nil {
		return err
	}

	seen := make(map[string]bool, len(cfg.Sources))
	for i, s := range cfg.Sources {
		if s.Name == "" {
			return fmt.Errorf("sources[%d]: name is required", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("sources[%d]: duplicate name %q", i, s.Name)
		}
		seen[s.Name] = true
		if err := adapter.Validate(s.Source()); err != nil {
			return fmt.Errorf("sources[%d]: %w", i, err)
		}
	}

	if cfg.RateLimit.MinDelay < 0 {
		return fmt.Errorf("rate_limit.min_delay must not be negative, got %v", cfg.RateLimit.MinDelay)
	}
	if cfg.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative, got %d", cfg.Retry.MaxRetries)
	}

	return nil
}

func validateNotification(n NotificationConfig) error {
	switch n.Type {
	case notificationDiscord:
		if n.WebhookURL != "" && !isDiscordWebhook(n.WebhookURL) {
			return fmt.Errorf("notification.webhook_url must be a discord webhook when type is \"discord\"")
		}
	case notificationSlack:
		if n.WebhookURL != "" && !strings.HasPrefix(n.WebhookURL, slackWebhookPrefix) {
			return fmt.Errorf("notification.webhook_url must start with %s", slackWebhookPrefix)
		}
	case notificationLog:
	default:
		return fmt.Errorf("notification.type must be discord, slack or log, got %q", n.Type)
	}

	if n.DailyLimit < 1 {
		return fmt.Errorf("notification.daily_job_push_limit must be at least 1, got %d", n.DailyLimit)
	}
	for name, h := range map[string]*int{"quiet_hours_start_utc": n.QuietStartUTC, "quiet_hours_end_utc": n.QuietEndUTC} {
		if h != nil && (*h < 0 || *h > 23) {
			return fmt.Errorf("notification.%s must be between 0 and 23, got %d", name, *h)
		}
	}
	if (n.QuietStartUTC == nil) != (n.QuietEndUTC == nil) {
		return fmt.Errorf("notification.quiet_hours_start_utc and quiet_hours_end_utc must be set together")
	}
	return nil
}

func isDiscordWebhook(u string) bool {
	for _, host := range []string{discordWebhookHost, discordLegacyHost} {
		if strings.HasPrefix(u, "https://"+host+"/api/webhooks/") {
			return true
		}
	}
	return false
}
