package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/amishk599/jobdigest/internal/model"
)

// Supported channel kinds.
const (
	KindDiscord = "discord"
	KindSlack   = "slack"
	KindLog     = "log"
)

// Factory builds the configured sink for a webhook address. The address comes
// from the runtime notification settings and falls back to DefaultURL.
type Factory struct {
	Kind       string
	DefaultURL string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Channel is the name recorded on notification rows.
func (f Factory) Channel() string {
	if f.Kind == "" {
		return KindDiscord
	}
	return f.Kind
}

// Sink returns a sink for webhookURL.
func (f Factory) Sink(webhookURL string) model.Sink {
	if webhookURL == "" {
		webhookURL = f.DefaultURL
	}
	client := f.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	switch f.Channel() {
	case KindSlack:
		return NewSlackSink(webhookURL, client, f.Logger)
	case KindLog:
		return NewLogSink(f.Logger)
	default:
		return NewDiscordSink(webhookURL, client, f.Logger)
	}
}

// SendTestMessage sends a sample alert to verify the channel works.
func SendTestMessage(ctx context.Context, s model.Sink) error {
	now := time.Now().UTC()
	msg := model.Message{Alert: &model.Alert{
		Title:       "[ACCEPT] Test notification",
		URL:         "https://example.com/jobs/test",
		Description: "Company: jobdigest\nSource: test\nScore: 100.0 (accept)",
		Footer:      "sent " + now.Format(time.RFC3339),
	}}
	if err := s.Send(ctx, msg); err != nil {
		return fmt.Errorf("sending test message: %w", err)
	}
	return nil
}
