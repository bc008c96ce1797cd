package notifier

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/amishk599/jobdigest/internal/model"
)

// Ensure DiscordSink implements model.Sink.
var _ model.Sink = (*DiscordSink)(nil)

// DiscordSink posts digests and alerts to a Discord channel webhook.
type DiscordSink struct {
	hook webhook
}

// NewDiscordSink returns a sink posting to webhookURL. An empty URL yields a
// sink whose every send fails with ErrNoWebhook.
func NewDiscordSink(webhookURL string, httpClient *http.Client, logger *slog.Logger) *DiscordSink {
	return &DiscordSink{hook: webhook{name: "discord", url: webhookURL, httpClient: httpClient, logger: logger}}
}

type discordPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds,omitempty"`
}

type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	URL         string         `json:"url,omitempty"`
	Footer      *discordFooter `json:"footer,omitempty"`
}

type discordFooter struct {
	Text string `json:"text"`
}

// Send posts msg as plain content, or as one embed for alerts.
func (d *DiscordSink) Send(ctx context.Context, msg model.Message) error {
	return d.hook.post(ctx, buildDiscordPayload(msg))
}

func buildDiscordPayload(msg model.Message) discordPayload {
	if msg.Alert == nil {
		return discordPayload{Content: msg.Content}
	}
	embed := discordEmbed{
		Title:       msg.Alert.Title,
		Description: msg.Alert.Description,
		URL:         msg.Alert.URL,
	}
	if msg.Alert.Footer != "" {
		embed.Footer = &discordFooter{Text: msg.Alert.Footer}
	}
	return discordPayload{Embeds: []discordEmbed{embed}}
}
