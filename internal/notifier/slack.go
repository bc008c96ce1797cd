package notifier

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/amishk599/jobdigest/internal/model"
)

// Ensure SlackSink implements model.Sink.
var _ model.Sink = (*SlackSink)(nil)

// SlackSink sends digests and alerts to a Slack channel via Incoming Webhooks.
type SlackSink struct {
	hook webhook
}

// NewSlackSink returns a sink posting to webhookURL.
func NewSlackSink(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackSink {
	return &SlackSink{hook: webhook{name: "slack", url: webhookURL, httpClient: httpClient, logger: logger}}
}

// Send posts digest text as a plain message and alerts as Block Kit blocks.
func (s *SlackSink) Send(ctx context.Context, msg model.Message) error {
	return s.hook.post(ctx, buildSlackPayload(msg))
}

// Block Kit payload types.

type slackPayload struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks,omitempty"`
}

type slackBlock struct {
	Type     string         `json:"type"`
	Text     *slackText     `json:"text,omitempty"`
	Elements []slackElement `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackElement struct {
	Type  string     `json:"type"`
	Text  *slackText `json:"text,omitempty"`
	URL   string     `json:"url,omitempty"`
	Style string     `json:"style,omitempty"`
}

// slackHeaderMax is Block Kit's limit for plain_text header blocks.
const slackHeaderMax = 150

func buildSlackPayload(msg model.Message) slackPayload {
	if msg.Alert == nil {
		return slackPayload{Text: msg.Content}
	}
	a := msg.Alert
	header := []rune(a.Title)
	if len(header) > slackHeaderMax {
		header = header[:slackHeaderMax]
	}

	blocks := []slackBlock{
		{Type: "header", Text: &slackText{Type: "plain_text", Text: string(header)}},
		{Type: "section", Text: &slackText{Type: "mrkdwn", Text: a.Description}},
	}
	if a.URL != "" {
		blocks = append(blocks, slackBlock{
			Type: "actions",
			Elements: []slackElement{{
				Type:  "button",
				Text:  &slackText{Type: "plain_text", Text: "Open posting"},
				URL:   a.URL,
				Style: "primary",
			}},
		})
	}
	if a.Footer != "" {
		blocks = append(blocks, slackBlock{Type: "section", Text: &slackText{Type: "mrkdwn", Text: "_" + a.Footer + "_"}})
	}
	blocks = append(blocks, slackBlock{Type: "divider"})

	return slackPayload{Text: msg.Text(), Blocks: blocks}
}
