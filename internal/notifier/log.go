package notifier

import (
	"context"
	"log/slog"

	"github.com/amishk599/jobdigest/internal/model"
)

// Ensure LogSink implements model.Sink.
var _ model.Sink = (*LogSink)(nil)

// LogSink writes digests and alerts to the logger instead of a channel.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink returns a sink that logs each message via slog.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Send logs the message. It never fails.
func (n *LogSink) Send(_ context.Context, msg model.Message) error {
	if msg.Alert != nil {
		n.logger.Info("job alert", "title", msg.Alert.Title, "url", msg.Alert.URL, "footer", msg.Alert.Footer)
		return nil
	}
	n.logger.Info("digest message", "content", msg.Content)
	return nil
}
