package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrNoWebhook is returned by webhook sinks that have no address configured.
var ErrNoWebhook = errors.New("webhook not configured")

// maxRetryAfter caps how long a 429 can stall a send.
const maxRetryAfter = 30 * time.Second

// webhook posts JSON bodies to an incoming-webhook URL, retrying once when
// rate limited.
type webhook struct {
	name       string
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

func (w *webhook) post(ctx context.Context, payload any) error {
	if w.url == "" {
		return ErrNoWebhook
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", w.name, err)
	}

	status, respBody, retryAfter, err := w.do(ctx, body)
	if err != nil {
		return err
	}
	if status == http.StatusTooManyRequests {
		w.logger.Warn(w.name+" rate limited, retrying", "retry_after", retryAfter)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryAfter):
		}
		status, respBody, _, err = w.do(ctx, body)
		if err != nil {
			return fmt.Errorf("%s retry: %w", w.name, err)
		}
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("%s returned %d: %s", w.name, status, respBody)
	}
	return nil
}

func (w *webhook) do(ctx context.Context, body []byte) (int, string, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return 0, "", 0, fmt.Errorf("build %s request: %w", w.name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return 0, "", 0, fmt.Errorf("post to %s: %w", w.name, err)
	}
	defer resp.Body.Close()

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 300))
	return resp.StatusCode, strings.TrimSpace(string(snippet)), parseRetryAfter(resp.Header.Get("Retry-After")), nil
}

// parseRetryAfter reads a Retry-After value in (possibly fractional) seconds.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || secs <= 0 {
		return time.Second
	}
	d := time.Duration(secs * float64(time.Second))
	if d > maxRetryAfter {
		d = maxRetryAfter
	}
	return d
}
