package publisher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"veriflow/internal/events"
)

// WebhookSender POSTs encoded events to the ingestion webhooks. A non-2xx
// response is a delivery failure so the caller's retry policy can decide
// whether to redeliver.
type WebhookSender struct {
	baseURL string
	client  *http.Client
}

// NewWebhookSender builds a sender targeting baseURL. The HTTP client gets a
// bounded timeout; a webhook that exceeds it is expected to be retried, and
// ingestion is idempotent so re-running is safe.
func NewWebhookSender(baseURL string) *WebhookSender {
	return &WebhookSender{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *WebhookSender) Send(ctx context.Context, topic events.Topic, _ string, payload []byte) error {
	path := topic.WebhookPath()
	if path == "" {
		return fmt.Errorf("no webhook registered for topic %q", topic)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook %s returned %d: %s", path, resp.StatusCode, string(body))
	}
	return nil
}
