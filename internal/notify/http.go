package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/utafrali/gigmarket/pkg/httpclient"
)

// HTTPDispatcher posts notifications as JSON to a webhook. Requests go
// through a circuit breaker so a dead endpoint is not hammered.
type HTTPDispatcher struct {
	url    string
	client *httpclient.CircuitBreakerClient
}

// NewHTTPDispatcher creates a webhook dispatcher. Retries are disabled.
func NewHTTPDispatcher(url string, timeout time.Duration, logger *slog.Logger) *HTTPDispatcher {
	cfg := httpclient.DefaultConfig()
	cfg.Timeout = timeout
	cfg.MaxRetries = 0

	return &HTTPDispatcher{
		url: url,
		client: httpclient.NewCircuitBreakerClient(
			httpclient.New(cfg),
			httpclient.DefaultCircuitBreakerConfig("notification-webhook"),
			logger,
		),
	}
}

// Name implements Dispatcher.
func (d *HTTPDispatcher) Name() string { return "http" }

// Notify implements Dispatcher.
func (d *HTTPDispatcher) Notify(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	resp, err := d.client.Post(ctx, d.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post notification: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return httpclient.ParseResponseError(resp, "notification-webhook")
	}
	_ = resp.Body.Close()
	return nil
}
