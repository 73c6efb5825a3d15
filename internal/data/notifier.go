package data

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"SnakeKeeper/internal/conf"
	pkglog "SnakeKeeper/pkg/log"

	"github.com/go-kratos/kratos/v2/log"
)

// Notifier delivers a human-readable alert.
type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

// LogNotifier writes notifications to the log. It is always part of the chain.
type LogNotifier struct {
	logger *pkglog.LogHelper
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger log.Logger) *LogNotifier {
	return &LogNotifier{logger: pkglog.NewLogHelper(logger)}
}

// Notify logs the notification.
func (n *LogNotifier) Notify(_ context.Context, title, body string) error {
	n.logger.Notify(title, "content", body)
	return nil
}

// WebhookNotifier posts {"title", "content"} as JSON to a URL.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier creates a WebhookNotifier.
func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookNotifier{url: url, client: &http.Client{Timeout: timeout}}
}

type webhookPayload struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Notify posts the notification. Any non-2xx status is an error.
func (n *WebhookNotifier) Notify(ctx context.Context, title, body string) error {
	payload, err := json.Marshal(webhookPayload{Title: title, Content: body})
	if err != nil {
		return fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

// MultiNotifier fans a notification out to every sink.
type MultiNotifier struct {
	sinks []Notifier
}

// NewMultiNotifier creates a MultiNotifier.
func NewMultiNotifier(sinks ...Notifier) *MultiNotifier {
	return &MultiNotifier{sinks: sinks}
}

// Notify calls every sink and joins their errors.
func (m *MultiNotifier) Notify(ctx context.Context, title, body string) error {
	var errs []error
	for _, sink := range m.sinks {
		if err := sink.Notify(ctx, title, body); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewNotifier builds the configured chain: the log sink, plus the webhook when
// notify.webhook_url is set.
func NewNotifier(c *conf.Notify, logger log.Logger) *MultiNotifier {
	sinks := []Notifier{NewLogNotifier(logger)}
	if c != nil && c.WebhookURL != "" {
		sinks = append(sinks, NewWebhookNotifier(c.WebhookURL, c.Timeout))
	}
	return NewMultiNotifier(sinks...)
}
