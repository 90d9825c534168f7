package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Errors returned by WebhookRelay.Share.
var (
	ErrWebhookNotConfigured = errors.New("webhook URL not configured")
	ErrEmptyMessage         = errors.New("no message provided")
	ErrWebhookRejected      = errors.New("webhook rejected message")
)

// discordMessageLimit is the longest content a Discord webhook accepts.
const discordMessageLimit = 2000

// Sharer posts a narrative message to an external chat channel.
type Sharer interface {
	Share(ctx context.Context, message string) error
}

// WebhookRelay posts messages to a Discord-compatible webhook.
type WebhookRelay struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// Ensure WebhookRelay implements Sharer interface
var _ Sharer = (*WebhookRelay)(nil)

// NewWebhookRelay creates a relay. An empty url yields a relay whose Share
// always returns ErrWebhookNotConfigured.
func NewWebhookRelay(url string, logger *slog.Logger) *WebhookRelay {
	return &WebhookRelay{
		url: url,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Configured reports whether a webhook URL is set.
func (w *WebhookRelay) Configured() bool {
	return w.url != ""
}

func (w *WebhookRelay) Share(ctx context.Context, message string) error {
	if !w.Configured() {
		return ErrWebhookNotConfigured
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return ErrEmptyMessage
	}
	if r := []rune(message); len(r) > discordMessageLimit {
		message = string(r[:discordMessageLimit-1]) + "…"
	}

	body, err := json.Marshal(map[string]string{"content": message})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWebhookRejected, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		w.logger.Warn("Webhook returned error",
			"status_code", resp.StatusCode,
			"response_body", string(detail))
		return fmt.Errorf("%w: status %d", ErrWebhookRejected, resp.StatusCode)
	}

	w.logger.Info("Shared narrative to webhook", "length", len(message))
	return nil
}
