package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tamersaid2022/sdwan-health-monitor/pkg/models"
)

// Compile-time interface guard.
var _ Notifier = (*SlackNotifier)(nil)

// SlackConfig holds configuration for Slack webhook delivery.
type SlackConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	WebhookURL string        `mapstructure:"webhook_url"`
	Channel    string        `mapstructure:"channel"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// slackPayload is the JSON body posted to the Slack incoming webhook.
type slackPayload struct {
	Channel string `json:"channel,omitempty"`
	Text    string `json:"text"`
}

// SlackNotifier delivers alerts to a Slack incoming webhook.
type SlackNotifier struct {
	client *http.Client
	cfg    SlackConfig
}

// NewSlackNotifier creates a Slack notifier with the given config.
func NewSlackNotifier(cfg SlackConfig) *SlackNotifier {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &SlackNotifier{
		client: &http.Client{Timeout: timeout},
		cfg:    cfg,
	}
}

// Notify posts the alert to the configured webhook URL.
func (s *SlackNotifier) Notify(ctx context.Context, alert models.Alert) error {
	payload := slackPayload{
		Channel: s.cfg.Channel,
		Text: fmt.Sprintf("*SD-WAN Alert* [%s]\nDevice: %s\n%s",
			strings.ToUpper(string(alert.Severity)), alert.Device, alert.Message),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack POST: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain body for connection reuse

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("slack POST: status %d", resp.StatusCode)
	}

	return nil
}

// Type returns the notifier type identifier.
func (s *SlackNotifier) Type() string {
	return "slack"
}
