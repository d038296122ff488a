package notifier

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrMissingWebhookURL disables the Slack channel when no URL is configured.
var ErrMissingWebhookURL = errors.New("Slack webhook URL is not configured")

type slackClient struct {
	webhookURL string
	httpClient *http.Client
}

type slackPayload struct {
	Text string `json:"text"`
}

// NewSlackClient creates a Notifier posting to a Slack incoming webhook.
func NewSlackClient(webhookURL string) (Notifier, error) {
	if webhookURL == "" {
		return nil, ErrMissingWebhookURL
	}
	return &slackClient{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// SendMessage posts the message to the webhook. Slack answers "ok" with
// status 200 on success.
func (c *slackClient) SendMessage(text string) error {
	body, err := json.Marshal(slackPayload{Text: text})
	if err != nil {
		return fmt.Errorf("failed to marshal Slack payload: %w", err)
	}

	resp, err := c.httpClient.Post(c.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to post to Slack webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("Slack webhook returned status %d: %s", resp.StatusCode, detail)
	}
	return nil
}
