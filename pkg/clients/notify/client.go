package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/lojasocial/backend/internal/config"
)

// Client delivers operational alerts to the configured webhook.
type Client interface {
	SendAlert(ctx context.Context, alert Alert) error
}

// Alert is the JSON payload posted to the webhook.
type Alert struct {
	Event   string            `json:"event"`
	Title   string            `json:"title"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// WebhookClient is a resty-backed implementation of Client.
type WebhookClient struct {
	httpClient *resty.Client
}

// NewClient builds a webhook alert client using the provided configuration values.
func NewClient(cfg config.NotifyConfig) *WebhookClient {
	restyClient := resty.New()
	restyClient.
		SetBaseURL(cfg.WebhookURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	if cfg.Token != "" {
		restyClient.SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.Token))
	}

	return &WebhookClient{httpClient: restyClient}
}

// webhookError represents an error payload returned by the webhook endpoint.
type webhookError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// SendAlert posts the alert and fails on any non-2xx response.
func (c *WebhookClient) SendAlert(ctx context.Context, alert Alert) error {
	apiErr := new(webhookError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(alert).
		SetError(apiErr).
		Post("")
	if err != nil {
		return fmt.Errorf("send alert: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		message := apiErr.Message
		if message == "" {
			message = apiErr.Error
		}
		return fmt.Errorf("alert webhook error: status=%d, message=%s", resp.StatusCode(), message)
	}

	return nil
}
