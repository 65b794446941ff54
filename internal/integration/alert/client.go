// Package alert posts order-created notifications to the store's alert
// channel (a chat-bridge webhook). Delivery is best-effort; callers decide
// what to do with a failure, and the checkout path just logs it.
package alert

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/lojaviva/checkout/internal/domain"
)

type Client struct {
	httpClient *resty.Client
	webhookURL string
}

func NewClient(webhookURL string) *Client {
	return &Client{
		httpClient: resty.New(),
		webhookURL: webhookURL,
	}
}

func (c *Client) NotifyOrderCreated(ctx context.Context, alert domain.OrderAlert) error {
	if c.webhookURL == "" {
		return nil
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(alert).
		Post(c.webhookURL)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("alert webhook returned %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
