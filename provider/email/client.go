// Package email implements provider.Sender for the email channel over SendGrid's v3 mail/send
// API. Hand-rolled over net/http following the same corpus idiom as provider/twilio:
// no example repo imports a SendGrid SDK.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Config configures a Client.
type Config struct {
	AuthValue     string // SendGrid API key, sent as a Bearer token
	FromEmail     string
	FromName      string
	BaseURL       string // defaults to https://api.sendgrid.com
	Timeout       time.Duration
}

// Client is the hand-rolled SendGrid v3 client.
type Client struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// NewClient builds a Client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.sendgrid.com"
	}

	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type sendGridEmail struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendGridPersonalization struct {
	To                  []sendGridEmail `json:"to"`
	DynamicTemplateData map[string]any  `json:"dynamic_template_data,omitempty"`
}

type sendGridRequest struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridEmail             `json:"from"`
	TemplateID       string                    `json:"template_id"`
}

type sendGridErrorResp struct {
	Errors []struct {
		Message string `json:"message"`
		Field   string `json:"field"`
	} `json:"errors"`
}

// Send implements provider.Sender. sender is ignored in favor of the configured FromEmail —
// SendGrid's verified-sender model ties the from address to the API key, not the call site —
// but is accepted to satisfy the shared Sender contract.
func (c *Client) Send(ctx context.Context, _ string, recipient, templateID string, variables map[string]any) (string, error) {
	body := sendGridRequest{
		Personalizations: []sendGridPersonalization{{
			To:                  []sendGridEmail{{Email: recipient}},
			DynamicTemplateData: variables,
		}},
		From:       sendGridEmail{Email: c.cfg.FromEmail, Name: c.cfg.FromName},
		TemplateID: templateID,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("email: marshal request: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/v3/mail/send"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("email: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.AuthValue)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("email: send: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 300 {
		var errResp sendGridErrorResp
		if err := json.Unmarshal(respBody, &errResp); err == nil && len(errResp.Errors) > 0 {
			return "", fmt.Errorf("email: send rejected: status=%d message=%s", resp.StatusCode, errResp.Errors[0].Message)
		}
		return "", fmt.Errorf("email: send failed: status=%d body=%s", resp.StatusCode, string(respBody))
	}

	// SendGrid returns the message id in the X-Message-Id response header, not the body.
	messageID := resp.Header.Get("X-Message-Id")
	if messageID == "" {
		return "", fmt.Errorf("email: response missing X-Message-Id header")
	}
	return messageID, nil
}
