// Package twilio implements provider.Sender over Twilio's Content API, used for both the
// WhatsApp and SMS channels. Hand-rolled over net/http in the same shape as providers/anthropic:
// a thin client struct of config, *http.Client, and logger, rather than a vendor SDK.
package twilio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Config configures a Client.
type Config struct {
	AccountSID string
	AuthToken  string
	BaseURL    string // defaults to https://api.twilio.com
	Timeout    time.Duration

	// WhatsAppPrefix, when true, prefixes both From and To numbers with "whatsapp:" as
	// Twilio's Content API requires for the WhatsApp channel.
	WhatsAppPrefix bool
}

// Client is the hand-rolled Twilio Content API client.
type Client struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// NewClient builds a Client, applying Twilio's default base URL and a conservative timeout
// when unset.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.twilio.com"
	}

	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type messageResponse struct {
	SID          string `json:"sid"`
	Status       string `json:"status"`
	ErrorCode    *int   `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// Send implements provider.Sender.
func (c *Client) Send(ctx context.Context, sender, recipient, templateID string, variables map[string]any) (string, error) {
	varsJSON, err := json.Marshal(stringifyValues(variables))
	if err != nil {
		return "", fmt.Errorf("twilio: marshal content variables: %w", err)
	}

	from, to := sender, recipient
	if c.cfg.WhatsAppPrefix {
		from = "whatsapp:" + strings.TrimPrefix(from, "whatsapp:")
		to = "whatsapp:" + strings.TrimPrefix(to, "whatsapp:")
	}

	form := url.Values{}
	form.Set("From", from)
	form.Set("To", to)
	form.Set("ContentSid", templateID)
	form.Set("ContentVariables", string(varsJSON))

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("twilio: build request: %w", err)
	}
	req.SetBasicAuth(c.cfg.AccountSID, c.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("twilio: send message: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("twilio: send message failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var out messageResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("twilio: decode response: %w", err)
	}
	if out.ErrorCode != nil {
		return "", fmt.Errorf("twilio: message rejected: code=%d message=%s", *out.ErrorCode, out.ErrorMessage)
	}

	return out.SID, nil
}

// stringifyValues converts an arbitrary variable map to Twilio's expected
// map[string]string ContentVariables shape.
func stringifyValues(variables map[string]any) map[string]string {
	out := make(map[string]string, len(variables))
	for k, v := range variables {
		if s, ok := v.(string); ok {
			out[k] = s
			continue
		}
		b, err := json.Marshal(v)
		if err != nil {
			out[k] = fmt.Sprintf("%v", v)
			continue
		}
		out[k] = string(bytes.Trim(b, `"`))
	}
	return out
}
