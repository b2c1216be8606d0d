// Package mailer sends transactional email through the hosted email API.
// Auth-flow emails (confirmation, password reset) are sent by the auth
// provider itself; this client covers app-originated mail only.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultBaseURL = "https://api.resend.com"
	sendTimeout    = 15 * time.Second
)

// Sender is what handlers depend on; tests swap in a fake.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type Message struct {
	To      string `json:"-"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// Client talks to the email API.
type Client struct {
	baseURL string
	apiKey  string
	from    string
	http    *http.Client
}

func New(apiKey, from string) *Client {
	return NewWithBaseURL(defaultBaseURL, apiKey, from)
}

func NewWithBaseURL(baseURL, apiKey, from string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		from:    from,
		http: &http.Client{
			Timeout: sendTimeout,
		},
	}
}

func (c *Client) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(map[string]any{
		"from":    c.from,
		"to":      []string{msg.To},
		"subject": msg.Subject,
		"text":    msg.Text,
	})
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("email request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("email api returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
