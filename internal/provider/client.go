// Package provider is the HTTP client for the hosted auth service. Every
// auth operation in the app (sign-up, password grant, refresh, recovery,
// MFA, sign-out) goes through this client; nothing here retries.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/impactlens/impact-backend/internal/apperr"
)

const DefaultTimeout = 10 * time.Second

// Client talks to the provider's auth REST API.
type Client struct {
	baseURL   string
	publicKey string
	http      *http.Client
}

func New(baseURL, publicKey string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		publicKey: publicKey,
		http: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// doJSON issues one request and decodes the response into out (when out is
// non-nil). Provider rejections become apperr.ProviderError with the
// provider's own message.
func (c *Client) doJSON(ctx context.Context, method, path, accessToken string, body, out any) error {
	var rd io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rd = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("apikey", c.publicKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return &apperr.ProviderError{
			Status:  resp.StatusCode,
			Message: decodeErrorMessage(data),
		}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// decodeErrorMessage pulls the human-readable message out of the provider's
// error body, which uses different keys depending on the endpoint.
func decodeErrorMessage(data []byte) string {
	var body struct {
		ErrorDescription string `json:"error_description"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		Error            string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		for _, m := range []string{body.ErrorDescription, body.Msg, body.Message, body.Error} {
			if m != "" {
				return m
			}
		}
	}
	return "authentication service error"
}
