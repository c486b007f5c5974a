// Package gateway submits outbound messages to the third-party messaging
// provider. Single-attempt sends: retry policy belongs to callers.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	// DialTimeout is the connection timeout.
	DialTimeout = 5 * time.Second
	// TLSHandshakeTimeout is the TLS negotiation timeout.
	TLSHandshakeTimeout = 5 * time.Second
	// ResponseHeaderTimeout is time to wait for response headers.
	ResponseHeaderTimeout = 10 * time.Second

	apiKeyHeader = "apikey"

	// maxErrorBodyBytes caps how much of a provider error body is read.
	maxErrorBodyBytes = 2048
)

// Config carries the provider endpoint settings. All values come from
// application configuration; there are no embedded defaults.
type Config struct {
	BaseURL     string
	APIKey      string
	Instance    string
	CountryCode string
	Timeout     time.Duration
	SendDelayMs int
}

// Client sends text messages through the provider's HTTP API.
type Client struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

// sendRequest is the provider's minimal payload shape.
type sendRequest struct {
	Number  string      `json:"number"`
	Text    string      `json:"text"`
	Options sendOptions `json:"options"`
}

type sendOptions struct {
	Delay       int    `json:"delay"`
	Presence    string `json:"presence"`
	LinkPreview bool   `json:"linkPreview"`
}

// providerResponse captures the reason field of provider error bodies.
type providerResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// NewClient creates a gateway client with bounded timeouts.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   DialTimeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   TLSHandshakeTimeout,
				ResponseHeaderTimeout: ResponseHeaderTimeout,
				MaxIdleConns:          10,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       90 * time.Second,
			},
		},
		logger: logger.With("component", "gateway"),
	}
}

// Send normalizes the destination and submits one text message.
// Non-2xx responses come back as *ProviderError; network failures come back
// wrapped. Never panics and never retries.
func (c *Client) Send(ctx context.Context, destination, text string) error {
	number := Normalize(destination, c.cfg.CountryCode)
	if number == "" {
		return ErrEmptyDestination
	}

	payload := sendRequest{
		Number: number,
		Text:   text,
		Options: sendOptions{
			Delay:       c.cfg.SendDelayMs,
			Presence:    "composing",
			LinkPreview: false,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode send payload: %w", err)
	}

	url := fmt.Sprintf("%s/message/sendText/%s", strings.TrimSuffix(c.cfg.BaseURL, "/"), c.cfg.Instance)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apiKeyHeader, c.cfg.APIKey)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		// Drain body to allow connection reuse
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		c.logger.Info("message sent",
			"destination", number,
			"http_status", resp.StatusCode,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil
	}

	return &ProviderError{
		StatusCode: resp.StatusCode,
		Reason:     readProviderReason(resp.Body),
	}
}

// readProviderReason extracts a human-readable reason from an error body.
func readProviderReason(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBodyBytes))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var parsed providerResponse
	if err := json.Unmarshal(raw, &parsed); err == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}

	return strings.TrimSpace(string(raw))
}
