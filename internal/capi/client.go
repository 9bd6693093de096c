package capi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://graph.facebook.com"

// UpstreamError is returned when the platform answers with a non-2xx status.
// It carries the platform's raw error body so callers can surface it for
// diagnosis instead of swallowing it.
type UpstreamError struct {
	StatusCode int
	Body       []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("platform returned status %d: %s", e.StatusCode, e.Body)
}

// Client posts event envelopes to the Conversions API ingestion endpoint.
// One call per envelope, no retries: retry policy belongs to the caller.
type Client struct {
	baseURL     string
	version     string
	pixelID     string
	accessToken string
	httpClient  *http.Client
	limiter     *rate.Limiter
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the platform base URL (tests).
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithRateLimiter caps outbound requests per second. Nil disables limiting.
func WithRateLimiter(limiter *rate.Limiter) ClientOption {
	return func(c *Client) { c.limiter = limiter }
}

// NewClient creates a Conversions API client for one pixel.
// HTTP client uses 15s timeout and does not follow redirects.
func NewClient(version, pixelID, accessToken string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     defaultBaseURL,
		version:     version,
		pixelID:     pixelID,
		accessToken: accessToken,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SendEvents posts the envelope and returns the platform's acknowledgement body.
// A non-2xx response yields *UpstreamError with the platform's error body attached.
func (c *Client) SendEvents(ctx context.Context, envelope *Envelope) (json.RawMessage, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("wait for rate limiter: %w", err)
		}
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("marshal event envelope: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/%s/events?access_token=%s",
		c.baseURL, c.version, c.pixelID, url.QueryEscape(c.accessToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send events: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Warn("failed to close platform response body", "error", closeErr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read platform response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: respBody}
	}

	return respBody, nil
}
