// Package pixel fires the in-browser-equivalent tracking signal via the
// platform's image pixel endpoint. This channel is best-effort by contract:
// it supplements the durable server relay and must never fail a caller's flow.
package pixel

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultBaseURL = "https://www.facebook.com"

// Event is the condensed content description carried by the pixel signal.
type Event struct {
	Name       string
	EventID    string
	SourceURL  string
	Currency   string
	Value      float64
	ContentIDs []string
	Quantity   int
	Category   string
}

// Client fires pixel hits for one pixel id.
type Client struct {
	pixelID    string
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the pixel endpoint base URL (tests).
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

// NewClient creates a pixel client. A short timeout keeps the best-effort
// channel from holding goroutines on a slow endpoint.
func NewClient(pixelID string, opts ...ClientOption) *Client {
	c := &Client{
		pixelID: pixelID,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fire GETs the pixel endpoint for the event. Contact identifiers never travel
// this channel; the query carries only the condensed commercial description.
func (c *Client) Fire(ctx context.Context, ev Event) error {
	q := url.Values{}
	q.Set("id", c.pixelID)
	q.Set("ev", ev.Name)
	q.Set("eid", ev.EventID)
	q.Set("noscript", "1")
	if ev.SourceURL != "" {
		q.Set("dl", ev.SourceURL)
	}
	if ev.Currency != "" {
		q.Set("cd[currency]", ev.Currency)
	}
	if ev.Value > 0 {
		q.Set("cd[value]", strconv.FormatFloat(ev.Value, 'f', -1, 64))
	}
	for i, id := range ev.ContentIDs {
		q.Set(fmt.Sprintf("cd[content_ids][%d]", i), id)
	}
	if ev.Quantity > 0 {
		q.Set("cd[num_items]", strconv.Itoa(ev.Quantity))
	}
	if ev.Category != "" {
		q.Set("cd[content_category]", ev.Category)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/tr?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create pixel request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fire pixel: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Warn("failed to close pixel response body", "error", closeErr)
		}
	}()

	// Drain so the connection can be reused; the 1x1 gif body is tiny.
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("drain pixel response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("pixel endpoint returned status %d", resp.StatusCode)
	}

	return nil
}
