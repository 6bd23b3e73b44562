// Package httpfetch is the content-fetch collaborator: a plain HTTP GET with
// a bounded timeout. Browser rendering is deliberately out of scope.
package httpfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client fetches a URL's body within the configured timeout. Any non-2xx
// response is an error; the pipeline retries client and server failures
// uniformly.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	maxBody    int64
}

type Option func(*Client)

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

func WithMaxBodyBytes(n int64) Option {
	return func(c *Client) { c.maxBody = n }
}

func NewClient(timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
		userAgent:  "ds-midterm-fetcher/1.0",
		maxBody:    10 << 20,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch retrieves the URL. The returned status is zero when no response was
// received (network error, timeout).
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("building request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading body of %s: %w", url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return body, resp.StatusCode, fmt.Errorf("fetching %s: unexpected status %d", url, resp.StatusCode)
	}
	return body, resp.StatusCode, nil
}
