// Package restclient provides the HTTP GET layer shared by both venue
// clients: a per-venue token bucket plus the 429 retry policy.
package restclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	maxAttempts     = 5
	retryBaseWait   = 1500 * time.Millisecond
	defaultTimeout  = 20 * time.Second
	userAgentHeader = "kalshi-poly-arb/1.0"
)

// StatusError is returned for non-2xx responses that are not retried.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d: %s", e.StatusCode, e.Body)
}

// Client is a rate-limited HTTP client for one venue. All in-flight
// requests through one Client share its token bucket, so the venue's
// request cap holds regardless of caller-side concurrency.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
	venue      string
}

// Config holds client configuration.
type Config struct {
	Venue  string // label for logs and metrics
	MaxRPS int
	Logger *zap.Logger
}

// New creates a new rate-limited client.
func New(cfg *Config) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.MaxRPS), cfg.MaxRPS),
		logger:  cfg.Logger,
		venue:   cfg.Venue,
	}
}

// Close releases idle connections held by the underlying transport.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// Get performs a GET with rate limiting and the shared retry policy:
// a 429 waits 1.5s x attempt and retries, up to 5 attempts; any other
// non-2xx returns a StatusError immediately.
func (c *Client) Get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	requestURL := endpoint
	if len(params) > 0 {
		requestURL = fmt.Sprintf("%s?%s", endpoint, params.Encode())
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := c.limiter.Wait(ctx)
		if err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		body, rateLimited, err := c.doGet(ctx, requestURL)
		if err != nil {
			return nil, err
		}
		if !rateLimited {
			return body, nil
		}

		if attempt == maxAttempts {
			break
		}

		wait := retryBaseWait * time.Duration(attempt)
		RateLimitHitsTotal.WithLabelValues(c.venue).Inc()
		c.logger.Warn("venue-429-backoff",
			zap.String("venue", c.venue),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}

	return nil, &StatusError{StatusCode: http.StatusTooManyRequests, Body: "retries exhausted"}
}

// doGet performs one request. rateLimited reports a 429 that the caller
// should back off and retry.
func (c *Client) doGet(ctx context.Context, requestURL string) (body []byte, rateLimited bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgentHeader)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		RequestErrorsTotal.WithLabelValues(c.venue).Inc()
		return nil, false, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	RequestDurationSeconds.WithLabelValues(c.venue).Observe(time.Since(start).Seconds())

	if resp.StatusCode == http.StatusTooManyRequests {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, true, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		RequestErrorsTotal.WithLabelValues(c.venue).Inc()
		return nil, false, &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("read response body: %w", err)
	}

	return body, false, nil
}
