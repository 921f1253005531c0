// Package transport wraps net/http with the retry behaviour the download engine relies on.
package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/datallboy/gofetch/internal/domain"
)

// Options configures the HTTP client.
type Options struct {
	// Retry controls which failures are retried and the backoff between attempts.
	Retry RetryPolicy

	// ResponseHeaderTimeout bounds the wait for response headers. There is no
	// overall timeout because bodies can be arbitrarily large.
	// Default: 30s
	ResponseHeaderTimeout time.Duration

	// MaxIdleConnsPerHost sets the maximum idle connections per host.
	// Default: 32
	MaxIdleConnsPerHost int

	// UserAgent is sent with every request when set.
	UserAgent string
}

func DefaultOptions() Options {
	return Options{
		Retry:                 DefaultRetryPolicy(),
		ResponseHeaderTimeout: 30 * time.Second,
		MaxIdleConnsPerHost:   32,
		UserAgent:             "gofetch",
	}
}

type Client struct {
	client *http.Client
	opts   Options
}

func NewClient(opts Options) *Client {
	if opts.MaxIdleConnsPerHost <= 0 {
		opts.MaxIdleConnsPerHost = 32
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = opts.MaxIdleConnsPerHost
	transport.MaxIdleConns = opts.MaxIdleConnsPerHost * 2
	transport.ResponseHeaderTimeout = opts.ResponseHeaderTimeout

	return &Client{
		client: &http.Client{Transport: transport},
		opts:   opts,
	}
}

// Get issues a GET for url, retrying transient failures according to the
// policy. On success the caller owns the response body.
// A non-2xx answer that survives the retries is returned as *domain.StatusError.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.opts.Retry.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := c.opts.Retry.wait(ctx, attempt); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		if c.opts.UserAgent != "" {
			req.Header.Set("User-Agent", c.opts.UserAgent)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if !c.opts.Retry.RetryError(err) || ctx.Err() != nil {
				return nil, err
			}
			lastErr = err
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		drain(resp)
		lastErr = &domain.StatusError{URL: url, StatusCode: resp.StatusCode}
		if !c.opts.Retry.RetryStatus(resp.StatusCode) {
			return nil, lastErr
		}
	}

	if _, ok := lastErr.(*domain.StatusError); ok {
		return nil, lastErr
	}
	return nil, fmt.Errorf("get %s failed after %d attempts: %w", url, c.opts.Retry.MaxRetries+1, lastErr)
}

// drain discards a small amount of the body so the connection can be reused.
func drain(resp *http.Response) {
	io.CopyN(io.Discard, resp.Body, 64*1024)
	resp.Body.Close()
}
