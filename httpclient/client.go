// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	// DefaultMaxAttempts is the default attempt budget per request.
	DefaultMaxAttempts = 3

	// DefaultBaseDelay is the default unit of linear backoff.
	DefaultBaseDelay = 500 * time.Millisecond

	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 30 * time.Second
)

// Client posts payloads to HTTP services with bounded retry.
// It is safe for concurrent use.
type Client struct {
	http        *http.Client
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
}

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithMaxAttempts sets the attempt budget per request.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		c.maxAttempts = n
	}
}

// WithBaseDelay sets the unit of linear backoff.
func WithBaseDelay(d time.Duration) Option {
	return func(c *Client) {
		c.baseDelay = d
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Client with the default settings and applies the
// provided options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:        &http.Client{Timeout: DefaultTimeout},
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		logger:      slog.Default().With("component", "httpclient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Post sends the body to the URL, retrying transient failures.
// Network errors and 5xx responses are retried; 4xx responses are not, since
// resending the same payload cannot change the outcome. Returns the response
// body of the first successful attempt, or the last error once the attempt
// budget is exhausted.
func (c *Client) Post(ctx context.Context, url, contentType string, body []byte) ([]byte, error) {
	var result []byte
	err := c.retryLinear(ctx, func() (bool, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return false, err
		}
		req.Header.Set("Content-Type", contentType)

		resp, err := c.http.Do(req)
		if err != nil {
			return true, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return true, err
		}

		switch {
		case resp.StatusCode >= 500:
			return true, fmt.Errorf("%w: %s", ErrRequestFailed, resp.Status)
		case resp.StatusCode >= 400:
			return false, fmt.Errorf("%w: %s", ErrRequestFailed, resp.Status)
		}

		result = data
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// retryLinear retries an operation with linear backoff. The operation
// reports whether its error is retryable. The delay before attempt n+1 is
// n times the base delay.
func (c *Client) retryLinear(ctx context.Context, operation func() (retryable bool, err error)) error {
	if c.maxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		// Check context before attempting
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		retryable, err := operation()
		if err == nil {
			if attempt > 1 {
				c.logger.Debug("request succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		lastErr = err

		if !retryable {
			return lastErr
		}

		c.logger.Debug("request failed, will retry",
			"attempt", attempt,
			"maxAttempts", c.maxAttempts,
			"error", err)

		// Don't sleep after the last attempt
		if attempt == c.maxAttempts {
			break
		}

		// Linear backoff: baseDelay * attempt
		delay := c.baseDelay * time.Duration(attempt)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}
