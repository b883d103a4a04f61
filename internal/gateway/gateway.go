// Package gateway is the single path from pantry to the food-chain API.
// Every call goes through Client.Call, which adds bounded retry with a fixed
// pause between attempts and treats 409 Conflict as a non-retryable skip.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/pantry/internal/metrics"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

// Defaults for a Client built without options.
const (
	DefaultMaxAttempts   = 3
	DefaultRetryInterval = time.Second
	DefaultTimeout       = 30 * time.Second
)

// maxLoggedBody bounds how much of an error response body is logged.
const maxLoggedBody = 512

var allowedMethods = map[string]bool{
	http.MethodGet:  true,
	http.MethodPost: true,
	http.MethodPut:  true,
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Client calls the food-chain API.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	timeout       time.Duration
	maxAttempts   int
	retryInterval time.Duration
	logger        *zap.Logger
	metrics       *metrics.Recorder
	sleep         Sleeper
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sends requests through hc. The client is copied, so a
// timeout set with WithTimeout never changes hc itself. Nil is ignored.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-attempt timeout. Values of zero or less are
// ignored.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxAttempts sets how many times a failing call is tried in total.
// Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n >= 1 {
			c.maxAttempts = n
		}
	}
}

// WithRetryInterval sets the fixed pause between attempts.
func WithRetryInterval(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.retryInterval = d
		}
	}
}

// WithMetrics records attempts and retries in m.
func WithMetrics(m *metrics.Recorder) Option {
	return func(c *Client) { c.metrics = m }
}

// WithSleeper replaces the pause between attempts. Tests use it to avoid
// waiting.
func WithSleeper(s Sleeper) Option {
	return func(c *Client) { c.sleep = s }
}

// New creates a Client for the service at baseURL.
func New(baseURL string, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    http.DefaultClient,
		maxAttempts:   DefaultMaxAttempts,
		retryInterval: DefaultRetryInterval,
		logger:        logger,
		sleep:         sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}

	hc := *c.httpClient
	switch {
	case c.timeout > 0:
		hc.Timeout = c.timeout
	case hc.Timeout == 0:
		hc.Timeout = DefaultTimeout
	}
	c.httpClient = &hc
	return c
}

// BaseURL returns the service root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Call sends method to path with body encoded as JSON (no body when nil) and
// returns the decoded response object. An empty 200/201 response yields an
// empty map.
//
// A 409 returns ErrConflict at once. Transport failures, undecodable
// responses and any other status are retried up to the configured number of
// attempts; when they run out Call returns ErrAttemptsExhausted. Methods other
// than GET, POST and PUT fail with ErrInvalidMethod before anything is sent.
func (c *Client) Call(ctx context.Context, method, path string, body any) (map[string]any, error) {
	method = strings.ToUpper(method)
	if !allowedMethods[method] {
		return nil, fmt.Errorf("%w: %s", types.ErrInvalidMethod, method)
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
	}

	url := c.baseURL + path
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		result, status, err := c.do(ctx, method, url, payload)
		switch {
		case err == nil:
			c.metrics.Request(method, metrics.OutcomeSuccess)
			return result, nil
		case errors.Is(err, types.ErrConflict):
			c.metrics.Request(method, metrics.OutcomeConflict)
			c.logger.Warn("conflict, entity may already exist",
				zap.String("method", method),
				zap.String("path", path))
			return nil, fmt.Errorf("%s %s: %w", method, path, types.ErrConflict)
		case ctx.Err() != nil:
			c.metrics.Request(method, metrics.OutcomeFailure)
			return nil, ctx.Err()
		}

		c.metrics.Request(method, metrics.OutcomeFailure)
		lastErr = err
		fields := []zap.Field{
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.maxAttempts),
			zap.Error(err),
		}
		if status != 0 {
			fields = append(fields, zap.Int("status", status))
		}
		c.logger.Warn("request failed", fields...)

		if attempt == c.maxAttempts {
			break
		}
		c.metrics.Retry()
		c.logger.Info("retrying request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("next_attempt", attempt+1),
			zap.Duration("after", c.retryInterval))
		if err := c.sleep(ctx, c.retryInterval); err != nil {
			return nil, err
		}
	}

	c.logger.Error("giving up on request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("attempts", c.maxAttempts),
		zap.Error(lastErr))
	return nil, fmt.Errorf("%s %s: %w: %v", method, path, types.ErrAttemptsExhausted, lastErr)
}

// do performs a single attempt. It returns the HTTP status alongside any
// error so the caller can log it; status is zero for transport failures.
func (c *Client) do(ctx context.Context, method, url string, payload []byte) (map[string]any, int, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		result, err := decodeObject(data)
		if err != nil {
			return nil, resp.StatusCode, err
		}
		return result, resp.StatusCode, nil
	case http.StatusConflict:
		return nil, resp.StatusCode, types.ErrConflict
	default:
		return nil, resp.StatusCode, fmt.Errorf("HTTP %d: %s", resp.StatusCode, truncate(data, maxLoggedBody))
	}
}

// decodeObject decodes a JSON object, keeping numbers as json.Number so ids
// survive unchanged.
func decodeObject(data []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

func truncate(data []byte, n int) string {
	s := strings.TrimSpace(string(data))
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
