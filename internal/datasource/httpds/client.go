// Package httpds implements a small HTTP client with built-in retry/backoff.
// The Notion transport sits on top of it.
//
// Design goals:
//
//   - Keep a tiny, explicit API (Do, Get, Post, DoJSON).
//   - Handle transient failures (network errors, 429, 5xx) with exponential
//     backoff, honoring Retry-After when the server sends one.
//   - Respect context cancellation during requests and backoff waits.
//   - Be easy to test by injecting a custom RoundTripper and wait function.
package httpds

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// DefaultMaxResponseBytes caps how much of a response body DoJSON reads.
const DefaultMaxResponseBytes = 32 << 20

// Config configures the HTTP client.
//
// Zero values are given sensible defaults:
//   - Timeout:          30s
//   - MaxRetries:       0 (no retries)
//   - InitialBackoff:   200ms
//   - MaxBackoff:       5s
//   - MaxResponseBytes: 32 MiB
type Config struct {
	// Timeout is the per-request timeout applied at the http.Client level.
	Timeout time.Duration

	// MaxRetries is the number of retry attempts after the initial request.
	// MaxRetries=0 means "no retries" (only the initial attempt).
	MaxRetries int

	// InitialBackoff is the base backoff duration for the first retry.
	// Each subsequent retry doubles the previous backoff up to MaxBackoff.
	InitialBackoff time.Duration

	// MaxBackoff caps the exponential backoff duration and any Retry-After
	// delay requested by the server.
	MaxBackoff time.Duration

	// MaxResponseBytes caps the body size read by DoJSON.
	MaxResponseBytes int64

	// InsecureSkipVerify disables TLS certificate verification. It is only
	// used when Transport is nil.
	InsecureSkipVerify bool

	// BaseHeaders are headers added to every request. Callers can supply
	// additional headers per request; those take precedence.
	BaseHeaders http.Header

	// Transport is an optional custom RoundTripper. When nil, a default
	// *http.Transport is constructed based on the TLS settings.
	Transport http.RoundTripper

	// Logger receives one line per retry. Nil means no-op.
	Logger *zap.Logger
}

// Client wraps an http.Client with retry and backoff behavior.
type Client struct {
	httpClient     *http.Client
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	maxBody        int64
	baseHeaders    http.Header
	log            *zap.Logger

	// wait is injectable to make tests fast and deterministic.
	wait func(ctx context.Context, d time.Duration) error
}

// NewClient constructs a Client from Config, applying defaults for zero values.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}
	if cfg.MaxResponseBytes <= 0 {
		cfg.MaxResponseBytes = DefaultMaxResponseBytes
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	transport := cfg.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // explicitly configurable
			},
		}
	}

	hdr := http.Header{}
	for k, vs := range cfg.BaseHeaders {
		for _, v := range vs {
			hdr.Add(k, v)
		}
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		maxBody:        cfg.MaxResponseBytes,
		baseHeaders:    hdr,
		log:            cfg.Logger,
		wait:           sleepWithContext,
	}
}

// Do sends an HTTP request with the given method, URL, and optional body,
// applying retry and backoff on transient errors. The body is supplied as a
// byte slice so that it can be safely re-sent on retry.
//
// The returned *http.Response has a non-nil Body which the caller must close.
// When retries are exhausted on a retryable status, the last response is
// returned without error so callers can surface the server's error payload.
func (c *Client) Do(
	ctx context.Context,
	method, url string,
	body []byte,
	headers http.Header,
) (*http.Response, error) {
	if method == "" {
		return nil, fmt.Errorf("httpds: method must not be empty")
	}
	if url == "" {
		return nil, fmt.Errorf("httpds: url must not be empty")
	}

	attempts := c.maxRetries + 1

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("httpds: build request: %w", err)
		}

		// Apply base headers, then per-request headers (which override).
		for k, vs := range c.baseHeaders {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		for k, vs := range headers {
			for _, v := range vs {
				req.Header.Set(k, v)
			}
		}

		resp, err := c.httpClient.Do(req)
		last := attempt+1 >= attempts
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if last {
				return nil, fmt.Errorf("httpds: %s %s: %w", method, url, err)
			}
		} else if !isRetryableStatus(resp.StatusCode) || last {
			return resp, nil
		}

		backoff := backoffDuration(c.initialBackoff, attempt, c.maxBackoff)
		fields := []zap.Field{
			zap.String("method", method),
			zap.String("url", url),
			zap.Int("attempt", attempt+1),
		}
		if err != nil {
			fields = append(fields, zap.Error(err))
		} else {
			if ra, ok := retryAfter(resp.Header.Get("Retry-After")); ok {
				backoff = min(ra, c.maxBackoff)
			}
			fields = append(fields, zap.Int("status", resp.StatusCode))
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
			_ = resp.Body.Close()
		}
		c.log.Warn("retrying request", append(fields, zap.Duration("backoff", backoff))...)

		if err := c.wait(ctx, backoff); err != nil {
			return nil, err
		}
	}
}

// Get is a convenience wrapper over Do for HTTP GET. The caller must close
// the response body.
func (c *Client) Get(ctx context.Context, url string, headers http.Header) (*http.Response, error) {
	return c.Do(ctx, http.MethodGet, url, nil, headers)
}

// Post is a convenience wrapper over Do for HTTP POST. The caller must close
// the response body.
func (c *Client) Post(ctx context.Context, url string, body []byte, headers http.Header) (*http.Response, error) {
	return c.Do(ctx, http.MethodPost, url, body, headers)
}

// DoJSON encodes payload (when non-nil) as the JSON request body, sends the
// request through Do and returns the status code with the response body,
// read up to the configured size cap. A body over the cap is an error.
func (c *Client) DoJSON(
	ctx context.Context,
	method, url string,
	payload any,
	headers http.Header,
) (int, []byte, error) {
	var body []byte
	h := headers.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Set("Accept", "application/json")
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("httpds: encode body: %w", err)
		}
		body = b
		h.Set("Content-Type", "application/json")
	}

	resp, err := c.Do(ctx, method, url, body, h)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	// Read one byte past the cap to detect truncation.
	lr := &io.LimitedReader{R: resp.Body, N: c.maxBody + 1}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(lr); err != nil {
		return resp.StatusCode, nil, fmt.Errorf("httpds: read body: %w", err)
	}
	if int64(buf.Len()) > c.maxBody {
		return resp.StatusCode, nil, fmt.Errorf("httpds: response from %s exceeds %d bytes", url, c.maxBody)
	}
	return resp.StatusCode, buf.Bytes(), nil
}

// isRetryableStatus reports whether the given HTTP status code should trigger
// a retry: 5xx and 429 are treated as transient; everything else is final.
func isRetryableStatus(code int) bool {
	if code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code <= 599
}

// backoffDuration returns the exponential backoff duration for the given
// attempt number (0-based retry index), clamped to max.
func backoffDuration(initial time.Duration, attempt int, max time.Duration) time.Duration {
	if attempt <= 0 {
		if initial > max {
			return max
		}
		return initial
	}
	// exponential: initial * 2^attempt
	d := initial << attempt
	if d > max || d <= 0 {
		return max
	}
	return d
}

// retryAfter parses a Retry-After header given in seconds. HTTP-date values
// are not used by the APIs this client talks to and are ignored.
func retryAfter(v string) (time.Duration, bool) {
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return time.Duration(n) * time.Second, true
}

// sleepWithContext waits for d but returns early if ctx is canceled.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
