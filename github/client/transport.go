package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"
)

const (
	defaultMaxRetries       = 3
	defaultMaxRateLimitWait = 60 * time.Minute
	defaultRateLimitWait    = 60 * time.Second
	maxRateLimitWaits       = 3
	lowRateLimitThreshold   = 10
)

// rateLimitState tracks the current rate limit status
type rateLimitState struct {
	remaining int
	resetTime time.Time
	known     bool
	mu        sync.Mutex
}

// RateLimitTransport is an http.RoundTripper that waits out GitHub rate
// limits, retries transient failures with exponential backoff and spaces
// requests by a minimum delay.
type RateLimitTransport struct {
	base         http.RoundTripper
	logger       *slog.Logger
	requestDelay time.Duration
	maxRetries   int
	maxWait      time.Duration
	onResponse   func(status int)

	rateLimit rateLimitState

	spacingMu sync.Mutex
	nextSlot  time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

type TransportOption func(*RateLimitTransport)

// WithRequestDelay spaces consecutive requests by at least d.
func WithRequestDelay(d time.Duration) TransportOption {
	return func(t *RateLimitTransport) {
		if d > 0 {
			t.requestDelay = d
		}
	}
}

// WithMaxRetries bounds retries of network errors and 5xx responses.
func WithMaxRetries(n int) TransportOption {
	return func(t *RateLimitTransport) {
		if n >= 0 {
			t.maxRetries = n
		}
	}
}

// WithResponseHook is called with the status of every response received.
func WithResponseHook(fn func(status int)) TransportOption {
	return func(t *RateLimitTransport) { t.onResponse = fn }
}

func NewRateLimitTransport(base http.RoundTripper, logger *slog.Logger, opts ...TransportOption) *RateLimitTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	if logger == nil {
		logger = slog.Default()
	}
	t := &RateLimitTransport{
		base:       base,
		logger:     logger,
		maxRetries: defaultMaxRetries,
		maxWait:    defaultMaxRateLimitWait,
		now:        time.Now,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func sleepContext(ctx context.Context, d time.Duration) error {
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

// RoundTrip implements http.RoundTripper.
func (t *RateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	if err := t.waitForRateLimit(ctx); err != nil {
		return nil, err
	}
	if err := t.waitForSlot(ctx); err != nil {
		return nil, err
	}

	var lastErr error
	backoff := time.Second
	rateLimitWaits := 0

	for attempt := 0; attempt <= t.maxRetries; attempt++ {
		if attempt > 0 {
			t.logger.Debug("Retrying GitHub request", "method", req.Method, "path", req.URL.Path, "attempt", attempt, "backoff", backoff)
			if err := t.sleep(ctx, backoff); err != nil {
				return nil, err
			}
			backoff *= 2
		}

		r, err := rewind(req, attempt > 0 || rateLimitWaits > 0)
		if err != nil {
			return nil, err
		}

		resp, err := t.base.RoundTrip(r)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if !replayable(req) {
				break
			}
			continue
		}

		t.updateRateLimitFromHeaders(resp.Header)
		if t.onResponse != nil {
			t.onResponse(resp.StatusCode)
		}

		if isRateLimited(resp) && rateLimitWaits < maxRateLimitWaits && replayable(req) {
			wait := t.rateLimitWait(resp.Header)
			t.logger.Warn("Rate limited, waiting for reset",
				"path", req.URL.Path,
				"status", resp.StatusCode,
				"wait_seconds", wait.Seconds(),
				"remaining", resp.Header.Get("X-RateLimit-Remaining"))
			drain(resp)

			if err := t.sleep(ctx, wait); err != nil {
				return nil, err
			}

			// Rate limit waits are not counted as retries.
			rateLimitWaits++
			attempt = -1
			backoff = time.Second
			continue
		}

		if resp.StatusCode >= http.StatusInternalServerError && attempt < t.maxRetries && replayable(req) {
			lastErr = fmt.Errorf("unexpected status %d", resp.StatusCode)
			drain(resp)
			continue
		}

		t.logStatus(req, resp.StatusCode)
		return resp, nil
	}

	return nil, fmt.Errorf("max retries exceeded for %s %s: %w", req.Method, req.URL.Path, lastErr)
}

// replayable reports whether req can be sent more than once.
func replayable(req *http.Request) bool {
	return req.Body == nil || req.Body == http.NoBody || req.GetBody != nil
}

// rewind returns a copy of req with a fresh body for a repeated attempt.
func rewind(req *http.Request, again bool) (*http.Request, error) {
	if !again || req.Body == nil || req.Body == http.NoBody {
		return req, nil
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("rewinding request body: %w", err)
	}
	r := req.Clone(req.Context())
	r.Body = body
	return r, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func isRateLimited(resp *http.Response) bool {
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return true
	case http.StatusForbidden:
		return resp.Header.Get("X-RateLimit-Remaining") == "0" || resp.Header.Get("Retry-After") != ""
	}
	return false
}

// rateLimitWait prefers Retry-After, then the reset time, then a default.
func (t *RateLimitTransport) rateLimitWait(h http.Header) time.Duration {
	var wait time.Duration
	if s, err := strconv.Atoi(h.Get("Retry-After")); err == nil && s > 0 {
		wait = time.Duration(s) * time.Second
	} else if reset := parseRateLimitReset(h.Get("X-RateLimit-Reset")); reset > 0 {
		wait = time.Unix(reset, 0).Sub(t.now())
	}
	if wait <= 0 {
		wait = defaultRateLimitWait
	}
	if wait > t.maxWait {
		wait = t.maxWait
	}
	return wait + time.Second
}

// waitForRateLimit blocks until the reset time when the last known
// remaining budget is nearly exhausted.
func (t *RateLimitTransport) waitForRateLimit(ctx context.Context) error {
	t.rateLimit.mu.Lock()
	known := t.rateLimit.known
	remaining := t.rateLimit.remaining
	resetTime := t.rateLimit.resetTime
	t.rateLimit.mu.Unlock()

	if !known || remaining > lowRateLimitThreshold {
		return nil
	}
	wait := resetTime.Sub(t.now())
	if wait <= 0 {
		return nil
	}
	if wait > t.maxWait {
		wait = t.maxWait
	}

	t.logger.Warn("Rate limit low, waiting for reset",
		"remaining", remaining,
		"reset_in_seconds", wait.Seconds())
	return t.sleep(ctx, wait+time.Second)
}

// waitForSlot reserves the next request slot, keeping requestDelay between
// the starts of consecutive requests.
func (t *RateLimitTransport) waitForSlot(ctx context.Context) error {
	if t.requestDelay <= 0 {
		return nil
	}
	t.spacingMu.Lock()
	now := t.now()
	start := t.nextSlot
	if start.Before(now) {
		start = now
	}
	t.nextSlot = start.Add(t.requestDelay)
	t.spacingMu.Unlock()

	return t.sleep(ctx, start.Sub(now))
}

// parseRateLimitReset parses the X-RateLimit-Reset header.
func parseRateLimitReset(value string) int64 {
	if value == "" {
		return 0
	}
	resetTime, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return resetTime
}

// updateRateLimitFromHeaders updates the rate limit state from response headers
func (t *RateLimitTransport) updateRateLimitFromHeaders(headers http.Header) {
	t.rateLimit.mu.Lock()
	defer t.rateLimit.mu.Unlock()

	if remaining := headers.Get("X-RateLimit-Remaining"); remaining != "" {
		if r, err := strconv.Atoi(remaining); err == nil {
			t.rateLimit.remaining = r
			t.rateLimit.known = true
			if r < 100 && r%20 == 0 {
				t.logger.Warn("GitHub API rate limit getting low", "remaining", r)
			}
		}
	}

	if reset := parseRateLimitReset(headers.Get("X-RateLimit-Reset")); reset > 0 {
		t.rateLimit.resetTime = time.Unix(reset, 0)
	}
}

func (t *RateLimitTransport) logStatus(req *http.Request, status int) {
	switch status {
	case http.StatusUnauthorized:
		t.logger.Error("GitHub authentication failed, check the token or App credentials", "path", req.URL.Path)
	case http.StatusForbidden:
		t.logger.Warn("GitHub denied access, check the token scopes or App permissions", "path", req.URL.Path)
	case http.StatusNotFound:
		t.logger.Warn("GitHub resource not found", "path", req.URL.Path)
	case http.StatusTooManyRequests:
		t.logger.Error("GitHub rate limit still exceeded after waiting", "path", req.URL.Path)
	}
}
