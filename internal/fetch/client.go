package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"coverharvest/internal/logging"
	"coverharvest/internal/services"
)

const (
	defaultMaxAttempts = 5
	defaultBaseDelay   = time.Second
	defaultTimeout     = 30 * time.Second
	maxErrorBody       = 4096
)

// ErrRetriesExhausted is returned after every attempt failed transiently. It
// classifies as services.ErrTransient.
var ErrRetriesExhausted = fmt.Errorf("%w: retries exhausted", services.ErrTransient)

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s returned %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Is maps 404 to services.ErrNotFound and other non-retryable statuses to
// services.ErrPermanent.
func (e *StatusError) Is(target error) bool {
	switch target {
	case services.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case services.ErrPermanent:
		return e.StatusCode != http.StatusServiceUnavailable
	}
	return false
}

// HTTPStatus exposes the status code to Retry's classifier.
func (e *StatusError) HTTPStatus() int { return e.StatusCode }

// Doer executes HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Client performs requests with retry on 503.
type Client struct {
	doer        Doer
	userAgent   string
	maxAttempts int
	baseDelay   time.Duration
	minInterval time.Duration
	sleep       SleepFunc
	now         func() time.Time
	logger      *slog.Logger

	mu   sync.Mutex
	last time.Time
}

// Option customises a Client.
type Option func(*Client)

// WithDoer replaces the HTTP transport.
func WithDoer(d Doer) Option {
	return func(c *Client) {
		if d != nil {
			c.doer = d
		}
	}
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = strings.TrimSpace(ua) }
}

// WithMaxAttempts bounds the number of attempts per call.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithBaseDelay sets the delay after the first transient failure.
func WithBaseDelay(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.baseDelay = d
		}
	}
}

// WithMinInterval spaces consecutive requests at least d apart.
func WithMinInterval(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.minInterval = d
		}
	}
}

// WithSleep replaces the sleep used for backoff and throttling.
func WithSleep(fn SleepFunc) Option {
	return func(c *Client) {
		if fn != nil {
			c.sleep = fn
		}
	}
}

// WithClock replaces the clock used for throttling.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger attaches a logger for retry diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New builds a Client. Without WithDoer it uses an *http.Client with a 30s
// timeout.
func New(opts ...Option) *Client {
	c := &Client{
		doer:        &http.Client{Timeout: defaultTimeout},
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
		sleep:       SleepWithContext,
		now:         time.Now,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches url and returns the response body.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	return c.Send(ctx, http.MethodGet, url, nil, nil)
}

// Send issues a request with an optional body and extra headers, retrying on
// 503.
func (c *Client) Send(ctx context.Context, method, url string, body []byte, header http.Header) ([]byte, error) {
	var payload []byte
	err := c.Retry(ctx, method+" "+url, func(ctx context.Context) error {
		data, err := c.do(ctx, method, url, body, header)
		if err != nil {
			return err
		}
		payload = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// Retry runs op until it succeeds, fails with a non-transient error, or the
// attempt budget is spent. An error is transient when it carries HTTP status
// 503, either as a *StatusError or via an HTTPStatus() int method.
func (c *Client) Retry(ctx context.Context, desc string, op func(context.Context) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	delay := c.baseDelay
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !IsTransient(lastErr) {
			return lastErr
		}
		if attempt == c.maxAttempts {
			break
		}
		c.logger.Debug("transient upstream failure, backing off",
			logging.String("request", desc),
			logging.Int("attempt", attempt),
			logging.Duration("delay", delay),
			logging.Error(lastErr),
		)
		if err := c.sleep(ctx, delay); err != nil {
			return err
		}
		delay *= 2
	}
	return fmt.Errorf("%w: %s after %d attempts: %w", ErrRetriesExhausted, desc, c.maxAttempts, lastErr)
}

func (c *Client) do(ctx context.Context, method, url string, body []byte, header http.Header) ([]byte, error) {
	if err := c.throttle(ctx); err != nil {
		return nil, err
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: url, Body: strings.TrimSpace(string(snippet))}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response from %s: %w", url, err)
	}
	return data, nil
}

func (c *Client) throttle(ctx context.Context) error {
	if c.minInterval <= 0 {
		return nil
	}
	c.mu.Lock()
	wait := time.Duration(0)
	if !c.last.IsZero() {
		wait = c.minInterval - c.now().Sub(c.last)
	}
	c.mu.Unlock()
	if wait > 0 {
		if err := c.sleep(ctx, wait); err != nil {
			return err
		}
	}
	c.mu.Lock()
	c.last = c.now()
	c.mu.Unlock()
	return nil
}

// IsTransient reports whether err represents a 503 response.
func IsTransient(err error) bool {
	var coded interface{ HTTPStatus() int }
	if errors.As(err, &coded) {
		return coded.HTTPStatus() == http.StatusServiceUnavailable
	}
	return false
}

// SleepWithContext blocks for d, returning early if ctx is cancelled.
func SleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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
