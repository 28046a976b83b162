// Package upstream talks to the study backend API.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/vytor/studyflash/internal/logger"
)

// Fetcher is the part of Client the cache and services depend on.
type Fetcher interface {
	FetchJSON(ctx context.Context, path string, query url.Values) (json.RawMessage, error)
}

var _ Fetcher = (*Client)(nil)

// HTTPError captures an unexpected status code and the start of the body.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.StatusCode, string(e.Body))
}

// Retryable reports whether the status is a transient server failure.
func (e *HTTPError) Retryable() bool {
	switch e.StatusCode {
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// ErrInvalidPath is returned for paths that are not relative to the base URL.
var ErrInvalidPath = errors.New("invalid upstream path")

const (
	maxAttempts = 4
	baseDelay   = 200 * time.Millisecond
	maxDelay    = 5 * time.Second
	maxBodyLog  = 1024
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type Options struct {
	BaseURL   string
	Token     string
	Timeout   time.Duration
	UserAgent string
	// Transport defaults to http.DefaultTransport.
	Transport http.RoundTripper
	Sleep     SleepFunc
}

type Client struct {
	base       *url.URL
	httpClient *http.Client
	sleep      SleepFunc
}

// userAgentTransport sets the User-Agent header on a clone of each request.
type userAgentTransport struct {
	wrapped   http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.userAgent)
	return t.wrapped.RoundTrip(clone)
}

func New(opts Options) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("upstream base url %q must be absolute", opts.BaseURL)
	}

	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if opts.UserAgent != "" {
		transport = &userAgentTransport{wrapped: transport, userAgent: opts.UserAgent}
	}
	if opts.Token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token, TokenType: "Bearer"}),
			Base:   transport,
		}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	return &Client{
		base:       base,
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
		sleep:      sleep,
	}, nil
}

// URL resolves path and query against the base URL.
func (c *Client) URL(path string, query url.Values) (string, error) {
	if strings.Contains(path, "://") || strings.HasPrefix(path, "//") {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, path)
	}
	u := c.base.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}

// FetchJSON GETs path and returns the response body. 5xx responses are
// retried with exponential backoff and jitter.
func (c *Client) FetchJSON(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	target, err := c.URL(path, query)
	if err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx).WithPrefix("upstream").WithField("url", target)

	delay := baseDelay
	for attempt := 1; ; attempt++ {
		body, err := c.get(ctx, log, target)
		if err == nil {
			return body, nil
		}

		var httpErr *HTTPError
		if !errors.As(err, &httpErr) || !httpErr.Retryable() || attempt == maxAttempts {
			return nil, err
		}

		wait := delay + rand.N(delay)
		log.Warn("attempt %d failed with status %d, retrying in %v", attempt, httpErr.StatusCode, wait)
		if err := c.sleep(ctx, wait); err != nil {
			return nil, err
		}
		delay = min(delay*2, maxDelay)
	}
}

func (c *Client) get(ctx context.Context, log *logger.Logger, target string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("request failed: %v", err)
		return nil, err
	}
	defer resp.Body.Close()

	log.Debug("response received in %v, status=%d", time.Since(start), resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyLog))
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: body}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upstream body: %w", err)
	}
	if len(body) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("upstream returned invalid JSON for %s", target)
	}
	return body, nil
}
