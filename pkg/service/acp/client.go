package acp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/acpdex/pkg/domain/interfaces"
	"github.com/m-mizutani/acpdex/pkg/domain/types"
	"github.com/m-mizutani/acpdex/pkg/domain/types/apperr"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// Client is the HTTP endpoint client for the ACP platform API. It applies
// a per-call timeout, retries failed requests with exponential backoff,
// and enforces a minimum delay between consecutive requests. It is
// stateless between calls except for the rate-limit timer and safe for
// concurrent use.
type Client struct {
	baseURL    string
	endpoints  Endpoints
	httpClient *http.Client

	maxRetries   int
	retryWait    time.Duration
	requestDelay time.Duration

	mu          sync.Mutex
	nextRequest time.Time
}

var _ interfaces.PlatformClient = (*Client)(nil)

// Option is a functional option for Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (mainly for tests)
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithMaxRetries sets how many attempts a request gets before its error
// is surfaced
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxRetries = n
		}
	}
}

// WithRetryWait sets the base backoff delay; attempt N waits N doublings
func WithRetryWait(d time.Duration) Option {
	return func(c *Client) {
		c.retryWait = d
	}
}

// WithRequestDelay sets the minimum delay between consecutive requests
func WithRequestDelay(d time.Duration) Option {
	return func(c *Client) {
		c.requestDelay = d
	}
}

// WithEndpoints overlays the endpoint path table
func WithEndpoints(e Endpoints) Option {
	return func(c *Client) {
		c.endpoints = c.endpoints.Merge(e)
	}
}

// New creates a platform API client for the given base URL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		endpoints:  DefaultEndpoints(),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxRetries: 3,
		retryWait:  time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the common response wrapper of all platform endpoints
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// waitTurn reserves the next request slot so that concurrent callers keep
// the configured minimum spacing between requests.
func (c *Client) waitTurn(ctx context.Context) error {
	if c.requestDelay <= 0 {
		return ctx.Err()
	}

	c.mu.Lock()
	now := time.Now()
	slot := c.nextRequest
	if slot.Before(now) {
		slot = now
	}
	c.nextRequest = slot.Add(c.requestDelay)
	c.mu.Unlock()

	wait := time.Until(slot)
	if wait <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// fetch issues one GET with retry, returning the decoded data envelope
func (c *Client) fetch(ctx context.Context, ep types.Endpoint, id types.AgentID, params url.Values) (json.RawMessage, error) {
	path, ok := c.endpoints[ep]
	if !ok {
		return nil, goerr.New("endpoint not configured", goerr.V("endpoint", ep))
	}
	if strings.Contains(path, "{id}") {
		if !id.IsValid() {
			return nil, goerr.Wrap(apperr.ErrMissingAgentID, "endpoint requires agent id",
				goerr.V("endpoint", ep))
		}
		path = strings.ReplaceAll(path, "{id}", url.PathEscape(id.String()))
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if err := c.waitTurn(ctx); err != nil {
			return nil, goerr.Wrap(err, "request cancelled", goerr.V("endpoint", ep))
		}

		data, err := c.doRequest(ctx, ep, reqURL)
		if err == nil {
			return data, nil
		}
		if ctx.Err() != nil {
			// The run itself was cancelled: stop retrying
			return nil, err
		}
		lastErr = err

		if attempt < c.maxRetries-1 {
			wait := c.retryWait << attempt
			ctxlog.From(ctx).Warn("request failed, retrying",
				"endpoint", ep,
				"attempt", attempt+1,
				"wait", wait,
				"error", err)

			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return nil, goerr.Wrap(ctx.Err(), "request cancelled during backoff",
					goerr.V("endpoint", ep))
			}
			timer.Stop()
		}
	}

	return nil, lastErr
}

// doRequest performs a single attempt and classifies its failure
func (c *Client) doRequest(ctx context.Context, ep types.Endpoint, reqURL string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build request", goerr.V("url", reqURL))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, goerr.Wrap(apperr.ErrRequestTimeout, "request timed out",
				goerr.V("endpoint", ep),
				goerr.V("url", reqURL))
		}
		return nil, goerr.Wrap(err, "request failed",
			goerr.T(apperr.ErrTagHTTPError),
			goerr.V("endpoint", ep),
			goerr.V("url", reqURL))
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, goerr.Wrap(apperr.ErrHTTPStatus, "unexpected status",
			goerr.V("endpoint", ep),
			goerr.V("status", resp.StatusCode))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, goerr.Wrap(apperr.ErrMalformedPayload, "failed to decode response",
			goerr.V("endpoint", ep))
	}
	if len(env.Data) == 0 {
		return nil, goerr.Wrap(apperr.ErrMalformedPayload, "response has no data field",
			goerr.V("endpoint", ep))
	}

	return env.Data, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
