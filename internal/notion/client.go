// Package notion is the remote source adapter: a typed, rate-limited,
// retryable boundary around the Notion HTTP API. Records come back with
// every property resolved to one tagged variant; no raw payload escapes
// this package.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/adalgu/notion-hugo-flow/pkg/types"
)

const (
	defaultBaseURL = "https://api.notion.com/v1"
	apiVersion     = "2022-06-28"

	// maxAttempts bounds retries of transient failures per request.
	maxAttempts = 5
)

// Client talks to the remote store. One shared token-bucket gate precedes
// every request; transient failures are retried with exponential backoff
// and permanent failures surface immediately.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	limiter    *rate.Limiter
	calls      atomic.Int64
	logger     *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint. Used by tests.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithRateLimit sets the request budget in requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithLogger sets the client logger. Nil keeps the stderr default.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Client authenticated with token.
func New(token string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		token:      token,
		limiter:    rate.NewLimiter(rate.Limit(2.5), 1),
		logger:     log.New(os.Stderr, "[notion] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ResetBudget clears the per-run call counter and refills the throttle.
// The engine calls this at run start.
func (c *Client) ResetBudget() {
	c.calls.Store(0)
	c.limiter = rate.NewLimiter(c.limiter.Limit(), int(c.limiter.Burst()))
}

// Calls returns the number of remote requests issued since the last reset.
func (c *Client) Calls() int64 {
	return c.calls.Load()
}

// do issues one API request with throttling and retry, decoding the
// response into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		c.calls.Add(1)

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Notion-Version", apiVersion)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			// Network-level failure: transient.
			return &types.RemoteError{Message: err.Error(), Transient: true}
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return &types.RemoteError{Message: err.Error(), Transient: true}
		}

		if resp.StatusCode >= 400 {
			rerr := classify(resp.StatusCode, data)
			if rerr.Transient {
				c.logger.Printf("transient %s %s: %v, retrying", method, path, rerr)
				return rerr
			}
			return backoff.Permanent(rerr)
		}

		if out != nil {
			if err := json.Unmarshal(data, out); err != nil {
				return backoff.Permanent(fmt.Errorf("decode response: %w", err))
			}
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(newExponentialBackOff(), maxAttempts-1), ctx)
	return backoff.Retry(operation, policy)
}

func newExponentialBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 15 * time.Second
	b.MaxElapsedTime = 2 * time.Minute
	return b
}

// apiError is the remote error envelope.
type apiError struct {
	Object  string `json:"object"`
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// classify sorts a non-2xx response into the error taxonomy: 429 and 5xx
// are transient, everything else is permanent.
func classify(status int, body []byte) *types.RemoteError {
	var ae apiError
	_ = json.Unmarshal(body, &ae)

	transient := status == http.StatusTooManyRequests || status >= 500
	msg := ae.Message
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &types.RemoteError{
		Status:    status,
		Code:      ae.Code,
		Message:   msg,
		Transient: transient,
	}
}
