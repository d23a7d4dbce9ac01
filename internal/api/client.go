// Package api is the client side of the portal HTTP contract: auth,
// profile and student roster endpoints. The server owns persistence and
// business rules; this package only shapes requests and surfaces errors.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultTimeout   = 30 * time.Second
	maxErrorBodySize = 64 << 10
)

// TokenSource supplies the bearer token for authenticated requests.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to a TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// Client talks to the portal API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	mu             sync.RWMutex
	tokens         TokenSource
	onUnauthorized func(error)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default instrumented HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithTokenSource sets where bearer tokens come from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// New constructs a Client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   defaultTimeout,
		},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetTokenSource sets where bearer tokens come from. The session store is
// usually built after the client, so this is wired once both exist.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = ts
}

// OnUnauthorized registers fn to run whenever an authenticated call is
// rejected with 401. The session store uses it to drop a stale session.
func (c *Client) OnUnauthorized(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

func (c *Client) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

func (c *Client) unauthorized(err error) {
	c.mu.RLock()
	fn := c.onUnauthorized
	c.mu.RUnlock()
	if fn != nil {
		fn(err)
	}
}

// call describes one API request.
type call struct {
	method      string
	path        string
	body        io.Reader
	contentType string
	auth        bool
	fallback    string
}

func jsonCall(method, path string, payload any, auth bool, fallback string) (call, error) {
	c := call{method: method, path: path, auth: auth, fallback: fallback}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return call{}, fmt.Errorf("encode request: %w", err)
		}
		c.body = bytes.NewReader(data)
		c.contentType = "application/json"
	}
	return c, nil
}

// do runs the call and decodes a successful JSON response into out.
func (c *Client) do(ctx context.Context, cl call, out any) error {
	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, cl.body)
	if err != nil {
		return &Error{Message: cl.fallback, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if cl.contentType != "" {
		req.Header.Set("Content-Type", cl.contentType)
	}
	if cl.auth {
		token := c.token()
		if token == "" {
			return &Error{
				StatusCode: http.StatusUnauthorized,
				Message:    "Authentication token not found. Please log in.",
				Err:        ErrUnauthorized,
			}
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("api request failed", "method", cl.method, "path", cl.path, "error", err)
		return &Error{Message: cl.fallback, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := responseError(resp, cl.fallback)
		c.logger.Debug("api request rejected", "method", cl.method, "path", cl.path, "status", resp.StatusCode, "message", apiErr.Message)
		if cl.auth && resp.StatusCode == http.StatusUnauthorized {
			c.unauthorized(apiErr)
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{StatusCode: resp.StatusCode, Message: cl.fallback, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func responseError(resp *http.Response, fallback string) *Error {
	apiErr := &Error{StatusCode: resp.StatusCode, Message: fallback}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err != nil {
		apiErr.Err = err
		return apiErr
	}
	var body errorBody
	if err := json.Unmarshal(data, &body); err == nil {
		if text := strings.TrimSpace(body.text()); text != "" {
			apiErr.Message = text
		}
	}
	return apiErr
}
