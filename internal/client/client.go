// Package client talks to the Planifika backends over HTTP. Each backend gets
// its own Client; typed services sit on top and translate responses into
// models.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// TokenSource supplies the bearer token for authenticated calls
type TokenSource interface {
	Token(ctx context.Context) (string, bool)
}

// StaticToken is a TokenSource for a fixed token
type StaticToken string

func (t StaticToken) Token(context.Context) (string, bool) {
	return string(t), t != ""
}

// Client represents an HTTP client for one backend base URL
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	headers    http.Header
}

// Option configures a Client
type Option func(*Client)

// WithTokenSource sets where bearer tokens come from
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithHeader adds a header sent on every request
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers.Set(key, value) }
}

// WithTimeout overrides the request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// New creates a new API client
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		headers:    http.Header{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) hasToken(ctx context.Context) bool {
	if c.tokens == nil {
		return false
	}
	_, ok := c.tokens.Token(ctx)
	return ok
}

type authMode int

const (
	authNone     authMode = iota
	authRequired          // fail with ErrNotAuthenticated when there is no token
	authOptional          // attach the token when there is one
)

// call describes one request
type call struct {
	method  string
	path    string
	query   url.Values
	body    any
	auth    authMode
	token   string // explicit bearer token, overrides the token source
	failure string // fallback error message
}

func (c *Client) do(ctx context.Context, req call, out any) error {
	if c.baseURL == "" {
		return fmt.Errorf("%s: backend URL is not configured", req.failure)
	}

	endpoint := c.baseURL + req.path
	if len(req.query) > 0 {
		endpoint += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		jsonData, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	for k, v := range c.headers {
		httpReq.Header[k] = v
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	if req.auth != authNone {
		token := req.token
		if token == "" && c.tokens != nil {
			token, _ = c.tokens.Token(ctx)
		}
		switch {
		case token != "":
			httpReq.Header.Set("Authorization", "Bearer "+token)
		case req.auth == authRequired:
			return ErrNotAuthenticated
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", req.failure, ctxErr)
		}
		return fmt.Errorf("%w: %s: %v", ErrNetwork, req.failure, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, data, req.failure)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// IsUnauthorized reports whether err is a 401 from any backend
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
