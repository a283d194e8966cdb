// Package api implements the HTTP client for the remote POS back-office API.
//
// The client is deliberately thin: one best-effort round trip per call, no
// retry, no caching. Authentication is a bearer token read per request from
// an injected TokenSource so the web layer and tests can supply their own
// session context.
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
)

// TokenSource resolves the bearer token for outgoing calls. Implementations
// read from the caller's session; Clear removes the stored token after the
// server rejects it.
type TokenSource interface {
	Token(ctx context.Context) string
	Clear(ctx context.Context)
}

// AuthFailureFunc runs after an unauthorized response, once the token has
// been cleared and before the error is returned to the caller.
type AuthFailureFunc func(ctx context.Context)

// Client talks to the POS API.
type Client struct {
	baseURL       string
	httpc         *http.Client
	tokens        TokenSource
	onAuthFailure AuthFailureFunc
	logger        *slog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying transport.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// WithAuthFailure installs the global unauthorized hook.
func WithAuthFailure(fn AuthFailureFunc) Option {
	return func(c *Client) { c.onAuthFailure = fn }
}

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient constructs a Client rooted at baseURL.
func NewClient(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   http.DefaultClient,
		tokens:  tokens,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do issues one request. path may be relative to the base URL or an absolute
// URL handed out by the server (pagination links are used verbatim). body is
// JSON-encoded when non-nil.
func (c *Client) Do(ctx context.Context, method, path string, body any) (*Envelope, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("api: encode body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), reader)
	if err != nil {
		return nil, fmt.Errorf("api: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("api: read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		// Global side effect: drop the stored token and notify, whatever the
		// caller was doing.
		if c.tokens != nil {
			c.tokens.Clear(ctx)
		}
		if c.onAuthFailure != nil {
			c.onAuthFailure(ctx)
		}
		return nil, ErrUnauthorized
	}

	env := &Envelope{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, env); err != nil && resp.StatusCode < 300 {
			return nil, fmt.Errorf("api: decode envelope: %w", err)
		}
	}

	if resp.StatusCode >= 300 {
		return nil, &Error{Status: resp.StatusCode, Envelope: env}
	}
	return env, nil
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string) (*Envelope, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

// Post issues a POST request.
func (c *Client) Post(ctx context.Context, path string, body any) (*Envelope, error) {
	return c.Do(ctx, http.MethodPost, path, body)
}

// Put issues a PUT request.
func (c *Client) Put(ctx context.Context, path string, body any) (*Envelope, error) {
	return c.Do(ctx, http.MethodPut, path, body)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Envelope, error) {
	return c.Do(ctx, http.MethodDelete, path, nil)
}

// TrustsURL reports whether a caller-supplied page URL may be fetched.
// Relative paths resolve against the base URL and are always fine; absolute
// URLs are accepted only under the configured base, so a crafted query
// parameter cannot point the client and its bearer token at a foreign host.
func (c *Client) TrustsURL(raw string) bool {
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return true
	}
	return raw == c.baseURL ||
		strings.HasPrefix(raw, c.baseURL+"/") ||
		strings.HasPrefix(raw, c.baseURL+"?")
}

func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// StaticTokens is a TokenSource holding a fixed token, used for calls made
// outside any browser session.
type StaticTokens string

// Token returns the fixed token.
func (s StaticTokens) Token(context.Context) string { return string(s) }

// Clear is a no-op for static tokens.
func (s StaticTokens) Clear(context.Context) {}
