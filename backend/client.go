package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	shopsession "github.com/arhamlabs/shopsession"
)

// Client is the HTTP implementation of [shopsession.BackendClient]. Every
// call is bounded by the configured timeout; a timeout is classified exactly
// like any other connectivity failure.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option mutates a Client during construction.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Used in tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// New builds a client for the storefront API at baseURL. The transport is
// otelhttp-instrumented so backend spans show up in traces when a provider
// is configured.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login exchanges credentials for a token+user pair.
func (c *Client) Login(ctx context.Context, email, password string) (shopsession.LoginResponse, error) {
	var out shopsession.LoginResponse
	body := map[string]string{"email": email, "password": password}
	err := c.do(ctx, http.MethodPost, "/auth/login", "", body, &out, classifyLogin)
	return out, err
}

// CurrentUser fetches the user and profile for the bearer token.
func (c *Client) CurrentUser(ctx context.Context, token string) (shopsession.MeResponse, error) {
	var out shopsession.MeResponse
	err := c.do(ctx, http.MethodGet, "/auth/me", token, nil, &out, classifyAuthed)
	return out, err
}

// Cart fetches the authoritative server cart.
func (c *Client) Cart(ctx context.Context, token string) (shopsession.Cart, error) {
	var out shopsession.Cart
	err := c.do(ctx, http.MethodGet, "/cart", token, nil, &out, classifyAuthed)
	return out, err
}

// AddCartItem adds one line to the server cart and returns the updated cart.
func (c *Client) AddCartItem(ctx context.Context, token, productID string, quantity int) (shopsession.Cart, error) {
	var out shopsession.Cart
	body := map[string]any{"productId": productID, "quantity": quantity}
	err := c.do(ctx, http.MethodPost, "/cart/items", token, body, &out, classifyAuthed)
	return out, err
}

// ClearCart empties the server cart.
func (c *Client) ClearCart(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodDelete, "/cart/clear", token, nil, nil, classifyAuthed)
}

// classify turns a non-2xx status plus server message into a sentinel-wrapped
// error. Login and authenticated calls differ only in what a 4xx means.
type classify func(status int, message string) error

func classifyLogin(status int, message string) error {
	switch {
	case status == http.StatusUnauthorized, status >= 400 && status < 500:
		// Credential rejections surface the server's message verbatim.
		if message == "" {
			return shopsession.ErrInvalidCredentials
		}
		return fmt.Errorf("%w: %s", shopsession.ErrInvalidCredentials, message)
	default:
		return fmt.Errorf("%w: status %d", shopsession.ErrBackendUnavailable, status)
	}
}

func classifyAuthed(status int, message string) error {
	switch {
	case status == http.StatusUnauthorized:
		return shopsession.ErrUnauthorized
	case status >= 400 && status < 500:
		if message == "" {
			message = http.StatusText(status)
		}
		return fmt.Errorf("%w: %s", shopsession.ErrBackendUnavailable, message)
	default:
		return fmt.Errorf("%w: status %d", shopsession.ErrBackendUnavailable, status)
	}
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any, cls classify) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: %v", shopsession.ErrBackendUnavailable, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: %v", shopsession.ErrBackendUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shopsession.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return cls(resp.StatusCode, errorMessage(resp.Body))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: malformed response: %v", shopsession.ErrBackendUnavailable, err)
	}
	return nil
}

// errorMessage extracts the server's error string from a failure body. The
// API uses {"error": "..."} with {"message": "..."} as a legacy fallback.
func errorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return ""
	}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}
