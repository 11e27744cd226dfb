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
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/singleflight"
)

// Config describes the API the client talks to
type Config struct {
	BaseURL    string
	APIVersion string
	Timeout    time.Duration
	Headers    map[string]string
}

// RetryConfig bounds retries of idempotent reads. Mutations are never
// retried: a blind retry of a payment creation risks a duplicate payment.
type RetryConfig struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithCache shares a cache between clients, e.g. a storefront and an
// admin surface in the same process
func WithCache(cache *Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithRetry enables bounded retries of reads on transport errors, 5xx and 429
func WithRetry(cfg RetryConfig) Option {
	return func(c *Client) { c.retry = &cfg }
}

// Client calls the storefront API and keeps its cache reconciled
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiVersion string
	headers    map[string]string
	retry      *RetryConfig
	cache      *Cache
	reads      singleflight.Group

	mu          sync.RWMutex
	accessToken string
	sessionKey  string
}

// NewClient creates a new Client
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "v1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiVersion: cfg.APIVersion,
		headers:    map[string]string{"Accept": "application/json"},
	}
	for k, v := range cfg.Headers {
		c.headers[k] = v
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cache == nil {
		c.cache = NewCache()
	}
	return c, nil
}

// Cache returns the client's read cache
func (c *Client) Cache() *Cache {
	return c.cache
}

// SetAccessToken authenticates subsequent calls; empty clears it. The
// cached cart belongs to the previous identity and is dropped.
func (c *Client) SetAccessToken(token string) {
	c.mu.Lock()
	c.accessToken = token
	c.mu.Unlock()
	c.cache.Delete(KeyCart)
}

// SetSessionKey sets the anonymous cart key sent as X-Session-Key
func (c *Client) SetSessionKey(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionKey = key
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
}

type request struct {
	method      string
	path        string
	body        io.Reader
	contentType string
}

func (c *Client) jsonRequest(method, path string, body any) (request, error) {
	req := request{method: method, path: path}
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return req, fmt.Errorf("marshaling request body: %w", err)
		}
		req.body = bytes.NewReader(raw)
		req.contentType = "application/json"
	}
	return req, nil
}

func (c *Client) send(ctx context.Context, req request) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+"/api/"+c.apiVersion+req.path, req.body)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	c.mu.RLock()
	if c.accessToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)
	}
	if c.sessionKey != "" {
		httpReq.Header.Set("X-Session-Key", c.sessionKey)
	}
	c.mu.RUnlock()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	return resp, nil
}

// do sends the request and decodes the envelope's data into out
func (c *Client) do(ctx context.Context, req request, out any) error {
	resp, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeEnvelope(resp, out)
}

func decodeEnvelope(resp *http.Response, out any) error {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= 400 {
			return &APIError{Status: resp.StatusCode, Code: codeForStatus(resp.StatusCode), Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("decoding response envelope: %w", err)
	}
	if !env.Success || resp.StatusCode >= 400 {
		apiErr := env.Error
		if apiErr == nil {
			apiErr = &APIError{Code: codeForStatus(resp.StatusCode), Message: http.StatusText(resp.StatusCode)}
		}
		apiErr.Status = resp.StatusCode
		return apiErr
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decoding response data: %w", err)
	}
	return nil
}

// codeForStatus names errors that arrive without an envelope, e.g. from a
// proxy in front of the API
func codeForStatus(status int) string {
	switch {
	case status == http.StatusNotFound:
		return "NOT_FOUND"
	case status == http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case status == http.StatusForbidden:
		return "FORBIDDEN"
	case status == http.StatusTooManyRequests:
		return "RATE_LIMITED"
	case status >= 500:
		return "UPSTREAM_UNAVAILABLE"
	default:
		return "BAD_REQUEST"
	}
}

// read fetches a GET resource into a fresh T, sharing the request between
// concurrent callers of the same key and caching the result
func read[T any](ctx context.Context, c *Client, key, path string) (T, error) {
	if !c.cache.IsStale(key) {
		if v, ok := Lookup[T](c.cache, key); ok {
			return v, nil
		}
	}

	v, err, _ := c.reads.Do(key, func() (any, error) {
		var out T
		op := func() error {
			err := c.do(ctx, request{method: http.MethodGet, path: path}, &out)
			if err != nil && !retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		if err := backoff.Retry(op, c.backoffPolicy(ctx)); err != nil {
			return out, err
		}
		c.cache.Set(key, out)
		return out, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func (c *Client) backoffPolicy(ctx context.Context) backoff.BackOff {
	if c.retry == nil {
		return backoff.WithContext(&backoff.StopBackOff{}, ctx)
	}
	b := backoff.NewExponentialBackOff()
	if c.retry.InitialInterval > 0 {
		b.InitialInterval = c.retry.InitialInterval
	}
	if c.retry.MaxInterval > 0 {
		b.MaxInterval = c.retry.MaxInterval
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, c.retry.MaxRetries), ctx)
}

func retryable(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return true
	}
	return apiErr.Status >= 500 || apiErr.Status == http.StatusTooManyRequests
}

func mutate[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	var out T
	req, err := c.jsonRequest(method, path, body)
	if err != nil {
		return out, err
	}
	err = c.do(ctx, req, &out)
	return out, err
}
