package transport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/evidra/internal/cache"
	"github.com/ppiankov/evidra/internal/model"
)

// Auth decorates outbound requests with credentials
type Auth interface {
	Apply(req *http.Request)
	// Scope distinguishes credentials in cache keys; it is hashed, never stored
	Scope() string
}

type bearerAuth string

func (b bearerAuth) Apply(req *http.Request) { req.Header.Set("Authorization", "Bearer "+string(b)) }
func (b bearerAuth) Scope() string           { return "bearer:" + string(b) }

// Bearer authenticates with a token
func Bearer(token string) Auth {
	return bearerAuth(token)
}

type basicAuth struct{ user, secret string }

func (b basicAuth) Apply(req *http.Request) {
	cred := base64.StdEncoding.EncodeToString([]byte(b.user + ":" + b.secret))
	req.Header.Set("Authorization", "Basic "+cred)
}
func (b basicAuth) Scope() string { return "basic:" + b.user + ":" + b.secret }

// Basic authenticates with a user and API token
func Basic(user, secret string) Auth {
	return basicAuth{user: user, secret: secret}
}

// Client is a JSON-over-HTTP client bound to one provider base URL.
// Requests are single-attempt; failures surface to the caller unchanged.
type Client struct {
	baseURL    string
	auth       Auth
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	limiter    *Limiter
	cache      cache.Cache
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithMaxBodyBytes caps how much of a response body is read
func WithMaxBodyBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBytes = n
		}
	}
}

// WithLimiter shares a per-host rate limiter
func WithLimiter(l *Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithCache caches successful GET bodies for ttl
func WithCache(ch cache.Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = ch
		c.cacheTTL = ttl
	}
}

// WithLogger sets the request logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client for baseURL. auth may be nil.
func New(baseURL string, auth Auth, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		auth:       auth,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  "evidra",
		maxBytes:   10_000_000,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewHTTPClient builds the shared *http.Client from HTTP settings
func NewHTTPClient(cfg model.HTTPConfig) *http.Client {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.Proxy = ProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy)
	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: tr,
	}
}

// Options returns the client options implied by cfg plus the shared limiter and cache
func Options(cfg model.HTTPConfig, limiter *Limiter, ch cache.Cache, ttl time.Duration, logger *zap.Logger) []Option {
	opts := []Option{
		WithHTTPClient(NewHTTPClient(cfg)),
		WithUserAgent(cfg.UserAgent),
		WithMaxBodyBytes(cfg.MaxBodyBytes),
		WithLogger(logger),
	}
	if limiter != nil {
		opts = append(opts, WithLimiter(limiter))
	}
	if ch != nil {
		opts = append(opts, WithCache(ch, ttl))
	}
	return opts
}

// BaseURL returns the configured base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetJSON sends a GET to path and decodes the JSON response into dest.
// Non-2xx responses return *APIError.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, dest any) error {
	return c.getJSON(ctx, path, query, dest, true)
}

// GetJSONFresh is GetJSON without the response cache: the request always
// reaches the provider and the body is not stored.
func (c *Client) GetJSONFresh(ctx context.Context, path string, query url.Values, dest any) error {
	return c.getJSON(ctx, path, query, dest, false)
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dest any, cached bool) error {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	useCache := cached && c.cache != nil
	var key string
	if useCache {
		scope := ""
		if c.auth != nil {
			scope = c.auth.Scope()
		}
		key = cache.Key(http.MethodGet, fullURL, scope)
		if body, ok := c.cache.Get(key); ok {
			c.logger.Debug("cache hit", zap.String("url", fullURL))
			return decode(body, dest)
		}
	}

	body, err := c.do(ctx, http.MethodGet, fullURL)
	if err != nil {
		return err
	}
	if err := decode(body, dest); err != nil {
		return err
	}

	if useCache {
		if err := c.cache.Set(key, body, c.cacheTTL); err != nil {
			c.logger.Warn("cache store failed", zap.String("url", fullURL), zap.Error(err))
		}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, fullURL string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, fullURL); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.auth != nil {
		c.auth.Apply(req)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, redact(fullURL), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	c.logger.Debug("provider request",
		zap.String("method", method),
		zap.String("url", redact(fullURL)),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Method:     method,
			URL:        redact(fullURL),
			Body:       truncateBody(body),
		}
	}
	return body, nil
}

func decode(body []byte, dest any) error {
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// redact drops the query string so search terms and tokens never reach logs
func redact(fullURL string) string {
	if i := strings.IndexByte(fullURL, '?'); i >= 0 {
		return fullURL[:i]
	}
	return fullURL
}
