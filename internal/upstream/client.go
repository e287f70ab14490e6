// Package upstream is the client for the competition-data provider. It
// exposes a generic authenticated GET plus the typed fetchers the prediction
// pipeline and the browsing endpoints need. Responses are cached in Redis
// because the provider throttles aggressively.
package upstream

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrRateLimited marks a "too many requests" response from the provider.
// It is classified separately from generic failures and never retried here.
var ErrRateLimited = errors.New("upstream rate limited")

// RateLimitGuidance is the fixed user-facing text for rate-limited failures.
const RateLimitGuidance = "Too many requests – you can make up to 10 API calls per minute."

// Config configures the upstream client.
type Config struct {
	BaseURL     string
	Token       string
	HTTPTimeout time.Duration
	LeagueCodes []string

	// Redis enables response caching when set.
	Redis    *redis.Client
	CacheTTL time.Duration

	Logger *zap.Logger
}

// Client talks to the football-data style API.
type Client struct {
	baseURL     string
	token       string
	http        *http.Client
	leagueCodes []string
	redis       *redis.Client
	cacheTTL    time.Duration
	logger      *zap.SugaredLogger
	now         func() time.Time
}

// New creates a client.
func New(cfg Config) *Client {
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 15 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		token:       cfg.Token,
		http:        &http.Client{Timeout: cfg.HTTPTimeout},
		leagueCodes: cfg.LeagueCodes,
		redis:       cfg.Redis,
		cacheTTL:    cfg.CacheTTL,
		logger:      cfg.Logger.Sugar(),
		now:         time.Now,
	}
}

// Get performs an authenticated GET against the provider and decodes the
// JSON payload into out. Successful payloads are cached; a 429 response maps
// to ErrRateLimited.
func (c *Client) Get(ctx context.Context, endpoint string, params url.Values, out any) error {
	full := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	if len(params) > 0 {
		full += "?" + params.Encode()
	}

	if raw, ok := c.cacheGet(ctx, full); ok {
		if json.Unmarshal(raw, out) == nil {
			return nil
		}
	}

	raw, err := c.fetch(ctx, full, true)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	c.cacheSet(ctx, full, raw)
	return nil
}

// FetchImage downloads emblem bytes from a crest URL. Crests are served from
// a public CDN, so no auth header is sent.
func (c *Client) FetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	if imageURL == "" {
		return nil, nil
	}
	if raw, ok := c.cacheGet(ctx, imageURL); ok {
		return raw, nil
	}
	raw, err := c.fetch(ctx, imageURL, false)
	if err != nil {
		return nil, err
	}
	c.cacheSet(ctx, imageURL, raw)
	return raw, nil
}

func (c *Client) fetch(ctx context.Context, fullURL string, authed bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", fullURL, err)
	}
	if authed && c.token != "" {
		req.Header.Set("X-Auth-Token", c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", fullURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		c.logger.Warnw("Upstream throttled request", "url", fullURL)
		return nil, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: unexpected status %s", fullURL, resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fullURL, err)
	}
	return raw, nil
}

func (c *Client) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	if c.redis == nil {
		return nil, false
	}
	raw, err := c.redis.Get(ctx, cacheKey(key)).Bytes()
	if err != nil {
		return nil, false
	}
	return raw, true
}

func (c *Client) cacheSet(ctx context.Context, key string, raw []byte) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Set(ctx, cacheKey(key), raw, c.cacheTTL).Err(); err != nil {
		c.logger.Warnw("Failed to cache upstream response", "key", key, "error", err)
	}
}

func cacheKey(fullURL string) string {
	sum := sha256.Sum256([]byte(fullURL))
	return "upstream:" + hex.EncodeToString(sum[:])
}
