package edgar

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultUserAgent identifies the client to SEC EDGAR, which rejects
	// anonymous traffic.
	DefaultUserAgent = "SECExtractor/1.0 (contact@example.com)"

	// DefaultRequestsPerSecond stays under EDGAR's fair-access limit of 10.
	DefaultRequestsPerSecond = 9.9

	DefaultMaxRetries    = 5
	DefaultBackoffFactor = 0.8
)

// ClientConfig tunes the EDGAR HTTP client.
type ClientConfig struct {
	UserAgent         string
	From              string
	RequestsPerSecond float64
	MaxRetries        int
	BackoffFactor     float64
	Timeout           time.Duration
}

func (c ClientConfig) withDefaults() ClientConfig {
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.BackoffFactor <= 0 {
		c.BackoffFactor = DefaultBackoffFactor
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return c
}

// =============================================================================
// SEC EDGAR CLIENT
// =============================================================================

// Client fetches documents from SEC EDGAR. A single limiter is shared by
// every caller, so concurrent batch workers stay under the request budget.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	cfg        ClientConfig
	cache      DocumentCache
	log        *zap.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// Option customizes a Client.
type Option func(*Client)

// WithCache enables document caching.
func WithCache(c DocumentCache) Option {
	return func(cl *Client) { cl.cache = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.log = l
		}
	}
}

// NewClient creates a new SEC EDGAR client.
func NewClient(cfg ClientConfig, opts ...Option) *Client {
	cfg = cfg.withDefaults()
	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		cfg:        cfg,
		log:        zap.NewNop(),
		sleep:      sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the body of url, consulting the cache first when one is set.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	key := CacheKey(url)
	if c.cache != nil {
		body, ok, err := c.cache.Get(ctx, key)
		if err != nil {
			c.log.Warn("edgar: cache read failed", zap.String("url", url), zap.Error(err))
		}
		if ok {
			return body, nil
		}
	}

	body, err := c.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Put(ctx, key, body); err != nil {
			c.log.Warn("edgar: cache write failed", zap.String("url", url), zap.Error(err))
		}
	}
	return body, nil
}

// fetch performs the request with bounded retries. Transport errors, 429 and
// 5xx responses are retried after backoffFactor * 2^attempt seconds.
func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := c.backoff(attempt - 1)
			c.log.Debug("edgar: retrying",
				zap.String("url", url),
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait),
				zap.Error(lastErr))
			if err := c.sleep(ctx, wait); err != nil {
				return nil, eris.Wrap(err, "edgar: retry wait")
			}
		}

		body, retry, err := c.do(ctx, url)
		if err == nil {
			return body, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
	}
	return nil, eris.Wrapf(lastErr, "edgar: giving up on %s after %d retries", url, c.cfg.MaxRetries)
}

func (c *Client) do(ctx context.Context, url string) ([]byte, bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, false, eris.Wrap(err, "edgar: rate limiter")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, eris.Wrap(err, "edgar: build request")
	}
	// SEC requires a descriptive User-Agent.
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	if c.cfg.From != "" {
		req.Header.Set("From", c.cfg.From)
	}
	req.Header.Set("Accept-Encoding", "identity")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, eris.Wrap(ctx.Err(), "edgar: request cancelled")
		}
		return nil, true, eris.Wrap(err, "edgar: request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		io.Copy(io.Discard, resp.Body)
		return nil, true, eris.Errorf("edgar: %s returned status %d", url, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, eris.Errorf("edgar: %s returned status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, eris.Wrap(err, "edgar: read response")
	}
	return body, false, nil
}

func (c *Client) backoff(n int) time.Duration {
	secs := c.cfg.BackoffFactor * math.Pow(2, float64(n))
	return time.Duration(secs * float64(time.Second))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// String describes the client configuration for logs.
func (c *Client) String() string {
	return fmt.Sprintf("edgar.Client{rps=%.1f retries=%d backoff=%.2f}",
		c.cfg.RequestsPerSecond, c.cfg.MaxRetries, c.cfg.BackoffFactor)
}
