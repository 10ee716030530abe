package httpclient

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheTTL is how long a successful query stays memoized.
const DefaultCacheTTL = 30 * time.Second

type cacheEntry struct {
	body    string
	expires time.Time
}

// QueryCache memoizes successful GET queries by exact URL. Headers are not
// part of the key. Failed queries are never cached.
type QueryCache struct {
	client Client
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
	group   singleflight.Group
}

// CacheOption configures a QueryCache
type CacheOption func(*QueryCache)

// WithClock replaces the time source used for expiry.
func WithClock(now func() time.Time) CacheOption {
	return func(c *QueryCache) {
		c.now = now
	}
}

// WithTTL overrides DefaultCacheTTL.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *QueryCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// NewQueryCache creates a QueryCache in front of client.
func NewQueryCache(client Client, opts ...CacheOption) *QueryCache {
	c := &QueryCache{
		client:  client,
		ttl:     DefaultCacheTTL,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Client returns the underlying HTTP client.
func (c *QueryCache) Client() Client {
	return c.client
}

// Query returns the body of url. A failed query is logged and reported as absent.
func (c *QueryCache) Query(ctx context.Context, url string, headers http.Header) (string, bool) {
	body, err := c.Fetch(ctx, url, headers)
	if err != nil {
		logr.FromContextOrDiscard(ctx).Error(err, "Query failed", "url", url)
		return "", false
	}
	return body, true
}

// Fetch returns the body of url, issuing at most one request per URL at a time.
// Line endings are normalised to \n and a single trailing newline is dropped.
func (c *QueryCache) Fetch(ctx context.Context, url string, headers http.Header) (string, error) {
	if body, ok := c.lookup(url); ok {
		logr.FromContextOrDiscard(ctx).V(1).Info("Query cache hit", "url", url)
		return body, nil
	}

	v, err, _ := c.group.Do(url, func() (any, error) {
		if body, ok := c.lookup(url); ok {
			return body, nil
		}

		data, err := c.client.Get(ctx, url, headers)
		if err != nil {
			return "", err
		}

		body := normalizeBody(data)
		c.store(url, body)
		return body, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Len returns the number of live entries.
func (c *QueryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweepLocked(c.now())
	return len(c.entries)
}

func (c *QueryCache) lookup(url string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[url]
	if !ok {
		return "", false
	}
	if !c.now().Before(entry.expires) {
		delete(c.entries, url)
		return "", false
	}
	return entry.body, true
}

func (c *QueryCache) store(url, body string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.sweepLocked(now)
	c.entries[url] = cacheEntry{body: body, expires: now.Add(c.ttl)}
}

func (c *QueryCache) sweepLocked(now time.Time) {
	for key, entry := range c.entries {
		if !now.Before(entry.expires) {
			delete(c.entries, key)
		}
	}
}

func normalizeBody(data []byte) string {
	body := strings.ReplaceAll(string(data), "\r\n", "\n")
	body = strings.ReplaceAll(body, "\r", "\n")
	return strings.TrimSuffix(body, "\n")
}
