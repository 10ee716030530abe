package httpclient_test

import (
	"context"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/plugin-updater/internal/httpclient"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type countingClient struct {
	calls   atomic.Int32
	body    []byte
	err     error
	release chan struct{}
}

func (c *countingClient) Get(_ context.Context, _ string, _ http.Header) ([]byte, error) {
	c.calls.Add(1)
	if c.release != nil {
		<-c.release
	}
	return c.body, c.err
}

func (*countingClient) Download(context.Context, string, http.Header, io.Writer) (int64, error) {
	return 0, nil
}

func TestQueryCache_ReusesEntryWithinWindow(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	client := &countingClient{body: []byte("1.2.3\n")}
	cache := httpclient.NewQueryCache(client, httpclient.WithClock(clock.Now))
	ctx := context.Background()

	body, ok := cache.Query(ctx, "https://example.org/version", nil)
	require.True(t, ok)
	assert.Equal(t, "1.2.3", body)

	clock.Advance(29 * time.Second)
	body, ok = cache.Query(ctx, "https://example.org/version", http.Header{"Accept": []string{"text/plain"}})
	require.True(t, ok)
	assert.Equal(t, "1.2.3", body)
	assert.Equal(t, int32(1), client.calls.Load(), "headers are not part of the key")

	clock.Advance(time.Second)
	_, ok = cache.Query(ctx, "https://example.org/version", nil)
	require.True(t, ok)
	assert.Equal(t, int32(2), client.calls.Load(), "entry expires after the window")
}

func TestQueryCache_KeyedByExactURL(t *testing.T) {
	t.Parallel()

	client := &countingClient{body: []byte("x")}
	cache := httpclient.NewQueryCache(client, httpclient.WithClock(newFakeClock().Now))
	ctx := context.Background()

	_, _ = cache.Query(ctx, "https://example.org/a", nil)
	_, _ = cache.Query(ctx, "https://example.org/a?x=1", nil)
	_, _ = cache.Query(ctx, "https://example.org/a", nil)

	assert.Equal(t, int32(2), client.calls.Load())
	assert.Equal(t, 2, cache.Len())
}

func TestQueryCache_FailuresAreNotCached(t *testing.T) {
	t.Parallel()

	client := &countingClient{err: httpclient.NewHTTPError(http.StatusNotFound, "u", "404 Not Found")}
	cache := httpclient.NewQueryCache(client, httpclient.WithClock(newFakeClock().Now))
	ctx := context.Background()

	_, ok := cache.Query(ctx, "u", nil)
	assert.False(t, ok)
	_, err := cache.Fetch(ctx, "u", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, httpclient.StatusCode(err))

	assert.Equal(t, int32(2), client.calls.Load())
	assert.Zero(t, cache.Len())
}

func TestQueryCache_NormalisesLineEndings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{name: "single line", body: "7", expected: "7"},
		{name: "trailing newline", body: "7\n", expected: "7"},
		{name: "crlf lines", body: "7\r\nbuild 12\r\n", expected: "7\nbuild 12"},
		{name: "blank last line kept", body: "a\n\n", expected: "a\n"},
		{name: "empty", body: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cache := httpclient.NewQueryCache(&countingClient{body: []byte(tt.body)})
			body, ok := cache.Query(context.Background(), "u", nil)
			require.True(t, ok)
			assert.Equal(t, tt.expected, body)
		})
	}
}

func TestQueryCache_ConcurrentCallsShareOneRequest(t *testing.T) {
	t.Parallel()

	client := &countingClient{body: []byte("42"), release: make(chan struct{})}
	cache := httpclient.NewQueryCache(client, httpclient.WithClock(newFakeClock().Now))

	const callers = 8
	var wg sync.WaitGroup
	results := make([]string, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = cache.Query(context.Background(), "https://example.org/same", nil)
		}()
	}

	// Let the first request through once at least one caller is waiting on it.
	require.Eventually(t, func() bool { return client.calls.Load() >= 1 }, time.Second, time.Millisecond)
	close(client.release)
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, "42", r)
	}
	// Late arrivals may issue their own request; once cached the entry is reused.
	calls := client.calls.Load()
	assert.GreaterOrEqual(t, calls, int32(1))

	_, _ = cache.Query(context.Background(), "https://example.org/same", nil)
	assert.Equal(t, calls, client.calls.Load())
}

func TestQueryCache_WithTTL(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	client := &countingClient{body: []byte("1")}
	cache := httpclient.NewQueryCache(client, httpclient.WithClock(clock.Now), httpclient.WithTTL(time.Minute))

	_, _ = cache.Query(context.Background(), "u", nil)
	clock.Advance(45 * time.Second)
	_, _ = cache.Query(context.Background(), "u", nil)
	assert.Equal(t, int32(1), client.calls.Load())

	clock.Advance(15 * time.Second)
	assert.Zero(t, cache.Len())
}
