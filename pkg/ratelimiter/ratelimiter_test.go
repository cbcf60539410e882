package ratelimiter_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/lecturefeed/pkg/ratelimiter"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var testConfig = ratelimiter.Config{Capacity: 3, RefillRate: 1, RefillInterval: time.Minute}

func TestNewBucket_Validation(t *testing.T) {
	t.Parallel()

	st := ratelimiter.NewMemoryStore(0)
	for name, cfg := range map[string]ratelimiter.Config{
		"capacity": {Capacity: 0, RefillRate: 1, RefillInterval: time.Second},
		"rate":     {Capacity: 1, RefillRate: 0, RefillInterval: time.Second},
		"interval": {Capacity: 1, RefillRate: 1},
	} {
		_, err := ratelimiter.NewBucket(st, cfg)
		require.ErrorIs(t, err, ratelimiter.ErrInvalidConfig, name)
	}
	_, err := ratelimiter.NewBucket(nil, testConfig)
	require.ErrorIs(t, err, ratelimiter.ErrInvalidConfig)
}

func TestBucket_MemoryStore(t *testing.T) {
	t.Parallel()

	clk := &clock{now: time.Unix(1_700_000_000, 0)}
	st := ratelimiter.NewMemoryStore(0, ratelimiter.WithClock(clk.Now))
	b, err := ratelimiter.NewBucket(st, testConfig)
	require.NoError(t, err)
	ctx := context.Background()

	for want := 2; want >= 0; want-- {
		res, err := b.Allow(ctx, "ip")
		require.NoError(t, err)
		assert.True(t, res.Allowed())
		assert.Equal(t, want, res.Remaining)
		assert.Equal(t, 3, res.Limit)
	}

	res, err := b.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.False(t, res.Allowed())

	// Denied calls do not drain the bucket further.
	clk.advance(time.Minute)
	res, err = b.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.True(t, res.Allowed())
	assert.Equal(t, 0, res.Remaining)

	// Other keys are independent.
	res, err = b.Allow(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Remaining)

	// Refill is capped at capacity.
	clk.advance(time.Hour)
	res, err = b.AllowN(ctx, "ip", 3)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Remaining)

	_, err = b.AllowN(ctx, "ip", 0)
	require.ErrorIs(t, err, ratelimiter.ErrInvalidTokenCount)

	require.NoError(t, b.Reset(ctx, "ip"))
	assert.Equal(t, 1, st.Len())
	require.NoError(t, st.Close())
	require.NoError(t, st.Close())
}

func TestResult(t *testing.T) {
	t.Parallel()

	ok := &ratelimiter.Result{Remaining: 0, ResetAt: time.Now().Add(time.Minute)}
	assert.True(t, ok.Allowed())
	assert.Zero(t, ok.RetryAfter())

	denied := &ratelimiter.Result{Remaining: -1, ResetAt: time.Now().Add(time.Minute)}
	assert.False(t, denied.Allowed())
	assert.InDelta(t, time.Minute.Seconds(), denied.RetryAfter().Seconds(), 1)
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	st := ratelimiter.NewMemoryStore(0)
	b, err := ratelimiter.NewBucket(st, ratelimiter.Config{Capacity: 2, RefillRate: 1, RefillInterval: time.Hour})
	require.NoError(t, err)

	h := ratelimiter.Middleware(b, ratelimiter.KeyByIP, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	call := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, call("10.0.0.1:1000").Code)
	rec := call("10.0.0.1:2000")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = call("10.0.0.1:3000")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusNoContent, call("10.0.0.2:1000").Code)
}

func TestKeyByIP(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "[::1]:443"
	assert.Equal(t, "::1", ratelimiter.KeyByIP(req))
	req.RemoteAddr = "192.0.2.1"
	assert.Equal(t, "192.0.2.1", ratelimiter.KeyByIP(req))
}

func TestBucket_RedisStore(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	st := ratelimiter.NewRedisStore(client, "lecturefeed:test:ratelimit:")
	b, err := ratelimiter.NewBucket(st, testConfig)
	require.NoError(t, err)

	ctx := context.Background()
	key := t.Name() + time.Now().Format(time.RFC3339Nano)
	t.Cleanup(func() { _ = b.Reset(ctx, key) })

	for want := 2; want >= 0; want-- {
		res, err := b.Allow(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, want, res.Remaining)
	}
	res, err := b.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, res.Allowed())

	require.NoError(t, b.Reset(ctx, key))
	res, err = b.Allow(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Remaining)
}
