package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisLimiter_FixedWindow(t *testing.T) {
	mr, client := newTestRedis(t)
	limiter := NewRedisLimiter(client, 3, time.Minute)
	fixed := time.Unix(1_700_000_000, 0)
	limiter.now = func() time.Time { return fixed }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, _, err := limiter.Allow(ctx, "login:1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i+1)
	}

	ok, retryAfter, err := limiter.Allow(ctx, "login:1.2.3.4")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 40*time.Second, retryAfter, "seconds left in the current window")

	ok, _, err = limiter.Allow(ctx, "login:5.6.7.8")
	require.NoError(t, err)
	assert.True(t, ok, "other keys have their own window")

	windowKey := "ratelimit:login:1.2.3.4:28333333"
	assert.True(t, mr.Exists(windowKey))
	assert.Equal(t, 2*time.Minute, mr.TTL(windowKey))

	limiter.now = func() time.Time { return fixed.Add(time.Minute) }
	ok, _, err = limiter.Allow(ctx, "login:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, ok, "next window starts fresh")
}

func TestRedisLimiter_Unavailable(t *testing.T) {
	mr, client := newTestRedis(t)
	limiter := NewRedisLimiter(client, 3, time.Minute)
	mr.Close()

	_, _, err := limiter.Allow(context.Background(), "k")
	assert.Error(t, err)
}

func TestLocalLimiter(t *testing.T) {
	limiter := NewLocalLimiter(2, time.Minute)
	ctx := context.Background()

	ok, _, _ := limiter.Allow(ctx, "a")
	assert.True(t, ok)
	ok, _, _ = limiter.Allow(ctx, "a")
	assert.True(t, ok)
	ok, retryAfter, _ := limiter.Allow(ctx, "a")
	assert.False(t, ok)
	assert.Greater(t, retryAfter, time.Duration(0))
	assert.LessOrEqual(t, retryAfter, 30*time.Second)

	ok, _, _ = limiter.Allow(ctx, "b")
	assert.True(t, ok)
}

func TestLocalLimiter_SweepsIdleKeys(t *testing.T) {
	limiter := NewLocalLimiter(2, time.Minute)
	start := time.Unix(1_700_000_000, 0)
	limiter.now = func() time.Time { return start }
	limiter.lastSweep = start
	ctx := context.Background()

	_, _, _ = limiter.Allow(ctx, "login:1.1.1.1")
	_, _, _ = limiter.Allow(ctx, "login:2.2.2.2")
	require.Len(t, limiter.m, 2)

	limiter.now = func() time.Time { return start.Add(30 * time.Second) }
	_, _, _ = limiter.Allow(ctx, "login:2.2.2.2")
	assert.Len(t, limiter.m, 2, "no sweep before a full window has passed")

	limiter.now = func() time.Time { return start.Add(75 * time.Second) }
	ok, _, _ := limiter.Allow(ctx, "login:3.3.3.3")
	assert.True(t, ok)

	assert.NotContains(t, limiter.m, "login:1.1.1.1", "idle key dropped")
	assert.Contains(t, limiter.m, "login:2.2.2.2", "seen within the window")
	assert.Contains(t, limiter.m, "login:3.3.3.3")
}

func TestRateLimitMiddleware(t *testing.T) {
	_, client := newTestRedis(t)
	limiter := NewRedisLimiter(client, 1, time.Minute)
	limiter.now = func() time.Time { return time.Unix(1_700_000_015, 0) }
	handler := RateLimit(limiter, "upload", zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/upload", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, do().Code)

	limited := do()
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "25", limited.Header().Get("Retry-After"))
	assert.Contains(t, limited.Body.String(), "RATE_LIMITED")
}

func TestRateLimitMiddleware_FailsOpen(t *testing.T) {
	mr, client := newTestRedis(t)
	limiter := NewRedisLimiter(client, 1, time.Minute)
	mr.Close()

	handler := RateLimit(limiter, "login", zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRetrySeconds(t *testing.T) {
	assert.Equal(t, 1, retrySeconds(0))
	assert.Equal(t, 1, retrySeconds(200*time.Millisecond))
	assert.Equal(t, 2, retrySeconds(1500*time.Millisecond))
	assert.Equal(t, 40, retrySeconds(40*time.Second))
}
