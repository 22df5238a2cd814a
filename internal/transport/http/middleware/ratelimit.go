package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/vedran77/glamplanner/internal/metrics"
	"golang.org/x/time/rate"
)

// Limiter decides whether one more request for key fits in the current
// window. When it does not, retryAfter says how long until it would.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

// RedisLimiter is a fixed window counter shared by every instance.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: window, now: time.Now}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	now := l.now()
	windowSecs := int64(l.window.Seconds())
	bucket := now.Unix() / windowSecs
	windowKey := fmt.Sprintf("ratelimit:%s:%d", key, bucket)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, windowKey)
	pipe.Expire(ctx, windowKey, l.window*2)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, err
	}

	if incr.Val() <= int64(l.limit) {
		return true, 0, nil
	}
	windowEnd := time.Unix((bucket+1)*windowSecs, 0)
	return false, windowEnd.Sub(now), nil
}

type localEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// LocalLimiter keeps one token bucket per key in process memory. Used when no
// Redis is configured. Keys idle for a full window are swept, since their
// bucket has refilled by then anyway.
type LocalLimiter struct {
	mu        sync.Mutex
	m         map[string]*localEntry
	every     rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func NewLocalLimiter(limit int, window time.Duration) *LocalLimiter {
	return &LocalLimiter{
		m:         make(map[string]*localEntry),
		every:     rate.Every(window / time.Duration(limit)),
		burst:     limit,
		idle:      window,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idle {
		l.sweep(now)
	}

	e, ok := l.m[key]
	if !ok {
		e = &localEntry{lim: rate.NewLimiter(l.every, l.burst)}
		l.m[key] = e
	}
	e.lastSeen = now

	if e.lim.AllowN(now, 1) {
		return true, 0, nil
	}
	r := e.lim.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	r.CancelAt(now)
	return false, delay, nil
}

func (l *LocalLimiter) sweep(now time.Time) {
	for key, e := range l.m {
		if now.Sub(e.lastSeen) >= l.idle {
			delete(l.m, key)
		}
	}
	l.lastSweep = now
}

// RateLimit throttles per client IP. Limiter errors fail open.
func RateLimit(limiter Limiter, endpoint string, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := endpoint + ":" + clientIP(r)

			allowed, retryAfter, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.Warn().Err(err).Str("endpoint", endpoint).Msg("rate limiter unavailable")
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				metrics.RateLimitHits.WithLabelValues(endpoint).Inc()
				w.Header().Set("Retry-After", strconv.Itoa(retrySeconds(retryAfter)))
				jsonError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests, slow down")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// retrySeconds rounds up to whole seconds, never below one.
func retrySeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	return max(secs, 1)
}

func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
