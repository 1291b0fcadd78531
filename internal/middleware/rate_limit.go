package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/baharkarakas/mfs-backend/internal/api/httpx"
	"github.com/baharkarakas/mfs-backend/internal/metrics"
)

// Limiter decides whether one more request for key fits the budget.
type Limiter interface {
	Allow(ctx context.Context, key string) (ok bool, retryAfter time.Duration, err error)
}

type tokenBucket struct {
	tokens int
	last   time.Time
}

// idleBucketTTL is how long a bucket may go untouched before it is swept.
// Any bucket idle that long has refilled to burst, so dropping it is
// indistinguishable from keeping it.
const idleBucketTTL = time.Minute

// LocalLimiter keeps one token bucket per key in process memory.
type LocalLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*tokenBucket
	rate      int
	burst     int
	now       func() time.Time
	lastSweep time.Time
}

func NewLocalLimiter(rps int) *LocalLimiter {
	return &LocalLimiter{
		buckets: make(map[string]*tokenBucket),
		rate:    rps,
		burst:   rps,
		now:     time.Now,
	}
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	if l.rate <= 0 {
		return true, 0, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)
	tb, ok := l.buckets[key]
	if !ok {
		tb = &tokenBucket{tokens: l.burst, last: now}
		l.buckets[key] = tb
	}
	elapsed := now.Sub(tb.last).Seconds()
	if elapsed > 0 {
		refill := int(elapsed * float64(l.rate))
		if refill > 0 {
			tb.tokens += refill
			if tb.tokens > l.burst {
				tb.tokens = l.burst
			}
			tb.last = now
		}
	}
	if tb.tokens > 0 {
		tb.tokens--
		return true, 0, nil
	}
	return false, time.Second / time.Duration(l.rate), nil
}

// sweep drops idle buckets at most once per idleBucketTTL. Caller holds mu.
func (l *LocalLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < idleBucketTTL {
		return
	}
	l.lastSweep = now
	for k, tb := range l.buckets {
		if now.Sub(tb.last) >= idleBucketTTL {
			delete(l.buckets, k)
		}
	}
}

var rateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// RedisLimiter is a fixed-window counter shared by every replica.
type RedisLimiter struct {
	client redis.UniversalClient
	prefix string
	limit  int
	window time.Duration
}

func NewRedisLimiter(client redis.UniversalClient, prefix string, limit int, window time.Duration) *RedisLimiter {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = "mfs:rate_limit"
	}
	if window < time.Second {
		window = time.Second
	}
	return &RedisLimiter{client: client, prefix: prefix, limit: limit, window: window}
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	raw, err := rateLimitScript.Run(ctx, r.client, []string{r.prefix + ":" + key}, r.window.Milliseconds()).Result()
	if err != nil {
		return false, 0, err
	}
	values, ok := raw.([]interface{})
	if !ok || len(values) != 2 {
		return false, 0, fmt.Errorf("unexpected redis limiter response shape: %T", raw)
	}
	count, ok := values[0].(int64)
	if !ok {
		return false, 0, fmt.Errorf("unexpected redis limiter count type: %T", values[0])
	}
	ttl, ok := values[1].(int64)
	if !ok || ttl < 0 {
		ttl = r.window.Milliseconds()
	}
	if int(count) > r.limit {
		return false, time.Duration(ttl) * time.Millisecond, nil
	}
	return true, 0, nil
}

// FallbackLimiter asks primary and switches to secondary when primary errors.
type FallbackLimiter struct {
	Primary   Limiter
	Secondary Limiter
	Log       *slog.Logger
}

func (f FallbackLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	ok, retry, err := f.Primary.Allow(ctx, key)
	if err == nil {
		return ok, retry, nil
	}
	if f.Log != nil {
		f.Log.Warn("rate limiter degraded to local", "err", err)
	}
	return f.Secondary.Allow(ctx, key)
}

// RateLimit throttles per client IP. A nil limiter disables it; limiter
// errors let the request through.
func RateLimit(l Limiter) func(http.Handler) http.Handler {
	if l == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, retry, err := l.Allow(r.Context(), clientIP(r))
			if err == nil && !ok {
				metrics.RateLimited.Inc()
				secs := int(math.Ceil(retry.Seconds()))
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				httpx.WriteError(w, http.StatusTooManyRequests, "rate_limited", "too many requests", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
