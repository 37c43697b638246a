package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/PauloVieira29/Fitness/internal/logging"
	"github.com/PauloVieira29/Fitness/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RateLimiter decides whether one more request identified by key fits
// in its budget.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Limit() int
	Window() time.Duration
}

// fixedWindowScript counts requests in the current window and starts the
// window on the first hit. Returns the count after this request.
var fixedWindowScript = redis.NewScript(`
local current = redis.call('INCR', KEYS[1])
if current == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return current
`)

// RedisLimiter is a fixed-window counter shared by every instance that
// talks to the same Redis.
type RedisLimiter struct {
	rdb    *redis.Client
	prefix string
	limit  int
	window time.Duration
}

func NewRedisLimiter(rdb *redis.Client, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, prefix: prefix, limit: limit, window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf("rate:fw:%s:%s", l.prefix, key)
	count, err := fixedWindowScript.Run(ctx, l.rdb, []string{redisKey}, l.window.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return count <= int64(l.limit), nil
}

func (l *RedisLimiter) Limit() int            { return l.limit }
func (l *RedisLimiter) Window() time.Duration { return l.window }

// LocalLimiter keeps one token bucket per key in process memory. Buckets
// refill at limit per window with a burst of limit. Buckets idle for a
// whole window are dropped, at most once per window.
type LocalLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	every     rate.Limit
	limit     int
	window    time.Duration
	nextSweep time.Time
	now       func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewLocalLimiter(limit int, window time.Duration) *LocalLimiter {
	if limit < 1 {
		limit = 1
	}
	return &LocalLimiter{
		buckets: make(map[string]*bucket),
		every:   rate.Every(window / time.Duration(limit)),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if !now.Before(l.nextSweep) {
		l.sweep(now)
		l.nextSweep = now.Add(l.window)
	}
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.every, l.limit)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1), nil
}

// sweep must be called with mu held.
func (l *LocalLimiter) sweep(now time.Time) {
	for k, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.window {
			delete(l.buckets, k)
		}
	}
}

func (l *LocalLimiter) Limit() int            { return l.limit }
func (l *LocalLimiter) Window() time.Duration { return l.window }

// RateLimitMiddleware throttles requests per client IP under rule. A
// failing limiter store lets the request through.
func RateLimitMiddleware(rule string, limiter RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		identifier := c.ClientIP()
		allowed, err := limiter.Allow(c.Request.Context(), rule+":"+identifier)
		if err != nil {
			logging.Ctx(c.Request.Context()).Warn().Err(err).Str("rule", rule).Msg("Rate limiter unavailable, allowing request")
			c.Next()
			return
		}
		if !allowed {
			metrics.RateLimited.WithLabelValues(rule).Inc()
			logging.Ctx(c.Request.Context()).Warn().
				Str("rule", rule).
				Str("client_ip", identifier).
				Msg("Rate limit exceeded")

			c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
			c.Header("Retry-After", strconv.Itoa(int(limiter.Window().Seconds())))
			abortWithCode(c, http.StatusTooManyRequests,
				fmt.Sprintf("Too many requests, please try again in %v", limiter.Window()),
				"RATE_LIMITED")
			return
		}
		c.Next()
	}
}
