// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/carterperez-dev/meetstack/backend/internal/core"
)

type RateLimitConfig struct {
	Limit   redis_rate.Limit
	KeyFunc func(*http.Request) string
}

// RateLimiter shares buckets across instances through Redis and degrades
// to per-process token buckets while Redis is unreachable.
type RateLimiter struct {
	redis *redis_rate.Limiter
	local *localBuckets
	limit redis_rate.Limit
	keyFn func(*http.Request) string
}

func NewRateLimiter(rdb *redis.Client, cfg RateLimitConfig) *RateLimiter {
	keyFn := cfg.KeyFunc
	if keyFn == nil {
		keyFn = KeyByIP
	}

	return &RateLimiter{
		redis: redis_rate.NewLimiter(rdb),
		local: newLocalBuckets(cfg.Limit),
		limit: cfg.Limit,
		keyFn: keyFn,
	}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rl.keyFn(r)

		res, err := rl.redis.Allow(r.Context(), key, rl.limit)
		if err != nil {
			slog.WarnContext(r.Context(), "redis rate limiter unavailable, using local buckets",
				"error", err,
				"request_id", GetRequestID(r.Context()),
			)
			res = rl.local.allow(key)
		}

		writeLimitHeaders(w, res)

		if res.Allowed == 0 {
			retry := max(int(res.RetryAfter.Seconds()), 1)
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			core.JSONError(w, core.NewAppError(
				nil,
				fmt.Sprintf("rate limit exceeded, retry after %d seconds", retry),
				http.StatusTooManyRequests,
				"RATE_LIMITED",
			))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeLimitHeaders(w http.ResponseWriter, res *redis_rate.Result) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit.Rate))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset",
		strconv.FormatInt(time.Now().Add(res.ResetAfter).Unix(), 10))
}

// KeyByIP uses the last X-Forwarded-For hop, which is the one appended by
// our own proxy.
func KeyByIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		return "ratelimit:ip:" + strings.TrimSpace(hops[len(hops)-1])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return "ratelimit:ip:" + xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ratelimit:ip:" + host
}

// KeyByRoute scopes another key function to one route group, so stricter
// limits on credential endpoints do not share buckets with the global one.
func KeyByRoute(prefix string, keyFunc func(*http.Request) string) func(*http.Request) string {
	return func(r *http.Request) string {
		return keyFunc(r) + ":" + prefix
	}
}

func PerMinute(requests, burst int) redis_rate.Limit {
	return PerWindow(requests, burst, time.Minute)
}

func PerWindow(requests, burst int, window time.Duration) redis_rate.Limit {
	if window <= 0 {
		window = time.Minute
	}
	return redis_rate.Limit{Rate: requests, Burst: burst, Period: window}
}

const localBucketTTL = 10 * time.Minute

type localBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type localBuckets struct {
	mu      sync.Mutex
	buckets map[string]*localBucket
	limit   redis_rate.Limit
	every   time.Duration
	swept   time.Time
}

func newLocalBuckets(limit redis_rate.Limit) *localBuckets {
	every := time.Second
	if limit.Rate > 0 {
		every = limit.Period / time.Duration(limit.Rate)
	}
	return &localBuckets{
		buckets: make(map[string]*localBucket),
		limit:   limit,
		every:   every,
		swept:   time.Now(),
	}
}

func (l *localBuckets) allow(key string) *redis_rate.Result {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.swept) > localBucketTTL {
		for k, b := range l.buckets {
			if now.Sub(b.lastSeen) > localBucketTTL {
				delete(l.buckets, k)
			}
		}
		l.swept = now
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &localBucket{limiter: rate.NewLimiter(rate.Every(l.every), max(l.limit.Burst, 1))}
		l.buckets[key] = b
	}
	b.lastSeen = now

	res := &redis_rate.Result{
		Limit:      l.limit,
		ResetAfter: l.every,
		RetryAfter: -1,
	}
	if b.limiter.AllowN(now, 1) {
		res.Allowed = 1
	} else {
		res.RetryAfter = l.every
	}
	res.Remaining = max(int(b.limiter.TokensAt(now)), 0)

	return res
}
