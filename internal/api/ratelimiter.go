package api

import (
	"math"
	"net/http"
	"strconv"

	"golang.org/x/time/rate"
)

const healthPath = "/api/health"

type rateLimiter interface {
	Allow() bool
}

// tokenBucket throttles calculation traffic. Simulation cost grows with the
// number of requested units, so every API call draws from one shared bucket.
type tokenBucket struct {
	limiter *rate.Limiter
}

func newTokenBucketLimiter(ratePerSecond float64, burst int) *tokenBucket {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &tokenBucket{limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst)}
}

func (b *tokenBucket) Allow() bool {
	if b == nil || b.limiter == nil {
		return true
	}
	return b.limiter.Allow()
}

// retryAfter is the whole number of seconds until one token refills.
func (b *tokenBucket) retryAfter() int {
	if b == nil || b.limiter == nil || b.limiter.Limit() <= 0 {
		return 1
	}
	return int(math.Max(1, math.Ceil(1/float64(b.limiter.Limit()))))
}

// rateLimitMiddleware rejects requests once the limiter runs dry. Health probes
// bypass the limiter so orchestrators keep seeing a live service under load.
func rateLimitMiddleware(limiter rateLimiter, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == healthPath || limiter.Allow() {
			next.ServeHTTP(w, r)
			return
		}
		retry := 1
		if tb, ok := limiter.(*tokenBucket); ok {
			retry = tb.retryAfter()
		}
		w.Header().Set("Retry-After", strconv.Itoa(retry))
		writeError(w, http.StatusTooManyRequests, "Too many requests", "calculation rate limit exceeded, retry shortly")
	})
}
