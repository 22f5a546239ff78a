package api

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/stackvest/backend/internal/app"
	"github.com/stackvest/backend/internal/metrics"
)

// RateLimit limits requests per client IP within scope.
func RateLimit(scope string, limit int, window time.Duration, limiter *app.RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limit <= 0 || limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := limiter.Allow(r.Context(), scope, clientIP(r), limit, window)
			if !decision.Allowed {
				reject(w, scope, decision.RetryAfter)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func reject(w http.ResponseWriter, scope string, retryAfter time.Duration) {
	seconds := int(math.Ceil(retryAfter.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	metrics.RecordRateLimited(scope)
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	writeError(w, http.StatusTooManyRequests, "too many requests; try again later")
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
