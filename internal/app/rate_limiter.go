package app

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const localBucketIdle = 10 * time.Minute

// RateDecision is the outcome of one rate-limit check.
type RateDecision struct {
	Allowed    bool
	RetryAfter time.Duration
	// Local is set when the in-process buckets decided, so limits held per replica.
	Local bool
}

// RateLimiter applies per-scope limits to a subject, usually a client IP. A shared
// WindowCounter decides when one is configured and healthy; otherwise in-process token
// buckets take over.
type RateLimiter struct {
	shared WindowCounter
	logger *slog.Logger

	mu      sync.Mutex
	buckets map[string]*localBucket
	lastGC  time.Time
	now     func() time.Time
}

type localBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(shared WindowCounter, logger *slog.Logger) *RateLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RateLimiter{
		shared:  shared,
		logger:  logger,
		buckets: make(map[string]*localBucket),
		lastGC:  time.Now(),
		now:     time.Now,
	}
}

func (l *RateLimiter) Allow(ctx context.Context, scope, subject string, limit int, window time.Duration) RateDecision {
	scope = strings.TrimSpace(scope)
	subject = strings.TrimSpace(subject)
	if limit <= 0 || window <= 0 || subject == "" {
		return RateDecision{Allowed: true}
	}
	key := scope + ":" + subject

	if l.shared != nil {
		count, resetIn, err := l.shared.Hit(ctx, key, window)
		if err == nil {
			if count > int64(limit) {
				return RateDecision{RetryAfter: resetIn}
			}
			return RateDecision{Allowed: true}
		}
		l.logger.Warn("shared rate limiter unavailable; using local buckets", "scope", scope, "error", err)
	}
	return l.allowLocal(key, limit, window)
}

func (l *RateLimiter) allowLocal(key string, limit int, window time.Duration) RateDecision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastGC) > localBucketIdle {
		for k, b := range l.buckets {
			if now.Sub(b.lastSeen) > localBucketIdle {
				delete(l.buckets, k)
			}
		}
		l.lastGC = now
	}

	b, ok := l.buckets[key]
	if !ok {
		every := rate.Limit(float64(limit) / window.Seconds())
		b = &localBucket{limiter: rate.NewLimiter(every, limit)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	res := b.limiter.ReserveN(now, 1)
	if !res.OK() {
		return RateDecision{RetryAfter: window, Local: true}
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return RateDecision{RetryAfter: delay, Local: true}
	}
	return RateDecision{Allowed: true, Local: true}
}
