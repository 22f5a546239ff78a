package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

type counterStub struct {
	hits    map[string]int64
	resetIn time.Duration
	err     error
}

func (c *counterStub) Hit(_ context.Context, key string, _ time.Duration) (int64, time.Duration, error) {
	if c.err != nil {
		return 0, 0, c.err
	}
	if c.hits == nil {
		c.hits = map[string]int64{}
	}
	c.hits[key]++
	return c.hits[key], c.resetIn, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRateLimiterSharedCounter(t *testing.T) {
	counter := &counterStub{resetIn: 20 * time.Second}
	limiter := NewRateLimiter(counter, quietLogger())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if d := limiter.Allow(ctx, "auth", "10.0.0.1", 2, time.Minute); !d.Allowed || d.Local {
			t.Fatalf("hit %d: expected shared allow, got %+v", i+1, d)
		}
	}
	d := limiter.Allow(ctx, "auth", "10.0.0.1", 2, time.Minute)
	if d.Allowed || d.RetryAfter != 20*time.Second {
		t.Fatalf("expected rejection with window reset, got %+v", d)
	}
	if d := limiter.Allow(ctx, "auth", "10.0.0.2", 2, time.Minute); !d.Allowed {
		t.Fatalf("other subject should have its own window, got %+v", d)
	}
	if counter.hits["auth:10.0.0.1"] != 3 {
		t.Fatalf("expected scope:subject key, got %v", counter.hits)
	}
}

func TestRateLimiterFallsBackToLocalBuckets(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	tests := []struct {
		name   string
		shared WindowCounter
	}{
		{"no shared counter", nil},
		{"shared counter failing", &counterStub{err: errors.New("redis: connection refused")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := NewRateLimiter(tt.shared, quietLogger())
			limiter.now = func() time.Time { return now }

			if d := limiter.Allow(context.Background(), "auth", "10.0.0.1", 1, time.Minute); !d.Allowed || !d.Local {
				t.Fatalf("expected local allow, got %+v", d)
			}
			d := limiter.Allow(context.Background(), "auth", "10.0.0.1", 1, time.Minute)
			if d.Allowed || !d.Local {
				t.Fatalf("expected local rejection, got %+v", d)
			}
			if d.RetryAfter <= 0 || d.RetryAfter > time.Minute {
				t.Fatalf("retry after %v outside the window", d.RetryAfter)
			}
		})
	}
}

func TestRateLimiterIgnoresUnlimited(t *testing.T) {
	limiter := NewRateLimiter(&counterStub{err: errors.New("unused")}, quietLogger())
	for _, limit := range []int{0, -1} {
		if d := limiter.Allow(context.Background(), "auth", "10.0.0.1", limit, time.Minute); !d.Allowed {
			t.Fatalf("limit %d should not restrict, got %+v", limit, d)
		}
	}
}
