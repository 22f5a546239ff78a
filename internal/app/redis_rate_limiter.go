package app

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// WindowCounter counts hits on a key within a fixed window that starts at the first hit.
type WindowCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (count int64, resetIn time.Duration, err error)
}

// RedisWindowCounter shares rate-limit windows between API replicas.
type RedisWindowCounter struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisWindowCounter(client redis.UniversalClient, prefix string) *RedisWindowCounter {
	trimmed := strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if trimmed == "" {
		trimmed = "stackvest"
	}
	return &RedisWindowCounter{client: client, prefix: trimmed + ":ratelimit"}
}

// Hit opens the window with SET NX PX and increments it in the same MULTI, so the first
// request of a window always carries the expiry and later INCRs keep it.
func (c *RedisWindowCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if window < time.Second {
		window = time.Second
	}
	fullKey := c.prefix + ":" + key

	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, fullKey, 0, window)
		incr = pipe.Incr(ctx, fullKey)
		ttl = pipe.PTTL(ctx, fullKey)
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	resetIn := ttl.Val()
	if resetIn <= 0 {
		resetIn = window
	}
	return incr.Val(), resetIn, nil
}
