package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SweepLocker serialises sweep runs across API replicas.
type SweepLocker interface {
	// Acquire returns ok=false when another holder owns name. release must be called when
	// the holder is done.
	Acquire(ctx context.Context, name string, ttl time.Duration) (release func(), ok bool, err error)
}

var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisSweepLock is a SET NX PX lock whose release only deletes the caller's own token.
type RedisSweepLock struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisSweepLock(client redis.UniversalClient, prefix string) *RedisSweepLock {
	trimmed := strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if trimmed == "" {
		trimmed = "stackvest"
	}
	return &RedisSweepLock{client: client, prefix: trimmed + ":sweep_lock"}
}

func (l *RedisSweepLock) Acquire(ctx context.Context, name string, ttl time.Duration) (func(), bool, error) {
	key := fmt.Sprintf("%s:%s", l.prefix, name)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = releaseLockScript.Run(releaseCtx, l.client, []string{key}, token).Err()
	}
	return release, true, nil
}
