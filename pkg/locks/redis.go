package locks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/platinummonkey/keyquota/pkg/observability"
)

const (
	// DefaultTTL bounds how long a crashed holder can block a key
	DefaultTTL = 10 * time.Second

	keyPrefix  = "keyquota:lock:"
	minBackoff = 5 * time.Millisecond
	maxBackoff = 100 * time.Millisecond
)

// ErrLockNotHeld is logged when a release finds the key expired or taken over
var ErrLockNotHeld = errors.New("lock not held")

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements quotas.Locker on a shared Redis instance
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	logger *observability.Logger
}

// NewRedisLocker creates a locker whose leases expire after ttl
func NewRedisLocker(client *redis.Client, ttl time.Duration, logger *observability.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisLocker{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Lock blocks until key is held or ctx is done
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := keyPrefix + key
	token := uuid.New().String()
	backoff := minBackoff

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, ctx.Err())
		case <-timer.C:
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}

	unlock := func() {
		// release even when the caller's context is already cancelled
		releaseCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		if err := l.release(releaseCtx, redisKey, token); err != nil {
			l.logger.WithError(err).WithField("key", key).Warn("Failed to release quota lock")
		}
	}
	return unlock, nil
}

func (l *RedisLocker) release(ctx context.Context, redisKey, token string) error {
	n, err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Int()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLockNotHeld
	}
	return nil
}
