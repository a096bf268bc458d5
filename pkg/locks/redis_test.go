package locks

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/keyquota/pkg/observability"
)

func setupLocker(t *testing.T, ttl time.Duration) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	return NewRedisLocker(client, ttl, logger), mr
}

func TestRedisLocker_LockUnlock(t *testing.T) {
	locker, mr := setupLocker(t, time.Second)

	unlock, err := locker.Lock(context.Background(), "quota:p1:orders")
	require.NoError(t, err)
	assert.True(t, mr.Exists("keyquota:lock:quota:p1:orders"))
	assert.Equal(t, time.Second, mr.TTL("keyquota:lock:quota:p1:orders"))

	unlock()
	assert.False(t, mr.Exists("keyquota:lock:quota:p1:orders"))
}

func TestRedisLocker_BlocksUntilContextDone(t *testing.T) {
	locker, _ := setupLocker(t, time.Minute)

	unlock, err := locker.Lock(context.Background(), "k")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = locker.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRedisLocker_IndependentKeys(t *testing.T) {
	locker, _ := setupLocker(t, time.Minute)

	unlockA, err := locker.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlockB, err := locker.Lock(ctx, "b")
	require.NoError(t, err)
	unlockB()
}

func TestRedisLocker_ReleaseKeepsForeignToken(t *testing.T) {
	locker, mr := setupLocker(t, time.Second)

	unlock, err := locker.Lock(context.Background(), "k")
	require.NoError(t, err)

	// lease expired and another holder took the key
	require.NoError(t, mr.Set("keyquota:lock:k", "someone-else"))

	unlock()
	got, err := mr.Get("keyquota:lock:k")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestRedisLocker_ExpiredLeaseCanBeTaken(t *testing.T) {
	locker, mr := setupLocker(t, time.Second)

	_, err := locker.Lock(context.Background(), "k")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlock, err := locker.Lock(ctx, "k")
	require.NoError(t, err)
	unlock()
}

func TestRedisLocker_MutualExclusion(t *testing.T) {
	locker, _ := setupLocker(t, time.Minute)

	var (
		wg      sync.WaitGroup
		holders int32
		maxSeen int32
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			unlock, err := locker.Lock(ctx, "shared")
			if err != nil {
				t.Errorf("lock failed: %v", err)
				return
			}
			n := atomic.AddInt32(&holders, 1)
			for {
				seen := atomic.LoadInt32(&maxSeen)
				if n <= seen || atomic.CompareAndSwapInt32(&maxSeen, seen, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&holders, -1)
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen)
}

func TestRedisLocker_RedisDown(t *testing.T) {
	locker, mr := setupLocker(t, time.Second)
	mr.Close()

	_, err := locker.Lock(context.Background(), "k")
	assert.ErrorContains(t, err, "failed to acquire lock k")
}

func TestNewRedisLocker_DefaultTTL(t *testing.T) {
	locker := NewRedisLocker(nil, 0, nil)
	assert.Equal(t, DefaultTTL, locker.ttl)
}
