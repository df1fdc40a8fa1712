package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	km := NewKeyedMutex()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		active  int
		maxSeen int
		mu      sync.Mutex
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := km.Lock(ctx, "thread:1")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, km.Len())
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	km := NewKeyedMutex()
	ctx := context.Background()

	unlockA, err := km.Lock(ctx, "a")
	require.NoError(t, err)
	unlockB, err := km.Lock(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, 2, km.Len())

	unlockA()
	unlockA() // idempotent
	unlockB()
	assert.Equal(t, 0, km.Len())
}

func TestKeyedMutexHonoursContext(t *testing.T) {
	km := NewKeyedMutex()
	unlock, err := km.Lock(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = km.Lock(ctx, "k")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	unlock()
	assert.Equal(t, 0, km.Len())
}

func newTestRedisLocker(t *testing.T, cfg RedisLockerConfig) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisLocker(client, cfg, zap.NewNop()), mr
}

func TestRedisLockerAcquireRelease(t *testing.T) {
	locker, mr := newTestRedisLocker(t, RedisLockerConfig{TTL: time.Minute, Retry: 5 * time.Millisecond, MaxWait: 30 * time.Millisecond})
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "thread:1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("outreach:lock:thread:1"))
	assert.Equal(t, time.Minute, mr.TTL("outreach:lock:thread:1"))

	_, err = locker.Lock(ctx, "thread:1")
	assert.True(t, errors.Is(err, ErrLockTimeout))

	unlock()
	assert.False(t, mr.Exists("outreach:lock:thread:1"))

	unlock, err = locker.Lock(ctx, "thread:1")
	require.NoError(t, err)
	unlock()
}

func TestRedisLockerDoesNotReleaseForeignLock(t *testing.T) {
	locker, mr := newTestRedisLocker(t, RedisLockerConfig{})
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "thread:2")
	require.NoError(t, err)

	// lock expired and was taken by another process
	require.NoError(t, mr.Set("outreach:lock:thread:2", "someone-else"))
	unlock()

	got, err := mr.Get("outreach:lock:thread:2")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestRedisLockerWaitsForRelease(t *testing.T) {
	locker, _ := newTestRedisLocker(t, RedisLockerConfig{Retry: 5 * time.Millisecond, MaxWait: 2 * time.Second})
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "thread:3")
	require.NoError(t, err)

	go func() {
		time.Sleep(30 * time.Millisecond)
		unlock()
	}()

	unlock2, err := locker.Lock(ctx, "thread:3")
	require.NoError(t, err)
	unlock2()
}

func TestRedisLockerContextCancel(t *testing.T) {
	locker, _ := newTestRedisLocker(t, RedisLockerConfig{Retry: 5 * time.Millisecond, MaxWait: time.Minute})

	unlock, err := locker.Lock(context.Background(), "thread:4")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "thread:4")
	require.Error(t, err)
}
