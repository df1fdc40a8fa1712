package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrLockTimeout is returned when the lock could not be acquired before the wait limit
var ErrLockTimeout = errors.New("timed out waiting for lock")

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// RedisLocker provides cross-process locking via SET NX with a TTL.
// A random token per acquisition keeps one holder from releasing another's lock.
type RedisLocker struct {
	client  redis.UniversalClient
	prefix  string
	ttl     time.Duration
	retry   time.Duration
	maxWait time.Duration
	logger  *zap.Logger
}

// RedisLockerConfig holds the Redis lock settings
type RedisLockerConfig struct {
	Prefix  string
	TTL     time.Duration
	Retry   time.Duration
	MaxWait time.Duration
}

// NewRedisLocker creates a new Redis-backed locker
func NewRedisLocker(client redis.UniversalClient, cfg RedisLockerConfig, logger *zap.Logger) *RedisLocker {
	if cfg.Prefix == "" {
		cfg.Prefix = "outreach:lock:"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	if cfg.Retry <= 0 {
		cfg.Retry = 50 * time.Millisecond
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = 10 * time.Second
	}
	return &RedisLocker{
		client:  client,
		prefix:  cfg.Prefix,
		ttl:     cfg.TTL,
		retry:   cfg.Retry,
		maxWait: cfg.MaxWait,
		logger:  logger,
	}
}

// Lock polls SET NX until the key is held, ctx is done or the wait limit passes
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := l.prefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(l.maxWait)

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", redisKey, err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %s", ErrLockTimeout, redisKey)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err(); err != nil {
			l.logger.Error("Failed to release lock", zap.String("key", redisKey), zap.Error(err))
		}
	}, nil
}
