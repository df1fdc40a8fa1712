package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/mikey/outreach-agent/internal/adapters/lock"
	"github.com/mikey/outreach-agent/internal/config"
	"github.com/mikey/outreach-agent/internal/core"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// LockFactory creates per-thread lockers
type LockFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewLockFactory creates a new lock factory
func NewLockFactory(cfg *config.Config, logger *zap.Logger) *LockFactory {
	return &LockFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateLocker creates the configured locker
func (f *LockFactory) CreateLocker() (core.Locker, error) {
	lockCfg, err := f.cfg.GetLock()
	if err != nil {
		return nil, err
	}

	switch lockCfg.Type {
	case "memory":
		return lock.NewKeyedMutex(), nil
	case "redis":
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{lockCfg.RedisAddress},
			Password: lockCfg.RedisPassword,
			DB:       lockCfg.RedisDB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}

		f.logger.Info("Using Redis thread locks", zap.String("address", lockCfg.RedisAddress))
		return lock.NewRedisLocker(client, lock.RedisLockerConfig{
			Prefix:  lockCfg.Prefix,
			TTL:     lockCfg.TTL,
			Retry:   lockCfg.RetryInterval,
			MaxWait: lockCfg.MaxWait,
		}, f.logger), nil
	default:
		return nil, fmt.Errorf("unsupported lock type: %s", lockCfg.Type)
	}
}
