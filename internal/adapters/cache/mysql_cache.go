package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/mikey/outreach-agent/internal/core"
)

// MySQLCache is a MySQL implementation of core.MetricsCache
type MySQLCache struct {
	db          *sql.DB
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
	now         func() time.Time
}

// NewMySQLCache creates a new MySQL cache
func NewMySQLCache(dsn string, logger *zap.Logger, cleanupFreq time.Duration) (*MySQLCache, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	cache, err := NewMySQLCacheWithDB(db, logger, cleanupFreq)
	if err != nil {
		db.Close()
		return nil, err
	}
	return cache, nil
}

// NewMySQLCacheWithDB creates the cache table on an open connection
func NewMySQLCacheWithDB(db *sql.DB, logger *zap.Logger, cleanupFreq time.Duration) (*MySQLCache, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS channel_metrics_cache (
			channel_ref VARCHAR(255) PRIMARY KEY,
			metrics JSON NOT NULL,
			fetched_at DATETIME NOT NULL,
			expires_at DATETIME NOT NULL,
			INDEX idx_metrics_expires_at (expires_at)
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	cache := &MySQLCache{
		db:          db,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
		now:         func() time.Time { return time.Now().UTC() },
	}

	if cleanupFreq > 0 {
		go cache.startCleanupTask()
	}

	return cache, nil
}

// Get retrieves an unexpired entry for a channel reference
func (c *MySQLCache) Get(ctx context.Context, channelRef string) (*core.CacheEntry, error) {
	var raw string
	entry := &core.CacheEntry{}

	err := c.db.QueryRowContext(ctx, `
		SELECT channel_ref, metrics, fetched_at, expires_at
		FROM channel_metrics_cache
		WHERE channel_ref = ? AND expires_at > ?
	`, channelRef, c.now()).Scan(&entry.ChannelRef, &raw, &entry.FetchedAt, &entry.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}

	if entry.Metrics, err = decodeMetrics(raw); err != nil {
		return nil, err
	}
	return entry, nil
}

// Set stores a cache entry
func (c *MySQLCache) Set(ctx context.Context, entry *core.CacheEntry) error {
	raw, err := encodeMetrics(&entry.Metrics)
	if err != nil {
		return err
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO channel_metrics_cache (channel_ref, metrics, fetched_at, expires_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			metrics = VALUES(metrics),
			fetched_at = VALUES(fetched_at),
			expires_at = VALUES(expires_at)
	`, entry.ChannelRef, raw, entry.FetchedAt, entry.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to set cache entry: %w", err)
	}

	return nil
}

// Delete removes a cache entry
func (c *MySQLCache) Delete(ctx context.Context, channelRef string) error {
	_, err := c.db.ExecContext(ctx, `
		DELETE FROM channel_metrics_cache
		WHERE channel_ref = ?
	`, channelRef)
	if err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}

	return nil
}

// Cleanup removes expired entries
func (c *MySQLCache) Cleanup(ctx context.Context) error {
	result, err := c.db.ExecContext(ctx, `
		DELETE FROM channel_metrics_cache
		WHERE expires_at <= ?
	`, c.now())
	if err != nil {
		return fmt.Errorf("failed to clean up expired entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
	} else {
		c.logger.Debug("Cleaned up expired cache entries", zap.Int64("expired_count", rowsAffected))
	}

	return nil
}

// startCleanupTask starts a background task to clean up expired entries
func (c *MySQLCache) startCleanupTask() {
	ticker := time.NewTicker(c.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Cleanup(context.Background()); err != nil {
				c.logger.Error("Failed to clean up cache", zap.Error(err))
			}
		case <-c.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task and closes the database connection
func (c *MySQLCache) Stop() {
	close(c.stopCh)
	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close MySQL database", zap.Error(err))
	}
}
