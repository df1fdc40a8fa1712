package cache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/outreach-agent/internal/core"
)

func sampleEntry(ref string, ttl time.Duration) *core.CacheEntry {
	now := time.Now().UTC().Truncate(time.Second)
	return &core.CacheEntry{
		ChannelRef: ref,
		Metrics: core.ChannelMetrics{
			ChannelID:      "UC_test",
			Title:          "Test Channel",
			Subscribers:    12_000,
			AvgViews:       3_000,
			EngagementRate: 0.07,
			Consistency:    core.ConsistencyHigh,
			Provenance:     core.ProvenanceLive,
		},
		FetchedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), 0)
	defer c.Stop()
	ctx := context.Background()

	_, err := c.Get(ctx, "@test")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, c.Set(ctx, sampleEntry("@test", time.Hour)))
	got, err := c.Get(ctx, "@test")
	require.NoError(t, err)
	assert.Equal(t, "Test Channel", got.Metrics.Title)

	require.NoError(t, c.Delete(ctx, "@test"))
	_, err = c.Get(ctx, "@test")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), 0)
	defer c.Stop()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, sampleEntry("@old", time.Minute)))
	require.NoError(t, c.Set(ctx, sampleEntry("@fresh", 48*time.Hour)))

	c.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err := c.Get(ctx, "@old")
	assert.True(t, errors.Is(err, ErrExpired))

	require.NoError(t, c.Cleanup(ctx))
	assert.Equal(t, 1, c.Len())
}

func TestSQLiteCache(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	c, err := NewSQLiteCache(dbPath, zap.NewNop(), 0)
	require.NoError(t, err)
	defer c.Stop()
	ctx := context.Background()

	_, err = c.Get(ctx, "@test")
	assert.True(t, errors.Is(err, ErrNotFound))

	entry := sampleEntry("@test", time.Hour)
	require.NoError(t, c.Set(ctx, entry))

	got, err := c.Get(ctx, "@test")
	require.NoError(t, err)
	assert.Equal(t, entry.Metrics, got.Metrics)
	assert.True(t, entry.ExpiresAt.Equal(got.ExpiresAt))

	// replace keeps a single row per channel
	entry.Metrics.Subscribers = 13_000
	require.NoError(t, c.Set(ctx, entry))
	got, err = c.Get(ctx, "@test")
	require.NoError(t, err)
	assert.Equal(t, int64(13_000), got.Metrics.Subscribers)

	require.NoError(t, c.Set(ctx, sampleEntry("@stale", -time.Hour)))
	_, err = c.Get(ctx, "@stale")
	assert.True(t, errors.Is(err, ErrNotFound))
	require.NoError(t, c.Cleanup(ctx))

	require.NoError(t, c.Delete(ctx, "@test"))
	_, err = c.Get(ctx, "@test")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMySQLCache(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS channel_metrics_cache").
		WillReturnResult(sqlmock.NewResult(0, 0))

	c, err := NewMySQLCacheWithDB(db, zap.NewNop(), 0)
	require.NoError(t, err)
	ctx := context.Background()

	entry := sampleEntry("@test", time.Hour)
	mock.ExpectExec("INSERT INTO channel_metrics_cache").
		WithArgs("@test", sqlmock.AnyArg(), entry.FetchedAt, entry.ExpiresAt).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, c.Set(ctx, entry))

	mock.ExpectQuery("SELECT channel_ref, metrics, fetched_at, expires_at FROM channel_metrics_cache").
		WithArgs("@test", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"channel_ref", "metrics", "fetched_at", "expires_at"}).
			AddRow("@test", `{"title":"Test Channel","subscribers":12000,"provenance":"live"}`, entry.FetchedAt, entry.ExpiresAt))
	got, err := c.Get(ctx, "@test")
	require.NoError(t, err)
	assert.Equal(t, "Test Channel", got.Metrics.Title)
	assert.Equal(t, int64(12_000), got.Metrics.Subscribers)

	mock.ExpectQuery("SELECT channel_ref, metrics").
		WithArgs("@missing", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"channel_ref", "metrics", "fetched_at", "expires_at"}))
	_, err = c.Get(ctx, "@missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	mock.ExpectExec("DELETE FROM channel_metrics_cache WHERE expires_at").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))
	require.NoError(t, c.Cleanup(ctx))

	mock.ExpectExec("DELETE FROM channel_metrics_cache WHERE channel_ref").
		WithArgs("@test").
		WillReturnError(errors.New("connection reset"))
	assert.Error(t, c.Delete(ctx, "@test"))

	mock.ExpectClose()
	c.Stop()

	assert.NoError(t, mock.ExpectationsWereMet())
}
