package factory

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/outreach-agent/internal/adapters/cache"
	"github.com/mikey/outreach-agent/internal/adapters/lock"
	"github.com/mikey/outreach-agent/internal/adapters/mail"
	"github.com/mikey/outreach-agent/internal/adapters/store"
	"github.com/mikey/outreach-agent/internal/config"
)

const threadsJSON = `[{"thread_id":"thread_001","influencer_name":"Alex","influencer_email":"alex@creator.com","brand":"Perplexity","category":"rate_negotiation","messages":[{"from":"alex@creator.com","to":"partnerships@perplexity.ai","subject":"Rates","body":"My rate is $5,000","timestamp":"2026-10-01T09:00:00Z"}]}]`

const brandsJSON = `[{"brand_id":"perplexity","brand_name":"Perplexity","budget_range":{"min":2000,"max":15000}}]`

const profilesJSON = `[{"channel_id":"UCalex","handle":"@alex","channel_name":"Alex","subscribers":100000,"avg_views":20000,"engagement_rate":0.05}]`

func testConfig(t *testing.T, overrides map[string]interface{}) *config.Config {
	t.Helper()
	dir := t.TempDir()
	for name, body := range map[string]string{
		"threads.json":  threadsJSON,
		"brands.json":   brandsJSON,
		"profiles.json": profilesJSON,
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0644))
	}

	v := config.NewEmptyViper()
	v.Set("store.threads_path", filepath.Join(dir, "threads.json"))
	v.Set("store.brands_path", filepath.Join(dir, "brands.json"))
	v.Set("store.profiles_path", filepath.Join(dir, "profiles.json"))
	v.Set("store.sqlite_path", filepath.Join(dir, "db", "threads.db"))
	v.Set("cache.sqlite_path", filepath.Join(dir, "db", "cache.db"))
	v.Set("cache.cleanup_frequency", "0s")
	for k, val := range overrides {
		v.Set(k, val)
	}
	return config.NewFromViper(v)
}

func TestStoreFactoryMemory(t *testing.T) {
	f := NewStoreFactory(testConfig(t, nil), zap.NewNop())
	ctx := context.Background()

	threads, err := f.CreateThreadRepository()
	require.NoError(t, err)
	assert.IsType(t, &store.MemoryThreadRepository{}, threads)

	thread, err := threads.Get(ctx, "thread_001")
	require.NoError(t, err)
	assert.Equal(t, "Alex", thread.InfluencerName)
	assert.Equal(t, "open", thread.Status)

	brands, err := f.CreateBrandRepository()
	require.NoError(t, err)
	brand, err := brands.Get(ctx, "perplexity")
	require.NoError(t, err)
	assert.Equal(t, 15000.0, brand.Budget.Max)

	profiles, err := f.CreateProfileRepository()
	require.NoError(t, err)
	list, err := profiles.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestStoreFactorySQLite(t *testing.T) {
	f := NewStoreFactory(testConfig(t, map[string]interface{}{"store.type": "sqlite"}), zap.NewNop())

	threads, err := f.CreateThreadRepository()
	require.NoError(t, err)
	repo, ok := threads.(*store.SQLiteThreadRepository)
	require.True(t, ok)
	defer repo.Close()

	thread, err := repo.Get(context.Background(), "thread_001")
	require.NoError(t, err)
	require.Len(t, thread.Messages, 1)
	assert.Equal(t, "My rate is $5,000", thread.Messages[0].Body)
}

func TestStoreFactoryErrors(t *testing.T) {
	f := NewStoreFactory(testConfig(t, map[string]interface{}{"store.type": "postgres"}), zap.NewNop())
	_, err := f.CreateThreadRepository()
	assert.EqualError(t, err, "unsupported store type: postgres")

	f = NewStoreFactory(testConfig(t, map[string]interface{}{"store.threads_path": "/nonexistent/threads.json"}), zap.NewNop())
	_, err = f.CreateThreadRepository()
	assert.Error(t, err)
}

func TestLockFactory(t *testing.T) {
	locker, err := NewLockFactory(testConfig(t, nil), zap.NewNop()).CreateLocker()
	require.NoError(t, err)
	assert.IsType(t, &lock.KeyedMutex{}, locker)

	mr := miniredis.RunT(t)
	locker, err = NewLockFactory(testConfig(t, map[string]interface{}{
		"lock.type":          "redis",
		"lock.redis_address": mr.Addr(),
	}), zap.NewNop()).CreateLocker()
	require.NoError(t, err)
	assert.IsType(t, &lock.RedisLocker{}, locker)

	unlock, err := locker.Lock(context.Background(), "thread_001")
	require.NoError(t, err)
	assert.True(t, mr.Exists("outreach:lock:thread_001"))
	unlock()

	_, err = NewLockFactory(testConfig(t, map[string]interface{}{"lock.type": "etcd"}), zap.NewNop()).CreateLocker()
	assert.EqualError(t, err, "unsupported lock type: etcd")
}

func TestLockFactoryRedisUnreachable(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	_, err = NewLockFactory(testConfig(t, map[string]interface{}{
		"lock.type":          "redis",
		"lock.redis_address": addr,
	}), zap.NewNop()).CreateLocker()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to Redis")
}

func TestCacheFactory(t *testing.T) {
	mc, err := NewCacheFactory(testConfig(t, nil), zap.NewNop()).CreateMetricsCache()
	require.NoError(t, err)
	assert.IsType(t, &cache.MemoryCache{}, mc)

	sc, err := NewCacheFactory(testConfig(t, map[string]interface{}{"cache.type": "sqlite"}), zap.NewNop()).CreateMetricsCache()
	require.NoError(t, err)
	require.IsType(t, &cache.SQLiteCache{}, sc)
	sc.(*cache.SQLiteCache).Stop()

	disabled, err := NewCacheFactory(testConfig(t, map[string]interface{}{"cache.enabled": false}), zap.NewNop()).CreateMetricsCache()
	require.NoError(t, err)
	assert.Nil(t, disabled)

	_, err = NewCacheFactory(testConfig(t, map[string]interface{}{"cache.type": "memcached"}), zap.NewNop()).CreateMetricsCache()
	assert.EqualError(t, err, "unsupported cache type: memcached")

	ttl, err := NewCacheFactory(testConfig(t, nil), zap.NewNop()).GetCacheTTL()
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, ttl)
}

func TestLLMFactory(t *testing.T) {
	_, err := NewLLMFactory(testConfig(t, map[string]interface{}{"llm.provider": "cohere"}), zap.NewNop()).CreateCompletionProvider()
	assert.EqualError(t, err, "unsupported LLM provider: cohere")

	_, err = NewLLMFactory(testConfig(t, map[string]interface{}{"openai.api_key": ""}), zap.NewNop()).CreateCompletionProvider()
	assert.Error(t, err)

	_, err = NewLLMFactory(testConfig(t, map[string]interface{}{"llm.provider": "gemini", "gemini.api_key": ""}), zap.NewNop()).CreateCompletionProvider()
	assert.Error(t, err)

	p, err := NewLLMFactory(testConfig(t, map[string]interface{}{
		"openai.api_key":  "sk-test",
		"openai.base_url": "http://127.0.0.1:1/v1",
	}), zap.NewNop()).CreateCompletionProvider()
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestLiveSourceFactory(t *testing.T) {
	src, err := NewLiveSourceFactory(testConfig(t, nil), zap.NewNop()).CreateStatsSource()
	require.NoError(t, err)
	assert.Nil(t, src)

	src, err = NewLiveSourceFactory(testConfig(t, map[string]interface{}{"youtube.api_key": "yt-key"}), zap.NewNop()).CreateStatsSource()
	require.NoError(t, err)
	assert.NotNil(t, src)
}

func TestMailFactory(t *testing.T) {
	m, err := NewMailFactory(testConfig(t, nil), zap.NewNop()).CreateMailer()
	require.NoError(t, err)
	assert.IsType(t, &mail.LogMailer{}, m)

	m, err = NewMailFactory(testConfig(t, map[string]interface{}{"mail.outbound.type": "smtp"}), zap.NewNop()).CreateMailer()
	require.NoError(t, err)
	assert.IsType(t, &mail.SMTPMailer{}, m)

	_, err = NewMailFactory(testConfig(t, map[string]interface{}{"mail.outbound.type": "sendgrid"}), zap.NewNop()).CreateMailer()
	assert.EqualError(t, err, "unsupported mailer type: sendgrid")

	inbound, err := NewMailFactory(testConfig(t, nil), zap.NewNop()).CreateInboundServer(nil)
	require.NoError(t, err)
	assert.Nil(t, inbound)

	inbound, err = NewMailFactory(testConfig(t, map[string]interface{}{"mail.inbound.enabled": true}), zap.NewNop()).CreateInboundServer(nil)
	require.NoError(t, err)
	assert.NotNil(t, inbound)
}

func TestTextProcessorFactory(t *testing.T) {
	tp := NewTextProcessorFactory(zap.NewNop()).CreateTextProcessor()
	assert.NotNil(t, tp)
}
