package tool

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/outreach-agent/internal/adapters/lock"
	"github.com/mikey/outreach-agent/internal/adapters/store"
	"github.com/mikey/outreach-agent/internal/analytics"
	"github.com/mikey/outreach-agent/internal/core"
	"github.com/mikey/outreach-agent/internal/metrics"
	"github.com/mikey/outreach-agent/internal/pricing"
)

func newTestRegistry(t *testing.T) (*Registry, *store.MemoryThreadRepository) {
	t.Helper()
	logger := zap.NewNop()

	threads := store.NewMemoryThreadRepository([]*core.EmailThread{
		{
			ID:              "thread_001",
			InfluencerName:  "Sarah Chen",
			InfluencerEmail: "sarah@example.com",
			Brand:           "perplexity",
			ChannelURL:      "https://youtube.com/@lifestylelena",
			Status:          core.ThreadStatusOpen,
			Messages: []core.Message{
				{From: "sarah@example.com", Subject: "Sponsorship", Body: "My rate is $150", Timestamp: time.Date(2024, 11, 20, 10, 0, 0, 0, time.UTC)},
			},
		},
	})
	brands := store.NewMemoryBrandRepository([]*core.BrandProfile{
		{ID: "perplexity", Name: "Perplexity", Budget: core.BudgetRange{Min: 50, Max: 90}},
	})
	profiles := store.NewMemoryProfileRepository([]*core.ChannelProfile{
		{
			ChannelID:        "UC_lena",
			ChannelURL:       "https://youtube.com/@lifestylelena",
			Handle:           "@lifestylelena",
			ChannelName:      "Lifestyle Lena",
			Description:      "vlogs",
			Category:         "lifestyle",
			Subscribers:      50_000,
			AvgViews:         5_000,
			EngagementRate:   0.10,
			ConsistencyScore: core.ConsistencyMedium,
			VideoCount:       120,
		},
	})

	svc := core.NewOutreachService(threads, brands, lock.NewKeyedMutex(), nil, logger)
	resolver := metrics.NewResolver(profiles, logger)
	return NewDefaultRegistry(Deps{
		Threads:   svc,
		Brands:    svc,
		Resolver:  resolver,
		Validator: pricing.NewValidator(resolver, logger),
		Logger:    logger,
	}), threads
}

func TestRegistryDefinitions(t *testing.T) {
	r, _ := newTestRegistry(t)

	names := []string{}
	for _, def := range r.Definitions() {
		names = append(names, def.Name)
		assert.NotEmpty(t, def.Description)
		assert.True(t, json.Valid(def.Parameters), def.Name)
	}
	assert.Equal(t, []string{
		"resolve_channel", "get_brand_context", "get_thread", "list_recent_threads", "send_reply",
		"mark_processed", "quote_price", "validate_counter", "forecast_roi", "assess_authenticity",
	}, names)
	assert.Equal(t, names, r.Names())
}

func TestRegistryExecuteErrors(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	_, err := r.Execute(ctx, "delete_everything", `{}`)
	assert.True(t, errors.Is(err, ErrUnknownTool))

	_, err = r.Execute(ctx, "get_thread", `{"thread_id": `)
	assert.Error(t, err)

	_, err = r.Execute(ctx, "get_thread", ``)
	assert.EqualError(t, err, "thread_id is required")

	_, err = r.Execute(ctx, "quote_price", `{"channel_url": 42}`)
	assert.Error(t, err)
}

func TestThreadTools(t *testing.T) {
	r, repo := newTestRegistry(t)
	ctx := context.Background()

	res, err := r.Execute(ctx, "get_thread", `{"thread_id": "thread_001"}`)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "Sarah Chen", res.Data.(*core.EmailThread).InfluencerName)

	res, err = r.Execute(ctx, "get_thread", `{"thread_id": "nope"}`)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Thread nope not found", res.Error)
	assert.JSONEq(t, `{"success": false, "error": "Thread nope not found"}`, res.JSON())

	res, err = r.Execute(ctx, "list_recent_threads", `{}`)
	require.NoError(t, err)
	require.NotNil(t, res.Total)
	assert.Equal(t, 1, *res.Total)

	res, err = r.Execute(ctx, "send_reply", `{"thread_id": "thread_001", "content": "Thanks Sarah!"}`)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "Reply sent successfully", res.Message)

	res, err = r.Execute(ctx, "mark_processed", `{"thread_id": "thread_001"}`)
	require.NoError(t, err)
	assert.True(t, res.Success)

	stored, err := repo.Get(ctx, "thread_001")
	require.NoError(t, err)
	assert.Len(t, stored.Messages, 2)
	assert.Equal(t, "Re: Sponsorship", stored.Messages[1].Subject)
	assert.Equal(t, core.ThreadStatusProcessed, stored.Status)

	_, err = r.Execute(ctx, "send_reply", `{"thread_id": "thread_001"}`)
	assert.EqualError(t, err, "content is required")
}

func TestBrandTool(t *testing.T) {
	r, _ := newTestRegistry(t)

	res, err := r.Execute(context.Background(), "get_brand_context", `{"brand_id": "perplexity"}`)
	require.NoError(t, err)
	assert.Equal(t, "Perplexity", res.Data.(*core.BrandProfile).Name)

	res, err = r.Execute(context.Background(), "get_brand_context", `{"brand_id": "acme"}`)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Brand acme not found", res.Error)
}

func TestQuotePriceTool(t *testing.T) {
	r, _ := newTestRegistry(t)

	res, err := r.Execute(context.Background(), "quote_price",
		`{"channel_url": "https://youtube.com/@lifestylelena", "campaign_type": "integration", "brand_id": "perplexity"}`)
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, core.ProvenanceFallback, res.Source)

	q, ok := res.Calculation.(*core.PricingQuote)
	require.True(t, ok)
	assert.Equal(t, 100.0, q.EstimatedPrice)
	assert.Equal(t, "integration", q.CampaignType)
	require.NotNil(t, q.WithinBudget)
	assert.False(t, *q.WithinBudget)

	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(res.JSON()), &envelope))
	calc := envelope["calculation"].(map[string]interface{})
	assert.Equal(t, 100.0, calc["estimated_total_price"])
	assert.Equal(t, "USD", calc["currency"])

	res, err = r.Execute(context.Background(), "quote_price", `{"channel_url": "@ghost"}`)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "channel not found")
}

func TestValidateCounterTool(t *testing.T) {
	r, _ := newTestRegistry(t)

	res, err := r.Execute(context.Background(), "validate_counter",
		`{"channel_url": "@lifestylelena", "original_price": 100, "counter_price": 160}`)
	require.NoError(t, err)
	a := res.Analysis.(*core.NegotiationAssessment)
	assert.Equal(t, core.RecommendDecline, a.Recommendation)
	assert.Equal(t, 60.0, a.DiffPercent)

	_, err = r.Execute(context.Background(), "validate_counter", `{"channel_url": "@lifestylelena", "original_price": 100}`)
	assert.Error(t, err)
}

func TestAnalyticsTools(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	res, err := r.Execute(ctx, "forecast_roi", `{"channel_url": "@lifestylelena", "offer_price": 100, "brand_id": "perplexity"}`)
	require.NoError(t, err)
	f := res.Forecast.(*core.ROIForecast)
	assert.Equal(t, "lifestyle", f.Assumptions.Niche)
	assert.Equal(t, int64(5_000), f.EstimatedViews)

	res, err = r.Execute(ctx, "assess_authenticity", `{"channel_url": "@lifestylelena"}`)
	require.NoError(t, err)
	report := res.Analysis.(*core.AuthenticityReport)
	assert.Equal(t, 100, report.Score)
	assert.Equal(t, analytics.SafeToProceed, report.Recommendation)

	res, err = r.Execute(ctx, "resolve_channel", `{"channel_url": "@LifestyleLena"}`)
	require.NoError(t, err)
	assert.Equal(t, "Lifestyle Lena", res.Data.(*core.ChannelMetrics).Title)
}

func TestErrorContent(t *testing.T) {
	assert.JSONEq(t, `{"success": false, "error": "boom"}`, ErrorContent(errors.New("boom")))
}
