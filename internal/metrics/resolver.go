// Package metrics resolves channel references into normalized channel metrics.
package metrics

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/outreach-agent/internal/core"
)

// DefaultEngagementRate is assumed when neither source reports engagement
const DefaultEngagementRate = 0.05

// Resolver implements the live-then-local fallback lookup
type Resolver struct {
	live     core.ChannelStatsSource
	profiles core.ProfileRepository
	cache    core.MetricsCache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// Option configures a Resolver
type Option func(*Resolver)

// WithLiveSource enables live lookups
func WithLiveSource(src core.ChannelStatsSource) Option {
	return func(r *Resolver) { r.live = src }
}

// WithCache caches successful live lookups for ttl
func WithCache(cache core.MetricsCache, ttl time.Duration) Option {
	return func(r *Resolver) {
		r.cache = cache
		r.cacheTTL = ttl
	}
}

// NewResolver creates a new metrics resolver backed by the local profile store
func NewResolver(profiles core.ProfileRepository, logger *zap.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		profiles: profiles,
		cacheTTL: 24 * time.Hour,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Stop halts background cache cleanup, if a cache is attached
func (r *Resolver) Stop() {
	if stopper, ok := r.cache.(interface{ Stop() }); ok {
		stopper.Stop()
	}
}

// Resolve returns normalized metrics for a channel URL, handle or id.
// Live API failures are logged and recovered from the local profile store.
func (r *Resolver) Resolve(ctx context.Context, ref string) (*core.ChannelMetrics, error) {
	ref = strings.TrimSpace(ref)
	profile := r.findProfile(ctx, ref)

	if r.live != nil {
		m, err := r.resolveLive(ctx, ref, profile)
		if err == nil {
			return m, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		r.logger.Warn("Live channel lookup failed, falling back to local data",
			zap.String("channel", ref),
			zap.Error(err))
	} else {
		r.logger.Debug("No live channel source configured, using local data", zap.String("channel", ref))
	}

	if profile == nil {
		return nil, core.ErrChannelNotFound
	}

	r.logger.Info("Using local fallback data",
		zap.String("channel", ref),
		zap.String("profile", profile.ChannelName),
		zap.Int64("subscribers", profile.Subscribers))
	return FromProfile(profile), nil
}

func (r *Resolver) resolveLive(ctx context.Context, ref string, profile *core.ChannelProfile) (*core.ChannelMetrics, error) {
	if r.cache != nil {
		if entry, err := r.cache.Get(ctx, ref); err == nil && entry != nil {
			r.logger.Debug("Channel metrics cache hit", zap.String("channel", ref))
			m := entry.Metrics
			return &m, nil
		}
	}

	stats, err := r.live.FetchChannel(ctx, ExtractHandle(ref))
	if err != nil {
		return nil, err
	}

	m := FromLive(stats, profile)
	r.logger.Info("Fetched live channel data",
		zap.String("channel", ref),
		zap.String("title", m.Title),
		zap.Int64("subscribers", m.Subscribers))

	if r.cache != nil {
		now := time.Now()
		if err := r.cache.Set(ctx, &core.CacheEntry{
			ChannelRef: ref,
			Metrics:    *m,
			FetchedAt:  now,
			ExpiresAt:  now.Add(r.cacheTTL),
		}); err != nil {
			r.logger.Warn("Failed to cache channel metrics", zap.String("channel", ref), zap.Error(err))
		}
	}
	return m, nil
}

func (r *Resolver) findProfile(ctx context.Context, ref string) *core.ChannelProfile {
	profiles, err := r.profiles.List(ctx)
	if err != nil {
		r.logger.Error("Failed to load channel profiles", zap.Error(err))
		return nil
	}
	return MatchProfile(profiles, ref)
}

// ExtractHandle returns "@name" for references containing "@", otherwise the reference unchanged
func ExtractHandle(ref string) string {
	i := strings.Index(ref, "@")
	if i < 0 {
		return ref
	}
	rest := ref[i+1:]
	if j := strings.Index(rest, "/"); j >= 0 {
		rest = rest[:j]
	}
	return "@" + rest
}

// MatchProfile finds a profile by exact URL, by handle, or by the handle in its stored URL
func MatchProfile(profiles []*core.ChannelProfile, ref string) *core.ChannelProfile {
	if ref == "" {
		return nil
	}
	handle := strings.ToLower(ExtractHandle(ref))

	for _, p := range profiles {
		if p.ChannelURL == ref {
			return p
		}
		if p.Handle != "" && strings.ToLower(p.Handle) == handle {
			return p
		}
		if p.ChannelURL != "" && strings.ToLower(ExtractHandle(p.ChannelURL)) == handle {
			return p
		}
	}
	return nil
}

// FromProfile normalizes a local profile
func FromProfile(p *core.ChannelProfile) *core.ChannelMetrics {
	m := &core.ChannelMetrics{
		ChannelID:         p.ChannelID,
		Title:             p.ChannelName,
		Description:       p.Description,
		Category:          p.Category,
		Subscribers:       p.Subscribers,
		AvgViews:          p.AvgViews,
		EngagementRate:    p.EngagementRate,
		Consistency:       p.ConsistencyScore,
		VideoCount:        p.VideoCount,
		TotalViews:        p.TotalViews,
		RecentPerformance: p.RecentPerformance,
		Provenance:        core.ProvenanceFallback,
	}
	if m.AvgViews == 0 {
		m.AvgViews = int64(float64(m.Subscribers) * 0.1)
	}
	if m.Category == "" {
		m.Category = "general"
	}
	m.Normalize()
	return m
}

// FromLive normalizes live statistics, enriching missing fields from the local profile when one matched
func FromLive(s *core.LiveChannelStats, p *core.ChannelProfile) *core.ChannelMetrics {
	m := &core.ChannelMetrics{
		ChannelID:      s.ChannelID,
		Title:          s.Title,
		Description:    s.Description,
		Category:       "general",
		Subscribers:    s.Subscribers,
		EngagementRate: DefaultEngagementRate,
		Consistency:    core.ConsistencyMedium,
		VideoCount:     s.VideoCount,
		TotalViews:     s.ViewCount,
		Provenance:     core.ProvenanceLive,
	}

	if p != nil {
		if p.EngagementRate > 0 {
			m.EngagementRate = p.EngagementRate
		}
		if p.ConsistencyScore != "" {
			m.Consistency = p.ConsistencyScore
		}
		if p.Category != "" {
			m.Category = p.Category
		}
		m.AvgViews = p.AvgViews
		m.RecentPerformance = p.RecentPerformance
	}

	if m.AvgViews == 0 {
		if s.VideoCount > 0 {
			m.AvgViews = s.ViewCount / s.VideoCount
		} else {
			m.AvgViews = int64(float64(s.Subscribers) * 0.1)
		}
	}
	m.Normalize()
	return m
}
