package factory

import (
	"context"

	"github.com/mikey/outreach-agent/internal/adapters/youtube"
	"github.com/mikey/outreach-agent/internal/config"
	"github.com/mikey/outreach-agent/internal/core"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// LiveSourceFactory creates the live channel statistics source
type LiveSourceFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewLiveSourceFactory creates a new live source factory
func NewLiveSourceFactory(cfg *config.Config, logger *zap.Logger) *LiveSourceFactory {
	return &LiveSourceFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateStatsSource returns the YouTube source, or nil when no API key is configured
func (f *LiveSourceFactory) CreateStatsSource() (core.ChannelStatsSource, error) {
	ytCfg := f.cfg.GetYouTube()
	if ytCfg.APIKey == "" {
		f.logger.Info("No YouTube API key configured, channel metrics come from local profiles")
		return nil, nil
	}

	opts := []option.ClientOption{option.WithAPIKey(ytCfg.APIKey)}
	if ytCfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(ytCfg.Endpoint))
	}
	return youtube.NewStatsSource(context.Background(), f.logger, opts...)
}
