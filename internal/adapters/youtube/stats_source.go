package youtube

import (
	"context"
	"fmt"
	"strings"

	"github.com/mikey/outreach-agent/internal/core"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"
)

// StatsSource reads public channel statistics from the YouTube Data API v3
type StatsSource struct {
	service *yt.Service
	logger  *zap.Logger
}

// NewStatsSource creates a YouTube statistics source
func NewStatsSource(ctx context.Context, logger *zap.Logger, opts ...option.ClientOption) (*StatsSource, error) {
	service, err := yt.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube client: %w", err)
	}
	return &StatsSource{service: service, logger: logger}, nil
}

// FetchChannel resolves a channel id or @handle and reads its statistics.
// Handles are resolved through a channel search first.
func (s *StatsSource) FetchChannel(ctx context.Context, ref string) (*core.LiveChannelStats, error) {
	channelID := ref
	if strings.HasPrefix(ref, "@") {
		id, err := s.searchChannel(ctx, ref)
		if err != nil {
			return nil, err
		}
		channelID = id
	}

	resp, err := s.service.Channels.List([]string{"snippet", "statistics"}).
		Id(channelID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list YouTube channel %s: %w", channelID, err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("youtube channel %s: %w", channelID, core.ErrChannelNotFound)
	}

	item := resp.Items[0]
	stats := &core.LiveChannelStats{ChannelID: item.Id}
	if item.Snippet != nil {
		stats.Title = item.Snippet.Title
		stats.Description = item.Snippet.Description
		stats.CustomURL = item.Snippet.CustomUrl
		stats.Country = item.Snippet.Country
		if item.Snippet.Thumbnails != nil && item.Snippet.Thumbnails.Default != nil {
			stats.ThumbnailURL = item.Snippet.Thumbnails.Default.Url
		}
	}
	if item.Statistics != nil {
		stats.Subscribers = int64(item.Statistics.SubscriberCount)
		stats.VideoCount = int64(item.Statistics.VideoCount)
		stats.ViewCount = int64(item.Statistics.ViewCount)
	}

	s.logger.Info("Fetched live channel statistics",
		zap.String("channel_id", stats.ChannelID),
		zap.String("title", stats.Title),
		zap.Int64("subscribers", stats.Subscribers),
		zap.Int64("videos", stats.VideoCount))

	return stats, nil
}

func (s *StatsSource) searchChannel(ctx context.Context, handle string) (string, error) {
	resp, err := s.service.Search.List([]string{"snippet"}).
		Q(handle).
		Type("channel").
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to search YouTube for %s: %w", handle, err)
	}
	if len(resp.Items) == 0 {
		return "", fmt.Errorf("youtube handle %s: %w", handle, core.ErrChannelNotFound)
	}

	item := resp.Items[0]
	if item.Id != nil && item.Id.ChannelId != "" {
		return item.Id.ChannelId, nil
	}
	if item.Snippet != nil && item.Snippet.ChannelId != "" {
		return item.Snippet.ChannelId, nil
	}
	return "", fmt.Errorf("youtube handle %s: %w", handle, core.ErrChannelNotFound)
}
