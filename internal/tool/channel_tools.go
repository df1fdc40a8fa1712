package tool

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/mikey/outreach-agent/internal/analytics"
	"github.com/mikey/outreach-agent/internal/core"
)

const channelParams = `{
	"type": "object",
	"properties": {
		"channel_url": {"type": "string", "description": "YouTube channel URL, @handle or channel id"}
	},
	"required": ["channel_url"]
}`

// resolveOrFail maps a channel miss to a failed result
func resolveOrFail(ctx context.Context, r MetricsResolver, ref string) (*core.ChannelMetrics, *Result, error) {
	if err := requireField("channel_url", ref); err != nil {
		return nil, nil, err
	}
	m, err := r.Resolve(ctx, ref)
	if errors.Is(err, core.ErrNotFound) {
		return nil, Failure("Could not fetch channel data: %s", err.Error()), nil
	}
	if err != nil {
		return nil, nil, err
	}
	return m, nil, nil
}

// ResolveChannelTool fetches normalized channel statistics
type ResolveChannelTool struct {
	resolver MetricsResolver
	logger   *zap.Logger
}

func (t *ResolveChannelTool) Name() string { return "resolve_channel" }
func (t *ResolveChannelTool) Description() string {
	return "Fetch public YouTube channel statistics (subscribers, average views, engagement). Uses live data when available, local data otherwise."
}
func (t *ResolveChannelTool) Parameters() json.RawMessage { return json.RawMessage(channelParams) }

func (t *ResolveChannelTool) Execute(ctx context.Context, params json.RawMessage) (*Result, error) {
	var p struct {
		ChannelURL string `json:"channel_url"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	m, fail, err := resolveOrFail(ctx, t.resolver, p.ChannelURL)
	if fail != nil || err != nil {
		return fail, err
	}
	return &Result{Success: true, Source: m.Provenance, Data: m}, nil
}

// AssessAuthenticityTool screens a channel for fake engagement
type AssessAuthenticityTool struct {
	resolver MetricsResolver
	logger   *zap.Logger
}

func (t *AssessAuthenticityTool) Name() string { return "assess_authenticity" }
func (t *AssessAuthenticityTool) Description() string {
	return "Analyze a channel for suspicious engagement patterns that indicate fake followers or bought views. Returns an authenticity score (0-100) and red flags."
}
func (t *AssessAuthenticityTool) Parameters() json.RawMessage { return json.RawMessage(channelParams) }

func (t *AssessAuthenticityTool) Execute(ctx context.Context, params json.RawMessage) (*Result, error) {
	var p struct {
		ChannelURL string `json:"channel_url"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	m, fail, err := resolveOrFail(ctx, t.resolver, p.ChannelURL)
	if fail != nil || err != nil {
		return fail, err
	}

	report := analytics.Assess(m)
	t.logger.Info("Authenticity assessed",
		zap.String("channel", p.ChannelURL),
		zap.Int("score", report.Score),
		zap.Int("flags", len(report.Flags)))
	return &Result{Success: true, Source: m.Provenance, Analysis: report}, nil
}
