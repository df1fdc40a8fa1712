package pricing

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/outreach-agent/internal/core"
)

// Defaults used when re-pricing a channel without brand context
const (
	DefaultCampaignType = "integration"
	DefaultBrandID      = "generic"
)

// Recommendation thresholds on the percentage difference
const (
	AcceptThreshold    = 10.0
	NegotiateThreshold = 25.0
)

// ErrInvalidFairValue is returned when neither the recomputed price nor the original offer is usable
var ErrInvalidFairValue = errors.New("fair value must be positive")

// MetricsResolver resolves a channel reference into normalized metrics
type MetricsResolver interface {
	Resolve(ctx context.Context, ref string) (*core.ChannelMetrics, error)
}

// Validator assesses influencer counter-offers against the fair price
type Validator struct {
	resolver MetricsResolver
	logger   *zap.Logger
}

// NewValidator creates a new counter-offer validator
func NewValidator(resolver MetricsResolver, logger *zap.Logger) *Validator {
	return &Validator{resolver: resolver, logger: logger}
}

// Validate compares the counter price with a freshly computed fair price.
// If the channel cannot be priced the original offer is used as the fair value.
func (v *Validator) Validate(ctx context.Context, channelRef string, originalPrice, counterPrice float64) (*core.NegotiationAssessment, error) {
	fair := originalPrice

	metrics, err := v.resolver.Resolve(ctx, channelRef)
	if err != nil {
		v.logger.Warn("Failed to recompute fair value, using original offer",
			zap.String("channel", channelRef),
			zap.Float64("original_price", originalPrice),
			zap.Error(err))
	} else {
		q := Quote(metrics)
		if q.EstimatedPrice > 0 {
			fair = q.EstimatedPrice
		}
		v.logger.Debug("Recomputed fair value",
			zap.String("channel", channelRef),
			zap.String("campaign_type", DefaultCampaignType),
			zap.String("brand_id", DefaultBrandID),
			zap.Float64("fair_value", q.EstimatedPrice))
	}

	if fair <= 0 {
		return nil, fmt.Errorf("cannot assess counter-offer for %s: %w", channelRef, ErrInvalidFairValue)
	}

	assessment := Assess(fair, counterPrice)
	v.logger.Info("Counter-offer assessed",
		zap.String("channel", channelRef),
		zap.Float64("fair_value", assessment.FairValue),
		zap.Float64("counter", counterPrice),
		zap.String("recommendation", assessment.Recommendation))
	return assessment, nil
}

// Assess buckets a counter-offer against a positive fair value
func Assess(fair, counter float64) *core.NegotiationAssessment {
	diff := Round1((counter - fair) / fair * 100)
	a := &core.NegotiationAssessment{
		FairValue:    fair,
		CounterValue: counter,
		DiffPercent:  diff,
	}

	switch {
	case diff <= AcceptThreshold:
		a.Recommendation = core.RecommendAccept
		a.Reason = "Counter-offer is within 10% of fair value (auto-approve)."
	case diff <= NegotiateThreshold:
		a.Recommendation = core.RecommendNegotiate
		a.Reason = fmt.Sprintf("Counter is %.1f%% higher. Attempt to meet in the middle.", diff)
	default:
		a.Recommendation = core.RecommendDecline
		a.Reason = fmt.Sprintf("Counter is %.1f%% higher than fair market value.", diff)
	}
	return a
}
