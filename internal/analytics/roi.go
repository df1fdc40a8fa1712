// Package analytics forecasts campaign returns and screens channels for fake engagement.
package analytics

import (
	"math"
	"strings"

	"github.com/mikey/outreach-agent/internal/core"
)

// Niche benchmarks
type benchmark struct {
	ctr float64
	aov float64
}

const defaultNiche = "general"

var benchmarks = map[string]benchmark{
	"tech":      {ctr: 0.025, aov: 85},
	"finance":   {ctr: 0.03, aov: 120},
	"business":  {ctr: 0.022, aov: 150},
	"lifestyle": {ctr: 0.015, aov: 45},
	"gaming":    {ctr: 0.01, aov: 35},
	"general":   {ctr: 0.018, aov: 60},
}

const (
	purchaseRate       = 0.03
	baseConfidence     = 0.70
	maxConfidence      = 0.95
	confidenceStep     = 0.10
	baselineEngagement = 0.05
)

// ROI recommendations
const (
	StronglyRecommend  = "strongly_recommend"
	Recommend          = "recommend"
	ProceedWithCaution = "proceed_with_caution"
	Reconsider         = "reconsider"
)

// NicheKey maps a free-form category onto a benchmark key
func NicheKey(category string) string {
	key := strings.ToLower(strings.TrimSpace(category))
	if _, ok := benchmarks[key]; ok {
		return key
	}
	return defaultNiche
}

// EngagementBoost scales click-through by engagement relative to a 5% baseline
func EngagementBoost(rate float64) float64 {
	boost := 1 + (rate-baselineEngagement)*5
	return math.Max(0.5, math.Min(2.0, boost))
}

// Forecast predicts the outcome of sponsoring the channel at offerPrice
func Forecast(m *core.ChannelMetrics, offerPrice float64) *core.ROIForecast {
	niche := NicheKey(m.Category)
	b := benchmarks[niche]

	ctr := b.ctr * EngagementBoost(m.EngagementRate)
	clicks := int64(math.Floor(float64(m.AvgViews) * ctr))
	conversions := int64(math.Floor(float64(clicks) * purchaseRate))
	revenue := float64(conversions) * b.aov

	var roas float64
	if offerPrice > 0 {
		roas = math.Round(revenue/offerPrice*100) / 100
	}

	confidence := baseConfidence
	if m.EngagementRate > 0.15 {
		confidence += confidenceStep
	}
	if m.Consistency == core.ConsistencyHigh {
		confidence += confidenceStep
	}
	if m.AvgViews > 50_000 {
		confidence += confidenceStep
	}
	confidence = math.Min(maxConfidence, confidence)

	f := &core.ROIForecast{
		EstimatedViews:       m.AvgViews,
		EstimatedClicks:      clicks,
		EstimatedConversions: conversions,
		EstimatedRevenue:     math.Round(revenue*100) / 100,
		ROAS:                 roas,
		BreakEvenConversions: int64(offerPrice/b.aov) + 1,
		Confidence:           math.Round(confidence*100) / 100,
		Assumptions: core.ROIAssumptions{
			ClickThroughRate:  math.Round(ctr*100*100) / 100,
			AverageOrderValue: b.aov,
			Niche:             niche,
		},
	}
	f.Assessment, f.Recommendation = bucketROAS(roas)
	return f
}

func bucketROAS(roas float64) (string, string) {
	switch {
	case roas >= 3:
		return "Excellent ROI potential", StronglyRecommend
	case roas >= 2:
		return "Good ROI potential", Recommend
	case roas >= 1:
		return "Break-even or marginal ROI", ProceedWithCaution
	default:
		return "Likely unprofitable", Reconsider
	}
}
