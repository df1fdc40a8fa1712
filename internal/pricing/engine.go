// Package pricing computes fair sponsorship prices from channel metrics.
package pricing

import (
	"math"
	"strings"

	"github.com/mikey/outreach-agent/internal/core"
)

// NegotiationCapFactor is the ceiling above the fair price we are willing to go
const NegotiationCapFactor = 1.2

// BaseCPM returns the subscriber-tier base CPM
func BaseCPM(subscribers int64) float64 {
	switch {
	case subscribers < 10_000:
		return 12.50
	case subscribers < 100_000:
		return 20.00
	case subscribers < 1_000_000:
		return 32.50
	default:
		return 70.00
	}
}

// EngagementMultiplier maps an engagement rate (fraction) to a CPM multiplier
func EngagementMultiplier(rate float64) float64 {
	switch {
	case rate < 0.05:
		return 0.7
	case rate < 0.15:
		return 1.0
	case rate < 0.30:
		return 1.3
	default:
		return 1.5
	}
}

var nicheRules = []struct {
	keywords   []string
	multiplier float64
}{
	{[]string{"tech", "ai"}, 1.2},
	{[]string{"finance", "money"}, 1.4},
	{[]string{"game", "gaming"}, 0.9},
}

// NicheMultiplier matches niche keywords in the given text, first rule wins
func NicheMultiplier(text ...string) float64 {
	content := strings.ToLower(strings.Join(text, " "))
	for _, rule := range nicheRules {
		for _, kw := range rule.keywords {
			if strings.Contains(content, kw) {
				return rule.multiplier
			}
		}
	}
	return 1.0
}

// ConsistencyMultiplier maps an upload consistency tier to a multiplier
func ConsistencyMultiplier(tier string) float64 {
	switch tier {
	case core.ConsistencyHigh:
		return 1.1
	case core.ConsistencyLow:
		return 0.9
	default:
		return 1.0
	}
}

// Quote prices a sponsorship for the given channel metrics
func Quote(m *core.ChannelMetrics) *core.PricingQuote {
	base := BaseCPM(m.Subscribers)
	eng := EngagementMultiplier(m.EngagementRate)
	niche := NicheMultiplier(m.NicheText())
	cons := ConsistencyMultiplier(m.Consistency)

	cpm := base * eng * niche * cons
	price := Round2(float64(m.AvgViews) / 1000 * cpm)

	return &core.PricingQuote{
		BaseCPM:               base,
		EngagementMultiplier:  eng,
		NicheMultiplier:       niche,
		ConsistencyMultiplier: cons,
		FinalCPM:              Round2(cpm),
		EstimatedPrice:        price,
		NegotiationCap:        price * NegotiationCapFactor,
		Currency:              "USD",
		Metrics:               m,
	}
}

// CheckBudget records whether the quote fits inside the brand budget
func CheckBudget(q *core.PricingQuote, brand *core.BrandProfile) {
	if brand == nil || brand.Budget.Max <= 0 {
		return
	}
	within := q.EstimatedPrice <= brand.Budget.Max
	q.WithinBudget = &within
}

// Round2 rounds to two decimal places
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Round1 rounds to one decimal place
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
