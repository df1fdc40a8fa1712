package analytics

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mikey/outreach-agent/internal/core"
)

// Authenticity recommendations
const (
	SafeToProceed         = "safe_to_proceed"
	ProceedWithMonitoring = "proceed_with_monitoring"
	InvestigateFurther    = "investigate_further"
	Avoid                 = "avoid"
)

var numberPrinter = message.NewPrinter(language.English)

type check func(m *core.ChannelMetrics, videoCount int64) (core.Flag, int, bool)

var checks = []check{
	checkViewRatio,
	checkEngagement,
	checkConsistency,
	checkSubscribersPerVideo,
	checkTotalViews,
}

// Assess scores a channel for signs of bought or fake engagement.
// Every check runs and penalties accumulate; the score is clamped to [0, 100].
func Assess(m *core.ChannelMetrics) *core.AuthenticityReport {
	videoCount := m.VideoCount
	if videoCount <= 0 {
		videoCount = 1
	}

	flags := []core.Flag{}
	penalty := 0
	for _, c := range checks {
		if flag, p, hit := c(m, videoCount); hit {
			flags = append(flags, flag)
			penalty += p
		}
	}

	score := ClampScore(100 - penalty)
	r := &core.AuthenticityReport{
		Score: score,
		Flags: flags,
		Analyzed: core.AnalyzedMetrics{
			ViewToSubscriberRatio: math.Round(viewRatio(m)*10) / 10,
			EngagementRatePercent: math.Round(m.EngagementRate*100*100) / 100,
			Subscribers:           m.Subscribers,
			AvgViews:              m.AvgViews,
			VideoCount:            videoCount,
		},
	}
	r.Assessment, r.Recommendation = bucketScore(score)
	return r
}

// ClampScore bounds an authenticity score to [0, 100]
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func bucketScore(score int) (string, string) {
	switch {
	case score >= 85:
		return "Channel appears authentic", SafeToProceed
	case score >= 70:
		return "Minor concerns, but likely authentic", ProceedWithMonitoring
	case score >= 50:
		return "Multiple red flags detected", InvestigateFurther
	default:
		return "High risk of fake engagement", Avoid
	}
}

// viewRatio is average views as a percentage of subscribers
func viewRatio(m *core.ChannelMetrics) float64 {
	if m.Subscribers <= 0 {
		return 0
	}
	return float64(m.AvgViews) / float64(m.Subscribers) * 100
}

func checkViewRatio(m *core.ChannelMetrics, _ int64) (core.Flag, int, bool) {
	ratio := viewRatio(m)
	switch {
	case ratio < 2:
		return core.Flag{
			Flag:     "Very low view-to-subscriber ratio",
			Detail:   fmt.Sprintf("Only %.1f%% of subscribers watch videos (healthy: 5-30%%)", ratio),
			Severity: core.SeverityHigh,
		}, 25, true
	case ratio < 5:
		return core.Flag{
			Flag:     "Below average view-to-subscriber ratio",
			Detail:   fmt.Sprintf("%.1f%% view rate is below industry average", ratio),
			Severity: core.SeverityMedium,
		}, 10, true
	}
	return core.Flag{}, 0, false
}

func checkEngagement(m *core.ChannelMetrics, _ int64) (core.Flag, int, bool) {
	rate := m.EngagementRate
	switch {
	case rate > 0.50:
		return core.Flag{
			Flag:     "Unusually high engagement rate",
			Detail:   fmt.Sprintf("%.1f%% engagement is suspiciously high (may indicate engagement pods)", rate*100),
			Severity: core.SeverityMedium,
		}, 15, true
	case rate < 0.01 && m.Subscribers > 10_000:
		return core.Flag{
			Flag:     "Extremely low engagement",
			Detail:   fmt.Sprintf("Only %.2f%% engagement suggests inactive or fake followers", rate*100),
			Severity: core.SeverityHigh,
		}, 20, true
	}
	return core.Flag{}, 0, false
}

// CoefficientOfVariation is the population standard deviation over the mean
func CoefficientOfVariation(samples []int64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s)
	}
	mean := sum / float64(len(samples))
	if mean <= 0 {
		return 0
	}

	var variance float64
	for _, s := range samples {
		d := float64(s) - mean
		variance += d * d
	}
	variance /= float64(len(samples))
	return math.Sqrt(variance) / mean
}

func checkConsistency(m *core.ChannelMetrics, _ int64) (core.Flag, int, bool) {
	if len(m.RecentPerformance) < 3 {
		return core.Flag{}, 0, false
	}
	cv := CoefficientOfVariation(m.RecentPerformance)
	if cv <= 0.5 {
		return core.Flag{}, 0, false
	}
	return core.Flag{
		Flag:     "Inconsistent video performance",
		Detail:   fmt.Sprintf("High variance in views (%.1f%% CV) may indicate viral flukes or bought views", cv*100),
		Severity: core.SeverityLow,
	}, 5, true
}

func checkSubscribersPerVideo(m *core.ChannelMetrics, videoCount int64) (core.Flag, int, bool) {
	perVideo := float64(m.Subscribers) / float64(videoCount)
	if perVideo <= 50_000 || videoCount >= 20 {
		return core.Flag{}, 0, false
	}
	return core.Flag{
		Flag:     "Unusual subscriber-to-content ratio",
		Detail:   numberPrinter.Sprintf("%d subscribers with only %d videos is uncommon", m.Subscribers, videoCount),
		Severity: core.SeverityMedium,
	}, 10, true
}

func checkTotalViews(m *core.ChannelMetrics, videoCount int64) (core.Flag, int, bool) {
	if m.TotalViews <= 0 {
		return core.Flag{}, 0, false
	}
	expected := float64(m.AvgViews) * float64(videoCount) * 0.8
	if float64(m.TotalViews) >= expected*0.3 {
		return core.Flag{}, 0, false
	}
	return core.Flag{
		Flag:     "Total views don't match average",
		Detail:   "Discrepancy between reported total views and calculated average",
		Severity: core.SeverityMedium,
	}, 15, true
}
