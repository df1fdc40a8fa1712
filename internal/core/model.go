package core

import (
	"time"
)

// Thread status values
const (
	ThreadStatusOpen      = "open"
	ThreadStatusProcessed = "processed"
)

// Provenance values for channel metrics
const (
	ProvenanceLive     = "live"
	ProvenanceFallback = "fallback"
)

// Consistency tiers
const (
	ConsistencyHigh   = "high"
	ConsistencyMedium = "medium"
	ConsistencyLow    = "low"
)

// Message is a single email within a thread
type Message struct {
	ID        string    `json:"id,omitempty"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

// EmailThread represents an outreach conversation with one influencer
type EmailThread struct {
	ID              string     `json:"thread_id"`
	InfluencerName  string     `json:"influencer_name"`
	InfluencerEmail string     `json:"influencer_email"`
	Brand           string     `json:"brand"`
	ChannelURL      string     `json:"channel_url,omitempty"`
	Category        string     `json:"category"`
	Status          string     `json:"status"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
	Messages        []Message  `json:"messages"`
}

// Subject returns the subject of the first message in the thread
func (t *EmailThread) Subject() string {
	if len(t.Messages) == 0 {
		return ""
	}
	return t.Messages[0].Subject
}

// LatestMessageTime returns the timestamp of the last message, or the zero time
func (t *EmailThread) LatestMessageTime() time.Time {
	if len(t.Messages) == 0 {
		return time.Time{}
	}
	return t.Messages[len(t.Messages)-1].Timestamp
}

// ThreadSummary is the list view of a thread
type ThreadSummary struct {
	ThreadID          string    `json:"thread_id"`
	InfluencerName    string    `json:"influencer_name"`
	Brand             string    `json:"brand"`
	Category          string    `json:"category"`
	Status            string    `json:"status"`
	LatestMessageTime time.Time `json:"latest_message_time"`
}

// BudgetRange bounds what a brand is willing to pay per sponsorship
type BudgetRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// BrandProfile describes the brand the agent negotiates for
type BrandProfile struct {
	ID                  string      `json:"brand_id"`
	Name                string      `json:"brand_name"`
	Budget              BudgetRange `json:"budget_range"`
	MessagingGuidelines []string    `json:"messaging_guidelines"`
	TargetAudience      string      `json:"target_audience"`
	Website             string      `json:"website,omitempty"`
}

// ChannelProfile is a locally stored channel record used as fallback data
type ChannelProfile struct {
	ChannelID         string  `json:"channel_id"`
	ChannelURL        string  `json:"channel_url"`
	Handle            string  `json:"handle"`
	ChannelName       string  `json:"channel_name"`
	Description       string  `json:"description"`
	Category          string  `json:"category"`
	Subscribers       int64   `json:"subscribers"`
	AvgViews          int64   `json:"avg_views"`
	EngagementRate    float64 `json:"engagement_rate"`
	ConsistencyScore  string  `json:"consistency_score"`
	VideoCount        int64   `json:"video_count"`
	TotalViews        int64   `json:"total_views"`
	RecentPerformance []int64 `json:"recent_video_performance"`
}

// LiveChannelStats is what a live statistics API reports for a channel
type LiveChannelStats struct {
	ChannelID    string
	Title        string
	Description  string
	CustomURL    string
	Country      string
	ThumbnailURL string
	Subscribers  int64
	VideoCount   int64
	ViewCount    int64
}

// ChannelMetrics is the normalized view of a channel used by every calculation
type ChannelMetrics struct {
	ChannelID         string  `json:"channel_id"`
	Title             string  `json:"title"`
	Description       string  `json:"description"`
	Category          string  `json:"category"`
	Subscribers       int64   `json:"subscribers"`
	AvgViews          int64   `json:"avg_views"`
	EngagementRate    float64 `json:"engagement_rate"`
	Consistency       string  `json:"consistency"`
	VideoCount        int64   `json:"video_count"`
	TotalViews        int64   `json:"total_views"`
	RecentPerformance []int64 `json:"recent_performance,omitempty"`
	Provenance        string  `json:"provenance"`
}

// Normalize enforces the metric invariants
func (m *ChannelMetrics) Normalize() {
	if m.Subscribers < 0 {
		m.Subscribers = 0
	}
	if m.AvgViews < 0 {
		m.AvgViews = 0
	}
	if m.EngagementRate < 0 {
		m.EngagementRate = 0
	}
	if m.EngagementRate > 1 {
		m.EngagementRate = 1
	}
	if m.Consistency == "" {
		m.Consistency = ConsistencyMedium
	}
}

// NicheText is the text searched for niche keywords
func (m *ChannelMetrics) NicheText() string {
	return m.Title + " " + m.Description + " " + m.Category
}

// PricingQuote is the output of the pricing engine
type PricingQuote struct {
	BaseCPM               float64         `json:"base_cpm"`
	EngagementMultiplier  float64         `json:"engagement_multiplier"`
	NicheMultiplier       float64         `json:"niche_multiplier"`
	ConsistencyMultiplier float64         `json:"consistency_multiplier"`
	FinalCPM              float64         `json:"final_cpm"`
	EstimatedPrice        float64         `json:"estimated_total_price"`
	NegotiationCap        float64         `json:"negotiation_cap"`
	Currency              string          `json:"currency"`
	CampaignType          string          `json:"campaign_type,omitempty"`
	BrandID               string          `json:"brand_id,omitempty"`
	WithinBudget          *bool           `json:"within_budget,omitempty"`
	Metrics               *ChannelMetrics `json:"metrics,omitempty"`
}

// Negotiation recommendations
const (
	RecommendAccept    = "accept"
	RecommendNegotiate = "negotiate"
	RecommendDecline   = "decline"
)

// NegotiationAssessment compares a counter-offer to the fair price
type NegotiationAssessment struct {
	FairValue      float64 `json:"fair_market_value"`
	CounterValue   float64 `json:"counter_offer"`
	DiffPercent    float64 `json:"difference_percentage"`
	Recommendation string  `json:"recommendation"`
	Reason         string  `json:"reason"`
}

// ROIAssumptions records the benchmark inputs of a forecast
type ROIAssumptions struct {
	ClickThroughRate  float64 `json:"click_through_rate"`
	AverageOrderValue float64 `json:"average_order_value"`
	Niche             string  `json:"niche"`
}

// ROIForecast predicts campaign outcomes
type ROIForecast struct {
	EstimatedViews       int64          `json:"estimated_views"`
	EstimatedClicks      int64          `json:"estimated_clicks"`
	EstimatedConversions int64          `json:"estimated_conversions"`
	EstimatedRevenue     float64        `json:"estimated_revenue"`
	ROAS                 float64        `json:"roas"`
	BreakEvenConversions int64          `json:"break_even_conversions"`
	Confidence           float64        `json:"confidence_score"`
	Assessment           string         `json:"assessment"`
	Recommendation       string         `json:"recommendation"`
	Assumptions          ROIAssumptions `json:"assumptions"`
}

// Flag severities
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Flag is one anomaly raised by the authenticity scorer
type Flag struct {
	Flag     string `json:"flag"`
	Detail   string `json:"detail"`
	Severity string `json:"severity"`
}

// AnalyzedMetrics echoes the inputs the authenticity scorer looked at
type AnalyzedMetrics struct {
	ViewToSubscriberRatio float64 `json:"view_to_subscriber_ratio"`
	EngagementRatePercent float64 `json:"engagement_rate"`
	Subscribers           int64   `json:"subscribers"`
	AvgViews              int64   `json:"avg_views"`
	VideoCount            int64   `json:"video_count"`
}

// AuthenticityReport is the output of the fake-engagement heuristics
type AuthenticityReport struct {
	Score          int             `json:"authenticity_score"`
	Assessment     string          `json:"assessment"`
	Recommendation string          `json:"recommendation"`
	Flags          []Flag          `json:"red_flags"`
	Analyzed       AnalyzedMetrics `json:"metrics_analyzed"`
}

// CacheEntry is a cached live metrics lookup
type CacheEntry struct {
	ChannelRef string
	Metrics    ChannelMetrics
	FetchedAt  time.Time
	ExpiresAt  time.Time
}

// OutboundEmail is a reply handed to a Mailer
type OutboundEmail struct {
	MessageID string
	ThreadID  string
	From      string
	To        string
	Subject   string
	Body      string
	SentAt    time.Time
}
