package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/outreach-agent/internal/analytics"
	"github.com/mikey/outreach-agent/internal/core"
	"github.com/mikey/outreach-agent/internal/pricing"
)

// QuotePriceTool computes the fair CPM-based offer for a channel
type QuotePriceTool struct {
	resolver MetricsResolver
	brands   BrandService
	logger   *zap.Logger
}

// QuotePriceToolName is the tool whose calculation the agent reports with a draft
const QuotePriceToolName = "quote_price"

func (t *QuotePriceTool) Name() string { return QuotePriceToolName }
func (t *QuotePriceTool) Description() string {
	return "Calculate the fair offer price for a sponsorship using the CPM model: base CPM by subscriber tier times engagement, niche and consistency multipliers. Also returns the negotiation cap."
}
func (t *QuotePriceTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"channel_url": {"type": "string", "description": "YouTube channel URL, @handle or channel id"},
			"campaign_type": {"type": "string", "description": "Campaign type, e.g. 'integration' or 'dedicated'"},
			"brand_id": {"type": "string", "description": "Brand identifier used for the budget check"}
		},
		"required": ["channel_url"]
	}`)
}

func (t *QuotePriceTool) Execute(ctx context.Context, params json.RawMessage) (*Result, error) {
	var p struct {
		ChannelURL   string `json:"channel_url"`
		CampaignType string `json:"campaign_type"`
		BrandID      string `json:"brand_id"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	m, fail, err := resolveOrFail(ctx, t.resolver, p.ChannelURL)
	if fail != nil || err != nil {
		return fail, err
	}

	q := pricing.Quote(m)
	q.CampaignType = p.CampaignType
	q.BrandID = p.BrandID
	if p.BrandID != "" && t.brands != nil {
		brand, err := t.brands.GetBrand(ctx, p.BrandID)
		switch {
		case err == nil:
			pricing.CheckBudget(q, brand)
		case !errors.Is(err, core.ErrNotFound):
			return nil, err
		}
	}

	t.logger.Info("Calculated price",
		zap.String("channel", p.ChannelURL),
		zap.Float64("estimated_price", q.EstimatedPrice),
		zap.Float64("final_cpm", q.FinalCPM))
	return &Result{Success: true, Source: m.Provenance, Calculation: q}, nil
}

// ValidateCounterTool compares an influencer's counter-offer with the fair price
type ValidateCounterTool struct {
	validator CounterValidator
	logger    *zap.Logger
}

func (t *ValidateCounterTool) Name() string { return "validate_counter" }
func (t *ValidateCounterTool) Description() string {
	return "Analyze an influencer counter-offer against the calculated fair market value. Returns accept, negotiate or decline with a reason."
}
func (t *ValidateCounterTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"channel_url": {"type": "string", "description": "YouTube channel URL, @handle or channel id"},
			"original_price": {"type": "number", "description": "The price we originally offered"},
			"counter_price": {"type": "number", "description": "The price the influencer asked for"}
		},
		"required": ["channel_url", "original_price", "counter_price"]
	}`)
}

func (t *ValidateCounterTool) Execute(ctx context.Context, params json.RawMessage) (*Result, error) {
	var p struct {
		ChannelURL    string  `json:"channel_url"`
		OriginalPrice float64 `json:"original_price"`
		CounterPrice  float64 `json:"counter_price"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := requireField("channel_url", p.ChannelURL); err != nil {
		return nil, err
	}
	if p.CounterPrice <= 0 {
		return nil, fmt.Errorf("counter_price must be positive")
	}

	assessment, err := t.validator.Validate(ctx, p.ChannelURL, p.OriginalPrice, p.CounterPrice)
	if err != nil {
		return nil, err
	}
	return &Result{Success: true, Analysis: assessment}, nil
}

// ForecastROITool predicts revenue and ROAS for an offer
type ForecastROITool struct {
	resolver MetricsResolver
	logger   *zap.Logger
}

func (t *ForecastROITool) Name() string { return "forecast_roi" }
func (t *ForecastROITool) Description() string {
	return "Predict expected clicks, conversions, revenue and ROAS for a sponsorship at the given price, using channel metrics and niche benchmarks."
}
func (t *ForecastROITool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"channel_url": {"type": "string", "description": "YouTube channel URL, @handle or channel id"},
			"offer_price": {"type": "number", "description": "The proposed sponsorship price"},
			"brand_id": {"type": "string", "description": "Brand identifier for context"}
		},
		"required": ["channel_url", "offer_price"]
	}`)
}

func (t *ForecastROITool) Execute(ctx context.Context, params json.RawMessage) (*Result, error) {
	var p struct {
		ChannelURL string  `json:"channel_url"`
		OfferPrice float64 `json:"offer_price"`
		BrandID    string  `json:"brand_id"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	m, fail, err := resolveOrFail(ctx, t.resolver, p.ChannelURL)
	if fail != nil || err != nil {
		return fail, err
	}

	forecast := analytics.Forecast(m, p.OfferPrice)
	t.logger.Info("ROI forecast",
		zap.String("channel", p.ChannelURL),
		zap.Float64("revenue", forecast.EstimatedRevenue),
		zap.Float64("roas", forecast.ROAS))
	return &Result{Success: true, Source: m.Provenance, Forecast: forecast}, nil
}
