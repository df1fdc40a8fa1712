package tool

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/mikey/outreach-agent/internal/core"
)

// BrandContextTool returns the brand profile used to personalize replies
type BrandContextTool struct {
	brands BrandService
	logger *zap.Logger
}

func (t *BrandContextTool) Name() string { return "get_brand_context" }
func (t *BrandContextTool) Description() string {
	return "Get the brand profile: budget range, messaging guidelines and target audience."
}
func (t *BrandContextTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"brand_id": {"type": "string", "description": "Brand identifier, e.g. 'perplexity'"}
		},
		"required": ["brand_id"]
	}`)
}

func (t *BrandContextTool) Execute(ctx context.Context, params json.RawMessage) (*Result, error) {
	var p struct {
		BrandID string `json:"brand_id"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := requireField("brand_id", p.BrandID); err != nil {
		return nil, err
	}

	brand, err := t.brands.GetBrand(ctx, p.BrandID)
	if errors.Is(err, core.ErrNotFound) {
		t.logger.Warn("Brand not found", zap.String("brand_id", p.BrandID))
		return Failure("Brand %s not found", p.BrandID), nil
	}
	if err != nil {
		return nil, err
	}
	return &Result{Success: true, Data: brand}, nil
}
