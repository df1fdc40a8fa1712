package factory

import (
	"fmt"

	"github.com/mikey/outreach-agent/internal/adapters/bedrock"
	"github.com/mikey/outreach-agent/internal/adapters/gemini"
	"github.com/mikey/outreach-agent/internal/adapters/openai"
	"github.com/mikey/outreach-agent/internal/config"
	"github.com/mikey/outreach-agent/internal/core"
	"go.uber.org/zap"
)

// LLMFactory creates completion providers
type LLMFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(cfg *config.Config, logger *zap.Logger) *LLMFactory {
	return &LLMFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateCompletionProvider creates the provider named by llm.provider
func (f *LLMFactory) CreateCompletionProvider() (core.CompletionProvider, error) {
	provider := f.cfg.GetLLM().Provider
	f.logger.Info("Creating completion provider", zap.String("provider", provider))

	switch provider {
	case "openai":
		return openai.NewFactory(f.cfg, f.logger).CreateClient()
	case "bedrock":
		return bedrock.NewFactory(f.cfg, f.logger).CreateClient()
	case "gemini":
		return gemini.NewFactory(f.cfg, f.logger).CreateClient()
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}
