package tool

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mikey/outreach-agent/internal/core"
)

// ThreadService reads and mutates email threads
type ThreadService interface {
	GetThread(ctx context.Context, threadID string) (*core.EmailThread, error)
	ListRecentThreads(ctx context.Context, limit int) ([]core.ThreadSummary, error)
	SendReply(ctx context.Context, threadID, body string) (*core.Message, error)
	MarkProcessed(ctx context.Context, threadID string) (*core.EmailThread, error)
}

// BrandService looks up brand profiles
type BrandService interface {
	GetBrand(ctx context.Context, brandID string) (*core.BrandProfile, error)
}

// MetricsResolver turns a channel reference into normalized metrics
type MetricsResolver interface {
	Resolve(ctx context.Context, ref string) (*core.ChannelMetrics, error)
}

// CounterValidator assesses a counter-offer
type CounterValidator interface {
	Validate(ctx context.Context, channelRef string, originalPrice, counterPrice float64) (*core.NegotiationAssessment, error)
}

// Deps are the collaborators of the default tool set
type Deps struct {
	Threads   ThreadService
	Brands    BrandService
	Resolver  MetricsResolver
	Validator CounterValidator
	Logger    *zap.Logger
}

// NewDefaultRegistry registers every outreach tool
func NewDefaultRegistry(d Deps) *Registry {
	r := NewRegistry()
	r.Register(&ResolveChannelTool{resolver: d.Resolver, logger: d.Logger})
	r.Register(&BrandContextTool{brands: d.Brands, logger: d.Logger})
	r.Register(&GetThreadTool{threads: d.Threads, logger: d.Logger})
	r.Register(&ListThreadsTool{threads: d.Threads, logger: d.Logger})
	r.Register(&SendReplyTool{threads: d.Threads, logger: d.Logger})
	r.Register(&MarkProcessedTool{threads: d.Threads, logger: d.Logger})
	r.Register(&QuotePriceTool{resolver: d.Resolver, brands: d.Brands, logger: d.Logger})
	r.Register(&ValidateCounterTool{validator: d.Validator, logger: d.Logger})
	r.Register(&ForecastROITool{resolver: d.Resolver, logger: d.Logger})
	r.Register(&AssessAuthenticityTool{resolver: d.Resolver, logger: d.Logger})
	return r
}

func requireField(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", name)
	}
	return nil
}
