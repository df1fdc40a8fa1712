package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/outreach-agent/internal/adapters/mail"
	"github.com/mikey/outreach-agent/internal/agent"
	"github.com/mikey/outreach-agent/internal/api"
	"github.com/mikey/outreach-agent/internal/config"
	"github.com/mikey/outreach-agent/internal/core"
	"github.com/mikey/outreach-agent/internal/factory"
	"github.com/mikey/outreach-agent/internal/logging"
	"github.com/mikey/outreach-agent/internal/metrics"
	"github.com/mikey/outreach-agent/internal/pricing"
	"github.com/mikey/outreach-agent/internal/tool"
	"github.com/mikey/outreach-agent/internal/utils"
)

// Version is reported by the health endpoint
var Version = "dev"

// BuildContainer creates and configures the dependency injection container for the server
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	if err := container.Provide(config.New); err != nil {
		return nil, err
	}
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}
	if err := provideCore(container); err != nil {
		return nil, err
	}

	// Register inbound listener
	if err := container.Provide(func(f *factory.MailFactory, svc *core.OutreachService) (*mail.InboundServer, error) {
		return f.CreateInboundServer(svc)
	}); err != nil {
		return nil, err
	}

	// Register HTTP handlers
	if err := container.Provide(func(cfg *config.Config, svc *core.OutreachService, orch *agent.Orchestrator, logger *zap.Logger) (*api.Handlers, error) {
		agentCfg, err := cfg.GetAgent()
		if err != nil {
			return nil, err
		}
		return api.NewHandlers(svc, orch, agentCfg.DefaultBrandID, Version, logger), nil
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// provideCore registers everything between configuration and the orchestrator.
// Both the server and the CLI share it.
func provideCore(container *dig.Container) error {
	// Register factories
	for _, ctor := range []interface{}{
		factory.NewLLMFactory,
		factory.NewCacheFactory,
		factory.NewStoreFactory,
		factory.NewLockFactory,
		factory.NewMailFactory,
		factory.NewLiveSourceFactory,
		factory.NewTextProcessorFactory,
	} {
		if err := container.Provide(ctor); err != nil {
			return err
		}
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return err
	}

	// Register completion provider
	if err := container.Provide(func(f *factory.LLMFactory) (core.CompletionProvider, error) {
		return f.CreateCompletionProvider()
	}); err != nil {
		return err
	}

	// Register repositories
	if err := container.Provide(func(f *factory.StoreFactory) (core.ThreadRepository, error) {
		return f.CreateThreadRepository()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.StoreFactory) (core.BrandRepository, error) {
		return f.CreateBrandRepository()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.StoreFactory) (core.ProfileRepository, error) {
		return f.CreateProfileRepository()
	}); err != nil {
		return err
	}

	// Register locker and mailer
	if err := container.Provide(func(f *factory.LockFactory) (core.Locker, error) {
		return f.CreateLocker()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.MailFactory) (core.Mailer, error) {
		return f.CreateMailer()
	}); err != nil {
		return err
	}

	// Register outreach service
	if err := container.Provide(core.NewOutreachService); err != nil {
		return err
	}

	// Register metrics resolver with the optional live source and cache
	if err := container.Provide(func(
		profiles core.ProfileRepository,
		sources *factory.LiveSourceFactory,
		caches *factory.CacheFactory,
		logger *zap.Logger,
	) (*metrics.Resolver, error) {
		var opts []metrics.Option

		live, err := sources.CreateStatsSource()
		if err != nil {
			return nil, err
		}
		if live != nil {
			opts = append(opts, metrics.WithLiveSource(live))

			cache, err := caches.CreateMetricsCache()
			if err != nil {
				return nil, err
			}
			if cache != nil {
				ttl, err := caches.GetCacheTTL()
				if err != nil {
					return nil, err
				}
				opts = append(opts, metrics.WithCache(cache, ttl))
			}
		}
		return metrics.NewResolver(profiles, logger, opts...), nil
	}); err != nil {
		return err
	}

	// Register counter-offer validator
	if err := container.Provide(func(r *metrics.Resolver, logger *zap.Logger) *pricing.Validator {
		return pricing.NewValidator(r, logger)
	}); err != nil {
		return err
	}

	// Register tool registry
	if err := container.Provide(func(
		svc *core.OutreachService,
		r *metrics.Resolver,
		v *pricing.Validator,
		logger *zap.Logger,
	) *tool.Registry {
		return tool.NewDefaultRegistry(tool.Deps{
			Threads:   svc,
			Brands:    svc,
			Resolver:  r,
			Validator: v,
			Logger:    logger,
		})
	}); err != nil {
		return err
	}

	// Register orchestrator
	if err := container.Provide(func(
		cfg *config.Config,
		provider core.CompletionProvider,
		registry *tool.Registry,
		text *utils.TextProcessor,
		logger *zap.Logger,
	) (*agent.Orchestrator, error) {
		agentCfg, err := cfg.GetAgent()
		if err != nil {
			return nil, err
		}
		return agent.NewOrchestrator(provider, registry, agent.Config{
			MaxRounds:     agentCfg.MaxRounds,
			Timeout:       agentCfg.Timeout,
			MaxBodySize:   agentCfg.MaxBodySize,
			MaxStepOutput: agentCfg.MaxStepOutput,
		}, text, logger), nil
	}); err != nil {
		return err
	}

	return nil
}
