package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/outreach-agent/internal/agent"
	"github.com/mikey/outreach-agent/internal/config"
	"github.com/mikey/outreach-agent/internal/core"
	"github.com/mikey/outreach-agent/internal/di"
	"github.com/mikey/outreach-agent/internal/metrics"
)

func main() {
	flags := di.ParseFlags()

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(func(
		cfg *config.Config,
		logger *zap.Logger,
		svc *core.OutreachService,
		orch *agent.Orchestrator,
		provider core.CompletionProvider,
		resolver *metrics.Resolver,
	) error {
		defer logger.Sync()
		defer resolver.Stop()
		if closer, ok := provider.(interface{ Close() error }); ok {
			defer closer.Close()
		}

		if flags.List || flags.ThreadID == "" {
			return listThreads(svc, flags.Limit)
		}

		brandID := flags.BrandID
		if brandID == "" {
			agentCfg, err := cfg.GetAgent()
			if err != nil {
				return err
			}
			brandID = agentCfg.DefaultBrandID
		}
		return draftReply(svc, orch, flags.ThreadID, brandID, flags.ShowSteps, logger)
	}); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func listThreads(svc *core.OutreachService, limit int) error {
	summaries, err := svc.ListRecentThreads(context.Background(), limit)
	if err != nil {
		return err
	}

	fmt.Printf("=== Recent Threads ===\n")
	for _, s := range summaries {
		fmt.Printf("%-10s %-24s %-12s %-10s %s\n",
			s.ThreadID, s.InfluencerName, s.Category, s.Status,
			s.LatestMessageTime.Format(time.RFC3339))
	}
	return nil
}

func draftReply(
	svc *core.OutreachService,
	orch *agent.Orchestrator,
	threadID, brandID string,
	showSteps bool,
	logger *zap.Logger,
) error {
	ctx := context.Background()

	thread, err := svc.GetThread(ctx, threadID)
	if err != nil {
		return err
	}

	fmt.Printf("\n=== Thread Summary ===\n")
	fmt.Printf("Influencer: %s <%s>\n", thread.InfluencerName, thread.InfluencerEmail)
	fmt.Printf("Subject: %s\n", thread.Subject())
	fmt.Printf("Messages: %d\n", len(thread.Messages))
	fmt.Printf("Brand: %s\n", brandID)

	startTime := time.Now()
	draft, err := orch.Run(ctx, thread, brandID)
	if err != nil {
		return err
	}
	logger.Debug("Draft generated", zap.String("run_id", draft.RunID), zap.Duration("duration", time.Since(startTime)))

	if showSteps {
		fmt.Printf("\n=== Tool Calls ===\n")
		for _, step := range draft.ToolSteps {
			fmt.Printf("[round %d] %s(%s) success=%t\n", step.Round, step.Name, step.Arguments, step.Success)
			fmt.Printf("    %s\n", step.Output)
		}
	}

	fmt.Printf("\n=== Draft ===\n")
	out, err := json.MarshalIndent(draft, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	fmt.Printf("Processing time: %v\n", time.Since(startTime))
	return nil
}
