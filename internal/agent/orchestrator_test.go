package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/outreach-agent/internal/core"
	"github.com/mikey/outreach-agent/internal/tool"
	"github.com/mikey/outreach-agent/internal/utils"
)

// scriptedProvider answers each round with the next function in the script, repeating the last one
type scriptedProvider struct {
	mu       sync.Mutex
	script   []func(req *core.CompletionRequest) (*core.CompletionResponse, error)
	requests []*core.CompletionRequest
}

func (p *scriptedProvider) Complete(ctx context.Context, req *core.CompletionRequest) (*core.CompletionResponse, error) {
	p.mu.Lock()
	n := len(p.requests)
	snapshot := &core.CompletionRequest{
		Messages: append([]core.ChatMessage(nil), req.Messages...),
		Tools:    req.Tools,
	}
	p.requests = append(p.requests, snapshot)
	p.mu.Unlock()

	if n >= len(p.script) {
		n = len(p.script) - 1
	}
	return p.script[n](req)
}

func callTool(name, args string) func(*core.CompletionRequest) (*core.CompletionResponse, error) {
	return func(req *core.CompletionRequest) (*core.CompletionResponse, error) {
		return &core.CompletionResponse{Message: core.ChatMessage{
			Role:      core.RoleAssistant,
			Content:   fmt.Sprintf("thinking about round %d", len(req.Messages)),
			ToolCalls: []core.ToolCall{{ID: fmt.Sprintf("call_%d", len(req.Messages)), Name: name, Arguments: args}},
		}}, nil
	}
}

func answer(text string) func(*core.CompletionRequest) (*core.CompletionResponse, error) {
	return func(*core.CompletionRequest) (*core.CompletionResponse, error) {
		return &core.CompletionResponse{Message: core.ChatMessage{Role: core.RoleAssistant, Content: text}}, nil
	}
}

type fakeTool struct {
	name  string
	calls int
	exec  func(params json.RawMessage) (*tool.Result, error)
}

func (f *fakeTool) Name() string                { return f.name }
func (f *fakeTool) Description() string         { return "fake " + f.name }
func (f *fakeTool) Parameters() json.RawMessage { return json.RawMessage(`{"type":"object","properties":{}}`) }
func (f *fakeTool) Execute(_ context.Context, params json.RawMessage) (*tool.Result, error) {
	f.calls++
	return f.exec(params)
}

func testThread() *core.EmailThread {
	return &core.EmailThread{
		ID:             "thread_001",
		InfluencerName: "Sarah",
		Brand:          "perplexity",
		ChannelURL:     "https://youtube.com/@sarah",
		Status:         core.ThreadStatusOpen,
		Messages: []core.Message{
			{From: "sarah@example.com", Subject: "Sponsorship", Body: strings.Repeat("rate ", 100), Timestamp: time.Now()},
		},
	}
}

func newTestOrchestrator(provider core.CompletionProvider, reg *tool.Registry, cfg Config) *Orchestrator {
	logger := zap.NewNop()
	return NewOrchestrator(provider, reg, cfg, utils.NewTextProcessor(logger), logger)
}

func TestRunStopsAtRoundCap(t *testing.T) {
	echo := &fakeTool{name: "resolve_channel", exec: func(json.RawMessage) (*tool.Result, error) {
		return &tool.Result{Success: true, Data: "ok"}, nil
	}}
	reg := tool.NewRegistry()
	reg.Register(echo)

	provider := &scriptedProvider{script: []func(*core.CompletionRequest) (*core.CompletionResponse, error){
		callTool("resolve_channel", `{"channel_url":"@sarah"}`),
	}}
	o := newTestOrchestrator(provider, reg, Config{})

	draft, err := o.Run(context.Background(), testThread(), "perplexity")
	require.NoError(t, err)
	assert.Equal(t, StateCapReached.String(), draft.State)
	assert.Equal(t, 5, draft.Iterations)
	assert.Len(t, provider.requests, 5)
	assert.Equal(t, 5, echo.calls)
	assert.Len(t, draft.ToolSteps, 5)
	assert.Equal(t, "thinking about round 10", draft.Content)
}

func TestRunRespectsConfiguredRounds(t *testing.T) {
	reg := tool.NewRegistry()
	reg.Register(&fakeTool{name: "noop", exec: func(json.RawMessage) (*tool.Result, error) {
		return &tool.Result{Success: true}, nil
	}})
	provider := &scriptedProvider{script: []func(*core.CompletionRequest) (*core.CompletionResponse, error){
		callTool("noop", `{}`),
	}}

	draft, err := newTestOrchestrator(provider, reg, Config{MaxRounds: 2}).Run(context.Background(), testThread(), "")
	require.NoError(t, err)
	assert.Equal(t, 2, draft.Iterations)
	assert.Len(t, provider.requests, 2)
}

func TestRunContinuesAfterToolFailure(t *testing.T) {
	broken := &fakeTool{name: "resolve_channel", exec: func(json.RawMessage) (*tool.Result, error) {
		return nil, errors.New("youtube exploded")
	}}
	reg := tool.NewRegistry()
	reg.Register(broken)

	var secondRound *core.CompletionRequest
	provider := &scriptedProvider{script: []func(*core.CompletionRequest) (*core.CompletionResponse, error){
		func(req *core.CompletionRequest) (*core.CompletionResponse, error) {
			return &core.CompletionResponse{Message: core.ChatMessage{
				Role: core.RoleAssistant,
				ToolCalls: []core.ToolCall{
					{ID: "a", Name: "resolve_channel", Arguments: `{}`},
					{ID: "b", Name: "no_such_tool", Arguments: `{}`},
					{ID: "c", Name: "resolve_channel", Arguments: `{not json`},
				},
			}}, nil
		},
		func(req *core.CompletionRequest) (*core.CompletionResponse, error) {
			secondRound = req
			return answer("Subject: Re: Sponsorship\n\nHappy to negotiate a fair rate.")(req)
		},
	}}

	draft, err := newTestOrchestrator(provider, reg, Config{}).Run(context.Background(), testThread(), "perplexity")
	require.NoError(t, err)
	assert.Equal(t, StateDone.String(), draft.State)
	assert.Equal(t, 2, draft.Iterations)
	assert.Equal(t, CategoryNegotiation, draft.Category)
	assert.Equal(t, 1, broken.calls)

	require.NotNil(t, secondRound)
	// system, user, assistant, three tool results
	require.Len(t, secondRound.Messages, 6)
	toolMsgs := secondRound.Messages[3:]
	assert.Equal(t, "a", toolMsgs[0].ToolCallID)
	assert.Contains(t, toolMsgs[0].Content, "youtube exploded")
	assert.Contains(t, toolMsgs[1].Content, "unknown tool")
	assert.Contains(t, toolMsgs[2].Content, `"success":false`)
	for _, m := range toolMsgs {
		assert.Equal(t, core.RoleTool, m.Role)
	}

	require.Len(t, draft.ToolSteps, 3)
	assert.False(t, draft.ToolSteps[0].Success)
}

func TestRunRecoversFromPanickingTool(t *testing.T) {
	reg := tool.NewRegistry()
	reg.Register(&fakeTool{name: "resolve_channel", exec: func(json.RawMessage) (*tool.Result, error) {
		var counts map[string]int
		counts["views"]++
		return &tool.Result{Success: true}, nil
	}})

	var secondRound *core.CompletionRequest
	provider := &scriptedProvider{script: []func(*core.CompletionRequest) (*core.CompletionResponse, error){
		callTool("resolve_channel", `{"channel_url":"@sarah"}`),
		func(req *core.CompletionRequest) (*core.CompletionResponse, error) {
			secondRound = req
			return answer("Thanks Sarah, we accept your rate.")(req)
		},
	}}

	var draft *Draft
	var err error
	require.NotPanics(t, func() {
		draft, err = newTestOrchestrator(provider, reg, Config{}).Run(context.Background(), testThread(), "perplexity")
	})
	require.NoError(t, err)
	assert.Equal(t, StateDone.String(), draft.State)
	assert.Equal(t, 2, draft.Iterations)

	require.NotNil(t, secondRound)
	last := secondRound.Messages[len(secondRound.Messages)-1]
	assert.Equal(t, core.RoleTool, last.Role)
	assert.Contains(t, last.Content, `"success":false`)
	assert.Contains(t, last.Content, "tool resolve_channel panicked")

	require.Len(t, draft.ToolSteps, 1)
	assert.False(t, draft.ToolSteps[0].Success)
}

func TestRunCapturesQuote(t *testing.T) {
	quote := &core.PricingQuote{FinalCPM: 20, EstimatedPrice: 100, NegotiationCap: 120, Currency: "USD"}
	reg := tool.NewRegistry()
	reg.Register(&fakeTool{name: tool.QuotePriceToolName, exec: func(json.RawMessage) (*tool.Result, error) {
		return &tool.Result{Success: true, Calculation: quote}, nil
	}})

	provider := &scriptedProvider{script: []func(*core.CompletionRequest) (*core.CompletionResponse, error){
		callTool(tool.QuotePriceToolName, `{"channel_url":"@sarah"}`),
		answer("Subject: Offer\n\nWe would love to accept at $100."),
	}}

	draft, err := newTestOrchestrator(provider, reg, Config{}).Run(context.Background(), testThread(), "perplexity")
	require.NoError(t, err)
	assert.Same(t, quote, draft.Quote)
	assert.Equal(t, CategoryAcceptance, draft.Category)
	assert.NotEmpty(t, draft.RunID)
}

func TestRunWithoutQuote(t *testing.T) {
	provider := &scriptedProvider{script: []func(*core.CompletionRequest) (*core.CompletionResponse, error){
		answer("Thanks for reaching out!"),
	}}

	draft, err := newTestOrchestrator(provider, tool.NewRegistry(), Config{}).Run(context.Background(), testThread(), "perplexity")
	require.NoError(t, err)
	assert.Nil(t, draft.Quote)
	assert.Equal(t, 1, draft.Iterations)
	assert.Equal(t, CategoryResponse, draft.Category)
}

func TestRunProviderErrorIsFatal(t *testing.T) {
	boom := errors.New("rate limited")
	provider := &scriptedProvider{script: []func(*core.CompletionRequest) (*core.CompletionResponse, error){
		func(*core.CompletionRequest) (*core.CompletionResponse, error) { return nil, boom },
	}}

	_, err := newTestOrchestrator(provider, tool.NewRegistry(), Config{}).Run(context.Background(), testThread(), "perplexity")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProvider))
	assert.True(t, errors.Is(err, boom))
	assert.Len(t, provider.requests, 1)
}

type blockingProvider struct{}

func (blockingProvider) Complete(ctx context.Context, _ *core.CompletionRequest) (*core.CompletionResponse, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRunTimeout(t *testing.T) {
	o := newTestOrchestrator(blockingProvider{}, tool.NewRegistry(), Config{Timeout: 20 * time.Millisecond})

	start := time.Now()
	_, err := o.Run(context.Background(), testThread(), "perplexity")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestRunPassesPromptAndTools(t *testing.T) {
	reg := tool.NewRegistry()
	reg.Register(&fakeTool{name: "resolve_channel", exec: func(json.RawMessage) (*tool.Result, error) { return &tool.Result{Success: true}, nil }})
	provider := &scriptedProvider{script: []func(*core.CompletionRequest) (*core.CompletionResponse, error){answer("done")}}

	o := newTestOrchestrator(provider, reg, Config{MaxBodySize: 40})
	_, err := o.Run(context.Background(), testThread(), "copyai")
	require.NoError(t, err)

	req := provider.requests[0]
	require.Len(t, req.Messages, 2)
	assert.Equal(t, core.RoleSystem, req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "copyai")
	assert.Contains(t, req.Messages[0].Content, "quote_price")
	assert.Equal(t, core.RoleUser, req.Messages[1].Role)
	assert.True(t, strings.HasPrefix(req.Messages[1].Content, "Email Context: "))
	assert.Contains(t, req.Messages[1].Content, "Content truncated")
	require.Len(t, req.Tools, 1)
	assert.Equal(t, "resolve_channel", req.Tools[0].Name)
}

func TestStepRejectsTerminalState(t *testing.T) {
	o := newTestOrchestrator(blockingProvider{}, tool.NewRegistry(), Config{})
	err := o.step(context.Background(), &Session{State: StateDone}, zap.NewNop())
	assert.Error(t, err)
}

func TestCategorize(t *testing.T) {
	tests := map[string]string{
		"Let's negotiate the rate":         CategoryNegotiation,
		"We are open to negotiation":       CategoryNegotiation,
		"We accept your proposal":          CategoryAcceptance,
		"We must decline at this time":     CategoryRejection,
		"Thanks for your email, following": CategoryResponse,
		"":                                 CategoryResponse,
	}
	for input, want := range tests {
		assert.Equal(t, want, Categorize(input), input)
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "reasoning", StateReasoning.String())
	assert.Equal(t, "executing", StateExecuting.String())
	assert.True(t, StateDone.Terminal())
	assert.True(t, StateCapReached.Terminal())
	assert.False(t, StateExecuting.Terminal())
}
