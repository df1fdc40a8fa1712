// Package agent drives the bounded reasoning loop that drafts negotiation replies.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mikey/outreach-agent/internal/core"
	"github.com/mikey/outreach-agent/internal/tool"
	"github.com/mikey/outreach-agent/internal/utils"
)

var (
	// ErrTimeout is returned when a run exceeds its overall deadline
	ErrTimeout = errors.New("agent run timed out")
	// ErrProvider wraps completion provider failures
	ErrProvider = errors.New("completion provider failed")
)

// Defaults for Config
const (
	DefaultMaxRounds     = 5
	DefaultTimeout       = 45 * time.Second
	DefaultMaxBodySize   = 4000
	DefaultMaxStepOutput = 500
	DefaultBrandID       = "perplexity"
)

// ToolExecutor runs tools by name and describes them
type ToolExecutor interface {
	Execute(ctx context.Context, name string, arguments string) (*tool.Result, error)
	Definitions() []core.ToolDefinition
}

// Config bounds a run
type Config struct {
	MaxRounds     int
	Timeout       time.Duration
	MaxBodySize   int
	MaxStepOutput int
}

func (c *Config) applyDefaults() {
	if c.MaxRounds <= 0 {
		c.MaxRounds = DefaultMaxRounds
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxBodySize <= 0 {
		c.MaxBodySize = DefaultMaxBodySize
	}
	if c.MaxStepOutput <= 0 {
		c.MaxStepOutput = DefaultMaxStepOutput
	}
}

// ToolStep records one tool call made during a run
type ToolStep struct {
	Round     int    `json:"round"`
	Name      string `json:"tool_name"`
	Arguments string `json:"tool_params"`
	Output    string `json:"tool_result"`
	Success   bool   `json:"success"`
}

// Session is the transient state of one run
type Session struct {
	RunID       string
	History     []core.ChatMessage
	Rounds      int
	State       State
	Quote       *core.PricingQuote
	Steps       []ToolStep
	tools       []core.ToolDefinition
	pending     []core.ToolCall
	lastContent string
}

// Draft is the outcome of a run
type Draft struct {
	RunID      string             `json:"run_id"`
	Content    string             `json:"response_draft"`
	Category   string             `json:"category"`
	Quote      *core.PricingQuote `json:"pricing_breakdown"`
	Iterations int                `json:"iterations_used"`
	State      string             `json:"state"`
	ToolSteps  []ToolStep         `json:"tool_steps,omitempty"`
}

// Orchestrator ties a completion provider to the tool registry
type Orchestrator struct {
	provider core.CompletionProvider
	tools    ToolExecutor
	cfg      Config
	text     *utils.TextProcessor
	logger   *zap.Logger
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(provider core.CompletionProvider, tools ToolExecutor, cfg Config, text *utils.TextProcessor, logger *zap.Logger) *Orchestrator {
	cfg.applyDefaults()
	return &Orchestrator{
		provider: provider,
		tools:    tools,
		cfg:      cfg,
		text:     text,
		logger:   logger,
	}
}

// NewSession builds the initial Reasoning state for a thread
func (o *Orchestrator) NewSession(thread *core.EmailThread, brandID string) (*Session, error) {
	if brandID == "" {
		brandID = DefaultBrandID
	}
	prompt := &PromptBuilder{BrandID: brandID, MaxBodySize: o.cfg.MaxBodySize, Text: o.text}
	user, err := prompt.User(thread)
	if err != nil {
		return nil, err
	}

	return &Session{
		RunID: uuid.NewString(),
		History: []core.ChatMessage{
			core.SystemMessage(prompt.System()),
			core.UserMessage(user),
		},
		State: StateReasoning,
		tools: o.tools.Definitions(),
	}, nil
}

// Run drafts a reply for the thread
func (o *Orchestrator) Run(ctx context.Context, thread *core.EmailThread, brandID string) (*Draft, error) {
	s, err := o.NewSession(thread, brandID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	logger := o.logger.With(zap.String("run_id", s.RunID), zap.String("thread_id", thread.ID))
	logger.Info("Starting agent loop", zap.String("brand_id", brandID), zap.Int("max_rounds", o.cfg.MaxRounds))

	for !s.State.Terminal() {
		if err := o.step(ctx, s, logger); err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				logger.Error("Agent run timed out", zap.Duration("timeout", o.cfg.Timeout), zap.Int("rounds", s.Rounds))
				return nil, fmt.Errorf("%w after %s", ErrTimeout, o.cfg.Timeout)
			}
			logger.Error("Agent run failed", zap.Error(err), zap.Int("rounds", s.Rounds))
			return nil, err
		}
	}

	if s.State == StateCapReached {
		logger.Warn("Round cap reached, using last assistant content", zap.Int("rounds", s.Rounds))
	} else {
		logger.Info("Agent finished reasoning", zap.Int("rounds", s.Rounds))
	}

	return &Draft{
		RunID:      s.RunID,
		Content:    s.lastContent,
		Category:   Categorize(s.lastContent),
		Quote:      s.Quote,
		Iterations: s.Rounds,
		State:      s.State.String(),
		ToolSteps:  s.Steps,
	}, nil
}

// step performs one transition of the loop
func (o *Orchestrator) step(ctx context.Context, s *Session, logger *zap.Logger) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	switch s.State {
	case StateReasoning:
		return o.reason(ctx, s, logger)
	case StateExecuting:
		o.execute(ctx, s, logger)
		if s.Rounds >= o.cfg.MaxRounds {
			s.State = StateCapReached
		} else {
			s.State = StateReasoning
		}
		return nil
	default:
		return fmt.Errorf("step called in terminal state %s", s.State)
	}
}

func (o *Orchestrator) reason(ctx context.Context, s *Session, logger *zap.Logger) error {
	s.Rounds++
	logger.Debug("Reasoning round", zap.Int("round", s.Rounds), zap.Int("history", len(s.History)))

	resp, err := o.provider.Complete(ctx, &core.CompletionRequest{
		Messages: s.History,
		Tools:    s.tools,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProvider, err)
	}

	msg := resp.Message
	msg.Role = core.RoleAssistant
	s.History = append(s.History, msg)
	if msg.Content != "" {
		s.lastContent = msg.Content
	}

	logger.Debug("Provider responded",
		zap.String("model", resp.ModelUsed),
		zap.Int("tool_calls", len(msg.ToolCalls)),
		zap.Int("input_tokens", resp.InputTokens),
		zap.Int("output_tokens", resp.OutputTokens))

	if len(msg.ToolCalls) == 0 {
		s.State = StateDone
		return nil
	}
	s.pending = msg.ToolCalls
	s.State = StateExecuting
	return nil
}

// execute runs pending calls in order; a failing call becomes error content and the rest still run
func (o *Orchestrator) execute(ctx context.Context, s *Session, logger *zap.Logger) {
	for _, call := range s.pending {
		logger.Info("Agent calling tool", zap.String("tool", call.Name), zap.String("args", call.Arguments))

		content, success := o.invoke(ctx, s, call)
		if !success {
			logger.Warn("Tool call failed", zap.String("tool", call.Name), zap.String("output", o.truncate(content)))
		}

		s.History = append(s.History, core.ToolResultMessage(call.ID, call.Name, content))
		s.Steps = append(s.Steps, ToolStep{
			Round:     s.Rounds,
			Name:      call.Name,
			Arguments: call.Arguments,
			Output:    o.truncate(content),
			Success:   success,
		})
	}
	s.pending = nil
}

// invoke runs one tool call; a panicking tool is reported like any other tool error
func (o *Orchestrator) invoke(ctx context.Context, s *Session, call core.ToolCall) (content string, success bool) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("Tool panicked",
				zap.String("run_id", s.RunID),
				zap.String("tool", call.Name),
				zap.Any("panic", r))
			content, success = tool.ErrorContent(fmt.Errorf("tool %s panicked: %v", call.Name, r)), false
		}
	}()

	res, err := o.tools.Execute(ctx, call.Name, call.Arguments)
	if err != nil {
		return tool.ErrorContent(err), false
	}
	if res == nil {
		return tool.ErrorContent(fmt.Errorf("tool %s returned no result", call.Name)), false
	}

	if call.Name == tool.QuotePriceToolName && res.Success {
		if q, ok := res.Calculation.(*core.PricingQuote); ok {
			s.Quote = q
		}
	}
	return res.JSON(), res.Success
}

func (o *Orchestrator) truncate(s string) string {
	if o.text == nil {
		return s
	}
	return o.text.TruncateText(s, o.cfg.MaxStepOutput)
}
