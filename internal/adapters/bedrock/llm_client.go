package bedrock

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/mikey/outreach-agent/internal/core"
	"go.uber.org/zap"
)

// ConverseAPI is the subset of the Bedrock runtime client used here
type ConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockClient is an implementation of the CompletionProvider interface using the Bedrock Converse API
type BedrockClient struct {
	client      ConverseAPI
	modelID     string
	maxTokens   int
	temperature float32
	topP        float32
	logger      *zap.Logger
}

// NewBedrockClient creates a new Bedrock client
func NewBedrockClient(
	client ConverseAPI,
	modelID string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) *BedrockClient {
	return &BedrockClient{
		client:      client,
		modelID:     modelID,
		maxTokens:   maxTokens,
		temperature: temperature,
		topP:        topP,
		logger:      logger,
	}
}

// Complete runs one Converse round with the tool catalogue attached
func (c *BedrockClient) Complete(ctx context.Context, req *core.CompletionRequest) (*core.CompletionResponse, error) {
	system, messages, err := toConversation(req.Messages)
	if err != nil {
		return nil, err
	}

	input := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(c.modelID),
		Messages: messages,
		System:   system,
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(int32(c.maxTokens)),
			Temperature: aws.Float32(c.temperature),
			TopP:        aws.Float32(c.topP),
		},
	}
	if len(req.Tools) > 0 {
		toolCfg, err := toToolConfig(req.Tools)
		if err != nil {
			return nil, err
		}
		input.ToolConfig = toolCfg
	}

	resp, err := c.client.Converse(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to invoke Bedrock model: %w", err)
	}

	out, ok := resp.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return nil, fmt.Errorf("empty response from Bedrock model")
	}

	msg, err := fromMessage(out.Value)
	if err != nil {
		return nil, err
	}

	result := &core.CompletionResponse{
		Message:   msg,
		ModelUsed: c.modelID,
	}
	if resp.Usage != nil {
		result.InputTokens = int(aws.ToInt32(resp.Usage.InputTokens))
		result.OutputTokens = int(aws.ToInt32(resp.Usage.OutputTokens))
	}

	c.logger.Debug("Bedrock completion",
		zap.String("model", c.modelID),
		zap.String("stop_reason", string(resp.StopReason)),
		zap.Int("tool_calls", len(msg.ToolCalls)))

	return result, nil
}

// toConversation splits system turns out and groups consecutive tool results
// into a single user message, as Converse requires alternating roles.
func toConversation(msgs []core.ChatMessage) ([]types.SystemContentBlock, []types.Message, error) {
	var system []types.SystemContentBlock
	var out []types.Message

	for _, m := range msgs {
		switch m.Role {
		case core.RoleSystem:
			system = append(system, &types.SystemContentBlockMemberText{Value: m.Content})

		case core.RoleUser:
			out = append(out, types.Message{
				Role:    types.ConversationRoleUser,
				Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: m.Content}},
			})

		case core.RoleAssistant:
			var blocks []types.ContentBlock
			if m.Content != "" {
				blocks = append(blocks, &types.ContentBlockMemberText{Value: m.Content})
			}
			for _, tc := range m.ToolCalls {
				input, err := decodeObject(tc.Arguments)
				if err != nil {
					return nil, nil, fmt.Errorf("invalid arguments for tool call %s: %w", tc.ID, err)
				}
				blocks = append(blocks, &types.ContentBlockMemberToolUse{Value: types.ToolUseBlock{
					ToolUseId: aws.String(tc.ID),
					Name:      aws.String(tc.Name),
					Input:     document.NewLazyDocument(input),
				}})
			}
			out = append(out, types.Message{Role: types.ConversationRoleAssistant, Content: blocks})

		case core.RoleTool:
			block := &types.ContentBlockMemberToolResult{Value: types.ToolResultBlock{
				ToolUseId: aws.String(m.ToolCallID),
				Content:   []types.ToolResultContentBlock{&types.ToolResultContentBlockMemberText{Value: m.Content}},
			}}
			if n := len(out); n > 0 && out[n-1].Role == types.ConversationRoleUser && isToolResults(out[n-1]) {
				out[n-1].Content = append(out[n-1].Content, block)
				continue
			}
			out = append(out, types.Message{Role: types.ConversationRoleUser, Content: []types.ContentBlock{block}})

		default:
			return nil, nil, fmt.Errorf("unsupported message role: %s", m.Role)
		}
	}
	return system, out, nil
}

func isToolResults(m types.Message) bool {
	for _, b := range m.Content {
		if _, ok := b.(*types.ContentBlockMemberToolResult); !ok {
			return false
		}
	}
	return len(m.Content) > 0
}

func toToolConfig(defs []core.ToolDefinition) (*types.ToolConfiguration, error) {
	tools := make([]types.Tool, 0, len(defs))
	for _, d := range defs {
		schema, err := decodeObject(string(d.Parameters))
		if err != nil {
			return nil, fmt.Errorf("invalid schema for tool %s: %w", d.Name, err)
		}
		tools = append(tools, &types.ToolMemberToolSpec{Value: types.ToolSpecification{
			Name:        aws.String(d.Name),
			Description: aws.String(d.Description),
			InputSchema: &types.ToolInputSchemaMemberJson{Value: document.NewLazyDocument(schema)},
		}})
	}
	return &types.ToolConfiguration{
		Tools:      tools,
		ToolChoice: &types.ToolChoiceMemberAuto{Value: types.AutoToolChoice{}},
	}, nil
}

func fromMessage(m types.Message) (core.ChatMessage, error) {
	out := core.ChatMessage{Role: core.RoleAssistant}
	for _, block := range m.Content {
		switch b := block.(type) {
		case *types.ContentBlockMemberText:
			out.Content += b.Value
		case *types.ContentBlockMemberToolUse:
			args := "{}"
			if b.Value.Input != nil {
				raw, err := b.Value.Input.MarshalSmithyDocument()
				if err != nil {
					return out, fmt.Errorf("failed to decode tool input: %w", err)
				}
				args = string(raw)
			}
			out.ToolCalls = append(out.ToolCalls, core.ToolCall{
				ID:        aws.ToString(b.Value.ToolUseId),
				Name:      aws.ToString(b.Value.Name),
				Arguments: args,
			})
		}
	}
	return out, nil
}

func decodeObject(raw string) (map[string]interface{}, error) {
	obj := map[string]interface{}{}
	if raw == "" {
		return obj, nil
	}
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, err
	}
	return obj, nil
}
