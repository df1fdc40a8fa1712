package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"github.com/mikey/outreach-agent/internal/core"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const (
	roleUser  = "user"
	roleModel = "model"
)

// GeminiClient is an implementation of the CompletionProvider interface using Google Gemini
type GeminiClient struct {
	client      *genai.Client
	modelName   string
	maxTokens   int
	temperature float32
	topP        float32
	logger      *zap.Logger
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) (*GeminiClient, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client:      client,
		modelName:   modelName,
		maxTokens:   maxTokens,
		temperature: temperature,
		topP:        topP,
		logger:      logger,
	}, nil
}

// Close closes the Gemini client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Complete replays the history into a chat session and sends the last turn
func (c *GeminiClient) Complete(ctx context.Context, req *core.CompletionRequest) (*core.CompletionResponse, error) {
	system, contents, err := toContents(req.Messages)
	if err != nil {
		return nil, err
	}
	if len(contents) == 0 {
		return nil, fmt.Errorf("no messages to send to Gemini")
	}

	// models carry per-request state, so one is built per round
	model := c.client.GenerativeModel(c.modelName)
	model.SetTemperature(c.temperature)
	model.SetTopP(c.topP)
	model.SetMaxOutputTokens(int32(c.maxTokens))
	model.SystemInstruction = system
	if len(req.Tools) > 0 {
		tool, err := toTool(req.Tools)
		if err != nil {
			return nil, err
		}
		model.Tools = []*genai.Tool{tool}
	}

	cs := model.StartChat()
	cs.History = contents[:len(contents)-1]
	last := contents[len(contents)-1]

	resp, err := cs.SendMessage(ctx, last.Parts...)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content with Gemini: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	msg, err := fromParts(resp.Candidates[0].Content.Parts)
	if err != nil {
		return nil, err
	}

	result := &core.CompletionResponse{Message: msg, ModelUsed: c.modelName}
	if resp.UsageMetadata != nil {
		result.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		result.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	c.logger.Debug("Gemini completion",
		zap.String("model", c.modelName),
		zap.Int("tool_calls", len(msg.ToolCalls)))

	return result, nil
}

func toContents(msgs []core.ChatMessage) (*genai.Content, []*genai.Content, error) {
	var system *genai.Content
	var out []*genai.Content

	for _, m := range msgs {
		switch m.Role {
		case core.RoleSystem:
			if system == nil {
				system = &genai.Content{}
			}
			system.Parts = append(system.Parts, genai.Text(m.Content))

		case core.RoleUser:
			out = append(out, &genai.Content{Role: roleUser, Parts: []genai.Part{genai.Text(m.Content)}})

		case core.RoleAssistant:
			content := &genai.Content{Role: roleModel}
			if m.Content != "" {
				content.Parts = append(content.Parts, genai.Text(m.Content))
			}
			for _, tc := range m.ToolCalls {
				args, err := decodeObject(tc.Arguments)
				if err != nil {
					return nil, nil, fmt.Errorf("invalid arguments for tool call %s: %w", tc.ID, err)
				}
				content.Parts = append(content.Parts, genai.FunctionCall{Name: tc.Name, Args: args})
			}
			out = append(out, content)

		case core.RoleTool:
			part := genai.FunctionResponse{Name: m.Name, Response: responseObject(m.Content)}
			if n := len(out); n > 0 && out[n-1].Role == roleUser && isFunctionResponses(out[n-1]) {
				out[n-1].Parts = append(out[n-1].Parts, part)
				continue
			}
			out = append(out, &genai.Content{Role: roleUser, Parts: []genai.Part{part}})

		default:
			return nil, nil, fmt.Errorf("unsupported message role: %s", m.Role)
		}
	}
	return system, out, nil
}

func isFunctionResponses(c *genai.Content) bool {
	for _, p := range c.Parts {
		if _, ok := p.(genai.FunctionResponse); !ok {
			return false
		}
	}
	return len(c.Parts) > 0
}

// fromParts assigns call ids, which Gemini does not issue
func fromParts(parts []genai.Part) (core.ChatMessage, error) {
	out := core.ChatMessage{Role: core.RoleAssistant}
	for _, part := range parts {
		switch p := part.(type) {
		case genai.Text:
			out.Content += string(p)
		case genai.FunctionCall:
			args, err := json.Marshal(p.Args)
			if err != nil {
				return out, fmt.Errorf("failed to encode function call args: %w", err)
			}
			if p.Args == nil {
				args = []byte("{}")
			}
			out.ToolCalls = append(out.ToolCalls, core.ToolCall{
				ID:        "call_" + uuid.NewString(),
				Name:      p.Name,
				Arguments: string(args),
			})
		}
	}
	return out, nil
}

func toTool(defs []core.ToolDefinition) (*genai.Tool, error) {
	tool := &genai.Tool{}
	for _, d := range defs {
		var raw map[string]interface{}
		if len(d.Parameters) > 0 {
			if err := json.Unmarshal(d.Parameters, &raw); err != nil {
				return nil, fmt.Errorf("invalid schema for tool %s: %w", d.Name, err)
			}
		}
		tool.FunctionDeclarations = append(tool.FunctionDeclarations, &genai.FunctionDeclaration{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  toSchema(raw),
		})
	}
	return tool, nil
}

// toSchema converts the JSON Schema subset used by the tool catalogue
func toSchema(raw map[string]interface{}) *genai.Schema {
	if raw == nil {
		return &genai.Schema{Type: genai.TypeObject}
	}

	s := &genai.Schema{}
	switch raw["type"] {
	case "string":
		s.Type = genai.TypeString
	case "number":
		s.Type = genai.TypeNumber
	case "integer":
		s.Type = genai.TypeInteger
	case "boolean":
		s.Type = genai.TypeBoolean
	case "array":
		s.Type = genai.TypeArray
	default:
		s.Type = genai.TypeObject
	}
	if desc, ok := raw["description"].(string); ok {
		s.Description = desc
	}
	if enum, ok := raw["enum"].([]interface{}); ok {
		for _, e := range enum {
			if v, ok := e.(string); ok {
				s.Enum = append(s.Enum, v)
			}
		}
	}
	if items, ok := raw["items"].(map[string]interface{}); ok {
		s.Items = toSchema(items)
	}
	if props, ok := raw["properties"].(map[string]interface{}); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, p := range props {
			if pm, ok := p.(map[string]interface{}); ok {
				s.Properties[name] = toSchema(pm)
			}
		}
	}
	if req, ok := raw["required"].([]interface{}); ok {
		for _, r := range req {
			if v, ok := r.(string); ok {
				s.Required = append(s.Required, v)
			}
		}
	}
	return s
}

func responseObject(content string) map[string]interface{} {
	obj, err := decodeObject(content)
	if err != nil || obj == nil {
		return map[string]interface{}{"content": content}
	}
	return obj
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
