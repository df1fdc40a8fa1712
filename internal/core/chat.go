package core

import "encoding/json"

// Chat roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall is a completion provider's request to run a tool
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // raw JSON
}

// ChatMessage is one turn in an agent conversation
type ChatMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	// Name is the tool name on tool-result turns
	Name string `json:"name,omitempty"`
}

// ToolDefinition is the provider-neutral description of a tool
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"` // JSON Schema
}

// CompletionRequest is a single reasoning round sent to a provider
type CompletionRequest struct {
	Messages []ChatMessage
	Tools    []ToolDefinition
}

// CompletionResponse is the provider's reply for one round
type CompletionResponse struct {
	Message   ChatMessage
	ModelUsed string
	// InputTokens and OutputTokens are zero when the provider does not report usage
	InputTokens  int
	OutputTokens int
}

// SystemMessage builds a system turn
func SystemMessage(text string) ChatMessage {
	return ChatMessage{Role: RoleSystem, Content: text}
}

// UserMessage builds a user turn
func UserMessage(text string) ChatMessage {
	return ChatMessage{Role: RoleUser, Content: text}
}

// ToolResultMessage builds a tool-result turn
func ToolResultMessage(callID, name, content string) ChatMessage {
	return ChatMessage{Role: RoleTool, ToolCallID: callID, Name: name, Content: content}
}
