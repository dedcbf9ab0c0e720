// Package llm contains the clients that talk to hosted language models. The
// endpoints are stateless per call, so every request carries the full
// conversation transcript plus the declarative tool schemas; the response is
// either final assistant text or one or more tool-call requests.
package llm

import (
	"context"

	"github.com/sierra-outfitters/sierra-agent/internal/tools"
)

// Role identifies the originator of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is a single entry in the conversation transcript. Assistant
// messages may carry ToolCalls; tool messages carry the result of one call,
// keyed by ToolCallID. Name holds the tool's function name on tool messages
// (required by providers that correlate results by name rather than ID).
type Message struct {
	Role       Role              `json:"role"`
	Content    string            `json:"content"`
	Name       string            `json:"name,omitempty"`
	ToolCallID string            `json:"tool_call_id,omitempty"`
	ToolCalls  []*tools.ToolCall `json:"tool_calls,omitempty"`
}

// GenerationConfig controls a single generation request.
type GenerationConfig struct {
	Model string
	// Temperature is kept low for this agent: the replies should track the
	// tool results, not improvise. A pointer distinguishes 0.0 from unset.
	Temperature *float32
	MaxTokens   int
}

// Usage holds token accounting for one generation request.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// GenerationResult is one complete model turn: either Content is the final
// assistant text, or ToolCalls lists the tools the model wants executed
// (possibly several in parallel).
type GenerationResult struct {
	Content   string
	ToolCalls []*tools.ToolCall
	Usage     Usage
}

// Client is the interface all model backends implement.
type Client interface {
	Generate(
		ctx context.Context,
		messages []Message,
		config *GenerationConfig,
		availableTools []tools.Tool,
	) (*GenerationResult, error)
}
