// Package chat defines the unified chat/stream interface C12 adapts every
// provider to (§4.12): "chat(messages, system, tools?, stream?) returning
// either a full response or an async stream of chunks."
package chat

import (
	"context"
	"encoding/json"

	"github.com/Balizero1987/ayo-sub004/internal/types"
)

// Message is one turn in a chat conversation.
type Message struct {
	Role      string              `json:"role"`
	Content   string              `json:"content"`
	Name      string              `json:"name,omitempty"`
	ToolCalls []ToolCall          `json:"tool_calls,omitempty"`
}

// ToolCall is a provider-native tool-use block before adaptation.
type ToolCall struct {
	ID       string      `json:"id"`
	Function FunctionDef `json:"function"`
}

// FunctionDef describes one callable tool.
type FunctionDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
	Arguments   string          `json:"-"`
}

// Tool is a tool declaration sent to the provider.
type Tool struct {
	Type     string      `json:"type"`
	Function FunctionDef `json:"function"`
}

// ChatOptions carries sampling/tool parameters for one call.
type ChatOptions struct {
	Temperature         float64
	TopP                float64
	Seed                int
	MaxTokens           int
	MaxCompletionTokens int
	FrequencyPenalty    float64
	PresencePenalty     float64
	Thinking            *bool
	Format              json.RawMessage
	Tools               []Tool
	System              string
}

// ChatConfig configures one provider-backed Chat adapter.
type ChatConfig struct {
	BaseURL string
	APIKey  string
	ModelName string
	ModelID string
}

// Chat is the unified interface every C12 provider adapter implements.
type Chat interface {
	Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*types.ChatResponse, error)
	ChatStream(ctx context.Context, messages []Message, opts *ChatOptions) (<-chan types.StreamResponse, error)
	ModelName() string
	ModelID() string
}
