package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	ollamaapi "github.com/ollama/ollama/api"

	"github.com/Balizero1987/ayo-sub004/internal/logger"
	"github.com/Balizero1987/ayo-sub004/internal/types"
)

// OllamaChat implements Chat against a local Ollama server.
type OllamaChat struct {
	client    *ollamaapi.Client
	modelName string
	modelID   string
}

// NewOllamaChat creates an Ollama-backed chat adapter.
func NewOllamaChat(cfg *ChatConfig) (*OllamaChat, error) {
	base := cfg.BaseURL
	if base == "" {
		base = "http://localhost:11434"
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("ollama chat: base url: %w", err)
	}
	return &OllamaChat{
		client:    ollamaapi.NewClient(parsed, http.DefaultClient),
		modelName: cfg.ModelName,
		modelID:   cfg.ModelID,
	}, nil
}

func (c *OllamaChat) convertMessages(messages []Message) []ollamaapi.Message {
	out := make([]ollamaapi.Message, 0, len(messages))
	for _, msg := range messages {
		m := ollamaapi.Message{
			Role:      msg.Role,
			Content:   msg.Content,
			ToolCalls: c.toolCallFrom(msg.ToolCalls),
		}
		if msg.Role == "tool" {
			m.ToolName = msg.Name
		}
		out = append(out, m)
	}
	return out
}

func (c *OllamaChat) buildChatRequest(messages []Message, opts *ChatOptions, stream bool) *ollamaapi.ChatRequest {
	req := &ollamaapi.ChatRequest{
		Model:    c.modelName,
		Messages: c.convertMessages(messages),
		Stream:   &stream,
		Options:  make(map[string]interface{}),
	}
	if opts == nil {
		return req
	}
	if opts.System != "" {
		req.Messages = append([]ollamaapi.Message{{Role: "system", Content: opts.System}}, req.Messages...)
	}
	if opts.Temperature > 0 {
		req.Options["temperature"] = opts.Temperature
	}
	if opts.TopP > 0 {
		req.Options["top_p"] = opts.TopP
	}
	if opts.MaxTokens > 0 {
		req.Options["num_predict"] = opts.MaxTokens
	}
	if opts.Thinking != nil {
		req.Think = &ollamaapi.ThinkValue{Value: *opts.Thinking}
	}
	if len(opts.Tools) > 0 {
		req.Tools = c.toolFrom(opts.Tools)
	}
	return req
}

// Chat performs a non-streamed completion.
func (c *OllamaChat) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*types.ChatResponse, error) {
	req := c.buildChatRequest(messages, opts, false)
	logger.Infof(ctx, "ollama chat request model=%s", c.modelName)

	var content string
	var toolCalls []types.LLMToolCall
	var promptTokens, completionTokens int

	err := c.client.Chat(ctx, req, func(resp ollamaapi.ChatResponse) error {
		content = resp.Message.Content
		toolCalls = c.toolCallTo(resp.Message.ToolCalls)
		if resp.EvalCount > 0 {
			promptTokens = resp.PromptEvalCount
			completionTokens = resp.EvalCount
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat: %w: %v", types.ErrLLMUnavailable, err)
	}

	return &types.ChatResponse{
		Content:   content,
		ToolCalls: toolCalls,
		Usage: types.TokenUsage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
	}, nil
}

// ChatStream performs a streamed completion, closing the channel when the
// provider reports done or the context is cancelled (§4.12 cancellation:
// "partial text emitted so far is preserved").
func (c *OllamaChat) ChatStream(ctx context.Context, messages []Message, opts *ChatOptions) (<-chan types.StreamResponse, error) {
	req := c.buildChatRequest(messages, opts, true)
	logger.Infof(ctx, "ollama chat stream request model=%s", c.modelName)

	out := make(chan types.StreamResponse)
	go func() {
		defer close(out)
		err := c.client.Chat(ctx, req, func(resp ollamaapi.ChatResponse) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if resp.Message.Content != "" {
				select {
				case out <- types.StreamResponse{ResponseType: types.ResponseTypeAnswer, Content: resp.Message.Content}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			if len(resp.Message.ToolCalls) > 0 {
				out <- types.StreamResponse{ResponseType: types.ResponseTypeToolCall, ToolCalls: c.toolCallTo(resp.Message.ToolCalls)}
			}
			if resp.Done {
				out <- types.StreamResponse{ResponseType: types.ResponseTypeAnswer, Done: true}
			}
			return nil
		})
		if err != nil {
			logger.Errorf(ctx, "ollama chat stream failed: %v", err)
			out <- types.StreamResponse{ResponseType: types.ResponseTypeError, Content: err.Error(), Done: true}
		}
	}()
	return out, nil
}

func (c *OllamaChat) ModelName() string { return c.modelName }
func (c *OllamaChat) ModelID() string   { return c.modelID }

func (c *OllamaChat) toolFrom(tools []Tool) ollamaapi.Tools {
	if len(tools) == 0 {
		return nil
	}
	out := make(ollamaapi.Tools, 0, len(tools))
	for _, t := range tools {
		fn := ollamaapi.ToolFunction{Name: t.Function.Name, Description: t.Function.Description}
		if len(t.Function.Parameters) > 0 {
			_ = json.Unmarshal(t.Function.Parameters, &fn.Parameters)
		}
		out = append(out, ollamaapi.Tool{Type: t.Type, Function: fn})
	}
	return out
}

func (c *OllamaChat) toolCallFrom(calls []ToolCall) []ollamaapi.ToolCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]ollamaapi.ToolCall, 0, len(calls))
	for _, tc := range calls {
		var args map[string]interface{}
		if tc.Function.Arguments != "" {
			_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
		}
		out = append(out, ollamaapi.ToolCall{Function: ollamaapi.ToolCallFunction{Name: tc.Function.Name, Arguments: args}})
	}
	return out
}

func (c *OllamaChat) toolCallTo(calls []ollamaapi.ToolCall) []types.LLMToolCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]types.LLMToolCall, 0, len(calls))
	for i, tc := range calls {
		argsBytes, _ := json.Marshal(tc.Function.Arguments)
		out = append(out, types.LLMToolCall{
			ID:   fmt.Sprintf("%s-%d", c.modelName, i),
			Type: "function",
			Function: types.FunctionCall{
				Name:      tc.Function.Name,
				Arguments: string(argsBytes),
			},
		})
	}
	return out
}
