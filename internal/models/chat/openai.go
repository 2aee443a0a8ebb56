package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Balizero1987/ayo-sub004/internal/logger"
	"github.com/Balizero1987/ayo-sub004/internal/types"
)

// OpenAIChat implements Chat against OpenAI or any OpenAI-compatible
// hosted endpoint. It is reused for both the primary "Flash" rung and the
// "external chat API" rung of the fallback ladder, differing only in
// BaseURL/model (§4.12).
type OpenAIChat struct {
	client    *openai.Client
	modelName string
	modelID   string
}

// NewOpenAIChat creates an OpenAI-compatible chat adapter.
func NewOpenAIChat(cfg *ChatConfig) (*OpenAIChat, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai chat: missing api key: %w", types.ErrLLMUnavailable)
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIChat{
		client:    openai.NewClientWithConfig(clientCfg),
		modelName: cfg.ModelName,
		modelID:   cfg.ModelID,
	}, nil
}

func (c *OpenAIChat) buildRequest(messages []Message, opts *ChatOptions, stream bool) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model:    c.modelName,
		Messages: c.convertMessages(messages, opts),
		Stream:   stream,
	}
	if opts != nil {
		req.Temperature = float32(opts.Temperature)
		req.TopP = float32(opts.TopP)
		if opts.MaxTokens > 0 {
			req.MaxTokens = opts.MaxTokens
		}
		req.FrequencyPenalty = float32(opts.FrequencyPenalty)
		req.PresencePenalty = float32(opts.PresencePenalty)
		if len(opts.Tools) > 0 {
			req.Tools = c.toolsFrom(opts.Tools)
		}
	}
	return req
}

func (c *OpenAIChat) convertMessages(messages []Message, opts *ChatOptions) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if opts != nil && opts.System != "" {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: opts.System})
	}
	for _, msg := range messages {
		m := openai.ChatCompletionMessage{Role: msg.Role, Content: msg.Content, Name: msg.Name}
		for _, tc := range msg.ToolCalls {
			m.ToolCalls = append(m.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}
		if msg.Role == "tool" {
			m.ToolCallID = msg.Name
		}
		out = append(out, m)
	}
	return out
}

func (c *OpenAIChat) toolsFrom(tools []Tool) []openai.Tool {
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		var params map[string]interface{}
		if len(t.Function.Parameters) > 0 {
			_ = json.Unmarshal(t.Function.Parameters, &params)
		}
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Function.Name,
				Description: t.Function.Description,
				Parameters:  params,
			},
		})
	}
	return out
}

func (c *OpenAIChat) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*types.ChatResponse, error) {
	req := c.buildRequest(messages, opts, false)
	logger.Infof(ctx, "openai chat request model=%s", c.modelName)

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai chat: %w: %v", types.ErrLLMUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai chat: empty response: %w", types.ErrLLMUnavailable)
	}

	choice := resp.Choices[0]
	var toolCalls []types.LLMToolCall
	for _, tc := range choice.Message.ToolCalls {
		toolCalls = append(toolCalls, types.LLMToolCall{
			ID:   tc.ID,
			Type: "function",
			Function: types.FunctionCall{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}

	return &types.ChatResponse{
		Content:   choice.Message.Content,
		ToolCalls: toolCalls,
		Usage: types.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func (c *OpenAIChat) ChatStream(ctx context.Context, messages []Message, opts *ChatOptions) (<-chan types.StreamResponse, error) {
	req := c.buildRequest(messages, opts, true)
	logger.Infof(ctx, "openai chat stream request model=%s", c.modelName)

	stream, err := c.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai chat stream: %w: %v", types.ErrLLMUnavailable, err)
	}

	out := make(chan types.StreamResponse)
	go func() {
		defer close(out)
		defer stream.Close()
		for {
			if ctx.Err() != nil {
				out <- types.StreamResponse{ResponseType: types.ResponseTypeError, Content: types.ErrCancelled.Error(), Done: true}
				return
			}
			resp, err := stream.Recv()
			if err == io.EOF {
				out <- types.StreamResponse{ResponseType: types.ResponseTypeAnswer, Done: true}
				return
			}
			if err != nil {
				logger.Errorf(ctx, "openai chat stream failed: %v", err)
				out <- types.StreamResponse{ResponseType: types.ResponseTypeError, Content: err.Error(), Done: true}
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			delta := resp.Choices[0].Delta
			if delta.Content != "" {
				select {
				case out <- types.StreamResponse{ResponseType: types.ResponseTypeAnswer, Content: delta.Content}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (c *OpenAIChat) ModelName() string { return c.modelName }
func (c *OpenAIChat) ModelID() string   { return c.modelID }
