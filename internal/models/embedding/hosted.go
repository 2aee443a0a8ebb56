package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Balizero1987/ayo-sub004/internal/config"
	"github.com/Balizero1987/ayo-sub004/internal/types"
)

const defaultHostedModel = "text-embedding-3-small"
const defaultHostedDimensions = 1536
const maxRetryAttempts = 5

// hostedEmbedder wraps a hosted OpenAI-compatible embeddings endpoint.
type hostedEmbedder struct {
	client     *openai.Client
	modelName  string
	dimensions int
}

func newHostedEmbedder(cfg config.EmbeddingConfig) (*hostedEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embedding: hosted provider requires an API key: %w", types.ErrEmbeddingUnavailable)
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.ModelName
	if model == "" {
		model = defaultHostedModel
	}
	dims := cfg.Dimensions
	if dims == 0 {
		dims = defaultHostedDimensions
	}
	return &hostedEmbedder{
		client:     openai.NewClientWithConfig(clientCfg),
		modelName:  model,
		dimensions: dims,
	}, nil
}

func (h *hostedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := h.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (h *hostedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for _, batch := range chunkTexts(texts, batchLimit) {
		var resp openai.EmbeddingResponse
		err := withRetry(ctx, maxRetryAttempts, isRateLimitError, func() error {
			var callErr error
			resp, callErr = h.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
				Input: batch,
				Model: openai.EmbeddingModel(h.modelName),
			})
			return callErr
		})
		if err != nil {
			return nil, fmt.Errorf("embedding: hosted batch: %w: %v", types.ErrEmbeddingUnavailable, err)
		}
		for _, d := range resp.Data {
			if len(d.Embedding) != h.dimensions {
				return nil, fmt.Errorf("embedding: hosted returned %d dims, want %d: %w",
					len(d.Embedding), h.dimensions, types.ErrDimensionMismatch)
			}
			vectors = append(vectors, d.Embedding)
		}
	}
	return vectors, nil
}

func (h *hostedEmbedder) Dimensions() int   { return h.dimensions }
func (h *hostedEmbedder) ModelName() string { return h.modelName }
func (h *hostedEmbedder) Provider() string   { return "hosted" }

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429
	}
	return strings.Contains(strings.ToLower(err.Error()), "rate limit")
}
