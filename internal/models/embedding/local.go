package embedding

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	ollamaapi "github.com/ollama/ollama/api"

	"github.com/Balizero1987/ayo-sub004/internal/config"
	"github.com/Balizero1987/ayo-sub004/internal/types"
)

const defaultLocalModel = "paraphrase-multilingual"
const defaultLocalDimensions = 384

// localEmbedder wraps a local Ollama-served multilingual sentence
// embedding model (§4.1: "a local sentence-transformer (384-dim
// multilingual)").
type localEmbedder struct {
	client     *ollamaapi.Client
	modelName  string
	dimensions int
}

func newLocalEmbedder(cfg config.EmbeddingConfig) (*localEmbedder, error) {
	base := cfg.BaseURL
	if base == "" {
		base = "http://localhost:11434"
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("embedding: local provider base url: %w", err)
	}
	model := cfg.ModelName
	if model == "" {
		model = defaultLocalModel
	}
	dims := cfg.Dimensions
	if dims == 0 {
		dims = defaultLocalDimensions
	}
	return &localEmbedder{
		client:     ollamaapi.NewClient(parsed, http.DefaultClient),
		modelName:  model,
		dimensions: dims,
	}, nil
}

func (l *localEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := l.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (l *localEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for _, batch := range chunkTexts(texts, batchLimit) {
		var resp *ollamaapi.EmbedResponse
		err := withRetry(ctx, maxRetryAttempts, isRateLimitError, func() error {
			var callErr error
			resp, callErr = l.client.Embed(ctx, &ollamaapi.EmbedRequest{
				Model: l.modelName,
				Input: batch,
			})
			return callErr
		})
		if err != nil {
			return nil, fmt.Errorf("embedding: local batch: %w: %v", types.ErrEmbeddingUnavailable, err)
		}
		for _, raw := range resp.Embeddings {
			vec := make([]float32, len(raw))
			copy(vec, raw)
			if len(vec) != l.dimensions {
				return nil, fmt.Errorf("embedding: local returned %d dims, want %d: %w",
					len(vec), l.dimensions, types.ErrDimensionMismatch)
			}
			vectors = append(vectors, vec)
		}
	}
	return vectors, nil
}

func (l *localEmbedder) Dimensions() int   { return l.dimensions }
func (l *localEmbedder) ModelName() string { return l.modelName }
func (l *localEmbedder) Provider() string  { return "local" }
