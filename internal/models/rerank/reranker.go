// Package rerank implements C10's optional rerank stage: concrete HTTP
// clients for third-party cross-encoder rerank APIs, adapted to the
// interfaces.Reranker contract the retrieval engine depends on.
package rerank

import (
	"context"
	"fmt"

	"github.com/Balizero1987/ayo-sub004/internal/types/interfaces"
)

// RerankerConfig configures a concrete reranker client.
type RerankerConfig struct {
	APIKey    string
	BaseURL   string
	ModelName string
	ModelID   string
}

// DocumentInfo carries the document text a rerank API echoed back.
type DocumentInfo struct {
	Text string `json:"text"`
}

// RankResult is one reranked document, in the order the provider returned it.
type RankResult struct {
	Index          int          `json:"index"`
	Document       DocumentInfo `json:"document"`
	RelevanceScore float64      `json:"relevance_score"`
}

// client is satisfied by JinaReranker and ZhipuReranker.
type client interface {
	Rerank(ctx context.Context, query string, documents []string) ([]RankResult, error)
}

// Adapter exposes a concrete rerank client as the interfaces.Reranker the
// retrieval engine expects: scores in input order, not provider order.
type Adapter struct {
	client client
}

// NewAdapter wraps a concrete rerank client for use as an interfaces.Reranker.
func NewAdapter(c client) *Adapter {
	return &Adapter{client: c}
}

var _ interfaces.Reranker = (*Adapter)(nil)

// Rerank restores the provider's per-document scores to the caller's
// original document order, since interfaces.Reranker contracts scores
// positionally rather than by a reordered result list.
func (a *Adapter) Rerank(ctx context.Context, query string, docs []string) ([]float64, error) {
	results, err := a.client.Rerank(ctx, query, docs)
	if err != nil {
		return nil, fmt.Errorf("rerank: %w", err)
	}
	scores := make([]float64, len(docs))
	for _, r := range results {
		if r.Index >= 0 && r.Index < len(scores) {
			scores[r.Index] = r.RelevanceScore
		}
	}
	return scores, nil
}
