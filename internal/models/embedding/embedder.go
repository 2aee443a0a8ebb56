// Package embedding implements C1: generating dense vectors from text, for
// a single provider selected once at construction (§4.1). Dimensionality
// is immutable afterward — switching it means provisioning a new
// collection, never resizing one in place.
package embedding

import (
	"fmt"
	"strings"

	"github.com/Balizero1987/ayo-sub004/internal/config"
	"github.com/Balizero1987/ayo-sub004/internal/types/interfaces"
)

// Source selects which provider backs an Embedder.
type Source string

const (
	SourceHosted Source = "hosted" // 1536-dim hosted small model
	SourceLocal  Source = "local"  // 384-dim local multilingual sentence-transformer (via Ollama)
)

// New builds an Embedder for the configured source.
func New(cfg config.EmbeddingConfig) (interfaces.Embedder, error) {
	switch Source(strings.ToLower(cfg.Source)) {
	case SourceLocal:
		return newLocalEmbedder(cfg)
	case SourceHosted, "":
		return newHostedEmbedder(cfg)
	default:
		return nil, fmt.Errorf("embedding: unsupported source %q", cfg.Source)
	}
}

// batchLimit bounds how many texts one provider call may carry.
const batchLimit = 96

// chunkTexts splits texts into provider-sized batches, preserving order.
func chunkTexts(texts []string, limit int) [][]string {
	if limit <= 0 {
		limit = batchLimit
	}
	var batches [][]string
	for i := 0; i < len(texts); i += limit {
		end := i + limit
		if end > len(texts) {
			end = len(texts)
		}
		batches = append(batches, texts[i:end])
	}
	return batches
}
