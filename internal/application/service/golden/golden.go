// Package golden implements C9: a two-level cache that answers a query
// instantly when it (or something close to it) has been seen before,
// short-circuiting retrieval and the LLM entirely (§4.9).
package golden

import (
	"context"
	"math"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/Balizero1987/ayo-sub004/internal/types"
	"github.com/Balizero1987/ayo-sub004/internal/types/interfaces"
	"github.com/Balizero1987/ayo-sub004/internal/utils"
)

const semanticThreshold = 0.85

// MatchKind distinguishes how a Lookup was satisfied.
type MatchKind string

const (
	MatchExact    MatchKind = "exact"
	MatchSemantic MatchKind = "semantic"
)

// Result is a cache hit: either a fully cached answer (exact match on a
// normalized question) or a routing hint from a semantically close
// canonical query.
type Result struct {
	Kind        MatchKind
	Score       float64
	ClusterID   string
	Answer      string
	Sources     []string
	Confidence  float64
	RouteID     string
	Collections []string
}

// Cache is the in-process golden-route/golden-answer lookup layer. A single
// instance is built once at startup and kept warm for the process lifetime.
type Cache struct {
	store    interfaces.RelationalStore
	embedder interfaces.Embedder

	mu             sync.RWMutex
	routes         []types.GoldenRoute
	routeEmbeddings [][]float32

	regen singleflight.Group
}

// New constructs a Cache. Call Init before the first Lookup to warm the
// semantic-match embedding matrix; Lookup still works for exact matches
// without it.
func New(store interfaces.RelationalStore, embedder interfaces.Embedder) *Cache {
	return &Cache{store: store, embedder: embedder}
}

// Init loads golden routes from the relational store and builds the
// semantic-match embedding matrix. Safe to call again later to refresh —
// concurrent calls collapse onto a single regeneration via singleflight.
func (c *Cache) Init(ctx context.Context) error {
	_, err, _ := c.regen.Do("init", func() (interface{}, error) {
		routes, err := c.store.ListGoldenRoutes(ctx)
		if err != nil {
			return nil, err
		}
		queries := make([]string, len(routes))
		for i, r := range routes {
			queries[i] = r.CanonicalQuery
		}
		var embeddings [][]float32
		if len(queries) > 0 && c.embedder != nil {
			embeddings, err = c.embedder.EmbedBatch(ctx, queries)
			if err != nil {
				return nil, err
			}
		}
		c.mu.Lock()
		c.routes = routes
		c.routeEmbeddings = embeddings
		c.mu.Unlock()
		return nil, nil
	})
	return err
}

// RefreshIfStale re-runs Init when the live route count no longer matches
// the cached embedding matrix's size — the "cache mismatch triggers
// regeneration" rule from §4.9. Lookup does not call it; the background
// refresh task (HandleRefreshTask) does.
func (c *Cache) RefreshIfStale(ctx context.Context, liveRouteCount int) error {
	c.mu.RLock()
	stale := liveRouteCount != len(c.routeEmbeddings)
	c.mu.RUnlock()
	if !stale {
		return nil
	}
	return c.Init(ctx)
}

// Lookup tries an exact match first (O(1) via the query-hash index), then
// falls back to semantic similarity against the canonical-query matrix.
// A miss at both levels returns (nil, false).
func (c *Cache) Lookup(ctx context.Context, query string) (*Result, bool) {
	if result, ok := c.lookupExact(ctx, query); ok {
		return result, true
	}
	return c.lookupSemantic(ctx, query)
}

func (c *Cache) lookupExact(ctx context.Context, query string) (*Result, bool) {
	hash := utils.NormalizedMD5(query)
	cluster, err := c.store.LookupQueryCluster(ctx, hash)
	if err != nil || cluster == nil {
		return nil, false
	}
	answer, err := c.store.GetGoldenAnswer(ctx, cluster.ClusterID)
	if err != nil || answer == nil {
		return nil, false
	}
	go c.store.IncrementAnswerUsage(context.Background(), cluster.ClusterID)
	return &Result{
		Kind:       MatchExact,
		Score:      1.0,
		ClusterID:  cluster.ClusterID,
		Answer:     answer.Answer,
		Sources:    answer.Sources,
		Confidence: answer.Confidence,
	}, true
}

func (c *Cache) lookupSemantic(ctx context.Context, query string) (*Result, bool) {
	if c.embedder == nil {
		return nil, false
	}
	c.mu.RLock()
	routes := c.routes
	embeddings := c.routeEmbeddings
	c.mu.RUnlock()
	if len(routes) == 0 || len(embeddings) != len(routes) {
		return nil, false
	}

	queryVec, err := c.embedder.Embed(ctx, query)
	if err != nil {
		return nil, false
	}

	bestIdx := -1
	bestScore := 0.0
	for i, vec := range embeddings {
		score := cosineSimilarity(queryVec, vec)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	if bestIdx < 0 || bestScore < semanticThreshold {
		return nil, false
	}

	route := routes[bestIdx]
	go c.store.IncrementRouteUsage(context.Background(), route.RouteID)
	return &Result{
		Kind:        MatchSemantic,
		Score:       bestScore,
		RouteID:     route.RouteID,
		Collections: []string(route.Collections),
	}, true
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
