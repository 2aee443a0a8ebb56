// Package retrieval implements C10: multi-collection vector search, fused,
// optionally reranked, and screened for contradictions, gated by the
// caller's access tier (§4.10).
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/Balizero1987/ayo-sub004/internal/ingestion"
	"github.com/Balizero1987/ayo-sub004/internal/application/service/router"
	"github.com/Balizero1987/ayo-sub004/internal/types"
	"github.com/Balizero1987/ayo-sub004/internal/types/interfaces"
)

const rerankMultiplier = 3

// Result is one retrieved passage with its fused score and payload.
type Result struct {
	Text     string
	Score    float64
	Metadata map[string]interface{}
}

// Conflict is a pairwise contradiction detected between two top results.
type Conflict struct {
	PredicateA string
	PredicateB string
	Note       string
}

// Response is the full output of Retrieve (§4.10 step 7).
type Response struct {
	Query            string
	CollectionUsed   string
	Results          []Result
	AllowedTiers     map[types.Tier]bool
	ConflictsDetected []Conflict
	ResolutionNotes  []string
	Reranked         bool
}

// Options parameterize one Retrieve call.
type Options struct {
	UserLevel          int
	TierFilter         *types.Tier
	CollectionOverride string
	ApplyFilters       bool
	Limit              int
}

// Engine is C10, wired against the embedder, vector store, and optional
// reranker.
type Engine struct {
	embedder interfaces.Embedder
	vectors  interfaces.VectorStore
	reranker interfaces.Reranker
}

// New builds a retrieval Engine. reranker may be nil to disable rerank.
func New(embedder interfaces.Embedder, vectors interfaces.VectorStore, reranker interfaces.Reranker) *Engine {
	return &Engine{embedder: embedder, vectors: vectors, reranker: reranker}
}

const defaultLimit = 10

// Retrieve runs the full C10 algorithm for one query.
func (e *Engine) Retrieve(ctx context.Context, query string, opts Options) (*Response, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	allowed := types.AllowedTiersForLevel(opts.UserLevel)

	collections := e.resolveCollections(query, opts)

	vector, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("retrieval: embed query: %w", err)
	}

	filter := e.buildFilter(opts, allowed)
	searchLimit := limit
	if e.reranker != nil {
		searchLimit = limit * rerankMultiplier
	}

	rawResults, collectionUsed, err := e.searchCollections(ctx, collections, vector, filter, searchLimit)
	if err != nil {
		return nil, err
	}

	merged := mergeAndDedupe(rawResults)

	reranked := false
	if e.reranker != nil && len(merged) > 0 {
		merged, err = e.rerank(ctx, query, merged, limit)
		if err != nil {
			return nil, fmt.Errorf("retrieval: rerank: %w", err)
		}
		reranked = true
	} else if len(merged) > limit {
		merged = merged[:limit]
	}

	conflicts, notes := detectConflicts(merged)

	return &Response{
		Query:             query,
		CollectionUsed:    collectionUsed,
		Results:           merged,
		AllowedTiers:      allowed,
		ConflictsDetected: conflicts,
		ResolutionNotes:   notes,
		Reranked:          reranked,
	}, nil
}

// resolveCollections picks target collections via C8, collapsing to a
// single pricing collection for pricing queries (§4.10 step 1).
func (e *Engine) resolveCollections(query string, opts Options) []string {
	intent := router.Classify(query)
	decision := router.Route(query, intent, opts.CollectionOverride)
	if decision.IsPricing {
		return []string{string(ingestion.CollectionPricing)}
	}
	return decision.Collections
}

func (e *Engine) buildFilter(opts Options, allowed map[types.Tier]bool) *interfaces.VectorFilter {
	if !opts.ApplyFilters {
		return nil
	}
	tiers := make([]interface{}, 0, len(allowed))
	for tier, ok := range allowed {
		if ok {
			tiers = append(tiers, string(tier))
		}
	}
	filter := &interfaces.VectorFilter{In: map[string][]interface{}{"tier": tiers}}
	if opts.TierFilter != nil {
		filter.Equals = map[string]interface{}{"tier": string(*opts.TierFilter)}
	}
	return filter
}

// searchCollections fans out across target collections concurrently. A
// collection the store reports as missing (types.ErrCollectionMissing) is
// skipped rather than aborting the whole query (§4.10 edge cases); the skip
// is not reported to the caller. Any other search error aborts the query.
func (e *Engine) searchCollections(ctx context.Context, collections []string, vector []float32, filter *interfaces.VectorFilter, limit int) ([]interfaces.VectorSearchResult, string, error) {
	type collHits struct {
		collection string
		hits       []interfaces.VectorSearchResult
	}
	out := make([]collHits, len(collections))

	g, gctx := errgroup.WithContext(ctx)
	for i, collection := range collections {
		i, collection := i, collection
		g.Go(func() error {
			hits, err := e.vectors.Search(gctx, collection, vector, filter, limit)
			if err != nil {
				if errors.Is(err, types.ErrCollectionMissing) {
					return nil
				}
				return fmt.Errorf("retrieval: search %s: %w", collection, err)
			}
			out[i] = collHits{collection: collection, hits: hits}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, "", err
	}

	var merged []interfaces.VectorSearchResult
	used := ""
	for _, c := range out {
		if len(c.hits) > 0 && used == "" {
			used = c.collection
		}
		merged = append(merged, c.hits...)
	}
	if used == "" && len(collections) > 0 {
		used = collections[0]
	}
	return merged, used, nil
}

// mergeAndDedupe sorts by score descending and drops repeats of the same
// parent_id+chunk_index pair (§4.10 step 4).
func mergeAndDedupe(raw []interfaces.VectorSearchResult) []Result {
	sort.SliceStable(raw, func(i, j int) bool { return raw[i].Score > raw[j].Score })

	seen := make(map[string]bool)
	out := make([]Result, 0, len(raw))
	for _, r := range raw {
		key := fmt.Sprintf("%v::%v", r.Payload["parent_id"], r.Payload["chunk_index"])
		if seen[key] {
			continue
		}
		seen[key] = true
		text, _ := r.Payload["text"].(string)
		out = append(out, Result{Text: text, Score: r.Score, Metadata: r.Payload})
	}
	return out
}

func (e *Engine) rerank(ctx context.Context, query string, results []Result, limit int) ([]Result, error) {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Text
	}
	scores, err := e.reranker.Rerank(ctx, query, texts)
	if err != nil {
		return nil, err
	}
	for i := range results {
		if i < len(scores) {
			results[i].Score = scores[i]
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// conflictPredicates names known comparable fields extracted from result
// metadata; only these two fields are screened (§4.10 step 6).
// "status" catches an active regulation retrieved alongside a repealed one
// on the same topic; "year" catches results citing different enactment
// years for what looks like the same provision.
var conflictPredicates = []string{"status", "year"}

// sameTopic is a coarse proxy for "about the same provision": same chapter
// title, when both results carry one. Conflicts are only meaningful between
// results that are actually discussing the same thing.
func sameTopic(a, b Result) bool {
	ta, okA := a.Metadata["chapter_title"].(string)
	tb, okB := b.Metadata["chapter_title"].(string)
	return okA && okB && ta != "" && ta == tb
}

// detectConflicts does a pairwise inspection of the top results for
// contradicting values on the same predicate within the same topic.
func detectConflicts(results []Result) ([]Conflict, []string) {
	var conflicts []Conflict
	var notes []string
	for i := 0; i < len(results); i++ {
		for j := i + 1; j < len(results); j++ {
			if !sameTopic(results[i], results[j]) {
				continue
			}
			for _, predicate := range conflictPredicates {
				a, okA := results[i].Metadata[predicate]
				b, okB := results[j].Metadata[predicate]
				if !okA || !okB {
					continue
				}
				if fmt.Sprintf("%v", a) != fmt.Sprintf("%v", b) {
					conflicts = append(conflicts, Conflict{
						PredicateA: fmt.Sprintf("%v", a),
						PredicateB: fmt.Sprintf("%v", b),
						Note:       fmt.Sprintf("conflicting %s between result %d and %d", predicate, i, j),
					})
					notes = append(notes, fmt.Sprintf("review %s: %v vs %v", predicate, a, b))
				}
			}
		}
	}
	return conflicts, notes
}
