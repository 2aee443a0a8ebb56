package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Balizero1987/ayo-sub004/internal/types"
	"github.com/Balizero1987/ayo-sub004/internal/types/interfaces"
)

type fakeEmbedder struct {
	dims int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return make([]float32, f.dims), nil
}
func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, f.dims)
	}
	return out, nil
}
func (f *fakeEmbedder) Dimensions() int   { return f.dims }
func (f *fakeEmbedder) ModelName() string { return "fake" }
func (f *fakeEmbedder) Provider() string  { return "fake" }

type fakeVectorStore struct {
	byCollection map[string][]interfaces.VectorSearchResult
	missing      map[string]bool
	lastFilter   map[string]*interfaces.VectorFilter
}

func (v *fakeVectorStore) EnsureCollection(ctx context.Context, name string, dim int) error {
	return nil
}
func (v *fakeVectorStore) Upsert(ctx context.Context, collection string, points []interfaces.VectorPoint) error {
	return nil
}
func (v *fakeVectorStore) Search(ctx context.Context, collection string, vector []float32, filter *interfaces.VectorFilter, limit int) ([]interfaces.VectorSearchResult, error) {
	if v.lastFilter != nil {
		v.lastFilter[collection] = filter
	}
	if v.missing[collection] {
		return nil, types.ErrCollectionMissing
	}
	hits := v.byCollection[collection]
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}
func (v *fakeVectorStore) Delete(ctx context.Context, collection string, ids []string) error {
	return nil
}
func (v *fakeVectorStore) Stats(ctx context.Context, collection string) (map[string]interface{}, error) {
	return nil, nil
}

type fakeReranker struct {
	scores map[string]float64
}

func (r *fakeReranker) Rerank(ctx context.Context, query string, docs []string) ([]float64, error) {
	out := make([]float64, len(docs))
	for i, d := range docs {
		out[i] = r.scores[d]
	}
	return out, nil
}

func hit(id string, score float64, parentID string, chunkIndex int, text string, extra map[string]interface{}) interfaces.VectorSearchResult {
	payload := map[string]interface{}{
		"text":        text,
		"parent_id":   parentID,
		"chunk_index": chunkIndex,
	}
	for k, v := range extra {
		payload[k] = v
	}
	return interfaces.VectorSearchResult{ID: id, Score: score, Payload: payload}
}

func TestSearchCollectionsMergesAcrossCollectionsAndDedupes(t *testing.T) {
	vectors := &fakeVectorStore{byCollection: map[string][]interfaces.VectorSearchResult{
		"tax": {
			hit("1", 0.9, "doc-a", 0, "tax passage one", nil),
			hit("2", 0.5, "doc-a", 1, "tax passage two", nil),
		},
		"visa": {
			hit("3", 0.95, "doc-b", 0, "visa passage one", nil),
			hit("4", 0.9, "doc-a", 0, "duplicate of tax doc-a chunk 0", nil),
		},
	}}
	engine := &Engine{embedder: &fakeEmbedder{dims: 4}, vectors: vectors}

	raw, used, err := engine.searchCollections(context.Background(), []string{"tax", "visa"}, make([]float32, 4), nil, 10)
	require.NoError(t, err)
	assert.Equal(t, "tax", used)

	merged := mergeAndDedupe(raw)
	require.Len(t, merged, 3)
	assert.Equal(t, "visa passage one", merged[0].Text)
	assert.Equal(t, "tax passage one", merged[1].Text)
	assert.Equal(t, "tax passage two", merged[2].Text)
}

func TestRetrieveExplicitOverrideSingleCollection(t *testing.T) {
	vectors := &fakeVectorStore{byCollection: map[string][]interfaces.VectorSearchResult{
		"visa": {
			hit("1", 0.95, "doc-b", 0, "visa passage one", nil),
			hit("2", 0.9, "doc-b", 0, "same chunk retrieved twice", nil),
			hit("3", 0.7, "doc-b", 1, "visa passage two", nil),
		},
	}}
	engine := New(&fakeEmbedder{dims: 4}, vectors, nil)

	resp, err := engine.Retrieve(context.Background(), "any question", Options{
		UserLevel:          5,
		CollectionOverride: "visa",
		Limit:              10,
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "visa passage one", resp.Results[0].Text)
	assert.Equal(t, "visa passage two", resp.Results[1].Text)
}

func TestRetrieveTierFilterBuiltFromUserLevel(t *testing.T) {
	lastFilter := map[string]*interfaces.VectorFilter{}
	vectors := &fakeVectorStore{
		byCollection: map[string][]interfaces.VectorSearchResult{"visa": {}},
		lastFilter:   lastFilter,
	}
	engine := New(&fakeEmbedder{dims: 4}, vectors, nil)

	_, err := engine.Retrieve(context.Background(), "question", Options{
		UserLevel:          2,
		CollectionOverride: "visa",
		ApplyFilters:       true,
		Limit:              5,
	})
	require.NoError(t, err)

	filter := lastFilter["visa"]
	require.NotNil(t, filter)
	allowed := map[string]bool{}
	for _, v := range filter.In["tier"] {
		allowed[v.(string)] = true
	}
	assert.True(t, allowed[string(types.TierC)])
	assert.True(t, allowed[string(types.TierD)])
	assert.False(t, allowed[string(types.TierA)])
}

func TestRetrieveApplyFiltersFalseMeansNoFilter(t *testing.T) {
	lastFilter := map[string]*interfaces.VectorFilter{}
	vectors := &fakeVectorStore{
		byCollection: map[string][]interfaces.VectorSearchResult{"visa": {}},
		lastFilter:   lastFilter,
	}
	engine := New(&fakeEmbedder{dims: 4}, vectors, nil)

	_, err := engine.Retrieve(context.Background(), "question", Options{
		UserLevel:          1,
		CollectionOverride: "visa",
		ApplyFilters:       false,
		Limit:              5,
	})
	require.NoError(t, err)
	assert.Nil(t, lastFilter["visa"])
}

func TestRetrieveEmptyCollectionReturnsEmptyResultsNotError(t *testing.T) {
	vectors := &fakeVectorStore{byCollection: map[string][]interfaces.VectorSearchResult{"visa": {}}}
	engine := New(&fakeEmbedder{dims: 4}, vectors, nil)

	resp, err := engine.Retrieve(context.Background(), "question", Options{
		UserLevel:          5,
		CollectionOverride: "visa",
		Limit:              5,
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestRetrieveMissingCollectionIsSkippedNotAborted(t *testing.T) {
	vectors := &fakeVectorStore{
		byCollection: map[string][]interfaces.VectorSearchResult{
			"tax": {hit("1", 0.8, "doc-a", 0, "tax passage", nil)},
		},
		missing: map[string]bool{"visa": true},
	}
	engine := &Engine{embedder: &fakeEmbedder{dims: 4}, vectors: vectors}

	hits, used, err := engine.searchCollections(context.Background(), []string{"tax", "visa"}, make([]float32, 4), nil, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "tax", used)
}

func TestRetrieveRerankReordersAndTruncates(t *testing.T) {
	vectors := &fakeVectorStore{byCollection: map[string][]interfaces.VectorSearchResult{
		"visa": {
			hit("1", 0.5, "doc-a", 0, "low raw score but should win rerank", nil),
			hit("2", 0.9, "doc-b", 0, "high raw score but should lose rerank", nil),
			hit("3", 0.6, "doc-c", 0, "middling", nil),
		},
	}}
	reranker := &fakeReranker{scores: map[string]float64{
		"low raw score but should win rerank":    0.99,
		"high raw score but should lose rerank":  0.1,
		"middling":                                0.5,
	}}
	engine := New(&fakeEmbedder{dims: 4}, vectors, reranker)

	resp, err := engine.Retrieve(context.Background(), "question", Options{
		UserLevel:          5,
		CollectionOverride: "visa",
		Limit:              2,
	})
	require.NoError(t, err)
	require.True(t, resp.Reranked)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "low raw score but should win rerank", resp.Results[0].Text)
	assert.Equal(t, "middling", resp.Results[1].Text)
}

func TestDetectConflictsFlagsDifferingStatusWithinSameTopic(t *testing.T) {
	results := []Result{
		{Text: "a", Metadata: map[string]interface{}{"chapter_title": "Ketentuan Umum", "status": "active", "year": 2020}},
		{Text: "b", Metadata: map[string]interface{}{"chapter_title": "Ketentuan Umum", "status": "repealed", "year": 2015}},
	}
	conflicts, notes := detectConflicts(results)
	require.Len(t, conflicts, 2)
	assert.NotEmpty(t, notes)
}

func TestDetectConflictsIgnoresDifferentTopics(t *testing.T) {
	results := []Result{
		{Text: "a", Metadata: map[string]interface{}{"chapter_title": "Ketentuan Umum", "status": "active"}},
		{Text: "b", Metadata: map[string]interface{}{"chapter_title": "Sanksi", "status": "repealed"}},
	}
	conflicts, _ := detectConflicts(results)
	assert.Empty(t, conflicts)
}

func TestDetectConflictsIgnoresTierDifferences(t *testing.T) {
	results := []Result{
		{Text: "a", Metadata: map[string]interface{}{"chapter_title": "Ketentuan Umum", "tier": "A"}},
		{Text: "b", Metadata: map[string]interface{}{"chapter_title": "Ketentuan Umum", "tier": "C"}},
	}
	conflicts, _ := detectConflicts(results)
	assert.Empty(t, conflicts)
}
