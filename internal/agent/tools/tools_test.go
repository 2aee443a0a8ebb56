package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Balizero1987/ayo-sub004/internal/application/service/retrieval"
	"github.com/Balizero1987/ayo-sub004/internal/types/interfaces"
)

type fakeEmbedder struct{ dims int }

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
	hits map[string][]interfaces.VectorSearchResult
}

func (v *fakeVectorStore) EnsureCollection(ctx context.Context, name string, dim int) error {
	return nil
}
func (v *fakeVectorStore) Upsert(ctx context.Context, collection string, points []interfaces.VectorPoint) error {
	return nil
}
func (v *fakeVectorStore) Search(ctx context.Context, collection string, vector []float32, filter *interfaces.VectorFilter, limit int) ([]interfaces.VectorSearchResult, error) {
	return v.hits[collection], nil
}
func (v *fakeVectorStore) Delete(ctx context.Context, collection string, ids []string) error {
	return nil
}
func (v *fakeVectorStore) Stats(ctx context.Context, collection string) (map[string]interface{}, error) {
	return nil, nil
}

func TestSequentialThinkingToolRecordsAndReportsIncomplete(t *testing.T) {
	tool := NewSequentialThinkingTool()
	out, err := tool.Execute(context.Background(), map[string]interface{}{
		"thought":             "First, check whether the applicant holds a valid sponsor.",
		"thought_number":      float64(1),
		"total_thoughts":      float64(3),
		"next_thought_needed": true,
	})
	require.NoError(t, err)
	assert.Contains(t, out, "1/3")
	assert.Contains(t, out, "Continue reasoning")
	require.Len(t, tool.thoughtHistory, 1)
}

func TestSequentialThinkingToolRejectsEmptyThought(t *testing.T) {
	tool := NewSequentialThinkingTool()
	_, err := tool.Execute(context.Background(), map[string]interface{}{
		"thought_number":      float64(1),
		"total_thoughts":      float64(1),
		"next_thought_needed": false,
	})
	assert.Error(t, err)
}

func TestKBLILookupToolFormatsMatches(t *testing.T) {
	vectors := &fakeVectorStore{hits: map[string][]interfaces.VectorSearchResult{
		"KBLI": {
			{ID: "1", Score: 0.9, Payload: map[string]interface{}{
				"text": "Computer programming, consultancy, and related activities.",
				"title": "KBLI 62010", "parent_id": "doc-1", "chunk_index": 0,
			}},
		},
	}}
	engine := retrieval.New(&fakeEmbedder{dims: 4}, vectors, nil)
	tool := NewKBLILookupTool(engine)

	out, err := tool.Execute(interfaces.WithUserLevel(context.Background(), 5), map[string]interface{}{"activity_or_code": "software development"})
	require.NoError(t, err)
	assert.Contains(t, out, "KBLI 62010")
	assert.Contains(t, out, "Computer programming")
}

func TestKBLILookupToolRejectsEmptyQuery(t *testing.T) {
	engine := retrieval.New(&fakeEmbedder{dims: 4}, &fakeVectorStore{}, nil)
	tool := NewKBLILookupTool(engine)
	_, err := tool.Execute(context.Background(), map[string]interface{}{})
	assert.Error(t, err)
}

func TestLegalCitationLookupToolReturnsNoMatchMessage(t *testing.T) {
	engine := retrieval.New(&fakeEmbedder{dims: 4}, &fakeVectorStore{hits: map[string][]interfaces.VectorSearchResult{}}, nil)
	tool := NewLegalCitationLookupTool(engine)

	out, err := tool.Execute(interfaces.WithUserLevel(context.Background(), 5), map[string]interface{}{
		"citation_or_topic": "UU No. 11 Tahun 2020 Pasal 5",
		"collection":        "legal-unified",
	})
	require.NoError(t, err)
	assert.Equal(t, "No matching passages found.", out)
}

func TestRegistryDispatchesByNameAndReportsUnknownTool(t *testing.T) {
	engine := retrieval.New(&fakeEmbedder{dims: 4}, &fakeVectorStore{}, nil)
	reg := NewRegistry(engine)

	assert.Len(t, reg.Tools(), 3)

	result := reg.Execute(context.Background(), interfaces.ToolCall{
		ID:   "call-1",
		Name: "does_not_exist",
	})
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content, "unknown tool")
}
