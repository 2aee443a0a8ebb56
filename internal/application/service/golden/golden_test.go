package golden

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Balizero1987/ayo-sub004/internal/types"
)

type fakeEmbedder struct {
	vectors map[string][]float32
	dims    int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return make([]float32, f.dims), nil
}
func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
func (f *fakeEmbedder) Dimensions() int   { return f.dims }
func (f *fakeEmbedder) ModelName() string { return "fake" }
func (f *fakeEmbedder) Provider() string  { return "fake" }

type fakeStore struct {
	mu            sync.Mutex
	routes        []types.GoldenRoute
	clusters      map[string]*types.QueryCluster
	answers       map[string]*types.GoldenAnswer
	routeUsage    map[string]int
	answerUsage   map[string]int
	usageWG       *sync.WaitGroup
}

func (s *fakeStore) UpsertDocument(ctx context.Context, doc *types.Document) error { return nil }
func (s *fakeStore) GetDocument(ctx context.Context, id string) (*types.Document, error) {
	return nil, types.ErrNotFound
}
func (s *fakeStore) GetDocumentByDocumentID(ctx context.Context, documentID string) (*types.Document, error) {
	return nil, types.ErrNotFound
}
func (s *fakeStore) ListGoldenRoutes(ctx context.Context) ([]types.GoldenRoute, error) {
	return s.routes, nil
}
func (s *fakeStore) IncrementRouteUsage(ctx context.Context, routeID string) {
	s.mu.Lock()
	s.routeUsage[routeID]++
	s.mu.Unlock()
	if s.usageWG != nil {
		s.usageWG.Done()
	}
}
func (s *fakeStore) LookupQueryCluster(ctx context.Context, queryHash string) (*types.QueryCluster, error) {
	if c, ok := s.clusters[queryHash]; ok {
		return c, nil
	}
	return nil, types.ErrNotFound
}
func (s *fakeStore) GetGoldenAnswer(ctx context.Context, clusterID string) (*types.GoldenAnswer, error) {
	if a, ok := s.answers[clusterID]; ok {
		return a, nil
	}
	return nil, types.ErrNotFound
}
func (s *fakeStore) IncrementAnswerUsage(ctx context.Context, clusterID string) {
	s.mu.Lock()
	s.answerUsage[clusterID]++
	s.mu.Unlock()
	if s.usageWG != nil {
		s.usageWG.Done()
	}
}
func (s *fakeStore) UpsertKGEntities(ctx context.Context, entities []types.KGEntity) error { return nil }
func (s *fakeStore) UpsertKGRelationships(ctx context.Context, rels []types.KGRelationship) error {
	return nil
}
func (s *fakeStore) EntitiesRelatedToUser(ctx context.Context, userID string, limit int) ([]types.KGEntity, error) {
	return nil, nil
}
func (s *fakeStore) EntitiesByNameSimilarity(ctx context.Context, query string, limit int) ([]types.KGEntity, error) {
	return nil, nil
}
func (s *fakeStore) GetUserMemory(ctx context.Context, userID string) (*types.UserMemory, error) {
	return nil, types.ErrNotFound
}
func (s *fakeStore) UpsertUserMemory(ctx context.Context, mem *types.UserMemory) error { return nil }
func (s *fakeStore) UpsertSession(ctx context.Context, session *types.ConversationSession) error {
	return nil
}
func (s *fakeStore) GetSession(ctx context.Context, sessionID string) (*types.ConversationSession, error) {
	return nil, types.ErrNotFound
}
func (s *fakeStore) InsertRating(ctx context.Context, rating *types.ConversationRating) error {
	return nil
}
func (s *fakeStore) GetRating(ctx context.Context, ratingID string) (*types.ConversationRating, error) {
	return nil, types.ErrNotFound
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		clusters:    map[string]*types.QueryCluster{},
		answers:     map[string]*types.GoldenAnswer{},
		routeUsage:  map[string]int{},
		answerUsage: map[string]int{},
	}
}

func TestLookupExactMatch(t *testing.T) {
	store := newFakeStore()
	store.clusters["1d1e35277191d66b8b56beeef852ce4a"] = &types.QueryCluster{ClusterID: "cluster-1", QueryText: "What is KITAS?"}
	store.answers["cluster-1"] = &types.GoldenAnswer{ClusterID: "cluster-1", Answer: "KITAS is a temporary stay permit.", Confidence: 0.99}
	store.usageWG = &sync.WaitGroup{}
	store.usageWG.Add(1)

	cache := New(store, nil)
	result, ok := cache.Lookup(context.Background(), "what is kitas?")
	require.True(t, ok)
	assert.Equal(t, MatchExact, result.Kind)
	assert.Equal(t, "KITAS is a temporary stay permit.", result.Answer)
	store.usageWG.Wait()
	assert.Equal(t, 1, store.answerUsage["cluster-1"])
}

func TestLookupExactMissFallsThroughToSemanticMiss(t *testing.T) {
	store := newFakeStore()
	cache := New(store, nil)
	result, ok := cache.Lookup(context.Background(), "something never seen before")
	assert.False(t, ok)
	assert.Nil(t, result)
}

func TestLookupSemanticMatchAboveThreshold(t *testing.T) {
	store := newFakeStore()
	store.routes = []types.GoldenRoute{
		{RouteID: "route-1", CanonicalQuery: "What is KITAS?", Collections: types.StringArray{"visa"}},
	}
	store.usageWG = &sync.WaitGroup{}
	store.usageWG.Add(1)

	embedder := &fakeEmbedder{dims: 3, vectors: map[string][]float32{
		"What is KITAS?":       {1, 0, 0},
		"what is kitas exactly": {0.99, 0.01, 0},
	}}

	cache := New(store, embedder)
	require.NoError(t, cache.Init(context.Background()))

	result, ok := cache.Lookup(context.Background(), "what is kitas exactly")
	require.True(t, ok)
	assert.Equal(t, MatchSemantic, result.Kind)
	assert.Equal(t, "route-1", result.RouteID)
	assert.GreaterOrEqual(t, result.Score, semanticThreshold)
	store.usageWG.Wait()
	assert.Equal(t, 1, store.routeUsage["route-1"])
}

func TestLookupSemanticBelowThresholdIsMiss(t *testing.T) {
	store := newFakeStore()
	store.routes = []types.GoldenRoute{
		{RouteID: "route-1", CanonicalQuery: "What is KITAS?", Collections: types.StringArray{"visa"}},
	}
	embedder := &fakeEmbedder{dims: 3, vectors: map[string][]float32{
		"What is KITAS?":        {1, 0, 0},
		"completely unrelated topic": {0, 1, 0},
	}}

	cache := New(store, embedder)
	require.NoError(t, cache.Init(context.Background()))

	result, ok := cache.Lookup(context.Background(), "completely unrelated topic")
	assert.False(t, ok)
	assert.Nil(t, result)
}

func TestRefreshIfStaleRegeneratesOnCountMismatch(t *testing.T) {
	store := newFakeStore()
	store.routes = []types.GoldenRoute{
		{RouteID: "route-1", CanonicalQuery: "What is KITAS?", Collections: types.StringArray{"visa"}},
	}
	embedder := &fakeEmbedder{dims: 2}
	cache := New(store, embedder)
	require.NoError(t, cache.Init(context.Background()))

	store.routes = append(store.routes, types.GoldenRoute{RouteID: "route-2", CanonicalQuery: "What is KBLI?", Collections: types.StringArray{"KBLI"}})
	require.NoError(t, cache.RefreshIfStale(context.Background(), len(store.routes)))

	cache.mu.RLock()
	defer cache.mu.RUnlock()
	assert.Len(t, cache.routes, 2)
}
