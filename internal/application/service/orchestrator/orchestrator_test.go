package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Balizero1987/ayo-sub004/internal/application/service/golden"
	"github.com/Balizero1987/ayo-sub004/internal/application/service/llm"
	"github.com/Balizero1987/ayo-sub004/internal/application/service/memory"
	"github.com/Balizero1987/ayo-sub004/internal/application/service/retrieval"
	"github.com/Balizero1987/ayo-sub004/internal/models/chat"
	"github.com/Balizero1987/ayo-sub004/internal/types"
	"github.com/Balizero1987/ayo-sub004/internal/types/interfaces"
	"github.com/Balizero1987/ayo-sub004/internal/utils"
)

// fakeStore implements interfaces.RelationalStore with in-memory maps, just
// enough surface for golden.Cache, memory.Assembler, and persist().
type fakeStore struct {
	routes  []types.GoldenRoute
	answers map[string]*types.GoldenAnswer
	cluster map[string]*types.QueryCluster
	memory  map[string]*types.UserMemory
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		answers: map[string]*types.GoldenAnswer{},
		cluster: map[string]*types.QueryCluster{},
		memory:  map[string]*types.UserMemory{},
	}
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
func (s *fakeStore) IncrementRouteUsage(ctx context.Context, routeID string) {}
func (s *fakeStore) LookupQueryCluster(ctx context.Context, queryHash string) (*types.QueryCluster, error) {
	if c, ok := s.cluster[queryHash]; ok {
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
func (s *fakeStore) IncrementAnswerUsage(ctx context.Context, clusterID string) {}
func (s *fakeStore) UpsertKGEntities(ctx context.Context, entities []types.KGEntity) error {
	return nil
}
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
	if m, ok := s.memory[userID]; ok {
		return m, nil
	}
	return nil, types.ErrNotFound
}
func (s *fakeStore) UpsertUserMemory(ctx context.Context, mem *types.UserMemory) error {
	s.memory[mem.UserID] = mem
	return nil
}
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

type fakeSessions struct {
	appended []types.SessionMessage
}

func (f *fakeSessions) AppendMessage(ctx context.Context, sessionID string, msg types.SessionMessage, ttl int) error {
	f.appended = append(f.appended, msg)
	return nil
}
func (f *fakeSessions) RecentMessages(ctx context.Context, sessionID string, maxRounds int) ([]types.SessionMessage, error) {
	return nil, nil
}

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
	hits []interfaces.VectorSearchResult
}

func (v *fakeVectorStore) EnsureCollection(ctx context.Context, name string, dim int) error {
	return nil
}
func (v *fakeVectorStore) Upsert(ctx context.Context, collection string, points []interfaces.VectorPoint) error {
	return nil
}
func (v *fakeVectorStore) Search(ctx context.Context, collection string, vector []float32, filter *interfaces.VectorFilter, limit int) ([]interfaces.VectorSearchResult, error) {
	return v.hits, nil
}
func (v *fakeVectorStore) Delete(ctx context.Context, collection string, ids []string) error {
	return nil
}
func (v *fakeVectorStore) Stats(ctx context.Context, collection string) (map[string]interface{}, error) {
	return nil, nil
}

type fakeChat struct {
	responses []*types.ChatResponse
	calls     int
	name      string
}

func (f *fakeChat) Chat(ctx context.Context, messages []chat.Message, opts *chat.ChatOptions) (*types.ChatResponse, error) {
	resp := f.responses[f.calls]
	if f.calls < len(f.responses)-1 {
		f.calls++
	}
	return resp, nil
}
func (f *fakeChat) ChatStream(ctx context.Context, messages []chat.Message, opts *chat.ChatOptions) (<-chan types.StreamResponse, error) {
	return nil, nil
}
func (f *fakeChat) ModelName() string { return f.name }
func (f *fakeChat) ModelID() string   { return f.name }

func ladderWith(resp *types.ChatResponse) *llm.Ladder {
	return llm.NewLadder([]llm.Tier{{Name: "fast-test", Chat: &fakeChat{responses: []*types.ChatResponse{resp}}}})
}

func baseOrchestrator(t *testing.T, answer string) (*Orchestrator, *fakeStore, *fakeSessions) {
	t.Helper()
	store := newFakeStore()
	sessions := &fakeSessions{}
	g := golden.New(store, &fakeEmbedder{dims: 4})
	require.NoError(t, g.Init(context.Background()))
	m := memory.New(store, sessions)
	r := retrieval.New(&fakeEmbedder{dims: 4}, &fakeVectorStore{}, nil)

	ladder := ladderWith(&types.ChatResponse{Content: answer})
	ladders := map[types.ModelTier]*llm.Ladder{
		types.ModelTierFast: ladder,
	}
	o := New(g, m, r, ladders, ladder, sessions, store, nil, Config{})
	return o, store, sessions
}

func TestProcessGreetingSkipsRetrievalAndReturnsAnswer(t *testing.T) {
	o, _, sessions := baseOrchestrator(t, "Hello! How can I help you today?")

	resp, err := o.Process(context.Background(), &types.QueryRequest{
		Query:     "hello",
		UserID:    "user-1",
		SessionID: "session-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello! How can I help you today?", resp.Answer)
	assert.Equal(t, types.ModeGreeting, resp.Mode)
	assert.Empty(t, resp.Sources)
	assert.Len(t, sessions.appended, 2)
}

func TestProcessGoldenExactHitShortCircuitsLLM(t *testing.T) {
	store := newFakeStore()
	hash := utils.NormalizedMD5("how much is investor kitas?")
	store.cluster[hash] = &types.QueryCluster{ClusterID: "c1", QueryHash: hash}
	store.answers["c1"] = &types.GoldenAnswer{
		ClusterID: "c1",
		Answer:    "KITAS costs roughly 15 million IDR per year.",
		Sources:   types.StringArray{"Immigration Law 2011"},
	}
	g := golden.New(store, &fakeEmbedder{dims: 4})
	require.NoError(t, g.Init(context.Background()))
	m := memory.New(store, nil)
	r := retrieval.New(&fakeEmbedder{dims: 4}, &fakeVectorStore{}, nil)
	ladder := ladderWith(&types.ChatResponse{Content: "should not be used"})
	o := New(g, m, r, map[types.ModelTier]*llm.Ladder{types.ModelTierFast: ladder}, ladder, nil, store, nil, Config{})

	resp, err := o.Process(context.Background(), &types.QueryRequest{
		Query: "how much is investor kitas?",
	})
	require.NoError(t, err)
	assert.Equal(t, "KITAS costs roughly 15 million IDR per year.", resp.Answer)
	assert.Equal(t, "golden-cache", resp.ModelUsed)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "Immigration Law 2011", resp.Sources[0].Title)
}

func TestProcessBusinessQueryRunsRetrievalAndCitesPassages(t *testing.T) {
	store := newFakeStore()
	g := golden.New(store, &fakeEmbedder{dims: 4})
	require.NoError(t, g.Init(context.Background()))
	m := memory.New(store, nil)
	vectors := &fakeVectorStore{hits: []interfaces.VectorSearchResult{
		{ID: "1", Score: 0.9, Payload: map[string]interface{}{
			"text": "A KITAS application requires a sponsor letter.", "parent_id": "doc-1", "chunk_index": 0,
		}},
	}}
	r := retrieval.New(&fakeEmbedder{dims: 4}, vectors, nil)
	ladder := ladderWith(&types.ChatResponse{Content: "Per [1], you need a sponsor letter."})
	o := New(g, m, r, map[types.ModelTier]*llm.Ladder{
		types.ModelTierFast: ladder,
	}, ladder, nil, store, nil, Config{})

	resp, err := o.Process(context.Background(), &types.QueryRequest{
		Query:     "what is kitas",
		UserLevel: 5,
	})
	require.NoError(t, err)
	assert.Contains(t, resp.Answer, "sponsor letter")
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "doc-1", resp.Sources[0].DocID)
}

func TestProcessLLMFailureReturnsLocalizedFallback(t *testing.T) {
	store := newFakeStore()
	g := golden.New(store, &fakeEmbedder{dims: 4})
	require.NoError(t, g.Init(context.Background()))
	m := memory.New(store, nil)
	r := retrieval.New(&fakeEmbedder{dims: 4}, &fakeVectorStore{}, nil)
	o := New(g, m, r, map[types.ModelTier]*llm.Ladder{}, nil, nil, store, nil, Config{})

	resp, err := o.Process(context.Background(), &types.QueryRequest{
		Query:            "ciao",
		LanguageOverride: types.LanguageIT,
	})
	require.NoError(t, err)
	assert.Contains(t, resp.Degraded, "llm")
	assert.Contains(t, resp.Answer, "modello linguistico")
}
