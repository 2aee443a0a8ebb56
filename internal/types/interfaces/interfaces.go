// Package interfaces declares the seams between C1-C13 so that each
// component depends on an abstraction, not a concrete sibling package —
// the same role WeKnora's internal/types/interfaces plays for its
// ModelService/MessageService collaborators.
package interfaces

import (
	"context"

	"github.com/Balizero1987/ayo-sub004/internal/types"
)

type userLevelKey struct{}

// WithUserLevel attaches the caller's access level to ctx so that a tool
// executed mid-conversation (long after the request's own auth check ran)
// can't surface content above the caller's tier. Set once per request by
// the orchestrator; read by any Tool that gates on types.AllowedTiersForLevel.
func WithUserLevel(ctx context.Context, level int) context.Context {
	return context.WithValue(ctx, userLevelKey{}, level)
}

// UserLevelFromContext reads back the level set by WithUserLevel, defaulting
// to the most restrictive tier if the caller forgot to set one.
func UserLevelFromContext(ctx context.Context) int {
	level, _ := ctx.Value(userLevelKey{}).(int)
	return level
}

// Embedder is C1.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	ModelName() string
	Provider() string
}

// VectorPoint is one unit of storage in the vector gateway.
type VectorPoint struct {
	ID      string
	Vector  []float32
	Payload map[string]interface{}
}

// VectorFilter is the closed filter algebra from §4.2: AND of equality,
// set-membership, and numeric-range clauses.
type VectorFilter struct {
	Equals   map[string]interface{}
	In       map[string][]interface{}
	RangeGTE map[string]float64
	RangeLTE map[string]float64
}

// VectorSearchResult is one hit from a similarity search.
type VectorSearchResult struct {
	ID       string
	Score    float64
	Payload  map[string]interface{}
}

// VectorStore is C2.
type VectorStore interface {
	EnsureCollection(ctx context.Context, name string, dim int) error
	Upsert(ctx context.Context, collection string, points []VectorPoint) error
	Search(ctx context.Context, collection string, vector []float32, filter *VectorFilter, limit int) ([]VectorSearchResult, error)
	Delete(ctx context.Context, collection string, ids []string) error
	Stats(ctx context.Context, collection string) (map[string]interface{}, error)
}

// RelationalStore is C3.
type RelationalStore interface {
	UpsertDocument(ctx context.Context, doc *types.Document) error
	GetDocument(ctx context.Context, id string) (*types.Document, error)
	GetDocumentByDocumentID(ctx context.Context, documentID string) (*types.Document, error)

	ListGoldenRoutes(ctx context.Context) ([]types.GoldenRoute, error)
	IncrementRouteUsage(ctx context.Context, routeID string)

	LookupQueryCluster(ctx context.Context, queryHash string) (*types.QueryCluster, error)
	GetGoldenAnswer(ctx context.Context, clusterID string) (*types.GoldenAnswer, error)
	IncrementAnswerUsage(ctx context.Context, clusterID string)

	UpsertKGEntities(ctx context.Context, entities []types.KGEntity) error
	UpsertKGRelationships(ctx context.Context, rels []types.KGRelationship) error
	EntitiesRelatedToUser(ctx context.Context, userID string, limit int) ([]types.KGEntity, error)
	EntitiesByNameSimilarity(ctx context.Context, query string, limit int) ([]types.KGEntity, error)

	GetUserMemory(ctx context.Context, userID string) (*types.UserMemory, error)
	UpsertUserMemory(ctx context.Context, mem *types.UserMemory) error

	UpsertSession(ctx context.Context, session *types.ConversationSession) error
	GetSession(ctx context.Context, sessionID string) (*types.ConversationSession, error)

	InsertRating(ctx context.Context, rating *types.ConversationRating) error
	GetRating(ctx context.Context, ratingID string) (*types.ConversationRating, error)
}

// SessionStore is the TTL-bounded key-value store backing conversation
// message history (Redis in production).
type SessionStore interface {
	AppendMessage(ctx context.Context, sessionID string, msg types.SessionMessage, ttl int) error
	RecentMessages(ctx context.Context, sessionID string, maxRounds int) ([]types.SessionMessage, error)
}

// ToolCall is a uniform tool-use block surfaced by the LLM adapter.
type ToolCall struct {
	ID    string
	Name  string
	Input map[string]interface{}
}

// ToolResult is fed back to the LLM adapter after execution.
type ToolResult struct {
	ToolUseID string
	Content   string
	IsError   bool
}

// Tool is one agent-executable capability (§4.13 tool loop).
type Tool interface {
	Name() string
	Description() string
	Schema() map[string]interface{}
	Execute(ctx context.Context, input map[string]interface{}) (string, error)
}

// ToolExecutor dispatches a ToolCall to the matching registered Tool.
type ToolExecutor interface {
	Execute(ctx context.Context, call ToolCall) ToolResult
	Tools() []Tool
}

// Reranker is the optional C10 rerank stage.
type Reranker interface {
	Rerank(ctx context.Context, query string, docs []string) ([]float64, error)
}
