package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Balizero1987/ayo-sub004/internal/logger"
	"github.com/Balizero1987/ayo-sub004/internal/types"
	"github.com/Balizero1987/ayo-sub004/internal/types/interfaces"
)

// store is the concrete C3 implementation over a single gorm.DB pool.
type store struct {
	db *gorm.DB
}

// NewStore wraps an open *gorm.DB as the relational store gateway.
func NewStore(db *gorm.DB) interfaces.RelationalStore {
	return &store{db: db}
}

func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("postgres: %s: %w", op, types.ErrNotFound)
	}
	if isPoolExhausted(err) {
		return fmt.Errorf("postgres: %s: %w: %v", op, types.ErrPoolExhausted, err)
	}
	return fmt.Errorf("postgres: %s: %w: %v", op, types.ErrTransport, err)
}

func isPoolExhausted(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "too many connections") || strings.Contains(msg, "pool exhausted") ||
		strings.Contains(msg, "timeout: context deadline exceeded")
}

// isMissingColumn reports whether err is Postgres' "column does not exist",
// which fires when the running binary is newer than the applied schema.
func isMissingColumn(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "column") && strings.Contains(strings.ToLower(err.Error()), "does not exist")
}

// legacyDocumentColumns is the column set every schema version since the
// original migration has carried. It backs the forward-compatibility
// fallback in GetDocument/GetDocumentByDocumentID (§4.3): a binary ahead of
// its schema degrades to these columns instead of failing the query.
var legacyDocumentColumns = []string{
	"id", "document_id", "type", "title", "year", "number", "topic",
	"status", "full_text", "summary", "char_count", "pasal_count",
	"metadata", "text_fingerprint", "is_incomplete", "ocr_quality_score",
	"needs_reextract", "created_at", "updated_at",
}

// --- documents ---

func (s *store) UpsertDocument(ctx context.Context, doc *types.Document) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(doc).Error
	return wrapErr("upsert document", err)
}

func (s *store) GetDocument(ctx context.Context, id string) (*types.Document, error) {
	var doc types.Document
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error
	if isMissingColumn(err) {
		err = s.db.WithContext(ctx).Select(legacyDocumentColumns).Where("id = ?", id).First(&doc).Error
	}
	if err != nil {
		return nil, wrapErr("get document", err)
	}
	return &doc, nil
}

func (s *store) GetDocumentByDocumentID(ctx context.Context, documentID string) (*types.Document, error) {
	var doc types.Document
	err := s.db.WithContext(ctx).Where("document_id = ?", documentID).First(&doc).Error
	if isMissingColumn(err) {
		err = s.db.WithContext(ctx).Select(legacyDocumentColumns).Where("document_id = ?", documentID).First(&doc).Error
	}
	if err != nil {
		return nil, wrapErr("get document by document_id", err)
	}
	return &doc, nil
}

// --- golden routes ---

func (s *store) ListGoldenRoutes(ctx context.Context) ([]types.GoldenRoute, error) {
	var routes []types.GoldenRoute
	err := s.db.WithContext(ctx).Find(&routes).Error
	if err != nil {
		return nil, wrapErr("list golden routes", err)
	}
	return routes, nil
}

func (s *store) IncrementRouteUsage(ctx context.Context, routeID string) {
	err := s.db.WithContext(ctx).Model(&types.GoldenRoute{}).
		Where("route_id = ?", routeID).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error
	if err != nil {
		logger.Warnf(ctx, "postgres: increment route usage for %s failed: %v", routeID, err)
	}
}

// --- golden answers ---

func (s *store) LookupQueryCluster(ctx context.Context, queryHash string) (*types.QueryCluster, error) {
	var cluster types.QueryCluster
	err := s.db.WithContext(ctx).Where("query_hash = ?", queryHash).First(&cluster).Error
	if err != nil {
		return nil, wrapErr("lookup query cluster", err)
	}
	return &cluster, nil
}

func (s *store) GetGoldenAnswer(ctx context.Context, clusterID string) (*types.GoldenAnswer, error) {
	var answer types.GoldenAnswer
	err := s.db.WithContext(ctx).Where("cluster_id = ?", clusterID).First(&answer).Error
	if err != nil {
		return nil, wrapErr("get golden answer", err)
	}
	return &answer, nil
}

func (s *store) IncrementAnswerUsage(ctx context.Context, clusterID string) {
	err := s.db.WithContext(ctx).Model(&types.GoldenAnswer{}).
		Where("cluster_id = ?", clusterID).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error
	if err != nil {
		logger.Warnf(ctx, "postgres: increment answer usage for %s failed: %v", clusterID, err)
	}
}

// --- knowledge graph ---

func (s *store) UpsertKGEntities(ctx context.Context, entities []types.KGEntity) error {
	if len(entities) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).CreateInBatches(entities, 100).Error
	return wrapErr("upsert kg entities", err)
}

func (s *store) UpsertKGRelationships(ctx context.Context, rels []types.KGRelationship) error {
	if len(rels) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source_entity_id"}, {Name: "target_entity_id"}, {Name: "relationship_type"}},
		UpdateAll: true,
	}).CreateInBatches(rels, 100).Error
	return wrapErr("upsert kg relationships", err)
}

func (s *store) EntitiesRelatedToUser(ctx context.Context, userID string, limit int) ([]types.KGEntity, error) {
	var entities []types.KGEntity
	err := s.db.WithContext(ctx).
		Joins("JOIN kg_relationships ON kg_relationships.target_entity_id = kg_entities.id").
		Where("kg_relationships.source_entity_id = ?", userID).
		Limit(limit).
		Find(&entities).Error
	if err != nil {
		return nil, wrapErr("entities related to user", err)
	}
	return entities, nil
}

func (s *store) EntitiesByNameSimilarity(ctx context.Context, query string, limit int) ([]types.KGEntity, error) {
	var entities []types.KGEntity
	like := "%" + strings.ToLower(query) + "%"
	err := s.db.WithContext(ctx).
		Where("LOWER(name) LIKE ?", like).
		Limit(limit).
		Find(&entities).Error
	if err != nil {
		return nil, wrapErr("entities by name similarity", err)
	}
	return entities, nil
}

// --- user memory ---

func (s *store) GetUserMemory(ctx context.Context, userID string) (*types.UserMemory, error) {
	var mem types.UserMemory
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&mem).Error
	if err != nil {
		return nil, wrapErr("get user memory", err)
	}
	return &mem, nil
}

func (s *store) UpsertUserMemory(ctx context.Context, mem *types.UserMemory) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(mem).Error
	return wrapErr("upsert user memory", err)
}

// --- sessions ---

func (s *store) UpsertSession(ctx context.Context, session *types.ConversationSession) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		UpdateAll: true,
	}).Create(session).Error
	return wrapErr("upsert session", err)
}

func (s *store) GetSession(ctx context.Context, sessionID string) (*types.ConversationSession, error) {
	var session types.ConversationSession
	err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&session).Error
	if err != nil {
		return nil, wrapErr("get session", err)
	}
	return &session, nil
}

// --- ratings ---

func (s *store) InsertRating(ctx context.Context, rating *types.ConversationRating) error {
	err := s.db.WithContext(ctx).Create(rating).Error
	return wrapErr("insert rating", err)
}

func (s *store) GetRating(ctx context.Context, ratingID string) (*types.ConversationRating, error) {
	var rating types.ConversationRating
	err := s.db.WithContext(ctx).Where("rating_id = ?", ratingID).First(&rating).Error
	if err != nil {
		return nil, wrapErr("get rating", err)
	}
	return &rating, nil
}
