package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// JSON is a GORM-friendly jsonb column type, mirroring the teacher's
// Chunk.Metadata pattern (types.JSON(bytes)).
type JSON []byte

func (j JSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return []byte(j), nil
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*j = JSON(v)
		return nil
	case string:
		*j = JSON(v)
		return nil
	default:
		return errors.New("types.JSON: unsupported scan source")
	}
}

// StringArray is a simple text[] column helper for Postgres driven by GORM's
// native []string support on the postgres driver; kept as an alias so
// call-sites read domain-first (golden route collections, profile facts).
type StringArray []string

// Document is the parent-document row (§3, §6 parent_documents table).
type Document struct {
	ID              string         `gorm:"column:id;primaryKey" json:"id"`
	DocumentID      string         `gorm:"column:document_id" json:"document_id"`
	Type            DocumentType   `gorm:"column:type" json:"type"`
	Title           string         `gorm:"column:title" json:"title"`
	Year            string         `gorm:"column:year" json:"year"`
	Number          string         `gorm:"column:number" json:"number"`
	Topic           string         `gorm:"column:topic" json:"topic"`
	Status          DocumentStatus `gorm:"column:status" json:"status"`
	FullText        string         `gorm:"column:full_text" json:"full_text"`
	Summary         string         `gorm:"column:summary" json:"summary"`
	CharCount       int            `gorm:"column:char_count" json:"char_count"`
	// PasalCount is overloaded: legal parents store the article (Pasal)
	// count here, but some ingester paths store a plain chunk_count for
	// non-legal parents. Preserved deliberately (see DESIGN.md open
	// question); do not assume semantics without checking Type.
	PasalCount       int       `gorm:"column:pasal_count" json:"pasal_count"`
	Metadata         JSON      `gorm:"column:metadata" json:"metadata,omitempty"`
	TextFingerprint  string    `gorm:"column:text_fingerprint" json:"text_fingerprint"`
	IsIncomplete     bool      `gorm:"column:is_incomplete" json:"is_incomplete"`
	OCRQualityScore  float64   `gorm:"column:ocr_quality_score" json:"ocr_quality_score"`
	NeedsReextract   bool      `gorm:"column:needs_reextract" json:"needs_reextract"`
	ContextualSummary string   `gorm:"column:contextual_summary" json:"contextual_summary,omitempty"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Document) TableName() string { return "parent_documents" }

// Chunk is the hierarchical chapter/article chunk record (§3). It never
// holds parent back-pointers beyond ids, per the redesign note in §9 —
// siblings/ancestors are resolved through the relational store, not
// embedded as live references.
type Chunk struct {
	ID               string   `json:"id"`
	Text             string   `json:"text"`
	DocumentID       string   `json:"document_id"`
	ChapterID        string   `json:"chapter_id,omitempty"`
	ArticleID        string   `json:"article_id,omitempty"`
	HierarchyPath    string   `json:"hierarchy_path"`
	HierarchyLevel   HierarchyLevel `json:"hierarchy_level"`
	ParentChunkIDs   []string `json:"parent_chunk_ids,omitempty"`
	SiblingChunkIDs  []string `json:"sibling_chunk_ids,omitempty"`
	ChapterTitle     string   `json:"chapter_title,omitempty"`
	Metadata         JSON     `json:"metadata,omitempty"`
	ClauseNumbers    []string `json:"clause_numbers,omitempty"`
	ClauseSeqValid   bool     `json:"clause_sequence_valid"`
	ChunkIndex       int      `json:"chunk_index"`
	TokenCount       int      `json:"token_count,omitempty"`
}

// DocumentMetadata/SetDocumentMetadata mirror the teacher's Chunk metadata
// accessors, retargeted to carry HyDE questions instead of FAQ structures.
type DocumentChunkMetadata struct {
	HydeQuestions []string `json:"hyde_questions,omitempty"`
	SourceFile    string   `json:"source_file,omitempty"`
	Title         string   `json:"title,omitempty"`
	Tier          Tier     `json:"tier,omitempty"`
	MinLevel      int      `json:"min_level,omitempty"`
	Language      Language `json:"language,omitempty"`
}

func (c *Chunk) DocumentMetadata() (*DocumentChunkMetadata, error) {
	if c == nil || len(c.Metadata) == 0 {
		return nil, nil
	}
	var meta DocumentChunkMetadata
	if err := json.Unmarshal(c.Metadata, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (c *Chunk) SetDocumentMetadata(meta *DocumentChunkMetadata) error {
	if c == nil {
		return nil
	}
	if meta == nil {
		c.Metadata = nil
		return nil
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	c.Metadata = JSON(b)
	return nil
}

// GoldenRoute maps a canonical query to target collections (§3).
type GoldenRoute struct {
	RouteID         string      `gorm:"column:route_id;primaryKey" json:"route_id"`
	CanonicalQuery  string      `gorm:"column:canonical_query" json:"canonical_query"`
	Collections     StringArray `gorm:"column:collections;type:text[]" json:"collections"`
	DocumentIDs     StringArray `gorm:"column:document_ids;type:text[]" json:"document_ids,omitempty"`
	RoutingHints    JSON        `gorm:"column:routing_hints" json:"routing_hints,omitempty"`
	UsageCount      int64       `gorm:"column:usage_count" json:"usage_count"`
	Language        Language    `gorm:"column:language" json:"language,omitempty"`
	CreatedAt       time.Time   `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (GoldenRoute) TableName() string { return "golden_routes" }

// GoldenAnswer is a canonical question/answer pair (§3).
type GoldenAnswer struct {
	ClusterID         string      `gorm:"column:cluster_id;primaryKey" json:"cluster_id"`
	CanonicalQuestion string      `gorm:"column:canonical_question" json:"canonical_question"`
	Answer            string      `gorm:"column:answer" json:"answer"`
	Sources           StringArray `gorm:"column:sources;type:text[]" json:"sources,omitempty"`
	Confidence        float64     `gorm:"column:confidence" json:"confidence"`
	UsageCount        int64       `gorm:"column:usage_count" json:"usage_count"`
}

func (GoldenAnswer) TableName() string { return "golden_answers" }

// QueryCluster maps a normalized-question hash to a golden-answer cluster.
type QueryCluster struct {
	ClusterID string `gorm:"column:cluster_id" json:"cluster_id"`
	QueryHash string `gorm:"column:query_hash;primaryKey" json:"query_hash"`
	QueryText string `gorm:"column:query_text" json:"query_text"`
	Frequency int64  `gorm:"column:frequency" json:"frequency"`
}

func (QueryCluster) TableName() string { return "query_clusters" }

// KGEntity is a knowledge-graph node (§3).
type KGEntity struct {
	ID   string `gorm:"column:id;primaryKey" json:"id"`
	Name string `gorm:"column:name" json:"name"`
	Type string `gorm:"column:type" json:"type"`
}

func (KGEntity) TableName() string { return "kg_entities" }

// KGRelationship is a knowledge-graph edge (§3), unique on (source, target, type).
type KGRelationship struct {
	SourceEntityID   string `gorm:"column:source_entity_id;primaryKey" json:"source_entity_id"`
	TargetEntityID   string `gorm:"column:target_entity_id;primaryKey" json:"target_entity_id"`
	RelationshipType string `gorm:"column:relationship_type;primaryKey" json:"relationship_type"`
	Properties       JSON   `gorm:"column:properties" json:"properties,omitempty"`
}

func (KGRelationship) TableName() string { return "kg_relationships" }

// UserMemory is the per-user profile/summary/counters row (§3).
type UserMemory struct {
	UserID       string      `gorm:"column:user_id;primaryKey" json:"user_id"`
	ProfileFacts StringArray `gorm:"column:profile_facts;type:text[]" json:"profile_facts,omitempty"`
	Summary      string      `gorm:"column:summary" json:"summary"`
	Counters     JSON        `gorm:"column:counters" json:"counters,omitempty"`
	UpdatedAt    time.Time   `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (UserMemory) TableName() string { return "user_memory" }

// MemoryCounters is the decoded shape of UserMemory.Counters.
type MemoryCounters struct {
	Conversations int64 `json:"conversations"`
	Searches      int64 `json:"searches"`
	Tasks         int64 `json:"tasks"`
}

// ConversationSession is the session row (§3); message history itself lives
// in the TTL-bounded key-value store, not in this struct.
type ConversationSession struct {
	SessionID    string    `gorm:"column:session_id;primaryKey" json:"session_id"`
	UserID       string    `gorm:"column:user_id" json:"user_id"`
	LastActivity time.Time `gorm:"column:last_activity" json:"last_activity"`
	ExpiresAt    time.Time `gorm:"column:expires_at" json:"expires_at"`
	Metadata     JSON      `gorm:"column:metadata" json:"metadata,omitempty"`
}

func (ConversationSession) TableName() string { return "sessions" }

// SessionMessage is one turn in a session's bounded message history.
type SessionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ConversationRating is a feedback row (§6).
type ConversationRating struct {
	RatingID     string       `gorm:"column:rating_id;primaryKey" json:"rating_id"`
	SessionID    string       `gorm:"column:session_id" json:"session_id"`
	UserID       string       `gorm:"column:user_id" json:"user_id,omitempty"`
	Rating       int          `gorm:"column:rating" json:"rating"`
	FeedbackType FeedbackType `gorm:"column:feedback_type" json:"feedback_type,omitempty"`
	FeedbackText string       `gorm:"column:feedback_text" json:"feedback_text,omitempty"`
	TurnCount    int          `gorm:"column:turn_count" json:"turn_count,omitempty"`
	CreatedAt    time.Time    `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (ConversationRating) TableName() string { return "conversation_ratings" }
