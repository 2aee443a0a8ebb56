package types

// This file declares every wire DTO exactly once (REDESIGN FLAGS:
// "schema-first DTOs"), so handlers and the orchestrator share a single
// source of truth instead of re-deriving shapes ad hoc.

// QueryRequest is the query-endpoint request body (§6).
type QueryRequest struct {
	Query              string         `json:"query" binding:"required"`
	UserEmail          string         `json:"user_email,omitempty"`
	SessionID          string         `json:"session_id,omitempty"`
	LanguageOverride   Language       `json:"language_override,omitempty"`
	ResponseFormat     ResponseFormat `json:"response_format,omitempty"`
	DomainHint         string         `json:"domain_hint,omitempty"`
	CollectionOverride string         `json:"collection_override,omitempty"`
	ContextDocs        []string       `json:"context_docs,omitempty"`

	// UserID and UserLevel are populated by the surrounding auth layer,
	// not bound from the request body.
	UserID    string `json:"-"`
	UserLevel int    `json:"-"`
}

// SourceRef is one cited passage in a QueryResponse.
type SourceRef struct {
	DocID      string  `json:"doc_id"`
	Title      string  `json:"title"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"score"`
}

// ConflictNote describes a detected contradiction between retrieved passages.
type ConflictNote struct {
	Description     string `json:"description"`
	ResolutionNotes string `json:"resolution_notes,omitempty"`
}

// QueryResponse is the query-endpoint response body (§6).
type QueryResponse struct {
	Answer     string         `json:"answer"`
	ModelUsed  string         `json:"model_used"`
	Sources    []SourceRef    `json:"sources"`
	Conflicts  []ConflictNote `json:"conflicts"`
	Mode       Mode           `json:"mode"`
	LatencyMs  int64          `json:"latency_ms"`
	SessionID  string         `json:"session_id"`
	Degraded   []string       `json:"degraded_subsystems,omitempty"`
}

// FeedbackRequest is the feedback-endpoint request body (§6).
type FeedbackRequest struct {
	SessionID    string       `json:"session_id" binding:"required"`
	Rating       int          `json:"rating" binding:"required"`
	FeedbackType FeedbackType `json:"feedback_type,omitempty"`
	FeedbackText string       `json:"feedback_text,omitempty"`
	TurnCount    int          `json:"turn_count,omitempty"`
}

// FeedbackResponse is the feedback-endpoint response body.
type FeedbackResponse struct {
	Success  bool   `json:"success"`
	RatingID string `json:"rating_id"`
}

// IngestRequest is the single-file ingestion request (§6).
type IngestRequest struct {
	FilePath       string `json:"file_path" binding:"required"`
	Title          string `json:"title,omitempty"`
	TierOverride   Tier   `json:"tier_override,omitempty"`
	CollectionName string `json:"collection_name,omitempty"`
}

// BatchIngestRequest is the batch ingestion request (§6).
type BatchIngestRequest struct {
	FilePaths      []string `json:"file_paths" binding:"required"`
	CollectionName string   `json:"collection_name,omitempty"`
}

// LegalMetadata summarizes the classifier's output for an ingestion response.
type LegalMetadata struct {
	Type   DocumentType   `json:"type"`
	Number string         `json:"number"`
	Year   string         `json:"year"`
	Topic  string         `json:"topic"`
	Status DocumentStatus `json:"status"`
}

// StructureSummary summarizes the detected hierarchy for an ingestion response.
type StructureSummary struct {
	ChapterCount int  `json:"chapter_count"`
	ArticleCount int  `json:"article_count"`
	ClauseCount  int  `json:"clause_count"`
	IsLegal      bool `json:"is_legal_document"`
}

// IngestResponse is the ingestion-endpoint response (§6).
type IngestResponse struct {
	Success       bool             `json:"success"`
	BookTitle     string           `json:"book_title"`
	ChunksCreated int              `json:"chunks_created"`
	LegalMetadata LegalMetadata    `json:"legal_metadata"`
	Structure     StructureSummary `json:"structure"`
	Message       string           `json:"message"`
}

// BatchIngestResponse wraps one IngestResponse (or failure reason) per file.
type BatchIngestResponse struct {
	Results []IngestFileResult `json:"results"`
}

// IngestFileResult is a per-file outcome within a batch ingestion.
type IngestFileResult struct {
	FilePath string          `json:"file_path"`
	Result   *IngestResponse `json:"result,omitempty"`
	Error    string          `json:"error,omitempty"`
}
