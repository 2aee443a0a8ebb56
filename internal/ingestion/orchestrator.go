// Package ingestion implements C7: the per-file pipeline that turns raw
// bytes into parent-document rows, vector-store points, and knowledge-graph
// upserts.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"

	"github.com/Balizero1987/ayo-sub004/internal/config"
	"github.com/Balizero1987/ayo-sub004/internal/ingestion/chunker"
	"github.com/Balizero1987/ayo-sub004/internal/ingestion/kg"
	"github.com/Balizero1987/ayo-sub004/internal/ingestion/metadata"
	"github.com/Balizero1987/ayo-sub004/internal/ingestion/parser"
	"github.com/Balizero1987/ayo-sub004/internal/ingestion/structure"
	"github.com/Balizero1987/ayo-sub004/internal/models/chat"
	"github.com/Balizero1987/ayo-sub004/internal/types"
	"github.com/Balizero1987/ayo-sub004/internal/types/interfaces"
	"github.com/Balizero1987/ayo-sub004/internal/utils"
)

const vectorUpsertBatchSize = 100

// Orchestrator drives the C7 pipeline: dedup, read, analyze, route, chunk,
// embed, upsert, persist.
type Orchestrator struct {
	cfg        config.IngestionConfig
	embedder   interfaces.Embedder
	vectors    interfaces.VectorStore
	relational interfaces.RelationalStore
	chatModel  chat.Chat
	pool       *ants.Pool
}

// New constructs an Orchestrator with a bounded worker pool sized per
// cfg.WorkerPoolSize (§4.7: "a bounded worker pool (default 4) to overlap
// I/O"). chatModel may be nil, in which case HyDE/KG extraction are skipped.
func New(cfg config.IngestionConfig, embedder interfaces.Embedder, vectors interfaces.VectorStore, relational interfaces.RelationalStore, chatModel chat.Chat) (*Orchestrator, error) {
	size := cfg.WorkerPoolSize
	if size <= 0 {
		size = 4
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, fmt.Errorf("ingestion: new worker pool: %w", err)
	}
	return &Orchestrator{
		cfg:        cfg,
		embedder:   embedder,
		vectors:    vectors,
		relational: relational,
		chatModel:  chatModel,
		pool:       pool,
	}, nil
}

// Release frees the worker pool's goroutines.
func (o *Orchestrator) Release() {
	o.pool.Release()
}

// IngestFile runs the full pipeline for one source file and returns the
// persisted parent document. A dedup hit (unchanged fingerprint) returns
// the existing row without re-embedding.
func (o *Orchestrator) IngestFile(ctx context.Context, filename string, data []byte) (*types.Document, error) {
	documentID := utils.DocumentID(filename)

	existing, err := o.relational.GetDocumentByDocumentID(ctx, documentID)
	if err != nil && !errors.Is(err, types.ErrNotFound) {
		return nil, fmt.Errorf("ingestion: dedup lookup: %w", err)
	}

	text, err := parser.Parse(filename, data)
	if err != nil {
		return nil, fmt.Errorf("ingestion: parse %s: %w", filename, err)
	}

	quality := metadata.Score(text)
	if existing != nil && existing.TextFingerprint == quality.TextFingerprint {
		return existing, nil
	}

	classification := metadata.Classify(text)
	skipEmbedding := quality.OCRQualityScore < o.cfg.QualityFloor && o.cfg.StrictQuality
	if skipEmbedding {
		quality.NeedsReextract = true
	}

	collection := RouteCollection(filename, text)

	doc := &types.Document{
		ID:              documentID,
		DocumentID:      documentID,
		Type:            classificationDocType(classification, collection),
		Title:           classification.FullTitle,
		Year:            classification.Year,
		Number:          classification.Number,
		Topic:           classification.Topic,
		Status:          mapStatus(classification.Status),
		FullText:        text,
		Summary:         summarize(text),
		CharCount:       len([]rune(text)),
		TextFingerprint: quality.TextFingerprint,
		IsIncomplete:    quality.IsIncomplete,
		OCRQualityScore: quality.OCRQualityScore,
		NeedsReextract:  quality.NeedsReextract,
	}

	if skipEmbedding {
		if err := o.relational.UpsertDocument(ctx, doc); err != nil {
			return nil, fmt.Errorf("ingestion: persist parent (skip-embedding): %w", err)
		}
		return doc, nil
	}

	hierarchy := structure.Parse(text)
	chunks := chunker.ChunkDocument(documentID, text, hierarchy)
	if max := o.cfg.MaxChunksPerFile; max > 0 && len(chunks) > max {
		logrus.WithField("document_id", documentID).Warnf("ingestion: capping %d chunks to %d", len(chunks), max)
		chunks = chunks[:max]
	}
	doc.PasalCount = countArticles(hierarchy, chunks)

	if err := o.vectors.EnsureCollection(ctx, string(collection), o.embedder.Dimensions()); err != nil {
		return nil, fmt.Errorf("ingestion: ensure collection %s: %w", collection, err)
	}

	points := o.embedChunks(ctx, documentID, filename, classification, chunks)
	if err := o.upsertPoints(ctx, string(collection), points); err != nil {
		return nil, fmt.Errorf("ingestion: upsert points: %w", err)
	}

	graph := kg.Build(ctx, o.chatModel, documentID, firstN(chunks, o.cfg.KGChunksPerDoc))
	if err := o.persistGraph(ctx, graph); err != nil {
		logrus.WithError(err).WithField("document_id", documentID).Warn("ingestion: kg upsert failed, continuing")
	}

	if err := o.relational.UpsertDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("ingestion: persist parent: %w", err)
	}
	return doc, nil
}

// embedChunks runs steps 7a-7d of the pipeline over every chunk, bounded by
// the orchestrator's worker pool. A single chunk's failure is logged and
// skipped rather than aborting the file.
func (o *Orchestrator) embedChunks(ctx context.Context, documentID, filename string, classification metadata.Classification, chunks []types.Chunk) []interfaces.VectorPoint {
	points := make([]interfaces.VectorPoint, 0, len(chunks))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := range chunks {
		chunks[i].ID = fmt.Sprintf("%s::%d", documentID, chunks[i].ChunkIndex)
		chunk := chunks[i]

		wg.Add(1)
		submitErr := o.pool.Submit(func() {
			defer wg.Done()
			point, err := o.embedOne(ctx, chunk, filename, classification)
			if err != nil {
				logrus.WithError(err).WithField("chunk_id", chunk.ID).Warn("ingestion: chunk embedding failed, skipping")
				return
			}
			mu.Lock()
			points = append(points, point)
			mu.Unlock()
		})
		if submitErr != nil {
			wg.Done()
			logrus.WithError(submitErr).WithField("chunk_id", chunk.ID).Warn("ingestion: worker pool rejected chunk, skipping")
		}
	}
	wg.Wait()
	return points
}

func (o *Orchestrator) embedOne(ctx context.Context, chunk types.Chunk, filename string, classification metadata.Classification) (interfaces.VectorPoint, error) {
	hyde := generateHyde(ctx, o.chatModel, chunk.Text, o.cfg.HydeQuestionCount)

	docMeta := &types.DocumentChunkMetadata{
		HydeQuestions: hyde,
		SourceFile:    filename,
		Title:         classification.FullTitle,
		Tier:          types.TierC,
		MinLevel:      2,
		Language:      types.LanguageID,
	}
	if err := chunk.SetDocumentMetadata(docMeta); err != nil {
		return interfaces.VectorPoint{}, fmt.Errorf("encode chunk metadata: %w", err)
	}

	vector, err := o.embedder.Embed(ctx, chunk.Text)
	if err != nil {
		return interfaces.VectorPoint{}, fmt.Errorf("embed: %w", err)
	}

	payload := map[string]interface{}{
		"text":           chunk.Text,
		"parent_id":      chunk.DocumentID,
		"chunk_index":    chunk.ChunkIndex,
		"hyde_questions": hyde,
		"source_file":    filename,
		"title":          classification.FullTitle,
		"tier":           string(docMeta.Tier),
		"min_level":      docMeta.MinLevel,
		"language":       string(docMeta.Language),
		"hierarchy_path": chunk.HierarchyPath,
		"chapter_title":  chunk.ChapterTitle,
		"year":           classification.Year,
		"status":         string(classification.Status),
	}

	return interfaces.VectorPoint{
		ID:      utils.ChunkPointID(chunk.ID),
		Vector:  vector,
		Payload: payload,
	}, nil
}

func (o *Orchestrator) upsertPoints(ctx context.Context, collection string, points []interfaces.VectorPoint) error {
	for start := 0; start < len(points); start += vectorUpsertBatchSize {
		end := start + vectorUpsertBatchSize
		if end > len(points) {
			end = len(points)
		}
		if err := o.vectors.Upsert(ctx, collection, points[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) persistGraph(ctx context.Context, graph kg.Graph) error {
	if len(graph.Entities) > 0 {
		if err := o.relational.UpsertKGEntities(ctx, graph.Entities); err != nil {
			return fmt.Errorf("upsert entities: %w", err)
		}
	}
	if len(graph.Relationships) > 0 {
		if err := o.relational.UpsertKGRelationships(ctx, graph.Relationships); err != nil {
			return fmt.Errorf("upsert relationships: %w", err)
		}
	}
	return nil
}

func firstN(chunks []types.Chunk, n int) []types.Chunk {
	if n <= 0 || n > len(chunks) {
		return chunks
	}
	return chunks[:n]
}

func countArticles(doc structure.Document, chunks []types.Chunk) int {
	count := 0
	for _, chapter := range doc.Chapters {
		count += len(chapter.Articles)
	}
	if count > 0 {
		return count
	}
	// pasal_count doubles as chunk_count for non-legal document types.
	return len(chunks)
}

func classificationDocType(c metadata.Classification, collection Collection) types.DocumentType {
	switch {
	case collection == CollectionKBLI:
		return types.DocTypeKBLICode
	case collection == CollectionPricing:
		return types.DocTypePricing
	case c.Type == "KEPUTUSAN PRESIDEN" || c.Type == "PERATURAN MENTERI":
		return types.DocTypeMinisterialDecree
	case c.Type == "PERATURAN PEMERINTAH" || c.Type == "PERATURAN DAERAH":
		return types.DocTypeRegulation
	case c.Type == "UNDANG-UNDANG" || c.Type == "QANUN":
		return types.DocTypeStatute
	case collection == CollectionLitigation:
		return types.DocTypeCourtRuling
	default:
		return types.DocTypeGeneric
	}
}

func mapStatus(status types.DocumentStatus) types.DocumentStatus {
	switch status {
	case metadata.DocumentStatusDicabut:
		return types.DocStatusRepealed
	case metadata.DocumentStatusBerlaku:
		return types.DocStatusActive
	default:
		return types.DocStatusUnknown
	}
}

const summaryMaxChars = 500

func summarize(text string) string {
	return utils.TruncateEllipsis(text, summaryMaxChars)
}
