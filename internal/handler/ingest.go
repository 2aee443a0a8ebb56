package handler

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"github.com/Balizero1987/ayo-sub004/internal/application/service/golden"
	"github.com/Balizero1987/ayo-sub004/internal/ingestion"
	"github.com/Balizero1987/ayo-sub004/internal/logger"
	"github.com/Balizero1987/ayo-sub004/internal/types"
	"github.com/Balizero1987/ayo-sub004/internal/types/interfaces"
)

// IngestHandler serves the single-file and batch ingestion endpoints (§6)
// backed by C7. A successful ingest enqueues a golden-cache refresh check
// on the asynq queue rather than regenerating the embedding matrix inline.
type IngestHandler struct {
	orchestrator *ingestion.Orchestrator
	store        interfaces.RelationalStore
	queue        *asynq.Client
}

// NewIngestHandler builds an IngestHandler. queue may be nil, in which case
// ingestion runs without triggering a background golden-cache refresh.
func NewIngestHandler(o *ingestion.Orchestrator, store interfaces.RelationalStore, queue *asynq.Client) *IngestHandler {
	return &IngestHandler{orchestrator: o, store: store, queue: queue}
}

var legalDocTypes = map[types.DocumentType]bool{
	types.DocTypeStatute:           true,
	types.DocTypeRegulation:        true,
	types.DocTypeMinisterialDecree: true,
	types.DocTypeCourtRuling:       true,
}

// HandleIngest ingests a single file already present on disk at file_path.
func (h *IngestHandler) HandleIngest(c *gin.Context) {
	var req types.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeAPIError(c, http.StatusBadRequest, types.ErrInputInvalid)
		return
	}

	resp, err := h.ingestOne(c, req.FilePath)
	if err != nil {
		writeAPIError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleBatchIngest ingests every file in the request, collecting a
// per-file result rather than aborting the batch on the first failure.
func (h *IngestHandler) HandleBatchIngest(c *gin.Context) {
	var req types.BatchIngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeAPIError(c, http.StatusBadRequest, types.ErrInputInvalid)
		return
	}

	results := make([]types.IngestFileResult, 0, len(req.FilePaths))
	for _, path := range req.FilePaths {
		resp, err := h.ingestOne(c, path)
		if err != nil {
			results = append(results, types.IngestFileResult{FilePath: path, Error: err.Error()})
			continue
		}
		results = append(results, types.IngestFileResult{FilePath: path, Result: resp})
	}
	c.JSON(http.StatusOK, types.BatchIngestResponse{Results: results})
}

func (h *IngestHandler) ingestOne(c *gin.Context, filePath string) (*types.IngestResponse, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("ingest: read %s: %w", filePath, err)
	}

	doc, err := h.orchestrator.IngestFile(c.Request.Context(), filePath, data)
	if err != nil {
		logger.Errorf(c.Request.Context(), "ingest: %s failed: %v", filePath, err)
		return nil, err
	}
	h.enqueueGoldenRefresh(c.Request.Context())

	isLegal := legalDocTypes[doc.Type]
	articleCount := 0
	if isLegal {
		articleCount = doc.PasalCount
	}

	return &types.IngestResponse{
		Success:       true,
		BookTitle:     doc.Title,
		ChunksCreated: doc.PasalCount,
		LegalMetadata: types.LegalMetadata{
			Type:   doc.Type,
			Number: doc.Number,
			Year:   doc.Year,
			Topic:  doc.Topic,
			Status: doc.Status,
		},
		Structure: types.StructureSummary{
			ArticleCount: articleCount,
			IsLegal:      isLegal,
		},
		Message: "ingested",
	}, nil
}

// enqueueGoldenRefresh asks the golden-cache worker to re-check the route
// count off the request path; ingestion itself never blocks on it.
func (h *IngestHandler) enqueueGoldenRefresh(ctx context.Context) {
	if h.queue == nil || h.store == nil {
		return
	}
	routes, err := h.store.ListGoldenRoutes(ctx)
	if err != nil {
		logger.Warnf(ctx, "ingest: list golden routes for refresh check: %v", err)
		return
	}
	task, err := golden.NewRefreshTask(len(routes))
	if err != nil {
		logger.Warnf(ctx, "ingest: build golden refresh task: %v", err)
		return
	}
	if _, err := h.queue.EnqueueContext(ctx, task); err != nil {
		logger.Warnf(ctx, "ingest: enqueue golden refresh: %v", err)
	}
}
