package handler

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires the query, feedback, and ingestion endpoints (§6)
// onto a gin engine, with permissive CORS for local dev clients the way
// the teacher's cmd/server wires gin-contrib/cors.
func RegisterRoutes(r *gin.Engine, query *QueryHandler, feedback *FeedbackHandler, ingest *IngestHandler) {
	r.Use(cors.Default())

	api := r.Group("/api/v1")
	api.POST("/query", query.HandleQuery)
	api.POST("/feedback", feedback.HandleFeedback)
	api.POST("/ingest", ingest.HandleIngest)
	api.POST("/ingest/batch", ingest.HandleBatchIngest)
}
