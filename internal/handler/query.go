// Package handler exposes C1-C13 over HTTP with gin, the same role the
// teacher's internal/handler plays for its knowledge/model/system endpoints.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Balizero1987/ayo-sub004/internal/application/service/orchestrator"
	"github.com/Balizero1987/ayo-sub004/internal/logger"
	"github.com/Balizero1987/ayo-sub004/internal/types"
)

// QueryHandler serves the query endpoint (§6) backed by C13.
type QueryHandler struct {
	orchestrator *orchestrator.Orchestrator
}

// NewQueryHandler builds a QueryHandler.
func NewQueryHandler(o *orchestrator.Orchestrator) *QueryHandler {
	return &QueryHandler{orchestrator: o}
}

// HandleQuery binds a QueryRequest, fills in the auth-layer fields, and
// runs it through the orchestrator.
func (h *QueryHandler) HandleQuery(c *gin.Context) {
	var req types.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeAPIError(c, http.StatusBadRequest, types.ErrInputInvalid)
		return
	}

	req.UserID = c.GetString("user_id")
	req.UserLevel = c.GetInt("user_level")
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	resp, err := h.orchestrator.Process(c.Request.Context(), &req)
	if err != nil {
		logger.Errorf(c.Request.Context(), "query: process failed: %v", err)
		writeAPIError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
