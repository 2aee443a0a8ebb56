package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Balizero1987/ayo-sub004/internal/logger"
	"github.com/Balizero1987/ayo-sub004/internal/types"
	"github.com/Balizero1987/ayo-sub004/internal/types/interfaces"
)

// FeedbackHandler serves the feedback endpoint (§6): recording a user's
// rating of a past answer against its session.
type FeedbackHandler struct {
	store interfaces.RelationalStore
}

// NewFeedbackHandler builds a FeedbackHandler.
func NewFeedbackHandler(store interfaces.RelationalStore) *FeedbackHandler {
	return &FeedbackHandler{store: store}
}

// HandleFeedback binds a FeedbackRequest and persists it as a rating row.
func (h *FeedbackHandler) HandleFeedback(c *gin.Context) {
	var req types.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeAPIError(c, http.StatusBadRequest, types.ErrInputInvalid)
		return
	}

	rating := &types.ConversationRating{
		RatingID:     uuid.NewString(),
		SessionID:    req.SessionID,
		UserID:       c.GetString("user_id"),
		Rating:       req.Rating,
		FeedbackType: req.FeedbackType,
		FeedbackText: req.FeedbackText,
		TurnCount:    req.TurnCount,
		CreatedAt:    time.Now(),
	}
	if err := h.store.InsertRating(c.Request.Context(), rating); err != nil {
		logger.Errorf(c.Request.Context(), "feedback: insert rating failed: %v", err)
		writeAPIError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, types.FeedbackResponse{Success: true, RatingID: rating.RatingID})
}
