package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Balizero1987/ayo-sub004/internal/types"
)

// writeAPIError writes the closed-taxonomy error shape from §7, tagging it
// with a fresh request ID since none is threaded through gin's context yet.
func writeAPIError(c *gin.Context, status int, err error) {
	c.JSON(status, types.NewAPIError(err, uuid.NewString()))
}
