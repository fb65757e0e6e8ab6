package handlers

import (
	"errors"
	"net/http"

	"github.com/SAP-F-2025/quiz-engine/internal/engine"
	apperrors "github.com/SAP-F-2025/quiz-engine/internal/errors"
	"github.com/gin-gonic/gin"
)

// bindOptionalJSON binds a JSON body when one was sent. It reports false after writing a 400.
func bindOptionalJSON(c *gin.Context, dest interface{}) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dest); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return false
	}
	return true
}

// handleEngineError maps engine and load errors onto HTTP responses
func (h *BaseHandler) handleEngineError(c *gin.Context, err error) {
	var validationErrors apperrors.ValidationErrors
	if errors.As(err, &validationErrors) {
		h.RespondWithError(c, http.StatusUnprocessableEntity, "Validation failed", err, validationErrors)
		return
	}

	if loadErr, ok := apperrors.AsLoadError(err); ok {
		status := http.StatusBadGateway
		if loadErr.Status == http.StatusNotFound {
			status = http.StatusNotFound
		}
		h.RespondWithError(c, status, "Failed to load quiz", err, map[string]interface{}{
			"source":          loadErr.Source,
			"upstream_status": loadErr.Status,
		})
		return
	}

	switch {
	case errors.Is(err, engine.ErrNotLoaded):
		h.RespondWithError(c, http.StatusConflict, "No quiz loaded", err)
	default:
		h.RespondWithError(c, http.StatusInternalServerError, "Internal server error", err)
	}
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "quiz-engine",
	})
}
