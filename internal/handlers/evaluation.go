package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nathanpetersonnp/anime-art-tracker/internal/services"
)

type EvaluationHandler struct {
	evaluationService services.EvaluationService
}

func NewEvaluationHandler(evaluationService services.EvaluationService) *EvaluationHandler {
	return &EvaluationHandler{evaluationService: evaluationService}
}

// Evaluate handles POST /api/evaluate with body {artworkId}.
func (h *EvaluationHandler) Evaluate(c *gin.Context) {
	var req struct {
		ArtworkID string `json:"artworkId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	assessment, err := h.evaluationService.Evaluate(c.Request.Context(), req.ArtworkID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"assessment": assessment})
}
