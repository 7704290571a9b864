package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/nathanpetersonnp/anime-art-tracker/internal/services"
)

type ReferenceHandler struct {
	referenceService services.ReferenceService
}

func NewReferenceHandler(referenceService services.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{referenceService: referenceService}
}

// GetReferences handles GET /api/references.
func (h *ReferenceHandler) GetReferences(c *gin.Context) {
	payload, err := h.referenceService.GetReferences(c.Request.Context())
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, payload)
}
