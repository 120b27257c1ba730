package handler

import (
	"github.com/gin-gonic/gin"

	"crm_backend/internal/segmentation/service"
	"crm_backend/platform/httpkit"
)

// Handler handles HTTP requests for customer segmentation.
type Handler struct {
	svc *service.Service
}

// New creates a new segmentation handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Segment returns every customer's value tier and the per-tier analysis.
// GET /api/v1/segmentation
func (h *Handler) Segment(c *gin.Context) {
	result, err := h.svc.Segment(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
