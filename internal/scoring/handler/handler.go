package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"crm_backend/internal/scoring/service"
	"crm_backend/internal/scoring/transport"
	"crm_backend/platform/httpkit"
	"crm_backend/platform/validator"
)

// Handler handles HTTP requests for lead scoring.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid rule ID"
)

// New creates a new scoring handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Run performs a scoring run, or queues one when async=true.
// POST /api/v1/lead-scoring/run
func (h *Handler) Run(c *gin.Context) {
	if async, _ := strconv.ParseBool(c.Query("async")); async {
		result, err := h.svc.Enqueue(c.Request.Context(), service.TriggerManual)
		if httpkit.HandleError(c, err) {
			return
		}
		httpkit.JSON(c, http.StatusAccepted, result)
		return
	}

	result, err := h.svc.RunAndReport(c.Request.Context(), service.TriggerManual)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// RankedLeads returns leads by descending score.
// GET /api/v1/lead-scoring/leads
func (h *Handler) RankedLeads(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	result, err := h.svc.RankedLeads(c.Request.Context(), limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListRules returns stored scoring rules.
// GET /api/v1/lead-scoring/rules
func (h *Handler) ListRules(c *gin.Context) {
	result, err := h.svc.ListRules(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// CreateRule stores a scoring rule.
// POST /api/v1/lead-scoring/rules
func (h *Handler) CreateRule(c *gin.Context) {
	var req transport.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.CreateRule(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// DeleteRule removes a scoring rule.
// DELETE /api/v1/lead-scoring/rules/:id
func (h *Handler) DeleteRule(c *gin.Context) {
	id, ok := httpkit.ParamUUID(c, "id", msgInvalidID)
	if !ok {
		return
	}
	if err := h.svc.DeleteRule(c.Request.Context(), id); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}
