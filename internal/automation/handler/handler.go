package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crm_backend/internal/automation/service"
	"crm_backend/internal/automation/transport"
	"crm_backend/platform/httpkit"
	"crm_backend/platform/validator"
)

// Handler handles HTTP requests for workflows and automation rules.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidWorkflow  = "invalid workflow ID"
	msgInvalidRule      = "invalid rule ID"
)

// New creates a new automation handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// ListWorkflows returns workflows.
// GET /api/v1/automation/workflows
func (h *Handler) ListWorkflows(c *gin.Context) {
	result, err := h.svc.ListWorkflows(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// CreateWorkflow stores a workflow definition.
// POST /api/v1/automation/workflows
func (h *Handler) CreateWorkflow(c *gin.Context) {
	var req transport.CreateWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.CreateWorkflow(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// SetWorkflowStatus activates or pauses a workflow.
// PATCH /api/v1/automation/workflows/:id/status
func (h *Handler) SetWorkflowStatus(c *gin.Context) {
	id, ok := httpkit.ParamUUID(c, "id", msgInvalidWorkflow)
	if !ok {
		return
	}
	var req transport.SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if httpkit.HandleError(c, h.svc.SetWorkflowStatus(c.Request.Context(), id, req.Status)) {
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteWorkflow removes a workflow.
// DELETE /api/v1/automation/workflows/:id
func (h *Handler) DeleteWorkflow(c *gin.Context) {
	id, ok := httpkit.ParamUUID(c, "id", msgInvalidWorkflow)
	if !ok {
		return
	}
	if httpkit.HandleError(c, h.svc.DeleteWorkflow(c.Request.Context(), id)) {
		return
	}
	c.Status(http.StatusNoContent)
}

// ExportWorkflows downloads every workflow as YAML.
// GET /api/v1/automation/workflows/export
func (h *Handler) ExportWorkflows(c *gin.Context) {
	data, err := h.svc.ExportWorkflowsYAML(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	c.Header("Content-Disposition", `attachment; filename="workflows.yaml"`)
	c.Data(http.StatusOK, "application/yaml", data)
}

// ListRules returns automation rules.
// GET /api/v1/automation/rules
func (h *Handler) ListRules(c *gin.Context) {
	result, err := h.svc.ListRules(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// CreateRule stores an automation rule.
// POST /api/v1/automation/rules
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

// SetRuleActive toggles a rule.
// PATCH /api/v1/automation/rules/:id/active
func (h *Handler) SetRuleActive(c *gin.Context) {
	id, ok := httpkit.ParamUUID(c, "id", msgInvalidRule)
	if !ok {
		return
	}
	var req transport.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	if httpkit.HandleError(c, h.svc.SetRuleActive(c.Request.Context(), id, req.IsActive)) {
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteRule removes a rule.
// DELETE /api/v1/automation/rules/:id
func (h *Handler) DeleteRule(c *gin.Context) {
	id, ok := httpkit.ParamUUID(c, "id", msgInvalidRule)
	if !ok {
		return
	}
	if httpkit.HandleError(c, h.svc.DeleteRule(c.Request.Context(), id)) {
		return
	}
	c.Status(http.StatusNoContent)
}
