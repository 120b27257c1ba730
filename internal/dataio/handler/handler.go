package handler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"crm_backend/internal/dataio/service"
	"crm_backend/internal/dataio/transport"
	"crm_backend/platform/httpkit"
	"crm_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid custom field ID"
	maxImportBytes      = 10 << 20
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Export downloads a table as CSV.
// GET /api/v1/data/export/:entity
func (h *Handler) Export(c *gin.Context) {
	entity := c.Param("entity")

	var buf bytes.Buffer
	if _, err := h.svc.Export(c.Request.Context(), entity, &buf); httpkit.HandleError(c, err) {
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", entity))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// Import reads a CSV either from the multipart "file" field or the raw body.
// POST /api/v1/data/import/:entity
func (h *Handler) Import(c *gin.Context) {
	var src io.Reader
	if header, err := c.FormFile("file"); err == nil {
		file, err := header.Open()
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		defer file.Close()
		src = file
	} else {
		src = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes)
	}

	result, err := h.svc.Import(c.Request.Context(), c.Param("entity"), src)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// GET /api/v1/data/custom-fields
func (h *Handler) ListCustomFields(c *gin.Context) {
	var req transport.ListCustomFieldsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.ListCustomFields(c.Request.Context(), req.EntityType)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": result})
}

// POST /api/v1/data/custom-fields
func (h *Handler) CreateCustomField(c *gin.Context) {
	var req transport.CreateCustomFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.CreateCustomField(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// DELETE /api/v1/data/custom-fields/:id
func (h *Handler) DeleteCustomField(c *gin.Context) {
	id, ok := httpkit.ParamUUID(c, "id", msgInvalidID)
	if !ok {
		return
	}
	if httpkit.HandleError(c, h.svc.DeleteCustomField(c.Request.Context(), id)) {
		return
	}
	c.Status(http.StatusNoContent)
}
