package handler

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"crm_backend/internal/documents/service"
	"crm_backend/internal/documents/transport"
	"crm_backend/platform/httpkit"
	"crm_backend/platform/validator"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid document ID"
)

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Upload stores a multipart "file" for "customerId" with optional "tags".
// POST /api/v1/documents
func (h *Handler) Upload(c *gin.Context) {
	customerID, err := uuid.Parse(c.PostForm("customerId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, "customerId must be a UUID")
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, "file is required")
		return
	}
	file, err := header.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	defer file.Close()

	result, err := h.svc.Upload(c.Request.Context(), service.Upload{
		CustomerID:  customerID,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     file,
		Tags:        c.PostFormArray("tags"),
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// GET /api/v1/documents
func (h *Handler) List(c *gin.Context) {
	var req transport.ListDocumentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	var customerID *uuid.UUID
	if req.CustomerID != "" {
		id := uuid.MustParse(req.CustomerID)
		customerID = &id
	}

	result, err := h.svc.List(c.Request.Context(), customerID, req.Tag)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": result})
}

// GET /api/v1/documents/:id
func (h *Handler) Get(c *gin.Context) {
	id, ok := httpkit.ParamUUID(c, "id", msgInvalidID)
	if !ok {
		return
	}

	result, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Download streams the document content as an attachment.
// GET /api/v1/documents/:id/content
func (h *Handler) Download(c *gin.Context) {
	id, ok := httpkit.ParamUUID(c, "id", msgInvalidID)
	if !ok {
		return
	}

	dl, err := h.svc.Open(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	defer dl.Body.Close()

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": dl.Document.Name})
	c.DataFromReader(http.StatusOK, dl.Document.SizeBytes, dl.Document.Type, dl.Body, map[string]string{
		"Content-Disposition": disposition,
		"X-Document-Size":     strconv.FormatInt(dl.Document.SizeBytes, 10),
	})
}

// GET /api/v1/documents/:id/url
func (h *Handler) DownloadURL(c *gin.Context) {
	id, ok := httpkit.ParamUUID(c, "id", msgInvalidID)
	if !ok {
		return
	}

	result, err := h.svc.DownloadURL(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// DELETE /api/v1/documents/:id
func (h *Handler) Delete(c *gin.Context) {
	id, ok := httpkit.ParamUUID(c, "id", msgInvalidID)
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), id)) {
		return
	}
	c.Status(http.StatusNoContent)
}

// ListForCustomer lists one customer's documents.
// GET /api/v1/customers/:id/documents
func (h *Handler) ListForCustomer(c *gin.Context) {
	id, ok := httpkit.ParamUUID(c, "id", "invalid customer ID")
	if !ok {
		return
	}

	result, err := h.svc.List(c.Request.Context(), &id, c.Query("tag"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": result})
}
