package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crm_backend/internal/marketing/service"
	"crm_backend/internal/marketing/transport"
	"crm_backend/platform/httpkit"
	"crm_backend/platform/validator"
)

// Handler handles HTTP requests for marketing.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid ID"
)

// New creates a new marketing handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return false
	}
	return true
}

// ListCampaigns returns campaigns.
// GET /api/v1/marketing/campaigns
func (h *Handler) ListCampaigns(c *gin.Context) {
	result, err := h.svc.ListCampaigns(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// CreateCampaign creates a campaign.
// POST /api/v1/marketing/campaigns
func (h *Handler) CreateCampaign(c *gin.Context) {
	var req transport.CreateCampaignRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.svc.CreateCampaign(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// UpdateCampaignStatus changes a campaign's status.
// PATCH /api/v1/marketing/campaigns/:id/status
func (h *Handler) UpdateCampaignStatus(c *gin.Context) {
	id, ok := httpkit.ParamUUID(c, "id", msgInvalidID)
	if !ok {
		return
	}
	var req transport.UpdateCampaignStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.svc.UpdateCampaignStatus(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// DeleteCampaign removes a campaign.
// DELETE /api/v1/marketing/campaigns/:id
func (h *Handler) DeleteCampaign(c *gin.Context) {
	id, ok := httpkit.ParamUUID(c, "id", msgInvalidID)
	if !ok {
		return
	}
	if httpkit.HandleError(c, h.svc.DeleteCampaign(c.Request.Context(), id)) {
		return
	}
	c.Status(http.StatusNoContent)
}

// ListPages returns landing pages.
// GET /api/v1/marketing/pages
func (h *Handler) ListPages(c *gin.Context) {
	result, err := h.svc.ListPages(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// CreatePage creates a landing page.
// POST /api/v1/marketing/pages
func (h *Handler) CreatePage(c *gin.Context) {
	var req transport.CreatePageRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.svc.CreatePage(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// SetPublished publishes or unpublishes a landing page.
// PUT /api/v1/marketing/pages/:id/published
func (h *Handler) SetPublished(c *gin.Context) {
	id, ok := httpkit.ParamUUID(c, "id", msgInvalidID)
	if !ok {
		return
	}
	var req transport.PublishRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.svc.SetPublished(c.Request.Context(), id, req.Published)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// PageQRCode returns a PNG QR code for the public page URL.
// GET /api/v1/marketing/pages/:id/qr
func (h *Handler) PageQRCode(c *gin.Context) {
	id, ok := httpkit.ParamUUID(c, "id", msgInvalidID)
	if !ok {
		return
	}
	png, err := h.svc.PageQRCode(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// VisitPage serves a published page and counts the visit.
// GET /api/v1/public/pages/:id
func (h *Handler) VisitPage(c *gin.Context) {
	id, ok := httpkit.ParamUUID(c, "id", msgInvalidID)
	if !ok {
		return
	}
	result, err := h.svc.VisitPage(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListPosts returns blog posts.
// GET /api/v1/marketing/posts
func (h *Handler) ListPosts(c *gin.Context) {
	result, err := h.svc.ListPosts(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// CreatePost creates a draft blog post authored by the caller.
// POST /api/v1/marketing/posts
func (h *Handler) CreatePost(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	var req transport.CreatePostRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.svc.CreatePost(c.Request.Context(), identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// PublishPost publishes a blog post.
// POST /api/v1/marketing/posts/:id/publish
func (h *Handler) PublishPost(c *gin.Context) {
	id, ok := httpkit.ParamUUID(c, "id", msgInvalidID)
	if !ok {
		return
	}
	if httpkit.HandleError(c, h.svc.PublishPost(c.Request.Context(), id)) {
		return
	}
	c.Status(http.StatusNoContent)
}

// ListForms returns forms.
// GET /api/v1/marketing/forms
func (h *Handler) ListForms(c *gin.Context) {
	result, err := h.svc.ListForms(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// CreateForm creates a lead capture form.
// POST /api/v1/marketing/forms
func (h *Handler) CreateForm(c *gin.Context) {
	var req transport.CreateFormRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.svc.CreateForm(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// GetForm returns a form definition for rendering.
// GET /api/v1/public/forms/:id
func (h *Handler) GetForm(c *gin.Context) {
	id, ok := httpkit.ParamUUID(c, "id", msgInvalidID)
	if !ok {
		return
	}
	result, err := h.svc.GetForm(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// SubmitForm records a public form submission.
// POST /api/v1/public/forms/:id/submissions
func (h *Handler) SubmitForm(c *gin.Context) {
	id, ok := httpkit.ParamUUID(c, "id", msgInvalidID)
	if !ok {
		return
	}
	var req transport.SubmitFormRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.svc.SubmitForm(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// ListKeywords returns tracked keywords.
// GET /api/v1/marketing/keywords
func (h *Handler) ListKeywords(c *gin.Context) {
	result, err := h.svc.ListKeywords(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// CreateKeyword tracks a keyword.
// POST /api/v1/marketing/keywords
func (h *Handler) CreateKeyword(c *gin.Context) {
	var req transport.CreateKeywordRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.svc.CreateKeyword(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// UpdateKeywordRanking records a keyword's search position.
// PUT /api/v1/marketing/keywords/:id/ranking
func (h *Handler) UpdateKeywordRanking(c *gin.Context) {
	id, ok := httpkit.ParamUUID(c, "id", msgInvalidID)
	if !ok {
		return
	}
	var req transport.UpdateRankingRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if httpkit.HandleError(c, h.svc.UpdateKeywordRanking(c.Request.Context(), id, req)) {
		return
	}
	c.Status(http.StatusNoContent)
}

// ContentPerformance reports visits per content item.
// GET /api/v1/marketing/content-performance
func (h *Handler) ContentPerformance(c *gin.Context) {
	result, err := h.svc.ContentPerformance(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
