package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crm_backend/internal/customers/transport"
	"crm_backend/platform/httpkit"
)

// LogContact records an interaction.
// POST /api/v1/customers/:id/contacts
func (h *Handler) LogContact(c *gin.Context) {
	id, ok := httpkit.ParamUUID(c, "id", msgInvalidID)
	if !ok {
		return
	}
	var req transport.LogContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.LogContact(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// ListCustomerContacts returns one customer's interactions.
// GET /api/v1/customers/:id/contacts
func (h *Handler) ListCustomerContacts(c *gin.Context) {
	id, ok := httpkit.ParamUUID(c, "id", msgInvalidID)
	if !ok {
		return
	}

	result, err := h.svc.ListContacts(c.Request.Context(), &id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListContacts returns recent interactions across customers.
// GET /api/v1/contacts?customerId=
func (h *Handler) ListContacts(c *gin.Context) {
	customerID, ok := httpkit.QueryUUID(c, "customerId", msgInvalidID)
	if !ok {
		return
	}

	result, err := h.svc.ListContacts(c.Request.Context(), customerID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// AddMeetingNote records a meeting.
// POST /api/v1/customers/:id/meeting-notes
func (h *Handler) AddMeetingNote(c *gin.Context) {
	id, ok := httpkit.ParamUUID(c, "id", msgInvalidID)
	if !ok {
		return
	}
	var req transport.MeetingNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.AddMeetingNote(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// ListMeetingNotes returns a customer's meeting notes.
// GET /api/v1/customers/:id/meeting-notes
func (h *Handler) ListMeetingNotes(c *gin.Context) {
	id, ok := httpkit.ParamUUID(c, "id", msgInvalidID)
	if !ok {
		return
	}

	result, err := h.svc.ListMeetingNotes(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetPreferences returns a customer's preferences.
// GET /api/v1/customers/:id/preferences
func (h *Handler) GetPreferences(c *gin.Context) {
	id, ok := httpkit.ParamUUID(c, "id", msgInvalidID)
	if !ok {
		return
	}

	result, err := h.svc.GetPreferences(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// SetPreferences creates or replaces a customer's preferences.
// PUT /api/v1/customers/:id/preferences
func (h *Handler) SetPreferences(c *gin.Context) {
	id, ok := httpkit.ParamUUID(c, "id", msgInvalidID)
	if !ok {
		return
	}
	var req transport.PreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.SetPreferences(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
