package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crm_backend/internal/analytics/service"
	"crm_backend/internal/analytics/transport"
	"crm_backend/platform/httpkit"
	"crm_backend/platform/validator"
)

// Handler handles HTTP requests for analytics.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidUserID    = "invalid user ID"
)

// New creates a new analytics handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Dashboard returns the headline metrics.
// GET /api/v1/analytics/dashboard
func (h *Handler) Dashboard(c *gin.Context) {
	result, err := h.svc.Dashboard(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Overview returns monthly deal and acquisition series for a date range.
// GET /api/v1/analytics/overview?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *Handler) Overview(c *gin.Context) {
	var req transport.OverviewRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Overview(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Forecast returns the weighted pipeline forecast.
// GET /api/v1/analytics/forecast
func (h *Handler) Forecast(c *gin.Context) {
	result, err := h.svc.Forecast(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Performance returns deal totals per user.
// GET /api/v1/analytics/performance
func (h *Handler) Performance(c *gin.Context) {
	result, err := h.svc.Performance(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListForecasts returns stored forecasts.
// GET /api/v1/analytics/forecasts
func (h *Handler) ListForecasts(c *gin.Context) {
	result, err := h.svc.ListForecasts(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// CreateForecast stores a manual forecast.
// POST /api/v1/analytics/forecasts
func (h *Handler) CreateForecast(c *gin.Context) {
	var req transport.CreateForecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.CreateForecast(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// ListMetrics returns stored metrics.
// GET /api/v1/analytics/metrics?userId=
func (h *Handler) ListMetrics(c *gin.Context) {
	userID, ok := httpkit.QueryUUID(c, "userId", msgInvalidUserID)
	if !ok {
		return
	}

	result, err := h.svc.ListMetrics(c.Request.Context(), userID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// CreateMetric stores a performance metric.
// POST /api/v1/analytics/metrics
func (h *Handler) CreateMetric(c *gin.Context) {
	var req transport.CreateMetricRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.CreateMetric(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}
