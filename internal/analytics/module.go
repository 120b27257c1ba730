// Package analytics provides dashboards, forecasts and performance metrics.
package analytics

import (
	"time"

	"crm_backend/internal/analytics/handler"
	"crm_backend/internal/analytics/repository"
	"crm_backend/internal/analytics/service"
	"crm_backend/internal/events"
	apphttp "crm_backend/internal/http"
	"crm_backend/platform/cache"
	"crm_backend/platform/db"
	"crm_backend/platform/logger"
	"crm_backend/platform/validator"
)

// Module is the analytics module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires analytics. c may be nil to disable dashboard caching.
func NewModule(conn *db.DB, c cache.Cache, ttl time.Duration, val *validator.Validator, bus events.Bus, log *logger.Logger) *Module {
	svc := service.New(repository.New(conn), c, ttl, log)
	svc.Subscribe(bus)
	return &Module{handler: handler.New(svc, val), service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "analytics"
}

// RegisterRoutes mounts analytics routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	g := ctx.Protected.Group("/analytics")
	g.GET("/dashboard", m.handler.Dashboard)
	g.GET("/overview", m.handler.Overview)
	g.GET("/forecast", m.handler.Forecast)
	g.GET("/performance", m.handler.Performance)
	g.GET("/forecasts", m.handler.ListForecasts)
	g.POST("/forecasts", m.handler.CreateForecast)
	g.GET("/metrics", m.handler.ListMetrics)
	g.POST("/metrics", m.handler.CreateMetric)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
