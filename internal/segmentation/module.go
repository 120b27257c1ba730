// Package segmentation provides customer value segmentation.
package segmentation

import (
	"time"

	"crm_backend/internal/events"
	apphttp "crm_backend/internal/http"
	"crm_backend/internal/segmentation/handler"
	"crm_backend/internal/segmentation/service"
	"crm_backend/platform/cache"
	"crm_backend/platform/logger"
)

// Module is the segmentation module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires the segmentation service and subscribes its cache
// invalidation to bus.
func NewModule(customers service.CustomerLister, deals service.DealLister, c cache.Cache, ttl time.Duration, bus events.Bus, log *logger.Logger) *Module {
	svc := service.New(customers, deals, c, ttl, log)
	svc.Subscribe(bus)
	return &Module{handler: handler.New(svc), service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "segmentation"
}

// Service returns the service layer for the CLI.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts segmentation routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/segmentation", m.handler.Segment)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
