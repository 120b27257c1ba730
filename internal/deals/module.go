// Package deals provides the deals bounded context module.
package deals

import (
	"crm_backend/internal/deals/handler"
	"crm_backend/internal/deals/repository"
	"crm_backend/internal/deals/service"
	"crm_backend/internal/events"
	apphttp "crm_backend/internal/http"
	"crm_backend/platform/db"
	"crm_backend/platform/logger"
	"crm_backend/platform/validator"
)

// Module is the deals bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the deals module with all its dependencies.
func NewModule(conn *db.DB, customers service.CustomerChecker, val *validator.Validator, bus events.Bus, log *logger.Logger) *Module {
	repo := repository.New(conn)
	svc := service.New(repo, customers, bus, log)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "deals"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the deals repository for read-only consumers.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts deal routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	g := ctx.Protected.Group("/deals")
	g.GET("", m.handler.List)
	g.POST("", m.handler.Create)
	g.GET("/pipeline", m.handler.Pipeline)
	g.GET("/:id", m.handler.Get)
	g.PUT("/:id", m.handler.Update)
	g.PATCH("/:id/stage", m.handler.UpdateStage)
	g.DELETE("/:id", m.handler.Delete)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
