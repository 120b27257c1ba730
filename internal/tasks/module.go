// Package tasks provides the tasks and calendar bounded context module.
package tasks

import (
	"crm_backend/internal/events"
	apphttp "crm_backend/internal/http"
	"crm_backend/internal/tasks/handler"
	"crm_backend/internal/tasks/repository"
	"crm_backend/internal/tasks/service"
	"crm_backend/platform/db"
	"crm_backend/platform/logger"
	"crm_backend/platform/validator"
)

// Module is the tasks bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the tasks module with all its dependencies.
func NewModule(conn *db.DB, customers service.CustomerChecker, val *validator.Validator, bus events.Bus, log *logger.Logger) *Module {
	svc := service.New(repository.New(conn), customers, bus, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "tasks"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts task and calendar routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	g := ctx.Protected.Group("/tasks")
	g.GET("", m.handler.List)
	g.POST("", m.handler.Create)
	g.GET("/due-today", m.handler.DueToday)
	g.PATCH("/:id/status", m.handler.UpdateStatus)
	g.DELETE("/:id", m.handler.Delete)

	cal := ctx.Protected.Group("/calendar")
	cal.GET("/events", m.handler.ListEvents)
	cal.POST("/events", m.handler.CreateEvent)
	cal.GET("/events/:id/ics", m.handler.ExportEvent)
	cal.GET("/export", m.handler.ExportEvents)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
