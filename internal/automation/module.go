// Package automation stores workflow and automation rule definitions.
package automation

import (
	"crm_backend/internal/automation/handler"
	"crm_backend/internal/automation/repository"
	"crm_backend/internal/automation/service"
	apphttp "crm_backend/internal/http"
	"crm_backend/platform/db"
	"crm_backend/platform/logger"
	"crm_backend/platform/validator"
)

// Module is the automation module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires the automation module.
func NewModule(conn *db.DB, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repository.New(conn), log)
	return &Module{handler: handler.New(svc, val), service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "automation"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts automation routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	g := ctx.Protected.Group("/automation")
	g.GET("/workflows", m.handler.ListWorkflows)
	g.POST("/workflows", m.handler.CreateWorkflow)
	g.GET("/workflows/export", m.handler.ExportWorkflows)
	g.PATCH("/workflows/:id/status", m.handler.SetWorkflowStatus)
	g.DELETE("/workflows/:id", m.handler.DeleteWorkflow)
	g.GET("/rules", m.handler.ListRules)
	g.POST("/rules", m.handler.CreateRule)
	g.PATCH("/rules/:id/active", m.handler.SetRuleActive)
	g.DELETE("/rules/:id", m.handler.DeleteRule)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
