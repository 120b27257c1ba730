// Package scoring provides the lead scoring bounded context module.
package scoring

import (
	"crm_backend/internal/events"
	apphttp "crm_backend/internal/http"
	"crm_backend/internal/scoring/handler"
	"crm_backend/internal/scoring/service"
	"crm_backend/platform/db"
	"crm_backend/platform/logger"
	"crm_backend/platform/validator"
)

// Module is the scoring bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the scoring module with all its dependencies.
// enqueuer may be nil, in which case async runs are rejected.
func NewModule(conn *db.DB, val *validator.Validator, bus events.Bus, enqueuer service.Enqueuer, log *logger.Logger) *Module {
	svc := service.New(conn, bus, log)
	if enqueuer != nil {
		svc.SetEnqueuer(enqueuer)
	}
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "scoring"
}

// Service returns the service layer for the scheduler and the CLI.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts lead scoring routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	g := ctx.Protected.Group("/lead-scoring")
	g.POST("/run", m.handler.Run)
	g.GET("/leads", m.handler.RankedLeads)
	g.GET("/rules", m.handler.ListRules)
	g.POST("/rules", m.handler.CreateRule)
	g.DELETE("/rules/:id", m.handler.DeleteRule)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
