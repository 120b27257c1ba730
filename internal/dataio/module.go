// Package dataio provides CSV export and import and custom field definitions.
package dataio

import (
	commsrepo "crm_backend/internal/communications/repository"
	customersrepo "crm_backend/internal/customers/repository"
	"crm_backend/internal/dataio/handler"
	"crm_backend/internal/dataio/repository"
	"crm_backend/internal/dataio/service"
	dealsrepo "crm_backend/internal/deals/repository"
	"crm_backend/internal/events"
	apphttp "crm_backend/internal/http"
	tasksrepo "crm_backend/internal/tasks/repository"
	"crm_backend/platform/db"
	"crm_backend/platform/logger"
	"crm_backend/platform/phone"
	"crm_backend/platform/validator"
)

// Module is the data management module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires the data management module over the shared connection.
func NewModule(conn *db.DB, val *validator.Validator, bus events.Bus, phones *phone.Normalizer, log *logger.Logger) *Module {
	svc := NewService(conn, val, bus, phones, log)
	return &Module{handler: handler.New(svc, val), service: svc}
}

// NewService builds the data service without HTTP wiring. The CLI uses it.
func NewService(conn *db.DB, val *validator.Validator, bus events.Bus, phones *phone.Normalizer, log *logger.Logger) *service.Service {
	sources := service.Sources{
		Customers: customersrepo.New(conn),
		Deals:     dealsrepo.New(conn),
		Tasks:     tasksrepo.New(conn),
		Logs:      commsrepo.New(conn),
	}
	return service.New(repository.New(conn), sources, conn, val, phones, bus, log)
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "dataio"
}

// Service returns the data service.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts data management routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	g := ctx.Protected.Group("/data")
	g.GET("/export/:entity", m.handler.Export)
	g.POST("/import/:entity", m.handler.Import)
	g.GET("/custom-fields", m.handler.ListCustomFields)
	g.POST("/custom-fields", m.handler.CreateCustomField)
	g.DELETE("/custom-fields/:id", m.handler.DeleteCustomField)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
