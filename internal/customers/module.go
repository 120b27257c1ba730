// Package customers provides the customers bounded context module: customer
// records, interaction history, meeting notes and contact preferences.
package customers

import (
	"crm_backend/internal/customers/handler"
	"crm_backend/internal/customers/repository"
	"crm_backend/internal/customers/service"
	"crm_backend/internal/events"
	apphttp "crm_backend/internal/http"
	"crm_backend/platform/db"
	"crm_backend/platform/logger"
	"crm_backend/platform/phone"
	"crm_backend/platform/validator"
)

// Module is the customers bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the customers module with all its dependencies.
func NewModule(conn *db.DB, val *validator.Validator, bus events.Bus, phones *phone.Normalizer, log *logger.Logger) *Module {
	repo := repository.New(conn)
	svc := service.New(repo, bus, phones, log)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "customers"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository so other modules can check customer existence.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts customer routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	g := ctx.Protected.Group("/customers")
	g.GET("", m.handler.List)
	g.POST("", m.handler.Create)
	g.GET("/:id", m.handler.Get)
	g.GET("/:id/detail", m.handler.Detail)
	g.PUT("/:id", m.handler.Update)
	g.PATCH("/:id/status", m.handler.UpdateStatus)
	g.DELETE("/:id", m.handler.Delete)

	g.GET("/:id/contacts", m.handler.ListCustomerContacts)
	g.POST("/:id/contacts", m.handler.LogContact)
	g.GET("/:id/meeting-notes", m.handler.ListMeetingNotes)
	g.POST("/:id/meeting-notes", m.handler.AddMeetingNote)
	g.GET("/:id/preferences", m.handler.GetPreferences)
	g.PUT("/:id/preferences", m.handler.SetPreferences)

	ctx.Protected.GET("/contacts", m.handler.ListContacts)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
