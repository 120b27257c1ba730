// Package messaging provides internal messages between CRM users.
package messaging

import (
	"crm_backend/internal/events"
	apphttp "crm_backend/internal/http"
	"crm_backend/internal/messaging/handler"
	"crm_backend/internal/messaging/repository"
	"crm_backend/internal/messaging/service"
	"crm_backend/platform/db"
	"crm_backend/platform/logger"
	"crm_backend/platform/validator"
)

// Module is the messaging bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule wires the messaging module. users is usually the auth user provider.
func NewModule(conn *db.DB, users service.UserChecker, val *validator.Validator, bus events.Bus, log *logger.Logger) *Module {
	svc := service.New(repository.New(conn), users, bus, log)
	return &Module{handler: handler.New(svc, val)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "messaging"
}

// RegisterRoutes mounts message routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	g := ctx.Protected.Group("/messages")
	g.POST("", m.handler.Send)
	g.GET("/inbox", m.handler.Inbox)
	g.GET("/sent", m.handler.Sent)
	g.PATCH("/:id/read", m.handler.MarkRead)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
