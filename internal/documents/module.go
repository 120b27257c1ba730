// Package documents provides customer document storage.
package documents

import (
	"crm_backend/internal/adapters/storage"
	"crm_backend/internal/documents/handler"
	"crm_backend/internal/documents/repository"
	"crm_backend/internal/documents/service"
	"crm_backend/internal/events"
	apphttp "crm_backend/internal/http"
	"crm_backend/platform/db"
	"crm_backend/platform/logger"
	"crm_backend/platform/validator"
)

// Module is the documents bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule wires the documents module. objects may be nil, in which case
// content is kept in the documents table.
func NewModule(conn *db.DB, customers service.CustomerChecker, objects storage.ObjectStore, maxSize int64, val *validator.Validator, bus events.Bus, log *logger.Logger) *Module {
	svc := service.New(repository.New(conn), customers, objects, maxSize, bus, log)
	return &Module{handler: handler.New(svc, val)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "documents"
}

// RegisterRoutes mounts document routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	g := ctx.Protected.Group("/documents")
	g.GET("", m.handler.List)
	g.POST("", m.handler.Upload)
	g.GET("/:id", m.handler.Get)
	g.GET("/:id/content", m.handler.Download)
	g.GET("/:id/url", m.handler.DownloadURL)
	g.DELETE("/:id", m.handler.Delete)

	ctx.Protected.GET("/customers/:id/documents", m.handler.ListForCustomer)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
