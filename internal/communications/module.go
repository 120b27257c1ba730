// Package communications provides email templates, customer emails and the
// communication log.
package communications

import (
	"crm_backend/internal/communications/handler"
	"crm_backend/internal/communications/repository"
	"crm_backend/internal/communications/service"
	dealsrepo "crm_backend/internal/deals/repository"
	"crm_backend/internal/email"
	apphttp "crm_backend/internal/http"
	tasksrepo "crm_backend/internal/tasks/repository"
	"crm_backend/platform/db"
	"crm_backend/platform/logger"
	"crm_backend/platform/validator"
)

// Module is the communications module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule wires the communications module.
func NewModule(conn *db.DB, customers service.CustomerReader, sender email.Sender, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(conn)
	svc := service.New(repo, customers, dealsrepo.New(conn), tasksrepo.New(conn), sender, log)
	return &Module{handler: handler.New(svc, val), service: svc, repo: repo}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "communications"
}

// Repository returns the repository, used by exports.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts communications routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	g := ctx.Protected.Group("/communications")
	g.GET("/templates", m.handler.ListTemplates)
	g.POST("/templates", m.handler.CreateTemplate)
	g.PUT("/templates/:id", m.handler.UpdateTemplate)
	g.DELETE("/templates/:id", m.handler.DeleteTemplate)
	g.POST("/emails", m.handler.Send)
	g.POST("/emails/preview", m.handler.Preview)
	g.GET("/logs", m.handler.ListLogs)
	g.POST("/logs", m.handler.Record)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
