// Package marketing provides campaigns, landing pages, blog posts, lead
// capture forms and keyword tracking.
package marketing

import (
	"time"

	"golang.org/x/time/rate"

	"crm_backend/internal/events"
	apphttp "crm_backend/internal/http"
	"crm_backend/internal/marketing/handler"
	"crm_backend/internal/marketing/repository"
	"crm_backend/internal/marketing/service"
	"crm_backend/platform/config"
	"crm_backend/platform/db"
	"crm_backend/platform/httpkit"
	"crm_backend/platform/logger"
	"crm_backend/platform/phone"
	"crm_backend/platform/validator"
)

// Module is the marketing module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	limiter *httpkit.IPRateLimiter
}

// NewModule wires the marketing module.
func NewModule(conn *db.DB, cfg config.PublicURLConfig, val *validator.Validator, bus events.Bus, phones *phone.Normalizer, log *logger.Logger) *Module {
	svc := service.New(repository.New(conn), conn, bus, phones, cfg.GetAppBaseURL(), log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		limiter: httpkit.NewIPRateLimiter(rate.Every(6*time.Second), 10, log),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "marketing"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts the marketing routes. Page visits and form
// submissions are public.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	g := ctx.Protected.Group("/marketing")
	g.GET("/campaigns", m.handler.ListCampaigns)
	g.POST("/campaigns", m.handler.CreateCampaign)
	g.PATCH("/campaigns/:id/status", m.handler.UpdateCampaignStatus)
	g.DELETE("/campaigns/:id", m.handler.DeleteCampaign)

	g.GET("/pages", m.handler.ListPages)
	g.POST("/pages", m.handler.CreatePage)
	g.PUT("/pages/:id/published", m.handler.SetPublished)
	g.GET("/pages/:id/qr", m.handler.PageQRCode)

	g.GET("/posts", m.handler.ListPosts)
	g.POST("/posts", m.handler.CreatePost)
	g.POST("/posts/:id/publish", m.handler.PublishPost)

	g.GET("/forms", m.handler.ListForms)
	g.POST("/forms", m.handler.CreateForm)

	g.GET("/keywords", m.handler.ListKeywords)
	g.POST("/keywords", m.handler.CreateKeyword)
	g.PUT("/keywords/:id/ranking", m.handler.UpdateKeywordRanking)

	g.GET("/content-performance", m.handler.ContentPerformance)

	public := ctx.V1.Group("/public")
	public.GET("/pages/:id", m.handler.VisitPage)
	public.GET("/forms/:id", m.handler.GetForm)
	public.POST("/forms/:id/submissions", m.limiter.RateLimit(), m.handler.SubmitForm)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
