// Package service implements campaigns, content and lead capture.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"crm_backend/internal/events"
	"crm_backend/internal/marketing/repository"
	"crm_backend/internal/marketing/transport"
	"crm_backend/platform/apperr"
	"crm_backend/platform/db"
	"crm_backend/platform/logger"
	"crm_backend/platform/phone"
	"crm_backend/platform/sanitize"
)

const (
	campaignStatusDraft = "draft"
	postStatusDraft     = "draft"
	dateLayout          = "2006-01-02"
)

// Store is the persistence boundary of the marketing module.
type Store interface {
	CreateCampaign(ctx context.Context, c repository.Campaign) error
	ListCampaigns(ctx context.Context) ([]repository.Campaign, error)
	GetCampaign(ctx context.Context, id uuid.UUID) (repository.Campaign, error)
	UpdateCampaignStatus(ctx context.Context, id uuid.UUID, status string) error
	DeleteCampaign(ctx context.Context, id uuid.UUID) error
	CreateKeyword(ctx context.Context, k repository.Keyword) error
	ListKeywords(ctx context.Context) ([]repository.Keyword, error)
	UpdateKeywordRanking(ctx context.Context, id uuid.UUID, ranking *int) error
	CreatePage(ctx context.Context, p repository.LandingPage) error
	GetPage(ctx context.Context, id uuid.UUID) (repository.LandingPage, error)
	ListPages(ctx context.Context) ([]repository.LandingPage, error)
	SetPagePublished(ctx context.Context, id uuid.UUID, published bool) error
	RecordVisit(ctx context.Context, id uuid.UUID) error
	CreatePost(ctx context.Context, p repository.BlogPost) error
	ListPosts(ctx context.Context) ([]repository.BlogPost, error)
	PublishPost(ctx context.Context, id uuid.UUID, at time.Time) error
	CreateForm(ctx context.Context, f repository.Form) error
	GetForm(ctx context.Context, id uuid.UUID) (repository.Form, error)
	ListForms(ctx context.Context) ([]repository.Form, error)
	ContentPerformance(ctx context.Context) ([]repository.ContentStat, error)
}

// TxRunner runs fn inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(q db.Querier) error) error
}

// Service provides marketing operations.
type Service struct {
	repo     Store
	tx       TxRunner
	eventBus events.Bus
	phones   *phone.Normalizer
	baseURL  string
	log      *logger.Logger
	now      func() time.Time
}

// New creates a marketing service. baseURL is the public address used in
// landing page links and QR codes.
func New(repo Store, tx TxRunner, eventBus events.Bus, phones *phone.Normalizer, baseURL string, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		tx:       tx,
		eventBus: eventBus,
		phones:   phones,
		baseURL:  baseURL,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateCampaign stores a new campaign in draft status.
func (s *Service) CreateCampaign(ctx context.Context, req transport.CreateCampaignRequest) (transport.CampaignResponse, error) {
	if req.Budget.IsNegative() {
		return transport.CampaignResponse{}, apperr.Validation("budget must not be negative")
	}
	if req.EndDate.Before(req.StartDate) {
		return transport.CampaignResponse{}, apperr.Validation("end date is before start date")
	}
	c := repository.Campaign{
		ID:             uuid.New(),
		Name:           sanitize.Text(req.Name),
		Type:           req.Type,
		Status:         campaignStatusDraft,
		StartDate:      req.StartDate.UTC(),
		EndDate:        req.EndDate.UTC(),
		Budget:         req.Budget,
		TargetAudience: sanitize.Text(req.TargetAudience),
		CreatedAt:      s.now(),
	}
	if err := s.repo.CreateCampaign(ctx, c); err != nil {
		return transport.CampaignResponse{}, err
	}
	s.log.WithContext(ctx).Info("campaign created", "id", c.ID, "type", c.Type)
	return toCampaignResponse(c), nil
}

// ListCampaigns returns all campaigns.
func (s *Service) ListCampaigns(ctx context.Context) ([]transport.CampaignResponse, error) {
	items, err := s.repo.ListCampaigns(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]transport.CampaignResponse, len(items))
	for i, c := range items {
		out[i] = toCampaignResponse(c)
	}
	return out, nil
}

// UpdateCampaignStatus changes a campaign's status.
func (s *Service) UpdateCampaignStatus(ctx context.Context, id uuid.UUID, req transport.UpdateCampaignStatusRequest) (transport.CampaignResponse, error) {
	if err := s.repo.UpdateCampaignStatus(ctx, id, req.Status); err != nil {
		return transport.CampaignResponse{}, err
	}
	c, err := s.repo.GetCampaign(ctx, id)
	if err != nil {
		return transport.CampaignResponse{}, err
	}
	s.log.WithContext(ctx).Info("campaign status updated", "id", id, "status", req.Status)
	return toCampaignResponse(c), nil
}

// DeleteCampaign removes a campaign.
func (s *Service) DeleteCampaign(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteCampaign(ctx, id); err != nil {
		return err
	}
	s.log.WithContext(ctx).Info("campaign deleted", "id", id)
	return nil
}

// CreateKeyword starts tracking a keyword.
func (s *Service) CreateKeyword(ctx context.Context, req transport.CreateKeywordRequest) (transport.KeywordResponse, error) {
	if req.Difficulty < 1 || req.Difficulty > 100 {
		return transport.KeywordResponse{}, apperr.Validation("difficulty must be between 1 and 100")
	}
	k := repository.Keyword{
		ID:         uuid.New(),
		Keyword:    sanitize.Text(req.Keyword),
		Difficulty: req.Difficulty,
		Volume:     req.Volume,
		Ranking:    req.Ranking,
		CreatedAt:  s.now(),
	}
	if err := s.repo.CreateKeyword(ctx, k); err != nil {
		return transport.KeywordResponse{}, err
	}
	s.log.WithContext(ctx).Info("keyword tracked", "id", k.ID)
	return toKeywordResponse(k), nil
}

// ListKeywords returns tracked keywords.
func (s *Service) ListKeywords(ctx context.Context) ([]transport.KeywordResponse, error) {
	items, err := s.repo.ListKeywords(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]transport.KeywordResponse, len(items))
	for i, k := range items {
		out[i] = toKeywordResponse(k)
	}
	return out, nil
}

// UpdateKeywordRanking records the current search position of a keyword.
func (s *Service) UpdateKeywordRanking(ctx context.Context, id uuid.UUID, req transport.UpdateRankingRequest) error {
	return s.repo.UpdateKeywordRanking(ctx, id, req.Ranking)
}

// ContentPerformance reports visits per landing page and blog post.
func (s *Service) ContentPerformance(ctx context.Context) ([]transport.ContentStat, error) {
	items, err := s.repo.ContentPerformance(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]transport.ContentStat, len(items))
	for i, st := range items {
		out[i] = transport.ContentStat{ID: st.ID, Title: st.Title, Kind: st.Kind, Visits: st.Visits}
	}
	return out, nil
}

func toCampaignResponse(c repository.Campaign) transport.CampaignResponse {
	return transport.CampaignResponse{
		ID:             c.ID,
		Name:           c.Name,
		Type:           c.Type,
		Status:         c.Status,
		StartDate:      c.StartDate.Format(dateLayout),
		EndDate:        c.EndDate.Format(dateLayout),
		Budget:         c.Budget.StringFixed(2),
		TargetAudience: c.TargetAudience,
		CreatedAt:      c.CreatedAt,
	}
}

func toKeywordResponse(k repository.Keyword) transport.KeywordResponse {
	return transport.KeywordResponse{
		ID:         k.ID,
		Keyword:    k.Keyword,
		Difficulty: k.Difficulty,
		Volume:     k.Volume,
		Ranking:    k.Ranking,
		CreatedAt:  k.CreatedAt,
	}
}
