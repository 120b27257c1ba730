// Package service implements deal management and the pipeline view.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"crm_backend/internal/deals/repository"
	"crm_backend/internal/deals/transport"
	"crm_backend/internal/domain"
	"crm_backend/internal/events"
	"crm_backend/platform/apperr"
	"crm_backend/platform/logger"
	"crm_backend/platform/sanitize"
)

const defaultPageSize = 50

// CustomerChecker reports whether a customer exists.
type CustomerChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Store is the persistence the service needs.
type Store interface {
	Create(ctx context.Context, d domain.Deal) error
	GetByID(ctx context.Context, id uuid.UUID) (repository.DealWithCustomer, error)
	List(ctx context.Context, params repository.ListParams) ([]repository.DealWithCustomer, int, error)
	Update(ctx context.Context, d domain.Deal) error
	UpdateStage(ctx context.Context, id uuid.UUID, stage domain.DealStage) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service provides business logic for deals.
type Service struct {
	repo      Store
	customers CustomerChecker
	eventBus  events.Bus
	log       *logger.Logger
	now       func() time.Time
}

// New creates a new deals service.
func New(repo Store, customers CustomerChecker, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, customers: customers, eventBus: eventBus, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// BuildDeal turns a validated create request into a new deal.
func BuildDeal(req transport.CreateDealRequest, now time.Time) (domain.Deal, error) {
	stage := domain.DealStage(req.Stage)
	if req.Stage == "" {
		stage = domain.DealStageProspecting
	}
	deal := domain.Deal{
		ID:            uuid.New(),
		CustomerID:    req.CustomerID,
		OwnerID:       req.OwnerID,
		Title:         sanitize.Text(req.Title),
		Amount:        req.Amount,
		Stage:         stage,
		Probability:   req.Probability,
		ExpectedClose: req.ExpectedClose.UTC(),
		CreatedAt:     now.UTC(),
	}
	if deal.Title == "" {
		return domain.Deal{}, apperr.Validation("title is required")
	}
	if err := deal.Validate(); err != nil {
		return domain.Deal{}, apperr.Validation(err.Error())
	}
	return deal, nil
}

// Create validates and stores a new deal for an existing customer.
func (s *Service) Create(ctx context.Context, req transport.CreateDealRequest) (transport.DealResponse, error) {
	deal, err := BuildDeal(req, s.now())
	if err != nil {
		return transport.DealResponse{}, err
	}
	if err := s.requireCustomer(ctx, deal.CustomerID); err != nil {
		return transport.DealResponse{}, err
	}
	if err := s.repo.Create(ctx, deal); err != nil {
		return transport.DealResponse{}, err
	}

	s.log.WithContext(ctx).Info("deal created", "id", deal.ID, "customerId", deal.CustomerID, "stage", deal.Stage)
	s.publish(ctx, events.DealCreated{
		BaseEvent:  events.NewBaseEvent(),
		DealID:     deal.ID,
		CustomerID: deal.CustomerID,
		Stage:      string(deal.Stage),
		Amount:     deal.Amount.StringFixed(2),
	})
	return toResponse(repository.DealWithCustomer{Deal: deal}), nil
}

// Get returns a single deal.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (transport.DealResponse, error) {
	deal, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.DealResponse{}, err
	}
	return toResponse(deal), nil
}

// List returns deals matching the filter.
func (s *Service) List(ctx context.Context, req transport.ListDealsRequest) (transport.DealListResponse, error) {
	page, pageSize := req.Page, req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	params := repository.ListParams{Limit: pageSize, Offset: (page - 1) * pageSize}
	if req.CustomerID != "" {
		id, err := uuid.Parse(req.CustomerID)
		if err != nil {
			return transport.DealListResponse{}, apperr.BadRequest("invalid customer ID")
		}
		params.CustomerID = &id
	}
	if req.OwnerID != "" {
		id, err := uuid.Parse(req.OwnerID)
		if err != nil {
			return transport.DealListResponse{}, apperr.BadRequest("invalid owner ID")
		}
		params.OwnerID = &id
	}
	for _, st := range req.Stage {
		stage := domain.DealStage(st)
		if !stage.Valid() {
			return transport.DealListResponse{}, apperr.Validation("invalid stage filter")
		}
		params.Stages = append(params.Stages, stage)
	}

	items, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.DealListResponse{}, err
	}
	resp := transport.DealListResponse{
		Items:    make([]transport.DealResponse, len(items)),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
	for i, item := range items {
		resp.Items[i] = toResponse(item)
	}
	return resp, nil
}

// Update changes the editable fields of a deal.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateDealRequest) (transport.DealResponse, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.DealResponse{}, err
	}
	deal := current.Deal
	oldStage := deal.Stage

	if req.OwnerID != nil {
		deal.OwnerID = req.OwnerID
	}
	if req.Title != nil {
		deal.Title = sanitize.Text(*req.Title)
		if deal.Title == "" {
			return transport.DealResponse{}, apperr.Validation("title is required")
		}
	}
	if req.Amount != nil {
		deal.Amount = *req.Amount
	}
	if req.Stage != nil {
		deal.Stage = domain.DealStage(*req.Stage)
	}
	if req.Probability != nil {
		deal.Probability = *req.Probability
	}
	if req.ExpectedClose != nil {
		deal.ExpectedClose = req.ExpectedClose.UTC()
	}
	if err := deal.Validate(); err != nil {
		return transport.DealResponse{}, apperr.Validation(err.Error())
	}

	if err := s.repo.Update(ctx, deal); err != nil {
		return transport.DealResponse{}, err
	}
	s.log.WithContext(ctx).Info("deal updated", "id", id)
	s.publish(ctx, events.DealUpdated{
		BaseEvent:  events.NewBaseEvent(),
		DealID:     deal.ID,
		CustomerID: deal.CustomerID,
		Amount:     deal.Amount.StringFixed(2),
	})
	if deal.Stage != oldStage {
		s.publishStageChange(ctx, deal, oldStage)
	}

	current.Deal = deal
	return toResponse(current), nil
}

// UpdateStage moves a deal to any other stage.
func (s *Service) UpdateStage(ctx context.Context, id uuid.UUID, req transport.UpdateStageRequest) (transport.DealResponse, error) {
	stage := domain.DealStage(req.Stage)
	if !stage.Valid() {
		return transport.DealResponse{}, apperr.Validation("invalid stage")
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.DealResponse{}, err
	}
	if current.Stage == stage {
		return toResponse(current), nil
	}

	if err := s.repo.UpdateStage(ctx, id, stage); err != nil {
		return transport.DealResponse{}, err
	}
	oldStage := current.Stage
	current.Stage = stage

	s.log.WithContext(ctx).Info("deal stage changed", "id", id, "from", oldStage, "to", stage)
	s.publishStageChange(ctx, current.Deal, oldStage)
	return toResponse(current), nil
}

// Delete removes a deal.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.WithContext(ctx).Info("deal deleted", "id", id)
	s.publish(ctx, events.DealDeleted{BaseEvent: events.NewBaseEvent(), DealID: id})
	return nil
}

// Pipeline returns open deals grouped by stage in pipeline order. Closed Lost
// deals are excluded; every open stage is present even when empty.
func (s *Service) Pipeline(ctx context.Context) (transport.PipelineResponse, error) {
	items, _, err := s.repo.List(ctx, repository.ListParams{OpenOnly: true})
	if err != nil {
		return transport.PipelineResponse{}, err
	}
	return BuildPipeline(items), nil
}

// BuildPipeline groups deals by open stage.
func BuildPipeline(items []repository.DealWithCustomer) transport.PipelineResponse {
	byStage := make(map[domain.DealStage][]repository.DealWithCustomer)
	for _, item := range items {
		if !item.Stage.IsOpen() {
			continue
		}
		byStage[item.Stage] = append(byStage[item.Stage], item)
	}

	resp := transport.PipelineResponse{Stages: make([]transport.PipelineStage, 0, len(domain.DealStages))}
	total := decimal.Zero
	for _, stage := range domain.DealStages {
		if !stage.IsOpen() {
			continue
		}
		deals := byStage[stage]
		sum := decimal.Zero
		col := transport.PipelineStage{Stage: string(stage), Count: len(deals), Deals: make([]transport.DealResponse, len(deals))}
		for i, d := range deals {
			sum = sum.Add(d.Amount)
			col.Deals[i] = toResponse(d)
		}
		col.Amount = sum.StringFixed(2)
		resp.Stages = append(resp.Stages, col)
		resp.TotalCount += len(deals)
		total = total.Add(sum)
	}
	resp.TotalValue = total.StringFixed(2)
	return resp
}

func (s *Service) publishStageChange(ctx context.Context, deal domain.Deal, old domain.DealStage) {
	s.publish(ctx, events.DealStageChanged{
		BaseEvent:  events.NewBaseEvent(),
		DealID:     deal.ID,
		CustomerID: deal.CustomerID,
		OldStage:   string(old),
		NewStage:   string(deal.Stage),
	})
}

// publish runs subscribers before returning. Handler errors are logged
// because the write has already committed.
func (s *Service) publish(ctx context.Context, event events.Event) {
	if err := s.eventBus.PublishSync(ctx, event); err != nil {
		s.log.WithContext(ctx).Warn("event handler failed", "event", event.EventName(), "error", err)
	}
}

func (s *Service) requireCustomer(ctx context.Context, id uuid.UUID) error {
	ok, err := s.customers.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("customer not found")
	}
	return nil
}

func toResponse(d repository.DealWithCustomer) transport.DealResponse {
	return transport.DealResponse{
		ID:             d.ID,
		CustomerID:     d.CustomerID,
		CustomerName:   d.CustomerName,
		OwnerID:        d.OwnerID,
		Title:          d.Title,
		Amount:         d.Amount.StringFixed(2),
		WeightedAmount: d.WeightedAmount().StringFixed(2),
		Stage:          string(d.Stage),
		Probability:    d.Probability,
		ExpectedClose:  d.ExpectedClose,
		CreatedAt:      d.CreatedAt,
	}
}
