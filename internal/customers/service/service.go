// Package service implements customer management: CRUD, status changes,
// interaction records, meeting notes and contact preferences.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"crm_backend/internal/customers/repository"
	"crm_backend/internal/customers/transport"
	"crm_backend/internal/domain"
	"crm_backend/internal/events"
	"crm_backend/platform/apperr"
	"crm_backend/platform/logger"
	"crm_backend/platform/phone"
	"crm_backend/platform/sanitize"
)

const (
	defaultPageSize = 50
	detailContacts  = 0
)

// Store is everything the service needs from persistence.
type Store interface {
	repository.CustomerStore
	repository.InteractionStore
	repository.DetailReader
}

// Service provides business logic for customers.
type Service struct {
	repo     Store
	eventBus events.Bus
	phones   *phone.Normalizer
	log      *logger.Logger
	now      func() time.Time
}

// New creates a new customers service.
func New(repo Store, eventBus events.Bus, phones *phone.Normalizer, log *logger.Logger) *Service {
	return &Service{repo: repo, eventBus: eventBus, phones: phones, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// BuildCustomer turns a validated create request into a new customer.
// Imports use it so imported rows get the same normalisation as API writes.
func BuildCustomer(req transport.CreateCustomerRequest, phones *phone.Normalizer, now time.Time) (domain.Customer, error) {
	name := sanitize.Text(req.Name)
	if name == "" {
		return domain.Customer{}, apperr.Validation("name is required")
	}
	status := domain.CustomerStatus(req.Status)
	if req.Status == "" {
		status = domain.CustomerStatusLead
	}
	if !status.Valid() {
		return domain.Customer{}, apperr.Validation("invalid status")
	}
	if req.CompanySize != nil && *req.CompanySize < 0 {
		return domain.Customer{}, apperr.Validation("company size must not be negative")
	}

	return domain.Customer{
		ID:          uuid.New(),
		Name:        name,
		Email:       domain.NormalizeEmail(req.Email),
		Phone:       phones.NormalizeE164(req.Phone),
		Company:     sanitize.Text(req.Company),
		Status:      status,
		CompanySize: req.CompanySize,
		LeadScore:   0,
		CreatedDate: now.UTC(),
	}, nil
}

// Create validates and stores a new customer.
func (s *Service) Create(ctx context.Context, req transport.CreateCustomerRequest) (transport.CustomerResponse, error) {
	customer, err := BuildCustomer(req, s.phones, s.now())
	if err != nil {
		return transport.CustomerResponse{}, err
	}
	if err := s.repo.Create(ctx, customer); err != nil {
		return transport.CustomerResponse{}, err
	}

	s.log.WithContext(ctx).Info("customer created", "id", customer.ID, "status", customer.Status)
	s.publish(ctx, events.CustomerCreated{
		BaseEvent:  events.NewBaseEvent(),
		CustomerID: customer.ID,
		Name:       customer.Name,
		Status:     string(customer.Status),
		Source:     "api",
	})
	return ToResponse(customer), nil
}

// Get returns a single customer.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (transport.CustomerResponse, error) {
	customer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.CustomerResponse{}, err
	}
	return ToResponse(customer), nil
}

// List returns customers matching the filter.
func (s *Service) List(ctx context.Context, req transport.ListCustomersRequest) (transport.CustomerListResponse, error) {
	page, pageSize := req.Page, req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	params := repository.ListParams{
		Search: req.Search,
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	}
	for _, st := range req.Status {
		status := domain.CustomerStatus(st)
		if !status.Valid() {
			return transport.CustomerListResponse{}, apperr.Validation("invalid status filter")
		}
		params.Statuses = append(params.Statuses, status)
	}

	items, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.CustomerListResponse{}, err
	}

	resp := transport.CustomerListResponse{
		Items:    make([]transport.CustomerResponse, len(items)),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
	for i, item := range items {
		resp.Items[i] = ToResponse(item)
	}
	return resp, nil
}

// Update changes the editable fields of a customer.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateCustomerRequest) (transport.CustomerResponse, error) {
	customer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.CustomerResponse{}, err
	}

	if req.Name != nil {
		name := sanitize.Text(*req.Name)
		if name == "" {
			return transport.CustomerResponse{}, apperr.Validation("name is required")
		}
		customer.Name = name
	}
	if req.Email != nil {
		customer.Email = domain.NormalizeEmail(*req.Email)
	}
	if req.Phone != nil {
		customer.Phone = s.phones.NormalizeE164(*req.Phone)
	}
	if req.Company != nil {
		customer.Company = sanitize.Text(*req.Company)
	}
	if req.ClearCompanySize {
		if req.CompanySize != nil {
			return transport.CustomerResponse{}, apperr.Validation("companySize and clearCompanySize are mutually exclusive")
		}
		customer.CompanySize = nil
	}
	if req.CompanySize != nil {
		if *req.CompanySize < 0 {
			return transport.CustomerResponse{}, apperr.Validation("company size must not be negative")
		}
		customer.CompanySize = req.CompanySize
	}

	if err := s.repo.Update(ctx, customer); err != nil {
		return transport.CustomerResponse{}, err
	}
	s.log.WithContext(ctx).Info("customer updated", "id", customer.ID)
	s.publish(ctx, events.CustomerUpdated{BaseEvent: events.NewBaseEvent(), CustomerID: customer.ID})
	return ToResponse(customer), nil
}

// UpdateStatus moves a customer to another lifecycle state.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, req transport.UpdateStatusRequest) (transport.CustomerResponse, error) {
	status := domain.CustomerStatus(req.Status)
	if !status.Valid() {
		return transport.CustomerResponse{}, apperr.Validation("invalid status")
	}

	customer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.CustomerResponse{}, err
	}
	if customer.Status == status {
		return ToResponse(customer), nil
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return transport.CustomerResponse{}, err
	}
	old := customer.Status
	customer.Status = status

	s.log.WithContext(ctx).Info("customer status changed", "id", id, "from", old, "to", status)
	s.publish(ctx, events.CustomerStatusChanged{
		BaseEvent:  events.NewBaseEvent(),
		CustomerID: id,
		OldStatus:  string(old),
		NewStatus:  string(status),
	})
	return ToResponse(customer), nil
}

// Delete removes a customer that has no related records.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.NotFound("customer not found")
	}

	deps, err := s.repo.CountDependents(ctx, id)
	if err != nil {
		return err
	}
	if deps > 0 {
		return apperr.Conflict("customer still has related records").WithDetails(map[string]int{"dependents": deps})
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.WithContext(ctx).Info("customer deleted", "id", id)
	s.publish(ctx, events.CustomerDeleted{BaseEvent: events.NewBaseEvent(), CustomerID: id})
	return nil
}

// publish runs subscribers before returning. The write has already
// committed, so handler errors are logged rather than returned.
func (s *Service) publish(ctx context.Context, event events.Event) {
	if err := s.eventBus.PublishSync(ctx, event); err != nil {
		s.log.WithContext(ctx).Warn("event handler failed", "event", event.EventName(), "error", err)
	}
}

// Detail returns a customer with contacts, deals and tasks.
func (s *Service) Detail(ctx context.Context, id uuid.UUID) (transport.CustomerDetailResponse, error) {
	customer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.CustomerDetailResponse{}, err
	}
	contacts, err := s.repo.ListContacts(ctx, &id, detailContacts)
	if err != nil {
		return transport.CustomerDetailResponse{}, err
	}
	deals, err := s.repo.ListDealsForCustomer(ctx, id)
	if err != nil {
		return transport.CustomerDetailResponse{}, err
	}
	tasks, err := s.repo.ListTasksForCustomer(ctx, id)
	if err != nil {
		return transport.CustomerDetailResponse{}, err
	}

	resp := transport.CustomerDetailResponse{
		Customer: ToResponse(customer),
		Contacts: make([]transport.ContactResponse, len(contacts)),
		Deals:    make([]transport.DealSummary, len(deals)),
		Tasks:    make([]transport.TaskSummary, len(tasks)),
	}
	for i, c := range contacts {
		resp.Contacts[i] = toContactResponse(c)
	}
	for i, d := range deals {
		resp.Deals[i] = transport.DealSummary{
			ID: d.ID, Title: d.Title, Amount: d.Amount.StringFixed(2), Stage: string(d.Stage),
			Probability: d.Probability, ExpectedClose: d.ExpectedClose.UTC(),
		}
	}
	for i, t := range tasks {
		resp.Tasks[i] = transport.TaskSummary{ID: t.ID, Title: t.Title, DueDate: t.DueDate.UTC(), Status: string(t.Status)}
	}
	return resp, nil
}

// ToResponse maps a domain customer to its API representation.
func ToResponse(c domain.Customer) transport.CustomerResponse {
	var email *string
	if c.Email != "" {
		e := c.Email
		email = &e
	}
	return transport.CustomerResponse{
		ID:          c.ID,
		Name:        c.Name,
		Email:       email,
		Phone:       c.Phone,
		Company:     c.Company,
		Status:      string(c.Status),
		CompanySize: c.CompanySize,
		LeadScore:   c.LeadScore,
		CreatedDate: c.CreatedDate,
	}
}
