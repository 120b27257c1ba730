// Package service implements follow-up tasks and the team calendar.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"crm_backend/internal/domain"
	"crm_backend/internal/events"
	"crm_backend/internal/tasks/repository"
	"crm_backend/internal/tasks/transport"
	"crm_backend/platform/apperr"
	"crm_backend/platform/logger"
	"crm_backend/platform/sanitize"
)

// CustomerChecker reports whether a customer exists.
type CustomerChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Store is the persistence the service needs.
type Store interface {
	Create(ctx context.Context, t domain.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (repository.TaskWithCustomer, error)
	List(ctx context.Context, params repository.ListParams) ([]repository.TaskWithCustomer, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TaskStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	CreateEvent(ctx context.Context, e repository.CalendarEvent) error
	GetEvent(ctx context.Context, id uuid.UUID) (repository.CalendarEvent, error)
	ListEvents(ctx context.Context, from, to *time.Time) ([]repository.CalendarEvent, error)
}

// Service provides business logic for tasks and calendar events.
type Service struct {
	repo      Store
	customers CustomerChecker
	eventBus  events.Bus
	log       *logger.Logger
	now       func() time.Time
}

// New creates a new tasks service.
func New(repo Store, customers CustomerChecker, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, customers: customers, eventBus: eventBus, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// BuildTask turns a validated create request into a new task.
func BuildTask(req transport.CreateTaskRequest, now time.Time) (domain.Task, error) {
	status := domain.TaskStatus(req.Status)
	if req.Status == "" {
		status = domain.TaskStatusNotStarted
	}
	if !status.Valid() {
		return domain.Task{}, apperr.Validation("invalid status")
	}
	title := sanitize.Text(req.Title)
	if title == "" {
		return domain.Task{}, apperr.Validation("title is required")
	}
	return domain.Task{
		ID:          uuid.New(),
		CustomerID:  req.CustomerID,
		Title:       title,
		Description: sanitize.Text(req.Description),
		DueDate:     req.DueDate.UTC(),
		Status:      status,
		CreatedAt:   now.UTC(),
	}, nil
}

// Create stores a task for an existing customer.
func (s *Service) Create(ctx context.Context, req transport.CreateTaskRequest) (transport.TaskResponse, error) {
	task, err := BuildTask(req, s.now())
	if err != nil {
		return transport.TaskResponse{}, err
	}
	if err := s.requireCustomer(ctx, task.CustomerID); err != nil {
		return transport.TaskResponse{}, err
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return transport.TaskResponse{}, err
	}

	s.log.WithContext(ctx).Info("task created", "id", task.ID, "customerId", task.CustomerID)
	s.publish(ctx, events.TaskCreated{
		BaseEvent:  events.NewBaseEvent(),
		TaskID:     task.ID,
		CustomerID: task.CustomerID,
		Title:      task.Title,
	})
	return toTaskResponse(repository.TaskWithCustomer{Task: task}), nil
}

// List returns tasks by due date.
func (s *Service) List(ctx context.Context, req transport.ListTasksRequest) ([]transport.TaskResponse, error) {
	var params repository.ListParams
	if req.CustomerID != "" {
		id, err := uuid.Parse(req.CustomerID)
		if err != nil {
			return nil, apperr.BadRequest("invalid customer ID")
		}
		params.CustomerID = &id
	}
	for _, st := range req.Status {
		status := domain.TaskStatus(st)
		if !status.Valid() {
			return nil, apperr.Validation("invalid status filter")
		}
		params.Statuses = append(params.Statuses, status)
	}
	return s.list(ctx, params)
}

// DueToday returns unfinished tasks due within the current UTC day.
func (s *Service) DueToday(ctx context.Context) ([]transport.TaskResponse, error) {
	return s.DueOn(ctx, s.now())
}

// DueOn returns unfinished tasks due on the calendar day containing day.
func (s *Service) DueOn(ctx context.Context, day time.Time) ([]transport.TaskResponse, error) {
	start, end := domain.DayBounds(day.UTC())
	return s.list(ctx, repository.ListParams{DueFrom: &start, DueBefore: &end, ExcludeCompleted: true})
}

// UpdateStatus changes a task's status.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, req transport.UpdateTaskStatusRequest) (transport.TaskResponse, error) {
	status := domain.TaskStatus(req.Status)
	if !status.Valid() {
		return transport.TaskResponse{}, apperr.Validation("invalid status")
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return transport.TaskResponse{}, err
	}
	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.TaskResponse{}, err
	}
	s.log.WithContext(ctx).Info("task status changed", "id", id, "status", status)
	s.publish(ctx, events.TaskStatusChanged{BaseEvent: events.NewBaseEvent(), TaskID: id, Status: string(status)})
	return toTaskResponse(task), nil
}

// Delete removes a task.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.WithContext(ctx).Info("task deleted", "id", id)
	s.publish(ctx, events.TaskDeleted{BaseEvent: events.NewBaseEvent(), TaskID: id})
	return nil
}

func (s *Service) list(ctx context.Context, params repository.ListParams) ([]transport.TaskResponse, error) {
	items, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, err
	}
	out := make([]transport.TaskResponse, len(items))
	for i, item := range items {
		out[i] = toTaskResponse(item)
	}
	return out, nil
}

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

func toTaskResponse(t repository.TaskWithCustomer) transport.TaskResponse {
	return transport.TaskResponse{
		ID:           t.ID,
		CustomerID:   t.CustomerID,
		CustomerName: t.CustomerName,
		Title:        t.Title,
		Description:  t.Description,
		DueDate:      t.DueDate,
		Status:       string(t.Status),
		CreatedAt:    t.CreatedAt,
	}
}
