// Package service exports and imports CRM tables as CSV and manages custom
// field definitions.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	commsrepo "crm_backend/internal/communications/repository"
	"crm_backend/internal/dataio/repository"
	"crm_backend/internal/dataio/transport"
	"crm_backend/internal/domain"
	"crm_backend/internal/events"
	tasksrepo "crm_backend/internal/tasks/repository"
	"crm_backend/platform/apperr"
	"crm_backend/platform/db"
	"crm_backend/platform/logger"
	"crm_backend/platform/phone"
	"crm_backend/platform/sanitize"
	"crm_backend/platform/validator"
)

type CustomerLister interface {
	ListAll(ctx context.Context) ([]domain.Customer, error)
}

type DealLister interface {
	ListAll(ctx context.Context) ([]domain.Deal, error)
}

type TaskLister interface {
	List(ctx context.Context, params tasksrepo.ListParams) ([]tasksrepo.TaskWithCustomer, error)
}

type LogLister interface {
	ListLogs(ctx context.Context, customerID *uuid.UUID, limit int) ([]commsrepo.Log, error)
}

// Sources are the tables an export reads.
type Sources struct {
	Customers CustomerLister
	Deals     DealLister
	Tasks     TaskLister
	Logs      LogLister
}

type FieldStore interface {
	CreateCustomField(ctx context.Context, f repository.CustomField) error
	ListCustomFields(ctx context.Context, entityType string) ([]repository.CustomField, error)
	DeleteCustomField(ctx context.Context, id uuid.UUID) error
}

// TxRunner runs fn inside one database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(q db.Querier) error) error
}

type Service struct {
	fields   FieldStore
	sources  Sources
	tx       TxRunner
	val      *validator.Validator
	phones   *phone.Normalizer
	eventBus events.Bus
	log      *logger.Logger
	now      func() time.Time
}

func New(fields FieldStore, sources Sources, tx TxRunner, val *validator.Validator, phones *phone.Normalizer, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{
		fields:   fields,
		sources:  sources,
		tx:       tx,
		val:      val,
		phones:   phones,
		eventBus: eventBus,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) CreateCustomField(ctx context.Context, req transport.CreateCustomFieldRequest) (transport.CustomFieldResponse, error) {
	name := sanitize.Text(req.FieldName)
	if name == "" {
		return transport.CustomFieldResponse{}, apperr.Validation("field name is required")
	}
	f := repository.CustomField{
		ID:         uuid.New(),
		EntityType: req.EntityType,
		FieldName:  name,
		FieldType:  req.FieldType,
		Required:   req.Required,
		CreatedAt:  s.now(),
	}
	if err := s.fields.CreateCustomField(ctx, f); err != nil {
		return transport.CustomFieldResponse{}, err
	}
	s.log.WithContext(ctx).Info("custom field created", "entity", f.EntityType, "field", f.FieldName)
	return toFieldResponse(f), nil
}

func (s *Service) ListCustomFields(ctx context.Context, entityType string) ([]transport.CustomFieldResponse, error) {
	fields, err := s.fields.ListCustomFields(ctx, entityType)
	if err != nil {
		return nil, err
	}
	out := make([]transport.CustomFieldResponse, 0, len(fields))
	for _, f := range fields {
		out = append(out, toFieldResponse(f))
	}
	return out, nil
}

func (s *Service) DeleteCustomField(ctx context.Context, id uuid.UUID) error {
	return s.fields.DeleteCustomField(ctx, id)
}

func toFieldResponse(f repository.CustomField) transport.CustomFieldResponse {
	return transport.CustomFieldResponse{
		ID:         f.ID.String(),
		EntityType: f.EntityType,
		FieldName:  f.FieldName,
		FieldType:  f.FieldType,
		Required:   f.Required,
		CreatedAt:  f.CreatedAt,
	}
}

// rowErr prefixes err with the CSV line it came from, keeping its kind.
func rowErr(line int, err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return apperr.New(ae.Kind, fmt.Sprintf("line %d: %s", line, ae.Message))
	}
	return fmt.Errorf("line %d: %w", line, err)
}
