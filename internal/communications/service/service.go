// Package service manages email templates, sends customer emails and keeps
// the communication log.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"crm_backend/internal/communications/repository"
	"crm_backend/internal/communications/transport"
	dealsrepo "crm_backend/internal/deals/repository"
	"crm_backend/internal/domain"
	"crm_backend/internal/email"
	tasksrepo "crm_backend/internal/tasks/repository"
	"crm_backend/platform/apperr"
	"crm_backend/platform/logger"
	"crm_backend/platform/sanitize"
)

const (
	typeEmail     = "Email"
	statusSent    = "Sent"
	statusFailed  = "Failed"
	statusLogged  = "Logged"
	dateLayout    = "2006-01-02"
	defaultLimit  = 200
	failedMessage = "email delivery failed"
)

// Store is the persistence boundary of the communications module.
type Store interface {
	CreateTemplate(ctx context.Context, t repository.Template) error
	GetTemplate(ctx context.Context, id uuid.UUID) (repository.Template, error)
	ListTemplates(ctx context.Context) ([]repository.Template, error)
	UpdateTemplate(ctx context.Context, id uuid.UUID, subject, body string) error
	DeleteTemplate(ctx context.Context, id uuid.UUID) error
	CreateLog(ctx context.Context, l repository.Log) error
	ListLogs(ctx context.Context, customerID *uuid.UUID, limit int) ([]repository.Log, error)
}

// CustomerReader loads the recipient.
type CustomerReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Customer, error)
}

// DealReader loads the deal whose value fills {deal_value}.
type DealReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (dealsrepo.DealWithCustomer, error)
}

// TaskReader loads the task whose due date fills {due_date}.
type TaskReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (tasksrepo.TaskWithCustomer, error)
}

// Service provides communications.
type Service struct {
	repo      Store
	customers CustomerReader
	deals     DealReader
	tasks     TaskReader
	sender    email.Sender
	log       *logger.Logger
	now       func() time.Time
}

// New creates a communications service.
func New(repo Store, customers CustomerReader, deals DealReader, tasks TaskReader, sender email.Sender, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		customers: customers,
		deals:     deals,
		tasks:     tasks,
		sender:    sender,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Vars are the values substituted into template placeholders.
type Vars struct {
	CustomerName string
	CompanyName  string
	DealValue    string
	DueDate      string
}

// Render replaces the known placeholders in text. Unknown placeholders are
// left as they are.
func Render(text string, v Vars) string {
	return strings.NewReplacer(
		"{customer_name}", v.CustomerName,
		"{company_name}", v.CompanyName,
		"{deal_value}", v.DealValue,
		"{due_date}", v.DueDate,
	).Replace(text)
}

// CreateTemplate stores a template.
func (s *Service) CreateTemplate(ctx context.Context, req transport.CreateTemplateRequest) (transport.TemplateResponse, error) {
	t := repository.Template{
		ID:          uuid.New(),
		Name:        sanitize.Text(req.Name),
		Subject:     sanitize.Text(req.Subject),
		Body:        sanitize.Text(req.Body),
		CreatedDate: s.now(),
	}
	if err := s.repo.CreateTemplate(ctx, t); err != nil {
		return transport.TemplateResponse{}, err
	}
	s.log.WithContext(ctx).Info("email template created", "id", t.ID, "name", t.Name)
	return toTemplateResponse(t), nil
}

// ListTemplates returns every template.
func (s *Service) ListTemplates(ctx context.Context) ([]transport.TemplateResponse, error) {
	items, err := s.repo.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]transport.TemplateResponse, len(items))
	for i, t := range items {
		out[i] = toTemplateResponse(t)
	}
	return out, nil
}

// UpdateTemplate replaces a template's subject and body.
func (s *Service) UpdateTemplate(ctx context.Context, id uuid.UUID, req transport.UpdateTemplateRequest) (transport.TemplateResponse, error) {
	if err := s.repo.UpdateTemplate(ctx, id, sanitize.Text(req.Subject), sanitize.Text(req.Body)); err != nil {
		return transport.TemplateResponse{}, err
	}
	t, err := s.repo.GetTemplate(ctx, id)
	if err != nil {
		return transport.TemplateResponse{}, err
	}
	s.log.WithContext(ctx).Info("email template updated", "id", id)
	return toTemplateResponse(t), nil
}

// DeleteTemplate removes a template.
func (s *Service) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteTemplate(ctx, id); err != nil {
		return err
	}
	s.log.WithContext(ctx).Info("email template deleted", "id", id)
	return nil
}

// Preview renders an email without sending it.
func (s *Service) Preview(ctx context.Context, req transport.SendEmailRequest) (transport.PreviewResponse, error) {
	customer, subject, body, err := s.compose(ctx, req)
	if err != nil {
		return transport.PreviewResponse{}, err
	}
	return transport.PreviewResponse{To: customer.Email, Subject: subject, Body: body}, nil
}

// Send renders and delivers an email to a customer and records it in the
// communication log. A delivery failure is logged with status Failed and
// reported in the response, not as an error.
func (s *Service) Send(ctx context.Context, userID uuid.UUID, req transport.SendEmailRequest) (transport.LogResponse, error) {
	customer, subject, body, err := s.compose(ctx, req)
	if err != nil {
		return transport.LogResponse{}, err
	}
	if customer.Email == "" {
		return transport.LogResponse{}, apperr.Validation("customer has no email address")
	}

	l := repository.Log{
		ID:           uuid.New(),
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		UserID:       optionalUser(userID),
		Type:         typeEmail,
		Subject:      subject,
		Content:      body,
		SentDate:     s.now(),
		Status:       statusSent,
	}
	sendErr := s.sender.Send(ctx, email.Message{To: customer.Email, ToName: customer.Name, Subject: subject, Body: body})
	if sendErr != nil {
		l.Status = statusFailed
		s.log.WithContext(ctx).Error(failedMessage, "customerId", customer.ID, "error", sendErr)
	}
	if err := s.repo.CreateLog(ctx, l); err != nil {
		return transport.LogResponse{}, err
	}

	s.log.WithContext(ctx).Info("email recorded", "id", l.ID, "customerId", customer.ID, "status", l.Status)
	resp := toLogResponse(l)
	if sendErr != nil {
		resp.Error = failedMessage
	}
	return resp, nil
}

// Record logs a note or call with a customer.
func (s *Service) Record(ctx context.Context, userID uuid.UUID, req transport.LogRequest) (transport.LogResponse, error) {
	if req.Type == typeEmail {
		return transport.LogResponse{}, apperr.Validation("emails are recorded when they are sent")
	}
	customer, err := s.customers.GetByID(ctx, req.CustomerID)
	if err != nil {
		return transport.LogResponse{}, err
	}
	l := repository.Log{
		ID:           uuid.New(),
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		UserID:       optionalUser(userID),
		Type:         req.Type,
		Subject:      sanitize.Text(req.Subject),
		Content:      sanitize.Text(req.Content),
		SentDate:     s.now(),
		Status:       statusLogged,
	}
	if err := s.repo.CreateLog(ctx, l); err != nil {
		return transport.LogResponse{}, err
	}
	s.log.WithContext(ctx).Info("communication recorded", "id", l.ID, "customerId", customer.ID, "type", l.Type)
	return toLogResponse(l), nil
}

// ListLogs returns communications newest first, optionally for one customer.
func (s *Service) ListLogs(ctx context.Context, customerID *uuid.UUID, req transport.ListLogsRequest) ([]transport.LogResponse, error) {
	limit := req.Limit
	if limit == 0 {
		limit = defaultLimit
	}
	items, err := s.repo.ListLogs(ctx, customerID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]transport.LogResponse, len(items))
	for i, l := range items {
		out[i] = toLogResponse(l)
	}
	return out, nil
}

func (s *Service) compose(ctx context.Context, req transport.SendEmailRequest) (domain.Customer, string, string, error) {
	customer, err := s.customers.GetByID(ctx, req.CustomerID)
	if err != nil {
		return domain.Customer{}, "", "", err
	}

	subject, body := req.Subject, req.Body
	if req.TemplateID != nil {
		t, err := s.repo.GetTemplate(ctx, *req.TemplateID)
		if err != nil {
			return domain.Customer{}, "", "", err
		}
		if subject == "" {
			subject = t.Subject
		}
		if body == "" {
			body = t.Body
		}
	}
	subject, body = sanitize.Text(subject), sanitize.Text(body)
	if subject == "" || body == "" {
		return domain.Customer{}, "", "", apperr.Validation("subject and body are required when no template is given")
	}

	vars := Vars{CustomerName: customer.Name, CompanyName: customer.Company}
	if req.DealID != nil {
		deal, err := s.deals.GetByID(ctx, *req.DealID)
		if err != nil {
			return domain.Customer{}, "", "", err
		}
		if deal.CustomerID != customer.ID {
			return domain.Customer{}, "", "", apperr.Validation("deal belongs to another customer")
		}
		vars.DealValue = deal.Amount.StringFixed(2)
	}
	if req.TaskID != nil {
		task, err := s.tasks.GetByID(ctx, *req.TaskID)
		if err != nil {
			return domain.Customer{}, "", "", err
		}
		if task.CustomerID != customer.ID {
			return domain.Customer{}, "", "", apperr.Validation("task belongs to another customer")
		}
		vars.DueDate = task.DueDate.Format(dateLayout)
	}
	return customer, Render(subject, vars), Render(body, vars), nil
}

func optionalUser(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func toTemplateResponse(t repository.Template) transport.TemplateResponse {
	return transport.TemplateResponse{ID: t.ID, Name: t.Name, Subject: t.Subject, Body: t.Body, CreatedDate: t.CreatedDate}
}

func toLogResponse(l repository.Log) transport.LogResponse {
	return transport.LogResponse{
		ID:           l.ID,
		CustomerID:   l.CustomerID,
		CustomerName: l.CustomerName,
		UserID:       l.UserID,
		Type:         l.Type,
		Subject:      l.Subject,
		Content:      l.Content,
		SentDate:     l.SentDate,
		Status:       l.Status,
	}
}
