package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateTemplateRequest creates an email template. Subject and body may use
// {customer_name}, {company_name}, {deal_value} and {due_date}.
type CreateTemplateRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Subject string `json:"subject" validate:"required,max=300"`
	Body    string `json:"body" validate:"required,max=20000"`
}

// UpdateTemplateRequest replaces a template's subject and body.
type UpdateTemplateRequest struct {
	Subject string `json:"subject" validate:"required,max=300"`
	Body    string `json:"body" validate:"required,max=20000"`
}

// TemplateResponse is an email template.
type TemplateResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	CreatedDate time.Time `json:"createdDate"`
}

// SendEmailRequest sends an email to a customer. Either TemplateID or both
// Subject and Body must be given; explicit values override the template.
type SendEmailRequest struct {
	CustomerID uuid.UUID  `json:"customerId" validate:"required"`
	TemplateID *uuid.UUID `json:"templateId,omitempty"`
	DealID     *uuid.UUID `json:"dealId,omitempty"`
	TaskID     *uuid.UUID `json:"taskId,omitempty"`
	Subject    string     `json:"subject" validate:"omitempty,max=300"`
	Body       string     `json:"body" validate:"omitempty,max=20000"`
}

// PreviewResponse is a rendered email.
type PreviewResponse struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// LogRequest records a note or call without sending anything.
type LogRequest struct {
	CustomerID uuid.UUID `json:"customerId" validate:"required"`
	Type       string    `json:"type" validate:"required,communication_type"`
	Subject    string    `json:"subject" validate:"omitempty,max=300"`
	Content    string    `json:"content" validate:"required,max=20000"`
}

// ListLogsRequest filters communication logs.
type ListLogsRequest struct {
	Limit int `form:"limit" validate:"omitempty,min=1,max=1000"`
}

// LogResponse is a recorded communication. Error is set when delivery failed.
type LogResponse struct {
	ID           uuid.UUID  `json:"id"`
	CustomerID   uuid.UUID  `json:"customerId"`
	CustomerName string     `json:"customerName,omitempty"`
	UserID       *uuid.UUID `json:"userId,omitempty"`
	Type         string     `json:"type"`
	Subject      string     `json:"subject"`
	Content      string     `json:"content"`
	SentDate     time.Time  `json:"sentDate"`
	Status       string     `json:"status"`
	Error        string     `json:"error,omitempty"`
}
