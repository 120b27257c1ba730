package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateCustomerRequest contains data for creating a customer.
type CreateCustomerRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Email       string `json:"email" validate:"omitempty,email,max=254"`
	Phone       string `json:"phone" validate:"omitempty,max=50"`
	Company     string `json:"company" validate:"omitempty,max=200"`
	Status      string `json:"status" validate:"omitempty,customer_status"`
	CompanySize *int   `json:"companySize,omitempty" validate:"omitempty,min=0"`
}

// UpdateCustomerRequest contains the fields that may change. Nil fields are
// left untouched. ClearCompanySize resets the size to unknown and cannot be
// combined with CompanySize.
type UpdateCustomerRequest struct {
	Name             *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Email            *string `json:"email,omitempty" validate:"omitempty,max=254"`
	Phone            *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Company          *string `json:"company,omitempty" validate:"omitempty,max=200"`
	CompanySize      *int    `json:"companySize,omitempty" validate:"omitempty,min=0"`
	ClearCompanySize bool    `json:"clearCompanySize,omitempty"`
}

// UpdateStatusRequest moves a customer to another status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,customer_status"`
}

// ListCustomersRequest filters the customer list.
type ListCustomersRequest struct {
	Status   []string `form:"status" validate:"omitempty,dive,customer_status"`
	Search   string   `form:"search" validate:"omitempty,max=100"`
	Page     int      `form:"page" validate:"omitempty,min=1"`
	PageSize int      `form:"pageSize" validate:"omitempty,min=1,max=500"`
}

// CustomerResponse represents a customer in API responses.
type CustomerResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       *string   `json:"email"`
	Phone       string    `json:"phone"`
	Company     string    `json:"company"`
	Status      string    `json:"status"`
	CompanySize *int      `json:"companySize"`
	LeadScore   int       `json:"leadScore"`
	CreatedDate time.Time `json:"createdDate"`
}

// CustomerListResponse wraps a page of customers.
type CustomerListResponse struct {
	Items    []CustomerResponse `json:"items"`
	Total    int                `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"pageSize"`
}

// LogContactRequest records an interaction with a customer.
type LogContactRequest struct {
	Type  string     `json:"type" validate:"required,contact_type"`
	Notes string     `json:"notes" validate:"omitempty,max=5000"`
	Date  *time.Time `json:"date,omitempty"`
}

// ContactResponse represents an interaction record.
type ContactResponse struct {
	ID           uuid.UUID `json:"id"`
	CustomerID   uuid.UUID `json:"customerId"`
	CustomerName string    `json:"customerName,omitempty"`
	Type         string    `json:"type"`
	Notes        string    `json:"notes"`
	Date         time.Time `json:"date"`
}

// DealSummary is a deal as shown on the customer detail view.
type DealSummary struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	Amount        string    `json:"amount"`
	Stage         string    `json:"stage"`
	Probability   int       `json:"probability"`
	ExpectedClose time.Time `json:"expectedClose"`
}

// TaskSummary is a task as shown on the customer detail view.
type TaskSummary struct {
	ID      uuid.UUID `json:"id"`
	Title   string    `json:"title"`
	DueDate time.Time `json:"dueDate"`
	Status  string    `json:"status"`
}

// CustomerDetailResponse is a customer with everything attached to it.
type CustomerDetailResponse struct {
	Customer CustomerResponse  `json:"customer"`
	Contacts []ContactResponse `json:"contacts"`
	Deals    []DealSummary     `json:"deals"`
	Tasks    []TaskSummary     `json:"tasks"`
}

// MeetingNoteRequest records a meeting.
type MeetingNoteRequest struct {
	MeetingDate  time.Time  `json:"meetingDate" validate:"required"`
	Attendees    string     `json:"attendees" validate:"omitempty,max=2000"`
	Notes        string     `json:"notes" validate:"omitempty,max=10000"`
	ActionItems  string     `json:"actionItems" validate:"omitempty,max=5000"`
	FollowUpDate *time.Time `json:"followUpDate,omitempty"`
}

// MeetingNoteResponse represents a stored meeting note.
type MeetingNoteResponse struct {
	ID           uuid.UUID  `json:"id"`
	CustomerID   uuid.UUID  `json:"customerId"`
	MeetingDate  time.Time  `json:"meetingDate"`
	Attendees    string     `json:"attendees"`
	Notes        string     `json:"notes"`
	ActionItems  string     `json:"actionItems"`
	FollowUpDate *time.Time `json:"followUpDate"`
}

// PreferencesRequest sets a customer's contact preferences.
type PreferencesRequest struct {
	PreferredContactMethod string     `json:"preferredContactMethod" validate:"omitempty,oneof=Email Phone Meeting"`
	PreferredMeetingTime   string     `json:"preferredMeetingTime" validate:"omitempty,max=100"`
	Interests              string     `json:"interests" validate:"omitempty,max=2000"`
	Birthday               *time.Time `json:"birthday,omitempty"`
}

// PreferencesResponse represents stored preferences.
type PreferencesResponse struct {
	CustomerID             uuid.UUID  `json:"customerId"`
	PreferredContactMethod string     `json:"preferredContactMethod"`
	PreferredMeetingTime   string     `json:"preferredMeetingTime"`
	Interests              string     `json:"interests"`
	Birthday               *time.Time `json:"birthday"`
}
