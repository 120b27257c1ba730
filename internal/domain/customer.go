// Package domain holds the CRM core entities shared by the store, the
// scoring engine and the segmentation engine.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// CustomerStatus is the lifecycle state of a customer.
type CustomerStatus string

const (
	CustomerStatusLead     CustomerStatus = "Lead"
	CustomerStatusCustomer CustomerStatus = "Customer"
	CustomerStatusInactive CustomerStatus = "Inactive"
)

// CustomerStatuses lists every valid status.
var CustomerStatuses = []CustomerStatus{CustomerStatusLead, CustomerStatusCustomer, CustomerStatusInactive}

// Valid reports whether s is a known status.
func (s CustomerStatus) Valid() bool {
	switch s {
	case CustomerStatusLead, CustomerStatusCustomer, CustomerStatusInactive:
		return true
	}
	return false
}

// Customer is a person or company tracked by the CRM.
type Customer struct {
	ID      uuid.UUID
	Name    string
	Email   string // empty when unknown; unique otherwise
	Phone   string
	Company string
	Status  CustomerStatus
	// CompanySize is the number of employees, nil when unknown.
	CompanySize *int
	// LeadScore is written only by a scoring run.
	LeadScore   int
	CreatedDate time.Time
}

// IsLead reports whether the customer is still a lead.
func (c Customer) IsLead() bool {
	return c.Status == CustomerStatusLead
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ContactType is the channel of an interaction record.
type ContactType string

const (
	ContactTypeEmail   ContactType = "Email"
	ContactTypePhone   ContactType = "Phone"
	ContactTypeMeeting ContactType = "Meeting"
	ContactTypeNote    ContactType = "Note"
)

// ContactTypes lists every valid contact type.
var ContactTypes = []ContactType{ContactTypeEmail, ContactTypePhone, ContactTypeMeeting, ContactTypeNote}

// Valid reports whether t is a known contact type.
func (t ContactType) Valid() bool {
	switch t {
	case ContactTypeEmail, ContactTypePhone, ContactTypeMeeting, ContactTypeNote:
		return true
	}
	return false
}

// Contact is one interaction with a customer.
type Contact struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	Type       ContactType
	Notes      string
	Date       time.Time
}
