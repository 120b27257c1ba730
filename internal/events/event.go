// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"github.com/google/uuid"

	"crm_backend/platform/events"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Customer Domain Events
// =============================================================================

// CustomerCreated is published when a customer row is inserted, including
// leads created from a form submission or an import.
type CustomerCreated struct {
	BaseEvent
	CustomerID uuid.UUID `json:"customerId"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	Source     string    `json:"source"`
}

func (e CustomerCreated) EventName() string { return "customers.customer.created" }

// CustomerStatusChanged is published when a customer moves between
// Lead, Customer and Inactive.
type CustomerStatusChanged struct {
	BaseEvent
	CustomerID uuid.UUID `json:"customerId"`
	OldStatus  string    `json:"oldStatus"`
	NewStatus  string    `json:"newStatus"`
}

func (e CustomerStatusChanged) EventName() string { return "customers.customer.status_changed" }

// CustomerUpdated is published when a customer's editable fields change.
type CustomerUpdated struct {
	BaseEvent
	CustomerID uuid.UUID `json:"customerId"`
}

func (e CustomerUpdated) EventName() string { return "customers.customer.updated" }

// CustomerDeleted is published after a customer row is removed.
type CustomerDeleted struct {
	BaseEvent
	CustomerID uuid.UUID `json:"customerId"`
}

func (e CustomerDeleted) EventName() string { return "customers.customer.deleted" }

// ContactLogged is published when an interaction record is added.
type ContactLogged struct {
	BaseEvent
	ContactID  uuid.UUID `json:"contactId"`
	CustomerID uuid.UUID `json:"customerId"`
	Type       string    `json:"type"`
}

func (e ContactLogged) EventName() string { return "customers.contact.logged" }

// =============================================================================
// Deal Domain Events
// =============================================================================

// DealCreated is published when a deal is opened.
type DealCreated struct {
	BaseEvent
	DealID     uuid.UUID `json:"dealId"`
	CustomerID uuid.UUID `json:"customerId"`
	Stage      string    `json:"stage"`
	Amount     string    `json:"amount"`
}

func (e DealCreated) EventName() string { return "deals.deal.created" }

// DealStageChanged is published when a deal moves to another stage.
type DealStageChanged struct {
	BaseEvent
	DealID     uuid.UUID `json:"dealId"`
	CustomerID uuid.UUID `json:"customerId"`
	OldStage   string    `json:"oldStage"`
	NewStage   string    `json:"newStage"`
}

func (e DealStageChanged) EventName() string { return "deals.deal.stage_changed" }

// DealUpdated is published when a deal's editable fields change.
type DealUpdated struct {
	BaseEvent
	DealID     uuid.UUID `json:"dealId"`
	CustomerID uuid.UUID `json:"customerId"`
	Amount     string    `json:"amount"`
}

func (e DealUpdated) EventName() string { return "deals.deal.updated" }

// DealDeleted is published after a deal row is removed.
type DealDeleted struct {
	BaseEvent
	DealID uuid.UUID `json:"dealId"`
}

func (e DealDeleted) EventName() string { return "deals.deal.deleted" }

// =============================================================================
// Task Domain Events
// =============================================================================

// TaskCreated is published when a follow-up task is created.
type TaskCreated struct {
	BaseEvent
	TaskID     uuid.UUID `json:"taskId"`
	CustomerID uuid.UUID `json:"customerId"`
	Title      string    `json:"title"`
}

func (e TaskCreated) EventName() string { return "tasks.task.created" }

// TaskStatusChanged is published when a task moves to another status.
type TaskStatusChanged struct {
	BaseEvent
	TaskID uuid.UUID `json:"taskId"`
	Status string    `json:"status"`
}

func (e TaskStatusChanged) EventName() string { return "tasks.task.status_changed" }

// TaskDeleted is published after a task row is removed.
type TaskDeleted struct {
	BaseEvent
	TaskID uuid.UUID `json:"taskId"`
}

func (e TaskDeleted) EventName() string { return "tasks.task.deleted" }

// TasksDueDigest is published when the daily digest of due tasks is built.
type TasksDueDigest struct {
	BaseEvent
	Day     string      `json:"day"`
	TaskIDs []uuid.UUID `json:"taskIds"`
}

func (e TasksDueDigest) EventName() string { return "tasks.digest.built" }

// =============================================================================
// Scoring Domain Events
// =============================================================================

// LeadScoresComputed is published after a scoring run commits.
type LeadScoresComputed struct {
	BaseEvent
	Trigger string `json:"trigger"`
	Scored  int    `json:"scored"`
}

func (e LeadScoresComputed) EventName() string { return "scoring.run.completed" }

// =============================================================================
// Messaging Domain Events
// =============================================================================

// MessageSent is published when a user sends an internal message.
type MessageSent struct {
	BaseEvent
	MessageID  uuid.UUID `json:"messageId"`
	SenderID   uuid.UUID `json:"senderId"`
	ReceiverID uuid.UUID `json:"receiverId"`
	Priority   string    `json:"priority"`
}

func (e MessageSent) EventName() string { return "messaging.message.sent" }

// =============================================================================
// Document Domain Events
// =============================================================================

// DocumentUploaded is published after a document's content and row are stored.
type DocumentUploaded struct {
	BaseEvent
	DocumentID uuid.UUID `json:"documentId"`
	CustomerID uuid.UUID `json:"customerId"`
	Name       string    `json:"name"`
	SizeBytes  int64     `json:"sizeBytes"`
}

func (e DocumentUploaded) EventName() string { return "documents.document.uploaded" }
