package repository

import (
	"context"

	"github.com/google/uuid"

	"crm_backend/internal/domain"
)

// CustomerStore is the persistence boundary of the customers module.
type CustomerStore interface {
	Create(ctx context.Context, c domain.Customer) error
	GetByID(ctx context.Context, id uuid.UUID) (domain.Customer, error)
	List(ctx context.Context, params ListParams) ([]domain.Customer, int, error)
	Update(ctx context.Context, c domain.Customer) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.CustomerStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	CountDependents(ctx context.Context, id uuid.UUID) (int, error)
	ListAll(ctx context.Context) ([]domain.Customer, error)
}

// InteractionStore persists contacts, meeting notes and preferences.
type InteractionStore interface {
	CreateContact(ctx context.Context, c domain.Contact) error
	ListContacts(ctx context.Context, customerID *uuid.UUID, limit int) ([]ContactWithCustomer, error)
	ListAllContacts(ctx context.Context) ([]domain.Contact, error)
	CreateMeetingNote(ctx context.Context, n MeetingNote) error
	ListMeetingNotes(ctx context.Context, customerID uuid.UUID) ([]MeetingNote, error)
	UpsertPreferences(ctx context.Context, p Preferences) (Preferences, error)
	GetPreferences(ctx context.Context, customerID uuid.UUID) (Preferences, error)
}

// DetailReader loads the deals and tasks shown on a customer's detail view.
type DetailReader interface {
	ListDealsForCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Deal, error)
	ListTasksForCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Task, error)
}

// Ensure Repository implements every store interface
var (
	_ CustomerStore    = (*Repository)(nil)
	_ InteractionStore = (*Repository)(nil)
	_ DetailReader     = (*Repository)(nil)
)
