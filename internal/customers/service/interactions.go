package service

import (
	"context"

	"github.com/google/uuid"

	"crm_backend/internal/customers/repository"
	"crm_backend/internal/customers/transport"
	"crm_backend/internal/domain"
	"crm_backend/internal/events"
	"crm_backend/platform/apperr"
	"crm_backend/platform/sanitize"
)

const recentContactsLimit = 200

// LogContact records an interaction with an existing customer.
func (s *Service) LogContact(ctx context.Context, customerID uuid.UUID, req transport.LogContactRequest) (transport.ContactResponse, error) {
	contactType := domain.ContactType(req.Type)
	if !contactType.Valid() {
		return transport.ContactResponse{}, apperr.Validation("invalid contact type")
	}
	if err := s.requireCustomer(ctx, customerID); err != nil {
		return transport.ContactResponse{}, err
	}

	date := s.now()
	if req.Date != nil {
		date = req.Date.UTC()
	}
	contact := domain.Contact{
		ID:         uuid.New(),
		CustomerID: customerID,
		Type:       contactType,
		Notes:      sanitize.Text(req.Notes),
		Date:       date,
	}
	if err := s.repo.CreateContact(ctx, contact); err != nil {
		return transport.ContactResponse{}, err
	}

	s.log.WithContext(ctx).Info("contact logged", "id", contact.ID, "customerId", customerID, "type", contactType)
	s.publish(ctx, events.ContactLogged{
		BaseEvent:  events.NewBaseEvent(),
		ContactID:  contact.ID,
		CustomerID: customerID,
		Type:       string(contactType),
	})
	return toContactResponse(repository.ContactWithCustomer{Contact: contact}), nil
}

// ListContacts returns interaction records newest first, optionally for one customer.
func (s *Service) ListContacts(ctx context.Context, customerID *uuid.UUID) ([]transport.ContactResponse, error) {
	items, err := s.repo.ListContacts(ctx, customerID, recentContactsLimit)
	if err != nil {
		return nil, err
	}
	out := make([]transport.ContactResponse, len(items))
	for i, item := range items {
		out[i] = toContactResponse(item)
	}
	return out, nil
}

// AddMeetingNote records a meeting with a customer.
func (s *Service) AddMeetingNote(ctx context.Context, customerID uuid.UUID, req transport.MeetingNoteRequest) (transport.MeetingNoteResponse, error) {
	if err := s.requireCustomer(ctx, customerID); err != nil {
		return transport.MeetingNoteResponse{}, err
	}
	if req.FollowUpDate != nil && req.FollowUpDate.Before(req.MeetingDate) {
		return transport.MeetingNoteResponse{}, apperr.Validation("follow-up date is before the meeting")
	}

	note := repository.MeetingNote{
		ID:           uuid.New(),
		CustomerID:   customerID,
		MeetingDate:  req.MeetingDate.UTC(),
		Attendees:    sanitize.Text(req.Attendees),
		Notes:        sanitize.Text(req.Notes),
		ActionItems:  sanitize.Text(req.ActionItems),
		FollowUpDate: req.FollowUpDate,
	}
	if err := s.repo.CreateMeetingNote(ctx, note); err != nil {
		return transport.MeetingNoteResponse{}, err
	}
	s.log.WithContext(ctx).Info("meeting note added", "id", note.ID, "customerId", customerID)
	return toMeetingNoteResponse(note), nil
}

// ListMeetingNotes returns a customer's meeting notes.
func (s *Service) ListMeetingNotes(ctx context.Context, customerID uuid.UUID) ([]transport.MeetingNoteResponse, error) {
	if err := s.requireCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	notes, err := s.repo.ListMeetingNotes(ctx, customerID)
	if err != nil {
		return nil, err
	}
	out := make([]transport.MeetingNoteResponse, len(notes))
	for i, n := range notes {
		out[i] = toMeetingNoteResponse(n)
	}
	return out, nil
}

// SetPreferences creates or replaces a customer's preferences.
func (s *Service) SetPreferences(ctx context.Context, customerID uuid.UUID, req transport.PreferencesRequest) (transport.PreferencesResponse, error) {
	if err := s.requireCustomer(ctx, customerID); err != nil {
		return transport.PreferencesResponse{}, err
	}
	prefs, err := s.repo.UpsertPreferences(ctx, repository.Preferences{
		ID:                     uuid.New(),
		CustomerID:             customerID,
		PreferredContactMethod: req.PreferredContactMethod,
		PreferredMeetingTime:   sanitize.Text(req.PreferredMeetingTime),
		Interests:              sanitize.Text(req.Interests),
		Birthday:               req.Birthday,
	})
	if err != nil {
		return transport.PreferencesResponse{}, err
	}
	return toPreferencesResponse(prefs), nil
}

// GetPreferences returns a customer's preferences.
func (s *Service) GetPreferences(ctx context.Context, customerID uuid.UUID) (transport.PreferencesResponse, error) {
	prefs, err := s.repo.GetPreferences(ctx, customerID)
	if err != nil {
		return transport.PreferencesResponse{}, err
	}
	return toPreferencesResponse(prefs), nil
}

func (s *Service) requireCustomer(ctx context.Context, id uuid.UUID) error {
	ok, err := s.repo.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("customer not found")
	}
	return nil
}

func toContactResponse(c repository.ContactWithCustomer) transport.ContactResponse {
	return transport.ContactResponse{
		ID:           c.ID,
		CustomerID:   c.CustomerID,
		CustomerName: c.CustomerName,
		Type:         string(c.Type),
		Notes:        c.Notes,
		Date:         c.Date,
	}
}

func toMeetingNoteResponse(n repository.MeetingNote) transport.MeetingNoteResponse {
	return transport.MeetingNoteResponse{
		ID:           n.ID,
		CustomerID:   n.CustomerID,
		MeetingDate:  n.MeetingDate,
		Attendees:    n.Attendees,
		Notes:        n.Notes,
		ActionItems:  n.ActionItems,
		FollowUpDate: n.FollowUpDate,
	}
}

func toPreferencesResponse(p repository.Preferences) transport.PreferencesResponse {
	return transport.PreferencesResponse{
		CustomerID:             p.CustomerID,
		PreferredContactMethod: p.PreferredContactMethod,
		PreferredMeetingTime:   p.PreferredMeetingTime,
		Interests:              p.Interests,
		Birthday:               p.Birthday,
	}
}
