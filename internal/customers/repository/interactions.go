package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"crm_backend/internal/domain"
	"crm_backend/platform/apperr"
	"crm_backend/platform/db"
)

// ContactWithCustomer is a contact joined with its customer's name.
type ContactWithCustomer struct {
	domain.Contact
	CustomerName string
}

// MeetingNote records a meeting with a customer.
type MeetingNote struct {
	ID           uuid.UUID
	CustomerID   uuid.UUID
	MeetingDate  time.Time
	Attendees    string
	Notes        string
	ActionItems  string
	FollowUpDate *time.Time
}

// Preferences holds how a customer likes to be contacted.
type Preferences struct {
	ID                     uuid.UUID
	CustomerID             uuid.UUID
	PreferredContactMethod string
	PreferredMeetingTime   string
	Interests              string
	Birthday               *time.Time
}

// CreateContact inserts an interaction record.
func (r *Repository) CreateContact(ctx context.Context, c domain.Contact) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO contacts (id, customer_id, type, notes, date)
		VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.CustomerID, string(c.Type), c.Notes, utc(c.Date),
	)
	if err != nil {
		return translateWriteErr("create contact", err)
	}
	return nil
}

// ListContacts returns contacts newest first, optionally for one customer.
// A limit of zero means no limit.
func (r *Repository) ListContacts(ctx context.Context, customerID *uuid.UUID, limit int) ([]ContactWithCustomer, error) {
	query := `
		SELECT ct.id, ct.customer_id, ct.type, ct.notes, ct.date, cu.name
		FROM contacts ct
		JOIN customers cu ON cu.id = ct.customer_id`
	var args []any
	if customerID != nil {
		query += ` WHERE ct.customer_id = ?`
		args = append(args, *customerID)
	}
	query += ` ORDER BY ct.date DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	items := make([]ContactWithCustomer, 0)
	for rows.Next() {
		var (
			item        ContactWithCustomer
			contactType string
		)
		if err := rows.Scan(&item.ID, &item.CustomerID, &contactType, &item.Notes, &item.Date, &item.CustomerName); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		item.Type = domain.ContactType(contactType)
		item.Date = item.Date.UTC()
		items = append(items, item)
	}
	return items, rows.Err()
}

// ListAllContacts returns every contact without joins.
func (r *Repository) ListAllContacts(ctx context.Context) ([]domain.Contact, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id, customer_id, type, notes, date FROM contacts`)
	if err != nil {
		return nil, fmt.Errorf("list all contacts: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Contact, 0)
	for rows.Next() {
		var (
			c           domain.Contact
			contactType string
		)
		if err := rows.Scan(&c.ID, &c.CustomerID, &contactType, &c.Notes, &c.Date); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		c.Type = domain.ContactType(contactType)
		items = append(items, c)
	}
	return items, rows.Err()
}

// CreateMeetingNote inserts a meeting note.
func (r *Repository) CreateMeetingNote(ctx context.Context, n MeetingNote) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO meeting_notes (id, customer_id, meeting_date, attendees, notes, action_items, follow_up_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.CustomerID, utc(n.MeetingDate), n.Attendees, n.Notes, n.ActionItems, db.NullTime(n.FollowUpDate),
	)
	if err != nil {
		return translateWriteErr("create meeting note", err)
	}
	return nil
}

// ListMeetingNotes returns a customer's meeting notes, latest meeting first.
func (r *Repository) ListMeetingNotes(ctx context.Context, customerID uuid.UUID) ([]MeetingNote, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, customer_id, meeting_date, attendees, notes, action_items, follow_up_date
		FROM meeting_notes
		WHERE customer_id = ?
		ORDER BY meeting_date DESC`, customerID)
	if err != nil {
		return nil, fmt.Errorf("list meeting notes: %w", err)
	}
	defer rows.Close()

	items := make([]MeetingNote, 0)
	for rows.Next() {
		var (
			n        MeetingNote
			followUp sql.NullTime
		)
		if err := rows.Scan(&n.ID, &n.CustomerID, &n.MeetingDate, &n.Attendees, &n.Notes, &n.ActionItems, &followUp); err != nil {
			return nil, fmt.Errorf("scan meeting note: %w", err)
		}
		n.MeetingDate = n.MeetingDate.UTC()
		n.FollowUpDate = db.TimePtr(followUp)
		items = append(items, n)
	}
	return items, rows.Err()
}

// UpsertPreferences stores the single preferences row of a customer.
func (r *Repository) UpsertPreferences(ctx context.Context, p Preferences) (Preferences, error) {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO customer_preferences (id, customer_id, preferred_contact_method, preferred_meeting_time, interests, birthday)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (customer_id) DO UPDATE SET
			preferred_contact_method = excluded.preferred_contact_method,
			preferred_meeting_time = excluded.preferred_meeting_time,
			interests = excluded.interests,
			birthday = excluded.birthday`,
		p.ID, p.CustomerID, p.PreferredContactMethod, p.PreferredMeetingTime, p.Interests, db.NullTime(p.Birthday),
	)
	if err != nil {
		return Preferences{}, translateWriteErr("upsert preferences", err)
	}
	return r.GetPreferences(ctx, p.CustomerID)
}

// GetPreferences returns the preferences of a customer.
func (r *Repository) GetPreferences(ctx context.Context, customerID uuid.UUID) (Preferences, error) {
	var (
		p        Preferences
		birthday sql.NullTime
	)
	err := r.q.QueryRowContext(ctx, `
		SELECT id, customer_id, preferred_contact_method, preferred_meeting_time, interests, birthday
		FROM customer_preferences
		WHERE customer_id = ?`, customerID,
	).Scan(&p.ID, &p.CustomerID, &p.PreferredContactMethod, &p.PreferredMeetingTime, &p.Interests, &birthday)
	if db.IsNoRows(err) {
		return Preferences{}, apperr.NotFound("preferences not found")
	}
	if err != nil {
		return Preferences{}, fmt.Errorf("get preferences: %w", err)
	}
	p.Birthday = db.TimePtr(birthday)
	return p, nil
}
