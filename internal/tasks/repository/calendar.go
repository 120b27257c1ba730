package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"crm_backend/platform/apperr"
	"crm_backend/platform/db"
)

const eventNotFoundMsg = "calendar event not found"

// CalendarEvent is a scheduled meeting, call or presentation.
type CalendarEvent struct {
	ID           uuid.UUID
	Title        string
	Description  string
	StartTime    time.Time
	EndTime      time.Time
	CustomerID   *uuid.UUID
	CustomerName string
	EventType    string
	Location     string
	Attendees    string
}

// CreateEvent inserts a calendar event.
func (r *Repository) CreateEvent(ctx context.Context, e CalendarEvent) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO calendar_events (id, title, description, start_time, end_time, customer_id, event_type, location, attendees)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Title, e.Description, e.StartTime.UTC(), e.EndTime.UTC(), db.NullUUID(e.CustomerID),
		e.EventType, e.Location, e.Attendees,
	)
	if err != nil {
		return translateWriteErr("create calendar event", err)
	}
	return nil
}

// GetEvent returns one calendar event.
func (r *Repository) GetEvent(ctx context.Context, id uuid.UUID) (CalendarEvent, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT e.id, e.title, e.description, e.start_time, e.end_time, e.customer_id, COALESCE(c.name, ''), e.event_type, e.location, e.attendees
		FROM calendar_events e
		LEFT JOIN customers c ON c.id = e.customer_id
		WHERE e.id = ?`, id)
	event, err := scanEvent(row)
	if db.IsNoRows(err) {
		return CalendarEvent{}, apperr.NotFound(eventNotFoundMsg)
	}
	if err != nil {
		return CalendarEvent{}, fmt.Errorf("get calendar event: %w", err)
	}
	return event, nil
}

// ListEvents returns events starting in [from, to) by start time. Nil bounds are open.
func (r *Repository) ListEvents(ctx context.Context, from, to *time.Time) ([]CalendarEvent, error) {
	query := `
		SELECT e.id, e.title, e.description, e.start_time, e.end_time, e.customer_id, COALESCE(c.name, ''), e.event_type, e.location, e.attendees
		FROM calendar_events e
		LEFT JOIN customers c ON c.id = e.customer_id
		WHERE 1 = 1`
	var args []any
	if from != nil {
		query += ` AND e.start_time >= ?`
		args = append(args, from.UTC())
	}
	if to != nil {
		query += ` AND e.start_time < ?`
		args = append(args, to.UTC())
	}
	query += ` ORDER BY e.start_time ASC`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list calendar events: %w", err)
	}
	defer rows.Close()

	items := make([]CalendarEvent, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan calendar event: %w", err)
		}
		items = append(items, event)
	}
	return items, rows.Err()
}

func scanEvent(s db.Scanner) (CalendarEvent, error) {
	var (
		e        CalendarEvent
		customer uuid.NullUUID
	)
	if err := s.Scan(&e.ID, &e.Title, &e.Description, &e.StartTime, &e.EndTime, &customer, &e.CustomerName, &e.EventType, &e.Location, &e.Attendees); err != nil {
		return CalendarEvent{}, err
	}
	e.CustomerID = db.UUIDPtr(customer)
	e.StartTime = e.StartTime.UTC()
	e.EndTime = e.EndTime.UTC()
	return e, nil
}
