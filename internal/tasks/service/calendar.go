package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"crm_backend/internal/tasks/repository"
	"crm_backend/internal/tasks/transport"
	"crm_backend/platform/apperr"
	"crm_backend/platform/sanitize"
)

const productID = "-//crm_backend//calendar//EN"

// CreateEvent schedules a calendar event, optionally tied to a customer.
func (s *Service) CreateEvent(ctx context.Context, req transport.CreateEventRequest) (transport.EventResponse, error) {
	if req.EndTime.Before(req.StartTime) {
		return transport.EventResponse{}, apperr.Validation("end time is before start time")
	}
	attendees, err := ParseAttendees(req.Attendees)
	if err != nil {
		return transport.EventResponse{}, err
	}
	if req.CustomerID != nil {
		if err := s.requireCustomer(ctx, *req.CustomerID); err != nil {
			return transport.EventResponse{}, err
		}
	}

	event := repository.CalendarEvent{
		ID:          uuid.New(),
		Title:       sanitize.Text(req.Title),
		Description: sanitize.Text(req.Description),
		StartTime:   req.StartTime.UTC(),
		EndTime:     req.EndTime.UTC(),
		CustomerID:  req.CustomerID,
		EventType:   req.EventType,
		Location:    sanitize.Text(req.Location),
		Attendees:   strings.Join(attendees, "\n"),
	}
	if err := s.repo.CreateEvent(ctx, event); err != nil {
		return transport.EventResponse{}, err
	}
	s.log.WithContext(ctx).Info("calendar event created", "id", event.ID, "type", event.EventType)
	return toEventResponse(event), nil
}

// ListEvents returns events starting in [from, to).
func (s *Service) ListEvents(ctx context.Context, req transport.ListEventsRequest) ([]transport.EventResponse, error) {
	items, err := s.repo.ListEvents(ctx, req.From, req.To)
	if err != nil {
		return nil, err
	}
	out := make([]transport.EventResponse, len(items))
	for i, item := range items {
		out[i] = toEventResponse(item)
	}
	return out, nil
}

// ExportEvent renders one event as an iCalendar document.
func (s *Service) ExportEvent(ctx context.Context, id uuid.UUID) (string, error) {
	event, err := s.repo.GetEvent(ctx, id)
	if err != nil {
		return "", err
	}
	return BuildCalendar([]repository.CalendarEvent{event}, s.now()), nil
}

// ExportEvents renders every event starting in [from, to) as one iCalendar document.
func (s *Service) ExportEvents(ctx context.Context, req transport.ListEventsRequest) (string, error) {
	items, err := s.repo.ListEvents(ctx, req.From, req.To)
	if err != nil {
		return "", err
	}
	return BuildCalendar(items, s.now()), nil
}

// BuildCalendar serialises events to iCalendar with a stamp of now.
func BuildCalendar(items []repository.CalendarEvent, now time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)

	for _, item := range items {
		ev := cal.AddEvent(item.ID.String())
		ev.SetDtStampTime(now.UTC())
		ev.SetStartAt(item.StartTime)
		ev.SetEndAt(item.EndTime)
		ev.SetSummary(item.Title)
		if item.Description != "" {
			ev.SetDescription(item.Description)
		}
		if item.Location != "" {
			ev.SetLocation(item.Location)
		}
		for _, addr := range splitAttendees(item.Attendees) {
			ev.AddAttendee("mailto:" + addr)
		}
	}
	return cal.Serialize()
}

// ParseAttendees validates a newline separated list of email addresses and
// returns the trimmed, non-empty entries.
func ParseAttendees(raw string) ([]string, error) {
	list := splitAttendees(raw)
	for _, addr := range list {
		if _, err := mail.ParseAddress(addr); err != nil {
			return nil, apperr.Validation("invalid attendee email: " + addr)
		}
	}
	return list, nil
}

func splitAttendees(raw string) []string {
	out := make([]string, 0)
	for _, line := range strings.Split(raw, "\n") {
		if addr := strings.TrimSpace(line); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

func toEventResponse(e repository.CalendarEvent) transport.EventResponse {
	return transport.EventResponse{
		ID:           e.ID,
		Title:        e.Title,
		Description:  e.Description,
		StartTime:    e.StartTime,
		EndTime:      e.EndTime,
		CustomerID:   e.CustomerID,
		CustomerName: e.CustomerName,
		EventType:    e.EventType,
		Location:     e.Location,
		Attendees:    splitAttendees(e.Attendees),
	}
}
