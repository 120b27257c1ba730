package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateTaskRequest contains data for a follow-up task.
type CreateTaskRequest struct {
	CustomerID  uuid.UUID `json:"customerId" validate:"required"`
	Title       string    `json:"title" validate:"required,min=1,max=200"`
	Description string    `json:"description" validate:"omitempty,max=5000"`
	DueDate     time.Time `json:"dueDate" validate:"required"`
	Status      string    `json:"status" validate:"omitempty,task_status"`
}

// UpdateTaskStatusRequest changes a task's status.
type UpdateTaskStatusRequest struct {
	Status string `json:"status" validate:"required,task_status"`
}

// ListTasksRequest filters the task list.
type ListTasksRequest struct {
	CustomerID string   `form:"customerId" validate:"omitempty,uuid"`
	Status     []string `form:"status" validate:"omitempty,dive,task_status"`
}

// TaskResponse represents a task in API responses.
type TaskResponse struct {
	ID           uuid.UUID `json:"id"`
	CustomerID   uuid.UUID `json:"customerId"`
	CustomerName string    `json:"customerName,omitempty"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	DueDate      time.Time `json:"dueDate"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CreateEventRequest schedules a calendar event.
type CreateEventRequest struct {
	Title       string     `json:"title" validate:"required,min=1,max=200"`
	Description string     `json:"description" validate:"omitempty,max=5000"`
	StartTime   time.Time  `json:"startTime" validate:"required"`
	EndTime     time.Time  `json:"endTime" validate:"required"`
	CustomerID  *uuid.UUID `json:"customerId,omitempty"`
	EventType   string     `json:"eventType" validate:"required,calendar_event_type"`
	Location    string     `json:"location" validate:"omitempty,max=300"`
	// Attendees holds one email address per line.
	Attendees string `json:"attendees" validate:"omitempty,max=5000"`
}

// ListEventsRequest bounds the calendar listing.
type ListEventsRequest struct {
	From *time.Time `form:"from" time_format:"2006-01-02"`
	To   *time.Time `form:"to" time_format:"2006-01-02"`
}

// EventResponse represents a calendar event.
type EventResponse struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	StartTime    time.Time  `json:"startTime"`
	EndTime      time.Time  `json:"endTime"`
	CustomerID   *uuid.UUID `json:"customerId"`
	CustomerName string     `json:"customerName,omitempty"`
	EventType    string     `json:"eventType"`
	Location     string     `json:"location"`
	Attendees    []string   `json:"attendees"`
}
