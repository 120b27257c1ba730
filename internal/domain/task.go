package domain

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the progress of a follow-up task.
type TaskStatus string

const (
	TaskStatusNotStarted TaskStatus = "Not Started"
	TaskStatusInProgress TaskStatus = "In Progress"
	TaskStatusCompleted  TaskStatus = "Completed"
	TaskStatusDelayed    TaskStatus = "Delayed"
)

// TaskStatuses lists every valid task status.
var TaskStatuses = []TaskStatus{TaskStatusNotStarted, TaskStatusInProgress, TaskStatusCompleted, TaskStatusDelayed}

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusNotStarted, TaskStatusInProgress, TaskStatusCompleted, TaskStatusDelayed:
		return true
	}
	return false
}

// Task is a follow-up item tied to a customer.
type Task struct {
	ID          uuid.UUID
	CustomerID  uuid.UUID
	Title       string
	Description string
	DueDate     time.Time
	Status      TaskStatus
	CreatedAt   time.Time
}

// DayBounds returns the [start, end) interval of the calendar day containing t
// in t's location.
func DayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}
