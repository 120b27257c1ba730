package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"crm_backend/internal/domain"
	"crm_backend/platform/apperr"
	"crm_backend/platform/db"
)

const taskNotFoundMsg = "task not found"

// Repository persists tasks and calendar events.
type Repository struct {
	q db.Querier
}

// New creates a tasks repository on top of a connection or transaction.
func New(q db.Querier) *Repository {
	return &Repository{q: q}
}

// TaskWithCustomer is a task joined with its customer's name.
type TaskWithCustomer struct {
	domain.Task
	CustomerName string
}

// ListParams filters the task list.
type ListParams struct {
	CustomerID *uuid.UUID
	Statuses   []domain.TaskStatus
	DueFrom    *time.Time
	DueBefore  *time.Time
	// ExcludeCompleted drops tasks with status Completed.
	ExcludeCompleted bool
}

// Create inserts a task.
func (r *Repository) Create(ctx context.Context, t domain.Task) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO tasks (id, customer_id, title, description, due_date, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.CustomerID, t.Title, t.Description, t.DueDate.UTC(), string(t.Status), t.CreatedAt.UTC(),
	)
	if err != nil {
		return translateWriteErr("create task", err)
	}
	return nil
}

// GetByID returns one task.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (TaskWithCustomer, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT t.id, t.customer_id, t.title, t.description, t.due_date, t.status, t.created_at, c.name
		FROM tasks t
		JOIN customers c ON c.id = t.customer_id
		WHERE t.id = ?`, id)
	task, err := scanTask(row)
	if db.IsNoRows(err) {
		return TaskWithCustomer{}, apperr.NotFound(taskNotFoundMsg)
	}
	if err != nil {
		return TaskWithCustomer{}, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// List returns tasks matching params by due date.
func (r *Repository) List(ctx context.Context, params ListParams) ([]TaskWithCustomer, error) {
	var (
		clauses []string
		args    []any
	)
	if params.CustomerID != nil {
		clauses = append(clauses, "t.customer_id = ?")
		args = append(args, *params.CustomerID)
	}
	if len(params.Statuses) > 0 {
		clauses = append(clauses, "t.status IN ("+db.In(len(params.Statuses))+")")
		for _, s := range params.Statuses {
			args = append(args, string(s))
		}
	}
	if params.DueFrom != nil {
		clauses = append(clauses, "t.due_date >= ?")
		args = append(args, params.DueFrom.UTC())
	}
	if params.DueBefore != nil {
		clauses = append(clauses, "t.due_date < ?")
		args = append(args, params.DueBefore.UTC())
	}
	if params.ExcludeCompleted {
		clauses = append(clauses, "t.status <> ?")
		args = append(args, string(domain.TaskStatusCompleted))
	}

	query := `
		SELECT t.id, t.customer_id, t.title, t.description, t.due_date, t.status, t.created_at, c.name
		FROM tasks t
		JOIN customers c ON c.id = t.customer_id`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY t.due_date ASC, t.created_at ASC"

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	items := make([]TaskWithCustomer, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		items = append(items, task)
	}
	return items, rows.Err()
}

// UpdateStatus changes a task's status.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TaskStatus) error {
	res, err := r.q.ExecContext(ctx, `UPDATE tasks SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return translateWriteErr("update task status", err)
	}
	return db.RequireAffected(res, taskNotFoundMsg)
}

// Delete removes a task.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return db.RequireAffected(res, taskNotFoundMsg)
}

func scanTask(s db.Scanner) (TaskWithCustomer, error) {
	var (
		t      TaskWithCustomer
		status string
	)
	if err := s.Scan(&t.ID, &t.CustomerID, &t.Title, &t.Description, &t.DueDate, &status, &t.CreatedAt, &t.CustomerName); err != nil {
		return TaskWithCustomer{}, err
	}
	t.Status = domain.TaskStatus(status)
	t.DueDate = t.DueDate.UTC()
	t.CreatedAt = t.CreatedAt.UTC()
	return t, nil
}

func translateWriteErr(op string, err error) error {
	switch {
	case db.IsForeignKeyViolation(err):
		return apperr.NotFound("customer not found").WithOp(op)
	case db.IsCheckViolation(err):
		return apperr.Validation("value out of range").WithOp(op)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
