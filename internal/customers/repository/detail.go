package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"crm_backend/internal/domain"
	"crm_backend/platform/db"
)

// ListDealsForCustomer returns a customer's deals in pipeline-entry order.
func (r *Repository) ListDealsForCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Deal, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, customer_id, owner_id, title, amount, stage, probability, expected_close, created_at
		FROM deals
		WHERE customer_id = ?
		ORDER BY created_at ASC`, customerID)
	if err != nil {
		return nil, fmt.Errorf("list customer deals: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Deal, 0)
	for rows.Next() {
		var (
			d     domain.Deal
			owner uuid.NullUUID
			stage string
		)
		if err := rows.Scan(&d.ID, &d.CustomerID, &owner, &d.Title, &d.Amount, &stage, &d.Probability, &d.ExpectedClose, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan deal: %w", err)
		}
		d.OwnerID = db.UUIDPtr(owner)
		d.Stage = domain.DealStage(stage)
		items = append(items, d)
	}
	return items, rows.Err()
}

// ListTasksForCustomer returns a customer's tasks by due date.
func (r *Repository) ListTasksForCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Task, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, customer_id, title, description, due_date, status, created_at
		FROM tasks
		WHERE customer_id = ?
		ORDER BY due_date ASC`, customerID)
	if err != nil {
		return nil, fmt.Errorf("list customer tasks: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Task, 0)
	for rows.Next() {
		var (
			t      domain.Task
			status string
		)
		if err := rows.Scan(&t.ID, &t.CustomerID, &t.Title, &t.Description, &t.DueDate, &status, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		t.Status = domain.TaskStatus(status)
		items = append(items, t)
	}
	return items, rows.Err()
}
