// Package repository stores custom field definitions.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"crm_backend/platform/apperr"
	"crm_backend/platform/db"
)

type Repository struct {
	q db.Querier
}

func New(q db.Querier) *Repository {
	return &Repository{q: q}
}

// CustomField is a user-defined field on customers, deals or tasks.
type CustomField struct {
	ID         uuid.UUID
	EntityType string
	FieldName  string
	FieldType  string
	Required   bool
	CreatedAt  time.Time
}

func (r *Repository) CreateCustomField(ctx context.Context, f CustomField) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO custom_fields (id, entity_type, field_name, field_type, required, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		f.ID, f.EntityType, f.FieldName, f.FieldType, f.Required, f.CreatedAt.UTC(),
	)
	switch {
	case db.IsUniqueViolation(err):
		return apperr.Duplicate(fmt.Sprintf("%s already has a field named %q", f.EntityType, f.FieldName))
	case db.IsCheckViolation(err):
		return apperr.Validation("invalid entity or field type")
	case err != nil:
		return fmt.Errorf("create custom field: %w", err)
	}
	return nil
}

// ListCustomFields returns definitions, optionally for one entity type.
func (r *Repository) ListCustomFields(ctx context.Context, entityType string) ([]CustomField, error) {
	query := `SELECT id, entity_type, field_name, field_type, required, created_at FROM custom_fields`
	var args []any
	if entityType != "" {
		query += ` WHERE entity_type = ?`
		args = append(args, entityType)
	}
	query += ` ORDER BY entity_type ASC, field_name ASC`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list custom fields: %w", err)
	}
	defer rows.Close()

	items := make([]CustomField, 0)
	for rows.Next() {
		var f CustomField
		if err := rows.Scan(&f.ID, &f.EntityType, &f.FieldName, &f.FieldType, &f.Required, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan custom field: %w", err)
		}
		f.CreatedAt = f.CreatedAt.UTC()
		items = append(items, f)
	}
	return items, rows.Err()
}

func (r *Repository) DeleteCustomField(ctx context.Context, id uuid.UUID) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM custom_fields WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete custom field: %w", err)
	}
	return db.RequireAffected(res, "custom field not found")
}
