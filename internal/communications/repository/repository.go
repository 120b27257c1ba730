package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"crm_backend/platform/apperr"
	"crm_backend/platform/db"
)

const templateNotFoundMsg = "email template not found"

// Repository persists email templates and communication logs.
type Repository struct {
	q db.Querier
}

// New creates a communications repository.
func New(q db.Querier) *Repository {
	return &Repository{q: q}
}

// Template is a reusable email with placeholders.
type Template struct {
	ID          uuid.UUID
	Name        string
	Subject     string
	Body        string
	CreatedDate time.Time
}

// Log is one recorded communication with a customer.
type Log struct {
	ID           uuid.UUID
	CustomerID   uuid.UUID
	CustomerName string
	UserID       *uuid.UUID
	Type         string
	Subject      string
	Content      string
	SentDate     time.Time
	Status       string
}

// CreateTemplate inserts a template. Names are unique.
func (r *Repository) CreateTemplate(ctx context.Context, t Template) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO email_templates (id, name, subject, body, created_date)
		VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Subject, t.Body, t.CreatedDate.UTC(),
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return apperr.Duplicate("an email template with this name already exists").WithOp("create email template")
		}
		return fmt.Errorf("create email template: %w", err)
	}
	return nil
}

// GetTemplate returns one template.
func (r *Repository) GetTemplate(ctx context.Context, id uuid.UUID) (Template, error) {
	var t Template
	err := r.q.QueryRowContext(ctx, `
		SELECT id, name, subject, body, created_date FROM email_templates WHERE id = ?`, id).
		Scan(&t.ID, &t.Name, &t.Subject, &t.Body, &t.CreatedDate)
	if db.IsNoRows(err) {
		return Template{}, apperr.NotFound(templateNotFoundMsg)
	}
	if err != nil {
		return Template{}, fmt.Errorf("get email template: %w", err)
	}
	t.CreatedDate = t.CreatedDate.UTC()
	return t, nil
}

// ListTemplates returns templates by name.
func (r *Repository) ListTemplates(ctx context.Context) ([]Template, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, name, subject, body, created_date FROM email_templates ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list email templates: %w", err)
	}
	defer rows.Close()

	items := make([]Template, 0)
	for rows.Next() {
		var t Template
		if err := rows.Scan(&t.ID, &t.Name, &t.Subject, &t.Body, &t.CreatedDate); err != nil {
			return nil, fmt.Errorf("scan email template: %w", err)
		}
		t.CreatedDate = t.CreatedDate.UTC()
		items = append(items, t)
	}
	return items, rows.Err()
}

// UpdateTemplate replaces a template's subject and body.
func (r *Repository) UpdateTemplate(ctx context.Context, id uuid.UUID, subject, body string) error {
	res, err := r.q.ExecContext(ctx, `UPDATE email_templates SET subject = ?, body = ? WHERE id = ?`, subject, body, id)
	if err != nil {
		return fmt.Errorf("update email template: %w", err)
	}
	return db.RequireAffected(res, templateNotFoundMsg)
}

// DeleteTemplate removes a template.
func (r *Repository) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM email_templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete email template: %w", err)
	}
	return db.RequireAffected(res, templateNotFoundMsg)
}

// CreateLog records a communication.
func (r *Repository) CreateLog(ctx context.Context, l Log) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO communication_logs (id, customer_id, user_id, type, subject, content, sent_date, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.CustomerID, db.NullUUID(l.UserID), l.Type, l.Subject, l.Content, l.SentDate.UTC(), l.Status,
	)
	if err != nil {
		switch {
		case db.IsForeignKeyViolation(err):
			return apperr.NotFound("customer not found").WithOp("create communication log")
		case db.IsCheckViolation(err):
			return apperr.Validation("invalid communication type or status").WithOp("create communication log")
		}
		return fmt.Errorf("create communication log: %w", err)
	}
	return nil
}

// ListLogs returns communications newest first, optionally for one customer.
// A limit of zero returns every row.
func (r *Repository) ListLogs(ctx context.Context, customerID *uuid.UUID, limit int) ([]Log, error) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`
		SELECT l.id, l.customer_id, c.name, l.user_id, l.type, l.subject, l.content, l.sent_date, l.status
		FROM communication_logs l
		JOIN customers c ON c.id = l.customer_id`)
	if customerID != nil {
		sb.WriteString(` WHERE l.customer_id = ?`)
		args = append(args, *customerID)
	}
	sb.WriteString(` ORDER BY l.sent_date DESC`)
	if limit > 0 {
		sb.WriteString(` LIMIT ?`)
		args = append(args, limit)
	}

	rows, err := r.q.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list communication logs: %w", err)
	}
	defer rows.Close()

	items := make([]Log, 0)
	for rows.Next() {
		var (
			l    Log
			user uuid.NullUUID
		)
		if err := rows.Scan(&l.ID, &l.CustomerID, &l.CustomerName, &user, &l.Type, &l.Subject, &l.Content, &l.SentDate, &l.Status); err != nil {
			return nil, fmt.Errorf("scan communication log: %w", err)
		}
		l.UserID = db.UUIDPtr(user)
		l.SentDate = l.SentDate.UTC()
		items = append(items, l)
	}
	return items, rows.Err()
}
