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

const ruleNotFoundMsg = "scoring rule not found"

// Repository reads scoring inputs, writes scores and stores scoring rules.
type Repository struct {
	q db.Querier
}

// New creates a scoring repository on top of a connection or transaction.
func New(q db.Querier) *Repository {
	return &Repository{q: q}
}

// Rule is a declarative lead scoring rule. Rules are stored but not evaluated.
type Rule struct {
	ID        uuid.UUID
	Attribute string
	Condition string
	Score     int
	CreatedAt time.Time
}

// ListLeads returns every customer with status Lead.
func (r *Repository) ListLeads(ctx context.Context) ([]domain.Customer, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, name, email, phone, company, status, company_size, lead_score, created_date
		FROM customers
		WHERE status = ?
		ORDER BY created_date ASC`, string(domain.CustomerStatusLead))
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()
	return scanCustomers(rows)
}

// ListRankedLeads returns leads by descending score.
func (r *Repository) ListRankedLeads(ctx context.Context, limit int) ([]domain.Customer, error) {
	query := `
		SELECT id, name, email, phone, company, status, company_size, lead_score, created_date
		FROM customers
		WHERE status = ?
		ORDER BY lead_score DESC, name ASC`
	args := []any{string(domain.CustomerStatusLead)}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ranked leads: %w", err)
	}
	defer rows.Close()
	return scanCustomers(rows)
}

// ListLeadContacts returns the contacts of every Lead customer.
func (r *Repository) ListLeadContacts(ctx context.Context) ([]domain.Contact, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT ct.id, ct.customer_id, ct.type, ct.notes, ct.date
		FROM contacts ct
		JOIN customers c ON c.id = ct.customer_id
		WHERE c.status = ?`, string(domain.CustomerStatusLead))
	if err != nil {
		return nil, fmt.Errorf("list lead contacts: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Contact, 0)
	for rows.Next() {
		var (
			c     domain.Contact
			ctype string
		)
		if err := rows.Scan(&c.ID, &c.CustomerID, &ctype, &c.Notes, &c.Date); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		c.Type = domain.ContactType(ctype)
		items = append(items, c)
	}
	return items, rows.Err()
}

// SetLeadScore overwrites one customer's lead score.
func (r *Repository) SetLeadScore(ctx context.Context, id uuid.UUID, score int) error {
	res, err := r.q.ExecContext(ctx, `UPDATE customers SET lead_score = ? WHERE id = ?`, score, id)
	if err != nil {
		return fmt.Errorf("set lead score: %w", err)
	}
	return db.RequireAffected(res, "customer not found")
}

// CreateRule stores a scoring rule.
func (r *Repository) CreateRule(ctx context.Context, rule Rule) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO lead_scoring_rules (id, attribute, condition, score, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		rule.ID, rule.Attribute, rule.Condition, rule.Score, rule.CreatedAt.UTC(),
	)
	if err != nil {
		if db.IsCheckViolation(err) {
			return apperr.Validation("invalid attribute or score").WithOp("create scoring rule")
		}
		return fmt.Errorf("create scoring rule: %w", err)
	}
	return nil
}

// ListRules returns every scoring rule, oldest first.
func (r *Repository) ListRules(ctx context.Context) ([]Rule, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, attribute, condition, score, created_at
		FROM lead_scoring_rules
		ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list scoring rules: %w", err)
	}
	defer rows.Close()

	items := make([]Rule, 0)
	for rows.Next() {
		var rule Rule
		if err := rows.Scan(&rule.ID, &rule.Attribute, &rule.Condition, &rule.Score, &rule.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan scoring rule: %w", err)
		}
		rule.CreatedAt = rule.CreatedAt.UTC()
		items = append(items, rule)
	}
	return items, rows.Err()
}

// DeleteRule removes a scoring rule.
func (r *Repository) DeleteRule(ctx context.Context, id uuid.UUID) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM lead_scoring_rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete scoring rule: %w", err)
	}
	return db.RequireAffected(res, ruleNotFoundMsg)
}

func scanCustomers(rows *sql.Rows) ([]domain.Customer, error) {
	items := make([]domain.Customer, 0)
	for rows.Next() {
		var (
			c      domain.Customer
			email  sql.NullString
			status string
			size   sql.NullInt64
		)
		if err := rows.Scan(&c.ID, &c.Name, &email, &c.Phone, &c.Company, &status, &size, &c.LeadScore, &c.CreatedDate); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		c.Email = email.String
		c.Status = domain.CustomerStatus(status)
		c.CompanySize = db.IntPtr(size)
		c.CreatedDate = c.CreatedDate.UTC()
		items = append(items, c)
	}
	return items, rows.Err()
}
