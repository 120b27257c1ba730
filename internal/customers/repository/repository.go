package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"crm_backend/internal/domain"
	"crm_backend/platform/apperr"
	"crm_backend/platform/db"
)

const customerNotFoundMsg = "customer not found"

// Repository is the SQL implementation of the customer stores.
type Repository struct {
	q db.Querier
}

// New creates a repository over a connection or a transaction.
func New(q db.Querier) *Repository {
	return &Repository{q: q}
}

// ListParams filters a customer listing.
type ListParams struct {
	Statuses []domain.CustomerStatus
	Search   string
	Limit    int
	Offset   int
}

const customerColumns = `id, name, email, phone, company, status, company_size, lead_score, created_date`

func scanCustomer(s db.Scanner) (domain.Customer, error) {
	var (
		c      domain.Customer
		email  sql.NullString
		status string
		size   sql.NullInt64
	)
	if err := s.Scan(&c.ID, &c.Name, &email, &c.Phone, &c.Company, &status, &size, &c.LeadScore, &c.CreatedDate); err != nil {
		return domain.Customer{}, err
	}
	c.Email = email.String
	c.Status = domain.CustomerStatus(status)
	c.CompanySize = db.IntPtr(size)
	c.CreatedDate = c.CreatedDate.UTC()
	return c, nil
}

// Create inserts a customer. A duplicate email is reported as a duplicate
// identity and nothing is written.
func (r *Repository) Create(ctx context.Context, c domain.Customer) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO customers (id, name, email, phone, company, status, company_size, lead_score, created_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, db.NullString(c.Email), c.Phone, c.Company, string(c.Status),
		db.NullInt(c.CompanySize), c.LeadScore, c.CreatedDate.UTC(),
	)
	if err != nil {
		return translateWriteErr("create customer", err)
	}
	return nil
}

// GetByID returns a single customer.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (domain.Customer, error) {
	c, err := scanCustomer(r.q.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = ?`, id))
	if db.IsNoRows(err) {
		return domain.Customer{}, apperr.NotFound(customerNotFoundMsg)
	}
	if err != nil {
		return domain.Customer{}, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

// List returns a page of customers newest first, plus the total match count.
func (r *Repository) List(ctx context.Context, params ListParams) ([]domain.Customer, int, error) {
	where, args := buildFilter(params)

	var total int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	query := `SELECT ` + customerColumns + ` FROM customers` + where + ` ORDER BY created_date DESC, name ASC`
	if params.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, params.Limit, params.Offset)
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan customer: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate customers: %w", err)
	}
	return items, total, nil
}

func buildFilter(params ListParams) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if len(params.Statuses) > 0 {
		clauses = append(clauses, `status IN (`+db.In(len(params.Statuses))+`)`)
		for _, s := range params.Statuses {
			args = append(args, string(s))
		}
	}
	if search := strings.TrimSpace(params.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		clauses = append(clauses, `(LOWER(name) LIKE ? OR LOWER(COALESCE(email, '')) LIKE ?)`)
		args = append(args, pattern, pattern)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return ` WHERE ` + strings.Join(clauses, ` AND `), args
}

// ListAll returns every customer in creation order.
func (r *Repository) ListAll(ctx context.Context) ([]domain.Customer, error) {
	items, _, err := r.List(ctx, ListParams{})
	return items, err
}

// Update overwrites the editable fields. lead_score is not touched.
func (r *Repository) Update(ctx context.Context, c domain.Customer) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE customers
		SET name = ?, email = ?, phone = ?, company = ?, status = ?, company_size = ?
		WHERE id = ?`,
		c.Name, db.NullString(c.Email), c.Phone, c.Company, string(c.Status), db.NullInt(c.CompanySize), c.ID,
	)
	if err != nil {
		return translateWriteErr("update customer", err)
	}
	return db.RequireAffected(res, customerNotFoundMsg)
}

// UpdateStatus changes only the status.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.CustomerStatus) error {
	res, err := r.q.ExecContext(ctx, `UPDATE customers SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return translateWriteErr("update customer status", err)
	}
	return db.RequireAffected(res, customerNotFoundMsg)
}

// Delete removes a customer. Rows still referencing it make the delete fail
// with a conflict.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM customers WHERE id = ?`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return apperr.Conflict("customer still has related records")
		}
		return fmt.Errorf("delete customer: %w", err)
	}
	return db.RequireAffected(res, customerNotFoundMsg)
}

// Count returns the number of customers.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count customers: %w", err)
	}
	return n, nil
}

// Exists reports whether a customer with id exists.
func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var one int
	err := r.q.QueryRowContext(ctx, `SELECT 1 FROM customers WHERE id = ?`, id).Scan(&one)
	if db.IsNoRows(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("customer exists: %w", err)
	}
	return true, nil
}

// FindIDByEmail returns the id of the customer with email, or nil when none
// exists. email must already be normalised.
func (r *Repository) FindIDByEmail(ctx context.Context, email string) (*uuid.UUID, error) {
	var id uuid.UUID
	err := r.q.QueryRowContext(ctx, `SELECT id FROM customers WHERE email = ?`, email).Scan(&id)
	if db.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find customer by email: %w", err)
	}
	return &id, nil
}

// dependentTables reference customers with ON DELETE RESTRICT.
var dependentTables = []string{
	"contacts", "deals", "tasks", "calendar_events", "documents",
	"meeting_notes", "customer_preferences", "communication_logs",
}

// CountDependents returns how many rows in other tables reference the customer.
func (r *Repository) CountDependents(ctx context.Context, id uuid.UUID) (int, error) {
	parts := make([]string, len(dependentTables))
	args := make([]any, len(dependentTables))
	for i, table := range dependentTables {
		parts[i] = `(SELECT COUNT(*) FROM ` + table + ` WHERE customer_id = ?)`
		args[i] = id
	}
	var n int
	if err := r.q.QueryRowContext(ctx, `SELECT `+strings.Join(parts, ` + `), args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count customer dependents: %w", err)
	}
	return n, nil
}

func translateWriteErr(op string, err error) error {
	switch {
	case db.IsUniqueViolation(err):
		return apperr.Duplicate("a customer with this email already exists").WithOp(op)
	case db.IsForeignKeyViolation(err):
		return apperr.NotFound(customerNotFoundMsg).WithOp(op)
	case db.IsCheckViolation(err):
		return apperr.Validation("value out of range").WithOp(op)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func utc(t time.Time) time.Time { return t.UTC() }
