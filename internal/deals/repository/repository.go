package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"crm_backend/internal/domain"
	"crm_backend/platform/apperr"
	"crm_backend/platform/db"
)

const dealNotFoundMsg = "deal not found"

const dealColumns = `id, customer_id, owner_id, title, amount, stage, probability, expected_close, created_at`

// Repository persists deals.
type Repository struct {
	q db.Querier
}

// New creates a deals repository on top of a connection or transaction.
func New(q db.Querier) *Repository {
	return &Repository{q: q}
}

// ListParams filters the deal list. Zero values disable a filter.
type ListParams struct {
	CustomerID *uuid.UUID
	OwnerID    *uuid.UUID
	Stages     []domain.DealStage
	OpenOnly   bool
	Limit      int
	Offset     int
}

// DealWithCustomer is a deal joined with its customer's name.
type DealWithCustomer struct {
	domain.Deal
	CustomerName string
}

// Create inserts a deal.
func (r *Repository) Create(ctx context.Context, d domain.Deal) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO deals (`+dealColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.CustomerID, db.NullUUID(d.OwnerID), d.Title, d.Amount, string(d.Stage),
		d.Probability, d.ExpectedClose.UTC(), d.CreatedAt.UTC(),
	)
	if err != nil {
		return translateWriteErr("create deal", err)
	}
	return nil
}

// GetByID returns one deal.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (DealWithCustomer, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT d.id, d.customer_id, d.owner_id, d.title, d.amount, d.stage, d.probability, d.expected_close, d.created_at, c.name
		FROM deals d
		JOIN customers c ON c.id = d.customer_id
		WHERE d.id = ?`, id)
	deal, err := scanDealWithCustomer(row)
	if db.IsNoRows(err) {
		return DealWithCustomer{}, apperr.NotFound(dealNotFoundMsg)
	}
	if err != nil {
		return DealWithCustomer{}, fmt.Errorf("get deal: %w", err)
	}
	return deal, nil
}

// List returns deals matching params ordered by expected close date, and the
// total number of matches.
func (r *Repository) List(ctx context.Context, params ListParams) ([]DealWithCustomer, int, error) {
	where, args := buildWhere(params)

	var total int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM deals d`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count deals: %w", err)
	}

	query := `
		SELECT d.id, d.customer_id, d.owner_id, d.title, d.amount, d.stage, d.probability, d.expected_close, d.created_at, c.name
		FROM deals d
		JOIN customers c ON c.id = d.customer_id` + where + `
		ORDER BY d.expected_close ASC, d.created_at ASC`
	if params.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, params.Limit, params.Offset)
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list deals: %w", err)
	}
	defer rows.Close()

	items := make([]DealWithCustomer, 0)
	for rows.Next() {
		deal, err := scanDealWithCustomer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan deal: %w", err)
		}
		items = append(items, deal)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate deals: %w", err)
	}
	return items, total, nil
}

// ListAll returns every deal. Used by segmentation and forecasting.
func (r *Repository) ListAll(ctx context.Context) ([]domain.Deal, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+dealColumns+` FROM deals ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list all deals: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Deal, 0)
	for rows.Next() {
		deal, err := scanDeal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deal: %w", err)
		}
		items = append(items, deal)
	}
	return items, rows.Err()
}

// Update overwrites the editable fields of a deal.
func (r *Repository) Update(ctx context.Context, d domain.Deal) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE deals
		SET owner_id = ?, title = ?, amount = ?, stage = ?, probability = ?, expected_close = ?
		WHERE id = ?`,
		db.NullUUID(d.OwnerID), d.Title, d.Amount, string(d.Stage), d.Probability, d.ExpectedClose.UTC(), d.ID,
	)
	if err != nil {
		return translateWriteErr("update deal", err)
	}
	return db.RequireAffected(res, dealNotFoundMsg)
}

// UpdateStage moves a deal to another stage.
func (r *Repository) UpdateStage(ctx context.Context, id uuid.UUID, stage domain.DealStage) error {
	res, err := r.q.ExecContext(ctx, `UPDATE deals SET stage = ? WHERE id = ?`, string(stage), id)
	if err != nil {
		return translateWriteErr("update deal stage", err)
	}
	return db.RequireAffected(res, dealNotFoundMsg)
}

// Delete removes a deal.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM deals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete deal: %w", err)
	}
	return db.RequireAffected(res, dealNotFoundMsg)
}

func buildWhere(params ListParams) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if params.CustomerID != nil {
		clauses = append(clauses, "d.customer_id = ?")
		args = append(args, *params.CustomerID)
	}
	if params.OwnerID != nil {
		clauses = append(clauses, "d.owner_id = ?")
		args = append(args, *params.OwnerID)
	}
	if len(params.Stages) > 0 {
		clauses = append(clauses, "d.stage IN ("+db.In(len(params.Stages))+")")
		for _, s := range params.Stages {
			args = append(args, string(s))
		}
	}
	if params.OpenOnly {
		clauses = append(clauses, "d.stage <> ?")
		args = append(args, string(domain.DealStageClosedLost))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanDeal(s db.Scanner) (domain.Deal, error) {
	var (
		d     domain.Deal
		owner uuid.NullUUID
		stage string
	)
	if err := s.Scan(&d.ID, &d.CustomerID, &owner, &d.Title, &d.Amount, &stage, &d.Probability, &d.ExpectedClose, &d.CreatedAt); err != nil {
		return domain.Deal{}, err
	}
	d.OwnerID = db.UUIDPtr(owner)
	d.Stage = domain.DealStage(stage)
	d.ExpectedClose = d.ExpectedClose.UTC()
	d.CreatedAt = d.CreatedAt.UTC()
	return d, nil
}

func scanDealWithCustomer(s db.Scanner) (DealWithCustomer, error) {
	var (
		d     DealWithCustomer
		owner uuid.NullUUID
		stage string
	)
	if err := s.Scan(&d.ID, &d.CustomerID, &owner, &d.Title, &d.Amount, &stage, &d.Probability, &d.ExpectedClose, &d.CreatedAt, &d.CustomerName); err != nil {
		return DealWithCustomer{}, err
	}
	d.OwnerID = db.UUIDPtr(owner)
	d.Stage = domain.DealStage(stage)
	d.ExpectedClose = d.ExpectedClose.UTC()
	d.CreatedAt = d.CreatedAt.UTC()
	return d, nil
}

func translateWriteErr(op string, err error) error {
	switch {
	case db.IsForeignKeyViolation(err):
		return apperr.NotFound("customer or owner not found").WithOp(op)
	case db.IsCheckViolation(err):
		return apperr.Validation("amount, probability or stage out of range").WithOp(op)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
