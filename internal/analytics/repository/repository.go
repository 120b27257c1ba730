package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"crm_backend/internal/domain"
	"crm_backend/platform/db"
)

// Repository runs the read-side queries behind the dashboards.
type Repository struct {
	q db.Querier
}

// New creates an analytics repository.
func New(q db.Querier) *Repository {
	return &Repository{q: q}
}

// StageTotal is the number and amount of deals in one stage.
type StageTotal struct {
	Stage  domain.DealStage
	Count  int
	Amount decimal.Decimal
}

// Activity is a recent interaction shown on the dashboard.
type Activity struct {
	ContactID    uuid.UUID
	CustomerName string
	Type         string
	Notes        string
	Date         time.Time
}

// DealFact is the slice of a deal the overview and forecast need.
type DealFact struct {
	Stage         domain.DealStage
	Amount        decimal.Decimal
	Probability   int
	ExpectedClose time.Time
}

// CustomerFact is the slice of a customer the acquisition chart needs.
type CustomerFact struct {
	Status      domain.CustomerStatus
	CreatedDate time.Time
}

// UserPerformance aggregates the deals owned by one user.
type UserPerformance struct {
	UserID         uuid.UUID
	Username       string
	Deals          int
	Revenue        decimal.Decimal
	AvgProbability float64
}

// CountCustomers returns the number of customers.
func (r *Repository) CountCustomers(ctx context.Context) (int, error) {
	var n int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count customers: %w", err)
	}
	return n, nil
}

// DealsByStage returns deal counts and amounts per stage. Stages without
// deals are absent.
func (r *Repository) DealsByStage(ctx context.Context) ([]StageTotal, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT stage, COUNT(*), COALESCE(SUM(amount), 0)
		FROM deals
		GROUP BY stage`)
	if err != nil {
		return nil, fmt.Errorf("deals by stage: %w", err)
	}
	defer rows.Close()

	items := make([]StageTotal, 0)
	for rows.Next() {
		var (
			t     StageTotal
			stage string
		)
		if err := rows.Scan(&stage, &t.Count, &t.Amount); err != nil {
			return nil, fmt.Errorf("scan stage total: %w", err)
		}
		t.Stage = domain.DealStage(stage)
		items = append(items, t)
	}
	return items, rows.Err()
}

// CountTasksDue counts unfinished tasks due in [from, to).
func (r *Repository) CountTasksDue(ctx context.Context, from, to time.Time) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM tasks
		WHERE due_date >= ? AND due_date < ? AND status <> ?`,
		from.UTC(), to.UTC(), string(domain.TaskStatusCompleted),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count tasks due: %w", err)
	}
	return n, nil
}

// RecentActivities returns the newest interactions.
func (r *Repository) RecentActivities(ctx context.Context, limit int) ([]Activity, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT ct.id, c.name, ct.type, ct.notes, ct.date
		FROM contacts ct
		JOIN customers c ON c.id = ct.customer_id
		ORDER BY ct.date DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent activities: %w", err)
	}
	defer rows.Close()

	items := make([]Activity, 0, limit)
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.ContactID, &a.CustomerName, &a.Type, &a.Notes, &a.Date); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		a.Date = a.Date.UTC()
		items = append(items, a)
	}
	return items, rows.Err()
}

// DealFacts returns deals with expected close in [from, to). Nil bounds are open.
func (r *Repository) DealFacts(ctx context.Context, from, to *time.Time) ([]DealFact, error) {
	query := `SELECT stage, amount, probability, expected_close FROM deals WHERE 1 = 1`
	var args []any
	if from != nil {
		query += ` AND expected_close >= ?`
		args = append(args, from.UTC())
	}
	if to != nil {
		query += ` AND expected_close < ?`
		args = append(args, to.UTC())
	}
	query += ` ORDER BY expected_close ASC`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("deal facts: %w", err)
	}
	defer rows.Close()

	items := make([]DealFact, 0)
	for rows.Next() {
		var (
			f     DealFact
			stage string
		)
		if err := rows.Scan(&stage, &f.Amount, &f.Probability, &f.ExpectedClose); err != nil {
			return nil, fmt.Errorf("scan deal fact: %w", err)
		}
		f.Stage = domain.DealStage(stage)
		f.ExpectedClose = f.ExpectedClose.UTC()
		items = append(items, f)
	}
	return items, rows.Err()
}

// CustomerFacts returns customers created in [from, to).
func (r *Repository) CustomerFacts(ctx context.Context, from, to time.Time) ([]CustomerFact, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT status, created_date FROM customers
		WHERE created_date >= ? AND created_date < ?
		ORDER BY created_date ASC`, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("customer facts: %w", err)
	}
	defer rows.Close()

	items := make([]CustomerFact, 0)
	for rows.Next() {
		var (
			f      CustomerFact
			status string
		)
		if err := rows.Scan(&status, &f.CreatedDate); err != nil {
			return nil, fmt.Errorf("scan customer fact: %w", err)
		}
		f.Status = domain.CustomerStatus(status)
		f.CreatedDate = f.CreatedDate.UTC()
		items = append(items, f)
	}
	return items, rows.Err()
}

// Performance aggregates deals by owner for every user, including users
// without deals.
func (r *Repository) Performance(ctx context.Context) ([]UserPerformance, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT u.id, u.username, COUNT(d.id), COALESCE(SUM(d.amount), 0), COALESCE(AVG(d.probability), 0)
		FROM users u
		LEFT JOIN deals d ON d.owner_id = u.id
		GROUP BY u.id, u.username
		ORDER BY u.username ASC`)
	if err != nil {
		return nil, fmt.Errorf("performance: %w", err)
	}
	defer rows.Close()

	items := make([]UserPerformance, 0)
	for rows.Next() {
		var p UserPerformance
		if err := rows.Scan(&p.UserID, &p.Username, &p.Deals, &p.Revenue, &p.AvgProbability); err != nil {
			return nil, fmt.Errorf("scan performance: %w", err)
		}
		items = append(items, p)
	}
	return items, rows.Err()
}
