package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"crm_backend/platform/apperr"
	"crm_backend/platform/db"
)

// Forecast is a stored revenue prediction for a period.
type Forecast struct {
	ID               uuid.UUID
	Period           string
	PredictedRevenue decimal.Decimal
	ConfidenceLevel  int
	Notes            string
	CreatedAt        time.Time
}

// Metric is a stored performance measurement for a user.
type Metric struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	MetricType string
	Value      decimal.Decimal
	Date       time.Time
}

// CreateForecast stores a forecast.
func (r *Repository) CreateForecast(ctx context.Context, f Forecast) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO sales_forecasts (id, period, predicted_revenue, confidence_level, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		f.ID, f.Period, f.PredictedRevenue, f.ConfidenceLevel, f.Notes, f.CreatedAt.UTC(),
	)
	if err != nil {
		if db.IsCheckViolation(err) {
			return apperr.Validation("revenue or confidence out of range").WithOp("create forecast")
		}
		return fmt.Errorf("create forecast: %w", err)
	}
	return nil
}

// ListForecasts returns stored forecasts by period.
func (r *Repository) ListForecasts(ctx context.Context) ([]Forecast, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, period, predicted_revenue, confidence_level, notes, created_at
		FROM sales_forecasts
		ORDER BY period ASC, created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list forecasts: %w", err)
	}
	defer rows.Close()

	items := make([]Forecast, 0)
	for rows.Next() {
		var f Forecast
		if err := rows.Scan(&f.ID, &f.Period, &f.PredictedRevenue, &f.ConfidenceLevel, &f.Notes, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan forecast: %w", err)
		}
		f.CreatedAt = f.CreatedAt.UTC()
		items = append(items, f)
	}
	return items, rows.Err()
}

// CreateMetric stores a performance metric.
func (r *Repository) CreateMetric(ctx context.Context, m Metric) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO performance_metrics (id, user_id, metric_type, value, date)
		VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.UserID, m.MetricType, m.Value, m.Date.UTC(),
	)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return apperr.NotFound("user not found").WithOp("create metric")
		}
		return fmt.Errorf("create metric: %w", err)
	}
	return nil
}

// ListMetrics returns metrics newest first, optionally for one user.
func (r *Repository) ListMetrics(ctx context.Context, userID *uuid.UUID) ([]Metric, error) {
	query := `SELECT id, user_id, metric_type, value, date FROM performance_metrics`
	var args []any
	if userID != nil {
		query += ` WHERE user_id = ?`
		args = append(args, *userID)
	}
	query += ` ORDER BY date DESC`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}
	defer rows.Close()

	items := make([]Metric, 0)
	for rows.Next() {
		var m Metric
		if err := rows.Scan(&m.ID, &m.UserID, &m.MetricType, &m.Value, &m.Date); err != nil {
			return nil, fmt.Errorf("scan metric: %w", err)
		}
		m.Date = m.Date.UTC()
		items = append(items, m)
	}
	return items, rows.Err()
}
