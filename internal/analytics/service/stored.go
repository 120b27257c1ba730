package service

import (
	"context"

	"github.com/google/uuid"

	"crm_backend/internal/analytics/repository"
	"crm_backend/internal/analytics/transport"
	"crm_backend/platform/apperr"
	"crm_backend/platform/sanitize"
)

// CreateForecast stores a manual sales forecast.
func (s *Service) CreateForecast(ctx context.Context, req transport.CreateForecastRequest) (transport.ForecastResponse, error) {
	if req.PredictedRevenue.IsNegative() {
		return transport.ForecastResponse{}, apperr.Validation("predicted revenue must not be negative")
	}
	f := repository.Forecast{
		ID:               uuid.New(),
		Period:           sanitize.Text(req.Period),
		PredictedRevenue: req.PredictedRevenue,
		ConfidenceLevel:  req.ConfidenceLevel,
		Notes:            sanitize.Text(req.Notes),
		CreatedAt:        s.now(),
	}
	if err := s.repo.CreateForecast(ctx, f); err != nil {
		return transport.ForecastResponse{}, err
	}
	s.log.WithContext(ctx).Info("forecast stored", "id", f.ID, "period", f.Period)
	return toForecastResponse(f), nil
}

// ListForecasts returns stored forecasts.
func (s *Service) ListForecasts(ctx context.Context) ([]transport.ForecastResponse, error) {
	items, err := s.repo.ListForecasts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]transport.ForecastResponse, len(items))
	for i, f := range items {
		out[i] = toForecastResponse(f)
	}
	return out, nil
}

// CreateMetric stores a performance metric for a user.
func (s *Service) CreateMetric(ctx context.Context, req transport.CreateMetricRequest) (transport.MetricResponse, error) {
	m := repository.Metric{
		ID:         uuid.New(),
		UserID:     req.UserID,
		MetricType: sanitize.Text(req.MetricType),
		Value:      req.Value,
		Date:       req.Date.UTC(),
	}
	if err := s.repo.CreateMetric(ctx, m); err != nil {
		return transport.MetricResponse{}, err
	}
	s.log.WithContext(ctx).Info("metric stored", "id", m.ID, "userId", m.UserID, "type", m.MetricType)
	return toMetricResponse(m), nil
}

// ListMetrics returns stored metrics, optionally for one user.
func (s *Service) ListMetrics(ctx context.Context, userID *uuid.UUID) ([]transport.MetricResponse, error) {
	items, err := s.repo.ListMetrics(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]transport.MetricResponse, len(items))
	for i, m := range items {
		out[i] = toMetricResponse(m)
	}
	return out, nil
}

func toForecastResponse(f repository.Forecast) transport.ForecastResponse {
	return transport.ForecastResponse{
		ID:               f.ID,
		Period:           f.Period,
		PredictedRevenue: f.PredictedRevenue.StringFixed(2),
		ConfidenceLevel:  f.ConfidenceLevel,
		Notes:            f.Notes,
		CreatedAt:        f.CreatedAt,
	}
}

func toMetricResponse(m repository.Metric) transport.MetricResponse {
	return transport.MetricResponse{
		ID:         m.ID,
		UserID:     m.UserID,
		MetricType: m.MetricType,
		Value:      m.Value.String(),
		Date:       m.Date,
	}
}
