package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StageTotal is one bar of the deals-by-stage chart.
type StageTotal struct {
	Stage  string `json:"stage"`
	Count  int    `json:"count"`
	Amount string `json:"amount"`
}

// Activity is one entry of the recent activity feed.
type Activity struct {
	ContactID    uuid.UUID `json:"contactId"`
	CustomerName string    `json:"customerName"`
	Type         string    `json:"type"`
	Notes        string    `json:"notes"`
	Date         time.Time `json:"date"`
}

// DashboardResponse holds the headline numbers of the CRM.
type DashboardResponse struct {
	TotalCustomers   int          `json:"totalCustomers"`
	ActiveDeals      int          `json:"activeDeals"`
	PipelineValue    string       `json:"pipelineValue"`
	TasksDueToday    int          `json:"tasksDueToday"`
	DealsByStage     []StageTotal `json:"dealsByStage"`
	RecentActivities []Activity   `json:"recentActivities"`
	GeneratedAt      time.Time    `json:"generatedAt"`
}

// OverviewRequest is an inclusive date range.
type OverviewRequest struct {
	Start time.Time `form:"start" time_format:"2006-01-02" validate:"required"`
	End   time.Time `form:"end" time_format:"2006-01-02" validate:"required"`
}

// StageMonth is the deal count and amount for one stage in one month.
type StageMonth struct {
	Month  string `json:"month"`
	Stage  string `json:"stage"`
	Count  int    `json:"count"`
	Amount string `json:"amount"`
}

// StatusMonth is the number of new customers per status in one month.
type StatusMonth struct {
	Month        string `json:"month"`
	Status       string `json:"status"`
	NewCustomers int    `json:"newCustomers"`
}

// OverviewResponse feeds the pipeline funnel, revenue trend and acquisition charts.
type OverviewResponse struct {
	Start       string        `json:"start"`
	End         string        `json:"end"`
	Deals       []StageMonth  `json:"deals"`
	Acquisition []StatusMonth `json:"acquisition"`
}

// ForecastPoint is one month of weighted pipeline and its moving average.
type ForecastPoint struct {
	Period         string  `json:"period"`
	WeightedAmount string  `json:"weightedAmount"`
	Forecast       *string `json:"forecast"`
}

// PerformanceRow summarises one user's deals.
type PerformanceRow struct {
	UserID             uuid.UUID `json:"userId"`
	Username           string    `json:"username"`
	Deals              int       `json:"deals"`
	RevenueGenerated   string    `json:"revenueGenerated"`
	AvgDealProbability float64   `json:"avgDealProbability"`
}

// CreateForecastRequest stores a manual forecast.
type CreateForecastRequest struct {
	Period           string          `json:"period" validate:"required,max=20"`
	PredictedRevenue decimal.Decimal `json:"predictedRevenue"`
	ConfidenceLevel  int             `json:"confidenceLevel" validate:"min=0,max=100"`
	Notes            string          `json:"notes" validate:"omitempty,max=2000"`
}

// ForecastResponse is a stored forecast.
type ForecastResponse struct {
	ID               uuid.UUID `json:"id"`
	Period           string    `json:"period"`
	PredictedRevenue string    `json:"predictedRevenue"`
	ConfidenceLevel  int       `json:"confidenceLevel"`
	Notes            string    `json:"notes"`
	CreatedAt        time.Time `json:"createdAt"`
}

// CreateMetricRequest stores a performance metric.
type CreateMetricRequest struct {
	UserID     uuid.UUID       `json:"userId" validate:"required"`
	MetricType string          `json:"metricType" validate:"required,max=100"`
	Value      decimal.Decimal `json:"value"`
	Date       time.Time       `json:"date" validate:"required"`
}

// MetricResponse is a stored performance metric.
type MetricResponse struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"userId"`
	MetricType string    `json:"metricType"`
	Value      string    `json:"value"`
	Date       time.Time `json:"date"`
}
