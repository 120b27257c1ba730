// Package service computes dashboard, overview, forecast and performance
// analytics over the CRM tables.
package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"crm_backend/internal/analytics/repository"
	"crm_backend/internal/analytics/transport"
	"crm_backend/internal/domain"
	"crm_backend/internal/events"
	"crm_backend/platform/apperr"
	"crm_backend/platform/cache"
	"crm_backend/platform/logger"
)

const (
	dashboardCacheKey   = "dashboard:v1"
	recentActivityLimit = 10
	movingAverageWindow = 3
	monthLayout         = "2006-01"
	dateLayout          = "2006-01-02"
)

// Store is the read model the service queries.
type Store interface {
	CountCustomers(ctx context.Context) (int, error)
	DealsByStage(ctx context.Context) ([]repository.StageTotal, error)
	CountTasksDue(ctx context.Context, from, to time.Time) (int, error)
	RecentActivities(ctx context.Context, limit int) ([]repository.Activity, error)
	DealFacts(ctx context.Context, from, to *time.Time) ([]repository.DealFact, error)
	CustomerFacts(ctx context.Context, from, to time.Time) ([]repository.CustomerFact, error)
	Performance(ctx context.Context) ([]repository.UserPerformance, error)
	CreateForecast(ctx context.Context, f repository.Forecast) error
	ListForecasts(ctx context.Context) ([]repository.Forecast, error)
	CreateMetric(ctx context.Context, m repository.Metric) error
	ListMetrics(ctx context.Context, userID *uuid.UUID) ([]repository.Metric, error)
}

// Service provides analytics.
type Service struct {
	repo  Store
	cache cache.Cache
	ttl   time.Duration
	log   *logger.Logger
	now   func() time.Time
}

// New creates an analytics service. A nil cache disables dashboard caching.
func New(repo Store, c cache.Cache, ttl time.Duration, log *logger.Logger) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	return &Service{repo: repo, cache: c, ttl: ttl, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// Dashboard returns the headline metrics, served from cache when fresh.
func (s *Service) Dashboard(ctx context.Context) (transport.DashboardResponse, error) {
	return cache.GetOrLoad(ctx, s.cache, dashboardCacheKey, s.ttl, s.loadDashboard)
}

func (s *Service) loadDashboard(ctx context.Context) (transport.DashboardResponse, error) {
	now := s.now()
	dayStart, dayEnd := domain.DayBounds(now)

	var (
		totalCustomers int
		stages         []repository.StageTotal
		tasksDue       int
		activities     []repository.Activity
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totalCustomers, err = s.repo.CountCustomers(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stages, err = s.repo.DealsByStage(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		tasksDue, err = s.repo.CountTasksDue(gctx, dayStart, dayEnd)
		return err
	})
	g.Go(func() error {
		var err error
		activities, err = s.repo.RecentActivities(gctx, recentActivityLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return transport.DashboardResponse{}, err
	}

	resp := transport.DashboardResponse{
		TotalCustomers:   totalCustomers,
		TasksDueToday:    tasksDue,
		DealsByStage:     make([]transport.StageTotal, 0, len(stages)),
		RecentActivities: make([]transport.Activity, len(activities)),
		GeneratedAt:      now,
	}

	sort.SliceStable(stages, func(i, j int) bool { return stages[i].Stage.Order() < stages[j].Stage.Order() })
	pipeline := decimal.Zero
	for _, st := range stages {
		resp.DealsByStage = append(resp.DealsByStage, transport.StageTotal{
			Stage: string(st.Stage), Count: st.Count, Amount: st.Amount.StringFixed(2),
		})
		if st.Stage.IsOpen() {
			resp.ActiveDeals += st.Count
			pipeline = pipeline.Add(st.Amount)
		}
	}
	resp.PipelineValue = pipeline.StringFixed(2)

	for i, a := range activities {
		resp.RecentActivities[i] = transport.Activity{
			ContactID: a.ContactID, CustomerName: a.CustomerName, Type: a.Type, Notes: a.Notes, Date: a.Date,
		}
	}
	return resp, nil
}

// Handle drops the cached dashboard when the underlying data changes.
func (s *Service) Handle(ctx context.Context, _ events.Event) error {
	return s.cache.Delete(ctx, dashboardCacheKey)
}

// Subscribe registers dashboard cache invalidation on bus.
func (s *Service) Subscribe(bus events.Bus) {
	for _, name := range []string{
		events.CustomerCreated{}.EventName(),
		events.CustomerUpdated{}.EventName(),
		events.CustomerDeleted{}.EventName(),
		events.ContactLogged{}.EventName(),
		events.DealCreated{}.EventName(),
		events.DealUpdated{}.EventName(),
		events.DealStageChanged{}.EventName(),
		events.DealDeleted{}.EventName(),
		events.TaskCreated{}.EventName(),
		events.TaskStatusChanged{}.EventName(),
		events.TaskDeleted{}.EventName(),
	} {
		bus.Subscribe(name, s)
	}
}

// Overview groups deals by stage and expected-close month and new customers
// by creation month and status, over the inclusive range [start, end].
func (s *Service) Overview(ctx context.Context, req transport.OverviewRequest) (transport.OverviewResponse, error) {
	start := req.Start.UTC()
	end := req.End.UTC()
	if end.Before(start) {
		return transport.OverviewResponse{}, apperr.Validation("end date is before start date")
	}
	from, _ := domain.DayBounds(start)
	_, to := domain.DayBounds(end)

	deals, err := s.repo.DealFacts(ctx, &from, &to)
	if err != nil {
		return transport.OverviewResponse{}, err
	}
	customers, err := s.repo.CustomerFacts(ctx, from, to)
	if err != nil {
		return transport.OverviewResponse{}, err
	}

	return transport.OverviewResponse{
		Start:       start.Format(dateLayout),
		End:         end.Format(dateLayout),
		Deals:       GroupDealsByMonth(deals),
		Acquisition: GroupCustomersByMonth(customers),
	}, nil
}

// Forecast returns the weighted pipeline per expected-close month with a
// trailing moving average over three periods.
func (s *Service) Forecast(ctx context.Context) ([]transport.ForecastPoint, error) {
	deals, err := s.repo.DealFacts(ctx, nil, nil)
	if err != nil {
		return nil, err
	}
	return BuildForecast(deals), nil
}

// Performance returns deal totals per user.
func (s *Service) Performance(ctx context.Context) ([]transport.PerformanceRow, error) {
	rows, err := s.repo.Performance(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]transport.PerformanceRow, len(rows))
	for i, r := range rows {
		out[i] = transport.PerformanceRow{
			UserID:             r.UserID,
			Username:           r.Username,
			Deals:              r.Deals,
			RevenueGenerated:   r.Revenue.StringFixed(2),
			AvgDealProbability: decimal.NewFromFloat(r.AvgProbability).Round(2).InexactFloat64(),
		}
	}
	return out, nil
}

// GroupDealsByMonth counts and sums deals per (month, stage), ordered by
// month and then pipeline order.
func GroupDealsByMonth(deals []repository.DealFact) []transport.StageMonth {
	type key struct {
		month string
		stage domain.DealStage
	}
	counts := make(map[key]int)
	sums := make(map[key]decimal.Decimal)
	var keys []key
	for _, d := range deals {
		k := key{month: d.ExpectedClose.Format(monthLayout), stage: d.Stage}
		if _, ok := counts[k]; !ok {
			keys = append(keys, k)
			sums[k] = decimal.Zero
		}
		counts[k]++
		sums[k] = sums[k].Add(d.Amount)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].month != keys[j].month {
			return keys[i].month < keys[j].month
		}
		return keys[i].stage.Order() < keys[j].stage.Order()
	})

	out := make([]transport.StageMonth, len(keys))
	for i, k := range keys {
		out[i] = transport.StageMonth{Month: k.month, Stage: string(k.stage), Count: counts[k], Amount: sums[k].StringFixed(2)}
	}
	return out
}

// GroupCustomersByMonth counts new customers per (month, status).
func GroupCustomersByMonth(customers []repository.CustomerFact) []transport.StatusMonth {
	type key struct {
		month  string
		status domain.CustomerStatus
	}
	counts := make(map[key]int)
	var keys []key
	for _, c := range customers {
		k := key{month: c.CreatedDate.Format(monthLayout), status: c.Status}
		if _, ok := counts[k]; !ok {
			keys = append(keys, k)
		}
		counts[k]++
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].month != keys[j].month {
			return keys[i].month < keys[j].month
		}
		return statusRank(keys[i].status) < statusRank(keys[j].status)
	})

	out := make([]transport.StatusMonth, len(keys))
	for i, k := range keys {
		out[i] = transport.StatusMonth{Month: k.month, Status: string(k.status), NewCustomers: counts[k]}
	}
	return out
}

// BuildForecast sums amount × probability / 100 per month and adds the
// moving average of the current and two previous periods. The first two
// periods have no forecast.
func BuildForecast(deals []repository.DealFact) []transport.ForecastPoint {
	sums := make(map[string]decimal.Decimal)
	var periods []string
	for _, d := range deals {
		period := d.ExpectedClose.Format(monthLayout)
		if _, ok := sums[period]; !ok {
			periods = append(periods, period)
			sums[period] = decimal.Zero
		}
		weighted := domain.Deal{Amount: d.Amount, Probability: d.Probability}.WeightedAmount()
		sums[period] = sums[period].Add(weighted)
	}
	sort.Strings(periods)

	out := make([]transport.ForecastPoint, len(periods))
	window := decimal.NewFromInt(movingAverageWindow)
	for i, p := range periods {
		out[i] = transport.ForecastPoint{Period: p, WeightedAmount: sums[p].StringFixed(2)}
		if i+1 < movingAverageWindow {
			continue
		}
		total := decimal.Zero
		for j := i + 1 - movingAverageWindow; j <= i; j++ {
			total = total.Add(sums[periods[j]])
		}
		avg := total.Div(window).StringFixed(2)
		out[i].Forecast = &avg
	}
	return out
}

func statusRank(s domain.CustomerStatus) int {
	for i, st := range domain.CustomerStatuses {
		if st == s {
			return i
		}
	}
	return len(domain.CustomerStatuses)
}
