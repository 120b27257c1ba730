package service_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crm_backend/internal/analytics/repository"
	"crm_backend/internal/analytics/service"
	"crm_backend/internal/analytics/transport"
	customersrepo "crm_backend/internal/customers/repository"
	dealsrepo "crm_backend/internal/deals/repository"
	"crm_backend/internal/domain"
	"crm_backend/internal/events"
	"crm_backend/platform/db/dbtest"
	"crm_backend/platform/logger"
)

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 15, 0, 0, 0, 0, time.UTC)
}

func TestBuildForecastMovingAverage(t *testing.T) {
	deals := []repository.DealFact{
		{Stage: domain.DealStageProposal, Amount: decimal.NewFromInt(600), Probability: 50, ExpectedClose: month(2026, time.March)},
		{Stage: domain.DealStageProspecting, Amount: decimal.NewFromInt(1000), Probability: 10, ExpectedClose: month(2026, time.January)},
		{Stage: domain.DealStageNegotiation, Amount: decimal.NewFromInt(400), Probability: 50, ExpectedClose: month(2026, time.February)},
	}

	points := service.BuildForecast(deals)
	require.Len(t, points, 3)

	assert.Equal(t, "2026-01", points[0].Period)
	assert.Equal(t, "100.00", points[0].WeightedAmount)
	assert.Nil(t, points[0].Forecast)
	assert.Nil(t, points[1].Forecast)

	assert.Equal(t, "2026-03", points[2].Period)
	assert.Equal(t, "300.00", points[2].WeightedAmount)
	require.NotNil(t, points[2].Forecast)
	assert.Equal(t, "200.00", *points[2].Forecast)
}

func TestBuildForecastEmpty(t *testing.T) {
	assert.Empty(t, service.BuildForecast(nil))
}

func TestGroupDealsByMonthOrdersByPipelineStage(t *testing.T) {
	deals := []repository.DealFact{
		{Stage: domain.DealStageNegotiation, Amount: decimal.NewFromInt(10), ExpectedClose: month(2026, time.May)},
		{Stage: domain.DealStageProspecting, Amount: decimal.NewFromInt(20), ExpectedClose: month(2026, time.May)},
		{Stage: domain.DealStageProspecting, Amount: decimal.NewFromInt(5), ExpectedClose: month(2026, time.May)},
		{Stage: domain.DealStageClosedWon, Amount: decimal.NewFromInt(7), ExpectedClose: month(2026, time.April)},
	}

	got := service.GroupDealsByMonth(deals)
	assert.Equal(t, []transport.StageMonth{
		{Month: "2026-04", Stage: string(domain.DealStageClosedWon), Count: 1, Amount: "7.00"},
		{Month: "2026-05", Stage: string(domain.DealStageProspecting), Count: 2, Amount: "25.00"},
		{Month: "2026-05", Stage: string(domain.DealStageNegotiation), Count: 1, Amount: "10.00"},
	}, got)
}

func TestGroupCustomersByMonth(t *testing.T) {
	customers := []repository.CustomerFact{
		{Status: domain.CustomerStatusCustomer, CreatedDate: month(2026, time.June)},
		{Status: domain.CustomerStatusLead, CreatedDate: month(2026, time.June)},
		{Status: domain.CustomerStatusLead, CreatedDate: month(2026, time.June)},
	}

	got := service.GroupCustomersByMonth(customers)
	require.Len(t, got, 2)
	assert.Equal(t, string(domain.CustomerStatusLead), got[0].Status)
	assert.Equal(t, 2, got[0].NewCustomers)
	assert.Equal(t, string(domain.CustomerStatusCustomer), got[1].Status)
}

type fixture struct {
	svc       *service.Service
	customers *customersrepo.Repository
	deals     *dealsrepo.Repository
}

func setup(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	return fixture{
		svc:       service.New(repository.New(conn), nil, 0, logger.NewWithWriter("test", io.Discard)),
		customers: customersrepo.New(conn),
		deals:     dealsrepo.New(conn),
	}
}

func (f fixture) addDeal(t *testing.T, customerID uuid.UUID, amount int64, stage domain.DealStage) {
	t.Helper()
	require.NoError(t, f.deals.Create(context.Background(), domain.Deal{
		ID:            uuid.New(),
		CustomerID:    customerID,
		Title:         "deal",
		Amount:        decimal.NewFromInt(amount),
		Stage:         stage,
		Probability:   50,
		ExpectedClose: time.Now().UTC(),
		CreatedAt:     time.Now().UTC(),
	}))
}

func TestDashboardExcludesClosedLostFromPipeline(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := domain.Customer{ID: uuid.New(), Name: "Acme", Status: domain.CustomerStatusCustomer, CreatedDate: time.Now().UTC()}
	require.NoError(t, f.customers.Create(ctx, c))

	f.addDeal(t, c.ID, 100, domain.DealStageProspecting)
	f.addDeal(t, c.ID, 200, domain.DealStageNegotiation)
	f.addDeal(t, c.ID, 999, domain.DealStageClosedLost)

	resp, err := f.svc.Dashboard(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, resp.TotalCustomers)
	assert.Equal(t, 2, resp.ActiveDeals)
	assert.Equal(t, "300.00", resp.PipelineValue)
	assert.Len(t, resp.DealsByStage, 3)
}

func TestOverviewRejectsInvertedRange(t *testing.T) {
	f := setup(t)
	_, err := f.svc.Overview(context.Background(), transport.OverviewRequest{
		Start: month(2026, time.May),
		End:   month(2026, time.April),
	})
	require.Error(t, err)
}

func TestHandleDropsCachedDashboard(t *testing.T) {
	f := setup(t)
	// Handle must be safe without a configured cache.
	require.NoError(t, f.svc.Handle(context.Background(), events.CustomerCreated{BaseEvent: events.NewBaseEvent()}))
}
