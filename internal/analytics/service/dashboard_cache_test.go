package service_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crm_backend/internal/analytics/repository"
	"crm_backend/internal/analytics/service"
	"crm_backend/internal/analytics/transport"
	"crm_backend/internal/customers"
	customerstransport "crm_backend/internal/customers/transport"
	"crm_backend/internal/deals"
	dealstransport "crm_backend/internal/deals/transport"
	"crm_backend/internal/domain"
	"crm_backend/internal/events"
	"crm_backend/internal/tasks"
	taskstransport "crm_backend/internal/tasks/transport"
	"crm_backend/platform/cache"
	"crm_backend/platform/db/dbtest"
	"crm_backend/platform/logger"
	"crm_backend/platform/phone"
)

func TestDashboardFollowsWrites(t *testing.T) {
	ctx := context.Background()
	conn := dbtest.Open(t)
	log := logger.NewWithWriter("test", io.Discard)
	bus := events.NewInMemoryBus(log)
	t.Cleanup(bus.Wait)
	val := domain.NewValidator()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc := service.New(repository.New(conn), cache.NewRedisCache(client, "crm:"), time.Hour, log)
	svc.Subscribe(bus)

	customersModule := customers.NewModule(conn, val, bus, phone.NewNormalizer("US"), log)
	dealsSvc := deals.NewModule(conn, customersModule.Repository(), val, bus, log).Service()
	tasksSvc := tasks.NewModule(conn, customersModule.Repository(), val, bus, log).Service()

	dashboard := func() transport.DashboardResponse {
		t.Helper()
		resp, err := svc.Dashboard(ctx)
		require.NoError(t, err)
		return resp
	}

	customer, err := customersModule.Service().Create(ctx, customerstransport.CreateCustomerRequest{Name: "Acme"})
	require.NoError(t, err)
	deal, err := dealsSvc.Create(ctx, dealstransport.CreateDealRequest{
		CustomerID:    customer.ID,
		Title:         "Pilot",
		Amount:        decimal.NewFromInt(100),
		Probability:   20,
		ExpectedClose: time.Now().UTC().AddDate(0, 1, 0),
	})
	require.NoError(t, err)
	dayStart, _ := domain.DayBounds(time.Now().UTC())
	task, err := tasksSvc.Create(ctx, taskstransport.CreateTaskRequest{
		CustomerID: customer.ID,
		Title:      "Call back",
		DueDate:    dayStart.Add(time.Minute),
	})
	require.NoError(t, err)

	got := dashboard()
	assert.Equal(t, 1, got.TotalCustomers)
	assert.Equal(t, "100.00", got.PipelineValue)
	assert.Equal(t, 1, got.TasksDueToday)

	amount := decimal.NewFromInt(250)
	_, err = dealsSvc.Update(ctx, deal.ID, dealstransport.UpdateDealRequest{Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, "250.00", dashboard().PipelineValue)

	_, err = tasksSvc.UpdateStatus(ctx, task.ID, taskstransport.UpdateTaskStatusRequest{Status: string(domain.TaskStatusCompleted)})
	require.NoError(t, err)
	assert.Equal(t, 0, dashboard().TasksDueToday)

	require.NoError(t, dealsSvc.Delete(ctx, deal.ID))
	got = dashboard()
	assert.Equal(t, "0.00", got.PipelineValue)
	assert.Equal(t, 0, got.ActiveDeals)

	require.NoError(t, tasksSvc.Delete(ctx, task.ID))
	require.NoError(t, customersModule.Service().Delete(ctx, customer.ID))
	assert.Equal(t, 0, dashboard().TotalCustomers)
}
