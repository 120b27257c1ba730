package segmentation_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crm_backend/internal/customers"
	customerstransport "crm_backend/internal/customers/transport"
	"crm_backend/internal/deals"
	dealstransport "crm_backend/internal/deals/transport"
	"crm_backend/internal/domain"
	"crm_backend/internal/events"
	"crm_backend/internal/segmentation"
	"crm_backend/internal/segmentation/transport"
	"crm_backend/platform/cache"
	"crm_backend/platform/db/dbtest"
	"crm_backend/platform/logger"
	"crm_backend/platform/phone"
)

type wiring struct {
	customers    *customers.Module
	deals        *deals.Module
	segmentation *segmentation.Module
}

// wire builds the modules the way cmd/api does, over a real bus and a
// Redis cache with a TTL long enough that only invalidation can refresh it.
func wire(t *testing.T) wiring {
	t.Helper()
	conn := dbtest.Open(t)
	log := logger.NewWithWriter("test", io.Discard)
	bus := events.NewInMemoryBus(log)
	t.Cleanup(bus.Wait)
	val := domain.NewValidator()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	customersModule := customers.NewModule(conn, val, bus, phone.NewNormalizer("US"), log)
	dealsModule := deals.NewModule(conn, customersModule.Repository(), val, bus, log)
	segmentationModule := segmentation.NewModule(
		customersModule.Repository(), dealsModule.Repository(),
		cache.NewRedisCache(client, "crm:"), time.Hour, bus, log,
	)
	return wiring{customers: customersModule, deals: dealsModule, segmentation: segmentationModule}
}

func (w wiring) addCustomer(t *testing.T, name string) uuid.UUID {
	t.Helper()
	resp, err := w.customers.Service().Create(context.Background(), customerstransport.CreateCustomerRequest{Name: name})
	require.NoError(t, err)
	return resp.ID
}

func (w wiring) addDeal(t *testing.T, customerID uuid.UUID, amount int64) uuid.UUID {
	t.Helper()
	resp, err := w.deals.Service().Create(context.Background(), dealstransport.CreateDealRequest{
		CustomerID:    customerID,
		Title:         "Renewal",
		Amount:        decimal.NewFromInt(amount),
		Stage:         string(domain.DealStageClosedWon),
		Probability:   100,
		ExpectedClose: time.Now().UTC(),
	})
	require.NoError(t, err)
	return resp.ID
}

func (w wiring) segments(t *testing.T) map[uuid.UUID]transport.CustomerSegment {
	t.Helper()
	resp, err := w.segmentation.Service().Segment(context.Background())
	require.NoError(t, err)
	out := make(map[uuid.UUID]transport.CustomerSegment, len(resp.Customers))
	for _, c := range resp.Customers {
		out[c.CustomerID] = c
	}
	return out
}

func TestDealWritesRefreshSegmentation(t *testing.T) {
	w := wire(t)
	ctx := context.Background()

	a := w.addCustomer(t, "Acme")
	b := w.addCustomer(t, "Birch")
	firstA := w.addDeal(t, a, 500)
	w.addDeal(t, a, 500)
	dealB := w.addDeal(t, b, 10)

	got := w.segments(t)
	require.Len(t, got, 2)
	assert.Equal(t, "1000.00", got[a].TotalRevenue)
	assert.Equal(t, "High Value", got[a].Segment)
	assert.Equal(t, "10.00", got[b].TotalRevenue)
	assert.Equal(t, "Low Value", got[b].Segment)

	amount := decimal.NewFromInt(5000)
	_, err := w.deals.Service().Update(ctx, dealB, dealstransport.UpdateDealRequest{Amount: &amount})
	require.NoError(t, err)

	got = w.segments(t)
	assert.Equal(t, "5000.00", got[b].TotalRevenue)
	assert.Equal(t, "Low Value", got[a].Segment, "lowest revenue after the update")

	require.NoError(t, w.deals.Service().Delete(ctx, firstA))

	got = w.segments(t)
	assert.Equal(t, 1, got[a].TotalDeals)
	assert.Equal(t, "500.00", got[a].TotalRevenue)
}

func TestCustomerWritesRefreshSegmentation(t *testing.T) {
	w := wire(t)
	ctx := context.Background()

	a := w.addCustomer(t, "Acme")
	b := w.addCustomer(t, "Birch")
	w.addDeal(t, b, 300)
	require.Len(t, w.segments(t), 2)

	renamed := "Acme Holdings"
	_, err := w.customers.Service().Update(ctx, a, customerstransport.UpdateCustomerRequest{Name: &renamed})
	require.NoError(t, err)
	assert.Equal(t, "Acme Holdings", w.segments(t)[a].Name)

	require.NoError(t, w.customers.Service().Delete(ctx, a))

	got := w.segments(t)
	require.Len(t, got, 1)
	assert.Contains(t, got, b)
}
