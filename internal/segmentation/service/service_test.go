package service_test

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

	customersrepo "crm_backend/internal/customers/repository"
	dealsrepo "crm_backend/internal/deals/repository"
	"crm_backend/internal/domain"
	"crm_backend/internal/events"
	"crm_backend/internal/segmentation/service"
	"crm_backend/platform/cache"
	"crm_backend/platform/db/dbtest"
	"crm_backend/platform/logger"
)

type fixture struct {
	customers *customersrepo.Repository
	deals     *dealsrepo.Repository
}

func setup(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	return fixture{customers: customersrepo.New(conn), deals: dealsrepo.New(conn)}
}

// addCustomer creates a customer with n deals whose amounts sum to revenue.
func (f fixture) addCustomer(t *testing.T, name string, revenue int64, n int) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	c := domain.Customer{ID: uuid.New(), Name: name, Status: domain.CustomerStatusCustomer, CreatedDate: time.Now().UTC()}
	require.NoError(t, f.customers.Create(ctx, c))

	per := decimal.NewFromInt(revenue).Div(decimal.NewFromInt(int64(n)))
	for i := 0; i < n; i++ {
		require.NoError(t, f.deals.Create(ctx, domain.Deal{
			ID:            uuid.New(),
			CustomerID:    c.ID,
			Title:         name,
			Amount:        per,
			Stage:         domain.DealStageClosedWon,
			Probability:   100,
			ExpectedClose: time.Now().UTC(),
			CreatedAt:     time.Now().UTC(),
		}))
	}
	return c.ID
}

func segmentsByName(t *testing.T, svc *service.Service) map[string]string {
	t.Helper()
	resp, err := svc.Segment(context.Background())
	require.NoError(t, err)
	out := make(map[string]string, len(resp.Customers))
	for _, c := range resp.Customers {
		out[c.Name] = c.Segment
	}
	return out
}

func TestSegmentThreeCustomerPopulation(t *testing.T) {
	f := setup(t)
	f.addCustomer(t, "A", 1000, 10)
	f.addCustomer(t, "B", 100, 1)
	f.addCustomer(t, "C", 550, 5)

	svc := service.New(f.customers, f.deals, nil, 0, logger.NewWithWriter("test", io.Discard))
	got := segmentsByName(t, svc)

	assert.Equal(t, "High Value", got["A"])
	assert.Equal(t, "Low Value", got["B"])
	assert.Equal(t, "Medium Value", got["C"])
}

func TestSegmentSingleCustomerIsLow(t *testing.T) {
	f := setup(t)
	f.addCustomer(t, "Solo", 5000, 3)

	svc := service.New(f.customers, f.deals, nil, 0, logger.NewWithWriter("test", io.Discard))
	resp, err := svc.Segment(context.Background())
	require.NoError(t, err)
	require.Len(t, resp.Customers, 1)
	assert.Equal(t, "Low Value", resp.Customers[0].Segment)
	require.Len(t, resp.Analysis, 1)
	assert.Equal(t, "5000.00", resp.Analysis[0].TotalRevenue)
}

func TestSegmentIsCachedUntilInvalidated(t *testing.T) {
	f := setup(t)
	f.addCustomer(t, "A", 1000, 10)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc := service.New(f.customers, f.deals, cache.NewRedisCache(client, "crm:"), time.Minute, logger.NewWithWriter("test", io.Discard))
	assert.Len(t, segmentsByName(t, svc), 1)

	f.addCustomer(t, "B", 100, 1)
	assert.Len(t, segmentsByName(t, svc), 1, "served from cache")

	require.NoError(t, svc.Handle(context.Background(), events.DealCreated{}))
	assert.Len(t, segmentsByName(t, svc), 2)
}
