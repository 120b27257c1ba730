// Package service segments the customer population into value tiers.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"crm_backend/internal/domain"
	"crm_backend/internal/events"
	"crm_backend/internal/segmentation/engine"
	"crm_backend/internal/segmentation/transport"
	"crm_backend/platform/cache"
	"crm_backend/platform/logger"
)

const cacheKey = "segmentation:v1"

// CustomerLister loads the whole customer population.
type CustomerLister interface {
	ListAll(ctx context.Context) ([]domain.Customer, error)
}

// DealLister loads every deal.
type DealLister interface {
	ListAll(ctx context.Context) ([]domain.Deal, error)
}

// Service computes segments on demand. Nothing is persisted.
type Service struct {
	customers CustomerLister
	deals     DealLister
	cache     cache.Cache
	ttl       time.Duration
	log       *logger.Logger
}

// New creates a segmentation service. A nil cache disables caching.
func New(customers CustomerLister, deals DealLister, c cache.Cache, ttl time.Duration, log *logger.Logger) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	return &Service{customers: customers, deals: deals, cache: c, ttl: ttl, log: log}
}

// Segment returns every customer's tier and the per-tier analysis.
func (s *Service) Segment(ctx context.Context) (transport.SegmentationResponse, error) {
	return cache.GetOrLoad(ctx, s.cache, cacheKey, s.ttl, s.compute)
}

func (s *Service) compute(ctx context.Context) (transport.SegmentationResponse, error) {
	customers, err := s.customers.ListAll(ctx)
	if err != nil {
		return transport.SegmentationResponse{}, err
	}
	deals, err := s.deals.ListAll(ctx)
	if err != nil {
		return transport.SegmentationResponse{}, err
	}

	rows := engine.Compute(customers, deals)
	s.log.WithContext(ctx).Info("customers segmented", "customers", len(customers), "deals", len(deals))
	return BuildResponse(customers, rows), nil
}

// Handle drops the cached segmentation when customers or deals change.
func (s *Service) Handle(ctx context.Context, _ events.Event) error {
	return s.cache.Delete(ctx, cacheKey)
}

// Subscribe registers cache invalidation on the events that change the population.
func (s *Service) Subscribe(bus events.Bus) {
	for _, name := range []string{
		events.CustomerCreated{}.EventName(),
		events.CustomerUpdated{}.EventName(),
		events.CustomerDeleted{}.EventName(),
		events.DealCreated{}.EventName(),
		events.DealUpdated{}.EventName(),
		events.DealStageChanged{}.EventName(),
		events.DealDeleted{}.EventName(),
	} {
		bus.Subscribe(name, s)
	}
}

// BuildResponse joins feature rows with customer names.
func BuildResponse(customers []domain.Customer, rows []engine.Features) transport.SegmentationResponse {
	byID := make(map[uuid.UUID]domain.Customer, len(customers))
	for _, c := range customers {
		byID[c.ID] = c
	}

	resp := transport.SegmentationResponse{
		Customers: make([]transport.CustomerSegment, len(rows)),
	}
	for i, row := range rows {
		c := byID[row.CustomerID]
		resp.Customers[i] = transport.CustomerSegment{
			CustomerID:        row.CustomerID,
			Name:              c.Name,
			Company:           c.Company,
			TotalDeals:        row.TotalDeals,
			TotalRevenue:      row.TotalRevenue.StringFixed(2),
			AvgDealSize:       row.AvgDealSize.StringFixed(2),
			ScaledRevenue:     row.ScaledRevenue,
			ScaledAvgDealSize: row.ScaledAvgDealSize,
			ScaledDealCount:   row.ScaledDealCount,
			Segment:           string(row.Tier),
		}
	}

	summaries := engine.Analyze(rows)
	resp.Analysis = make([]transport.SegmentAnalysis, len(summaries))
	for i, sum := range summaries {
		resp.Analysis[i] = transport.SegmentAnalysis{
			Segment:        string(sum.Tier),
			CustomerCount:  sum.CustomerCount,
			TotalRevenue:   sum.TotalRevenue.StringFixed(2),
			AvgDealSizeAvg: sum.AvgDealSizeAvg.StringFixed(2),
		}
	}
	return resp
}
