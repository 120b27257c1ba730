// Package engine buckets customers into value tiers from their deal history.
//
// Tiers are relative: every feature is min-max scaled across the population
// passed in, so the same customer can change tier when others are added.
package engine

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"crm_backend/internal/domain"
)

// Tier is a customer value segment.
type Tier string

const (
	TierHigh   Tier = "High Value"
	TierMedium Tier = "Medium Value"
	TierLow    Tier = "Low Value"
)

// Tiers lists the tiers from highest to lowest.
var Tiers = []Tier{TierHigh, TierMedium, TierLow}

const (
	highThreshold   = 0.7
	mediumThreshold = 0.3
)

// Features are the per-customer aggregates and their scaled values.
type Features struct {
	CustomerID   uuid.UUID
	TotalDeals   int
	TotalRevenue decimal.Decimal
	AvgDealSize  decimal.Decimal

	ScaledRevenue     float64
	ScaledAvgDealSize float64
	ScaledDealCount   float64

	Tier Tier
}

// SegmentCustomers assigns a tier to every customer.
func SegmentCustomers(customers []domain.Customer, deals []domain.Deal) map[uuid.UUID]Tier {
	rows := Compute(customers, deals)
	out := make(map[uuid.UUID]Tier, len(rows))
	for _, row := range rows {
		out[row.CustomerID] = row.Tier
	}
	return out
}

// Compute returns the feature rows in customer order. Deals of every stage
// count toward revenue. Deals of unknown customers are ignored.
func Compute(customers []domain.Customer, deals []domain.Deal) []Features {
	if len(customers) == 0 {
		return []Features{}
	}

	index := make(map[uuid.UUID]int, len(customers))
	rows := make([]Features, len(customers))
	for i, c := range customers {
		index[c.ID] = i
		rows[i] = Features{CustomerID: c.ID, TotalRevenue: decimal.Zero, AvgDealSize: decimal.Zero}
	}

	for _, d := range deals {
		i, ok := index[d.CustomerID]
		if !ok {
			continue
		}
		rows[i].TotalDeals++
		rows[i].TotalRevenue = rows[i].TotalRevenue.Add(d.Amount)
	}

	revenue := make([]float64, len(rows))
	avgSize := make([]float64, len(rows))
	counts := make([]float64, len(rows))
	for i := range rows {
		if rows[i].TotalDeals > 0 {
			rows[i].AvgDealSize = rows[i].TotalRevenue.Div(decimal.NewFromInt(int64(rows[i].TotalDeals)))
		}
		revenue[i] = rows[i].TotalRevenue.InexactFloat64()
		avgSize[i] = rows[i].AvgDealSize.InexactFloat64()
		counts[i] = float64(rows[i].TotalDeals)
	}

	revenue = minMaxScale(revenue)
	avgSize = minMaxScale(avgSize)
	counts = minMaxScale(counts)

	for i := range rows {
		rows[i].ScaledRevenue = revenue[i]
		rows[i].ScaledAvgDealSize = avgSize[i]
		rows[i].ScaledDealCount = counts[i]
		rows[i].Tier = classify(revenue[i], counts[i])
	}
	return rows
}

// classify uses scaled revenue and scaled deal count only.
func classify(scaledRevenue, scaledDeals float64) Tier {
	switch {
	case scaledRevenue > highThreshold && scaledDeals > highThreshold:
		return TierHigh
	case scaledRevenue > mediumThreshold && scaledDeals > mediumThreshold:
		return TierMedium
	default:
		return TierLow
	}
}

// minMaxScale maps values onto [0, 1]. A constant column scales to all zeros.
func minMaxScale(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		return out
	}
	for i, v := range values {
		out[i] = (v - lo) / span
	}
	return out
}

// SegmentSummary aggregates one tier.
type SegmentSummary struct {
	Tier           Tier
	CustomerCount  int
	TotalRevenue   decimal.Decimal
	AvgDealSizeAvg decimal.Decimal
}

// Analyze groups feature rows by tier. The mean average deal size is
// rounded to two decimals. Tiers without customers are omitted and the
// result is ordered High, Medium, Low.
func Analyze(rows []Features) []SegmentSummary {
	byTier := make(map[Tier]*SegmentSummary)
	sums := make(map[Tier]decimal.Decimal)
	for _, row := range rows {
		s, ok := byTier[row.Tier]
		if !ok {
			s = &SegmentSummary{Tier: row.Tier, TotalRevenue: decimal.Zero}
			byTier[row.Tier] = s
			sums[row.Tier] = decimal.Zero
		}
		s.CustomerCount++
		s.TotalRevenue = s.TotalRevenue.Add(row.TotalRevenue)
		sums[row.Tier] = sums[row.Tier].Add(row.AvgDealSize)
	}

	out := make([]SegmentSummary, 0, len(byTier))
	for _, tier := range Tiers {
		s, ok := byTier[tier]
		if !ok {
			continue
		}
		s.AvgDealSizeAvg = sums[tier].Div(decimal.NewFromInt(int64(s.CustomerCount))).Round(2)
		out = append(out, *s)
	}
	return out
}
