package engine

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"crm_backend/internal/domain"
)

func customer(name string) domain.Customer {
	return domain.Customer{ID: uuid.New(), Name: name, Status: domain.CustomerStatusCustomer}
}

// dealsOf splits revenue evenly over n deals.
func dealsOf(c domain.Customer, revenue int64, n int) []domain.Deal {
	out := make([]domain.Deal, n)
	each := decimal.NewFromInt(revenue).Div(decimal.NewFromInt(int64(n)))
	for i := range out {
		out[i] = domain.Deal{ID: uuid.New(), CustomerID: c.ID, Amount: each, Stage: domain.DealStageProposal}
	}
	return out
}

func TestSingleCustomerIsLowValue(t *testing.T) {
	a := customer("A")
	tiers := SegmentCustomers([]domain.Customer{a}, dealsOf(a, 10000, 20))
	if tiers[a.ID] != TierLow {
		t.Fatalf("expected Low Value for a population of one, got %s", tiers[a.ID])
	}
}

func TestReferencePopulation(t *testing.T) {
	a, b, c := customer("A"), customer("B"), customer("C")
	var deals []domain.Deal
	deals = append(deals, dealsOf(a, 1000, 10)...)
	deals = append(deals, dealsOf(b, 100, 1)...)
	deals = append(deals, dealsOf(c, 550, 5)...)

	rows := Compute([]domain.Customer{a, b, c}, deals)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	if rows[0].ScaledRevenue != 1 || rows[0].ScaledDealCount != 1 || rows[0].Tier != TierHigh {
		t.Fatalf("unexpected row for A: %+v", rows[0])
	}
	if rows[1].ScaledRevenue != 0 || rows[1].ScaledDealCount != 0 || rows[1].Tier != TierLow {
		t.Fatalf("unexpected row for B: %+v", rows[1])
	}
	if math.Abs(rows[2].ScaledRevenue-0.5) > 1e-9 || math.Abs(rows[2].ScaledDealCount-4.0/9.0) > 1e-9 {
		t.Fatalf("unexpected scaling for C: %+v", rows[2])
	}
	if rows[2].Tier != TierMedium {
		t.Fatalf("expected C to be Medium Value, got %s", rows[2].Tier)
	}
}

func TestCustomersWithoutDeals(t *testing.T) {
	a, b := customer("A"), customer("B")
	rows := Compute([]domain.Customer{a, b}, nil)
	for _, row := range rows {
		if !row.AvgDealSize.IsZero() || row.Tier != TierLow {
			t.Fatalf("expected zero average and Low Value, got %+v", row)
		}
	}
}

func TestAvgDealSizeDoesNotAffectTier(t *testing.T) {
	// A and B share revenue and deal count; only C differs. Average deal
	// size is identical for A and B so their tiers must match.
	a, b, c := customer("A"), customer("B"), customer("C")
	var deals []domain.Deal
	deals = append(deals, dealsOf(a, 900, 9)...)
	deals = append(deals, dealsOf(b, 900, 9)...)
	deals = append(deals, dealsOf(c, 100, 1)...)

	tiers := SegmentCustomers([]domain.Customer{a, b, c}, deals)
	if tiers[a.ID] != TierHigh || tiers[b.ID] != TierHigh || tiers[c.ID] != TierLow {
		t.Fatalf("unexpected tiers %v", tiers)
	}

	// C has the biggest average deal but the lowest count and revenue.
	deals = append(deals, domain.Deal{ID: uuid.New(), CustomerID: c.ID, Amount: decimal.NewFromInt(5000)})
	rows := Compute([]domain.Customer{a, b, c}, deals)
	if rows[2].ScaledAvgDealSize != 1 {
		t.Fatalf("expected C to have the largest average deal, got %+v", rows[2])
	}
}

func TestEmptyPopulation(t *testing.T) {
	if tiers := SegmentCustomers(nil, nil); len(tiers) != 0 {
		t.Fatalf("expected empty result, got %v", tiers)
	}
}

func TestDealsForUnknownCustomersAreIgnored(t *testing.T) {
	a := customer("A")
	stray := customer("stray")
	rows := Compute([]domain.Customer{a}, dealsOf(stray, 500, 2))
	if rows[0].TotalDeals != 0 {
		t.Fatalf("expected stray deals to be ignored, got %+v", rows[0])
	}
}

func TestAnalyze(t *testing.T) {
	a, b, c := customer("A"), customer("B"), customer("C")
	var deals []domain.Deal
	deals = append(deals, dealsOf(a, 1000, 10)...)
	deals = append(deals, dealsOf(b, 100, 1)...)
	deals = append(deals, dealsOf(c, 550, 5)...)

	summary := Analyze(Compute([]domain.Customer{a, b, c}, deals))
	if len(summary) != 3 {
		t.Fatalf("expected three tiers, got %d", len(summary))
	}
	if summary[0].Tier != TierHigh || summary[1].Tier != TierMedium || summary[2].Tier != TierLow {
		t.Fatalf("unexpected order %+v", summary)
	}
	if !summary[1].TotalRevenue.Equal(decimal.NewFromInt(550)) || !summary[1].AvgDealSizeAvg.Equal(decimal.NewFromInt(110)) {
		t.Fatalf("unexpected medium summary %+v", summary[1])
	}
	if summary[2].CustomerCount != 1 || !summary[2].AvgDealSizeAvg.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected low summary %+v", summary[2])
	}
}
