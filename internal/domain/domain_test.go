package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDealStageOrder(t *testing.T) {
	if DealStageProspecting.Order() != 0 || DealStageClosedLost.Order() != 5 {
		t.Fatalf("unexpected stage order")
	}
	if DealStage("Won").Valid() {
		t.Fatalf("expected unknown stage to be invalid")
	}
	if DealStageClosedLost.IsOpen() || !DealStageClosedWon.IsOpen() {
		t.Fatalf("only Closed Lost is excluded from the pipeline")
	}
}

func TestDealValidate(t *testing.T) {
	deal := Deal{Amount: decimal.NewFromInt(100), Probability: 50, Stage: DealStageProposal}
	if err := deal.Validate(); err != nil {
		t.Fatalf("expected valid deal, got %v", err)
	}

	deal.Amount = decimal.NewFromInt(-1)
	if err := deal.Validate(); err == nil {
		t.Fatalf("expected negative amount to be rejected")
	}

	deal.Amount = decimal.Zero
	deal.Probability = 101
	if err := deal.Validate(); err == nil {
		t.Fatalf("expected probability above 100 to be rejected")
	}
}

func TestWeightedAmount(t *testing.T) {
	deal := Deal{Amount: decimal.RequireFromString("1000.50"), Probability: 40}
	if got := deal.WeightedAmount(); !got.Equal(decimal.RequireFromString("400.2")) {
		t.Fatalf("expected 400.2, got %s", got)
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Ada@Example.COM "); got != "ada@example.com" {
		t.Fatalf("unexpected normalized email %q", got)
	}
}

func TestDayBounds(t *testing.T) {
	at := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	start, end := DayBounds(at)
	if !start.Equal(time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)) || !end.Equal(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected bounds %s %s", start, end)
	}
}

func TestRegisterValidators(t *testing.T) {
	v := NewValidator()
	type sample struct {
		Stage  string `validate:"required,deal_stage"`
		Status string `validate:"required,customer_status"`
	}
	if err := v.Struct(sample{Stage: "Closed Won", Status: "Lead"}); err != nil {
		t.Fatalf("expected valid sample, got %v", err)
	}
	if err := v.Struct(sample{Stage: "Won", Status: "Lead"}); err == nil {
		t.Fatalf("expected invalid stage to be rejected")
	}
}
