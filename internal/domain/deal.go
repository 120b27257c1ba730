package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DealStage is a position in the sales pipeline.
type DealStage string

const (
	DealStageProspecting   DealStage = "Prospecting"
	DealStageQualification DealStage = "Qualification"
	DealStageProposal      DealStage = "Proposal"
	DealStageNegotiation   DealStage = "Negotiation"
	DealStageClosedWon     DealStage = "Closed Won"
	DealStageClosedLost    DealStage = "Closed Lost"
)

// DealStages lists the stages in pipeline order.
var DealStages = []DealStage{
	DealStageProspecting,
	DealStageQualification,
	DealStageProposal,
	DealStageNegotiation,
	DealStageClosedWon,
	DealStageClosedLost,
}

// Order returns the position of the stage in the pipeline, or -1.
func (s DealStage) Order() int {
	for i, stage := range DealStages {
		if stage == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is a known stage.
func (s DealStage) Valid() bool {
	return s.Order() >= 0
}

// IsOpen reports whether a deal in this stage counts toward the pipeline.
func (s DealStage) IsOpen() bool {
	return s != DealStageClosedLost
}

// Deal is a sales opportunity with a customer.
type Deal struct {
	ID            uuid.UUID
	CustomerID    uuid.UUID
	OwnerID       *uuid.UUID
	Title         string
	Amount        decimal.Decimal
	Stage         DealStage
	Probability   int
	ExpectedClose time.Time
	CreatedAt     time.Time
}

// Validate checks the amount, probability and stage invariants.
func (d Deal) Validate() error {
	if d.Amount.IsNegative() {
		return fmt.Errorf("amount must not be negative")
	}
	if d.Probability < 0 || d.Probability > 100 {
		return fmt.Errorf("probability must be between 0 and 100")
	}
	if !d.Stage.Valid() {
		return fmt.Errorf("unknown stage %q", d.Stage)
	}
	return nil
}

// WeightedAmount is amount × probability / 100.
func (d Deal) WeightedAmount() decimal.Decimal {
	return d.Amount.Mul(decimal.NewFromInt(int64(d.Probability))).Div(decimal.NewFromInt(100))
}
