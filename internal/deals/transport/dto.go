package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateDealRequest contains data for opening a deal.
type CreateDealRequest struct {
	CustomerID    uuid.UUID       `json:"customerId" validate:"required"`
	OwnerID       *uuid.UUID      `json:"ownerId,omitempty"`
	Title         string          `json:"title" validate:"required,min=1,max=200"`
	Amount        decimal.Decimal `json:"amount"`
	Stage         string          `json:"stage" validate:"omitempty,deal_stage"`
	Probability   int             `json:"probability" validate:"min=0,max=100"`
	ExpectedClose time.Time       `json:"expectedClose" validate:"required"`
}

// UpdateDealRequest contains the fields that may change. Nil fields are left untouched.
type UpdateDealRequest struct {
	OwnerID       *uuid.UUID       `json:"ownerId,omitempty"`
	Title         *string          `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	Stage         *string          `json:"stage,omitempty" validate:"omitempty,deal_stage"`
	Probability   *int             `json:"probability,omitempty" validate:"omitempty,min=0,max=100"`
	ExpectedClose *time.Time       `json:"expectedClose,omitempty"`
}

// UpdateStageRequest moves a deal through the pipeline.
type UpdateStageRequest struct {
	Stage string `json:"stage" validate:"required,deal_stage"`
}

// ListDealsRequest filters the deal list.
type ListDealsRequest struct {
	CustomerID string   `form:"customerId" validate:"omitempty,uuid"`
	OwnerID    string   `form:"ownerId" validate:"omitempty,uuid"`
	Stage      []string `form:"stage" validate:"omitempty,dive,deal_stage"`
	Page       int      `form:"page" validate:"omitempty,min=1"`
	PageSize   int      `form:"pageSize" validate:"omitempty,min=1,max=500"`
}

// DealResponse represents a deal in API responses.
type DealResponse struct {
	ID             uuid.UUID  `json:"id"`
	CustomerID     uuid.UUID  `json:"customerId"`
	CustomerName   string     `json:"customerName,omitempty"`
	OwnerID        *uuid.UUID `json:"ownerId"`
	Title          string     `json:"title"`
	Amount         string     `json:"amount"`
	WeightedAmount string     `json:"weightedAmount"`
	Stage          string     `json:"stage"`
	Probability    int        `json:"probability"`
	ExpectedClose  time.Time  `json:"expectedClose"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// DealListResponse wraps a page of deals.
type DealListResponse struct {
	Items    []DealResponse `json:"items"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}

// PipelineStage is one column of the pipeline board.
type PipelineStage struct {
	Stage  string         `json:"stage"`
	Count  int            `json:"count"`
	Amount string         `json:"amount"`
	Deals  []DealResponse `json:"deals"`
}

// PipelineResponse is the open pipeline in stage order.
type PipelineResponse struct {
	Stages     []PipelineStage `json:"stages"`
	TotalCount int             `json:"totalCount"`
	TotalValue string          `json:"totalValue"`
}
