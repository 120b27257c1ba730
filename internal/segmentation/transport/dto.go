package transport

import "github.com/google/uuid"

// CustomerSegment is one customer's aggregates and tier.
type CustomerSegment struct {
	CustomerID        uuid.UUID `json:"customerId"`
	Name              string    `json:"name"`
	Company           string    `json:"company"`
	TotalDeals        int       `json:"totalDeals"`
	TotalRevenue      string    `json:"totalRevenue"`
	AvgDealSize       string    `json:"avgDealSize"`
	ScaledRevenue     float64   `json:"scaledRevenue"`
	ScaledAvgDealSize float64   `json:"scaledAvgDealSize"`
	ScaledDealCount   float64   `json:"scaledDealCount"`
	Segment           string    `json:"segment"`
}

// SegmentAnalysis summarises one tier.
type SegmentAnalysis struct {
	Segment        string `json:"segment"`
	CustomerCount  int    `json:"customerCount"`
	TotalRevenue   string `json:"totalRevenue"`
	AvgDealSizeAvg string `json:"avgDealSizeAvg"`
}

// SegmentationResponse is the full segmentation of the current population.
type SegmentationResponse struct {
	Customers []CustomerSegment `json:"customers"`
	Analysis  []SegmentAnalysis `json:"analysis"`
}
