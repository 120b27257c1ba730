package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateRuleRequest stores a lead scoring rule.
type CreateRuleRequest struct {
	Attribute string `json:"attribute" validate:"required,scoring_attribute"`
	Condition string `json:"condition" validate:"required,max=500"`
	Score     int    `json:"score" validate:"required,min=1,max=1000"`
}

// RuleResponse represents a stored scoring rule.
type RuleResponse struct {
	ID        uuid.UUID `json:"id"`
	Attribute string    `json:"attribute"`
	Condition string    `json:"condition"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"createdAt"`
}

// RunResponse summarises a scoring run.
type RunResponse struct {
	Trigger    string      `json:"trigger"`
	Scored     int         `json:"scored"`
	DurationMs float64     `json:"durationMs"`
	Scores     []LeadScore `json:"scores"`
}

// LeadScore is one lead and its score.
type LeadScore struct {
	CustomerID  uuid.UUID `json:"customerId"`
	Name        string    `json:"name"`
	Company     string    `json:"company"`
	CompanySize *int      `json:"companySize"`
	LeadScore   int       `json:"leadScore"`
}

// EnqueueResponse is returned when a run is queued instead of executed.
type EnqueueResponse struct {
	TaskID string `json:"taskId"`
	Queue  string `json:"queue"`
}
