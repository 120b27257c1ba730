package transport

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Condition is one predicate of a workflow. It is stored, never evaluated.
type Condition struct {
	Field    string `json:"field" yaml:"field" validate:"required,workflow_field"`
	Operator string `json:"operator" yaml:"operator" validate:"required,workflow_operator"`
	Value    string `json:"value" yaml:"value" validate:"max=500"`
}

// CreateWorkflowRequest defines a workflow.
type CreateWorkflowRequest struct {
	Name        string      `json:"name" validate:"required,max=200"`
	TriggerType string      `json:"triggerType" validate:"required,workflow_trigger"`
	Conditions  []Condition `json:"conditions" validate:"omitempty,max=20,dive"`
	Actions     []string    `json:"actions" validate:"required,min=1,max=20,dive,workflow_action"`
}

// SetStatusRequest activates or pauses a workflow.
type SetStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active paused"`
}

// WorkflowResponse is a stored workflow.
type WorkflowResponse struct {
	ID          uuid.UUID   `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	TriggerType string      `json:"triggerType" yaml:"trigger"`
	Conditions  []Condition `json:"conditions" yaml:"conditions"`
	Actions     []string    `json:"actions" yaml:"actions"`
	Status      string      `json:"status" yaml:"status"`
	CreatedAt   time.Time   `json:"createdAt" yaml:"created_at"`
}

// CreateRuleRequest defines an automation rule. Conditions and details are
// free-form JSON objects.
type CreateRuleRequest struct {
	Name              string          `json:"name" validate:"required,max=200"`
	TriggerType       string          `json:"triggerType" validate:"required,automation_trigger"`
	TriggerConditions json.RawMessage `json:"triggerConditions"`
	ActionType        string          `json:"actionType" validate:"required,automation_action"`
	ActionDetails     json.RawMessage `json:"actionDetails"`
	IsActive          *bool           `json:"isActive"`
}

// SetActiveRequest toggles a rule.
type SetActiveRequest struct {
	IsActive bool `json:"isActive"`
}

// RuleResponse is a stored automation rule.
type RuleResponse struct {
	ID                uuid.UUID       `json:"id"`
	Name              string          `json:"name"`
	TriggerType       string          `json:"triggerType"`
	TriggerConditions json.RawMessage `json:"triggerConditions"`
	ActionType        string          `json:"actionType"`
	ActionDetails     json.RawMessage `json:"actionDetails"`
	IsActive          bool            `json:"isActive"`
	CreatedAt         time.Time       `json:"createdAt"`
}
