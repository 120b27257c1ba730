// Package service manages workflow and automation rule configuration. The
// definitions are stored and exported but never executed.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"crm_backend/internal/automation/repository"
	"crm_backend/internal/automation/transport"
	"crm_backend/platform/apperr"
	"crm_backend/platform/logger"
	"crm_backend/platform/sanitize"
)

const (
	workflowStatusActive = "active"
	exportVersion        = 1
)

// Store is the persistence boundary of the automation module.
type Store interface {
	CreateWorkflow(ctx context.Context, w repository.Workflow) error
	ListWorkflows(ctx context.Context) ([]repository.Workflow, error)
	SetWorkflowStatus(ctx context.Context, id uuid.UUID, status string) error
	DeleteWorkflow(ctx context.Context, id uuid.UUID) error
	CreateRule(ctx context.Context, r repository.Rule) error
	ListRules(ctx context.Context) ([]repository.Rule, error)
	SetRuleActive(ctx context.Context, id uuid.UUID, active bool) error
	DeleteRule(ctx context.Context, id uuid.UUID) error
}

// Service provides automation configuration.
type Service struct {
	repo Store
	log  *logger.Logger
	now  func() time.Time
}

// New creates an automation service.
func New(repo Store, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// CreateWorkflow stores an active workflow.
func (s *Service) CreateWorkflow(ctx context.Context, req transport.CreateWorkflowRequest) (transport.WorkflowResponse, error) {
	conditions := make([]transport.Condition, len(req.Conditions))
	for i, c := range req.Conditions {
		conditions[i] = transport.Condition{Field: c.Field, Operator: c.Operator, Value: sanitize.Text(c.Value)}
	}
	condJSON, err := json.Marshal(conditions)
	if err != nil {
		return transport.WorkflowResponse{}, fmt.Errorf("encode workflow conditions: %w", err)
	}
	actJSON, err := json.Marshal(req.Actions)
	if err != nil {
		return transport.WorkflowResponse{}, fmt.Errorf("encode workflow actions: %w", err)
	}

	w := repository.Workflow{
		ID:          uuid.New(),
		Name:        sanitize.Text(req.Name),
		TriggerType: req.TriggerType,
		Conditions:  string(condJSON),
		Actions:     string(actJSON),
		Status:      workflowStatusActive,
		CreatedAt:   s.now(),
	}
	if err := s.repo.CreateWorkflow(ctx, w); err != nil {
		return transport.WorkflowResponse{}, err
	}
	s.log.WithContext(ctx).Info("workflow created", "id", w.ID, "trigger", w.TriggerType)
	return toWorkflowResponse(w)
}

// ListWorkflows returns every workflow.
func (s *Service) ListWorkflows(ctx context.Context) ([]transport.WorkflowResponse, error) {
	items, err := s.repo.ListWorkflows(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]transport.WorkflowResponse, len(items))
	for i, w := range items {
		if out[i], err = toWorkflowResponse(w); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// SetWorkflowStatus activates or pauses a workflow.
func (s *Service) SetWorkflowStatus(ctx context.Context, id uuid.UUID, status string) error {
	if err := s.repo.SetWorkflowStatus(ctx, id, status); err != nil {
		return err
	}
	s.log.WithContext(ctx).Info("workflow status changed", "id", id, "status", status)
	return nil
}

// DeleteWorkflow removes a workflow.
func (s *Service) DeleteWorkflow(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteWorkflow(ctx, id); err != nil {
		return err
	}
	s.log.WithContext(ctx).Info("workflow deleted", "id", id)
	return nil
}

type workflowExport struct {
	Version    int                          `yaml:"version"`
	ExportedAt time.Time                    `yaml:"exported_at"`
	Workflows  []transport.WorkflowResponse `yaml:"workflows"`
}

// ExportWorkflowsYAML renders every workflow as a YAML document.
func (s *Service) ExportWorkflowsYAML(ctx context.Context) ([]byte, error) {
	workflows, err := s.ListWorkflows(ctx)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(workflowExport{Version: exportVersion, ExportedAt: s.now(), Workflows: workflows}); err != nil {
		return nil, fmt.Errorf("encode workflows: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode workflows: %w", err)
	}
	return buf.Bytes(), nil
}

// CreateRule stores an automation rule. Rules are active unless the request
// says otherwise.
func (s *Service) CreateRule(ctx context.Context, req transport.CreateRuleRequest) (transport.RuleResponse, error) {
	conditions, err := jsonObject("triggerConditions", req.TriggerConditions)
	if err != nil {
		return transport.RuleResponse{}, err
	}
	details, err := jsonObject("actionDetails", req.ActionDetails)
	if err != nil {
		return transport.RuleResponse{}, err
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	r := repository.Rule{
		ID:                uuid.New(),
		Name:              sanitize.Text(req.Name),
		TriggerType:       req.TriggerType,
		TriggerConditions: conditions,
		ActionType:        req.ActionType,
		ActionDetails:     details,
		IsActive:          active,
		CreatedAt:         s.now(),
	}
	if err := s.repo.CreateRule(ctx, r); err != nil {
		return transport.RuleResponse{}, err
	}
	s.log.WithContext(ctx).Info("automation rule created", "id", r.ID, "trigger", r.TriggerType, "action", r.ActionType)
	return toRuleResponse(r), nil
}

// ListRules returns every automation rule.
func (s *Service) ListRules(ctx context.Context) ([]transport.RuleResponse, error) {
	items, err := s.repo.ListRules(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]transport.RuleResponse, len(items))
	for i, r := range items {
		out[i] = toRuleResponse(r)
	}
	return out, nil
}

// SetRuleActive toggles a rule.
func (s *Service) SetRuleActive(ctx context.Context, id uuid.UUID, active bool) error {
	if err := s.repo.SetRuleActive(ctx, id, active); err != nil {
		return err
	}
	s.log.WithContext(ctx).Info("automation rule toggled", "id", id, "active", active)
	return nil
}

// DeleteRule removes a rule.
func (s *Service) DeleteRule(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteRule(ctx, id); err != nil {
		return err
	}
	s.log.WithContext(ctx).Info("automation rule deleted", "id", id)
	return nil
}

// jsonObject returns raw compacted, or "{}" when empty. Anything but a JSON
// object is rejected.
func jsonObject(field string, raw json.RawMessage) (string, error) {
	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return "{}", nil
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", apperr.Validation(field + " must be a JSON object")
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", apperr.Validation(field + " must be a JSON object")
	}
	return buf.String(), nil
}

func toWorkflowResponse(w repository.Workflow) (transport.WorkflowResponse, error) {
	resp := transport.WorkflowResponse{
		ID:          w.ID,
		Name:        w.Name,
		TriggerType: w.TriggerType,
		Conditions:  []transport.Condition{},
		Actions:     []string{},
		Status:      w.Status,
		CreatedAt:   w.CreatedAt,
	}
	// The column defaults to an empty object.
	if w.Conditions != "" && w.Conditions != "{}" {
		if err := json.Unmarshal([]byte(w.Conditions), &resp.Conditions); err != nil {
			return transport.WorkflowResponse{}, fmt.Errorf("decode workflow %s conditions: %w", w.ID, err)
		}
	}
	if w.Actions != "" {
		if err := json.Unmarshal([]byte(w.Actions), &resp.Actions); err != nil {
			return transport.WorkflowResponse{}, fmt.Errorf("decode workflow %s actions: %w", w.ID, err)
		}
	}
	return resp, nil
}

func toRuleResponse(r repository.Rule) transport.RuleResponse {
	return transport.RuleResponse{
		ID:                r.ID,
		Name:              r.Name,
		TriggerType:       r.TriggerType,
		TriggerConditions: json.RawMessage(r.TriggerConditions),
		ActionType:        r.ActionType,
		ActionDetails:     json.RawMessage(r.ActionDetails),
		IsActive:          r.IsActive,
		CreatedAt:         r.CreatedAt,
	}
}
