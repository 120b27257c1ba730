// Package repository persists workflow and automation rule configuration.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"crm_backend/platform/db"
)

const (
	workflowNotFoundMsg = "workflow not found"
	ruleNotFoundMsg     = "automation rule not found"
)

// Repository persists workflows and automation rules.
type Repository struct {
	q db.Querier
}

// New creates an automation repository.
func New(q db.Querier) *Repository {
	return &Repository{q: q}
}

// Workflow is a stored workflow definition. Conditions and Actions hold JSON.
type Workflow struct {
	ID          uuid.UUID
	Name        string
	TriggerType string
	Conditions  string
	Actions     string
	Status      string
	CreatedAt   time.Time
}

// Rule is a stored automation rule. TriggerConditions and ActionDetails hold JSON.
type Rule struct {
	ID                uuid.UUID
	Name              string
	TriggerType       string
	TriggerConditions string
	ActionType        string
	ActionDetails     string
	IsActive          bool
	CreatedAt         time.Time
}

// CreateWorkflow inserts a workflow.
func (r *Repository) CreateWorkflow(ctx context.Context, w Workflow) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO workflows (id, name, trigger_type, conditions, actions, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.Name, w.TriggerType, w.Conditions, w.Actions, w.Status, w.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("create workflow: %w", err)
	}
	return nil
}

// ListWorkflows returns workflows, oldest first.
func (r *Repository) ListWorkflows(ctx context.Context) ([]Workflow, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, name, trigger_type, conditions, actions, status, created_at
		FROM workflows
		ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	defer rows.Close()

	items := make([]Workflow, 0)
	for rows.Next() {
		var w Workflow
		if err := rows.Scan(&w.ID, &w.Name, &w.TriggerType, &w.Conditions, &w.Actions, &w.Status, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan workflow: %w", err)
		}
		w.CreatedAt = w.CreatedAt.UTC()
		items = append(items, w)
	}
	return items, rows.Err()
}

// SetWorkflowStatus changes a workflow's status.
func (r *Repository) SetWorkflowStatus(ctx context.Context, id uuid.UUID, status string) error {
	res, err := r.q.ExecContext(ctx, `UPDATE workflows SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("set workflow status: %w", err)
	}
	return db.RequireAffected(res, workflowNotFoundMsg)
}

// DeleteWorkflow removes a workflow.
func (r *Repository) DeleteWorkflow(ctx context.Context, id uuid.UUID) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM workflows WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete workflow: %w", err)
	}
	return db.RequireAffected(res, workflowNotFoundMsg)
}

// CreateRule inserts an automation rule.
func (r *Repository) CreateRule(ctx context.Context, rule Rule) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO automation_rules (id, name, trigger_type, trigger_conditions, action_type, action_details, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.ID, rule.Name, rule.TriggerType, rule.TriggerConditions, rule.ActionType, rule.ActionDetails, rule.IsActive, rule.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("create automation rule: %w", err)
	}
	return nil
}

// ListRules returns automation rules, oldest first.
func (r *Repository) ListRules(ctx context.Context) ([]Rule, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, name, trigger_type, trigger_conditions, action_type, action_details, is_active, created_at
		FROM automation_rules
		ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list automation rules: %w", err)
	}
	defer rows.Close()

	items := make([]Rule, 0)
	for rows.Next() {
		var rule Rule
		if err := rows.Scan(&rule.ID, &rule.Name, &rule.TriggerType, &rule.TriggerConditions, &rule.ActionType,
			&rule.ActionDetails, &rule.IsActive, &rule.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan automation rule: %w", err)
		}
		rule.CreatedAt = rule.CreatedAt.UTC()
		items = append(items, rule)
	}
	return items, rows.Err()
}

// SetRuleActive toggles a rule.
func (r *Repository) SetRuleActive(ctx context.Context, id uuid.UUID, active bool) error {
	res, err := r.q.ExecContext(ctx, `UPDATE automation_rules SET is_active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("set automation rule active: %w", err)
	}
	return db.RequireAffected(res, ruleNotFoundMsg)
}

// DeleteRule removes a rule.
func (r *Repository) DeleteRule(ctx context.Context, id uuid.UUID) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM automation_rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete automation rule: %w", err)
	}
	return db.RequireAffected(res, ruleNotFoundMsg)
}
