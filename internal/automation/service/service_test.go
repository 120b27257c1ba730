package service_test

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"crm_backend/internal/automation/repository"
	"crm_backend/internal/automation/service"
	"crm_backend/internal/automation/transport"
	"crm_backend/platform/apperr"
	"crm_backend/platform/db/dbtest"
	"crm_backend/platform/logger"
)

func newService(t *testing.T) *service.Service {
	t.Helper()
	return service.New(repository.New(dbtest.Open(t)), logger.NewWithWriter("test", io.Discard))
}

func TestWorkflowRoundTripAndYAMLExport(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.CreateWorkflow(ctx, transport.CreateWorkflowRequest{
		Name:        "Welcome",
		TriggerType: "Form Submission",
		Conditions:  []transport.Condition{{Field: "Industry", Operator: "Equals", Value: "Retail"}},
		Actions:     []string{"Send Email", "Create Task"},
	})
	require.NoError(t, err)
	assert.Equal(t, "active", created.Status)

	list, err := svc.ListWorkflows(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.Conditions, list[0].Conditions)
	assert.Equal(t, []string{"Send Email", "Create Task"}, list[0].Actions)

	data, err := svc.ExportWorkflowsYAML(ctx)
	require.NoError(t, err)

	var doc struct {
		Version   int `yaml:"version"`
		Workflows []struct {
			Name       string                `yaml:"name"`
			Trigger    string                `yaml:"trigger"`
			Conditions []transport.Condition `yaml:"conditions"`
			Actions    []string              `yaml:"actions"`
		} `yaml:"workflows"`
	}
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, 1, doc.Version)
	require.Len(t, doc.Workflows, 1)
	assert.Equal(t, "Form Submission", doc.Workflows[0].Trigger)
	assert.Equal(t, "Retail", doc.Workflows[0].Conditions[0].Value)
}

func TestWorkflowStatusUnknownID(t *testing.T) {
	svc := newService(t)
	err := svc.SetWorkflowStatus(context.Background(), uuid.New(), "paused")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCreateRuleDefaultsAndJSONValidation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	rule, err := svc.CreateRule(ctx, transport.CreateRuleRequest{
		Name:              "Notify on big deal",
		TriggerType:       "Deal Stage Change",
		TriggerConditions: json.RawMessage(`{ "stage": "Negotiation" }`),
		ActionType:        "Notify Team",
	})
	require.NoError(t, err)
	assert.True(t, rule.IsActive)
	assert.JSONEq(t, `{"stage":"Negotiation"}`, string(rule.TriggerConditions))
	assert.JSONEq(t, `{}`, string(rule.ActionDetails))

	_, err = svc.CreateRule(ctx, transport.CreateRuleRequest{
		Name: "Bad", TriggerType: "New Lead", ActionType: "Send Email", ActionDetails: json.RawMessage(`[1,2]`),
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	require.NoError(t, svc.SetRuleActive(ctx, rule.ID, false))
	rules, err := svc.ListRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.False(t, rules[0].IsActive)

	require.NoError(t, svc.DeleteRule(ctx, rule.ID))
	assert.True(t, apperr.Is(svc.DeleteRule(ctx, rule.ID), apperr.KindNotFound))
}
