package service_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crm_backend/internal/communications/repository"
	"crm_backend/internal/communications/service"
	"crm_backend/internal/communications/transport"
	customersrepo "crm_backend/internal/customers/repository"
	dealsrepo "crm_backend/internal/deals/repository"
	"crm_backend/internal/domain"
	"crm_backend/internal/email"
	tasksrepo "crm_backend/internal/tasks/repository"
	"crm_backend/platform/apperr"
	"crm_backend/platform/db/dbtest"
	"crm_backend/platform/logger"
)

type recordingSender struct {
	sent []email.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg email.Message) error {
	s.sent = append(s.sent, msg)
	return s.err
}

type fixture struct {
	svc       *service.Service
	sender    *recordingSender
	customers *customersrepo.Repository
	deals     *dealsrepo.Repository
	tasks     *tasksrepo.Repository
}

func setup(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	f := fixture{
		sender:    &recordingSender{},
		customers: customersrepo.New(conn),
		deals:     dealsrepo.New(conn),
		tasks:     tasksrepo.New(conn),
	}
	f.svc = service.New(repository.New(conn), f.customers, f.deals, f.tasks, f.sender, logger.NewWithWriter("test", io.Discard))
	return f
}

func (f fixture) addCustomer(t *testing.T, name, mail string) domain.Customer {
	t.Helper()
	c := domain.Customer{ID: uuid.New(), Name: name, Email: mail, Company: "Acme", Status: domain.CustomerStatusCustomer, CreatedDate: time.Now().UTC()}
	require.NoError(t, f.customers.Create(context.Background(), c))
	return c
}

func TestRenderReplacesKnownPlaceholders(t *testing.T) {
	got := service.Render("Hi {customer_name} of {company_name}: {deal_value} by {due_date} {unknown}", service.Vars{
		CustomerName: "Jane", CompanyName: "Acme", DealValue: "10.00", DueDate: "2026-01-02",
	})
	assert.Equal(t, "Hi Jane of Acme: 10.00 by 2026-01-02 {unknown}", got)
}

func TestSendWithTemplateRendersAndLogs(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	customer := f.addCustomer(t, "Jane", "jane@example.com")

	deal := domain.Deal{
		ID: uuid.New(), CustomerID: customer.ID, Title: "Renewal", Amount: decimal.NewFromInt(2500),
		Stage: domain.DealStageProposal, Probability: 60, ExpectedClose: time.Now().UTC(), CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, f.deals.Create(ctx, deal))
	due := time.Date(2026, 11, 3, 9, 0, 0, 0, time.UTC)
	task := domain.Task{ID: uuid.New(), CustomerID: customer.ID, Title: "Call", DueDate: due, Status: domain.TaskStatusNotStarted, CreatedAt: time.Now().UTC()}
	require.NoError(t, f.tasks.Create(ctx, task))

	tmpl, err := f.svc.CreateTemplate(ctx, transport.CreateTemplateRequest{
		Name:    "Follow up",
		Subject: "Hello {customer_name}",
		Body:    "Your {deal_value} offer for {company_name} is due {due_date}.",
	})
	require.NoError(t, err)

	logged, err := f.svc.Send(ctx, uuid.Nil, transport.SendEmailRequest{
		CustomerID: customer.ID, TemplateID: &tmpl.ID, DealID: &deal.ID, TaskID: &task.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, "Sent", logged.Status)
	assert.Empty(t, logged.Error)
	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, "jane@example.com", f.sender.sent[0].To)
	assert.Equal(t, "Hello Jane", f.sender.sent[0].Subject)
	assert.Equal(t, "Your 2500.00 offer for Acme is due 2026-11-03.", f.sender.sent[0].Body)

	logs, err := f.svc.ListLogs(ctx, &customer.ID, transport.ListLogsRequest{})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "Email", logs[0].Type)
	assert.Equal(t, "Jane", logs[0].CustomerName)
}

func TestSendFailureIsLoggedAsFailed(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	customer := f.addCustomer(t, "Jane", "jane@example.com")
	f.sender.err = errors.New("connection refused")

	logged, err := f.svc.Send(ctx, uuid.Nil, transport.SendEmailRequest{CustomerID: customer.ID, Subject: "Hi", Body: "Body"})
	require.NoError(t, err)
	assert.Equal(t, "Failed", logged.Status)
	assert.NotEmpty(t, logged.Error)

	logs, err := f.svc.ListLogs(ctx, nil, transport.ListLogsRequest{})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "Failed", logs[0].Status)
}

func TestSendRequiresRecipientAddress(t *testing.T) {
	f := setup(t)
	customer := f.addCustomer(t, "No Mail", "")

	_, err := f.svc.Send(context.Background(), uuid.Nil, transport.SendEmailRequest{CustomerID: customer.ID, Subject: "Hi", Body: "Body"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Empty(t, f.sender.sent)
}

func TestSendRejectsDealOfAnotherCustomer(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	jane := f.addCustomer(t, "Jane", "jane@example.com")
	bob := f.addCustomer(t, "Bob", "bob@example.com")
	deal := domain.Deal{
		ID: uuid.New(), CustomerID: bob.ID, Title: "Bob's", Amount: decimal.NewFromInt(1),
		Stage: domain.DealStageProspecting, ExpectedClose: time.Now().UTC(), CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, f.deals.Create(ctx, deal))

	_, err := f.svc.Preview(ctx, transport.SendEmailRequest{CustomerID: jane.ID, DealID: &deal.ID, Subject: "x", Body: "{deal_value}"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestDuplicateTemplateName(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	req := transport.CreateTemplateRequest{Name: "Welcome", Subject: "Hi", Body: "Hello"}

	_, err := f.svc.CreateTemplate(ctx, req)
	require.NoError(t, err)
	_, err = f.svc.CreateTemplate(ctx, req)
	assert.True(t, apperr.Is(err, apperr.KindDuplicate))
}

func TestRecordRejectsEmailType(t *testing.T) {
	f := setup(t)
	customer := f.addCustomer(t, "Jane", "")

	_, err := f.svc.Record(context.Background(), uuid.Nil, transport.LogRequest{CustomerID: customer.ID, Type: "Email", Content: "x"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	logged, err := f.svc.Record(context.Background(), uuid.Nil, transport.LogRequest{CustomerID: customer.ID, Type: "Call Log", Content: "Talked"})
	require.NoError(t, err)
	assert.Equal(t, "Logged", logged.Status)
}
