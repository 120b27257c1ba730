package service_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	customersrepo "crm_backend/internal/customers/repository"
	"crm_backend/internal/dataio"
	"crm_backend/internal/dataio/service"
	"crm_backend/internal/dataio/transport"
	dealsrepo "crm_backend/internal/deals/repository"
	"crm_backend/internal/domain"
	"crm_backend/internal/events"
	"crm_backend/platform/apperr"
	"crm_backend/platform/db"
	"crm_backend/platform/db/dbtest"
	"crm_backend/platform/events/eventstest"
	"crm_backend/platform/logger"
	"crm_backend/platform/phone"
)

func newService(t *testing.T) (*service.Service, *db.DB, *eventstest.Recorder) {
	t.Helper()
	conn := dbtest.Open(t)
	bus := &eventstest.Recorder{}
	svc := dataio.NewService(conn, domain.NewValidator(), bus, phone.NewNormalizer("US"), logger.NewWithWriter("test", io.Discard))
	return svc, conn, bus
}

func seedCustomer(t *testing.T, conn *db.DB, email string) uuid.UUID {
	t.Helper()
	c := domain.Customer{ID: uuid.New(), Name: "Seed " + email, Email: email, Status: domain.CustomerStatusLead, CreatedDate: time.Now().UTC()}
	require.NoError(t, customersrepo.New(conn).Create(context.Background(), c))
	return c.ID
}

func readExport(t *testing.T, svc *service.Service, entity string) [][]string {
	t.Helper()
	var buf bytes.Buffer
	_, err := svc.Export(context.Background(), entity, &buf)
	require.NoError(t, err)
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	return records
}

func TestImportCustomersThenExport(t *testing.T) {
	svc, _, bus := newService(t)
	ctx := context.Background()

	src := "\ufeffName,Email,Phone,Company,Status,Company Size\n" +
		"Ada Lovelace,ADA@example.com,(650) 253-0000,Engines,,250\n" +
		"\"Hopper, Grace\",,,Navy,Customer,\n"
	result, err := svc.Import(ctx, transport.EntityCustomers, strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Len(t, bus.Named(events.CustomerCreated{}.EventName()), 2)

	records := readExport(t, svc, transport.EntityCustomers)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"id", "name", "email", "phone", "company", "status", "company_size", "lead_score", "created_date"}, records[0])

	byName := map[string][]string{}
	for _, r := range records[1:] {
		byName[r[1]] = r
	}
	ada := byName["Ada Lovelace"]
	require.NotNil(t, ada)
	assert.Equal(t, "ada@example.com", ada[2])
	assert.Equal(t, "+16502530000", ada[3])
	assert.Equal(t, "Lead", ada[5])
	assert.Equal(t, "250", ada[6])
	assert.Equal(t, "0", ada[7])

	grace := byName["Hopper, Grace"]
	require.NotNil(t, grace)
	assert.Equal(t, "Customer", grace[5])
	assert.Equal(t, "", grace[6])
}

func TestImportFailingRowRollsBackFile(t *testing.T) {
	svc, conn, bus := newService(t)
	ctx := context.Background()
	seedCustomer(t, conn, "taken@example.com")

	src := "name,email\nFresh,fresh@example.com\nClash,taken@example.com\n"
	_, err := svc.Import(ctx, transport.EntityCustomers, strings.NewReader(src))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindDuplicate), "got %v", err)
	assert.Contains(t, err.Error(), "line 3")
	assert.Empty(t, bus.Named(events.CustomerCreated{}.EventName()))

	n, err := customersrepo.New(conn).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestImportDealsAndTasks(t *testing.T) {
	svc, conn, _ := newService(t)
	ctx := context.Background()
	customerID := seedCustomer(t, conn, "buyer@example.com")

	deals := "customer_id,title,amount,stage,probability,expected_close\n" +
		customerID.String() + ",Renewal,1200.50,Proposal,60,2026-12-01\n"
	result, err := svc.Import(ctx, transport.EntityDeals, strings.NewReader(deals))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)

	stored, err := dealsrepo.New(conn).ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "1200.50", stored[0].Amount.StringFixed(2))
	assert.Equal(t, domain.DealStageProposal, stored[0].Stage)

	tasks := "customer_id,title,due_date\n" + customerID.String() + ",Call back,2026-11-03T09:00:00Z\n"
	_, err = svc.Import(ctx, transport.EntityTasks, strings.NewReader(tasks))
	require.NoError(t, err)

	records := readExport(t, svc, transport.EntityTasks)
	require.Len(t, records, 2)
	assert.Equal(t, "Call back", records[1][2])
	assert.Equal(t, "2026-11-03T09:00:00Z", records[1][4])
	assert.Equal(t, "Not Started", records[1][5])
}

func TestImportDealRejections(t *testing.T) {
	svc, conn, _ := newService(t)
	ctx := context.Background()
	customerID := seedCustomer(t, conn, "buyer@example.com")

	unknown := "customer_id,title,expected_close\n" + uuid.NewString() + ",Ghost,2026-12-01\n"
	_, err := svc.Import(ctx, transport.EntityDeals, strings.NewReader(unknown))
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "got %v", err)

	negative := "customer_id,title,amount,expected_close\n" + customerID.String() + ",Refund,-5,2026-12-01\n"
	_, err = svc.Import(ctx, transport.EntityDeals, strings.NewReader(negative))
	assert.True(t, apperr.Is(err, apperr.KindValidation), "got %v", err)

	missingColumn := "customer_id,title\n" + customerID.String() + ",No date\n"
	_, err = svc.Import(ctx, transport.EntityDeals, strings.NewReader(missingColumn))
	assert.True(t, apperr.Is(err, apperr.KindValidation), "got %v", err)

	_, err = svc.Import(ctx, "widgets", strings.NewReader("a\n1\n"))
	assert.True(t, apperr.Is(err, apperr.KindBadRequest), "got %v", err)

	stored, err := dealsrepo.New(conn).ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestCustomFields(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateCustomField(ctx, transport.CreateCustomFieldRequest{EntityType: "Deal", FieldName: "Region", FieldType: "Dropdown", Required: true})
	require.NoError(t, err)
	_, err = svc.CreateCustomField(ctx, transport.CreateCustomFieldRequest{EntityType: "Customer", FieldName: "Region", FieldType: "Text"})
	require.NoError(t, err)

	_, err = svc.CreateCustomField(ctx, transport.CreateCustomFieldRequest{EntityType: "Deal", FieldName: "Region", FieldType: "Text"})
	assert.True(t, apperr.Is(err, apperr.KindDuplicate), "got %v", err)

	deals, err := svc.ListCustomFields(ctx, "Deal")
	require.NoError(t, err)
	require.Len(t, deals, 1)
	assert.True(t, deals[0].Required)

	all, err := svc.ListCustomFields(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestExportUnknownEntity(t *testing.T) {
	svc, _, _ := newService(t)
	_, err := svc.Export(context.Background(), "users", io.Discard)
	assert.True(t, apperr.Is(err, apperr.KindBadRequest), "got %v", err)
}
