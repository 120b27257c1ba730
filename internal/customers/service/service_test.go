package service_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crm_backend/internal/customers/repository"
	"crm_backend/internal/customers/service"
	"crm_backend/internal/customers/transport"
	"crm_backend/internal/domain"
	"crm_backend/internal/events"
	"crm_backend/platform/apperr"
	"crm_backend/platform/db/dbtest"
	"crm_backend/platform/events/eventstest"
	"crm_backend/platform/logger"
	"crm_backend/platform/phone"
)

func newService(t *testing.T) (*service.Service, *repository.Repository, *eventstest.Recorder) {
	t.Helper()
	repo := repository.New(dbtest.Open(t))
	bus := &eventstest.Recorder{}
	svc := service.New(repo, bus, phone.NewNormalizer("US"), logger.NewWithWriter("test", io.Discard))
	return svc, repo, bus
}

func TestCreateNormalisesAndDefaultsToLead(t *testing.T) {
	svc, _, bus := newService(t)

	got, err := svc.Create(context.Background(), transport.CreateCustomerRequest{
		Name:    "  <b>Grace</b> Hopper ",
		Email:   " Grace@Example.COM ",
		Phone:   "(650) 253-0000",
		Company: "Navy",
	})
	require.NoError(t, err)

	assert.Equal(t, "Grace Hopper", got.Name)
	require.NotNil(t, got.Email)
	assert.Equal(t, "grace@example.com", *got.Email)
	assert.Equal(t, "+16502530000", got.Phone)
	assert.Equal(t, string(domain.CustomerStatusLead), got.Status)
	assert.Equal(t, 0, got.LeadScore)
	assert.Len(t, bus.Named(events.CustomerCreated{}.EventName()), 1)
}

func TestCreateDuplicateEmailIsDuplicateIdentity(t *testing.T) {
	svc, repo, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, transport.CreateCustomerRequest{Name: "A", Email: "same@example.com"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, transport.CreateCustomerRequest{Name: "B", Email: "SAME@example.com"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindDuplicate))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCreateWithoutEmailAllowsMany(t *testing.T) {
	svc, repo, _ := newService(t)
	ctx := context.Background()

	for _, name := range []string{"A", "B"} {
		got, err := svc.Create(ctx, transport.CreateCustomerRequest{Name: name})
		require.NoError(t, err)
		assert.Nil(t, got.Email)
	}
	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestUpdateStatusPublishesChange(t *testing.T) {
	svc, _, bus := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, transport.CreateCustomerRequest{Name: "Lead"})
	require.NoError(t, err)

	got, err := svc.UpdateStatus(ctx, created.ID, transport.UpdateStatusRequest{Status: "Customer"})
	require.NoError(t, err)
	assert.Equal(t, "Customer", got.Status)

	changes := bus.Named(events.CustomerStatusChanged{}.EventName())
	require.Len(t, changes, 1)
	change := changes[0].(events.CustomerStatusChanged)
	assert.Equal(t, "Lead", change.OldStatus)
	assert.Equal(t, "Customer", change.NewStatus)

	// Same status again is a no-op.
	_, err = svc.UpdateStatus(ctx, created.ID, transport.UpdateStatusRequest{Status: "Customer"})
	require.NoError(t, err)
	assert.Len(t, bus.Named(events.CustomerStatusChanged{}.EventName()), 1)
}

func TestDeleteRejectsCustomerWithContacts(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, transport.CreateCustomerRequest{Name: "Busy"})
	require.NoError(t, err)
	_, err = svc.LogContact(ctx, created.ID, transport.LogContactRequest{Type: "Email", Notes: "hello"})
	require.NoError(t, err)

	err = svc.Delete(ctx, created.ID)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = svc.Get(ctx, created.ID)
	assert.NoError(t, err)
}

func TestDeleteUnknownCustomer(t *testing.T) {
	svc, _, _ := newService(t)

	err := svc.Delete(context.Background(), uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestLogContactForUnknownCustomer(t *testing.T) {
	svc, _, bus := newService(t)

	_, err := svc.LogContact(context.Background(), uuid.New(), transport.LogContactRequest{Type: "Note"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Empty(t, bus.Named(events.ContactLogged{}.EventName()))
}

func TestDetailIncludesContacts(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, transport.CreateCustomerRequest{Name: "Detail"})
	require.NoError(t, err)
	when := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	_, err = svc.LogContact(ctx, created.ID, transport.LogContactRequest{Type: "Phone", Date: &when})
	require.NoError(t, err)

	detail, err := svc.Detail(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, detail.Customer.ID)
	require.Len(t, detail.Contacts, 1)
	assert.Equal(t, "Phone", detail.Contacts[0].Type)
	assert.True(t, when.Equal(detail.Contacts[0].Date))
	assert.Empty(t, detail.Deals)
	assert.Empty(t, detail.Tasks)
}

func TestMeetingNoteFollowUpBeforeMeetingIsRejected(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, transport.CreateCustomerRequest{Name: "Meet"})
	require.NoError(t, err)

	meeting := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	before := meeting.Add(-24 * time.Hour)
	_, err = svc.AddMeetingNote(ctx, created.ID, transport.MeetingNoteRequest{MeetingDate: meeting, FollowUpDate: &before})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestListPagesAndFilters(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	for i, status := range []string{"Lead", "Lead", "Customer"} {
		_, err := svc.Create(ctx, transport.CreateCustomerRequest{Name: "C" + string(rune('A'+i)), Status: status})
		require.NoError(t, err)
	}

	leads, err := svc.List(ctx, transport.ListCustomersRequest{Status: []string{"Lead"}, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, leads.Total)
	assert.Len(t, leads.Items, 1)
	assert.Equal(t, 1, leads.Page)
}

func TestUpdateClearsCompanySize(t *testing.T) {
	svc, repo, bus := newService(t)
	ctx := context.Background()

	size := 250
	created, err := svc.Create(ctx, transport.CreateCustomerRequest{Name: "Ada", CompanySize: &size})
	require.NoError(t, err)
	require.NotNil(t, created.CompanySize)

	other := 40
	_, err = svc.Update(ctx, created.ID, transport.UpdateCustomerRequest{CompanySize: &other, ClearCompanySize: true})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	got, err := svc.Update(ctx, created.ID, transport.UpdateCustomerRequest{ClearCompanySize: true})
	require.NoError(t, err)
	assert.Nil(t, got.CompanySize)

	stored, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.CompanySize)
	assert.Len(t, bus.Named(events.CustomerUpdated{}.EventName()), 1)
}

func TestDeletePublishesCustomerDeleted(t *testing.T) {
	svc, _, bus := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, transport.CreateCustomerRequest{Name: "Temp"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, created.ID))

	deleted := bus.Named(events.CustomerDeleted{}.EventName())
	require.Len(t, deleted, 1)
	assert.Equal(t, created.ID, deleted[0].(events.CustomerDeleted).CustomerID)
}
