package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crm_backend/internal/customers/repository"
	"crm_backend/internal/domain"
	"crm_backend/platform/apperr"
	"crm_backend/platform/db/dbtest"
)

func newCustomer(name, email string, status domain.CustomerStatus) domain.Customer {
	return domain.Customer{
		ID:          uuid.New(),
		Name:        name,
		Email:       email,
		Phone:       "+16502530000",
		Company:     "Acme",
		Status:      status,
		CreatedDate: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestCreateThenGetRoundTrip(t *testing.T) {
	repo := repository.New(dbtest.Open(t))
	ctx := context.Background()

	size := 250
	want := newCustomer("Ada Lovelace", "ada@example.com", domain.CustomerStatusLead)
	want.CompanySize = &size
	require.NoError(t, repo.Create(ctx, want))

	got, err := repo.GetByID(ctx, want.ID)
	require.NoError(t, err)

	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.Email, got.Email)
	assert.Equal(t, want.Phone, got.Phone)
	assert.Equal(t, want.Company, got.Company)
	assert.Equal(t, want.Status, got.Status)
	require.NotNil(t, got.CompanySize)
	assert.Equal(t, size, *got.CompanySize)
	assert.Equal(t, 0, got.LeadScore)
	assert.True(t, want.CreatedDate.Equal(got.CreatedDate), "created %s != %s", want.CreatedDate, got.CreatedDate)
}

func TestCustomerWithoutEmailOrSize(t *testing.T) {
	repo := repository.New(dbtest.Open(t))
	ctx := context.Background()

	a := newCustomer("A", "", domain.CustomerStatusLead)
	b := newCustomer("B", "", domain.CustomerStatusLead)
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b), "missing emails must not collide")

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Email)
	assert.Nil(t, got.CompanySize)
}

func TestDuplicateEmailIsRejected(t *testing.T) {
	repo := repository.New(dbtest.Open(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newCustomer("Ada", "ada@example.com", domain.CustomerStatusLead)))
	before, err := repo.Count(ctx)
	require.NoError(t, err)

	err = repo.Create(ctx, newCustomer("Imposter", "ada@example.com", domain.CustomerStatusCustomer))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindDuplicate))

	after, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestGetUnknownCustomer(t *testing.T) {
	repo := repository.New(dbtest.Open(t))
	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestContactForUnknownCustomerIsRejected(t *testing.T) {
	repo := repository.New(dbtest.Open(t))
	err := repo.CreateContact(context.Background(), domain.Contact{
		ID: uuid.New(), CustomerID: uuid.New(), Type: domain.ContactTypePhone, Date: time.Now(),
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestDeleteWithDependentsIsRejected(t *testing.T) {
	repo := repository.New(dbtest.Open(t))
	ctx := context.Background()

	c := newCustomer("Ada", "ada@example.com", domain.CustomerStatusLead)
	require.NoError(t, repo.Create(ctx, c))
	require.NoError(t, repo.CreateContact(ctx, domain.Contact{
		ID: uuid.New(), CustomerID: c.ID, Type: domain.ContactTypeEmail, Notes: "intro", Date: time.Now(),
	}))

	deps, err := repo.CountDependents(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, deps)

	err = repo.Delete(ctx, c.ID)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	exists, err := repo.Exists(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDeleteWithoutDependents(t *testing.T) {
	repo := repository.New(dbtest.Open(t))
	ctx := context.Background()

	c := newCustomer("Ada", "", domain.CustomerStatusInactive)
	require.NoError(t, repo.Create(ctx, c))
	require.NoError(t, repo.Delete(ctx, c.ID))

	exists, err := repo.Exists(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	assert.True(t, apperr.Is(repo.Delete(ctx, c.ID), apperr.KindNotFound))
}

func TestListFiltersByStatusAndSearch(t *testing.T) {
	repo := repository.New(dbtest.Open(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newCustomer("Ada Lovelace", "ada@example.com", domain.CustomerStatusLead)))
	require.NoError(t, repo.Create(ctx, newCustomer("Grace Hopper", "grace@navy.mil", domain.CustomerStatusCustomer)))
	require.NoError(t, repo.Create(ctx, newCustomer("Alan Turing", "alan@example.com", domain.CustomerStatusInactive)))

	items, total, err := repo.List(ctx, repository.ListParams{
		Statuses: []domain.CustomerStatus{domain.CustomerStatusLead, domain.CustomerStatusCustomer},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, items, 2)

	items, total, err = repo.List(ctx, repository.ListParams{Search: "EXAMPLE"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	for _, item := range items {
		assert.Contains(t, item.Email, "example.com")
	}

	items, _, err = repo.List(ctx, repository.ListParams{Search: "hopper"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Grace Hopper", items[0].Name)

	items, total, err = repo.List(ctx, repository.ListParams{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, items, 1)
}

func TestUpdateAndStatus(t *testing.T) {
	repo := repository.New(dbtest.Open(t))
	ctx := context.Background()

	c := newCustomer("Ada", "ada@example.com", domain.CustomerStatusLead)
	require.NoError(t, repo.Create(ctx, c))

	c.Company = "Analytical Engines"
	require.NoError(t, repo.Update(ctx, c))
	require.NoError(t, repo.UpdateStatus(ctx, c.ID, domain.CustomerStatusCustomer))

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Analytical Engines", got.Company)
	assert.Equal(t, domain.CustomerStatusCustomer, got.Status)

	assert.True(t, apperr.Is(repo.UpdateStatus(ctx, uuid.New(), domain.CustomerStatusLead), apperr.KindNotFound))
}

func TestContactsNewestFirst(t *testing.T) {
	repo := repository.New(dbtest.Open(t))
	ctx := context.Background()

	c := newCustomer("Ada", "ada@example.com", domain.CustomerStatusLead)
	require.NoError(t, repo.Create(ctx, c))

	base := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	for i, note := range []string{"first", "second", "third"} {
		require.NoError(t, repo.CreateContact(ctx, domain.Contact{
			ID: uuid.New(), CustomerID: c.ID, Type: domain.ContactTypeNote, Notes: note, Date: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	items, err := repo.ListContacts(ctx, &c.ID, 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "third", items[0].Notes)
	assert.Equal(t, "Ada", items[0].CustomerName)

	all, err := repo.ListAllContacts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestPreferencesUpsert(t *testing.T) {
	repo := repository.New(dbtest.Open(t))
	ctx := context.Background()

	c := newCustomer("Ada", "ada@example.com", domain.CustomerStatusLead)
	require.NoError(t, repo.Create(ctx, c))

	_, err := repo.GetPreferences(ctx, c.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	first, err := repo.UpsertPreferences(ctx, repository.Preferences{ID: uuid.New(), CustomerID: c.ID, PreferredContactMethod: "Email"})
	require.NoError(t, err)

	second, err := repo.UpsertPreferences(ctx, repository.Preferences{ID: uuid.New(), CustomerID: c.ID, PreferredContactMethod: "Phone"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "upsert keeps the original row")
	assert.Equal(t, "Phone", second.PreferredContactMethod)
}
