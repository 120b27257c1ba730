package service_test

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	customersrepo "crm_backend/internal/customers/repository"
	"crm_backend/internal/domain"
	"crm_backend/internal/events"
	"crm_backend/internal/marketing/repository"
	"crm_backend/internal/marketing/service"
	"crm_backend/internal/marketing/transport"
	"crm_backend/platform/apperr"
	"crm_backend/platform/db/dbtest"
	"crm_backend/platform/events/eventstest"
	"crm_backend/platform/logger"
	"crm_backend/platform/phone"
)

type fixture struct {
	svc       *service.Service
	repo      *repository.Repository
	customers *customersrepo.Repository
	bus       *eventstest.Recorder
}

func setup(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	bus := &eventstest.Recorder{}
	repo := repository.New(conn)
	svc := service.New(repo, conn, bus, phone.NewNormalizer("US"), "https://crm.example.com/", logger.NewWithWriter("test", io.Discard))
	return fixture{svc: svc, repo: repo, customers: customersrepo.New(conn), bus: bus}
}

func (f fixture) newForm(t *testing.T) transport.FormResponse {
	t.Helper()
	form, err := f.svc.CreateForm(context.Background(), transport.CreateFormRequest{
		Name: "Newsletter",
		Fields: []transport.FormField{
			{Name: "Name", Type: "Text"},
			{Name: "Email", Type: "Email", Required: true},
		},
	})
	require.NoError(t, err)
	return form
}

func TestCreateCampaignStartsAsDraft(t *testing.T) {
	f := setup(t)
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	c, err := f.svc.CreateCampaign(context.Background(), transport.CreateCampaignRequest{
		Name:      "Spring launch",
		Type:      "Email",
		StartDate: start,
		EndDate:   start.AddDate(0, 1, 0),
		Budget:    decimal.RequireFromString("1500.5"),
	})
	require.NoError(t, err)
	assert.Equal(t, "draft", c.Status)
	assert.Equal(t, "1500.50", c.Budget)
	assert.Equal(t, "2026-03-01", c.StartDate)
}

func TestCreateCampaignRejectsNegativeBudget(t *testing.T) {
	f := setup(t)
	start := time.Now().UTC()

	_, err := f.svc.CreateCampaign(context.Background(), transport.CreateCampaignRequest{
		Name: "Bad", Type: "Social", StartDate: start, EndDate: start, Budget: decimal.NewFromInt(-1),
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestSubmitFormCreatesLead(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	form := f.newForm(t)

	resp, err := f.svc.SubmitForm(ctx, form.ID, transport.SubmitFormRequest{
		Values: map[string]string{"Name": "Jane Doe", "email": " Jane@Example.com "},
	})
	require.NoError(t, err)
	assert.Equal(t, "Thank you for your submission!", resp.Message)
	require.NotNil(t, resp.CustomerID)

	lead, err := f.customers.GetByID(ctx, *resp.CustomerID)
	require.NoError(t, err)
	assert.Equal(t, domain.CustomerStatusLead, lead.Status)
	assert.Equal(t, "jane@example.com", lead.Email)
	assert.Equal(t, 0, lead.LeadScore)

	created := f.bus.Named(events.CustomerCreated{}.EventName())
	require.Len(t, created, 1)
	assert.Equal(t, "form", created[0].(events.CustomerCreated).Source)

	stored, err := f.svc.GetForm(ctx, form.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.SubmissionCount)
}

func TestSubmitFormReusesExistingCustomer(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	form := f.newForm(t)
	values := map[string]string{"name": "Jane", "email": "jane@example.com"}

	first, err := f.svc.SubmitForm(ctx, form.ID, transport.SubmitFormRequest{Values: values})
	require.NoError(t, err)
	second, err := f.svc.SubmitForm(ctx, form.ID, transport.SubmitFormRequest{Values: values})
	require.NoError(t, err)

	assert.Equal(t, *first.CustomerID, *second.CustomerID)
	assert.Len(t, f.bus.Named(events.CustomerCreated{}.EventName()), 1)

	n, err := f.customers.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stored, err := f.svc.GetForm(ctx, form.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.SubmissionCount)
}

func TestSubmitFormMissingRequiredFieldChangesNothing(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	form := f.newForm(t)

	_, err := f.svc.SubmitForm(ctx, form.ID, transport.SubmitFormRequest{Values: map[string]string{"name": "Jane"}})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	stored, err := f.svc.GetForm(ctx, form.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.SubmissionCount)
	n, err := f.customers.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSubmitUnknownForm(t *testing.T) {
	f := setup(t)
	_, err := f.svc.SubmitForm(context.Background(), uuid.New(), transport.SubmitFormRequest{Values: map[string]string{}})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestVisitCountsOnlyPublishedPages(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	page, err := f.svc.CreatePage(ctx, transport.CreatePageRequest{Title: "Launch", Template: "Product", Content: "<p>Hi</p><script>x()</script>"})
	require.NoError(t, err)
	assert.NotContains(t, page.Content, "script")
	assert.Equal(t, "https://crm.example.com/api/v1/public/pages/"+page.ID.String(), page.URL)

	_, err = f.svc.VisitPage(ctx, page.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = f.svc.SetPublished(ctx, page.ID, true)
	require.NoError(t, err)
	visited, err := f.svc.VisitPage(ctx, page.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, visited.Visits)

	stats, err := f.svc.ContentPerformance(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 1, stats[0].Visits)
}

func TestPageQRCodeIsPNG(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	page, err := f.svc.CreatePage(ctx, transport.CreatePageRequest{Title: "QR", Template: "Default"})
	require.NoError(t, err)

	png, err := f.svc.PageQRCode(ctx, page.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

func TestCreatePostWithoutAuthorStartsAsDraft(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	post, err := f.svc.CreatePost(ctx, uuid.Nil, transport.CreatePostRequest{
		Title: "Hello", Categories: []string{"Sales", "Marketing"}, Tags: []string{"crm", "a,b"},
	})
	require.NoError(t, err)
	assert.Equal(t, "draft", post.Status)
	assert.Nil(t, post.AuthorID)

	posts, err := f.svc.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, []string{"Sales", "Marketing"}, posts[0].Categories)
	assert.Equal(t, []string{"crm", "a b"}, posts[0].Tags)

	require.NoError(t, f.svc.PublishPost(ctx, post.ID))
	posts, err = f.svc.ListPosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, "published", posts[0].Status)
	assert.NotNil(t, posts[0].PublishedDate)
}

func TestKeywordDifficultyBounds(t *testing.T) {
	f := setup(t)
	_, err := f.svc.CreateKeyword(context.Background(), transport.CreateKeywordRequest{Keyword: "crm", Difficulty: 101})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}
