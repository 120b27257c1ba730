package service_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crm_backend/internal/adapters/storage"
	customersrepo "crm_backend/internal/customers/repository"
	"crm_backend/internal/documents/repository"
	"crm_backend/internal/documents/service"
	"crm_backend/internal/domain"
	"crm_backend/internal/events"
	"crm_backend/platform/apperr"
	"crm_backend/platform/db/dbtest"
	"crm_backend/platform/events/eventstest"
	"crm_backend/platform/logger"
)

type memObjects struct {
	objects map[string][]byte
	failPut bool
}

func (m *memObjects) Put(_ context.Context, key, _ string, r io.Reader, _ int64) error {
	if m.failPut {
		return fmt.Errorf("bucket unavailable")
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = b
	return nil
}

func (m *memObjects) Get(_ context.Context, key string) (io.ReadCloser, error) {
	b, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("no such key %s", key)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m *memObjects) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func (m *memObjects) PresignGet(_ context.Context, key string) (*storage.PresignedURL, error) {
	return &storage.PresignedURL{URL: "https://objects.test/" + key, FileKey: key, ExpiresAt: time.Now().Add(time.Minute)}, nil
}

type fixture struct {
	svc        *service.Service
	bus        *eventstest.Recorder
	customerID uuid.UUID
}

func newFixture(t *testing.T, objects storage.ObjectStore) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	customers := customersrepo.New(conn)

	f := fixture{bus: &eventstest.Recorder{}, customerID: uuid.New()}
	require.NoError(t, customers.Create(context.Background(), domain.Customer{
		ID: f.customerID, Name: "Acme Corp", Status: domain.CustomerStatusCustomer, CreatedDate: time.Now().UTC(),
	}))
	f.svc = service.New(repository.New(conn), customers, objects, 1024, f.bus, logger.NewWithWriter("test", io.Discard))
	return f
}

func upload(customerID uuid.UUID, name, body string, tags ...string) service.Upload {
	return service.Upload{
		CustomerID:  customerID,
		FileName:    name,
		ContentType: "text/plain; charset=utf-8",
		Size:        int64(len(body)),
		Content:     strings.NewReader(body),
		Tags:        tags,
	}
}

func TestUploadInlineAndDownload(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	doc, err := f.svc.Upload(ctx, upload(f.customerID, "../../contract.txt", "signed terms", "legal, 2026", "Legal"))
	require.NoError(t, err)
	assert.Equal(t, "contract.txt", doc.Name)
	assert.Equal(t, "text/plain", doc.Type)
	assert.Equal(t, "inline", doc.Stored)
	assert.Equal(t, "Acme Corp", doc.CustomerName)
	assert.Equal(t, []string{"legal", "2026"}, doc.Tags)
	assert.Len(t, f.bus.Named(events.DocumentUploaded{}.EventName()), 1)

	dl, err := f.svc.Open(ctx, uuid.MustParse(doc.ID))
	require.NoError(t, err)
	defer dl.Body.Close()
	body, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	assert.Equal(t, "signed terms", string(body))

	_, err = f.svc.DownloadURL(ctx, uuid.MustParse(doc.ID))
	assert.True(t, apperr.Is(err, apperr.KindBadRequest), "got %v", err)
}

func TestUploadToObjectStore(t *testing.T) {
	objects := &memObjects{objects: map[string][]byte{}}
	f := newFixture(t, objects)
	ctx := context.Background()

	doc, err := f.svc.Upload(ctx, upload(f.customerID, "notes.txt", "hello"))
	require.NoError(t, err)
	assert.Equal(t, "object", doc.Stored)
	require.Len(t, objects.objects, 1)

	dl, err := f.svc.Open(ctx, uuid.MustParse(doc.ID))
	require.NoError(t, err)
	body, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))

	link, err := f.svc.DownloadURL(ctx, uuid.MustParse(doc.ID))
	require.NoError(t, err)
	assert.Contains(t, link.URL, f.customerID.String())

	require.NoError(t, f.svc.Delete(ctx, uuid.MustParse(doc.ID)))
	assert.Empty(t, objects.objects)
}

func TestUploadFailuresStoreNothing(t *testing.T) {
	objects := &memObjects{objects: map[string][]byte{}, failPut: true}
	f := newFixture(t, objects)
	ctx := context.Background()

	_, err := f.svc.Upload(ctx, upload(f.customerID, "a.txt", "x"))
	require.Error(t, err)

	_, err = f.svc.Upload(ctx, upload(uuid.New(), "a.txt", "x"))
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "got %v", err)

	bad := upload(f.customerID, "tool.exe", "MZ")
	bad.ContentType = "application/x-msdownload"
	_, err = f.svc.Upload(ctx, bad)
	assert.True(t, apperr.Is(err, apperr.KindValidation), "got %v", err)

	_, err = f.svc.Upload(ctx, upload(f.customerID, "big.txt", strings.Repeat("x", 2048)))
	assert.True(t, apperr.Is(err, apperr.KindValidation), "got %v", err)

	docs, err := f.svc.List(ctx, nil, "")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestListFiltersByCustomerAndTag(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.Upload(ctx, upload(f.customerID, "a.txt", "a", "invoice"))
	require.NoError(t, err)
	_, err = f.svc.Upload(ctx, upload(f.customerID, "b.txt", "b", "invoices"))
	require.NoError(t, err)

	byTag, err := f.svc.List(ctx, nil, "invoice")
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	assert.Equal(t, "a.txt", byTag[0].Name)

	other := uuid.New()
	none, err := f.svc.List(ctx, &other, "")
	require.NoError(t, err)
	assert.Empty(t, none)

	all, err := f.svc.List(ctx, &f.customerID, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
