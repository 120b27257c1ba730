// Package service uploads, lists and serves customer documents.
package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"crm_backend/internal/adapters/storage"
	"crm_backend/internal/documents/repository"
	"crm_backend/internal/documents/transport"
	"crm_backend/internal/events"
	"crm_backend/platform/apperr"
	"crm_backend/platform/logger"
	"crm_backend/platform/sanitize"
)

const (
	storedObject = "object"
	storedInline = "inline"
	maxTags      = 20
)

type Store interface {
	Create(ctx context.Context, d repository.Document, content []byte) error
	Get(ctx context.Context, id uuid.UUID) (repository.Document, error)
	List(ctx context.Context, params repository.ListParams) ([]repository.Document, error)
	Content(ctx context.Context, id uuid.UUID) ([]byte, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CustomerChecker confirms the owning customer exists before content is stored.
type CustomerChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Upload is one file to store.
type Upload struct {
	CustomerID  uuid.UUID
	FileName    string
	ContentType string
	Size        int64
	Content     io.Reader
	Tags        []string
}

// Download is an open document body. The caller closes Body.
type Download struct {
	Document transport.DocumentResponse
	Body     io.ReadCloser
}

type Service struct {
	repo      Store
	customers CustomerChecker
	objects   storage.ObjectStore
	maxSize   int64
	eventBus  events.Bus
	log       *logger.Logger
	now       func() time.Time
}

// New creates the service. A nil objects store keeps content in the database.
func New(repo Store, customers CustomerChecker, objects storage.ObjectStore, maxSize int64, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		customers: customers,
		objects:   objects,
		maxSize:   maxSize,
		eventBus:  eventBus,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Upload(ctx context.Context, up Upload) (transport.DocumentResponse, error) {
	contentType := storage.NormalizeContentType(up.ContentType)
	if err := storage.ValidateContentType(contentType); err != nil {
		return transport.DocumentResponse{}, apperr.Validation(err.Error())
	}
	if err := storage.ValidateFileSize(up.Size, s.maxSize); err != nil {
		return transport.DocumentResponse{}, apperr.Validation(err.Error())
	}
	name := cleanFileName(up.FileName)
	if name == "" {
		return transport.DocumentResponse{}, apperr.Validation("file name is required")
	}
	tags, err := cleanTags(up.Tags)
	if err != nil {
		return transport.DocumentResponse{}, err
	}

	ok, err := s.customers.Exists(ctx, up.CustomerID)
	if err != nil {
		return transport.DocumentResponse{}, err
	}
	if !ok {
		return transport.DocumentResponse{}, apperr.NotFound("customer not found")
	}

	doc := repository.Document{
		ID:         uuid.New(),
		Name:       name,
		Type:       contentType,
		SizeBytes:  up.Size,
		CustomerID: up.CustomerID,
		UploadDate: s.now(),
		Tags:       tags,
	}

	if s.objects != nil {
		doc.StorageKey = path.Join("customers", up.CustomerID.String(), doc.ID.String(), name)
		if err := s.objects.Put(ctx, doc.StorageKey, contentType, up.Content, up.Size); err != nil {
			return transport.DocumentResponse{}, err
		}
		if err := s.repo.Create(ctx, doc, nil); err != nil {
			if delErr := s.objects.Delete(ctx, doc.StorageKey); delErr != nil {
				s.log.WithContext(ctx).Error("orphaned document object", "key", doc.StorageKey, "error", delErr)
			}
			return transport.DocumentResponse{}, err
		}
	} else {
		content, err := readAll(up.Content, up.Size)
		if err != nil {
			return transport.DocumentResponse{}, err
		}
		if err := s.repo.Create(ctx, doc, content); err != nil {
			return transport.DocumentResponse{}, err
		}
	}

	s.log.WithContext(ctx).Info("document uploaded", "documentId", doc.ID, "customerId", doc.CustomerID, "size", doc.SizeBytes)
	s.eventBus.Publish(ctx, events.DocumentUploaded{
		BaseEvent:  events.NewBaseEvent(),
		DocumentID: doc.ID,
		CustomerID: doc.CustomerID,
		Name:       doc.Name,
		SizeBytes:  doc.SizeBytes,
	})

	stored, err := s.repo.Get(ctx, doc.ID)
	if err != nil {
		return transport.DocumentResponse{}, err
	}
	return toResponse(stored), nil
}

// readAll reads exactly size bytes.
func readAll(r io.Reader, size int64) ([]byte, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, size+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if n != size {
		return nil, apperr.Validation("uploaded size does not match declared size")
	}
	return buf.Bytes(), nil
}

func (s *Service) List(ctx context.Context, customerID *uuid.UUID, tag string) ([]transport.DocumentResponse, error) {
	docs, err := s.repo.List(ctx, repository.ListParams{CustomerID: customerID, Tag: tag})
	if err != nil {
		return nil, err
	}
	out := make([]transport.DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, toResponse(d))
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (transport.DocumentResponse, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return transport.DocumentResponse{}, err
	}
	return toResponse(d), nil
}

// Open returns the document content from wherever it is stored.
func (s *Service) Open(ctx context.Context, id uuid.UUID) (Download, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return Download{}, err
	}

	if d.StorageKey != "" {
		if s.objects == nil {
			return Download{}, apperr.New(apperr.KindConflict, "document is held in object storage, which is not configured")
		}
		body, err := s.objects.Get(ctx, d.StorageKey)
		if err != nil {
			return Download{}, err
		}
		return Download{Document: toResponse(d), Body: body}, nil
	}

	content, err := s.repo.Content(ctx, id)
	if err != nil {
		return Download{}, err
	}
	return Download{Document: toResponse(d), Body: io.NopCloser(bytes.NewReader(content))}, nil
}

// DownloadURL presigns a direct link. Only object-stored documents have one.
func (s *Service) DownloadURL(ctx context.Context, id uuid.UUID) (transport.DownloadURLResponse, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return transport.DownloadURLResponse{}, err
	}
	if d.StorageKey == "" || s.objects == nil {
		return transport.DownloadURLResponse{}, apperr.BadRequest("document has no direct download URL")
	}
	u, err := s.objects.PresignGet(ctx, d.StorageKey)
	if err != nil {
		return transport.DownloadURLResponse{}, err
	}
	return transport.DownloadURLResponse{URL: u.URL, ExpiresAt: u.ExpiresAt}, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if d.StorageKey != "" && s.objects != nil {
		if err := s.objects.Delete(ctx, d.StorageKey); err != nil {
			s.log.WithContext(ctx).Error("orphaned document object", "key", d.StorageKey, "error", err)
		}
	}
	s.log.WithContext(ctx).Info("document deleted", "documentId", id)
	return nil
}

func cleanFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = sanitize.Text(path.Base(name))
	if name == "." || name == "/" {
		return ""
	}
	return name
}

// cleanTags trims, drops empties and duplicates. Commas separate stored tags.
func cleanTags(raw []string) ([]string, error) {
	seen := make(map[string]struct{}, len(raw))
	tags := make([]string, 0, len(raw))
	for _, r := range raw {
		for _, t := range strings.Split(r, ",") {
			t = sanitize.Text(t)
			if t == "" {
				continue
			}
			if _, dup := seen[strings.ToLower(t)]; dup {
				continue
			}
			seen[strings.ToLower(t)] = struct{}{}
			tags = append(tags, t)
		}
	}
	if len(tags) > maxTags {
		return nil, apperr.Validation(fmt.Sprintf("at most %d tags are allowed", maxTags))
	}
	return tags, nil
}

func toResponse(d repository.Document) transport.DocumentResponse {
	stored := storedInline
	if d.StorageKey != "" {
		stored = storedObject
	}
	return transport.DocumentResponse{
		ID:           d.ID.String(),
		Name:         d.Name,
		Type:         d.Type,
		SizeBytes:    d.SizeBytes,
		CustomerID:   d.CustomerID.String(),
		CustomerName: d.CustomerName,
		UploadDate:   d.UploadDate,
		Tags:         d.Tags,
		Stored:       stored,
	}
}
