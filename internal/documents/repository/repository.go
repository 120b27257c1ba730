// Package repository stores document metadata and, when no object store is
// configured, document content.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"crm_backend/platform/apperr"
	"crm_backend/platform/db"
)

const documentNotFoundMsg = "document not found"

type Repository struct {
	q db.Querier
}

func New(q db.Querier) *Repository {
	return &Repository{q: q}
}

// Document is document metadata. StorageKey is empty when the content lives
// in the row itself.
type Document struct {
	ID           uuid.UUID
	Name         string
	Type         string
	SizeBytes    int64
	StorageKey   string
	CustomerID   uuid.UUID
	CustomerName string
	UploadDate   time.Time
	Tags         []string
}

// ListParams filters a document listing.
type ListParams struct {
	CustomerID *uuid.UUID
	Tag        string
}

// Create inserts a document. content is written only when StorageKey is empty.
func (r *Repository) Create(ctx context.Context, d Document, content []byte) error {
	var blob any
	if d.StorageKey == "" {
		blob = content
	}
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO documents (id, name, type, size_bytes, content, storage_key, customer_id, upload_date, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Name, d.Type, d.SizeBytes, blob, db.NullString(d.StorageKey), d.CustomerID,
		d.UploadDate.UTC(), strings.Join(d.Tags, ","),
	)
	if db.IsForeignKeyViolation(err) {
		return apperr.NotFound("customer not found")
	}
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

const documentSelect = `
	SELECT d.id, d.name, d.type, d.size_bytes, d.storage_key, d.customer_id, c.name, d.upload_date, d.tags
	FROM documents d
	JOIN customers c ON c.id = d.customer_id`

func scanDocument(s db.Scanner) (Document, error) {
	var (
		d    Document
		key  sql.NullString
		tags string
	)
	if err := s.Scan(&d.ID, &d.Name, &d.Type, &d.SizeBytes, &key, &d.CustomerID, &d.CustomerName, &d.UploadDate, &tags); err != nil {
		return Document{}, err
	}
	d.StorageKey = key.String
	d.UploadDate = d.UploadDate.UTC()
	d.Tags = splitTags(tags)
	return d, nil
}

func splitTags(raw string) []string {
	tags := make([]string, 0)
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Document, error) {
	d, err := scanDocument(r.q.QueryRowContext(ctx, documentSelect+` WHERE d.id = ?`, id))
	if db.IsNoRows(err) {
		return Document{}, apperr.NotFound(documentNotFoundMsg)
	}
	if err != nil {
		return Document{}, fmt.Errorf("get document: %w", err)
	}
	return d, nil
}

// List returns documents newest first. Tag matches one whole tag.
func (r *Repository) List(ctx context.Context, params ListParams) ([]Document, error) {
	var (
		clauses []string
		args    []any
	)
	if params.CustomerID != nil {
		clauses = append(clauses, `d.customer_id = ?`)
		args = append(args, *params.CustomerID)
	}
	if tag := strings.TrimSpace(params.Tag); tag != "" {
		clauses = append(clauses, `(',' || d.tags || ',') LIKE ?`)
		args = append(args, "%,"+tag+",%")
	}

	query := documentSelect
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, ` AND `)
	}
	query += ` ORDER BY d.upload_date DESC, d.name ASC`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	items := make([]Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

// Content returns the content stored in the row.
func (r *Repository) Content(ctx context.Context, id uuid.UUID) ([]byte, error) {
	var content []byte
	err := r.q.QueryRowContext(ctx, `SELECT content FROM documents WHERE id = ?`, id).Scan(&content)
	if db.IsNoRows(err) {
		return nil, apperr.NotFound(documentNotFoundMsg)
	}
	if err != nil {
		return nil, fmt.Errorf("read document content: %w", err)
	}
	return content, nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return db.RequireAffected(res, documentNotFoundMsg)
}
