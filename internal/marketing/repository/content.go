package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"crm_backend/platform/apperr"
	"crm_backend/platform/db"
)

const (
	pageNotFoundMsg = "landing page not found"
	postNotFoundMsg = "blog post not found"
	formNotFoundMsg = "form not found"
)

// LandingPage is a published or draft marketing page.
type LandingPage struct {
	ID              uuid.UUID
	Title           string
	Content         string
	Template        string
	MetaDescription string
	Published       bool
	Visits          int
	CreatedAt       time.Time
}

// BlogPost is a blog article.
type BlogPost struct {
	ID            uuid.UUID
	Title         string
	Content       string
	AuthorID      *uuid.UUID
	AuthorName    string
	Categories    string
	Tags          string
	Status        string
	PublishedDate *time.Time
	CreatedAt     time.Time
}

// Form is a lead capture form. Fields holds the JSON encoded field list.
type Form struct {
	ID              uuid.UUID
	Name            string
	Fields          string
	SubmissionCount int
	ThankYouMessage string
	CreatedAt       time.Time
}

// ContentStat is the performance of one piece of content.
type ContentStat struct {
	ID     uuid.UUID
	Title  string
	Kind   string
	Visits int
}

// CreatePage inserts a landing page.
func (r *Repository) CreatePage(ctx context.Context, p LandingPage) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO landing_pages (id, title, content, template, meta_description, published, visits, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Content, p.Template, p.MetaDescription, p.Published, p.Visits, p.CreatedAt.UTC(),
	)
	if err != nil {
		return translateWriteErr("create landing page", err)
	}
	return nil
}

// GetPage returns one landing page.
func (r *Repository) GetPage(ctx context.Context, id uuid.UUID) (LandingPage, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, title, content, template, meta_description, published, visits, created_at
		FROM landing_pages WHERE id = ?`, id)
	p, err := scanPage(row)
	if db.IsNoRows(err) {
		return LandingPage{}, apperr.NotFound(pageNotFoundMsg)
	}
	if err != nil {
		return LandingPage{}, fmt.Errorf("get landing page: %w", err)
	}
	return p, nil
}

// ListPages returns landing pages, newest first.
func (r *Repository) ListPages(ctx context.Context) ([]LandingPage, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, title, content, template, meta_description, published, visits, created_at
		FROM landing_pages
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list landing pages: %w", err)
	}
	defer rows.Close()

	items := make([]LandingPage, 0)
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan landing page: %w", err)
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

// SetPagePublished toggles the published flag.
func (r *Repository) SetPagePublished(ctx context.Context, id uuid.UUID, published bool) error {
	res, err := r.q.ExecContext(ctx, `UPDATE landing_pages SET published = ? WHERE id = ?`, published, id)
	if err != nil {
		return fmt.Errorf("publish landing page: %w", err)
	}
	return db.RequireAffected(res, pageNotFoundMsg)
}

// RecordVisit increments the visit counter of a published page.
func (r *Repository) RecordVisit(ctx context.Context, id uuid.UUID) error {
	res, err := r.q.ExecContext(ctx, `UPDATE landing_pages SET visits = visits + 1 WHERE id = ? AND published = ?`, id, true)
	if err != nil {
		return fmt.Errorf("record landing page visit: %w", err)
	}
	return db.RequireAffected(res, pageNotFoundMsg)
}

func scanPage(s db.Scanner) (LandingPage, error) {
	var p LandingPage
	if err := s.Scan(&p.ID, &p.Title, &p.Content, &p.Template, &p.MetaDescription, &p.Published, &p.Visits, &p.CreatedAt); err != nil {
		return LandingPage{}, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}

// CreatePost inserts a blog post.
func (r *Repository) CreatePost(ctx context.Context, p BlogPost) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO blog_posts (id, title, content, author_id, categories, tags, status, published_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Content, db.NullUUID(p.AuthorID), p.Categories, p.Tags, p.Status, db.NullTime(p.PublishedDate), p.CreatedAt.UTC(),
	)
	if err != nil {
		return translateWriteErr("create blog post", err)
	}
	return nil
}

// ListPosts returns blog posts with their author's username, newest first.
func (r *Repository) ListPosts(ctx context.Context) ([]BlogPost, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT b.id, b.title, b.content, b.author_id, COALESCE(u.username, ''), b.categories, b.tags,
		       b.status, b.published_date, b.created_at
		FROM blog_posts b
		LEFT JOIN users u ON u.id = b.author_id
		ORDER BY b.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list blog posts: %w", err)
	}
	defer rows.Close()

	items := make([]BlogPost, 0)
	for rows.Next() {
		var (
			p         BlogPost
			author    uuid.NullUUID
			published sql.NullTime
		)
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &author, &p.AuthorName, &p.Categories, &p.Tags,
			&p.Status, &published, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan blog post: %w", err)
		}
		p.AuthorID = db.UUIDPtr(author)
		p.PublishedDate = db.TimePtr(published)
		p.CreatedAt = p.CreatedAt.UTC()
		items = append(items, p)
	}
	return items, rows.Err()
}

// PublishPost marks a post published at the given time.
func (r *Repository) PublishPost(ctx context.Context, id uuid.UUID, at time.Time) error {
	res, err := r.q.ExecContext(ctx, `UPDATE blog_posts SET status = 'published', published_date = ? WHERE id = ?`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("publish blog post: %w", err)
	}
	return db.RequireAffected(res, postNotFoundMsg)
}

// CreateForm inserts a form.
func (r *Repository) CreateForm(ctx context.Context, f Form) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO forms (id, name, fields, submission_count, thank_you_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		f.ID, f.Name, f.Fields, f.SubmissionCount, f.ThankYouMessage, f.CreatedAt.UTC(),
	)
	if err != nil {
		return translateWriteErr("create form", err)
	}
	return nil
}

// GetForm returns one form.
func (r *Repository) GetForm(ctx context.Context, id uuid.UUID) (Form, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, name, fields, submission_count, thank_you_message, created_at
		FROM forms WHERE id = ?`, id)
	f, err := scanForm(row)
	if db.IsNoRows(err) {
		return Form{}, apperr.NotFound(formNotFoundMsg)
	}
	if err != nil {
		return Form{}, fmt.Errorf("get form: %w", err)
	}
	return f, nil
}

// ListForms returns forms, newest first.
func (r *Repository) ListForms(ctx context.Context) ([]Form, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, name, fields, submission_count, thank_you_message, created_at
		FROM forms
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}
	defer rows.Close()

	items := make([]Form, 0)
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			return nil, fmt.Errorf("scan form: %w", err)
		}
		items = append(items, f)
	}
	return items, rows.Err()
}

// IncrementSubmissions bumps the submission counter of a form.
func (r *Repository) IncrementSubmissions(ctx context.Context, id uuid.UUID) error {
	res, err := r.q.ExecContext(ctx, `UPDATE forms SET submission_count = submission_count + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("increment form submissions: %w", err)
	}
	return db.RequireAffected(res, formNotFoundMsg)
}

func scanForm(s db.Scanner) (Form, error) {
	var f Form
	if err := s.Scan(&f.ID, &f.Name, &f.Fields, &f.SubmissionCount, &f.ThankYouMessage, &f.CreatedAt); err != nil {
		return Form{}, err
	}
	f.CreatedAt = f.CreatedAt.UTC()
	return f, nil
}

// ContentPerformance lists landing pages with their visits and blog posts,
// which carry no visit tracking and report zero.
func (r *Repository) ContentPerformance(ctx context.Context) ([]ContentStat, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, title, 'Landing Page' AS kind, visits FROM landing_pages
		UNION ALL
		SELECT id, title, 'Blog Post' AS kind, 0 AS visits FROM blog_posts
		ORDER BY visits DESC, title ASC`)
	if err != nil {
		return nil, fmt.Errorf("content performance: %w", err)
	}
	defer rows.Close()

	items := make([]ContentStat, 0)
	for rows.Next() {
		var s ContentStat
		if err := rows.Scan(&s.ID, &s.Title, &s.Kind, &s.Visits); err != nil {
			return nil, fmt.Errorf("scan content stat: %w", err)
		}
		items = append(items, s)
	}
	return items, rows.Err()
}
