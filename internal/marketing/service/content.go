package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	customersrepo "crm_backend/internal/customers/repository"
	customerssvc "crm_backend/internal/customers/service"
	customerstransport "crm_backend/internal/customers/transport"
	"crm_backend/internal/domain"
	"crm_backend/internal/events"
	"crm_backend/internal/marketing/repository"
	"crm_backend/internal/marketing/transport"
	"crm_backend/platform/apperr"
	"crm_backend/platform/db"
	"crm_backend/platform/sanitize"
)

const (
	qrCodeSize             = 256
	defaultThankYouMessage = "Thank you for your submission!"
	formLeadSource         = "form"
)

// CreatePage stores a landing page.
func (s *Service) CreatePage(ctx context.Context, req transport.CreatePageRequest) (transport.PageResponse, error) {
	p := repository.LandingPage{
		ID:              uuid.New(),
		Title:           sanitize.Text(req.Title),
		Content:         sanitize.RichText(req.Content),
		Template:        req.Template,
		MetaDescription: sanitize.Text(req.MetaDescription),
		Published:       req.Published,
		CreatedAt:       s.now(),
	}
	if err := s.repo.CreatePage(ctx, p); err != nil {
		return transport.PageResponse{}, err
	}
	s.log.WithContext(ctx).Info("landing page created", "id", p.ID, "published", p.Published)
	return s.toPageResponse(p), nil
}

// ListPages returns every landing page.
func (s *Service) ListPages(ctx context.Context) ([]transport.PageResponse, error) {
	items, err := s.repo.ListPages(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]transport.PageResponse, len(items))
	for i, p := range items {
		out[i] = s.toPageResponse(p)
	}
	return out, nil
}

// SetPublished publishes or unpublishes a landing page.
func (s *Service) SetPublished(ctx context.Context, id uuid.UUID, published bool) (transport.PageResponse, error) {
	if err := s.repo.SetPagePublished(ctx, id, published); err != nil {
		return transport.PageResponse{}, err
	}
	p, err := s.repo.GetPage(ctx, id)
	if err != nil {
		return transport.PageResponse{}, err
	}
	s.log.WithContext(ctx).Info("landing page publish state changed", "id", id, "published", published)
	return s.toPageResponse(p), nil
}

// VisitPage counts a public visit and returns the page. Unpublished pages
// are reported as not found.
func (s *Service) VisitPage(ctx context.Context, id uuid.UUID) (transport.PageResponse, error) {
	if err := s.repo.RecordVisit(ctx, id); err != nil {
		return transport.PageResponse{}, err
	}
	p, err := s.repo.GetPage(ctx, id)
	if err != nil {
		return transport.PageResponse{}, err
	}
	return s.toPageResponse(p), nil
}

// PageQRCode renders a PNG QR code linking to the public page.
func (s *Service) PageQRCode(ctx context.Context, id uuid.UUID) ([]byte, error) {
	if _, err := s.repo.GetPage(ctx, id); err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(s.pageURL(id), qrcode.Medium, qrCodeSize)
	if err != nil {
		return nil, apperr.Internal("failed to render QR code", err)
	}
	return png, nil
}

func (s *Service) pageURL(id uuid.UUID) string {
	return strings.TrimRight(s.baseURL, "/") + "/api/v1/public/pages/" + id.String()
}

func (s *Service) toPageResponse(p repository.LandingPage) transport.PageResponse {
	return transport.PageResponse{
		ID:              p.ID,
		Title:           p.Title,
		Content:         p.Content,
		Template:        p.Template,
		MetaDescription: p.MetaDescription,
		Published:       p.Published,
		Visits:          p.Visits,
		URL:             s.pageURL(p.ID),
		CreatedAt:       p.CreatedAt,
	}
}

// CreatePost stores a draft blog post written by authorID.
func (s *Service) CreatePost(ctx context.Context, authorID uuid.UUID, req transport.CreatePostRequest) (transport.PostResponse, error) {
	tags := make([]string, 0, len(req.Tags))
	for _, t := range req.Tags {
		if t = sanitize.Text(strings.ReplaceAll(t, ",", " ")); t != "" {
			tags = append(tags, t)
		}
	}
	p := repository.BlogPost{
		ID:         uuid.New(),
		Title:      sanitize.Text(req.Title),
		Content:    sanitize.RichText(req.Content),
		Categories: joinList(req.Categories),
		Tags:       joinList(tags),
		Status:     postStatusDraft,
		CreatedAt:  s.now(),
	}
	if authorID != uuid.Nil {
		p.AuthorID = &authorID
	}
	if err := s.repo.CreatePost(ctx, p); err != nil {
		return transport.PostResponse{}, err
	}
	s.log.WithContext(ctx).Info("blog post created", "id", p.ID, "authorId", authorID)
	return toPostResponse(p), nil
}

// ListPosts returns blog posts with author names.
func (s *Service) ListPosts(ctx context.Context) ([]transport.PostResponse, error) {
	items, err := s.repo.ListPosts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]transport.PostResponse, len(items))
	for i, p := range items {
		out[i] = toPostResponse(p)
	}
	return out, nil
}

// PublishPost marks a blog post as published now.
func (s *Service) PublishPost(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.PublishPost(ctx, id, s.now()); err != nil {
		return err
	}
	s.log.WithContext(ctx).Info("blog post published", "id", id)
	return nil
}

func toPostResponse(p repository.BlogPost) transport.PostResponse {
	return transport.PostResponse{
		ID:            p.ID,
		Title:         p.Title,
		Content:       p.Content,
		AuthorID:      p.AuthorID,
		Author:        p.AuthorName,
		Categories:    splitList(p.Categories),
		Tags:          splitList(p.Tags),
		Status:        p.Status,
		PublishedDate: p.PublishedDate,
		CreatedAt:     p.CreatedAt,
	}
}

// CreateForm stores a lead capture form.
func (s *Service) CreateForm(ctx context.Context, req transport.CreateFormRequest) (transport.FormResponse, error) {
	fields := make([]transport.FormField, len(req.Fields))
	seen := make(map[string]bool, len(req.Fields))
	for i, f := range req.Fields {
		name := sanitize.Text(f.Name)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			return transport.FormResponse{}, apperr.Validation(fmt.Sprintf("field %d: name is empty or duplicated", i+1))
		}
		seen[key] = true
		fields[i] = transport.FormField{Name: name, Type: f.Type, Required: f.Required}
	}
	encoded, err := json.Marshal(fields)
	if err != nil {
		return transport.FormResponse{}, fmt.Errorf("encode form fields: %w", err)
	}
	thanks := sanitize.Text(req.ThankYouMessage)
	if thanks == "" {
		thanks = defaultThankYouMessage
	}

	f := repository.Form{
		ID:              uuid.New(),
		Name:            sanitize.Text(req.Name),
		Fields:          string(encoded),
		ThankYouMessage: thanks,
		CreatedAt:       s.now(),
	}
	if err := s.repo.CreateForm(ctx, f); err != nil {
		return transport.FormResponse{}, err
	}
	s.log.WithContext(ctx).Info("form created", "id", f.ID, "fields", len(fields))
	return toFormResponse(f, fields), nil
}

// GetForm returns one form, used to render it publicly.
func (s *Service) GetForm(ctx context.Context, id uuid.UUID) (transport.FormResponse, error) {
	f, err := s.repo.GetForm(ctx, id)
	if err != nil {
		return transport.FormResponse{}, err
	}
	fields, err := decodeFields(f.Fields)
	if err != nil {
		return transport.FormResponse{}, err
	}
	return toFormResponse(f, fields), nil
}

// ListForms returns every form.
func (s *Service) ListForms(ctx context.Context) ([]transport.FormResponse, error) {
	items, err := s.repo.ListForms(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]transport.FormResponse, len(items))
	for i, f := range items {
		fields, err := decodeFields(f.Fields)
		if err != nil {
			return nil, err
		}
		out[i] = toFormResponse(f, fields)
	}
	return out, nil
}

// SubmitForm records a public submission. When the values carry a name or
// an email a Lead customer is created, unless a customer with that email
// already exists. The counter and the lead are written in one transaction.
func (s *Service) SubmitForm(ctx context.Context, id uuid.UUID, req transport.SubmitFormRequest) (transport.SubmitFormResponse, error) {
	var (
		resp    transport.SubmitFormResponse
		created *domain.Customer
	)
	err := s.tx.WithTx(ctx, func(q db.Querier) error {
		repo := repository.New(q)
		form, err := repo.GetForm(ctx, id)
		if err != nil {
			return err
		}
		fields, err := decodeFields(form.Fields)
		if err != nil {
			return err
		}
		values := normalizeValues(req.Values)
		for _, f := range fields {
			if f.Required && values[strings.ToLower(f.Name)] == "" {
				return apperr.Validation(fmt.Sprintf("%s is required", f.Name))
			}
		}
		if err := repo.IncrementSubmissions(ctx, id); err != nil {
			return err
		}
		resp.Message = form.ThankYouMessage

		lead, err := s.buildLead(values)
		if err != nil || lead == nil {
			return err
		}
		customers := customersrepo.New(q)
		if lead.Email != "" {
			existing, err := customers.FindIDByEmail(ctx, lead.Email)
			if err != nil {
				return err
			}
			if existing != nil {
				resp.CustomerID = existing
				return nil
			}
		}
		if err := customers.Create(ctx, *lead); err != nil {
			return err
		}
		created = lead
		resp.CustomerID = &lead.ID
		return nil
	})
	if err != nil {
		return transport.SubmitFormResponse{}, err
	}

	s.log.WithContext(ctx).Info("form submitted", "formId", id, "leadCreated", created != nil)
	if created != nil {
		err := s.eventBus.PublishSync(ctx, events.CustomerCreated{
			BaseEvent:  events.NewBaseEvent(),
			CustomerID: created.ID,
			Name:       created.Name,
			Status:     string(created.Status),
			Source:     formLeadSource,
		})
		if err != nil {
			s.log.WithContext(ctx).Warn("event handler failed", "event", "customers.customer.created", "error", err)
		}
	}
	return resp, nil
}

// buildLead returns nil when the submission carries neither name nor email.
func (s *Service) buildLead(values map[string]string) (*domain.Customer, error) {
	name := firstValue(values, "name", "full name")
	email := firstValue(values, "email", "email address")
	if name == "" && email == "" {
		return nil, nil
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, apperr.Validation("email is not a valid address")
		}
	}
	if name == "" {
		name = email
	}
	c, err := customerssvc.BuildCustomer(customerstransport.CreateCustomerRequest{
		Name:    name,
		Email:   email,
		Phone:   firstValue(values, "phone", "phone number"),
		Company: firstValue(values, "company"),
		Status:  string(domain.CustomerStatusLead),
	}, s.phones, s.now())
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func normalizeValues(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return out
}

func firstValue(values map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := values[k]; v != "" {
			return v
		}
	}
	return ""
}

func decodeFields(raw string) ([]transport.FormField, error) {
	var fields []transport.FormField
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("decode form fields: %w", err)
	}
	return fields, nil
}

func toFormResponse(f repository.Form, fields []transport.FormField) transport.FormResponse {
	return transport.FormResponse{
		ID:              f.ID,
		Name:            f.Name,
		Fields:          fields,
		SubmissionCount: f.SubmissionCount,
		ThankYouMessage: f.ThankYouMessage,
		CreatedAt:       f.CreatedAt,
	}
}

func joinList(items []string) string {
	return strings.Join(items, ",")
}

func splitList(s string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
