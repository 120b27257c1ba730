package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateCampaignRequest creates a campaign in draft status.
type CreateCampaignRequest struct {
	Name           string          `json:"name" validate:"required,max=200"`
	Type           string          `json:"type" validate:"required,campaign_type"`
	StartDate      time.Time       `json:"startDate" validate:"required"`
	EndDate        time.Time       `json:"endDate" validate:"required"`
	Budget         decimal.Decimal `json:"budget"`
	TargetAudience string          `json:"targetAudience" validate:"omitempty,max=1000"`
}

// UpdateCampaignStatusRequest moves a campaign between statuses.
type UpdateCampaignStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft active paused completed"`
}

// CampaignResponse is a campaign.
type CampaignResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	Status         string    `json:"status"`
	StartDate      string    `json:"startDate"`
	EndDate        string    `json:"endDate"`
	Budget         string    `json:"budget"`
	TargetAudience string    `json:"targetAudience"`
	CreatedAt      time.Time `json:"createdAt"`
}

// CreatePageRequest creates a landing page.
type CreatePageRequest struct {
	Title           string `json:"title" validate:"required,max=200"`
	Content         string `json:"content" validate:"omitempty,max=100000"`
	Template        string `json:"template" validate:"required,page_template"`
	MetaDescription string `json:"metaDescription" validate:"omitempty,max=300"`
	Published       bool   `json:"published"`
}

// PublishRequest toggles a page's published flag.
type PublishRequest struct {
	Published bool `json:"published"`
}

// PageResponse is a landing page.
type PageResponse struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	Template        string    `json:"template"`
	MetaDescription string    `json:"metaDescription"`
	Published       bool      `json:"published"`
	Visits          int       `json:"visits"`
	URL             string    `json:"url"`
	CreatedAt       time.Time `json:"createdAt"`
}

// CreatePostRequest creates a draft blog post.
type CreatePostRequest struct {
	Title      string   `json:"title" validate:"required,max=200"`
	Content    string   `json:"content" validate:"omitempty,max=100000"`
	Categories []string `json:"categories" validate:"omitempty,dive,blog_category"`
	Tags       []string `json:"tags" validate:"omitempty,max=20,dive,min=1,max=50"`
}

// PostResponse is a blog post.
type PostResponse struct {
	ID            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	AuthorID      *uuid.UUID `json:"authorId,omitempty"`
	Author        string     `json:"author"`
	Categories    []string   `json:"categories"`
	Tags          []string   `json:"tags"`
	Status        string     `json:"status"`
	PublishedDate *time.Time `json:"publishedDate,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// FormField describes one input of a form.
type FormField struct {
	Name     string `json:"name" validate:"required,max=100"`
	Type     string `json:"type" validate:"required,form_field_type"`
	Required bool   `json:"required"`
}

// CreateFormRequest creates a lead capture form.
type CreateFormRequest struct {
	Name            string      `json:"name" validate:"required,max=200"`
	Fields          []FormField `json:"fields" validate:"required,min=1,max=50,dive"`
	ThankYouMessage string      `json:"thankYouMessage" validate:"omitempty,max=1000"`
}

// FormResponse is a form.
type FormResponse struct {
	ID              uuid.UUID   `json:"id"`
	Name            string      `json:"name"`
	Fields          []FormField `json:"fields"`
	SubmissionCount int         `json:"submissionCount"`
	ThankYouMessage string      `json:"thankYouMessage"`
	CreatedAt       time.Time   `json:"createdAt"`
}

// SubmitFormRequest carries the values entered by a visitor, keyed by field name.
type SubmitFormRequest struct {
	Values map[string]string `json:"values" validate:"required,max=50,dive,keys,max=100,endkeys,max=5000"`
}

// SubmitFormResponse is returned to the visitor.
type SubmitFormResponse struct {
	Message    string     `json:"message"`
	CustomerID *uuid.UUID `json:"customerId,omitempty"`
}

// CreateKeywordRequest tracks a keyword.
type CreateKeywordRequest struct {
	Keyword    string `json:"keyword" validate:"required,max=200"`
	Difficulty int    `json:"difficulty" validate:"required,min=1,max=100"`
	Volume     int    `json:"volume" validate:"min=0"`
	Ranking    *int   `json:"ranking,omitempty" validate:"omitempty,min=1"`
}

// UpdateRankingRequest records a keyword's current position. Nil clears it.
type UpdateRankingRequest struct {
	Ranking *int `json:"ranking" validate:"omitempty,min=1"`
}

// KeywordResponse is a tracked keyword.
type KeywordResponse struct {
	ID         uuid.UUID `json:"id"`
	Keyword    string    `json:"keyword"`
	Difficulty int       `json:"difficulty"`
	Volume     int       `json:"volume"`
	Ranking    *int      `json:"ranking,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ContentStat is one row of the content performance report.
type ContentStat struct {
	ID     uuid.UUID `json:"id"`
	Title  string    `json:"title"`
	Kind   string    `json:"kind"`
	Visits int       `json:"visits"`
}
