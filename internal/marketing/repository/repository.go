package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"crm_backend/platform/apperr"
	"crm_backend/platform/db"
)

const (
	campaignNotFoundMsg = "campaign not found"
	keywordNotFoundMsg  = "keyword not found"
)

// Repository persists campaigns, landing pages, blog posts, forms and keywords.
type Repository struct {
	q db.Querier
}

// New creates a marketing repository on top of a connection or transaction.
func New(q db.Querier) *Repository {
	return &Repository{q: q}
}

// Campaign is a marketing campaign.
type Campaign struct {
	ID             uuid.UUID
	Name           string
	Type           string
	Status         string
	StartDate      time.Time
	EndDate        time.Time
	Budget         decimal.Decimal
	TargetAudience string
	CreatedAt      time.Time
}

// Keyword is a tracked SEO keyword.
type Keyword struct {
	ID         uuid.UUID
	Keyword    string
	Difficulty int
	Volume     int
	Ranking    *int
	CreatedAt  time.Time
}

// CreateCampaign inserts a campaign.
func (r *Repository) CreateCampaign(ctx context.Context, c Campaign) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO campaigns (id, name, type, status, start_date, end_date, budget, target_audience, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Type, c.Status, c.StartDate.UTC(), c.EndDate.UTC(), c.Budget, c.TargetAudience, c.CreatedAt.UTC(),
	)
	if err != nil {
		return translateWriteErr("create campaign", err)
	}
	return nil
}

// ListCampaigns returns campaigns, most recent start first.
func (r *Repository) ListCampaigns(ctx context.Context) ([]Campaign, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, name, type, status, start_date, end_date, budget, target_audience, created_at
		FROM campaigns
		ORDER BY start_date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	items := make([]Campaign, 0)
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// GetCampaign returns one campaign.
func (r *Repository) GetCampaign(ctx context.Context, id uuid.UUID) (Campaign, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, name, type, status, start_date, end_date, budget, target_audience, created_at
		FROM campaigns WHERE id = ?`, id)
	c, err := scanCampaign(row)
	if db.IsNoRows(err) {
		return Campaign{}, apperr.NotFound(campaignNotFoundMsg)
	}
	if err != nil {
		return Campaign{}, fmt.Errorf("get campaign: %w", err)
	}
	return c, nil
}

// UpdateCampaignStatus sets the status of a campaign.
func (r *Repository) UpdateCampaignStatus(ctx context.Context, id uuid.UUID, status string) error {
	res, err := r.q.ExecContext(ctx, `UPDATE campaigns SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("update campaign status: %w", err)
	}
	return db.RequireAffected(res, campaignNotFoundMsg)
}

// DeleteCampaign removes a campaign.
func (r *Repository) DeleteCampaign(ctx context.Context, id uuid.UUID) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM campaigns WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}
	return db.RequireAffected(res, campaignNotFoundMsg)
}

func scanCampaign(s db.Scanner) (Campaign, error) {
	var c Campaign
	if err := s.Scan(&c.ID, &c.Name, &c.Type, &c.Status, &c.StartDate, &c.EndDate, &c.Budget, &c.TargetAudience, &c.CreatedAt); err != nil {
		return Campaign{}, err
	}
	c.StartDate = c.StartDate.UTC()
	c.EndDate = c.EndDate.UTC()
	c.CreatedAt = c.CreatedAt.UTC()
	return c, nil
}

// CreateKeyword inserts a keyword.
func (r *Repository) CreateKeyword(ctx context.Context, k Keyword) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO keywords (id, keyword, difficulty, volume, ranking, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		k.ID, k.Keyword, k.Difficulty, k.Volume, db.NullInt(k.Ranking), k.CreatedAt.UTC(),
	)
	if err != nil {
		return translateWriteErr("create keyword", err)
	}
	return nil
}

// ListKeywords returns keywords by search volume.
func (r *Repository) ListKeywords(ctx context.Context) ([]Keyword, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, keyword, difficulty, volume, ranking, created_at
		FROM keywords
		ORDER BY volume DESC, keyword ASC`)
	if err != nil {
		return nil, fmt.Errorf("list keywords: %w", err)
	}
	defer rows.Close()

	items := make([]Keyword, 0)
	for rows.Next() {
		var (
			k       Keyword
			ranking sql.NullInt64
		)
		if err := rows.Scan(&k.ID, &k.Keyword, &k.Difficulty, &k.Volume, &ranking, &k.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan keyword: %w", err)
		}
		k.Ranking = db.IntPtr(ranking)
		k.CreatedAt = k.CreatedAt.UTC()
		items = append(items, k)
	}
	return items, rows.Err()
}

// UpdateKeywordRanking records the current search position of a keyword.
func (r *Repository) UpdateKeywordRanking(ctx context.Context, id uuid.UUID, ranking *int) error {
	res, err := r.q.ExecContext(ctx, `UPDATE keywords SET ranking = ? WHERE id = ?`, db.NullInt(ranking), id)
	if err != nil {
		return fmt.Errorf("update keyword ranking: %w", err)
	}
	return db.RequireAffected(res, keywordNotFoundMsg)
}

func translateWriteErr(op string, err error) error {
	switch {
	case db.IsCheckViolation(err):
		return apperr.Validation("value out of range").WithOp(op)
	case db.IsForeignKeyViolation(err):
		return apperr.NotFound("referenced record not found").WithOp(op)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
