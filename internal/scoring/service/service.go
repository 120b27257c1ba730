// Package service runs lead scoring and manages scoring rules.
package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"crm_backend/internal/domain"
	"crm_backend/internal/events"
	"crm_backend/internal/scoring/engine"
	"crm_backend/internal/scoring/repository"
	"crm_backend/internal/scoring/transport"
	"crm_backend/platform/apperr"
	"crm_backend/platform/db"
	"crm_backend/platform/logger"
	"crm_backend/platform/sanitize"
)

// Triggers recorded on scoring runs.
const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
	TriggerCLI       = "cli"
)

const defaultRankedLimit = 100

// TxRunner opens a transaction and hands fn a querier bound to it.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(q db.Querier) error) error
}

// Enqueuer queues a scoring run on the background worker.
type Enqueuer interface {
	EnqueueScoringRun(ctx context.Context, trigger string) (taskID, queue string, err error)
}

// RunResult is the outcome of one scoring run.
type RunResult struct {
	Trigger  string
	Scores   map[uuid.UUID]int
	Leads    []domain.Customer
	Duration time.Duration
}

// Service runs scoring and stores scoring rules.
type Service struct {
	tx       TxRunner
	repo     *repository.Repository
	eventBus events.Bus
	enqueuer Enqueuer
	log      *logger.Logger
	now      func() time.Time
}

// New creates a scoring service. conn is used both for plain reads and to
// open the transaction of a run.
func New(conn *db.DB, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{
		tx:       conn,
		repo:     repository.New(conn),
		eventBus: eventBus,
		log:      log,
		now:      time.Now,
	}
}

// SetEnqueuer enables asynchronous runs.
func (s *Service) SetEnqueuer(e Enqueuer) {
	s.enqueuer = e
}

// Run scores every Lead customer and overwrites their lead_score inside one
// transaction. Either every lead is updated or none is.
func (s *Service) Run(ctx context.Context, trigger string) (RunResult, error) {
	start := s.now()
	result := RunResult{Trigger: trigger}

	err := s.tx.WithTx(ctx, func(q db.Querier) error {
		repo := repository.New(q)

		leads, err := repo.ListLeads(ctx)
		if err != nil {
			return err
		}
		contacts, err := repo.ListLeadContacts(ctx)
		if err != nil {
			return err
		}

		scores := engine.ComputeLeadScores(leads, contacts)
		for _, lead := range leads {
			if err := repo.SetLeadScore(ctx, lead.ID, scores[lead.ID]); err != nil {
				return err
			}
		}
		for i := range leads {
			leads[i].LeadScore = scores[leads[i].ID]
		}

		result.Scores = scores
		result.Leads = leads
		return nil
	})
	result.Duration = s.now().Sub(start)
	s.log.WithContext(ctx).ScoringRun(trigger, len(result.Scores), result.Duration, err)
	if err != nil {
		return RunResult{}, apperr.Internal("scoring run failed", err)
	}

	s.eventBus.Publish(ctx, events.LeadScoresComputed{
		BaseEvent: events.NewBaseEvent(),
		Trigger:   trigger,
		Scored:    len(result.Scores),
	})
	return result, nil
}

// RunAndReport runs scoring and maps the result for the API.
func (s *Service) RunAndReport(ctx context.Context, trigger string) (transport.RunResponse, error) {
	result, err := s.Run(ctx, trigger)
	if err != nil {
		return transport.RunResponse{}, err
	}
	return ToRunResponse(result), nil
}

// Enqueue queues a run on the background worker. It returns BadRequest when
// no worker queue is configured.
func (s *Service) Enqueue(ctx context.Context, trigger string) (transport.EnqueueResponse, error) {
	if s.enqueuer == nil {
		return transport.EnqueueResponse{}, apperr.BadRequest("background scoring is not configured")
	}
	id, queue, err := s.enqueuer.EnqueueScoringRun(ctx, trigger)
	if err != nil {
		return transport.EnqueueResponse{}, apperr.Internal("enqueue scoring run", err)
	}
	s.log.WithContext(ctx).Info("scoring run enqueued", "taskId", id, "queue", queue)
	return transport.EnqueueResponse{TaskID: id, Queue: queue}, nil
}

// RankedLeads returns leads by descending lead score.
func (s *Service) RankedLeads(ctx context.Context, limit int) ([]transport.LeadScore, error) {
	if limit < 1 {
		limit = defaultRankedLimit
	}
	leads, err := s.repo.ListRankedLeads(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]transport.LeadScore, len(leads))
	for i, lead := range leads {
		out[i] = toLeadScore(lead)
	}
	return out, nil
}

// CreateRule stores a scoring rule. Rules are configuration only.
func (s *Service) CreateRule(ctx context.Context, req transport.CreateRuleRequest) (transport.RuleResponse, error) {
	if req.Score <= 0 {
		return transport.RuleResponse{}, apperr.Validation("score must be positive")
	}
	rule := repository.Rule{
		ID:        uuid.New(),
		Attribute: req.Attribute,
		Condition: sanitize.Text(req.Condition),
		Score:     req.Score,
		CreatedAt: s.now().UTC(),
	}
	if rule.Condition == "" {
		return transport.RuleResponse{}, apperr.Validation("condition is required")
	}
	if err := s.repo.CreateRule(ctx, rule); err != nil {
		return transport.RuleResponse{}, err
	}
	s.log.WithContext(ctx).Info("scoring rule created", "id", rule.ID, "attribute", rule.Attribute)
	return toRuleResponse(rule), nil
}

// ListRules returns every scoring rule.
func (s *Service) ListRules(ctx context.Context) ([]transport.RuleResponse, error) {
	rules, err := s.repo.ListRules(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]transport.RuleResponse, len(rules))
	for i, r := range rules {
		out[i] = toRuleResponse(r)
	}
	return out, nil
}

// DeleteRule removes a scoring rule.
func (s *Service) DeleteRule(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteRule(ctx, id); err != nil {
		return err
	}
	s.log.WithContext(ctx).Info("scoring rule deleted", "id", id)
	return nil
}

// ToRunResponse maps a run result, leads ordered by descending score.
func ToRunResponse(r RunResult) transport.RunResponse {
	leads := make([]domain.Customer, len(r.Leads))
	copy(leads, r.Leads)
	sort.SliceStable(leads, func(i, j int) bool {
		if leads[i].LeadScore != leads[j].LeadScore {
			return leads[i].LeadScore > leads[j].LeadScore
		}
		return leads[i].Name < leads[j].Name
	})

	resp := transport.RunResponse{
		Trigger:    r.Trigger,
		Scored:     len(r.Scores),
		DurationMs: float64(r.Duration.Microseconds()) / 1000,
		Scores:     make([]transport.LeadScore, len(leads)),
	}
	for i, lead := range leads {
		resp.Scores[i] = toLeadScore(lead)
	}
	return resp
}

func toLeadScore(c domain.Customer) transport.LeadScore {
	return transport.LeadScore{
		CustomerID:  c.ID,
		Name:        c.Name,
		Company:     c.Company,
		CompanySize: c.CompanySize,
		LeadScore:   c.LeadScore,
	}
}

func toRuleResponse(r repository.Rule) transport.RuleResponse {
	return transport.RuleResponse{
		ID:        r.ID,
		Attribute: r.Attribute,
		Condition: r.Condition,
		Score:     r.Score,
		CreatedAt: r.CreatedAt,
	}
}
