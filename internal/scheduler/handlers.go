package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"crm_backend/internal/email"
	"crm_backend/internal/events"
	scoringservice "crm_backend/internal/scoring/service"
	taskstransport "crm_backend/internal/tasks/transport"
	"crm_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// ScoringRunner runs one synchronous scoring run.
type ScoringRunner interface {
	Run(ctx context.Context, trigger string) (scoringservice.RunResult, error)
}

// DueTaskLister lists the unfinished tasks due on a day.
type DueTaskLister interface {
	DueOn(ctx context.Context, day time.Time) ([]taskstransport.TaskResponse, error)
}

// Handlers processes the tasks registered on the worker mux.
type Handlers struct {
	scoring  ScoringRunner
	tasks    DueTaskLister
	sender   email.Sender
	digestTo string
	bus      events.Bus
	log      *logger.Logger
	now      func() time.Time
}

// NewHandlers creates the task handlers. sender and digestTo may be empty,
// in which case the digest is only logged and published.
func NewHandlers(scoring ScoringRunner, tasks DueTaskLister, sender email.Sender, digestTo string, bus events.Bus, log *logger.Logger) *Handlers {
	return &Handlers{
		scoring:  scoring,
		tasks:    tasks,
		sender:   sender,
		digestTo: strings.TrimSpace(digestTo),
		bus:      bus,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Register binds every task type to mux.
func (h *Handlers) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskScoringRun, h.handleScoringRun)
	mux.HandleFunc(TaskDueDigest, h.handleDueDigest)
}

func (h *Handlers) handleScoringRun(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseScoringRunPayload(task)
	if err != nil {
		return fmt.Errorf("parse scoring payload: %v: %w", err, asynq.SkipRetry)
	}
	trigger := payload.Trigger
	if trigger == "" {
		trigger = scoringservice.TriggerScheduled
	}
	_, err = h.scoring.Run(ctx, trigger)
	return err
}

func (h *Handlers) handleDueDigest(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseDueDigestPayload(task)
	if err != nil {
		return fmt.Errorf("parse digest payload: %v: %w", err, asynq.SkipRetry)
	}

	day := h.now()
	if payload.Day != "" {
		day, err = time.Parse(dayLayout, payload.Day)
		if err != nil {
			return fmt.Errorf("invalid digest day %q: %w", payload.Day, asynq.SkipRetry)
		}
	}

	due, err := h.tasks.DueOn(ctx, day)
	if err != nil {
		return err
	}

	dayLabel := day.Format(dayLayout)
	ids := make([]uuid.UUID, len(due))
	for i, t := range due {
		ids[i] = t.ID
	}
	h.log.WithContext(ctx).Info("task digest built", "day", dayLabel, "due", len(due))
	h.bus.Publish(ctx, events.TasksDueDigest{
		BaseEvent: events.NewBaseEvent(),
		Day:       dayLabel,
		TaskIDs:   ids,
	})

	if h.sender == nil || h.digestTo == "" || len(due) == 0 {
		return nil
	}
	return h.sender.Send(ctx, email.Message{
		To:      h.digestTo,
		Subject: fmt.Sprintf("Tasks due %s (%d)", dayLabel, len(due)),
		Body:    digestBody(due),
	})
}

func digestBody(due []taskstransport.TaskResponse) string {
	var b strings.Builder
	b.WriteString("Open tasks due:\n\n")
	for _, t := range due {
		b.WriteString("- ")
		b.WriteString(t.Title)
		if t.CustomerName != "" {
			b.WriteString(" (")
			b.WriteString(t.CustomerName)
			b.WriteString(")")
		}
		b.WriteString(", ")
		b.WriteString(t.DueDate.UTC().Format("15:04"))
		b.WriteString(" UTC, ")
		b.WriteString(t.Status)
		b.WriteString("\n")
	}
	return b.String()
}
