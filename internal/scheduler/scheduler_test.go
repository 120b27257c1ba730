package scheduler

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crm_backend/internal/email"
	"crm_backend/internal/events"
	scoringservice "crm_backend/internal/scoring/service"
	taskstransport "crm_backend/internal/tasks/transport"
	"crm_backend/platform/events/eventstest"
	"crm_backend/platform/logger"
)

type fakeScoring struct {
	triggers []string
	err      error
}

func (f *fakeScoring) Run(_ context.Context, trigger string) (scoringservice.RunResult, error) {
	f.triggers = append(f.triggers, trigger)
	return scoringservice.RunResult{Trigger: trigger}, f.err
}

type fakeTasks struct {
	days []time.Time
	due  []taskstransport.TaskResponse
}

func (f *fakeTasks) DueOn(_ context.Context, day time.Time) ([]taskstransport.TaskResponse, error) {
	f.days = append(f.days, day)
	return f.due, nil
}

type fakeSender struct {
	sent []email.Message
}

func (f *fakeSender) Send(_ context.Context, msg email.Message) error {
	f.sent = append(f.sent, msg)
	return nil
}

type fakeConfig struct {
	scoringCron  string
	scheduleFile string
}

func (c fakeConfig) GetRedisURL() string        { return "" }
func (c fakeConfig) GetRedisTLSInsecure() bool  { return false }
func (c fakeConfig) GetAsynqQueueName() string  { return "" }
func (c fakeConfig) GetAsynqConcurrency() int   { return 0 }
func (c fakeConfig) GetScoringCron() string     { return c.scoringCron }
func (c fakeConfig) GetScheduleFile() string    { return c.scheduleFile }
func (c fakeConfig) GetDigestRecipient() string { return "" }

func newMux(h *Handlers) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	h.Register(mux)
	return mux
}

func TestScoringRunTaskRunsScoring(t *testing.T) {
	scoring := &fakeScoring{}
	h := NewHandlers(scoring, &fakeTasks{}, nil, "", &eventstest.Recorder{}, logger.NewWithWriter("test", io.Discard))
	mux := newMux(h)

	task, err := NewScoringRunTask(ScoringRunPayload{Trigger: "manual"})
	require.NoError(t, err)
	require.NoError(t, mux.ProcessTask(context.Background(), task))

	task, err = NewScoringRunTask(ScoringRunPayload{})
	require.NoError(t, err)
	require.NoError(t, mux.ProcessTask(context.Background(), task))

	assert.Equal(t, []string{"manual", scoringservice.TriggerScheduled}, scoring.triggers)
}

func TestScoringRunTaskReturnsRunError(t *testing.T) {
	scoring := &fakeScoring{err: errors.New("db down")}
	h := NewHandlers(scoring, &fakeTasks{}, nil, "", &eventstest.Recorder{}, logger.NewWithWriter("test", io.Discard))

	task, err := NewScoringRunTask(ScoringRunPayload{Trigger: "scheduled"})
	require.NoError(t, err)
	err = newMux(h).ProcessTask(context.Background(), task)
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestMalformedPayloadSkipsRetry(t *testing.T) {
	h := NewHandlers(&fakeScoring{}, &fakeTasks{}, nil, "", &eventstest.Recorder{}, logger.NewWithWriter("test", io.Discard))
	mux := newMux(h)

	err := mux.ProcessTask(context.Background(), asynq.NewTask(TaskScoringRun, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = mux.ProcessTask(context.Background(), asynq.NewTask(TaskDueDigest, []byte(`{"day":"tomorrow"}`)))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestDueDigestPublishesAndEmails(t *testing.T) {
	taskID := uuid.New()
	tasks := &fakeTasks{due: []taskstransport.TaskResponse{{
		ID:           taskID,
		CustomerName: "Ada Lovelace",
		Title:        "Call back",
		DueDate:      time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC),
		Status:       "Not Started",
	}}}
	sender := &fakeSender{}
	bus := &eventstest.Recorder{}
	h := NewHandlers(&fakeScoring{}, tasks, sender, "sales@example.com", bus, logger.NewWithWriter("test", io.Discard))

	task, err := NewDueDigestTask(DueDigestPayload{Day: "2026-03-04"})
	require.NoError(t, err)
	require.NoError(t, newMux(h).ProcessTask(context.Background(), task))

	require.Len(t, tasks.days, 1)
	assert.Equal(t, "2026-03-04", tasks.days[0].Format(dayLayout))

	published := bus.Named(events.TasksDueDigest{}.EventName())
	require.Len(t, published, 1)
	digest := published[0].(events.TasksDueDigest)
	assert.Equal(t, "2026-03-04", digest.Day)
	assert.Equal(t, []uuid.UUID{taskID}, digest.TaskIDs)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "sales@example.com", sender.sent[0].To)
	assert.Equal(t, "Tasks due 2026-03-04 (1)", sender.sent[0].Subject)
	assert.Contains(t, sender.sent[0].Body, "- Call back (Ada Lovelace), 15:30 UTC, Not Started")
}

func TestDueDigestDefaultsToToday(t *testing.T) {
	tasks := &fakeTasks{}
	sender := &fakeSender{}
	h := NewHandlers(&fakeScoring{}, tasks, sender, "sales@example.com", &eventstest.Recorder{}, logger.NewWithWriter("test", io.Discard))
	h.now = func() time.Time { return time.Date(2026, 10, 17, 6, 0, 0, 0, time.UTC) }

	task, err := NewDueDigestTask(DueDigestPayload{})
	require.NoError(t, err)
	require.NoError(t, newMux(h).ProcessTask(context.Background(), task))

	require.Len(t, tasks.days, 1)
	assert.Equal(t, "2026-10-17", tasks.days[0].Format(dayLayout))
	assert.Empty(t, sender.sent, "an empty digest is not mailed")
}

func TestNewDueDigestTaskRejectsBadDay(t *testing.T) {
	_, err := NewDueDigestTask(DueDigestPayload{Day: "17/10/2026"})
	assert.Error(t, err)
}

func TestParseSchedule(t *testing.T) {
	src := `
schedules:
  - task: scoring.run
    cron: "0 2 * * *"
    trigger: nightly
  - task: tasks.due_digest
    cron: "@daily"
`
	s, err := ParseSchedule(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, s.Entries, 2)
	assert.Equal(t, Entry{Task: TaskScoringRun, Cron: "0 2 * * *", Trigger: "nightly"}, s.Entries[0])
	assert.Equal(t, TaskDueDigest, s.Entries[1].Task)

	task, err := s.Entries[0].task()
	require.NoError(t, err)
	payload, err := ParseScoringRunPayload(task)
	require.NoError(t, err)
	assert.Equal(t, "nightly", payload.Trigger)
}

func TestParseScheduleRejectsInvalidEntries(t *testing.T) {
	cases := map[string]string{
		"unknown task":   "schedules:\n  - task: backup\n    cron: \"@daily\"\n",
		"missing cron":   "schedules:\n  - task: scoring.run\n",
		"short cron":     "schedules:\n  - task: scoring.run\n    cron: \"0 2 *\"\n",
		"digest trigger": "schedules:\n  - task: tasks.due_digest\n    cron: \"@daily\"\n    trigger: x\n",
		"unknown field":  "schedules:\n  - task: scoring.run\n    cron: \"@daily\"\n    queue: low\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSchedule(strings.NewReader(src))
			assert.Error(t, err)
		})
	}
}

func TestLoadScheduleFallsBackToScoringCron(t *testing.T) {
	s, err := LoadSchedule(fakeConfig{scoringCron: "0 3 * * *"})
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Task: TaskScoringRun, Cron: "0 3 * * *"}}, s.Entries)

	s, err = LoadSchedule(fakeConfig{})
	require.NoError(t, err)
	assert.Empty(t, s.Entries)

	_, err = LoadSchedule(fakeConfig{scheduleFile: "/nonexistent/schedule.yaml"})
	assert.Error(t, err)
}

func TestClientRequiresRedis(t *testing.T) {
	_, err := NewClient(fakeConfig{})
	assert.Error(t, err)
	_, err = NewWorker(fakeConfig{}, NewHandlers(nil, nil, nil, "", nil, nil), nil)
	assert.Error(t, err)
}
