package scheduler

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"crm_backend/platform/config"
	"crm_backend/platform/logger"

	"github.com/hibiken/asynq"
	"gopkg.in/yaml.v3"
)

// Entry is one periodic task.
type Entry struct {
	Task    string `yaml:"task"`
	Cron    string `yaml:"cron"`
	Trigger string `yaml:"trigger,omitempty"`
}

// Schedule is the set of periodic tasks registered by the scheduler process.
//
//	schedules:
//	  - task: scoring.run
//	    cron: "0 2 * * *"
//	  - task: tasks.due_digest
//	    cron: "0 7 * * 1-5"
type Schedule struct {
	Entries []Entry `yaml:"schedules"`
}

// ParseSchedule decodes and validates a YAML schedule.
func ParseSchedule(r io.Reader) (Schedule, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Schedule
	if err := dec.Decode(&s); err != nil {
		if err == io.EOF {
			return Schedule{}, nil
		}
		return Schedule{}, fmt.Errorf("decode schedule: %w", err)
	}
	for i := range s.Entries {
		if err := s.Entries[i].validate(); err != nil {
			return Schedule{}, fmt.Errorf("schedule entry %d: %w", i+1, err)
		}
	}
	return s, nil
}

// LoadSchedule reads the schedule file named by the config. Without a file
// the schedule holds a single scoring run on the scoring cron, or nothing
// when that is empty too.
func LoadSchedule(cfg config.SchedulerConfig) (Schedule, error) {
	path := strings.TrimSpace(cfg.GetScheduleFile())
	if path == "" {
		cron := strings.TrimSpace(cfg.GetScoringCron())
		if cron == "" {
			return Schedule{}, nil
		}
		entry := Entry{Task: TaskScoringRun, Cron: cron}
		if err := entry.validate(); err != nil {
			return Schedule{}, err
		}
		return Schedule{Entries: []Entry{entry}}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return Schedule{}, fmt.Errorf("open schedule: %w", err)
	}
	defer f.Close()
	return ParseSchedule(f)
}

func (e Entry) validate() error {
	switch e.Task {
	case TaskScoringRun, TaskDueDigest:
	default:
		return fmt.Errorf("unknown task %q", e.Task)
	}
	if e.Trigger != "" && e.Task != TaskScoringRun {
		return fmt.Errorf("trigger is only valid for %s", TaskScoringRun)
	}
	spec := strings.TrimSpace(e.Cron)
	if spec == "" {
		return fmt.Errorf("cron is required")
	}
	if !strings.HasPrefix(spec, "@") && len(strings.Fields(spec)) != 5 {
		return fmt.Errorf("cron %q must have five fields", spec)
	}
	return nil
}

func (e Entry) task() (*asynq.Task, error) {
	switch e.Task {
	case TaskScoringRun:
		return NewScoringRunTask(ScoringRunPayload{Trigger: e.Trigger})
	case TaskDueDigest:
		return NewDueDigestTask(DueDigestPayload{})
	default:
		return nil, fmt.Errorf("unknown task %q", e.Task)
	}
}

// Periodic enqueues the schedule's tasks on their cron specs.
type Periodic struct {
	scheduler *asynq.Scheduler
	entries   int
	log       *logger.Logger
}

func NewPeriodic(cfg config.SchedulerConfig, schedule Schedule, log *logger.Logger) (*Periodic, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	s := asynq.NewScheduler(opt, nil)
	queue := queueName(cfg)
	for _, entry := range schedule.Entries {
		task, err := entry.task()
		if err != nil {
			return nil, err
		}
		id, err := s.Register(strings.TrimSpace(entry.Cron), task, asynq.Queue(queue))
		if err != nil {
			return nil, fmt.Errorf("register %s: %w", entry.Task, err)
		}
		log.Info("periodic task registered", "task", entry.Task, "cron", entry.Cron, "entryId", id)
	}

	return &Periodic{scheduler: s, entries: len(schedule.Entries), log: log}, nil
}

// Run starts the scheduler and stops it when ctx is cancelled.
func (p *Periodic) Run(ctx context.Context) {
	if p == nil || p.entries == 0 {
		return
	}
	if err := p.scheduler.Start(); err != nil {
		p.log.Error("periodic scheduler failed to start", "error", err)
		return
	}
	<-ctx.Done()
	p.scheduler.Shutdown()
}
