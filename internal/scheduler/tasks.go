package scheduler

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const TaskScoringRun = "scoring.run"

const TaskDueDigest = "tasks.due_digest"

// dayLayout is the format of DueDigestPayload.Day.
const dayLayout = "2006-01-02"

type ScoringRunPayload struct {
	Trigger string `json:"trigger"`
}

// DueDigestPayload selects the day of the digest. An empty Day means the
// day the task is processed.
type DueDigestPayload struct {
	Day string `json:"day,omitempty"`
}

func NewScoringRunTask(payload ScoringRunPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskScoringRun, data), nil
}

func ParseScoringRunPayload(task *asynq.Task) (ScoringRunPayload, error) {
	var payload ScoringRunPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ScoringRunPayload{}, err
	}
	return payload, nil
}

func NewDueDigestTask(payload DueDigestPayload) (*asynq.Task, error) {
	if payload.Day != "" {
		if _, err := time.Parse(dayLayout, payload.Day); err != nil {
			return nil, fmt.Errorf("invalid digest day %q", payload.Day)
		}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDueDigest, data), nil
}

func ParseDueDigestPayload(task *asynq.Task) (DueDigestPayload, error) {
	var payload DueDigestPayload
	if len(task.Payload()) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return DueDigestPayload{}, err
	}
	return payload, nil
}
