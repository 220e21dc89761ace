// Package jobs moves workflow runs onto an asynq queue so the HTTP surface
// can return before the providers finish.
package jobs

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"reelcast/internal/project"
	"reelcast/internal/services"
)

// Task type names.
const (
	TypeRunProject = "talkingvideo:run_project"
	TypeRunStep    = "talkingvideo:run_step"
)

const (
	defaultMaxRetry  = 2
	defaultRetention = 24 * time.Hour
)

// Payload identifies the project (and optionally the step) a task acts on.
type Payload struct {
	ProjectID string       `json:"project_id"`
	Step      project.Step `json:"step,omitempty"`
}

// NewRunProjectTask builds a task that runs every remaining stage of a project.
func NewRunProjectTask(projectID string, timeout time.Duration) (*asynq.Task, error) {
	return newTask(TypeRunProject, Payload{ProjectID: projectID}, timeout)
}

// NewRunStepTask builds a task that re-runs one stage of a project.
func NewRunStepTask(projectID string, step project.Step, timeout time.Duration) (*asynq.Task, error) {
	parsed, err := project.ParseStep(string(step))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", services.ErrValidation, err)
	}
	return newTask(TypeRunStep, Payload{ProjectID: projectID, Step: parsed}, timeout)
}

func newTask(typename string, payload Payload, timeout time.Duration) (*asynq.Task, error) {
	if strings.TrimSpace(payload.ProjectID) == "" {
		return nil, fmt.Errorf("%w: project id is required", services.ErrValidation)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", typename, err)
	}
	opts := []asynq.Option{
		asynq.TaskID(uuid.NewString()),
		asynq.MaxRetry(defaultMaxRetry),
		asynq.Retention(defaultRetention),
	}
	if timeout > 0 {
		opts = append(opts, asynq.Timeout(timeout))
	}
	return asynq.NewTask(typename, body, opts...), nil
}

// DecodePayload parses a task payload. Malformed payloads are never retried.
func DecodePayload(t *asynq.Task) (Payload, error) {
	var payload Payload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return Payload{}, fmt.Errorf("decode %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	if strings.TrimSpace(payload.ProjectID) == "" {
		return Payload{}, fmt.Errorf("%s payload has no project id: %w", t.Type(), asynq.SkipRetry)
	}
	return payload, nil
}
