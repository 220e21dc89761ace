// Package poll implements the bounded submit-then-poll loop shared by every
// asynchronous provider integration.
package poll

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"reelcast/internal/services"
)

const (
	DefaultInterval    = 5 * time.Second
	DefaultMaxAttempts = 120
)

// State is the provider-reported job state, normalised.
type State int

const (
	StateInProgress State = iota
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "in_progress"
	}
}

// Check is one status observation.
type Check struct {
	State State
	// Raw is the provider's own status label, kept for logging.
	Raw string
	// Message carries the provider's failure explanation.
	Message string
}

// Job describes one asynchronous provider operation.
type Job[T any] struct {
	// Name labels the job in errors, e.g. "fal fal-ai/sync-lipsync/v2".
	Name   string
	Submit func(ctx context.Context) (string, error)
	Status func(ctx context.Context, handle string) (Check, error)
	Result func(ctx context.Context, handle string) (T, error)
}

// Options bounds the poll loop.
type Options struct {
	Interval    time.Duration
	MaxAttempts int
	// Sleep waits between checks. Tests substitute a no-op.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnStatus observes every check, including failed status requests.
	OnStatus func(attempt int, check Check, err error)
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.Sleep == nil {
		o.Sleep = sleepContext
	}
	return o
}

// TimeoutError reports that MaxAttempts status checks passed without a
// terminal state.
type TimeoutError struct {
	Job      string
	Handle   string
	Attempts int
	Interval time.Duration
	// LastErr is the most recent status-request failure, if any.
	LastErr error
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("%s: request %s timed out after %d status checks (%s interval)", e.Job, e.Handle, e.Attempts, e.Interval)
	if e.LastErr != nil {
		msg += fmt.Sprintf("; last status error: %v", e.LastErr)
	}
	return msg
}

func (e *TimeoutError) Unwrap() error { return services.ErrTimeout }

// JobFailedError reports a provider-side job failure.
type JobFailedError struct {
	Job     string
	Handle  string
	Message string
}

func (e *JobFailedError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = "generation failed"
	}
	return fmt.Sprintf("%s: request %s failed: %s", e.Job, e.Handle, msg)
}

func (e *JobFailedError) Unwrap() error { return services.ErrUpstream }

// Run submits job and waits for its result.
func Run[T any](ctx context.Context, job Job[T], opts Options) (T, error) {
	var zero T
	if job.Submit == nil {
		return zero, errors.New("poll: job has no submit function")
	}
	handle, err := job.Submit(ctx)
	if err != nil {
		return zero, err
	}
	if strings.TrimSpace(handle) == "" {
		return zero, fmt.Errorf("%w: %s: submit returned no request id", services.ErrUpstream, job.Name)
	}
	return Wait(ctx, job, handle, opts)
}

// Wait polls an already-submitted job. It sleeps before every status check,
// treats a failed status request as a consumed attempt, and gives up with a
// *TimeoutError after exactly MaxAttempts checks.
func Wait[T any](ctx context.Context, job Job[T], handle string, opts Options) (T, error) {
	var zero T
	if job.Status == nil || job.Result == nil {
		return zero, errors.New("poll: job needs status and result functions")
	}
	opts = opts.withDefaults()

	var lastErr error
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		if err := opts.Sleep(ctx, opts.Interval); err != nil {
			return zero, err
		}
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		check, err := job.Status(ctx, handle)
		if opts.OnStatus != nil {
			opts.OnStatus(attempt, check, err)
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return zero, ctxErr
			}
			lastErr = err
			continue
		}

		switch check.State {
		case StateCompleted:
			return job.Result(ctx, handle)
		case StateFailed:
			return zero, &JobFailedError{Job: job.Name, Handle: handle, Message: check.Message}
		}
	}
	return zero, &TimeoutError{
		Job:      job.Name,
		Handle:   handle,
		Attempts: opts.MaxAttempts,
		Interval: opts.Interval,
		LastErr:  lastErr,
	}
}

// NoSleep is a Sleep implementation that never waits.
func NoSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
