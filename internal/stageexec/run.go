// Package stageexec runs one stage against a stored project and applies the
// status transitions around it.
package stageexec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"reelcast/internal/logging"
	"reelcast/internal/notifications"
	"reelcast/internal/project"
	"reelcast/internal/services"
	"reelcast/internal/stage"
)

// Phase values passed to a ProgressFunc.
const (
	PhaseGenerating = "generating"
	PhaseComplete   = "complete"
)

// ProgressFunc observes step boundaries. It must not block for long and
// cannot influence the run.
type ProgressFunc func(step project.Step, phase string)

// Publisher receives project snapshots and step boundaries.
type Publisher interface {
	Status(p *project.Project)
	Progress(projectID string, step project.Step, phase string)
}

// Options controls stage execution and store persistence behavior.
type Options struct {
	Logger    *slog.Logger
	Store     project.Store
	Notifier  notifications.Service
	Events    Publisher
	Handler   stage.Handler
	ProjectID string
	Progress  ProgressFunc
}

// Failure is a stage error that has been recorded on the project.
type Failure struct {
	Step project.Step
	Err  error
}

func (f *Failure) Error() string { return f.Err.Error() }

func (f *Failure) Unwrap() error { return f.Err }

// IsFailure reports whether err is a recorded stage failure rather than a
// bookkeeping error.
func IsFailure(err error) bool {
	var f *Failure
	return errors.As(err, &f)
}

// Run marks the project as generating, executes the stage and merges its
// output. A stage error is stored as status error and returned as *Failure;
// any other error means the store could not be updated.
func Run(ctx context.Context, opts Options) (*project.Project, error) {
	if opts.Handler == nil {
		return nil, errors.New("stage handler is required")
	}
	if opts.Store == nil {
		return nil, errors.New("project store is required")
	}
	step := opts.Handler.Step()

	ctx = services.WithProjectID(ctx, opts.ProjectID)
	ctx = services.WithStep(ctx, string(step))
	logger := logging.WithContext(ctx, opts.Logger)

	p, ok, err := opts.Store.Update(ctx, opts.ProjectID, project.Patch{
		Status:      project.Ptr(project.Generating(step)),
		CurrentStep: project.Ptr(step),
		ClearError:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("persist %s transition: %w", step, err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, string(step), "start", "unknown project "+opts.ProjectID, nil)
	}
	publishStatus(opts.Events, p)
	progress(opts, step, PhaseGenerating)

	start := time.Now()
	logger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("status", string(p.Status)),
	)

	patch, stageErr := opts.Handler.Execute(ctx, p.Clone())
	if stageErr != nil {
		return handleFailure(ctx, logger, opts, step, stageErr)
	}

	patch.Status = project.Ptr(project.Ready(step))
	patch.Reset = project.Dependents(step)
	if project.Ready(step) == project.StatusComplete {
		patch.ClearStep = true
	}
	p, ok, err = opts.Store.Update(ctx, opts.ProjectID, patch)
	if err != nil {
		return nil, fmt.Errorf("persist %s result: %w", step, err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, string(step), "complete", "project "+opts.ProjectID+" disappeared", nil)
	}
	publishStatus(opts.Events, p)
	progress(opts, step, PhaseComplete)

	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("next_status", string(p.Status)),
		logging.Duration("stage_duration", time.Since(start)),
	)
	if p.Status == project.StatusComplete && opts.Notifier != nil {
		if err := opts.Notifier.NotifyProjectCompleted(ctx, p.ID, p.Title, p.FinalVideoURL); err != nil {
			logger.Debug("completion notification failed", logging.Error(err))
		}
	}
	return p, nil
}

func handleFailure(ctx context.Context, logger *slog.Logger, opts Options, step project.Step, stageErr error) (*project.Project, error) {
	// Record the failure even when the caller's context is already done.
	ctx = context.WithoutCancel(ctx)
	message := stageErr.Error()

	logging.ErrorWithContext(logger, "stage failed", "stage_failure",
		logging.String(logging.FieldErrorKind, services.Kind(stageErr)),
		logging.String("resolved_status", string(project.StatusError)),
		logging.Error(stageErr),
	)

	p, ok, err := opts.Store.Update(ctx, opts.ProjectID, project.Patch{
		Status: project.Ptr(project.StatusError),
		Error:  project.Ptr(message),
	})
	if err != nil {
		return nil, fmt.Errorf("persist %s failure: %w (stage error: %v)", step, err, stageErr)
	}
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, string(step), "fail", "project "+opts.ProjectID+" disappeared", stageErr)
	}
	publishStatus(opts.Events, p)

	if opts.Notifier != nil {
		if err := opts.Notifier.NotifyProjectFailed(ctx, p.ID, string(step), stageErr); err != nil {
			logger.Debug("failure notification failed", logging.Error(err))
		}
	}
	return p, &Failure{Step: step, Err: stageErr}
}

func publishStatus(pub Publisher, p *project.Project) {
	if pub != nil {
		pub.Status(p)
	}
}

func progress(opts Options, step project.Step, phase string) {
	if opts.Events != nil {
		opts.Events.Progress(opts.ProjectID, step, phase)
	}
	if opts.Progress != nil {
		opts.Progress(step, phase)
	}
}
