package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reelcast/internal/logging"
	"reelcast/internal/project"
	"reelcast/internal/services"
	"reelcast/internal/stage"
	"reelcast/internal/stageexec"
)

// ProgressFunc is invoked at the start and successful end of each step.
type ProgressFunc = stageexec.ProgressFunc

// CreateProject validates req, applies defaults and stores a draft project.
func (m *Manager) CreateProject(ctx context.Context, req project.Request) (*project.Project, error) {
	req = req.WithDefaults(m.defaults)
	if err := req.Validate(); err != nil {
		return nil, services.Wrap(services.ErrValidation, "workflow", "create project", "", err)
	}
	if err := m.checkRequest(req); err != nil {
		return nil, err
	}
	p := project.New(req, m.ids.Next(), m.now())
	if err := m.store.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("store project: %w", err)
	}
	if m.events != nil {
		m.events.Status(p)
	}
	logging.WithContext(services.WithProjectID(ctx, p.ID), m.logger).Info("project created",
		logging.String(logging.FieldEventType, "project_created"),
		logging.String("scene_style", p.SceneStyle),
		logging.Int("duration", p.Duration),
	)
	return p, nil
}

// checkRequest lets each stage reject its own request options.
func (m *Manager) checkRequest(req project.Request) error {
	for _, step := range project.Steps() {
		checker, ok := m.stages.handler(step).(stage.RequestChecker)
		if !ok {
			continue
		}
		if err := checker.CheckRequest(req); err != nil {
			if !errors.Is(err, services.ErrValidation) {
				err = services.Wrap(services.ErrValidation, string(step), "check request", "", err)
			}
			return err
		}
	}
	return nil
}

// RunWorkflow creates a project for req and runs every stage. Stage failures
// are reported through the Result; the error is non-nil only when the
// request is invalid or the store fails.
func (m *Manager) RunWorkflow(ctx context.Context, req project.Request, progress ProgressFunc) (Result, error) {
	p, err := m.CreateProject(ctx, req)
	if err != nil {
		return Result{}, err
	}
	return m.RunProject(ctx, p.ID, progress)
}

// RunProject runs the stages of a stored project in order, starting with the
// first step whose output is missing. Terminal projects are returned as-is.
func (m *Manager) RunProject(ctx context.Context, id string, progress ProgressFunc) (Result, error) {
	p, ok, err := m.store.Get(ctx, id)
	if err != nil {
		return Result{}, fmt.Errorf("load project %s: %w", id, err)
	}
	if !ok {
		return Result{}, services.Wrap(services.ErrNotFound, "workflow", "run project", "unknown project "+id, nil)
	}
	if p.Status.IsTerminal() {
		return ResultFrom(p), nil
	}

	ctx = services.WithProjectID(ctx, id)
	logger := logging.WithContext(ctx, m.logger)
	start := time.Now()
	logger.Info("workflow started", logging.String(logging.FieldEventType, "workflow_start"))

	for _, step := range project.Steps() {
		if p.Status != project.StatusDraft && p.HasOutput(step) {
			continue
		}
		handler := m.stages.handler(step)
		if handler == nil {
			return Result{}, fmt.Errorf("%w: no handler for step %s", services.ErrConfiguration, step)
		}
		p, err = m.runStage(ctx, handler, id, progress)
		if err != nil {
			if stageexec.IsFailure(err) {
				logger.Info("workflow stopped",
					logging.String(logging.FieldEventType, "workflow_failed"),
					logging.String(logging.FieldStep, string(step)),
					logging.Duration("workflow_duration", time.Since(start)),
				)
				return ResultFrom(p), nil
			}
			return Result{ProjectID: id}, err
		}
	}

	logger.Info("workflow completed",
		logging.String(logging.FieldEventType, "workflow_complete"),
		logging.String("final_video_url", p.FinalVideoURL),
		logging.Duration("workflow_duration", time.Since(start)),
	)
	return ResultFrom(p), nil
}

// RunStep re-runs one stage of an existing project. Missing projects and
// unmet prerequisites are returned as errors before any provider call; a
// stage failure is recorded on the project and reported through the Result.
func (m *Manager) RunStep(ctx context.Context, id string, step project.Step) (Result, error) {
	handler := m.stages.handler(step)
	if handler == nil {
		return Result{}, fmt.Errorf("%w: no handler for step %q", services.ErrConfiguration, step)
	}
	p, ok, err := m.store.Get(ctx, id)
	if err != nil {
		return Result{}, fmt.Errorf("load project %s: %w", id, err)
	}
	if !ok {
		return Result{}, services.Wrap(services.ErrNotFound, string(step), "run step", "unknown project "+id, nil)
	}
	if err := stage.CheckPrerequisites(p, step); err != nil {
		return ResultFrom(p), err
	}
	p, err = m.runStage(ctx, handler, id, nil)
	if err != nil && !stageexec.IsFailure(err) {
		return Result{ProjectID: id}, err
	}
	return ResultFrom(p), nil
}

func (m *Manager) runStage(ctx context.Context, handler stage.Handler, id string, progress ProgressFunc) (*project.Project, error) {
	return stageexec.Run(ctx, stageexec.Options{
		Logger:    m.logger,
		Store:     m.store,
		Notifier:  m.notifier,
		Events:    m.events,
		Handler:   handler,
		ProjectID: id,
		Progress:  progress,
	})
}
