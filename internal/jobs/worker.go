package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"reelcast/internal/config"
	"reelcast/internal/logging"
	"reelcast/internal/project"
	"reelcast/internal/services"
	"reelcast/internal/workflow"
)

// Runner executes workflow runs; *workflow.Manager satisfies it.
type Runner interface {
	RunProject(ctx context.Context, id string, progress workflow.ProgressFunc) (workflow.Result, error)
	RunStep(ctx context.Context, id string, step project.Step) (workflow.Result, error)
}

// Handler processes workflow tasks.
type Handler struct {
	runner Runner
	logger *slog.Logger
}

// NewHandler returns a task handler backed by runner.
func NewHandler(runner Runner, logger *slog.Logger) *Handler {
	return &Handler{runner: runner, logger: logging.NewComponentLogger(logger, "worker")}
}

// Register installs the handler on mux for every task type.
func (h *Handler) Register(mux *asynq.ServeMux) {
	mux.Handle(TypeRunProject, h)
	mux.Handle(TypeRunStep, h)
}

// ProcessTask implements asynq.Handler. Stage failures are already recorded
// on the project and are not retried; only store and transport problems are.
func (h *Handler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	payload, err := DecodePayload(t)
	if err != nil {
		return err
	}
	ctx = services.WithProjectID(ctx, payload.ProjectID)
	logger := logging.WithContext(ctx, h.logger)
	logger.Info("task started",
		logging.String(logging.FieldEventType, "task_start"),
		logging.String("task_type", t.Type()),
	)

	var result workflow.Result
	switch t.Type() {
	case TypeRunProject:
		result, err = h.runner.RunProject(ctx, payload.ProjectID, nil)
	case TypeRunStep:
		result, err = h.runner.RunStep(ctx, payload.ProjectID, payload.Step)
	default:
		return fmt.Errorf("unknown task type %q: %w", t.Type(), asynq.SkipRetry)
	}
	if err != nil {
		return h.classify(logger, t, err)
	}
	logger.Info("task finished",
		logging.String(logging.FieldEventType, "task_complete"),
		logging.String("task_type", t.Type()),
		logging.String("status", string(result.Status)),
	)
	return nil
}

func (h *Handler) classify(logger *slog.Logger, t *asynq.Task, err error) error {
	permanent := errors.Is(err, services.ErrNotFound) ||
		errors.Is(err, services.ErrValidation) ||
		errors.Is(err, services.ErrPrerequisite) ||
		errors.Is(err, services.ErrConfiguration)
	logging.WarnWithContext(logger, "task failed", "task_failed",
		logging.String("task_type", t.Type()),
		logging.String(logging.FieldErrorKind, services.Kind(err)),
		logging.Error(err),
	)
	if permanent {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	return err
}

// Server wraps an asynq server consuming workflow tasks.
type Server struct {
	srv *asynq.Server
	mux *asynq.ServeMux
}

// NewServer builds a worker for cfg. Concurrency comes from
// redis.worker_concurrency.
func NewServer(cfg config.Redis, handler *Handler, logger *slog.Logger) *Server {
	concurrency := cfg.WorkerConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	srv := asynq.NewServer(RedisOpt(cfg), asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{"default": 1},
		Logger:      newAsynqLogger(logging.NewComponentLogger(logger, "asynq")),
	})
	mux := asynq.NewServeMux()
	handler.Register(mux)
	return &Server{srv: srv, mux: mux}
}

// Start begins processing in background goroutines.
func (s *Server) Start() error {
	return s.srv.Start(s.mux)
}

// Shutdown waits for in-flight tasks and stops the worker.
func (s *Server) Shutdown() {
	s.srv.Shutdown()
}
