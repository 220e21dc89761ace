package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"reelcast/internal/config"
	"reelcast/internal/events"
	"reelcast/internal/logging"
	"reelcast/internal/project"
	"reelcast/internal/scene"
	"reelcast/internal/script"
	"reelcast/internal/services/elevenlabs"
	"reelcast/internal/stage"
	"reelcast/internal/voice"
	"reelcast/internal/workflow"
)

// Workflow is the orchestration surface; *workflow.Manager satisfies it.
type Workflow interface {
	CreateProject(ctx context.Context, req project.Request) (*project.Project, error)
	RunWorkflow(ctx context.Context, req project.Request, progress workflow.ProgressFunc) (workflow.Result, error)
	RunProject(ctx context.Context, id string, progress workflow.ProgressFunc) (workflow.Result, error)
	RunStep(ctx context.Context, id string, step project.Step) (workflow.Result, error)
	Health(ctx context.Context) []stage.Health
}

// ScriptWriter generates standalone scripts.
type ScriptWriter interface {
	Generate(ctx context.Context, req script.Request) (script.Result, error)
}

// Voices renders speech and lists provider voices; *voice.Stage satisfies it.
type Voices interface {
	Generate(ctx context.Context, text, voiceID string) (voice.Result, error)
	Stream(ctx context.Context, text, voiceID string) (io.ReadCloser, string, error)
	ListVoices(ctx context.Context) ([]elevenlabs.Voice, error)
	GetVoice(ctx context.Context, voiceID string) (elevenlabs.Voice, error)
}

// Queue submits background runs; *jobs.Client satisfies it.
type Queue interface {
	EnqueueProject(ctx context.Context, projectID string) (string, error)
	EnqueueStep(ctx context.Context, projectID string, step project.Step) (string, error)
}

// Deps wires the server to the rest of the daemon. Queue may be nil, in
// which case background runs execute in-process.
type Deps struct {
	Config     config.API
	Workflow   Workflow
	Store      project.Store
	Scripts    ScriptWriter
	Voices     Voices
	Styles     *scene.Catalog
	Events     *events.Hub
	Queue      Queue
	Logger     *slog.Logger
	RunTimeout time.Duration
}

// Server hosts the gin engine.
type Server struct {
	deps   Deps
	logger *slog.Logger
	engine *gin.Engine

	baseMu  sync.Mutex
	baseCtx context.Context
	runs    sync.WaitGroup

	listener net.Listener
	server   *http.Server
}

// New validates deps and builds the router.
func New(deps Deps) (*Server, error) {
	if deps.Workflow == nil {
		return nil, errors.New("api: workflow is required")
	}
	if deps.Store == nil {
		return nil, errors.New("api: project store is required")
	}
	if deps.Styles == nil {
		deps.Styles = scene.NewCatalog()
	}
	s := &Server{
		deps:    deps,
		logger:  logging.NewComponentLogger(deps.Logger, "api"),
		baseCtx: context.Background(),
	}
	s.engine = s.routes()
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery(), requestID(), s.accessLog())
	if mw := corsMiddleware(s.deps.Config.AllowedOrigins); mw != nil {
		r.Use(mw)
	}

	r.GET("/api/health", s.handleHealth)

	authed := r.Group("/api", bearerAuth(s.deps.Config.Token))
	limit := newRateLimiter(s.deps.Config.RateLimitPerMinute, s.deps.Config.RateLimitBurst).middleware()

	authed.POST("/talking-video", limit, s.handleAction)

	projects := authed.Group("/projects")
	projects.POST("", limit, s.handleCreateProject)
	projects.GET("", s.handleListProjects)
	projects.GET("/:id", s.handleGetProject)
	projects.DELETE("/:id", s.handleDeleteProject)
	projects.POST("/:id/steps/:step", limit, s.handleRunStep)
	projects.GET("/:id/events", s.handleEvents)

	authed.POST("/script", limit, s.handleScript)
	authed.GET("/voices", s.handleListVoices)
	authed.GET("/voices/:id", s.handleGetVoice)
	authed.POST("/voice/stream", limit, s.handleVoiceStream)
	authed.GET("/scene-styles", s.handleSceneStyles)
	return r
}

// Start listens on api.bind and serves until ctx ends. Background runs
// started through the API are bound to ctx as well.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	bind := strings.TrimSpace(s.deps.Config.Bind)
	if bind == "" {
		return nil
	}
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener
	s.baseMu.Lock()
	s.baseCtx = ctx
	s.baseMu.Unlock()

	s.server = &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the listener down and waits for in-process runs to return.
func (s *Server) Stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	s.runs.Wait()
}

func (s *Server) runContext() (context.Context, context.CancelFunc) {
	s.baseMu.Lock()
	base := s.baseCtx
	s.baseMu.Unlock()
	if s.deps.RunTimeout > 0 {
		return context.WithTimeout(base, s.deps.RunTimeout)
	}
	return context.WithCancel(base)
}

// startRun enqueues a project run on the worker, or runs it in a goroutine
// when no queue is configured. It returns the task id, if any.
func (s *Server) startRun(ctx context.Context, projectID string) (string, error) {
	if s.deps.Queue != nil {
		return s.deps.Queue.EnqueueProject(ctx, projectID)
	}
	runCtx, cancel := s.runContext()
	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		defer cancel()
		if _, err := s.deps.Workflow.RunProject(runCtx, projectID, nil); err != nil {
			logging.WarnWithContext(s.logger, "background run failed", "background_run_failed",
				logging.String(logging.FieldProjectID, projectID),
				logging.Error(err),
			)
		}
	}()
	return "", nil
}
