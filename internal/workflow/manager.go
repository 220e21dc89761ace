package workflow

import (
	"log/slog"
	"time"

	"reelcast/internal/logging"
	"reelcast/internal/notifications"
	"reelcast/internal/project"
	"reelcast/internal/stageexec"
)

// Manager coordinates project runs using registered stage handlers.
type Manager struct {
	store    project.Store
	stages   StageSet
	logger   *slog.Logger
	notifier notifications.Service
	events   stageexec.Publisher
	ids      *project.IDGenerator
	defaults project.Defaults
	now      func() time.Time
}

// Option configures optional Manager behavior.
type Option func(*Manager)

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithNotifier sets the completion and failure notifier.
func WithNotifier(n notifications.Service) Option {
	return func(m *Manager) { m.notifier = n }
}

// WithEvents publishes status and progress to pub.
func WithEvents(pub stageexec.Publisher) Option {
	return func(m *Manager) { m.events = pub }
}

// WithIDGenerator replaces the project id source.
func WithIDGenerator(ids *project.IDGenerator) Option {
	return func(m *Manager) { m.ids = ids }
}

// WithDefaults sets the values used for omitted request fields.
func WithDefaults(d project.Defaults) Option {
	return func(m *Manager) { m.defaults = d }
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// DefaultRequestDefaults mirrors the configuration defaults.
var DefaultRequestDefaults = project.Defaults{Duration: 90, Tone: "professional", SceneStyle: "podcast_studio"}

// NewManager constructs a workflow manager.
func NewManager(store project.Store, stages StageSet, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		stages:   stages,
		defaults: DefaultRequestDefaults,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.ids == nil {
		m.ids = project.NewIDGeneratorWithClock(m.now)
	}
	m.logger = logging.NewComponentLogger(m.logger, "workflow")
	return m
}

// Store exposes the project store.
func (m *Manager) Store() project.Store {
	return m.store
}
