// Package retention periodically removes old projects from the store.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"reelcast/internal/config"
	"reelcast/internal/logging"
)

// Pruner deletes projects created before cutoff and reports how many went.
type Pruner interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// Sweeper runs the configured cron schedule.
type Sweeper struct {
	store    Pruner
	maxAge   time.Duration
	schedule string
	logger   *slog.Logger
	now      func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

// New returns a sweeper for cfg, or nil when retention is disabled
// (max_age_hours is zero).
func New(cfg config.Retention, store Pruner, logger *slog.Logger) *Sweeper {
	if cfg.MaxAgeHours <= 0 || store == nil {
		return nil
	}
	schedule := strings.TrimSpace(cfg.Schedule)
	if schedule == "" {
		schedule = "@hourly"
	}
	return &Sweeper{
		store:    store,
		maxAge:   time.Duration(cfg.MaxAgeHours) * time.Hour,
		schedule: schedule,
		logger:   logging.NewComponentLogger(logger, "retention"),
		now:      time.Now,
	}
}

// Start registers the sweep and starts the scheduler. The scheduler stops
// when ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(s.schedule, func() { s.Sweep(ctx) }); err != nil {
		return fmt.Errorf("retention schedule %q: %w", s.schedule, err)
	}
	s.mu.Lock()
	s.cron = c
	s.mu.Unlock()
	c.Start()
	s.logger.Info("retention scheduler started",
		logging.String("schedule", s.schedule),
		logging.Duration("max_age", s.maxAge),
	)
	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	if s == nil {
		return
	}
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}

// Sweep deletes projects older than the configured maximum age.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.maxAge)
	removed, err := s.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		logging.WarnWithContext(s.logger, "retention sweep failed", "retention_failed",
			logging.String(logging.FieldImpact, "old projects remain until the next sweep"),
			logging.Error(err),
		)
		return 0, err
	}
	if removed > 0 {
		s.logger.Info("retention sweep removed projects",
			logging.String(logging.FieldEventType, "retention_sweep"),
			logging.Int("removed", removed),
			logging.String("cutoff", cutoff.UTC().Format(time.RFC3339)),
		)
	}
	return removed, nil
}
