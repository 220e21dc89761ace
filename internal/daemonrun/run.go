// Package daemonrun assembles the reelcast daemon: store, stages, workflow
// manager, job worker, retention sweeper and HTTP API.
package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/gofrs/flock"

	"reelcast/internal/api"
	"reelcast/internal/config"
	"reelcast/internal/events"
	"reelcast/internal/jobs"
	"reelcast/internal/logging"
	"reelcast/internal/project/redisstore"
	"reelcast/internal/retention"
)

// ErrAlreadyRunning is returned when another daemon holds the lock.
var ErrAlreadyRunning = errors.New("reelcast daemon already running")

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	// Bind overrides api.bind when set.
	Bind string
}

const eventBacklog = 4096

// Run starts the daemon and blocks until cmdCtx ends or a termination
// signal arrives.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	hub := events.NewHub(eventBacklog)
	logger, err := newLogger(cfg, opts, hub)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire daemon lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("%w (lock %s)", ErrAlreadyRunning, cfg.LockPath())
	}
	defer func() { _ = lock.Unlock() }()

	pidPath := filepath.Join(cfg.Paths.LogDir, "reelcastd.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	rt, err := Build(signalCtx, cfg, logger, hub)
	if err != nil {
		logger.Error("open runtime", logging.Error(err))
		return err
	}
	defer rt.Close()
	logConfigSnapshot(logger, cfg)

	if rs, ok := rt.Store.(*redisstore.Store); ok {
		go func() {
			if err := events.Relay(signalCtx, rs.Client(), hub, logger); err != nil {
				logging.WarnWithContext(logger, "event relay stopped", "event_relay_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "websocket clients miss updates from other workers"),
				)
			}
		}()
	}

	var queue api.Queue
	if cfg.Redis.WorkerEnabled {
		client := jobs.NewClient(cfg.Redis, rt.RunTimeout(), logger)
		defer client.Close()
		queue = client

		worker := jobs.NewServer(cfg.Redis, jobs.NewHandler(rt.Manager, logger), logger)
		if err := worker.Start(); err != nil {
			return fmt.Errorf("start job worker: %w", err)
		}
		defer worker.Shutdown()
	}

	sweeper := retention.New(cfg.Retention, rt.Store, logger)
	if err := sweeper.Start(signalCtx); err != nil {
		return fmt.Errorf("start retention sweeper: %w", err)
	}
	defer sweeper.Stop()

	apiCfg := cfg.API
	if strings.TrimSpace(opts.Bind) != "" {
		apiCfg.Bind = opts.Bind
	}
	server, err := api.New(api.Deps{
		Config:     apiCfg,
		Workflow:   rt.Manager,
		Store:      rt.Store,
		Scripts:    rt.Stages.Script,
		Voices:     rt.Stages.Voice,
		Styles:     rt.Stages.Styles,
		Events:     hub,
		Queue:      queue,
		Logger:     logger,
		RunTimeout: rt.RunTimeout(),
	})
	if err != nil {
		return fmt.Errorf("create api server: %w", err)
	}
	if err := server.Start(signalCtx); err != nil {
		return err
	}
	defer server.Stop()

	logger.Info("reelcast daemon started",
		logging.String(logging.FieldEventType, "daemon_start"),
		logging.String("bind", apiCfg.Bind),
		logging.String("store", cfg.Store.Backend),
		logging.Bool("worker", cfg.Redis.WorkerEnabled),
	)
	<-signalCtx.Done()
	logger.Info("reelcast daemon shutting down", logging.String(logging.FieldEventType, "daemon_stop"))
	return nil
}

func newLogger(cfg *config.Config, opts Options, hub *events.Hub) (*slog.Logger, error) {
	level := cfg.Logging.Level
	if strings.TrimSpace(opts.LogLevel) != "" {
		level = opts.LogLevel
	}
	outputs := []string{"stdout"}
	if dir := strings.TrimSpace(cfg.Paths.LogDir); dir != "" {
		outputs = append(outputs, filepath.Join(dir, "reelcastd.log"))
	}
	base, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: outputs,
		Development: opts.Development,
	})
	if err != nil {
		return nil, err
	}
	return logging.Tee(base, logging.NewSinkHandler(hub, slog.LevelInfo)), nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logConfigSnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Info("provider snapshot",
		logging.String(logging.FieldEventType, "provider_snapshot"),
		logging.Bool("anthropic_key_present", strings.TrimSpace(cfg.Anthropic.APIKey) != ""),
		logging.Bool("elevenlabs_key_present", strings.TrimSpace(cfg.ElevenLabs.APIKey) != ""),
		logging.Bool("elevenlabs_voice_present", strings.TrimSpace(cfg.ElevenLabs.VoiceID) != ""),
		logging.Bool("kling_keys_present", strings.TrimSpace(cfg.Kling.AccessKey) != "" && strings.TrimSpace(cfg.Kling.SecretKey) != ""),
		logging.Bool("fal_key_present", strings.TrimSpace(cfg.Fal.APIKey) != ""),
		logging.String("scene_provider", cfg.Scene.Provider),
		logging.String("lipsync_mode", cfg.LipSync.Mode),
		logging.Bool("storage_enabled", cfg.Storage.Enabled),
	)
}
