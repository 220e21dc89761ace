package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"reelcast/internal/config"
	"reelcast/internal/events"
	"reelcast/internal/lipsync"
	"reelcast/internal/logging"
	"reelcast/internal/notifications"
	"reelcast/internal/poll"
	"reelcast/internal/project"
	"reelcast/internal/scene"
	"reelcast/internal/script"
	"reelcast/internal/services/anthropic"
	"reelcast/internal/services/elevenlabs"
	"reelcast/internal/services/fal"
	"reelcast/internal/services/kling"
	"reelcast/internal/stage"
	"reelcast/internal/storage"
	"reelcast/internal/voice"
	"reelcast/internal/workflow"
)

// Stages holds the provider-backed stages built from config.
type Stages struct {
	Script  *script.Stage
	Voice   *voice.Stage
	Scene   *scene.Stage
	LipSync *lipsync.Stage
	Styles  *scene.Catalog
	// ScriptStyle is the delivery style from workflow.script_style.
	ScriptStyle script.Style
}

// Set adapts the stages into workflow handlers.
func (s Stages) Set() workflow.StageSet {
	return workflow.StageSet{
		Script:     stage.NewScript(s.Script).WithStyle(s.ScriptStyle),
		Voice:      stage.NewVoice(s.Voice),
		Background: stage.NewBackground(s.Scene, s.Styles),
		LipSync:    stage.NewLipSync(s.LipSync),
	}
}

// BuildStages constructs every stage from cfg. Missing credentials do not
// fail here; each stage reports them at run time and through health checks.
func BuildStages(cfg *config.Config, logger *slog.Logger) (Stages, error) {
	if cfg == nil {
		return Stages{}, fmt.Errorf("config is required")
	}
	styles, err := scene.LoadCatalog(cfg.Scene.StylesFile)
	if err != nil {
		return Stages{}, err
	}
	scriptStyle, err := script.ParseStyle(cfg.Workflow.ScriptStyle)
	if err != nil {
		return Stages{}, err
	}

	claude := anthropic.NewClient(anthropic.Config{
		APIKey:         cfg.Anthropic.APIKey,
		BaseURL:        cfg.Anthropic.BaseURL,
		Model:          cfg.Anthropic.Model,
		MaxTokens:      cfg.Anthropic.MaxTokens,
		TimeoutSeconds: cfg.Anthropic.TimeoutSeconds,
	})

	voiceStage, err := buildVoice(cfg, logger)
	if err != nil {
		return Stages{}, err
	}

	falClient := fal.NewClient(fal.Config{APIKey: cfg.Fal.APIKey, QueueURL: cfg.Fal.QueueURL})
	klingClient := kling.NewClient(kling.Config{
		AccessKey: cfg.Kling.AccessKey,
		SecretKey: cfg.Kling.SecretKey,
		BaseURL:   cfg.Kling.BaseURL,
		Model:     cfg.Kling.Model,
		Mode:      cfg.Kling.Mode,
	})
	scenePoll := pollOptions(cfg.Scene.PollIntervalSeconds, cfg.Scene.PollMaxAttempts)
	sceneStage := scene.NewStage(
		scene.NewKlingProvider(klingClient, scenePoll),
		scene.NewFalProvider(falClient, cfg.Fal.SceneModel, scenePoll),
		scene.Options{
			PreferPrimary: cfg.Scene.Provider != config.SceneProviderFal,
			AspectRatio:   cfg.Scene.AspectRatio,
		},
		logger,
	)

	lipStage := lipsync.NewStage(falClient, lipsync.Options{
		AccurateModel: cfg.LipSync.AccurateModel,
		FastModel:     cfg.LipSync.FastModel,
		Poll:          pollOptions(cfg.LipSync.PollIntervalSeconds, cfg.LipSync.PollMaxAttempts),
	}, logger)

	return Stages{
		Script:      script.NewStage(claude),
		Voice:       voiceStage,
		Scene:       sceneStage,
		LipSync:     lipStage,
		Styles:      styles,
		ScriptStyle: scriptStyle,
	}, nil
}

func buildVoice(cfg *config.Config, logger *slog.Logger) (*voice.Stage, error) {
	client := elevenlabs.NewClient(elevenlabs.Config{
		APIKey:         cfg.ElevenLabs.APIKey,
		BaseURL:        cfg.ElevenLabs.BaseURL,
		ModelID:        cfg.ElevenLabs.ModelID,
		OutputFormat:   cfg.ElevenLabs.OutputFormat,
		TimeoutSeconds: cfg.ElevenLabs.TimeoutSeconds,
	})
	opts := voice.Options{
		DefaultVoiceID: cfg.ElevenLabs.VoiceID,
		Settings: elevenlabs.VoiceSettings{
			Stability:       cfg.ElevenLabs.Stability,
			SimilarityBoost: cfg.ElevenLabs.SimilarityBoost,
			Style:           cfg.ElevenLabs.Style,
			UseSpeakerBoost: cfg.ElevenLabs.SpeakerBoost,
		},
		OutputFormat: client.OutputFormat(),
	}
	if cfg.Storage.Enabled {
		store, err := storage.New(cfg.Storage, logger)
		if err != nil {
			return nil, fmt.Errorf("init audio storage: %w", err)
		}
		opts.Publisher = store
	}
	return voice.NewStage(client, opts), nil
}

func pollOptions(intervalSeconds, maxAttempts int) poll.Options {
	return poll.Options{
		Interval:    time.Duration(intervalSeconds) * time.Second,
		MaxAttempts: maxAttempts,
	}
}

// Runtime is the assembled pipeline shared by the daemon and the CLI.
type Runtime struct {
	Config   *config.Config
	Logger   *slog.Logger
	Store    project.Store
	Stages   Stages
	Events   *events.Hub
	Notifier notifications.Service
	Manager  *workflow.Manager
}

// Build opens the store and wires the manager. The caller owns Close.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, hub *events.Hub) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	stages, err := BuildStages(cfg, logger)
	if err != nil {
		return nil, err
	}
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	notifier := notifications.NewService(cfg.Notifications)
	opts := []workflow.Option{
		workflow.WithLogger(logger),
		workflow.WithNotifier(notifier),
		workflow.WithDefaults(project.Defaults{
			Duration:   cfg.Workflow.DefaultDuration,
			Tone:       cfg.Workflow.DefaultTone,
			SceneStyle: cfg.Workflow.DefaultSceneStyle,
			SyncMode:   cfg.LipSync.Mode,
		}),
	}
	if hub != nil {
		opts = append(opts, workflow.WithEvents(hub))
	}

	return &Runtime{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Stages:   stages,
		Events:   hub,
		Notifier: notifier,
		Manager:  workflow.NewManager(store, stages.Set(), opts...),
	}, nil
}

// RunTimeout bounds a single background run; zero means no bound.
func (r *Runtime) RunTimeout() time.Duration {
	if r == nil || r.Config == nil {
		return 0
	}
	return time.Duration(r.Config.Workflow.RunTimeoutMinutes) * time.Minute
}

// Close releases the store.
func (r *Runtime) Close() error {
	if r == nil || r.Store == nil {
		return nil
	}
	return r.Store.Close()
}
