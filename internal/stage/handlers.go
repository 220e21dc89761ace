package stage

import (
	"context"

	"reelcast/internal/lipsync"
	"reelcast/internal/project"
	"reelcast/internal/scene"
	"reelcast/internal/script"
	"reelcast/internal/voice"
)

// Script adapts script.Stage.
type Script struct {
	stage *script.Stage
	style script.Style
}

// NewScript wraps s. Scripts use the monologue style unless WithStyle is set.
func NewScript(s *script.Stage) *Script { return &Script{stage: s, style: script.StyleMonologue} }

// WithStyle sets the delivery style used for every project.
func (h *Script) WithStyle(style script.Style) *Script {
	h.style = style
	return h
}

// CheckRequest rejects unknown tones before a project is stored.
func (h *Script) CheckRequest(req project.Request) error {
	_, err := script.ParseTone(req.Tone)
	return err
}

func (h *Script) Step() project.Step { return project.StepScript }

func (h *Script) Execute(ctx context.Context, p *project.Project) (project.Patch, error) {
	res, err := h.stage.Generate(ctx, script.Request{
		Topic:           p.Topic,
		DurationSeconds: p.Duration,
		Tone:            p.Tone,
		Style:           string(h.style),
	})
	if err != nil {
		return project.Patch{}, err
	}
	return project.Patch{
		Script:         project.Ptr(res.Script),
		ScriptDuration: project.Ptr(res.EstimatedDurationSeconds),
		WordCount:      project.Ptr(res.WordCount),
	}, nil
}

func (h *Script) HealthCheck(context.Context) Health {
	return healthOf("script", h.stage)
}

// Voice adapts voice.Stage.
type Voice struct {
	stage *voice.Stage
}

// NewVoice wraps s.
func NewVoice(s *voice.Stage) *Voice { return &Voice{stage: s} }

func (h *Voice) Step() project.Step { return project.StepVoice }

func (h *Voice) Execute(ctx context.Context, p *project.Project) (project.Patch, error) {
	res, err := h.stage.Generate(ctx, p.Script, p.VoiceID)
	if err != nil {
		return project.Patch{}, err
	}
	return project.Patch{
		VoiceID:       project.Ptr(res.VoiceID),
		AudioURL:      project.Ptr(res.AudioURL),
		AudioDuration: project.Ptr(res.DurationSeconds),
	}, nil
}

func (h *Voice) HealthCheck(context.Context) Health {
	return healthOf("voice", h.stage)
}

// Background adapts scene.Stage, deriving the prompt from the project.
type Background struct {
	stage   *scene.Stage
	catalog *scene.Catalog
}

// NewBackground wraps s. A nil catalog uses the built-in styles.
func NewBackground(s *scene.Stage, catalog *scene.Catalog) *Background {
	if catalog == nil {
		catalog = scene.NewCatalog()
	}
	return &Background{stage: s, catalog: catalog}
}

func (h *Background) Step() project.Step { return project.StepBackground }

// CheckRequest rejects unknown scene styles, and the custom style without a
// prompt, before a project is stored.
func (h *Background) CheckRequest(req project.Request) error {
	return h.catalog.Check(req.SceneStyle, req.CustomScenePrompt)
}

func (h *Background) Execute(ctx context.Context, p *project.Project) (project.Patch, error) {
	prompt, err := h.catalog.BuildPrompt(p.SceneStyle, p.Topic, p.ScenePrompt)
	if err != nil {
		return project.Patch{}, err
	}
	outcome := h.stage.Resolve(ctx, scene.Request{
		PhotoURL:        p.SourcePhotoURL,
		Prompt:          prompt,
		DurationSeconds: p.Duration,
	})
	res, err := outcome.Unwrap()
	if err != nil {
		return project.Patch{}, err
	}
	return project.Patch{
		BackgroundVideoURL: project.Ptr(res.VideoURL),
		SceneProvider:      project.Ptr(res.Provider),
		Degraded:           project.Ptr(outcome.Kind == scene.KindDegraded),
	}, nil
}

func (h *Background) HealthCheck(context.Context) Health {
	return healthOf("background", h.stage)
}

// LipSync adapts lipsync.Stage.
type LipSync struct {
	stage *lipsync.Stage
}

// NewLipSync wraps s.
func NewLipSync(s *lipsync.Stage) *LipSync { return &LipSync{stage: s} }

func (h *LipSync) Step() project.Step { return project.StepLipSync }

func (h *LipSync) CheckRequest(req project.Request) error {
	_, err := lipsync.ParseMode(req.SyncMode)
	return err
}

func (h *LipSync) Execute(ctx context.Context, p *project.Project) (project.Patch, error) {
	mode, err := lipsync.ParseMode(p.SyncMode)
	if err != nil {
		return project.Patch{}, err
	}
	res, err := h.stage.Sync(ctx, p.BackgroundVideoURL, p.AudioURL, mode)
	if err != nil {
		return project.Patch{}, err
	}
	patch := project.Patch{FinalVideoURL: project.Ptr(res.VideoURL)}
	if res.ThumbnailURL != "" {
		patch.ThumbnailURL = project.Ptr(res.ThumbnailURL)
	}
	return patch, nil
}

func (h *LipSync) HealthCheck(context.Context) Health {
	return healthOf("lipsync", h.stage)
}
