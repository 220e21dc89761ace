package workflow

import (
	"context"

	"reelcast/internal/project"
	"reelcast/internal/stage"
)

// StageSet bundles the concrete stage handlers the manager orchestrates.
type StageSet struct {
	Script     stage.Handler
	Voice      stage.Handler
	Background stage.Handler
	LipSync    stage.Handler
}

func (s StageSet) handler(step project.Step) stage.Handler {
	switch step {
	case project.StepScript:
		return s.Script
	case project.StepVoice:
		return s.Voice
	case project.StepBackground:
		return s.Background
	case project.StepLipSync:
		return s.LipSync
	}
	return nil
}

// Health reports every stage's readiness in pipeline order.
func (m *Manager) Health(ctx context.Context) []stage.Health {
	out := make([]stage.Health, 0, 4)
	for _, step := range project.Steps() {
		h := m.stages.handler(step)
		if h == nil {
			out = append(out, stage.Unhealthy(string(step), "handler not configured"))
			continue
		}
		out = append(out, h.HealthCheck(ctx))
	}
	return out
}

// Result is the caller-facing outcome of a run.
type Result struct {
	ProjectID          string         `json:"projectId"`
	Status             project.Status `json:"status"`
	Script             string         `json:"script,omitempty"`
	AudioURL           string         `json:"audioUrl,omitempty"`
	BackgroundVideoURL string         `json:"backgroundVideoUrl,omitempty"`
	FinalVideoURL      string         `json:"finalVideoUrl,omitempty"`
	Error              string         `json:"error,omitempty"`
}

// ResultFrom summarises p.
func ResultFrom(p *project.Project) Result {
	if p == nil {
		return Result{}
	}
	return Result{
		ProjectID:          p.ID,
		Status:             p.Status,
		Script:             p.Script,
		AudioURL:           p.AudioURL,
		BackgroundVideoURL: p.BackgroundVideoURL,
		FinalVideoURL:      p.FinalVideoURL,
		Error:              p.Error,
	}
}
