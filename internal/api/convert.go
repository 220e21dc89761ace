package api

import (
	"errors"
	"net/http"
	"time"

	"reelcast/internal/events"
	"reelcast/internal/project"
	"reelcast/internal/scene"
	"reelcast/internal/services"
	"reelcast/internal/stage"
)

// FromProject converts a stored project into its transport representation.
func FromProject(p *project.Project) Project {
	if p == nil {
		return Project{}
	}
	return Project{
		ID:                 p.ID,
		Title:              p.Title,
		Status:             string(p.Status),
		CurrentStep:        string(p.CurrentStep),
		CreatedAt:          formatTime(p.CreatedAt),
		UpdatedAt:          formatTime(p.UpdatedAt),
		Topic:              p.Topic,
		Tone:               p.Tone,
		Duration:           p.Duration,
		Script:             p.Script,
		ScriptDuration:     p.ScriptDuration,
		WordCount:          p.WordCount,
		VoiceID:            p.VoiceID,
		AudioURL:           p.AudioURL,
		AudioDuration:      p.AudioDuration,
		SourcePhotoURL:     p.SourcePhotoURL,
		SceneStyle:         p.SceneStyle,
		ScenePrompt:        p.ScenePrompt,
		BackgroundVideoURL: p.BackgroundVideoURL,
		SceneProvider:      p.SceneProvider,
		Degraded:           p.Degraded,
		SyncMode:           p.SyncMode,
		FinalVideoURL:      p.FinalVideoURL,
		ThumbnailURL:       p.ThumbnailURL,
		Error:              p.Error,
	}
}

// FromProjects converts a list, preserving order.
func FromProjects(projects []*project.Project) []Project {
	out := make([]Project, 0, len(projects))
	for _, p := range projects {
		out = append(out, FromProject(p))
	}
	return out
}

// FromStageHealth converts stage readiness reports.
func FromStageHealth(health []stage.Health) []StageHealth {
	out := make([]StageHealth, 0, len(health))
	for _, h := range health {
		out = append(out, StageHealth{Name: h.Name, Ready: h.Ready, Detail: h.Detail})
	}
	return out
}

// FromSceneStyles converts catalog entries.
func FromSceneStyles(styles []scene.Style) []SceneStyle {
	out := make([]SceneStyle, 0, len(styles))
	for _, s := range styles {
		out = append(out, SceneStyle{ID: s.ID, Label: s.Label, Aliases: s.Aliases, Description: s.Description})
	}
	return out
}

// FromEvent converts a hub event into a websocket frame.
func FromEvent(evt events.Event) EventMessage {
	msg := EventMessage{
		Seq:       evt.Seq,
		Time:      formatTime(evt.Time),
		ProjectID: evt.ProjectID,
		Kind:      string(evt.Kind),
		Step:      evt.Step,
		Phase:     evt.Phase,
	}
	if evt.Project != nil {
		dto := FromProject(evt.Project)
		msg.Project = &dto
	}
	if evt.Log != nil {
		msg.Log = &LogLine{
			Time:      formatTime(evt.Log.Time),
			Level:     evt.Log.Level,
			Message:   evt.Log.Message,
			Component: evt.Log.Component,
			Fields:    evt.Log.Fields,
		}
	}
	return msg
}

// StatusCode maps an error classification onto an HTTP status.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrPrerequisite):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConfiguration), errors.Is(err, services.ErrTransient):
		return http.StatusServiceUnavailable
	case errors.Is(err, services.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, services.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
