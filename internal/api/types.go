package api

import "reelcast/internal/project"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Project describes a project in a transport-friendly format.
type Project struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Status      string `json:"status"`
	CurrentStep string `json:"currentStep,omitempty"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`

	Topic    string `json:"topic"`
	Tone     string `json:"tone,omitempty"`
	Duration int    `json:"duration,omitempty"`

	Script         string `json:"script,omitempty"`
	ScriptDuration int    `json:"scriptDuration,omitempty"`
	WordCount      int    `json:"wordCount,omitempty"`

	VoiceID       string `json:"voiceId,omitempty"`
	AudioURL      string `json:"audioUrl,omitempty"`
	AudioDuration int    `json:"audioDuration,omitempty"`

	SourcePhotoURL     string `json:"sourcePhotoUrl"`
	SceneStyle         string `json:"sceneStyle,omitempty"`
	ScenePrompt        string `json:"scenePrompt,omitempty"`
	BackgroundVideoURL string `json:"backgroundVideoUrl,omitempty"`
	SceneProvider      string `json:"sceneProvider,omitempty"`
	Degraded           bool   `json:"degraded,omitempty"`

	SyncMode      string `json:"syncMode,omitempty"`
	FinalVideoURL string `json:"finalVideoUrl,omitempty"`
	ThumbnailURL  string `json:"thumbnailUrl,omitempty"`

	Error string `json:"error,omitempty"`
}

// ProjectResponse wraps a single project. TaskID is set when a run was
// queued on the worker.
type ProjectResponse struct {
	Project Project `json:"project"`
	TaskID  string  `json:"taskId,omitempty"`
}

// ProjectListResponse wraps a collection of projects.
type ProjectListResponse struct {
	Projects []Project `json:"projects"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// StageHealth mirrors readiness reporting for workflow stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// HealthResponse reports overall and per-stage readiness.
type HealthResponse struct {
	Status string        `json:"status"`
	Stages []StageHealth `json:"stages"`
	Worker bool          `json:"worker"`
}

// SceneStyle describes one canned backdrop.
type SceneStyle struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Aliases     []string `json:"aliases,omitempty"`
	Description string   `json:"description,omitempty"`
}

// ScriptRequest is the body of POST /api/script.
type ScriptRequest struct {
	Topic    string `json:"topic"`
	Duration int    `json:"duration"`
	Tone     string `json:"tone"`
	Style    string `json:"style"`
}

// VoiceRequest is the body of voice rendering endpoints.
type VoiceRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voiceId"`
}

// ActionRequest is the body of POST /api/talking-video. Request fields are
// inlined so the payload matches the flat shape clients already send.
type ActionRequest struct {
	Action string `json:"action"`
	project.Request
	ProjectID string `json:"projectId,omitempty"`
	Step      string `json:"step,omitempty"`
	Style     string `json:"style,omitempty"`
	Text      string `json:"text,omitempty"`
}

// EnqueueResponse reports a run accepted for background execution.
type EnqueueResponse struct {
	ProjectID string `json:"projectId"`
	Status    string `json:"status"`
	TaskID    string `json:"taskId,omitempty"`
}

// EventMessage is one websocket frame.
type EventMessage struct {
	Seq       uint64   `json:"seq"`
	Time      string   `json:"ts"`
	ProjectID string   `json:"projectId"`
	Kind      string   `json:"kind"`
	Step      string   `json:"step,omitempty"`
	Phase     string   `json:"phase,omitempty"`
	Project   *Project `json:"project,omitempty"`
	Log       *LogLine `json:"log,omitempty"`
}

// LogLine is a project log record.
type LogLine struct {
	Time      string            `json:"ts"`
	Level     string            `json:"level"`
	Message   string            `json:"msg"`
	Component string            `json:"component,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}
