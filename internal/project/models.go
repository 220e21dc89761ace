package project

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle of a project.
type Status string

const (
	StatusDraft                Status = "draft"
	StatusGeneratingScript     Status = "generating_script"
	StatusScriptReady          Status = "script_ready"
	StatusGeneratingVoice      Status = "generating_voice"
	StatusVoiceReady           Status = "voice_ready"
	StatusGeneratingBackground Status = "generating_background"
	StatusBackgroundReady      Status = "background_ready"
	StatusLipSyncing           Status = "lip_syncing"
	StatusComplete             Status = "complete"
	StatusError                Status = "error"
)

var orderedStatuses = []Status{
	StatusDraft,
	StatusGeneratingScript,
	StatusScriptReady,
	StatusGeneratingVoice,
	StatusVoiceReady,
	StatusGeneratingBackground,
	StatusBackgroundReady,
	StatusLipSyncing,
	StatusComplete,
}

// Ordered returns the forward status sequence of a successful run. The
// error status is reachable from any non-terminal state and is not part of
// the sequence.
func Ordered() []Status {
	out := make([]Status, len(orderedStatuses))
	copy(out, orderedStatuses)
	return out
}

// IsTerminal reports whether no further stage runs automatically.
func (s Status) IsTerminal() bool {
	return s == StatusComplete || s == StatusError
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	if s == StatusError {
		return true
	}
	for _, candidate := range orderedStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Step identifies one pipeline stage.
type Step string

const (
	StepScript     Step = "script"
	StepVoice      Step = "voice"
	StepBackground Step = "background"
	StepLipSync    Step = "lipsync"
)

var orderedSteps = []Step{StepScript, StepVoice, StepBackground, StepLipSync}

// Steps returns the pipeline steps in execution order.
func Steps() []Step {
	out := make([]Step, len(orderedSteps))
	copy(out, orderedSteps)
	return out
}

// ParseStep converts user input into a Step.
func ParseStep(raw string) (Step, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "script":
		return StepScript, nil
	case "voice", "audio":
		return StepVoice, nil
	case "background", "scene":
		return StepBackground, nil
	case "lipsync", "lip_sync", "lip-sync":
		return StepLipSync, nil
	default:
		return "", fmt.Errorf("unknown step %q", raw)
	}
}

type stepStatuses struct {
	generating Status
	ready      Status
}

var statusesByStep = map[Step]stepStatuses{
	StepScript:     {StatusGeneratingScript, StatusScriptReady},
	StepVoice:      {StatusGeneratingVoice, StatusVoiceReady},
	StepBackground: {StatusGeneratingBackground, StatusBackgroundReady},
	StepLipSync:    {StatusLipSyncing, StatusComplete},
}

// Generating returns the in-progress status for step.
func Generating(step Step) Status {
	return statusesByStep[step].generating
}

// Ready returns the status recorded after step succeeds. The final step
// maps to StatusComplete.
func Ready(step Step) Status {
	return statusesByStep[step].ready
}

// Project is the mutable record tracking one end-to-end talking-video run.
type Project struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

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

	Error       string `json:"error,omitempty"`
	CurrentStep Step   `json:"currentStep,omitempty"`
}

// Clone returns an independent copy of p.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

// HasOutput reports whether step's output field is populated.
func (p *Project) HasOutput(step Step) bool {
	switch step {
	case StepScript:
		return strings.TrimSpace(p.Script) != ""
	case StepVoice:
		return p.AudioURL != ""
	case StepBackground:
		return p.BackgroundVideoURL != ""
	case StepLipSync:
		return p.FinalVideoURL != ""
	}
	return false
}

// Dependents returns the steps whose outputs are built from step's output and
// go stale when step runs again. The background clip only needs the photo, so
// a new script leaves it alone.
func Dependents(step Step) []Step {
	switch step {
	case StepScript:
		return []Step{StepVoice, StepLipSync}
	case StepVoice, StepBackground:
		return []Step{StepLipSync}
	}
	return nil
}

func (p *Project) clearOutput(step Step) {
	switch step {
	case StepScript:
		p.Script, p.ScriptDuration, p.WordCount = "", 0, 0
	case StepVoice:
		p.AudioURL, p.AudioDuration = "", 0
	case StepBackground:
		p.BackgroundVideoURL, p.SceneProvider, p.Degraded = "", "", false
	case StepLipSync:
		p.FinalVideoURL, p.ThumbnailURL = "", ""
	}
}

// Missing lists the prerequisite fields step needs that p does not have.
func (p *Project) Missing(step Step) []string {
	var missing []string
	switch step {
	case StepScript:
		if strings.TrimSpace(p.Topic) == "" {
			missing = append(missing, "topic")
		}
	case StepVoice:
		if strings.TrimSpace(p.Script) == "" {
			missing = append(missing, "script")
		}
	case StepBackground:
		if strings.TrimSpace(p.SourcePhotoURL) == "" {
			missing = append(missing, "sourcePhotoUrl")
		}
	case StepLipSync:
		if p.BackgroundVideoURL == "" {
			missing = append(missing, "backgroundVideoUrl")
		}
		if p.AudioURL == "" {
			missing = append(missing, "audioUrl")
		}
	}
	return missing
}
