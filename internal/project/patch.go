package project

import "time"

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Status *Status

	Script         *string
	ScriptDuration *int
	WordCount      *int

	VoiceID       *string
	AudioURL      *string
	AudioDuration *int

	ScenePrompt        *string
	BackgroundVideoURL *string
	SceneProvider      *string
	Degraded           *bool

	FinalVideoURL *string
	ThumbnailURL  *string

	Error       *string
	CurrentStep *Step

	// ClearStep removes CurrentStep.
	ClearStep bool
	// ClearError removes Error.
	ClearError bool
	// Reset clears the outputs of these steps after the other fields apply.
	Reset []Step
}

// Apply merges the patch into p and stamps UpdatedAt. The stamp always moves
// forward so subscribers can order snapshots by it.
func (pt Patch) Apply(p *Project, now time.Time) {
	if pt.Status != nil {
		p.Status = *pt.Status
	}
	setString(&p.Script, pt.Script)
	setInt(&p.ScriptDuration, pt.ScriptDuration)
	setInt(&p.WordCount, pt.WordCount)
	setString(&p.VoiceID, pt.VoiceID)
	setString(&p.AudioURL, pt.AudioURL)
	setInt(&p.AudioDuration, pt.AudioDuration)
	setString(&p.ScenePrompt, pt.ScenePrompt)
	setString(&p.BackgroundVideoURL, pt.BackgroundVideoURL)
	setString(&p.SceneProvider, pt.SceneProvider)
	if pt.Degraded != nil {
		p.Degraded = *pt.Degraded
	}
	setString(&p.FinalVideoURL, pt.FinalVideoURL)
	setString(&p.ThumbnailURL, pt.ThumbnailURL)
	setString(&p.Error, pt.Error)
	if pt.CurrentStep != nil {
		p.CurrentStep = *pt.CurrentStep
	}
	if pt.ClearStep {
		p.CurrentStep = ""
	}
	if pt.ClearError {
		p.Error = ""
	}
	for _, step := range pt.Reset {
		p.clearOutput(step)
	}
	stamp := now.UTC()
	if !stamp.After(p.UpdatedAt) {
		stamp = p.UpdatedAt.Add(time.Microsecond)
	}
	p.UpdatedAt = stamp
}

// Merge overlays other onto pt. Fields set in other win.
func (pt Patch) Merge(other Patch) Patch {
	out := pt
	if other.Status != nil {
		out.Status = other.Status
	}
	pick(&out.Script, other.Script)
	pick(&out.ScriptDuration, other.ScriptDuration)
	pick(&out.WordCount, other.WordCount)
	pick(&out.VoiceID, other.VoiceID)
	pick(&out.AudioURL, other.AudioURL)
	pick(&out.AudioDuration, other.AudioDuration)
	pick(&out.ScenePrompt, other.ScenePrompt)
	pick(&out.BackgroundVideoURL, other.BackgroundVideoURL)
	pick(&out.SceneProvider, other.SceneProvider)
	pick(&out.Degraded, other.Degraded)
	pick(&out.FinalVideoURL, other.FinalVideoURL)
	pick(&out.ThumbnailURL, other.ThumbnailURL)
	pick(&out.Error, other.Error)
	pick(&out.CurrentStep, other.CurrentStep)
	out.ClearStep = out.ClearStep || other.ClearStep
	out.ClearError = out.ClearError || other.ClearError
	out.Reset = append(append([]Step(nil), pt.Reset...), other.Reset...)
	return out
}

// Ptr returns a pointer to v. It keeps patch literals short.
func Ptr[T any](v T) *T {
	return &v
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func pick[T any](dst **T, src *T) {
	if src != nil {
		*dst = src
	}
}
