package project

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Request is the inbound talking-video request.
type Request struct {
	Topic             string `json:"topic"`
	SourcePhotoURL    string `json:"sourcePhotoUrl"`
	SceneStyle        string `json:"sceneStyle,omitempty"`
	CustomScenePrompt string `json:"customScenePrompt,omitempty"`
	VoiceID           string `json:"voiceId,omitempty"`
	Duration          int    `json:"duration,omitempty"`
	Tone              string `json:"tone,omitempty"`
	SyncMode          string `json:"syncMode,omitempty"`
}

// Defaults supplies values for omitted request fields.
type Defaults struct {
	Duration   int
	Tone       string
	SceneStyle string
	SyncMode   string
}

// WithDefaults returns a copy of r with empty optional fields filled in.
func (r Request) WithDefaults(d Defaults) Request {
	r.Topic = strings.TrimSpace(r.Topic)
	r.SourcePhotoURL = strings.TrimSpace(r.SourcePhotoURL)
	r.CustomScenePrompt = strings.TrimSpace(r.CustomScenePrompt)
	r.VoiceID = strings.TrimSpace(r.VoiceID)
	if r.Duration <= 0 {
		r.Duration = d.Duration
	}
	if strings.TrimSpace(r.Tone) == "" {
		r.Tone = d.Tone
	}
	if strings.TrimSpace(r.SyncMode) == "" {
		r.SyncMode = d.SyncMode
	}
	if strings.TrimSpace(r.SceneStyle) == "" {
		if r.CustomScenePrompt != "" {
			r.SceneStyle = "custom"
		} else {
			r.SceneStyle = d.SceneStyle
		}
	}
	return r
}

// Validate checks the required inputs.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Topic) == "" {
		return errors.New("topic is required")
	}
	photo := strings.TrimSpace(r.SourcePhotoURL)
	if photo == "" {
		return errors.New("sourcePhotoUrl is required")
	}
	parsed, err := url.Parse(photo)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("sourcePhotoUrl %q is not an http(s) URL", photo)
	}
	if r.Duration < 0 {
		return errors.New("duration must be positive")
	}
	return nil
}
