// Package voice renders scripts to speech and publishes the audio as a
// playable reference.
package voice

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"reelcast/internal/script"
	"reelcast/internal/services"
	"reelcast/internal/services/elevenlabs"
)

// Synthesizer is the text-to-speech provider contract.
type Synthesizer interface {
	Synthesize(ctx context.Context, voiceID, text string, settings elevenlabs.VoiceSettings) ([]byte, error)
	Stream(ctx context.Context, voiceID, text string, settings elevenlabs.VoiceSettings) (io.ReadCloser, error)
	ListVoices(ctx context.Context) ([]elevenlabs.Voice, error)
	GetVoice(ctx context.Context, voiceID string) (elevenlabs.Voice, error)
}

// Publisher turns rendered audio into a URL the lip-sync provider can read.
type Publisher interface {
	Publish(ctx context.Context, key string, audio []byte, contentType string) (string, error)
}

// DataURLPublisher embeds audio as a base64 data URL.
type DataURLPublisher struct{}

// Publish returns data:<contentType>;base64,<audio>.
func (DataURLPublisher) Publish(_ context.Context, _ string, audio []byte, contentType string) (string, error) {
	return DataURL(contentType, audio), nil
}

// DataURL encodes audio as a self-contained data reference.
func DataURL(contentType string, audio []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(audio)
}

// ContentType maps an ElevenLabs output format to a MIME type.
func ContentType(outputFormat string) string {
	switch {
	case strings.HasPrefix(outputFormat, "pcm_"):
		return "audio/pcm"
	case strings.HasPrefix(outputFormat, "ulaw_"):
		return "audio/basic"
	case strings.HasPrefix(outputFormat, "opus_"):
		return "audio/opus"
	default:
		return "audio/mpeg"
	}
}

// Result is rendered speech.
type Result struct {
	AudioURL        string `json:"audioUrl"`
	DurationSeconds int    `json:"duration"`
	VoiceID         string `json:"voiceId"`
	Bytes           int    `json:"bytes"`
}

// Options configures a Stage.
type Options struct {
	DefaultVoiceID string
	Settings       elevenlabs.VoiceSettings
	OutputFormat   string
	Publisher      Publisher
}

// Stage renders speech with one provider call per request.
type Stage struct {
	synth     Synthesizer
	opts      Options
	publisher Publisher
}

// NewStage returns a voice stage. A nil publisher falls back to data URLs.
func NewStage(synth Synthesizer, opts Options) *Stage {
	publisher := opts.Publisher
	if publisher == nil {
		publisher = DataURLPublisher{}
	}
	return &Stage{synth: synth, opts: opts, publisher: publisher}
}

// ResolveVoice picks the explicit voice id or the configured default.
func (s *Stage) ResolveVoice(voiceID string) (string, error) {
	if v := strings.TrimSpace(voiceID); v != "" {
		return v, nil
	}
	if v := strings.TrimSpace(s.opts.DefaultVoiceID); v != "" {
		return v, nil
	}
	return "", services.MissingCredential("elevenlabs", "ELEVENLABS_VOICE_ID")
}

// ready reports configuration problems before any network call.
func (s *Stage) ready(voiceID string) (string, error) {
	if err := s.checkProvider(); err != nil {
		return "", err
	}
	return s.ResolveVoice(voiceID)
}

func (s *Stage) checkProvider() error {
	if s == nil || s.synth == nil {
		return fmt.Errorf("%w: voice synthesizer not configured", services.ErrConfiguration)
	}
	if c, ok := s.synth.(interface{ Configured() bool }); ok && !c.Configured() {
		return services.MissingCredential("elevenlabs", "ELEVENLABS_API_KEY")
	}
	return nil
}

// Generate renders text and publishes it. Duration is estimated from the
// word count at script.WordsPerMinute; the audio itself is not measured.
func (s *Stage) Generate(ctx context.Context, text, voiceID string) (Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, fmt.Errorf("%w: text is required", services.ErrValidation)
	}
	resolved, err := s.ready(voiceID)
	if err != nil {
		return Result{}, err
	}

	audio, err := s.synth.Synthesize(ctx, resolved, text, s.opts.Settings)
	if err != nil {
		return Result{}, err
	}

	key, _ := services.ProjectIDFromContext(ctx)
	url, err := s.publisher.Publish(ctx, key, audio, ContentType(s.opts.OutputFormat))
	if err != nil {
		return Result{}, fmt.Errorf("publish audio: %w", err)
	}
	return Result{
		AudioURL:        url,
		DurationSeconds: script.EstimateDuration(script.CountWords(text)),
		VoiceID:         resolved,
		Bytes:           len(audio),
	}, nil
}

// Stream renders text and returns the live audio stream.
func (s *Stage) Stream(ctx context.Context, text, voiceID string) (io.ReadCloser, string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, "", fmt.Errorf("%w: text is required", services.ErrValidation)
	}
	resolved, err := s.ready(voiceID)
	if err != nil {
		return nil, "", err
	}
	body, err := s.synth.Stream(ctx, resolved, text, s.opts.Settings)
	if err != nil {
		return nil, "", err
	}
	return body, ContentType(s.opts.OutputFormat), nil
}

// ListVoices enumerates provider voices.
func (s *Stage) ListVoices(ctx context.Context) ([]elevenlabs.Voice, error) {
	if err := s.checkProvider(); err != nil {
		return nil, err
	}
	return s.synth.ListVoices(ctx)
}

// GetVoice fetches one provider voice.
func (s *Stage) GetVoice(ctx context.Context, voiceID string) (elevenlabs.Voice, error) {
	if err := s.checkProvider(); err != nil {
		return elevenlabs.Voice{}, err
	}
	return s.synth.GetVoice(ctx, voiceID)
}

// DefaultVoiceID returns the configured fallback voice.
func (s *Stage) DefaultVoiceID() string {
	return s.opts.DefaultVoiceID
}

// Ready reports provider configuration problems without a network call.
func (s *Stage) Ready() error {
	return s.checkProvider()
}
