// Package script turns a topic into spoken-word text sized to a target
// duration.
package script

import (
	"context"
	"fmt"
	"strings"

	"reelcast/internal/services"
)

// WordsPerMinute is the speaking rate used for every duration estimate.
const WordsPerMinute = 150

// Tone selects the register of the script.
type Tone string

const (
	ToneProfessional Tone = "professional"
	ToneCasual       Tone = "casual"
	ToneEducational  Tone = "educational"
	ToneEntertaining Tone = "entertaining"
)

// Style selects the delivery format.
type Style string

const (
	StyleMonologue Style = "monologue"
	StyleInterview Style = "interview"
	StyleTutorial  Style = "tutorial"
	StyleStory     Style = "story"
)

// Tones lists every supported tone.
func Tones() []Tone {
	return []Tone{ToneProfessional, ToneCasual, ToneEducational, ToneEntertaining}
}

// Styles lists every supported style.
func Styles() []Style {
	return []Style{StyleMonologue, StyleInterview, StyleTutorial, StyleStory}
}

// ParseTone maps input to a Tone. Empty input yields ToneProfessional.
func ParseTone(raw string) (Tone, error) {
	value := Tone(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return ToneProfessional, nil
	}
	for _, tone := range Tones() {
		if tone == value {
			return tone, nil
		}
	}
	return "", fmt.Errorf("%w: unknown tone %q", services.ErrValidation, raw)
}

// ParseStyle maps input to a Style. Empty input yields StyleMonologue.
func ParseStyle(raw string) (Style, error) {
	value := Style(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return StyleMonologue, nil
	}
	for _, style := range Styles() {
		if style == value {
			return style, nil
		}
	}
	return "", fmt.Errorf("%w: unknown style %q", services.ErrValidation, raw)
}

// TargetWordCount is the number of words that fill seconds of speech.
func TargetWordCount(seconds int) int {
	if seconds <= 0 {
		return 0
	}
	return (seconds*WordsPerMinute + 59) / 60
}

// EstimateDuration is the whole number of seconds needed to speak words.
func EstimateDuration(words int) int {
	if words <= 0 {
		return 0
	}
	return (words*60 + WordsPerMinute - 1) / WordsPerMinute
}

// CountWords splits text on whitespace.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// Generator produces text from a prompt.
type Generator interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Request describes the script to write.
type Request struct {
	Topic           string
	DurationSeconds int
	Tone            string
	Style           string
}

// Result is a generated script.
type Result struct {
	Script                   string `json:"script"`
	EstimatedDurationSeconds int    `json:"estimatedDuration"`
	WordCount                int    `json:"wordCount"`
	TargetWordCount          int    `json:"targetWordCount"`
}

// Stage writes scripts with a single generator call per request.
type Stage struct {
	gen Generator
}

// NewStage returns a script stage backed by gen.
func NewStage(gen Generator) *Stage {
	return &Stage{gen: gen}
}

// Generate requests a script of the target length. Generator failures are
// returned unchanged; there is no retry.
func (s *Stage) Generate(ctx context.Context, req Request) (Result, error) {
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return Result{}, fmt.Errorf("%w: topic is required", services.ErrValidation)
	}
	if req.DurationSeconds <= 0 {
		return Result{}, fmt.Errorf("%w: duration must be positive, got %d", services.ErrValidation, req.DurationSeconds)
	}
	tone, err := ParseTone(req.Tone)
	if err != nil {
		return Result{}, err
	}
	style, err := ParseStyle(req.Style)
	if err != nil {
		return Result{}, err
	}
	if s == nil || s.gen == nil {
		return Result{}, fmt.Errorf("%w: script generator not configured", services.ErrConfiguration)
	}

	target := TargetWordCount(req.DurationSeconds)
	text, err := s.gen.Complete(ctx, systemPrompt, BuildPrompt(topic, target, req.DurationSeconds, tone, style))
	if err != nil {
		return Result{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, services.Wrap(services.ErrUpstream, "script", "generate", "text generator returned an empty script", nil)
	}
	words := CountWords(text)
	return Result{
		Script:                   text,
		EstimatedDurationSeconds: EstimateDuration(words),
		WordCount:                words,
		TargetWordCount:          target,
	}, nil
}

// Ready reports whether the generator has credentials. It makes no network call.
func (s *Stage) Ready() error {
	if s == nil || s.gen == nil {
		return fmt.Errorf("%w: script generator not configured", services.ErrConfiguration)
	}
	if c, ok := s.gen.(interface{ Configured() bool }); ok && !c.Configured() {
		return services.MissingCredential("anthropic", "ANTHROPIC_API_KEY")
	}
	return nil
}
