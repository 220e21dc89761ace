// Package scene turns a still photo and a scene description into a short
// background video, preferring a primary provider and degrading to a
// secondary one when the primary fails.
package scene

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"reelcast/internal/logging"
	"reelcast/internal/services"
)

const DefaultAspectRatio = "16:9"

// Request describes one clip.
type Request struct {
	PhotoURL string
	Prompt   string
	// DurationSeconds is a hint; providers clip it to what they support.
	DurationSeconds int
	AspectRatio     string
}

// Result is a generated clip.
type Result struct {
	VideoURL        string `json:"videoUrl"`
	Provider        string `json:"provider"`
	DurationSeconds int    `json:"duration"`
}

// Provider generates a clip.
type Provider interface {
	Name() string
	// Available reports whether credentials are present.
	Available() bool
	Generate(ctx context.Context, req Request) (Result, error)
}

// ClipSeconds maps a duration hint to the provider-supported 5 or 10 seconds.
func ClipSeconds(hint int) int {
	if hint > 0 && hint <= 5 {
		return 5
	}
	return 10
}

// Options configures a Stage.
type Options struct {
	// PreferPrimary tries the primary provider first when it is available.
	PreferPrimary bool
	AspectRatio   string
}

// Stage chooses between providers.
type Stage struct {
	primary   Provider
	secondary Provider
	opts      Options
	logger    *slog.Logger
}

// NewStage builds a scene stage. primary may be nil.
func NewStage(primary, secondary Provider, opts Options, logger *slog.Logger) *Stage {
	if opts.AspectRatio == "" {
		opts.AspectRatio = DefaultAspectRatio
	}
	return &Stage{
		primary:   primary,
		secondary: secondary,
		opts:      opts,
		logger:    logging.NewComponentLogger(logger, "scene"),
	}
}

func (s *Stage) normalize(req Request) (Request, error) {
	req.PhotoURL = strings.TrimSpace(req.PhotoURL)
	req.Prompt = strings.TrimSpace(req.Prompt)
	if req.PhotoURL == "" {
		return req, fmt.Errorf("%w: photo url is required", services.ErrValidation)
	}
	if req.Prompt == "" {
		return req, fmt.Errorf("%w: scene prompt is required", services.ErrValidation)
	}
	if req.AspectRatio == "" {
		req.AspectRatio = s.opts.AspectRatio
	}
	return req, nil
}

// Resolve runs the fallback policy and reports how the request resolved.
func (s *Stage) Resolve(ctx context.Context, req Request) Outcome {
	req, err := s.normalize(req)
	if err != nil {
		return failed(err)
	}
	if s.secondary == nil {
		return failed(fmt.Errorf("%w: no secondary scene provider configured", services.ErrConfiguration))
	}
	logger := logging.WithContext(ctx, s.logger)

	if s.opts.PreferPrimary && s.primary != nil && s.primary.Available() {
		res, err := s.primary.Generate(ctx, req)
		if err == nil {
			return ok(res)
		}
		if ctx.Err() != nil {
			return failed(ctx.Err())
		}
		logging.WarnWithContext(logger, "primary scene provider failed; using secondary", "provider_fallback",
			logging.String(logging.FieldProvider, s.primary.Name()),
			logging.String("fallback_provider", s.secondary.Name()),
			logging.String(logging.FieldErrorKind, services.Kind(err)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check primary provider credentials and quota"),
			logging.String(logging.FieldImpact, "background video generated by the secondary provider"),
		)
		res, secondaryErr := s.secondary.Generate(ctx, req)
		if secondaryErr != nil {
			return failed(secondaryErr)
		}
		return degraded(res, err)
	}

	res, err := s.secondary.Generate(ctx, req)
	if err != nil {
		return failed(err)
	}
	return ok(res)
}

// Generate returns the clip or the last provider's error.
func (s *Stage) Generate(ctx context.Context, req Request) (Result, error) {
	return s.Resolve(ctx, req).Unwrap()
}

// Ready reports whether any provider can serve a request.
func (s *Stage) Ready() error {
	if s == nil {
		return fmt.Errorf("%w: scene stage not configured", services.ErrConfiguration)
	}
	if s.secondary != nil && s.secondary.Available() {
		return nil
	}
	if s.opts.PreferPrimary && s.primary != nil && s.primary.Available() {
		return nil
	}
	return services.MissingCredential("scene", "FAL_KEY or KLING_ACCESS_KEY/KLING_SECRET_KEY")
}
