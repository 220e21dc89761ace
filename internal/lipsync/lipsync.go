// Package lipsync merges a background clip and a rendered voice track into
// the final talking video. There is no fallback provider.
package lipsync

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"reelcast/internal/logging"
	"reelcast/internal/poll"
	"reelcast/internal/services"
	"reelcast/internal/services/fal"
)

// Mode trades quality for latency.
type Mode string

const (
	ModeAccurate Mode = "accurate"
	ModeFast     Mode = "fast"
)

// ParseMode maps raw to a Mode; empty means accurate.
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ModeAccurate:
		return ModeAccurate, nil
	case ModeFast:
		return ModeFast, nil
	default:
		return "", fmt.Errorf("%w: unknown sync mode %q", services.ErrValidation, raw)
	}
}

// Result is the final artifact.
type Result struct {
	VideoURL     string `json:"videoUrl"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

// Options selects the model per mode and the poll cadence.
type Options struct {
	AccurateModel string
	FastModel     string
	Poll          poll.Options
}

// Stage runs lip sync on the Fal queue.
type Stage struct {
	client *fal.Client
	opts   Options
	logger *slog.Logger
}

// NewStage builds a lip-sync stage.
func NewStage(client *fal.Client, opts Options, logger *slog.Logger) *Stage {
	return &Stage{client: client, opts: opts, logger: logging.NewComponentLogger(logger, "lipsync")}
}

func (s *Stage) model(mode Mode) string {
	if mode == ModeFast && s.opts.FastModel != "" {
		return s.opts.FastModel
	}
	return s.opts.AccurateModel
}

type syncInput struct {
	VideoURL string `json:"video_url"`
	AudioURL string `json:"audio_url"`
	SyncMode string `json:"sync_mode"`
}

// Sync submits videoURL and audioURL and waits for the merged video.
func (s *Stage) Sync(ctx context.Context, videoURL, audioURL string, mode Mode) (Result, error) {
	videoURL = strings.TrimSpace(videoURL)
	audioURL = strings.TrimSpace(audioURL)
	if videoURL == "" || audioURL == "" {
		return Result{}, fmt.Errorf("%w: lip sync needs both a video and an audio url", services.ErrValidation)
	}
	if mode == "" {
		mode = ModeAccurate
	}
	if !s.client.Configured() {
		return Result{}, services.MissingCredential("fal", "FAL_KEY")
	}
	model := s.model(mode)
	logging.WithContext(ctx, s.logger).Debug("lip sync submitted",
		logging.String("model", model),
		logging.String("sync_mode", string(mode)),
	)
	out, err := fal.Run[fal.VideoOutput](ctx, s.client, model, syncInput{
		VideoURL: videoURL,
		AudioURL: audioURL,
		SyncMode: string(mode),
	}, s.opts.Poll)
	if err != nil {
		return Result{}, err
	}
	if out.Video.URL == "" {
		return Result{}, fmt.Errorf("%w: %s returned no video url", services.ErrUpstream, model)
	}
	res := Result{VideoURL: out.Video.URL}
	if out.Thumbnail != nil {
		res.ThumbnailURL = out.Thumbnail.URL
	}
	return res, nil
}

// Ready reports whether the Fal credentials are present.
func (s *Stage) Ready() error {
	if s == nil || !s.client.Configured() {
		return services.MissingCredential("fal", "FAL_KEY")
	}
	return nil
}
