package scene

import (
	"context"
	"fmt"

	"reelcast/internal/poll"
	"reelcast/internal/services"
	"reelcast/internal/services/fal"
	"reelcast/internal/services/kling"
)

// KlingProvider is the primary provider, calling Kling directly.
type KlingProvider struct {
	client *kling.Client
	poll   poll.Options
}

// NewKlingProvider wraps client.
func NewKlingProvider(client *kling.Client, opts poll.Options) *KlingProvider {
	return &KlingProvider{client: client, poll: opts}
}

func (p *KlingProvider) Name() string { return "kling" }

func (p *KlingProvider) Available() bool { return p.client.Configured() }

func (p *KlingProvider) Generate(ctx context.Context, req Request) (Result, error) {
	seconds := ClipSeconds(req.DurationSeconds)
	video, err := p.client.ImageToVideo(ctx, req.PhotoURL, req.Prompt, seconds, p.poll)
	if err != nil {
		return Result{}, err
	}
	return Result{VideoURL: video.URL, Provider: p.Name(), DurationSeconds: seconds}, nil
}

// FalProvider is the secondary provider, using a Fal-hosted image-to-video model.
type FalProvider struct {
	client *fal.Client
	model  string
	poll   poll.Options
}

// NewFalProvider wraps client for model.
func NewFalProvider(client *fal.Client, model string, opts poll.Options) *FalProvider {
	return &FalProvider{client: client, model: model, poll: opts}
}

func (p *FalProvider) Name() string { return "fal" }

func (p *FalProvider) Available() bool { return p.client.Configured() }

type falSceneInput struct {
	Prompt      string `json:"prompt"`
	ImageURL    string `json:"image_url"`
	Duration    string `json:"duration"`
	AspectRatio string `json:"aspect_ratio,omitempty"`
}

func (p *FalProvider) Generate(ctx context.Context, req Request) (Result, error) {
	seconds := ClipSeconds(req.DurationSeconds)
	out, err := fal.Run[fal.VideoOutput](ctx, p.client, p.model, falSceneInput{
		Prompt:      req.Prompt,
		ImageURL:    req.PhotoURL,
		Duration:    fmt.Sprintf("%d", seconds),
		AspectRatio: req.AspectRatio,
	}, p.poll)
	if err != nil {
		return Result{}, err
	}
	if out.Video.URL == "" {
		return Result{}, fmt.Errorf("%w: fal %s returned no video url", services.ErrUpstream, p.model)
	}
	return Result{VideoURL: out.Video.URL, Provider: p.Name(), DurationSeconds: seconds}, nil
}
