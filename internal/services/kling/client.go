// Package kling calls the Kling image-to-video API directly. Requests are
// authenticated with short-lived HS256 tokens signed from the account's
// access and secret keys.
package kling

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"reelcast/internal/poll"
	"reelcast/internal/services"
)

const (
	providerName       = "kling"
	defaultBaseURL     = "https://api-singapore.klingai.com"
	defaultModel       = "kling-v2-1"
	defaultMode        = "pro"
	defaultHTTPTimeout = 60 * time.Second
	tokenLifetime      = 30 * time.Minute
	image2VideoPath    = "/v1/videos/image2video"
)

// Config captures the runtime settings required to talk to the API.
type Config struct {
	AccessKey string
	SecretKey string
	BaseURL   string
	Model     string
	Mode      string
}

// Client talks to Kling.
type Client struct {
	cfg        Config
	httpClient *http.Client
	now        func() time.Time
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithClock overrides the token timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient constructs a client.
func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg: Config{
			AccessKey: strings.TrimSpace(cfg.AccessKey),
			SecretKey: strings.TrimSpace(cfg.SecretKey),
			BaseURL:   strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Model:     strings.TrimSpace(cfg.Model),
			Mode:      strings.TrimSpace(cfg.Mode),
		},
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cfg.BaseURL == "" {
		c.cfg.BaseURL = defaultBaseURL
	}
	if c.cfg.Model == "" {
		c.cfg.Model = defaultModel
	}
	if c.cfg.Mode == "" {
		c.cfg.Mode = defaultMode
	}
	return c
}

// Configured reports whether both keys are present.
func (c *Client) Configured() bool {
	return c != nil && c.cfg.AccessKey != "" && c.cfg.SecretKey != ""
}

// Token signs a bearer token valid for thirty minutes.
func (c *Client) Token() (string, error) {
	if !c.Configured() {
		return "", services.MissingCredential(providerName, "KLING_ACCESS_KEY/KLING_SECRET_KEY")
	}
	now := c.now()
	claims := jwt.RegisteredClaims{
		Issuer:    c.cfg.AccessKey,
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
		NotBefore: jwt.NewNumericDate(now.Add(-5 * time.Second)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(c.cfg.SecretKey))
	if err != nil {
		return "", fmt.Errorf("kling: sign token: %w", err)
	}
	return signed, nil
}

// ImageToVideoRequest is the submission body.
type ImageToVideoRequest struct {
	ModelName      string `json:"model_name"`
	Image          string `json:"image"`
	Prompt         string `json:"prompt,omitempty"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
	Mode           string `json:"mode,omitempty"`
	Duration       string `json:"duration,omitempty"`
}

// Video is one generated clip.
type Video struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Duration string `json:"duration"`
}

type taskData struct {
	TaskID        string `json:"task_id"`
	TaskStatus    string `json:"task_status"`
	TaskStatusMsg string `json:"task_status_msg"`
	TaskResult    struct {
		Videos []Video `json:"videos"`
	} `json:"task_result"`
}

type envelope struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Data    taskData `json:"data"`
}

// ImageToVideo animates imageURL according to prompt and waits for the clip.
// durationSeconds is sent as-is and must be 5 or 10.
func (c *Client) ImageToVideo(ctx context.Context, imageURL, prompt string, durationSeconds int, opts poll.Options) (Video, error) {
	body := ImageToVideoRequest{
		ModelName: c.cfg.Model,
		Image:     imageURL,
		Prompt:    prompt,
		Mode:      c.cfg.Mode,
		Duration:  fmt.Sprintf("%d", durationSeconds),
	}
	var last taskData
	job := poll.Job[Video]{
		Name: "kling " + c.cfg.Model,
		Submit: func(ctx context.Context) (string, error) {
			data, err := c.call(ctx, http.MethodPost, image2VideoPath, body, "submit")
			return data.TaskID, err
		},
		Status: func(ctx context.Context, taskID string) (poll.Check, error) {
			data, err := c.call(ctx, http.MethodGet, image2VideoPath+"/"+url.PathEscape(taskID), nil, "status")
			if err != nil {
				return poll.Check{}, err
			}
			last = data
			check := poll.Check{Raw: data.TaskStatus, Message: data.TaskStatusMsg}
			switch data.TaskStatus {
			case "succeed":
				check.State = poll.StateCompleted
			case "failed":
				check.State = poll.StateFailed
			default:
				check.State = poll.StateInProgress
			}
			return check, nil
		},
		Result: func(ctx context.Context, taskID string) (Video, error) {
			if len(last.TaskResult.Videos) == 0 || last.TaskResult.Videos[0].URL == "" {
				return Video{}, fmt.Errorf("%w: kling task %s succeeded without a video", services.ErrUpstream, taskID)
			}
			return last.TaskResult.Videos[0], nil
		},
	}
	return poll.Run(ctx, job, opts)
}

func (c *Client) call(ctx context.Context, method, path string, payload any, operation string) (taskData, error) {
	token, err := c.Token()
	if err != nil {
		return taskData{}, err
	}
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return taskData{}, fmt.Errorf("kling %s: encode body: %w", operation, err)
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return taskData{}, fmt.Errorf("kling %s: new request: %w", operation, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return taskData{}, services.TransportError(providerName, operation, err)
	}
	defer resp.Body.Close()
	if err := services.CheckResponse(resp, providerName, operation); err != nil {
		return taskData{}, err
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return taskData{}, fmt.Errorf("%w: kling %s: decode response: %w", services.ErrUpstream, operation, err)
	}
	if env.Code != 0 {
		return taskData{}, &services.UpstreamError{
			Provider:   providerName,
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Body:       fmt.Sprintf("code %d: %s", env.Code, env.Message),
		}
	}
	return env.Data, nil
}
