// Package fal is a client for the Fal.ai queue API: submit a request for a
// model, poll its status, then fetch the result.
package fal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"reelcast/internal/poll"
	"reelcast/internal/services"
)

const (
	providerName       = "fal"
	defaultQueueURL    = "https://queue.fal.run"
	defaultHTTPTimeout = 60 * time.Second
)

// Config captures the runtime settings required to talk to the queue.
type Config struct {
	APIKey   string
	QueueURL string
}

// Client talks to the Fal queue.
type Client struct {
	cfg        Config
	httpClient *http.Client
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

// NewClient constructs a queue client.
func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg: Config{
			APIKey:   strings.TrimSpace(cfg.APIKey),
			QueueURL: strings.TrimRight(strings.TrimSpace(cfg.QueueURL), "/"),
		},
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cfg.QueueURL == "" {
		c.cfg.QueueURL = defaultQueueURL
	}
	return c
}

// Configured reports whether FAL_KEY is present.
func (c *Client) Configured() bool {
	return c != nil && c.cfg.APIKey != ""
}

// Submission identifies a queued request.
type Submission struct {
	Model       string `json:"-"`
	RequestID   string `json:"request_id"`
	StatusURL   string `json:"status_url"`
	ResponseURL string `json:"response_url"`
}

func (s Submission) statusURL(base string) string {
	if s.StatusURL != "" {
		return s.StatusURL
	}
	return fmt.Sprintf("%s/%s/requests/%s/status", base, s.Model, s.RequestID)
}

func (s Submission) responseURL(base string) string {
	if s.ResponseURL != "" {
		return s.ResponseURL
	}
	return fmt.Sprintf("%s/%s/requests/%s", base, s.Model, s.RequestID)
}

// Submit queues input for model.
func (c *Client) Submit(ctx context.Context, model string, input any) (Submission, error) {
	var sub Submission
	if !c.Configured() {
		return sub, services.MissingCredential(providerName, "FAL_KEY")
	}
	model = strings.Trim(strings.TrimSpace(model), "/")
	if model == "" {
		return sub, fmt.Errorf("%w: fal submit: model required", services.ErrConfiguration)
	}
	encoded, err := json.Marshal(input)
	if err != nil {
		return sub, fmt.Errorf("fal submit: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.QueueURL+"/"+model, bytes.NewReader(encoded))
	if err != nil {
		return sub, fmt.Errorf("fal submit: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if err := c.doJSON(req, "submit "+model, &sub); err != nil {
		return sub, err
	}
	sub.Model = model
	return sub, nil
}

type statusResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// Status reports the normalised state of a submission.
func (c *Client) Status(ctx context.Context, sub Submission) (poll.Check, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sub.statusURL(c.cfg.QueueURL), nil)
	if err != nil {
		return poll.Check{}, fmt.Errorf("fal status: new request: %w", err)
	}
	var payload statusResponse
	if err := c.doJSON(req, "status "+sub.Model, &payload); err != nil {
		return poll.Check{}, err
	}
	check := poll.Check{Raw: payload.Status, Message: payload.Error}
	switch strings.ToUpper(payload.Status) {
	case "COMPLETED":
		check.State = poll.StateCompleted
		if strings.TrimSpace(payload.Error) != "" {
			check.State = poll.StateFailed
		}
	case "FAILED", "ERROR", "CANCELLED":
		check.State = poll.StateFailed
	default:
		check.State = poll.StateInProgress
	}
	return check, nil
}

// Result decodes the finished response for sub into out.
func (c *Client) Result(ctx context.Context, sub Submission, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sub.responseURL(c.cfg.QueueURL), nil)
	if err != nil {
		return fmt.Errorf("fal result: new request: %w", err)
	}
	return c.doJSON(req, "result "+sub.Model, out)
}

func (c *Client) doJSON(req *http.Request, operation string, out any) error {
	req.Header.Set("Authorization", "Key "+c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.TransportError(providerName, operation, err)
	}
	defer resp.Body.Close()
	if err := services.CheckResponse(resp, providerName, operation); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: fal %s: decode response: %w", services.ErrUpstream, operation, err)
	}
	return nil
}

// Run submits input to model and polls until the result is available.
func Run[T any](ctx context.Context, c *Client, model string, input any, opts poll.Options) (T, error) {
	var sub Submission
	job := poll.Job[T]{
		Name: "fal " + model,
		Submit: func(ctx context.Context) (string, error) {
			var err error
			sub, err = c.Submit(ctx, model, input)
			return sub.RequestID, err
		},
		Status: func(ctx context.Context, _ string) (poll.Check, error) {
			return c.Status(ctx, sub)
		},
		Result: func(ctx context.Context, _ string) (T, error) {
			var out T
			err := c.Result(ctx, sub, &out)
			return out, err
		},
	}
	return poll.Run(ctx, job, opts)
}

// File is a media reference returned by Fal models.
type File struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type,omitempty"`
	FileName    string `json:"file_name,omitempty"`
	FileSize    int64  `json:"file_size,omitempty"`
}

// VideoOutput is the common result shape of video models.
type VideoOutput struct {
	Video     File  `json:"video"`
	Thumbnail *File `json:"thumbnail,omitempty"`
}
