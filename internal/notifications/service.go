package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelcast/internal/config"
	"reelcast/internal/services"
)

const userAgent = "reelcast/0.1"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyProjectCompleted(ctx context.Context, projectID, title, videoURL string) error
	NotifyProjectFailed(ctx context.Context, projectID, step string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
func NewService(cfg config.Notifications) Service {
	topic := strings.TrimSpace(cfg.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint:  topic,
		client:    &http.Client{Timeout: timeout},
		completed: cfg.Completed,
		failed:    cfg.Failed,
	}
}

// notice is one ntfy message. Fields map onto ntfy's publish headers.
type notice struct {
	Title    string
	Body     string
	Tags     []string
	Priority string
	Click    string
}

func (n notice) headers() http.Header {
	h := http.Header{}
	h.Set("User-Agent", userAgent)
	h.Set("Content-Type", "text/plain; charset=utf-8")
	for name, value := range map[string]string{
		"Title":    n.Title,
		"Tags":     strings.Join(n.Tags, ","),
		"Priority": n.Priority,
		"Click":    n.Click,
	} {
		if value != "" {
			h.Set(name, value)
		}
	}
	return h
}

type ntfyService struct {
	endpoint  string
	client    *http.Client
	completed bool
	failed    bool
}

func (n *ntfyService) NotifyProjectCompleted(ctx context.Context, projectID, title, videoURL string) error {
	if !n.completed {
		return nil
	}
	videoURL = strings.TrimSpace(videoURL)
	body := "🎬 Video ready: " + strings.TrimSpace(title)
	if videoURL != "" {
		body += "\n" + videoURL
	}
	return n.publish(ctx, notice{
		Title: "Reelcast - Complete (" + projectID + ")",
		Body:  body,
		Tags:  []string{"reelcast", "video", "completed"},
		Click: videoURL,
	})
}

func (n *ntfyService) NotifyProjectFailed(ctx context.Context, projectID, step string, err error) error {
	if !n.failed {
		return nil
	}
	reason := "unknown"
	if err != nil {
		reason = strings.TrimSpace(err.Error())
	}
	prefix := "Failed"
	if step = strings.TrimSpace(step); step != "" {
		prefix = step + " failed"
	}
	return n.publish(ctx, notice{
		Title:    "Reelcast - Error (" + projectID + ")",
		Body:     "❌ " + prefix + ": " + reason,
		Tags:     []string{"reelcast", "error", "alert"},
		Priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.publish(ctx, notice{
		Title:    "Reelcast - Test",
		Body:     "🧪 Notification system test",
		Tags:     []string{"reelcast", "test"},
		Priority: "low",
	})
}

func (n *ntfyService) publish(ctx context.Context, msg notice) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.Body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header = msg.headers()

	resp, err := n.client.Do(req)
	if err != nil {
		return services.TransportError("ntfy", "publish", err)
	}
	defer resp.Body.Close()
	if err := services.CheckResponse(resp, "ntfy", "publish"); err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyProjectCompleted(context.Context, string, string, string) error { return nil }
func (noopService) NotifyProjectFailed(context.Context, string, string, error) error     { return nil }
func (noopService) TestNotification(context.Context) error                               { return nil }
