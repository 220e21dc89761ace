package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"reelcast/internal/config"
	"reelcast/internal/notifications"
	"reelcast/internal/services"
)

type captured struct {
	calls    int
	title    string
	tags     string
	priority string
	click    string
	body     string
}

func captureServer(t *testing.T, c *captured) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		c.calls++
		c.title = r.Header.Get("Title")
		c.tags = r.Header.Get("Tags")
		c.priority = r.Header.Get("Priority")
		c.click = r.Header.Get("Click")
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		c.body = string(body)
		w.WriteHeader(http.StatusOK)
	}))
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	svc := notifications.NewService(config.Notifications{})
	if err := svc.NotifyProjectCompleted(context.Background(), "proj_1", "title", ""); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		send           func(notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "completed",
			send: func(s notifications.Service) error {
				return s.NotifyProjectCompleted(context.Background(), "proj_7", "Why testing matters", "https://cdn/final.mp4")
			},
			expectTitle:   "Reelcast - Complete (proj_7)",
			expectMessage: "🎬 Video ready: Why testing matters\nhttps://cdn/final.mp4",
			expectTags:    "reelcast,video,completed",
		},
		{
			name: "failed",
			send: func(s notifications.Service) error {
				return s.NotifyProjectFailed(context.Background(), "proj_7", "voice", errors.New("quota exceeded"))
			},
			expectTitle:    "Reelcast - Error (proj_7)",
			expectMessage:  "❌ voice failed: quota exceeded",
			expectTags:     "reelcast,error,alert",
			expectPriority: "high",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got captured
			server := captureServer(t, &got)
			defer server.Close()

			svc := notifications.NewService(config.Notifications{
				NtfyTopic:      server.URL,
				RequestTimeout: 5,
				Completed:      true,
				Failed:         true,
			})
			if err := tc.send(svc); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}
			if got.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, got.title)
			}
			if got.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, got.body)
			}
			if got.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, got.tags)
			}
			if got.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, got.priority)
			}
		})
	}
}

func TestNtfyServiceHonoursEventToggles(t *testing.T) {
	var got captured
	server := captureServer(t, &got)
	defer server.Close()

	svc := notifications.NewService(config.Notifications{NtfyTopic: server.URL, Failed: true})
	if err := svc.NotifyProjectCompleted(context.Background(), "proj_1", "t", ""); err != nil {
		t.Fatalf("completed: %v", err)
	}
	if got.calls != 0 {
		t.Fatalf("completed notification should be suppressed")
	}
	if err := svc.NotifyProjectFailed(context.Background(), "proj_1", "", nil); err != nil {
		t.Fatalf("failed: %v", err)
	}
	if got.calls != 1 || got.body != "❌ Failed: unknown" {
		t.Fatalf("calls=%d body=%q", got.calls, got.body)
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic gone", http.StatusGone)
	}))
	defer server.Close()

	svc := notifications.NewService(config.Notifications{NtfyTopic: server.URL})
	err := svc.TestNotification(context.Background())
	var upstream *services.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected upstream error for 410 response, got %v", err)
	}
	if upstream.StatusCode != http.StatusGone || upstream.Body != "topic gone" {
		t.Fatalf("unexpected upstream error: %+v", upstream)
	}
}

func TestNtfyServiceLinksFinishedVideo(t *testing.T) {
	var got captured
	server := captureServer(t, &got)
	defer server.Close()

	svc := notifications.NewService(config.Notifications{NtfyTopic: server.URL, Completed: true})
	if err := svc.NotifyProjectCompleted(context.Background(), "proj_2", "Launch", "https://cdn/final.mp4"); err != nil {
		t.Fatalf("completed: %v", err)
	}
	if got.click != "https://cdn/final.mp4" {
		t.Fatalf("expected click header to point at the video, got %q", got.click)
	}
	if got.priority != "" {
		t.Fatalf("expected default priority, got %q", got.priority)
	}
}
