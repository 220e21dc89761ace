package fal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"reelcast/internal/poll"
	"reelcast/internal/services"
)

type fakeQueue struct {
	statuses    []string
	statusCalls atomic.Int32
	submitBody  map[string]any
	failMessage string
}

func (f *fakeQueue) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Key secret" {
			t.Errorf("missing fal auth header: %q", r.Header.Get("Authorization"))
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/fal-ai/demo":
			if err := json.NewDecoder(r.Body).Decode(&f.submitBody); err != nil {
				t.Fatalf("decode submit: %v", err)
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"request_id": "req-42"})
		case r.Method == http.MethodGet && r.URL.Path == "/fal-ai/demo/requests/req-42/status":
			n := int(f.statusCalls.Add(1))
			status := "IN_PROGRESS"
			if n <= len(f.statuses) {
				status = f.statuses[n-1]
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"status": status, "error": f.failMessage})
		case r.Method == http.MethodGet && r.URL.Path == "/fal-ai/demo/requests/req-42":
			_ = json.NewEncoder(w).Encode(map[string]any{"video": map[string]any{"url": "https://cdn/out.mp4"}})
		default:
			http.NotFound(w, r)
		}
	})
}

func TestRunSubmitPollFetch(t *testing.T) {
	queue := &fakeQueue{statuses: []string{"IN_QUEUE", "IN_PROGRESS", "COMPLETED"}}
	server := httptest.NewServer(queue.handler(t))
	defer server.Close()

	client := NewClient(Config{APIKey: "secret", QueueURL: server.URL})
	out, err := Run[VideoOutput](context.Background(), client, "fal-ai/demo", map[string]string{"prompt": "p"}, poll.Options{Sleep: poll.NoSleep})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Video.URL != "https://cdn/out.mp4" {
		t.Fatalf("unexpected output %+v", out)
	}
	if queue.submitBody["prompt"] != "p" {
		t.Fatalf("unexpected submit body %v", queue.submitBody)
	}
	if queue.statusCalls.Load() != 3 {
		t.Fatalf("expected 3 status checks, got %d", queue.statusCalls.Load())
	}
}

func TestRunFailedJobCarriesProviderMessage(t *testing.T) {
	queue := &fakeQueue{statuses: []string{"FAILED"}, failMessage: "no face detected"}
	server := httptest.NewServer(queue.handler(t))
	defer server.Close()

	client := NewClient(Config{APIKey: "secret", QueueURL: server.URL})
	_, err := Run[VideoOutput](context.Background(), client, "fal-ai/demo", map[string]string{}, poll.Options{Sleep: poll.NoSleep})
	var failed *poll.JobFailedError
	if !errors.As(err, &failed) || !strings.Contains(err.Error(), "no face detected") {
		t.Fatalf("expected job failure with message, got %v", err)
	}
}

func TestRunTimesOutWhileInProgress(t *testing.T) {
	queue := &fakeQueue{}
	server := httptest.NewServer(queue.handler(t))
	defer server.Close()

	client := NewClient(Config{APIKey: "secret", QueueURL: server.URL})
	_, err := Run[VideoOutput](context.Background(), client, "fal-ai/demo", map[string]string{}, poll.Options{MaxAttempts: 4, Sleep: poll.NoSleep})
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if queue.statusCalls.Load() != 4 {
		t.Fatalf("expected exactly 4 status checks, got %d", queue.statusCalls.Load())
	}
}

func TestSubmitWithoutKeyIsConfigurationError(t *testing.T) {
	client := NewClient(Config{QueueURL: "http://127.0.0.1:1"})
	if _, err := client.Submit(context.Background(), "fal-ai/demo", nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestStatusPrefersReturnedURLs(t *testing.T) {
	var hits []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits = append(hits, r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "IN_QUEUE"})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "secret", QueueURL: "http://unused.invalid"})
	sub := Submission{Model: "fal-ai/app/sub", RequestID: "r", StatusURL: server.URL + "/fal-ai/app/requests/r/status"}
	check, err := client.Status(context.Background(), sub)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if check.State != poll.StateInProgress || check.Raw != "IN_QUEUE" {
		t.Fatalf("unexpected check %+v", check)
	}
	if len(hits) != 1 || hits[0] != "/fal-ai/app/requests/r/status" {
		t.Fatalf("unexpected paths %v", hits)
	}
}
