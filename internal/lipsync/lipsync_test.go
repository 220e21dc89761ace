package lipsync

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
	"reelcast/internal/services/fal"
)

type fakeSync struct {
	path        string
	input       map[string]any
	status      string
	statusCalls atomic.Int32
}

func (f *fakeSync) server(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			f.path = r.URL.Path
			if err := json.NewDecoder(r.Body).Decode(&f.input); err != nil {
				t.Errorf("decode: %v", err)
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"request_id": "ls-1"})
		case strings.HasSuffix(r.URL.Path, "/status"):
			f.statusCalls.Add(1)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": f.status})
		default:
			_ = json.NewEncoder(w).Encode(map[string]any{
				"video":     map[string]any{"url": "https://cdn/final.mp4"},
				"thumbnail": map[string]any{"url": "https://cdn/thumb.jpg"},
			})
		}
	}))
}

func newStage(url string, maxAttempts int) *Stage {
	client := fal.NewClient(fal.Config{APIKey: "k", QueueURL: url})
	return NewStage(client, Options{
		AccurateModel: "fal-ai/sync-lipsync/v2",
		FastModel:     "veed/lipsync",
		Poll:          poll.Options{Sleep: poll.NoSleep, MaxAttempts: maxAttempts},
	}, nil)
}

func TestSyncAccurateDefault(t *testing.T) {
	fake := &fakeSync{status: "COMPLETED"}
	server := fake.server(t)
	defer server.Close()

	res, err := newStage(server.URL, 3).Sync(context.Background(), "https://v/bg.mp4", "data:audio/mpeg;base64,AA==", "")
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if res.VideoURL != "https://cdn/final.mp4" || res.ThumbnailURL != "https://cdn/thumb.jpg" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if fake.path != "/fal-ai/sync-lipsync/v2" {
		t.Fatalf("submitted to %q", fake.path)
	}
	if fake.input["sync_mode"] != "accurate" || fake.input["video_url"] != "https://v/bg.mp4" {
		t.Fatalf("unexpected input: %v", fake.input)
	}
}

func TestSyncFastUsesFastModel(t *testing.T) {
	fake := &fakeSync{status: "COMPLETED"}
	server := fake.server(t)
	defer server.Close()

	if _, err := newStage(server.URL, 3).Sync(context.Background(), "https://v/bg.mp4", "https://a/voice.mp3", ModeFast); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if fake.path != "/veed/lipsync" || fake.input["sync_mode"] != "fast" {
		t.Fatalf("path=%q input=%v", fake.path, fake.input)
	}
}

func TestSyncTimesOutAfterCeiling(t *testing.T) {
	fake := &fakeSync{status: "IN_PROGRESS"}
	server := fake.server(t)
	defer server.Close()

	_, err := newStage(server.URL, 4).Sync(context.Background(), "https://v/bg.mp4", "https://a/voice.mp3", ModeAccurate)
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if got := fake.statusCalls.Load(); got != 4 {
		t.Fatalf("status calls = %d, want 4", got)
	}
}

func TestSyncFailedJob(t *testing.T) {
	fake := &fakeSync{status: "FAILED"}
	server := fake.server(t)
	defer server.Close()

	_, err := newStage(server.URL, 4).Sync(context.Background(), "https://v/bg.mp4", "https://a/voice.mp3", ModeAccurate)
	if !errors.Is(err, services.ErrUpstream) || errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected upstream failure, got %v", err)
	}
}

func TestSyncRequiresCredentials(t *testing.T) {
	stage := NewStage(fal.NewClient(fal.Config{}), Options{AccurateModel: "m"}, nil)
	_, err := stage.Sync(context.Background(), "https://v/bg.mp4", "https://a/voice.mp3", ModeAccurate)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestParseMode(t *testing.T) {
	for raw, want := range map[string]Mode{"": ModeAccurate, "Accurate": ModeAccurate, " fast ": ModeFast} {
		got, err := ParseMode(raw)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := ParseMode("turbo"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
