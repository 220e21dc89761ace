package events

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"reelcast/internal/logging"
	"reelcast/internal/project"
	"reelcast/internal/project/redisstore"
)

func TestHubFetchFiltersByProject(t *testing.T) {
	hub := NewHub(16)
	hub.Progress("proj_1", project.StepScript, "generating")
	hub.Progress("proj_2", project.StepScript, "generating")
	hub.Progress("proj_1", project.StepScript, "complete")

	events, cursor, err := hub.Fetch(context.Background(), "proj_1", 0, 10, false)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(events) != 2 || events[1].Phase != "complete" {
		t.Fatalf("unexpected events: %+v", events)
	}
	if cursor != 3 {
		t.Fatalf("cursor = %d, want 3", cursor)
	}
}

func TestHubFetchWaitsForPublish(t *testing.T) {
	hub := NewHub(16)
	hub.Progress("proj_2", project.StepVoice, "generating")

	done := make(chan []Event, 1)
	go func() {
		events, _, _ := hub.Fetch(context.Background(), "proj_1", 0, 10, true)
		done <- events
	}()

	time.Sleep(20 * time.Millisecond)
	hub.Progress("proj_1", project.StepVoice, "generating")

	select {
	case events := <-done:
		if len(events) != 1 || events[0].ProjectID != "proj_1" {
			t.Fatalf("unexpected events: %+v", events)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Fetch did not wake up")
	}
}

func TestHubFetchHonoursCancellation(t *testing.T) {
	hub := NewHub(4)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, _, err := hub.Fetch(ctx, "proj_1", 0, 10, true)
	if err == nil {
		t.Fatal("expected context error")
	}
}

func TestHubDropsStaleStatus(t *testing.T) {
	hub := NewHub(8)
	now := time.Now()
	newer := &project.Project{ID: "proj_1", Status: project.StatusVoiceReady, UpdatedAt: now}
	older := &project.Project{ID: "proj_1", Status: project.StatusScriptReady, UpdatedAt: now.Add(-time.Second)}
	hub.Status(newer)
	hub.Status(older)
	hub.Status(newer)

	events := hub.Tail("proj_1", 10)
	if len(events) != 1 || events[0].Project.Status != project.StatusVoiceReady {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestHubBufferIsBounded(t *testing.T) {
	hub := NewHub(2)
	for i := 0; i < 5; i++ {
		hub.Progress("proj_1", project.StepScript, "generating")
	}
	events := hub.Tail("", 10)
	if len(events) != 2 || events[0].Seq != 4 || events[1].Seq != 5 {
		t.Fatalf("unexpected tail: %+v", events)
	}
}

func TestHubReceivesLogLines(t *testing.T) {
	hub := NewHub(8)
	logger := logging.Tee(nil, logging.NewSinkHandler(hub, -4))
	logger.Info("stage started", logging.String(logging.FieldProjectID, "proj_5"), logging.String(logging.FieldStep, "voice"))

	events := hub.Tail("proj_5", 10)
	if len(events) != 1 || events[0].Kind != KindLog || events[0].Log.Message != "stage started" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestRelayRepublishesRedisUpdates(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := redisstore.New(client)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := &project.Project{ID: "proj_8", Status: project.StatusDraft, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	if err := store.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}

	hub := NewHub(8)
	errs := make(chan error, 1)
	go func() { errs <- Relay(ctx, client, hub, nil) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, _, err := store.Update(ctx, "proj_8", project.Patch{Status: project.Ptr(project.StatusGeneratingScript)}); err != nil {
			t.Fatalf("Update: %v", err)
		}
		events, _, _ := hub.Fetch(ctx, "proj_8", 0, 10, false)
		if len(events) > 0 {
			if events[0].Project.Status != project.StatusGeneratingScript {
				t.Fatalf("unexpected status: %s", events[0].Project.Status)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("relay never delivered an update")
		}
		time.Sleep(20 * time.Millisecond)
	}
	cancel()
	if err := <-errs; err != nil {
		t.Fatalf("Relay: %v", err)
	}
}
