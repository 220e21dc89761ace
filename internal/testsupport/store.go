package testsupport

import (
	"context"
	"testing"
	"time"

	"reelcast/internal/config"
	"reelcast/internal/project"
	"reelcast/internal/project/sqlstore"
)

// MustOpenStore opens the store selected by cfg for tests and registers
// cleanup. Only the memory and sqlite backends are supported.
func MustOpenStore(t testing.TB, cfg *config.Config) project.Store {
	t.Helper()

	var store project.Store
	switch cfg.Store.Backend {
	case config.StoreSQLite:
		if err := cfg.EnsureDirectories(); err != nil {
			t.Fatalf("ensure directories: %v", err)
		}
		s, err := sqlstore.Open(context.Background(), sqlstore.SQLite, cfg.StoreDSN())
		if err != nil {
			t.Fatalf("sqlstore.Open: %v", err)
		}
		store = s
	default:
		store = project.NewMemoryStore()
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// ValidRequest returns a request that passes validation.
func ValidRequest() project.Request {
	return project.Request{
		Topic:          "Why tide pools matter",
		SourcePhotoURL: "https://example.com/host.jpg",
	}
}

// NewProject creates a draft project in store from ValidRequest.
func NewProject(t testing.TB, store project.Store, id string) *project.Project {
	t.Helper()

	req := ValidRequest().WithDefaults(project.Defaults{Duration: 60, Tone: "casual", SceneStyle: "podcast_studio"})
	p := project.New(req, id, time.Now())
	if err := store.Create(context.Background(), p); err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return p
}
