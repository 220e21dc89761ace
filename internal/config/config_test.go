package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelcast/internal/config"
)

func TestLoadDefaultsExpandPathsWithoutFile(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	want := filepath.Join(tempHome, ".local", "share", "reelcast")
	if cfg.Paths.DataDir != want {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, want)
	}
	if cfg.Store.Backend != config.StoreSQLite {
		t.Fatalf("expected sqlite default backend, got %q", cfg.Store.Backend)
	}
	if cfg.StoreDSN() != filepath.Join(want, "projects.db") {
		t.Fatalf("unexpected sqlite dsn %q", cfg.StoreDSN())
	}
	if cfg.Scene.PollIntervalSeconds != 5 || cfg.Scene.PollMaxAttempts != 120 {
		t.Fatalf("unexpected poll defaults: %+v", cfg.Scene)
	}
	if cfg.Workflow.DefaultDuration != 90 {
		t.Fatalf("expected default duration 90, got %d", cfg.Workflow.DefaultDuration)
	}
	if !cfg.ElevenLabs.SpeakerBoost {
		t.Fatal("expected speaker boost enabled by default")
	}
}

func TestLoadDoesNotRequireProviderCredentials(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{"ANTHROPIC_API_KEY", "ELEVENLABS_API_KEY", "FAL_KEY", "KLING_ACCESS_KEY"} {
		t.Setenv(key, "")
	}
	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error without credentials: %v", err)
	}
	if cfg.Anthropic.APIKey != "" || cfg.Fal.APIKey != "" {
		t.Fatalf("expected empty credentials, got %+v %+v", cfg.Anthropic, cfg.Fal)
	}
}

func TestEnvironmentOverridesFileValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, "reelcast.toml")
	content := `
[elevenlabs]
voice_id = "file-voice"
api_key = "file-key"

[scene]
provider = "fal"

[store]
backend = "memory"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("ELEVENLABS_VOICE_ID", "env-voice")
	t.Setenv("FAL_KEY", "fal-secret")

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected file to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.ElevenLabs.VoiceID != "env-voice" {
		t.Fatalf("expected env voice override, got %q", cfg.ElevenLabs.VoiceID)
	}
	if cfg.ElevenLabs.APIKey != "file-key" {
		t.Fatalf("expected file api key retained, got %q", cfg.ElevenLabs.APIKey)
	}
	if cfg.Fal.APIKey != "fal-secret" {
		t.Fatalf("expected FAL_KEY from env, got %q", cfg.Fal.APIKey)
	}
	if cfg.Scene.Provider != config.SceneProviderFal {
		t.Fatalf("expected fal provider preference, got %q", cfg.Scene.Provider)
	}
	if cfg.Store.Backend != config.StoreMemory {
		t.Fatalf("expected memory backend, got %q", cfg.Store.Backend)
	}
}

func TestValidateRejectsUnknownValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"backend", func(c *config.Config) { c.Store.Backend = "mongo" }, "store.backend"},
		{"postgres dsn", func(c *config.Config) { c.Store.Backend = config.StorePostgres }, "store.dsn"},
		{"scene provider", func(c *config.Config) { c.Scene.Provider = "runway" }, "scene.provider"},
		{"lipsync mode", func(c *config.Config) { c.LipSync.Mode = "slow" }, "lipsync.mode"},
		{"script style", func(c *config.Config) { c.Workflow.ScriptStyle = "rap" }, "workflow.script_style"},
		{"storage bucket", func(c *config.Config) {
			c.Storage.Enabled = true
			c.Storage.Endpoint = "localhost:9000"
			c.Storage.Bucket = ""
		}, "storage.bucket"},
		{"stability", func(c *config.Config) { c.ElevenLabs.Stability = 1.5 }, "elevenlabs.stability"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in error, got %v", tc.want, err)
			}
		})
	}
}

func TestSampleConfigLoads(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to exist")
	}
	if cfg.LipSync.FastModel != "veed/lipsync" {
		t.Fatalf("unexpected lipsync fast model %q", cfg.LipSync.FastModel)
	}
	if cfg.Retention.MaxAgeHours != 168 {
		t.Fatalf("unexpected retention max age %d", cfg.Retention.MaxAgeHours)
	}
}

func TestEnsureDirectories(t *testing.T) {
	cfg := config.Default()
	base := t.TempDir()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s", dir)
		}
	}
	if !strings.HasSuffix(cfg.LockPath(), "reelcastd.lock") {
		t.Fatalf("unexpected lock path %q", cfg.LockPath())
	}
}
