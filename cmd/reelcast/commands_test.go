package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelcast/internal/config"
	"reelcast/internal/project"
	"reelcast/internal/services"
	"reelcast/internal/workflow"
)

func TestConfigInitShowAndValidate(t *testing.T) {
	env := setupCLITestEnv(t, func(cfg *config.Config) {
		cfg.Anthropic.APIKey = "sk-very-secret"
	})

	out, _, err := runCLI(t, env, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "Store: sqlite")

	out, _, err = runCLI(t, env, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, "sk-very-secret") {
		t.Fatalf("config show leaked a secret:\n%s", out)
	}
	requireContains(t, out, "********")
	requireContains(t, out, "[anthropic]")

	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	out, _, err = runCLI(t, nil, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, _, err := runCLI(t, nil, "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting an existing file")
	}
	if _, _, err := runCLI(t, nil, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestScriptCommand(t *testing.T) {
	server := fakeAnthropic(t, "Tide pools teach patience.")
	env := setupCLITestEnv(t, func(cfg *config.Config) {
		cfg.Anthropic.APIKey = "key"
		cfg.Anthropic.BaseURL = server.URL
	})

	out, _, err := runCLI(t, env, "script", "--topic", "tide pools", "--duration", "30")
	if err != nil {
		t.Fatalf("script: %v", err)
	}
	requireContains(t, out, "Tide pools teach patience.")
	requireContains(t, out, "4 words (target 75)")

	out, _, err = runCLI(t, env, "script", "--topic", "tide pools", "--json")
	if err != nil {
		t.Fatalf("script --json: %v", err)
	}
	var res struct {
		Script    string `json:"script"`
		WordCount int    `json:"wordCount"`
	}
	decodeJSON(t, out, &res)
	if res.WordCount != 4 {
		t.Fatalf("unexpected script result %+v", res)
	}
}

func TestScriptCommandWithoutKey(t *testing.T) {
	env := setupCLITestEnv(t, nil)
	_, _, err := runCLI(t, env, "script", "--topic", "tide pools")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if _, _, err := runCLI(t, env, "script", "--topic", "tide pools", "--tone", "grumpy"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for bad tone, got %v", err)
	}
}

func TestVoicesListAndShow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/voices":
			_ = json.NewEncoder(w).Encode(map[string]any{"voices": []any{
				map[string]any{"voice_id": "v1", "name": "Ada", "category": "cloned"},
				map[string]any{"voice_id": "v2", "name": "Bo", "category": "premade"},
			}})
		case "/voices/v1":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"voice_id": "v1", "name": "Ada", "labels": map[string]string{"accent": "british", "age": "young"},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	env := setupCLITestEnv(t, func(cfg *config.Config) {
		cfg.ElevenLabs.APIKey = "key"
		cfg.ElevenLabs.BaseURL = server.URL
		cfg.ElevenLabs.VoiceID = "v2"
	})

	out, _, err := runCLI(t, env, "voices", "list")
	if err != nil {
		t.Fatalf("voices list: %v", err)
	}
	requireContains(t, out, "Ada")
	requireContains(t, out, "premade")
	requireContains(t, out, "*")

	out, _, err = runCLI(t, env, "voices", "show", "v1")
	if err != nil {
		t.Fatalf("voices show: %v", err)
	}
	requireContains(t, out, "accent=british, age=young")

	if _, _, err := runCLI(t, env, "voices", "show", "missing"); !errors.Is(err, services.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestRunRecordsFailureAndStepRecovers(t *testing.T) {
	server := fakeAnthropic(t, "Hello from the tide pools.")
	env := setupCLITestEnv(t, func(cfg *config.Config) {
		cfg.Anthropic.APIKey = "key"
		cfg.Anthropic.BaseURL = server.URL
	})

	out, stderr, err := runCLI(t, env, "run",
		"--topic", "tide pools",
		"--photo", "https://example.com/host.jpg",
		"--duration", "30",
		"--json")
	if err == nil || !strings.Contains(err.Error(), "workflow failed") {
		t.Fatalf("expected workflow failure without a voice key, got %v", err)
	}
	requireContains(t, stderr, "script")
	var res workflow.Result
	decodeJSON(t, out, &res)
	if res.Status != project.StatusError || res.Script == "" || res.AudioURL != "" {
		t.Fatalf("unexpected result %+v", res)
	}
	requireContains(t, res.Error, "ELEVENLABS_API_KEY")

	out, _, err = runCLI(t, env, "project", "show", res.ProjectID, "--json")
	if err != nil {
		t.Fatalf("project show: %v", err)
	}
	var stored project.Project
	decodeJSON(t, out, &stored)
	if stored.Script != res.Script || stored.Duration != 30 {
		t.Fatalf("stored project mismatch %+v", stored)
	}

	out, _, err = runCLI(t, env, "project", "list", "--status", "error")
	if err != nil {
		t.Fatalf("project list: %v", err)
	}
	requireContains(t, out, res.ProjectID)

	out, _, err = runCLI(t, env, "project", "list", "--status", "complete")
	if err != nil {
		t.Fatalf("project list complete: %v", err)
	}
	requireContains(t, out, "No projects")

	out, _, err = runCLI(t, env, "step", res.ProjectID, "script")
	if err != nil {
		t.Fatalf("step script: %v", err)
	}
	requireContains(t, out, string(project.StatusScriptReady))

	_, _, err = runCLI(t, env, "step", res.ProjectID, "lipsync")
	if !errors.Is(err, services.ErrPrerequisite) {
		t.Fatalf("expected prerequisite error, got %v", err)
	}

	out, _, err = runCLI(t, env, "project", "delete", res.ProjectID)
	if err != nil {
		t.Fatalf("project delete: %v", err)
	}
	requireContains(t, out, "Deleted project")
	if _, _, err := runCLI(t, env, "project", "show", res.ProjectID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestRunRejectsInvalidInput(t *testing.T) {
	env := setupCLITestEnv(t, nil)
	if _, _, err := runCLI(t, env, "run", "--topic", "x"); err == nil {
		t.Fatal("expected missing --photo to fail")
	}
	_, _, err := runCLI(t, env, "run", "--topic", "x", "--photo", "not-a-url")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, _, err := runCLI(t, env, "step", "id", "encode"); err == nil {
		t.Fatal("expected unknown step to fail")
	}
}

func TestStylesIncludesOverrides(t *testing.T) {
	env := setupCLITestEnv(t, func(cfg *config.Config) {
		path := filepath.Join(t.TempDir(), "styles.yaml")
		if err := os.WriteFile(path, []byte("styles:\n  - id: rooftop\n    description: a rooftop garden at dusk\n"), 0o644); err != nil {
			t.Fatalf("write styles: %v", err)
		}
		cfg.Scene.StylesFile = path
	})
	out, _, err := runCLI(t, env, "styles")
	if err != nil {
		t.Fatalf("styles: %v", err)
	}
	requireContains(t, out, "rooftop")
	requireContains(t, out, "podcast_studio")
	requireContains(t, out, "Rooftop")
}

func TestTestNotifyWithoutTopic(t *testing.T) {
	env := setupCLITestEnv(t, nil)
	out, _, err := runCLI(t, env, "test-notify")
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Notifications not configured")
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"a  b\n c", 10, "a b c"},
		{"abcdefghij", 5, "abcd…"},
		{"abc", 0, "abc"},
	}
	for _, tc := range cases {
		if got := truncate(tc.in, tc.max); got != tc.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
	}
}
