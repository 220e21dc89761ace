package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"reelcast/internal/config"
	"reelcast/internal/testsupport"
)

// providerEnv lists the variables that would otherwise override the
// generated config file.
var providerEnv = []string{
	"ANTHROPIC_API_KEY", "ANTHROPIC_MODEL", "ELEVENLABS_API_KEY", "ELEVENLABS_VOICE_ID",
	"FAL_KEY", "KLING_ACCESS_KEY", "KLING_SECRET_KEY", "VIDEO_PROVIDER",
	"REELCAST_STORE", "REELCAST_DSN", "REELCAST_LOG_LEVEL", "REELCAST_LOG_FORMAT", "NTFY_TOPIC",
}

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

// setupCLITestEnv writes a sqlite-backed config after mutate has adjusted it.
func setupCLITestEnv(t *testing.T, mutate func(*config.Config)) *cliTestEnv {
	t.Helper()
	for _, key := range providerEnv {
		t.Setenv(key, "")
	}
	cfg := testsupport.NewConfig(t, testsupport.WithSQLiteStore())
	cfg.Logging.Level = "error"
	if mutate != nil {
		mutate(cfg)
	}
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if env != nil {
		args = append([]string{"--config", env.configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\n---\n%s", needle, haystack)
	}
}

func decodeJSON(t *testing.T, data string, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(data), v); err != nil {
		t.Fatalf("decode %q: %v", data, err)
	}
}

// fakeAnthropic answers every request with text.
func fakeAnthropic(t *testing.T, text string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content":     []any{map[string]any{"type": "text", "text": text}},
			"stop_reason": "end_turn",
		})
	}))
	t.Cleanup(server.Close)
	return server
}
