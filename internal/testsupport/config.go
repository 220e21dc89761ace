package testsupport

import (
	"path/filepath"
	"testing"

	"reelcast/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The store defaults to memory and the API binds to an ephemeral port.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.API.Bind = "127.0.0.1:0"
	cfgVal.Store.Backend = config.StoreMemory
	cfgVal.Retention.MaxAgeHours = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithSQLiteStore switches the config to a sqlite file in the temp data dir.
func WithSQLiteStore() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Store.Backend = config.StoreSQLite
		b.cfg.Store.DSN = filepath.Join(b.baseDir, "data", "projects.db")
	}
}

// WithRedis points the redis section at addr and selects the redis store.
func WithRedis(addr string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Store.Backend = config.StoreRedis
		b.cfg.Redis.Addr = addr
	}
}

// WithProviderKeys fills every provider credential with placeholder values.
func WithProviderKeys() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Anthropic.APIKey = "test-anthropic"
		b.cfg.ElevenLabs.APIKey = "test-elevenlabs"
		b.cfg.ElevenLabs.VoiceID = "voice-test"
		b.cfg.Fal.APIKey = "test-fal"
		b.cfg.Kling.AccessKey = "test-access"
		b.cfg.Kling.SecretKey = "test-secret"
	}
}

// WithStylesFile writes content as a scene style override file and points
// scene.styles_file at it.
func WithStylesFile(content string) ConfigOption {
	return func(b *configBuilder) {
		path := filepath.Join(b.baseDir, "styles.yaml")
		WriteText(b.t, path, content)
		b.cfg.Scene.StylesFile = path
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
