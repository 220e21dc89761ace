package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is structurally usable. Provider
// credentials are checked lazily by the stages that need them.
func (c *Config) Validate() error {
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateScene(); err != nil {
		return err
	}
	if err := c.validateLipSync(); err != nil {
		return err
	}
	switch c.Workflow.ScriptStyle {
	case "monologue", "interview", "tutorial", "story":
	default:
		return fmt.Errorf("workflow.script_style: unsupported value %q (want monologue, interview, tutorial, or story)", c.Workflow.ScriptStyle)
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateElevenLabs(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Retention.MaxAgeHours < 0 {
		return errors.New("retention.max_age_hours must be >= 0")
	}
	if c.API.RateLimitPerMinute < 0 || c.API.RateLimitBurst < 0 {
		return errors.New("api.rate_limit_per_minute and api.rate_limit_burst must be >= 0")
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Backend {
	case StoreMemory, StoreSQLite, StoreRedis:
		return nil
	case StorePostgres:
		if strings.TrimSpace(c.Store.DSN) == "" {
			return errors.New("store.dsn must be set when store.backend is postgres")
		}
		return nil
	default:
		return fmt.Errorf("store.backend: unsupported value %q (want memory, sqlite, postgres, or redis)", c.Store.Backend)
	}
}

func (c *Config) validateScene() error {
	switch c.Scene.Provider {
	case "", SceneProviderKling, SceneProviderFal:
	default:
		return fmt.Errorf("scene.provider: unsupported value %q (want kling or fal)", c.Scene.Provider)
	}
	if strings.TrimSpace(c.Fal.SceneModel) == "" {
		return errors.New("fal.scene_model must be set")
	}
	return nil
}

func (c *Config) validateLipSync() error {
	switch c.LipSync.Mode {
	case "accurate", "fast":
	default:
		return fmt.Errorf("lipsync.mode: unsupported value %q (want accurate or fast)", c.LipSync.Mode)
	}
	if strings.TrimSpace(c.LipSync.AccurateModel) == "" || strings.TrimSpace(c.LipSync.FastModel) == "" {
		return errors.New("lipsync.accurate_model and lipsync.fast_model must be set")
	}
	return nil
}

func (c *Config) validateStorage() error {
	if !c.Storage.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Storage.Endpoint) == "" {
		return errors.New("storage.endpoint must be set when storage.enabled is true")
	}
	if strings.TrimSpace(c.Storage.Bucket) == "" {
		return errors.New("storage.bucket must be set when storage.enabled is true")
	}
	return nil
}

func (c *Config) validateElevenLabs() error {
	for name, v := range map[string]float64{
		"elevenlabs.stability":        c.ElevenLabs.Stability,
		"elevenlabs.similarity_boost": c.ElevenLabs.SimilarityBoost,
		"elevenlabs.style":            c.ElevenLabs.Style,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be between 0 and 1", name)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
