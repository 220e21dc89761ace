package config

import (
	"strconv"
	"strings"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup LookupFunc) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				*dst = n
			}
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(key); ok {
			if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
				*dst = b
			}
		}
	}

	str("ANTHROPIC_API_KEY", &c.Anthropic.APIKey)
	str("ANTHROPIC_MODEL", &c.Anthropic.Model)
	str("ELEVENLABS_API_KEY", &c.ElevenLabs.APIKey)
	str("ELEVENLABS_VOICE_ID", &c.ElevenLabs.VoiceID)
	str("FAL_KEY", &c.Fal.APIKey)
	str("KLING_ACCESS_KEY", &c.Kling.AccessKey)
	str("KLING_SECRET_KEY", &c.Kling.SecretKey)
	str("VIDEO_PROVIDER", &c.Scene.Provider)

	str("REELCAST_STORE", &c.Store.Backend)
	str("REELCAST_DSN", &c.Store.DSN)
	str("REELCAST_API_BIND", &c.API.Bind)
	str("REELCAST_API_TOKEN", &c.API.Token)
	str("REELCAST_LOG_LEVEL", &c.Logging.Level)
	str("REELCAST_LOG_FORMAT", &c.Logging.Format)

	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_PASSWORD", &c.Redis.Password)
	num("REDIS_DB", &c.Redis.DB)
	flag("REELCAST_WORKER", &c.Redis.WorkerEnabled)

	str("STORAGE_ENDPOINT", &c.Storage.Endpoint)
	str("STORAGE_ACCESS_KEY", &c.Storage.AccessKey)
	str("STORAGE_SECRET_KEY", &c.Storage.SecretKey)
	str("STORAGE_BUCKET", &c.Storage.Bucket)
	flag("STORAGE_ENABLED", &c.Storage.Enabled)

	str("NTFY_TOPIC", &c.Notifications.NtfyTopic)
}
