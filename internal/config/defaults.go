package config

const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreRedis    = "redis"

	SceneProviderKling = "kling"
	SceneProviderFal   = "fal"
)

const (
	defaultDataDir              = "~/.local/share/reelcast"
	defaultLogDir               = "~/.local/share/reelcast/logs"
	defaultAPIBind              = "127.0.0.1:8787"
	defaultRateLimitPerMinute   = 10
	defaultRateLimitBurst       = 3
	defaultRedisAddr            = "127.0.0.1:6379"
	defaultWorkerConcurrency    = 2
	defaultAnthropicBaseURL     = "https://api.anthropic.com/v1/messages"
	defaultAnthropicModel       = "claude-sonnet-4-5"
	defaultAnthropicMaxTokens   = 2048
	defaultAnthropicTimeout     = 120
	defaultElevenLabsBaseURL    = "https://api.elevenlabs.io/v1"
	defaultElevenLabsModel      = "eleven_multilingual_v2"
	defaultElevenLabsFormat     = "mp3_44100_128"
	defaultElevenLabsStability  = 0.5
	defaultElevenLabsSimilarity = 0.75
	defaultElevenLabsTimeout    = 120
	defaultSceneAspectRatio     = "16:9"
	defaultPollIntervalSeconds  = 5
	defaultPollMaxAttempts      = 120
	defaultKlingBaseURL         = "https://api-singapore.klingai.com"
	defaultKlingModel           = "kling-v2-1"
	defaultKlingMode            = "pro"
	defaultFalQueueURL          = "https://queue.fal.run"
	defaultFalSceneModel        = "fal-ai/kling-video/v2.1/standard/image-to-video"
	defaultLipSyncMode          = "accurate"
	defaultLipSyncAccurateModel = "fal-ai/sync-lipsync/v2"
	defaultLipSyncFastModel     = "veed/lipsync"
	defaultStorageRegion        = "us-east-1"
	defaultPresignExpiryMinutes = 24 * 60
	defaultDuration             = 90
	defaultTone                 = "professional"
	defaultSceneStyle           = "podcast_studio"
	defaultScriptStyle          = "monologue"
	defaultRunTimeoutMinutes    = 60
	defaultRetentionSchedule    = "@hourly"
	defaultRetentionMaxAgeHours = 7 * 24
	defaultNotifyTimeout        = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		API: API{
			Bind:               defaultAPIBind,
			RateLimitPerMinute: defaultRateLimitPerMinute,
			RateLimitBurst:     defaultRateLimitBurst,
		},
		Store: Store{
			Backend: StoreSQLite,
		},
		Redis: Redis{
			Addr:              defaultRedisAddr,
			WorkerConcurrency: defaultWorkerConcurrency,
		},
		Anthropic: Anthropic{
			BaseURL:        defaultAnthropicBaseURL,
			Model:          defaultAnthropicModel,
			MaxTokens:      defaultAnthropicMaxTokens,
			TimeoutSeconds: defaultAnthropicTimeout,
		},
		ElevenLabs: ElevenLabs{
			BaseURL:         defaultElevenLabsBaseURL,
			ModelID:         defaultElevenLabsModel,
			OutputFormat:    defaultElevenLabsFormat,
			Stability:       defaultElevenLabsStability,
			SimilarityBoost: defaultElevenLabsSimilarity,
			SpeakerBoost:    true,
			TimeoutSeconds:  defaultElevenLabsTimeout,
		},
		Scene: Scene{
			Provider:            SceneProviderKling,
			AspectRatio:         defaultSceneAspectRatio,
			PollIntervalSeconds: defaultPollIntervalSeconds,
			PollMaxAttempts:     defaultPollMaxAttempts,
		},
		Kling: Kling{
			BaseURL: defaultKlingBaseURL,
			Model:   defaultKlingModel,
			Mode:    defaultKlingMode,
		},
		Fal: Fal{
			QueueURL:   defaultFalQueueURL,
			SceneModel: defaultFalSceneModel,
		},
		LipSync: LipSync{
			Mode:                defaultLipSyncMode,
			AccurateModel:       defaultLipSyncAccurateModel,
			FastModel:           defaultLipSyncFastModel,
			PollIntervalSeconds: defaultPollIntervalSeconds,
			PollMaxAttempts:     defaultPollMaxAttempts,
		},
		Storage: Storage{
			Region:               defaultStorageRegion,
			UseSSL:               true,
			PresignExpiryMinutes: defaultPresignExpiryMinutes,
		},
		Workflow: Workflow{
			DefaultDuration:   defaultDuration,
			DefaultTone:       defaultTone,
			DefaultSceneStyle: defaultSceneStyle,
			ScriptStyle:       defaultScriptStyle,
			RunTimeoutMinutes: defaultRunTimeoutMinutes,
		},
		Retention: Retention{
			Schedule:    defaultRetentionSchedule,
			MaxAgeHours: defaultRetentionMaxAgeHours,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Completed:      true,
			Failed:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
