package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Scene.StylesFile) != "" {
		if c.Scene.StylesFile, err = expandPath(c.Scene.StylesFile); err != nil {
			return fmt.Errorf("scene.styles_file: %w", err)
		}
	}

	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	if c.Store.Backend == "" {
		c.Store.Backend = StoreSQLite
	}
	c.Scene.Provider = strings.ToLower(strings.TrimSpace(c.Scene.Provider))
	c.LipSync.Mode = strings.ToLower(strings.TrimSpace(c.LipSync.Mode))
	if c.LipSync.Mode == "" {
		c.LipSync.Mode = defaultLipSyncMode
	}

	c.Anthropic.BaseURL = strings.TrimSpace(c.Anthropic.BaseURL)
	if c.Anthropic.BaseURL == "" {
		c.Anthropic.BaseURL = defaultAnthropicBaseURL
	}
	c.ElevenLabs.BaseURL = strings.TrimRight(strings.TrimSpace(c.ElevenLabs.BaseURL), "/")
	if c.ElevenLabs.BaseURL == "" {
		c.ElevenLabs.BaseURL = defaultElevenLabsBaseURL
	}
	c.Kling.BaseURL = strings.TrimRight(strings.TrimSpace(c.Kling.BaseURL), "/")
	if c.Kling.BaseURL == "" {
		c.Kling.BaseURL = defaultKlingBaseURL
	}
	c.Fal.QueueURL = strings.TrimRight(strings.TrimSpace(c.Fal.QueueURL), "/")
	if c.Fal.QueueURL == "" {
		c.Fal.QueueURL = defaultFalQueueURL
	}

	if c.Scene.PollIntervalSeconds <= 0 {
		c.Scene.PollIntervalSeconds = defaultPollIntervalSeconds
	}
	if c.Scene.PollMaxAttempts <= 0 {
		c.Scene.PollMaxAttempts = defaultPollMaxAttempts
	}
	if c.LipSync.PollIntervalSeconds <= 0 {
		c.LipSync.PollIntervalSeconds = defaultPollIntervalSeconds
	}
	if c.LipSync.PollMaxAttempts <= 0 {
		c.LipSync.PollMaxAttempts = defaultPollMaxAttempts
	}
	if c.Workflow.DefaultDuration <= 0 {
		c.Workflow.DefaultDuration = defaultDuration
	}
	if strings.TrimSpace(c.Workflow.DefaultTone) == "" {
		c.Workflow.DefaultTone = defaultTone
	}
	if strings.TrimSpace(c.Workflow.DefaultSceneStyle) == "" {
		c.Workflow.DefaultSceneStyle = defaultSceneStyle
	}
	c.Workflow.ScriptStyle = strings.ToLower(strings.TrimSpace(c.Workflow.ScriptStyle))
	if c.Workflow.ScriptStyle == "" {
		c.Workflow.ScriptStyle = defaultScriptStyle
	}
	if c.Redis.WorkerConcurrency <= 0 {
		c.Redis.WorkerConcurrency = defaultWorkerConcurrency
	}
	if c.Storage.PresignExpiryMinutes <= 0 {
		c.Storage.PresignExpiryMinutes = defaultPresignExpiryMinutes
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}
