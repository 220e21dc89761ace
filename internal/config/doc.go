// Package config loads, normalizes, and validates reelcast configuration.
//
// Configuration is read from TOML (~/.config/reelcast/config.toml or
// ./reelcast.toml), then a .env file next to the working directory is loaded
// and environment variables override individual settings. Provider
// credentials are deliberately not validated here: each pipeline stage checks
// the keys it needs when it runs so unused providers never block startup.
//
// Sections by subsystem:
//   - paths, logging: data/log directories and log format
//   - api, store, redis: HTTP surface, project persistence, worker queue
//   - anthropic, elevenlabs, scene, kling, fal, lipsync: provider settings
//   - storage: optional object storage for rendered audio
//   - workflow, retention, notifications: orchestration defaults and housekeeping
package config
