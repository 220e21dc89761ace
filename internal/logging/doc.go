// Package logging builds the slog loggers used by reelcast.
//
// Records carry a fixed set of keys (component, project_id, step,
// correlation_id, event_type) so the console handler can print a
// "[project/step] component:" header and the sink handler can route project
// lines to websocket subscribers. Credential-shaped keys are redacted by every
// handler.
package logging
