// Package api serves the HTTP surface of the daemon.
//
// # Routes
//
// POST /api/talking-video accepts {"action": ...} bodies and mirrors the
// action-style contract used by existing clients: run_workflow,
// generate_script, generate_voice, create_project, get_project, run_step and
// enqueue_workflow. Errors are reported as {"error": "..."}.
//
// The REST routes under /api/projects expose the same operations per
// resource, plus a websocket at /api/projects/:id/events that replays and
// follows status, progress and log events from the events hub.
//
// # Middleware
//
// Every request gets an X-Request-ID. When api.token is set, requests must
// carry "Authorization: Bearer <token>" (or ?token= for websocket clients
// that cannot set headers); /api/health is exempt. Generation endpoints
// share a per-client token bucket sized by api.rate_limit_per_minute.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Timestamps use RFC3339 with milliseconds.
// Long runs started through REST are enqueued on the asynq worker when one is
// configured and otherwise run in a background goroutine bounded by the
// workflow run timeout.
package api
