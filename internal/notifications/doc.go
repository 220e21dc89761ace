// Package notifications pushes project milestones to ntfy.
//
// NewService returns a no-op implementation when no topic is configured, so
// workflow code can call it unconditionally.
package notifications
