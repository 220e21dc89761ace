// Package workflow sequences the script, voice, background and lip-sync
// stages against one project record.
//
// Manager creates projects, runs every stage in order and stops at the
// first failure, recording it on the project rather than returning it.
// RunStep re-runs a single stage on an existing project once its inputs are
// present. Progress is reported through an optional callback and an
// optional event publisher; neither affects control flow.
//
// Stages never run concurrently for one project. Distinct projects may run
// at the same time; the Store provides per-project atomicity.
package workflow
