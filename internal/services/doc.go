// Package services defines shared utilities consumed by the pipeline stages
// and the external provider integrations.
//
// Key responsibilities:
//   - Context helpers that stamp project IDs, step names, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper so configuration,
//     upstream, timeout, and prerequisite failures stay distinguishable with
//     errors.Is after they cross package boundaries.
//   - UpstreamError, the common shape every provider client returns for
//     non-success HTTP responses (the provider body is preserved verbatim).
//
// Provider clients live in subpackages (anthropic, elevenlabs, fal, kling).
package services
