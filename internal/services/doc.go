// Package services defines shared utilities consumed by the harvest pipeline
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, artist positions, and release group
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that keep the failure
//     taxonomy (transient, permanent, schema, format, configuration,
//     interrupted) inspectable with errors.Is.
//
// Use these helpers when wiring new collaborators so error classification and
// observability stay uniform across the pipeline.
package services
