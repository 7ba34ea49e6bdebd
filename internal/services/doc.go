// Package services defines shared utilities consumed by the export pipeline
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp asset IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper, so callers can tell
//     fatal failures (validation, not found, collision) from reported ones
//     (file copies, ingestion).
//
// Use these helpers when wiring new pipeline steps so error handling and
// observability stay uniform.
package services
