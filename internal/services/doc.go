// Package services defines shared utilities consumed by the pipeline stage
// handlers.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, story titles, stage names, and page
//     numbers for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent run statuses (failed vs invalid).
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
