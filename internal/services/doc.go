// Package services defines shared utilities consumed by the job runners and
// external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, job kinds, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent history statuses (failed vs rejected).
//
// Use these helpers when wiring new job logic so error handling and
// observability stay uniform across commands.
package services
