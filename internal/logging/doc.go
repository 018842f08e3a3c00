// Package logging assembles structured slog loggers and formatting helpers used
// across subforge.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so job code can automatically
// tag log lines with job IDs, job kinds, and correlation IDs. Per-job log
// files are teed off the main logger and pruned by age. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
package logging
