// Package logging assembles structured slog loggers and formatting helpers used
// across clippy.
//
// It owns the console/JSON handlers, centralizes level and output plumbing, and
// exposes context-aware helpers so pipeline code automatically tags log lines
// with job IDs and phases. A no-op logger is provided for tests and wiring code
// that cannot fail.
package logging
