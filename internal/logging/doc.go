// Package logging assembles structured slog loggers and formatting helpers used
// across ballotforge.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so handler code automatically
// tags log lines with task IDs, task kinds, pipeline steps, and correlation
// IDs. A no-op logger is provided for tests and wiring code that cannot fail.
package logging
