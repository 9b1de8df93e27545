// Package services defines shared utilities consumed by task handlers and
// external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp task IDs, task kinds, pipeline steps, and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper so handler failures carry
//     a consistent, classifiable message into the task record.
//
// Use these helpers when wiring new handler logic so failures and log lines
// keep the same shape across the worker.
package services
