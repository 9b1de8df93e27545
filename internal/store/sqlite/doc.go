// Package sqlite implements the store ports on a single SQLite database.
//
// Timestamps are written in a fixed-width UTC layout so the queued-task
// ordering can be expressed directly in SQL. Writes retry briefly on
// SQLITE_BUSY; the worker is the only writer in steady state but the CLI may
// enqueue concurrently.
package sqlite
