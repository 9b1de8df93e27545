// Package worker runs background tasks one at a time.
//
// On start the worker returns every interrupted task to the queue, then
// loops: claim the oldest queued task, decode its payload, dispatch it to
// the matching handler, and record the outcome. Handler failures and panics
// complete the task with an error message; they are never retried. The
// in-flight task is not cancelled on shutdown; cancellation is observed
// between tasks.
package worker
