// Package daemon enforces single-instance execution of the worker.
//
// The worker assumes it is the only consumer of the task queue: startup
// requeues every in-flight task, which would restart a task another process
// is still running. The daemon therefore holds an exclusive file lock for
// the lifetime of the worker loop.
package daemon
