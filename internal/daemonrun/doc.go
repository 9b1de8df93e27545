// Package daemonrun is the worker process entry point: it builds the logger,
// tracer, store, and task handlers from configuration and runs the daemon
// until the process is signalled.
package daemonrun
