// Package stageexec runs the named steps of a task handler. Each step gets
// its own tracing span, a stage field on every log line, and a uniform
// start/complete/failure event.
package stageexec
