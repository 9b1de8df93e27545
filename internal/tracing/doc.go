// Package tracing wraps OpenTelemetry so worker tasks and export steps can be
// recorded as spans without importing the SDK everywhere. Spans are exported
// as JSON lines through the stdout exporter; when tracing is disabled the
// global no-op provider makes every call free.
package tracing
