// Package jsonapi is the shared JSON-over-HTTP client used by the renderer,
// translation, speech, and QA build collaborators.
//
// # Retry Behaviour
//
// Requests are retried on HTTP 408/429/5xx and network timeouts with
// exponential backoff (base 500ms, max 8s, up to 3 attempts by default). A
// Retry-After header overrides the computed delay. Context cancellation
// aborts retries immediately.
//
// # Errors
//
// Non-2xx responses surface as *StatusError carrying a truncated body.
// Every returned error is wrapped with services.ErrExternalTool, or
// services.ErrTimeout when the request deadline was exceeded, so task
// failures classify cleanly in logs.
package jsonapi
