// Package tasks defines the background task record and the closed union of
// task payloads.
//
// Each task kind has a payload struct implementing Payload. Payload carries an
// unexported accept method, so no type outside this package can join the
// union, and Handlers has one method per kind, so a new kind without a
// handler fails to compile. Payloads are validated by Enqueue before they are
// stored and again by Decode before a handler runs.
package tasks
