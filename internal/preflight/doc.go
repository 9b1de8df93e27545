// Package preflight provides readiness checks for the directories, binaries,
// and services the worker depends on.
//
// The worker logs every result at startup so a misconfigured deployment is
// visible before the first task fails. The CLI "status" command renders the
// same results as a table. Checks for optional features are skipped when the
// feature is not configured.
package preflight
