// Package qabuild asks the CI system to build a QA image from a freshly
// exported election package.
//
// The trigger is optional: when qa_build.webhook_url is empty NewTrigger
// returns a noop implementation. Failures are reported to the caller, which
// logs them without failing the export.
package qabuild
