// Package export implements the election package task.
//
// A run loads the election, builds UI strings in every configured language,
// renders every ballot variant, optionally synthesizes audio, normalizes the
// PDFs for print, and uploads three ballot archives plus the election
// package. Runs are not resumable: any step failure fails the whole task.
// Artifact names are content hashes, so a rerun over unchanged inputs
// rewrites nothing.
package export
