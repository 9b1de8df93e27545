// Package uistrings assembles the per-language string tables that the
// renderer and the voter-facing app consume.
//
// Three sources are combined: the embedded application catalog, extra
// strings required by the chosen ballot template, and strings derived from
// the election definition. Candidate names are carried verbatim into every
// language.
package uistrings
