// Package jobs wires the task handlers to their production collaborators.
package jobs
