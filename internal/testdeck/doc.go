// Package testdeck implements the test deck task: pre-marked test ballots
// for every precinct and style, plus the tally a scanner should report
// after reading them.
package testdeck
