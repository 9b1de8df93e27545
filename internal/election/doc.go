// Package election holds the election definition types shared by the store,
// the ballot style generator, and the task handlers: geography (districts,
// precincts, splits), parties, contests, export settings, and the derived
// ballot styles.
package election
