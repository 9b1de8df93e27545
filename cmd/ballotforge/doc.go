// Command ballotforge runs the election export worker and manages its task
// queue and election records.
//
// Usage:
//
//	ballotforge worker
//	ballotforge task enqueue-export --election ID [--audio] [--qa-build]
//	ballotforge task enqueue-test-decks --election ID
//	ballotforge task list [--state queued|running|done|failed] [--limit N]
//	ballotforge task show ID
//	ballotforge election import FILE
//	ballotforge election styles ID
//	ballotforge status
//	ballotforge config init [--path PATH]
package main
