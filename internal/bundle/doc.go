// Package bundle builds reproducible zip archives and content-hashed
// artifact names. Entries are written in name order with a fixed timestamp
// so rerunning an export over the same inputs produces the same bytes and
// therefore the same artifact name.
package bundle
