// Package ballotstyle derives ballot styles from election geography.
//
// Generate is a pure function: it flattens precincts and splits into units,
// groups units by their exact district set, and emits one style per group and
// language configuration (and, in primaries, per party with at least one
// contest in the group). Styles are recomputed on every election read rather
// than stored, so they cannot drift from the geography they come from.
//
// Id stability across runs holds only while precinct and split declaration
// order is unchanged; reordering geography may renumber groups.
package ballotstyle
