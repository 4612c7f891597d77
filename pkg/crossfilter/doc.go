// Package crossfilter keeps the option lists of several filter dimensions
// consistent with each other and computes the rows that pass every
// dimension's selection.
//
// The package-level functions are pure: they take rows, dimensions and
// selections and return new values. Filter binds them to one dataset and
// holds the mutable selection state of a single view. Dropdown and
// DropdownGroup model the open/closed state of the per-dimension pickers.
//
// Nothing in this package performs I/O or returns errors for bad data. An
// empty dataset yields empty results and a missing cell reads as "".
package crossfilter
