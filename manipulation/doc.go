// Package manipulation reshapes a runner tree before it runs.
//
// A Filter prunes tests, a Sorter orders the immediate children of a
// composite by a comparison, and an Orderer applies an arbitrary Ordering
// (for example a shuffle) after proving it is a true permutation of the
// siblings it was given. Runners opt in by implementing Filterable,
// Sortable and Orderable.
package manipulation
