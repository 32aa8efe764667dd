// Package collection holds the authoritative card collection.
//
// State is an immutable value: every transition returns a new State and
// leaves the receiver untouched. Store wraps a State in a single goroutine
// that applies mutations one at a time against the latest committed value,
// so concurrent Add calls for the same card never lose an increment.
package collection
