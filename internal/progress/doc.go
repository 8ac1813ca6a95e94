// Package progress derives production metrics from topic statuses. Every
// function is pure and recomputes from its input; nothing is cached and
// nothing in the input snapshot is modified. Empty input yields zero values.
package progress
