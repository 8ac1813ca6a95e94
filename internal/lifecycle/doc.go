// Package lifecycle defines the production stages a topic moves through, the
// roles allowed to move it, and the transition table binding the two. It has
// no behaviour beyond lookups; the workflow package applies the rules.
package lifecycle
