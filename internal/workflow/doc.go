// Package workflow validates and applies lifecycle transitions to topics.
// Every function here is pure: a transition either returns a new topic with
// its status moved, its fields merged, and a provenance stamp appended, or it
// returns a *TransitionError and leaves the input untouched. Persistence and
// concurrency belong to callers such as the tracker.
//
// Checks run in a fixed order: the event must be known and the topic must
// sit in a live stage; the actor's role must match the event and own the
// current stage; the stage must be one the event fires from; required
// payload must be present.
package workflow
