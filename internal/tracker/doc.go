// Package tracker is the persistence-backed caller of the workflow engine.
// It loads the catalog snapshot, applies one transition or catalog edit at a
// time under a process-local mutex, bumps the snapshot revision, saves it,
// and reports each change to the journal, the structured log, and an
// optional publisher.
package tracker
