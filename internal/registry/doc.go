// Package registry persists the set of tracked streamers in SQLite.
//
// Store is the single source of truth read by the poll loop each tick and
// mutated by the control surfaces (CLI, IPC, HTTP API). Every operation is
// serialized by an internal mutex so concurrent readers and writers always
// observe a consistent set. A channel id can be registered at most once;
// duplicates are rejected with ErrAlreadyExists rather than overwritten.
package registry
