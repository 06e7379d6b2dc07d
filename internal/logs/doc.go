// Package logs reads the daemon's run log for `streamvault logs`.
//
// Tail returns the last N lines or everything after a byte offset, and can
// block for a bounded time waiting for new lines so the CLI can follow the
// file without holding it open.
package logs
