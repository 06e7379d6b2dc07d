// Package ipc exposes the daemon over JSON-RPC on a Unix socket and ships the
// matching client used by the CLI.
//
// Registry contract outcomes (duplicate add, unknown channel, nothing to
// remove) travel in the response body so the CLI can report them precisely;
// everything else surfaces as an RPC error string.
package ipc
