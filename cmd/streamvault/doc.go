// Package main hosts the StreamVault CLI entrypoint and command graph.
//
// The Cobra command tree runs the daemon in the foreground, launches and stops
// it in the background, and manages the streamer registry. Registry commands
// talk to a running daemon over IPC and fall back to the SQLite store
// directly when no daemon answers.
package main
