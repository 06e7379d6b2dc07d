// Package daemon coordinates the long-running StreamVault process.
//
// It wires configuration, the streamer registry, the live status provider,
// the capture dispatcher, and the monitor into a single lifecycle with
// flock-based locking to prevent multiple instances. The daemon backs the IPC
// and HTTP control surfaces, merging registry rows with live state and
// reporting dependency health.
//
// Keep orchestration logic here: polling belongs to monitor and capture
// mechanics to capture, while the daemon focuses on startup, shutdown, and
// high level coordination.
package daemon
