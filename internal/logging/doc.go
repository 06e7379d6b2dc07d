// Package logging assembles structured slog loggers and formatting helpers used
// across StreamVault services.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so poll and capture code can
// automatically tag log lines with channel ids, broadcast ids, capture kinds,
// and correlation ids. The package also provides a no-op logger for tests and
// an HTTP request logger for the control API.
//
// Prefer these constructors over hand-rolled slog setup so new components emit
// data with the same shape and routing guarantees as the rest of the system.
package logging
