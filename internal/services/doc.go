// Package services defines shared utilities consumed by the monitor, the
// capture dispatcher, and the external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp channel ids, broadcast ids, capture kinds,
//     and correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures (transient provider trouble vs missing tools vs bad config)
//     with errors.Is.
//
// Use these helpers when wiring new integrations so operational behaviour
// stays uniform across the daemon.
package services
