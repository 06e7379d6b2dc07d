// Package config loads, normalizes, and validates StreamVault configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads a working-directory .env file, and
// honours environment overrides such as YOUTUBE_API_KEY, CHECK_INTERVAL, and
// DATABASE_PATH. The Config type centralizes every knob the daemon and CLI
// need so the capture directory, registry database, and provider credentials
// are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
