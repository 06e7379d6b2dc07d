// Package notifications delivers monitor and capture events via ntfy.
//
// NewService returns an ntfy-backed implementation when a topic URL is
// configured and a no-op otherwise. Event toggles in the [notifications]
// config section suppress whole classes of events at the service boundary,
// so callers always publish and never check configuration themselves.
package notifications
