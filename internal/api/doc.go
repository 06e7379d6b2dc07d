// Package api defines wire-format types shared by the IPC and HTTP control
// surfaces and serves the HTTP API.
//
// # Key Types
//
// Streamer: a registered streamer joined with its live state.
//
// CaptureTask: an in-flight media or transcript capture.
//
// DaemonStatus: aggregated runtime information including monitor health,
// active captures, and dependency availability.
//
// # Routes
//
//	GET    /api/status
//	GET    /api/streamers
//	POST   /api/streamers          {"name": "..."}
//	DELETE /api/streamers/{name}
//	GET    /metrics
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Timestamps use RFC3339 with milliseconds in
// UTC. Error responses are {"error": "..."} with the status derived from the
// error marker: duplicates are 409, unknown channels 404, invalid input 400,
// provider failures 502, and missing credentials 503.
package api
