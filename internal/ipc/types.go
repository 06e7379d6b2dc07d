package ipc

import "streamvault/internal/api"

// Streamer mirrors the HTTP API streamer DTO.
type Streamer = api.Streamer

// CaptureTask mirrors the HTTP API capture task DTO.
type CaptureTask = api.CaptureTask

// DependencyStatus describes availability of an external dependency.
type DependencyStatus = api.DependencyStatus

// StatusResponse represents combined daemon and monitor status information.
type StatusResponse = api.DaemonStatus

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StopRequest asks the daemon to shut down.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StreamerListRequest lists registered streamers.
type StreamerListRequest struct{}

// StreamerListResponse contains registered streamers.
type StreamerListResponse struct {
	Streamers []Streamer `json:"streamers"`
}

// StreamerAddRequest registers a streamer by display name.
type StreamerAddRequest struct {
	Name string `json:"name"`
}

// StreamerAddResponse reports the add outcome. Added is false with Message
// set when the channel is already registered or cannot be resolved.
type StreamerAddResponse struct {
	Added    bool     `json:"added"`
	Streamer Streamer `json:"streamer"`
	Message  string   `json:"message,omitempty"`
}

// StreamerRemoveRequest removes a streamer by display name.
type StreamerRemoveRequest struct {
	Name string `json:"name"`
}

// StreamerRemoveResponse reports the removal outcome.
type StreamerRemoveResponse struct {
	Name      string `json:"name"`
	ChannelID string `json:"channel_id"`
	Removed   bool   `json:"removed"`
	Message   string `json:"message,omitempty"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
