package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Streamer describes a registered streamer and its live state.
type Streamer struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	ChannelID   string `json:"channelId"`
	CreatedAt   string `json:"createdAt,omitempty"`
	Phase       string `json:"phase"`
	BroadcastID string `json:"broadcastId,omitempty"`
	Title       string `json:"title,omitempty"`
	Since       string `json:"since,omitempty"`
}

// CaptureTask describes a running capture task.
type CaptureTask struct {
	ID           string `json:"id"`
	StreamerName string `json:"streamerName"`
	ChannelID    string `json:"channelId"`
	BroadcastID  string `json:"broadcastId"`
	Kind         string `json:"kind"`
	Status       string `json:"status"`
	OutputPath   string `json:"outputPath"`
	StartedAt    string `json:"startedAt"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// MonitorStatus reports poll loop health.
type MonitorStatus struct {
	Running             bool   `json:"running"`
	PollIntervalSeconds int    `json:"pollIntervalSeconds"`
	LastTick            string `json:"lastTick,omitempty"`
	TickCount           int64  `json:"tickCount"`
	LastError           string `json:"lastError,omitempty"`
	Capturing           int    `json:"capturing"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running        bool               `json:"running"`
	PID            int                `json:"pid"`
	StorePath      string             `json:"storePath"`
	LockFilePath   string             `json:"lockFilePath"`
	CaptureDir     string             `json:"captureDir"`
	LogPath        string             `json:"logPath,omitempty"`
	APIAddress     string             `json:"apiAddress,omitempty"`
	Monitor        MonitorStatus      `json:"monitor"`
	Streamers      []Streamer         `json:"streamers"`
	ActiveCaptures []CaptureTask      `json:"activeCaptures"`
	Dependencies   []DependencyStatus `json:"dependencies"`
}

// StreamerListResponse wraps the streamer listing.
type StreamerListResponse struct {
	Streamers []Streamer `json:"streamers"`
}

// AddStreamerRequest is the POST /api/streamers body.
type AddStreamerRequest struct {
	Name string `json:"name"`
}

// StreamerResponse wraps a single streamer.
type StreamerResponse struct {
	Streamer Streamer `json:"streamer"`
}

// RemoveStreamerResponse reports the outcome of a removal.
type RemoveStreamerResponse struct {
	Name      string `json:"name"`
	ChannelID string `json:"channelId"`
	Removed   bool   `json:"removed"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
