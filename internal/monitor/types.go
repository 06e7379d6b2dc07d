package monitor

import (
	"context"
	"time"

	"streamvault/internal/capture"
	"streamvault/internal/live"
	"streamvault/internal/registry"
)

// Phase is a streamer's position in the capture lifecycle.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseCapturing Phase = "capturing"
)

// LiveState is the monitor's view of one streamer.
type LiveState struct {
	Phase       Phase     `json:"phase"`
	BroadcastID string    `json:"broadcast_id,omitempty"`
	Title       string    `json:"title,omitempty"`
	Since       time.Time `json:"since"`
	// LastBroadcastID is the broadcast most recently captured while the
	// channel has stayed live. It is cleared once the channel reports offline.
	LastBroadcastID string `json:"last_broadcast_id,omitempty"`

	// orphaned marks a capturing state whose streamer left the registry.
	orphaned bool
}

// Lister provides the registry snapshot read at the start of every tick.
type Lister interface {
	List(ctx context.Context) ([]registry.Streamer, error)
}

// Dispatcher starts captures for a detected broadcast.
type Dispatcher interface {
	StartCapture(ctx context.Context, streamer registry.Streamer, broadcast live.Broadcast, onDone func(capture.Result)) (*capture.Handle, error)
}

// StreamerStatus pairs a registered streamer with its live state.
type StreamerStatus struct {
	registry.Streamer
	LiveState
}

// Status summarises the monitor for control surfaces.
type Status struct {
	Running   bool             `json:"running"`
	Interval  time.Duration    `json:"interval"`
	LastTick  time.Time        `json:"last_tick,omitempty"`
	TickCount int64            `json:"tick_count"`
	LastError string           `json:"last_error,omitempty"`
	Capturing int              `json:"capturing"`
	Streamers []StreamerStatus `json:"streamers"`
}
