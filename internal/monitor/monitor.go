package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"streamvault/internal/live"
	"streamvault/internal/logging"
	"streamvault/internal/metrics"
	"streamvault/internal/notifications"
	"streamvault/internal/registry"
)

const (
	defaultInterval     = 60 * time.Second
	defaultCheckTimeout = 20 * time.Second
)

// Monitor owns the LiveState map and the poll loop.
type Monitor struct {
	lister       Lister
	provider     live.Provider
	dispatcher   Dispatcher
	notifier     notifications.Service
	metrics      *metrics.Metrics
	logger       *slog.Logger
	interval     time.Duration
	checkTimeout time.Duration
	now          func() time.Time

	mu         sync.Mutex
	states     map[string]*LiveState
	streamers  []registry.Streamer
	running    bool
	cancel     context.CancelFunc
	captureCtx context.Context
	lastTick   time.Time
	tickCount  int64
	lastErr    error
	wg         sync.WaitGroup
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithInterval sets the delay between ticks.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithCheckTimeout bounds each CheckLive call.
func WithCheckTimeout(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.checkTimeout = d
		}
	}
}

// WithNotifier publishes live and capture events.
func WithNotifier(n notifications.Service) Option {
	return func(m *Monitor) {
		if n != nil {
			m.notifier = n
		}
	}
}

// WithMetrics records tick and detection counters.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Monitor) {
		m.metrics = mt
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

// New constructs a monitor. Call Start to begin polling or Tick to drive it
// manually.
func New(lister Lister, provider live.Provider, dispatcher Dispatcher, logger *slog.Logger, opts ...Option) *Monitor {
	m := &Monitor{
		lister:       lister,
		provider:     provider,
		dispatcher:   dispatcher,
		notifier:     notifications.NewService(nil),
		logger:       logging.NewComponentLogger(logger, "monitor"),
		interval:     defaultInterval,
		checkTimeout: defaultCheckTimeout,
		now:          time.Now,
		states:       make(map[string]*LiveState),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns a copy of the live state for channelID.
func (m *Monitor) State(channelID string) (LiveState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.states[channelID]
	if !ok {
		return LiveState{}, false
	}
	return *state, true
}

// Status reports loop health and per-streamer state from the last snapshot.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := Status{
		Running:   m.running,
		Interval:  m.interval,
		LastTick:  m.lastTick,
		TickCount: m.tickCount,
		Capturing: m.capturingLocked(),
		Streamers: make([]StreamerStatus, 0, len(m.streamers)),
	}
	if m.lastErr != nil {
		status.LastError = m.lastErr.Error()
	}
	for _, streamer := range m.streamers {
		entry := StreamerStatus{Streamer: streamer, LiveState: LiveState{Phase: PhaseIdle}}
		if state, ok := m.states[streamer.ChannelID]; ok {
			entry.LiveState = *state
		}
		status.Streamers = append(status.Streamers, entry)
	}
	return status
}

func (m *Monitor) capturingLocked() int {
	count := 0
	for _, state := range m.states {
		if state.Phase == PhaseCapturing {
			count++
		}
	}
	return count
}
