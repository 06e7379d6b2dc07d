package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"streamvault/internal/api"
	"streamvault/internal/capture"
	"streamvault/internal/config"
	"streamvault/internal/control"
	"streamvault/internal/live"
	"streamvault/internal/logging"
	"streamvault/internal/metrics"
	"streamvault/internal/monitor"
	"streamvault/internal/notifications"
	"streamvault/internal/preflight"
	"streamvault/internal/registry"
)

const captureDrainTimeout = 15 * time.Second

// Dependencies are the collaborators the daemon cannot build from config alone.
type Dependencies struct {
	Store    *registry.Store
	Provider live.Provider
	Executor capture.Executor
	Notifier notifications.Service
	Logger   *slog.Logger
	LogPath  string
}

// Daemon coordinates the monitor and control surfaces and enforces
// single-instance execution.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *registry.Store
	notifier   notifications.Service
	metrics    *metrics.Metrics
	dispatcher *capture.Dispatcher
	monitor    *monitor.Monitor
	control    *control.Service
	api        *api.Server
	logPath    string

	lockPath string
	lock     *flock.Flock

	mu       sync.Mutex
	running  atomic.Bool
	cancel   context.CancelFunc
	done     chan struct{}
	doneOnce sync.Once
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, deps Dependencies) (*Daemon, error) {
	if cfg == nil || deps.Store == nil || deps.Provider == nil || deps.Executor == nil {
		return nil, errors.New("daemon requires config, store, provider, and executor")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	m := metrics.New()
	dispatcher := capture.NewDispatcher(deps.Executor, cfg.Paths.CaptureDir, logger, capture.WithObserver(m))
	mon := monitor.New(deps.Store, deps.Provider, dispatcher, logger,
		monitor.WithInterval(cfg.PollInterval()),
		monitor.WithCheckTimeout(cfg.CheckTimeout()),
		monitor.WithNotifier(notifier),
		monitor.WithMetrics(m),
	)

	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "daemon"),
		store:      deps.Store,
		notifier:   notifier,
		metrics:    m,
		dispatcher: dispatcher,
		monitor:    mon,
		control:    control.NewService(deps.Store, deps.Provider, logger),
		logPath:    deps.LogPath,
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
		done:       make(chan struct{}),
	}
	if bind := strings.TrimSpace(cfg.Paths.APIBind); bind != "" {
		d.api = api.NewServer(bind, d, logger, api.WithMetrics(m, d.updateGauges))
	}
	return d, nil
}

// Start acquires the daemon lock, launches the monitor, and starts the HTTP
// API when configured.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another streamvault daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.monitor.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start monitor: %w", err)
	}
	if d.api != nil {
		if err := d.api.Start(runCtx); err != nil {
			logging.WarnWithContext(d.logger, "api server failed to start", "api_start_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check paths.api_bind for conflicts"),
				logging.String(logging.FieldImpact, "HTTP control surface unavailable; IPC still works"),
			)
		}
	}

	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("streamvault daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.lockPath),
	)
	return nil
}

// Stop halts polling, cancels in-flight captures, and releases the lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return
	}

	d.monitor.Stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.waitForCaptures()
	if d.api != nil {
		d.api.Stop()
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_unlock_failed"),
		)
	}
	d.running.Store(false)
	d.doneOnce.Do(func() { close(d.done) })
	d.logger.Info("streamvault daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

func (d *Daemon) waitForCaptures() {
	finished := make(chan struct{})
	go func() {
		d.dispatcher.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(captureDrainTimeout):
		logging.WarnWithContext(d.logger, "captures did not exit in time", "capture_drain_timeout",
			logging.Int("running_tasks", len(d.dispatcher.Running())),
			logging.String(logging.FieldImpact, "capture processes may outlive the daemon"),
		)
	}
}

// Done is closed once Stop has completed.
func (d *Daemon) Done() <-chan struct{} {
	return d.done
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether the daemon has been started and not stopped.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// APIAddress returns the bound HTTP address, or "" when disabled.
func (d *Daemon) APIAddress() string {
	if d.api == nil {
		return ""
	}
	return d.api.Addr()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) api.DaemonStatus {
	monStatus := d.monitor.Status()
	streamers, err := d.ListStreamers(ctx)
	if err != nil {
		d.logger.Warn("failed to list streamers for status", logging.Error(err))
		streamers = api.FromStreamerStatuses(monStatus.Streamers)
	}
	return api.DaemonStatus{
		Running:        d.running.Load(),
		PID:            os.Getpid(),
		StorePath:      d.store.Path(),
		LockFilePath:   d.lockPath,
		CaptureDir:     d.cfg.Paths.CaptureDir,
		LogPath:        d.logPath,
		APIAddress:     d.APIAddress(),
		Monitor:        api.FromMonitorStatus(monStatus),
		Streamers:      streamers,
		ActiveCaptures: api.FromTasks(d.dispatcher.Running()),
		Dependencies:   api.FromDependencies(preflight.CheckSystemDeps(ctx, d.cfg)),
	}
}

// ListStreamers returns the registry joined with live state.
func (d *Daemon) ListStreamers(ctx context.Context) ([]api.Streamer, error) {
	rows, err := d.control.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]api.Streamer, 0, len(rows))
	for _, row := range rows {
		state, _ := d.monitor.State(row.ChannelID)
		out = append(out, api.FromStreamer(row, state))
	}
	return out, nil
}

// AddStreamer resolves and registers a streamer. The monitor picks it up on
// its next tick.
func (d *Daemon) AddStreamer(ctx context.Context, name string) (api.Streamer, error) {
	streamer, err := d.control.Add(ctx, name)
	if err != nil {
		return api.Streamer{}, err
	}
	return api.FromStreamer(streamer, monitor.LiveState{}), nil
}

// RemoveStreamer resolves and removes a streamer. An in-flight capture runs
// to completion.
func (d *Daemon) RemoveStreamer(ctx context.Context, name string) (api.RemoveStreamerResponse, error) {
	res, err := d.control.Remove(ctx, name)
	if err != nil {
		return api.FromRemoveResult(res), err
	}
	return api.FromRemoveResult(res), nil
}

// TestNotification sends a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.Publish(ctx, notifications.EventTest, nil); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

func (d *Daemon) updateGauges() {
	status := d.monitor.Status()
	d.metrics.SetCapturing(status.Capturing)
	d.metrics.SetStreamers(len(status.Streamers))
}
