package monitor

import (
	"context"
	"errors"
	"time"

	"streamvault/internal/logging"
)

// Start launches the poll loop. The first tick runs immediately; each later
// tick starts interval after the previous one finished. Captures dispatched
// by the loop are bound to ctx, not to Stop.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("monitor already running")
	}
	if m.lister == nil || m.provider == nil || m.dispatcher == nil {
		m.mu.Unlock()
		return errors.New("monitor dependencies not configured")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.captureCtx = ctx
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	m.logger.Info("monitor started",
		logging.String(logging.FieldEventType, "monitor_started"),
		logging.Duration("interval", m.interval),
		logging.Duration("check_timeout", m.checkTimeout),
	)
	go m.loop(runCtx)
	return nil
}

// Stop terminates the poll loop and waits for the in-flight tick.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
	m.logger.Info("monitor stopped", logging.String(logging.FieldEventType, "monitor_stopped"))
}

// Running reports whether the poll loop is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) loop(ctx context.Context) {
	defer m.wg.Done()
	for {
		if err := m.Tick(ctx); err != nil && ctx.Err() == nil {
			logging.WarnWithContext(m.logger, "monitor tick failed", "tick_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check registry database access"),
				logging.String(logging.FieldImpact, "no streamers were checked this tick"),
			)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(m.interval):
		}
	}
}
