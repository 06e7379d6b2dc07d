package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"streamvault/internal/capture"
	"streamvault/internal/live"
	"streamvault/internal/logging"
	"streamvault/internal/notifications"
	"streamvault/internal/registry"
	"streamvault/internal/services"
)

// Tick runs one poll cycle. It returns an error only when the registry
// snapshot could not be read; per-streamer failures are logged and isolated.
func (m *Monitor) Tick(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	streamers, err := m.lister.List(ctx)
	if err != nil {
		m.mu.Lock()
		m.lastErr = err
		m.mu.Unlock()
		return fmt.Errorf("list streamers: %w", err)
	}

	m.prune(streamers)

	var wg sync.WaitGroup
	for _, streamer := range streamers {
		wg.Add(1)
		go func(s registry.Streamer) {
			defer wg.Done()
			m.checkStreamer(ctx, s)
		}(streamer)
	}
	wg.Wait()

	m.mu.Lock()
	m.lastTick = m.now()
	m.tickCount++
	m.lastErr = nil
	capturing := m.capturingLocked()
	m.mu.Unlock()

	m.metrics.IncTicks()
	m.metrics.SetStreamers(len(streamers))
	m.metrics.SetCapturing(capturing)
	m.logger.Debug("tick complete",
		logging.String(logging.FieldEventType, "tick_complete"),
		logging.Int("streamers", len(streamers)),
		logging.Int("capturing", capturing),
	)
	return nil
}

// prune drops idle state for streamers no longer registered. Capturing state
// is kept until the capture completes so the completion callback has a
// target; re-adding the streamer in the meantime adopts it again.
func (m *Monitor) prune(streamers []registry.Streamer) {
	present := make(map[string]struct{}, len(streamers))
	for _, s := range streamers {
		present[s.ChannelID] = struct{}{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.streamers = append(m.streamers[:0:0], streamers...)
	for channelID, state := range m.states {
		if _, ok := present[channelID]; ok {
			state.orphaned = false
			continue
		}
		if state.Phase == PhaseCapturing {
			state.orphaned = true
			continue
		}
		delete(m.states, channelID)
	}
}

func (m *Monitor) checkStreamer(ctx context.Context, streamer registry.Streamer) {
	logger := m.logger.With(
		logging.String(logging.FieldStreamer, streamer.Name),
		logging.String(logging.FieldChannelID, streamer.ChannelID),
	)

	checkCtx, cancel := context.WithTimeout(services.WithChannelID(ctx, streamer.ChannelID), m.checkTimeout)
	broadcast, err := m.provider.CheckLive(checkCtx, streamer.ChannelID)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		m.metrics.IncProviderErrors()
		logging.WarnWithContext(logger, "live status check failed", "live_check_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check YouTube API key, quota, and network access"),
			logging.String(logging.FieldImpact, "live status unknown until the next tick"),
		)
		return
	}
	if broadcast == nil {
		m.markOffline(streamer.ChannelID)
		return
	}

	if !m.beginCapture(streamer.ChannelID, *broadcast) {
		logger.Debug("broadcast already captured or in progress; detection ignored",
			logging.String(logging.FieldEventType, "live_duplicate_ignored"),
			logging.String(logging.FieldBroadcastID, broadcast.ID),
		)
		return
	}
	m.dispatch(ctx, logger, streamer, *broadcast)
}

// beginCapture is the atomic idle to capturing guard.
func (m *Monitor) beginCapture(channelID string, broadcast live.Broadcast) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.states[channelID]
	if !ok {
		state = &LiveState{Phase: PhaseIdle, Since: m.now()}
		m.states[channelID] = state
	}
	if state.Phase != PhaseIdle || state.LastBroadcastID == broadcast.ID {
		return false
	}
	state.Phase = PhaseCapturing
	state.BroadcastID = broadcast.ID
	state.Title = broadcast.Title
	state.Since = m.now()
	return true
}

// endCapture returns the streamer to idle if the state still belongs to
// broadcastID. With remember set, the broadcast is not dispatched again while
// it stays live. It reports whether a transition happened.
func (m *Monitor) endCapture(channelID, broadcastID string, remember bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.states[channelID]
	if !ok || state.Phase != PhaseCapturing || state.BroadcastID != broadcastID {
		return false
	}
	if state.orphaned {
		delete(m.states, channelID)
		return true
	}
	state.Phase = PhaseIdle
	state.LastBroadcastID = ""
	if remember {
		state.LastBroadcastID = state.BroadcastID
	}
	state.BroadcastID = ""
	state.Title = ""
	state.Since = m.now()
	return true
}

// markOffline forgets the last captured broadcast once the channel is no
// longer live.
func (m *Monitor) markOffline(channelID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state, ok := m.states[channelID]; ok && state.Phase == PhaseIdle {
		state.LastBroadcastID = ""
	}
}

func (m *Monitor) dispatchContext(tickCtx context.Context) context.Context {
	m.mu.Lock()
	captureCtx := m.captureCtx
	m.mu.Unlock()
	if captureCtx != nil {
		return captureCtx
	}
	return context.WithoutCancel(tickCtx)
}

func (m *Monitor) dispatch(ctx context.Context, logger *slog.Logger, streamer registry.Streamer, broadcast live.Broadcast) {
	logger = logger.With(logging.String(logging.FieldBroadcastID, broadcast.ID))
	captureCtx := m.dispatchContext(ctx)

	handle, err := m.dispatcher.StartCapture(captureCtx, streamer, broadcast, func(result capture.Result) {
		m.onCaptureDone(captureCtx, logger, streamer, broadcast, result)
	})
	if err != nil {
		m.endCapture(streamer.ChannelID, broadcast.ID, false)
		logging.ErrorWithContext(logger, "capture dispatch failed", "capture_dispatch_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check capture_dir permissions and free space"),
			logging.String(logging.FieldImpact, "capture will be retried on the next tick"),
		)
		m.publish(captureCtx, logger, notifications.EventError, notifications.Payload{
			"context": "capture dispatch for " + streamer.Name,
			"error":   err,
		})
		return
	}

	m.metrics.IncLiveDetected()
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "live_detected"),
		logging.String("title", broadcast.Title),
	}
	if handle != nil {
		attrs = append(attrs, logging.String("media_path", handle.Paths.Media))
	}
	logger.Info("live broadcast detected; capture dispatched", logging.Args(attrs...)...)
	m.publish(captureCtx, logger, notifications.EventLiveDetected, notifications.Payload{
		"streamer": streamer.Name,
		"title":    broadcast.Title,
	})
}

func (m *Monitor) onCaptureDone(ctx context.Context, logger *slog.Logger, streamer registry.Streamer, broadcast live.Broadcast, result capture.Result) {
	m.endCapture(streamer.ChannelID, broadcast.ID, true)

	if result.Succeeded() {
		var mediaPath string
		for _, task := range result.Tasks {
			if task.Kind == capture.KindMedia {
				mediaPath = task.OutputPath
			}
		}
		logger.Info("capture complete; streamer idle",
			logging.String(logging.FieldEventType, "capture_complete"),
		)
		m.publish(ctx, logger, notifications.EventCaptureCompleted, notifications.Payload{
			"streamer":  streamer.Name,
			"title":     broadcast.Title,
			"mediaPath": mediaPath,
		})
		return
	}

	if ctx.Err() != nil {
		logger.Info("capture interrupted by shutdown; streamer idle",
			logging.String(logging.FieldEventType, "capture_interrupted"),
		)
		return
	}

	failed := result.Failed()
	kinds := make([]string, 0, len(failed))
	reasons := make([]string, 0, len(failed))
	for _, task := range failed {
		kinds = append(kinds, string(task.Kind))
		if task.Error != "" {
			reasons = append(reasons, task.Error)
		}
	}
	logger.Warn("capture finished with failures; streamer idle",
		logging.String(logging.FieldEventType, "capture_incomplete"),
		logging.Any("failed_kinds", kinds),
		logging.String(logging.FieldErrorHint, "inspect capture task log lines for the failing tool"),
		logging.String(logging.FieldImpact, "broadcast archive is incomplete"),
	)
	m.publish(ctx, logger, notifications.EventCaptureFailed, notifications.Payload{
		"streamer": streamer.Name,
		"title":    broadcast.Title,
		"failed":   kinds,
		"error":    strings.Join(reasons, "; "),
	})
}

func (m *Monitor) publish(ctx context.Context, logger *slog.Logger, event notifications.Event, payload notifications.Payload) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Publish(context.WithoutCancel(ctx), event, payload); err != nil {
		logger.Warn("notification failed",
			logging.String(logging.FieldEventType, "notification_failed"),
			logging.String("event", string(event)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "notification not delivered"),
		)
	}
}
