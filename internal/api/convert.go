package api

import (
	"time"

	"streamvault/internal/capture"
	"streamvault/internal/control"
	"streamvault/internal/deps"
	"streamvault/internal/monitor"
	"streamvault/internal/registry"
)

// FromStreamer converts a registry row plus its live state. A zero state is
// reported as idle.
func FromStreamer(s registry.Streamer, state monitor.LiveState) Streamer {
	phase := state.Phase
	if phase == "" {
		phase = monitor.PhaseIdle
	}
	return Streamer{
		ID:          s.ID,
		Name:        s.Name,
		ChannelID:   s.ChannelID,
		CreatedAt:   FormatTime(s.CreatedAt),
		Phase:       string(phase),
		BroadcastID: state.BroadcastID,
		Title:       state.Title,
		Since:       FormatTime(state.Since),
	}
}

// FromStreamerStatuses converts monitor status rows.
func FromStreamerStatuses(rows []monitor.StreamerStatus) []Streamer {
	out := make([]Streamer, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromStreamer(row.Streamer, row.LiveState))
	}
	return out
}

// FromTask converts a capture task.
func FromTask(task capture.Task) CaptureTask {
	return CaptureTask{
		ID:           task.ID,
		StreamerName: task.StreamerName,
		ChannelID:    task.ChannelID,
		BroadcastID:  task.BroadcastID,
		Kind:         string(task.Kind),
		Status:       string(task.Status),
		OutputPath:   task.OutputPath,
		StartedAt:    FormatTime(task.StartedAt),
	}
}

// FromTasks converts a task snapshot.
func FromTasks(tasks []capture.Task) []CaptureTask {
	out := make([]CaptureTask, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, FromTask(task))
	}
	return out
}

// FromMonitorStatus converts loop health.
func FromMonitorStatus(status monitor.Status) MonitorStatus {
	return MonitorStatus{
		Running:             status.Running,
		PollIntervalSeconds: int(status.Interval / time.Second),
		LastTick:            FormatTime(status.LastTick),
		TickCount:           status.TickCount,
		LastError:           status.LastError,
		Capturing:           status.Capturing,
	}
}

// FromDependencies converts binary checks.
func FromDependencies(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, 0, len(statuses))
	for _, dep := range statuses {
		out = append(out, DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		})
	}
	return out
}

// FromRemoveResult converts a control removal outcome.
func FromRemoveResult(res control.RemoveResult) RemoveStreamerResponse {
	return RemoveStreamerResponse{Name: res.Name, ChannelID: res.ChannelID, Removed: res.Removed}
}

// FormatTime converts a time to RFC3339 or returns empty string.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
