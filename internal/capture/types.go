package capture

import (
	"time"

	"streamvault/internal/layout"
)

// Kind names a capture task type.
type Kind string

const (
	KindMedia      Kind = "media"
	KindTranscript Kind = "transcript"
)

// Kinds lists every task kind launched per detection, in launch order.
var Kinds = []Kind{KindMedia, KindTranscript}

// TaskStatus is the lifecycle state of a capture task.
type TaskStatus string

const (
	StatusRunning   TaskStatus = "running"
	StatusSucceeded TaskStatus = "succeeded"
	StatusFailed    TaskStatus = "failed"
)

// Terminal reports whether the status is final.
func (s TaskStatus) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Task is one capture action for one broadcast.
type Task struct {
	ID           string     `json:"id"`
	StreamerID   int64      `json:"streamer_id"`
	StreamerName string     `json:"streamer_name"`
	ChannelID    string     `json:"channel_id"`
	BroadcastID  string     `json:"broadcast_id"`
	Kind         Kind       `json:"kind"`
	OutputPath   string     `json:"output_path"`
	Status       TaskStatus `json:"status"`
	Error        string     `json:"error,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   time.Time  `json:"finished_at,omitempty"`
}

// Duration returns how long the task ran, or zero while it is running.
func (t Task) Duration() time.Duration {
	if t.FinishedAt.IsZero() {
		return 0
	}
	return t.FinishedAt.Sub(t.StartedAt)
}

// Result is the terminal outcome of both tasks for one detection.
type Result struct {
	ChannelID   string `json:"channel_id"`
	BroadcastID string `json:"broadcast_id"`
	Tasks       []Task `json:"tasks"`
}

// Succeeded reports whether every task succeeded.
func (r Result) Succeeded() bool {
	for _, task := range r.Tasks {
		if task.Status != StatusSucceeded {
			return false
		}
	}
	return len(r.Tasks) > 0
}

// Failed returns the tasks that did not succeed.
func (r Result) Failed() []Task {
	var out []Task
	for _, task := range r.Tasks {
		if task.Status != StatusSucceeded {
			out = append(out, task)
		}
	}
	return out
}

// Handle describes a dispatched capture.
type Handle struct {
	BroadcastID string       `json:"broadcast_id"`
	Paths       layout.Paths `json:"paths"`
	TaskIDs     []string     `json:"task_ids"`
}

// Observer receives task lifecycle events. Implementations must be safe for
// concurrent use.
type Observer interface {
	TaskStarted(task Task)
	TaskFinished(task Task)
}
