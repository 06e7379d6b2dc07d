package capture

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"streamvault/internal/layout"
	"streamvault/internal/live"
	"streamvault/internal/logging"
	"streamvault/internal/registry"
	"streamvault/internal/services"
)

// Dispatcher launches media and transcript captures for a detected broadcast.
type Dispatcher struct {
	executor Executor
	baseDir  string
	logger   *slog.Logger
	observer Observer
	now      func() time.Time
	newID    func() string

	mu      sync.Mutex
	running map[string]Task
	wg      sync.WaitGroup
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithObserver registers a task lifecycle observer (metrics, status).
func WithObserver(o Observer) DispatcherOption {
	return func(d *Dispatcher) {
		d.observer = o
	}
}

// WithClock overrides the time source used for paths and timestamps.
func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// NewDispatcher constructs a dispatcher writing captures under baseDir.
func NewDispatcher(executor Executor, baseDir string, logger *slog.Logger, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		executor: executor,
		baseDir:  baseDir,
		logger:   logging.NewComponentLogger(logger, "capture"),
		now:      time.Now,
		newID:    uuid.NewString,
		running:  make(map[string]Task),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type taskResult struct {
	task Task
	err  error
}

// StartCapture resolves output paths and launches both capture tasks. It
// returns once the tasks are running; onDone is invoked exactly once, from a
// background goroutine, after both tasks reached a terminal status. An error
// means no task was launched and onDone will not be called.
func (d *Dispatcher) StartCapture(ctx context.Context, streamer registry.Streamer, broadcast live.Broadcast, onDone func(Result)) (*Handle, error) {
	if d == nil || d.executor == nil {
		return nil, services.Wrap(services.ErrConfiguration, "capture", "start", "capture executor unavailable", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	startedAt := d.now()
	paths, err := layout.BuildPaths(d.baseDir, streamer.Name, broadcast.Title, startedAt).Resolve(broadcast.ID)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "capture", "resolve paths", "unable to resolve output paths", err)
	}
	if err := os.MkdirAll(paths.Dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "capture", "create directory",
			fmt.Sprintf("unable to create %q", paths.Dir), err)
	}

	tasks := make([]Task, 0, len(Kinds))
	for _, kind := range Kinds {
		output := paths.Media
		if kind == KindTranscript {
			output = paths.Transcript
		}
		tasks = append(tasks, Task{
			ID:           d.newID(),
			StreamerID:   streamer.ID,
			StreamerName: streamer.Name,
			ChannelID:    streamer.ChannelID,
			BroadcastID:  broadcast.ID,
			Kind:         kind,
			OutputPath:   output,
			Status:       StatusRunning,
			StartedAt:    startedAt,
		})
	}

	handle := &Handle{BroadcastID: broadcast.ID, Paths: paths}
	results := make(chan taskResult, len(tasks))

	d.mu.Lock()
	for _, task := range tasks {
		d.running[task.ID] = task
		handle.TaskIDs = append(handle.TaskIDs, task.ID)
	}
	d.mu.Unlock()

	logger := d.logger.With(
		logging.String(logging.FieldStreamer, streamer.Name),
		logging.String(logging.FieldChannelID, streamer.ChannelID),
		logging.String(logging.FieldBroadcastID, broadcast.ID),
	)
	logger.Info("capture started",
		logging.String(logging.FieldEventType, "capture_started"),
		logging.String("title", broadcast.Title),
		logging.String("media_path", paths.Media),
		logging.String("transcript_path", paths.Transcript),
	)

	d.wg.Add(len(tasks) + 1)
	for _, task := range tasks {
		if d.observer != nil {
			d.observer.TaskStarted(task)
		}
		go d.runTask(ctx, task, broadcast, results)
	}
	go d.collect(logger, len(tasks), streamer, broadcast, results, onDone)

	return handle, nil
}

func (d *Dispatcher) runTask(ctx context.Context, task Task, broadcast live.Broadcast, results chan<- taskResult) {
	defer d.wg.Done()
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("capture panicked: %v", r)
		}
		results <- taskResult{task: task, err: err}
	}()

	if !d.executor.Available(task.Kind) {
		err = services.Wrap(services.ErrExternalTool, "capture", string(task.Kind),
			"capture tool is not installed or not found in PATH", nil)
		return
	}
	taskCtx := services.WithCaptureKind(services.WithBroadcastID(ctx, task.BroadcastID), string(task.Kind))
	err = d.executor.Run(taskCtx, task.Kind, broadcast, task.OutputPath)
}

func (d *Dispatcher) collect(logger *slog.Logger, expected int, streamer registry.Streamer, broadcast live.Broadcast, results <-chan taskResult, onDone func(Result)) {
	defer d.wg.Done()

	result := Result{ChannelID: streamer.ChannelID, BroadcastID: broadcast.ID}
	for range expected {
		res := <-results
		task := res.task
		task.FinishedAt = d.now()
		if res.err != nil {
			task.Status = StatusFailed
			task.Error = res.err.Error()
			logging.WarnWithContext(logger, "capture task failed", "capture_task_failed",
				logging.String(logging.FieldCaptureKind, string(task.Kind)),
				logging.String(logging.FieldTaskID, task.ID),
				logging.Error(res.err),
				logging.String(logging.FieldErrorHint, "verify the capture tool is installed and the broadcast is reachable"),
				logging.String(logging.FieldImpact, fmt.Sprintf("%s for this broadcast was not captured", task.Kind)),
			)
		} else {
			task.Status = StatusSucceeded
			logger.Info("capture task completed",
				logging.String(logging.FieldEventType, "capture_task_completed"),
				logging.String(logging.FieldCaptureKind, string(task.Kind)),
				logging.String(logging.FieldTaskID, task.ID),
				logging.String("output_path", task.OutputPath),
				logging.Duration("duration", task.Duration()),
			)
		}

		d.mu.Lock()
		delete(d.running, task.ID)
		d.mu.Unlock()
		if d.observer != nil {
			d.observer.TaskFinished(task)
		}
		result.Tasks = append(result.Tasks, task)
	}

	slices.SortFunc(result.Tasks, func(a, b Task) int {
		return slices.Index(Kinds, a.Kind) - slices.Index(Kinds, b.Kind)
	})
	logger.Info("capture finished",
		logging.String(logging.FieldEventType, "capture_finished"),
		logging.Bool("succeeded", result.Succeeded()),
		logging.Int("failed_tasks", len(result.Failed())),
	)
	if onDone != nil {
		onDone(result)
	}
}

// Running returns a snapshot of in-flight tasks ordered by start time.
func (d *Dispatcher) Running() []Task {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	out := make([]Task, 0, len(d.running))
	for _, task := range d.running {
		out = append(out, task)
	}
	d.mu.Unlock()
	slices.SortFunc(out, func(a, b Task) int {
		if c := a.StartedAt.Compare(b.StartedAt); c != 0 {
			return c
		}
		if a.BroadcastID != b.BroadcastID {
			if a.BroadcastID < b.BroadcastID {
				return -1
			}
			return 1
		}
		return slices.Index(Kinds, a.Kind) - slices.Index(Kinds, b.Kind)
	})
	return out
}

// Wait blocks until every dispatched capture and its completion callback returned.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}
