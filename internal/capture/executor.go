package capture

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"

	"streamvault/internal/config"
	"streamvault/internal/deps"
	"streamvault/internal/live"
	"streamvault/internal/logging"
	"streamvault/internal/services"
)

// Executor performs a single capture action.
type Executor interface {
	// Available reports whether the tool for kind can run at all.
	Available(kind Kind) bool
	// Run blocks until the capture for kind finishes writing outputPath.
	Run(ctx context.Context, kind Kind, broadcast live.Broadcast, outputPath string) error
}

// Runner abstracts process execution for testability.
type Runner interface {
	Run(ctx context.Context, binary string, args []string, onOutput func(string)) error
}

// ToolExecutor runs yt-dlp for media and chat_downloader for transcripts.
type ToolExecutor struct {
	mediaBinary      string
	mediaFormat      string
	transcriptBinary string
	watchURLBase     string
	runner           Runner
	lookup           func(string) bool
	logger           *slog.Logger
}

var _ Executor = (*ToolExecutor)(nil)

// ExecutorOption configures a ToolExecutor.
type ExecutorOption func(*ToolExecutor)

// WithRunner injects a custom process runner (primarily for tests).
func WithRunner(r Runner) ExecutorOption {
	return func(e *ToolExecutor) {
		if r != nil {
			e.runner = r
		}
	}
}

// WithLookup overrides how binary availability is resolved.
func WithLookup(fn func(string) bool) ExecutorOption {
	return func(e *ToolExecutor) {
		if fn != nil {
			e.lookup = fn
		}
	}
}

// NewToolExecutor builds an executor from the capture configuration.
func NewToolExecutor(cfg config.Capture, logger *slog.Logger, opts ...ExecutorOption) *ToolExecutor {
	e := &ToolExecutor{
		mediaBinary:      strings.TrimSpace(cfg.MediaBinary),
		mediaFormat:      strings.TrimSpace(cfg.MediaFormat),
		transcriptBinary: strings.TrimSpace(cfg.TranscriptBinary),
		watchURLBase:     strings.TrimSpace(cfg.WatchURLBase),
		runner:           processRunner{},
		lookup:           deps.Available,
		logger:           logging.NewComponentLogger(logger, "capture"),
	}
	if e.mediaFormat == "" {
		e.mediaFormat = "best"
	}
	if e.watchURLBase == "" {
		e.watchURLBase = "https://www.youtube.com/watch?v="
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Available reports whether the binary backing kind resolves on PATH.
func (e *ToolExecutor) Available(kind Kind) bool {
	binary, ok := e.binary(kind)
	return ok && e.lookup(binary)
}

// Run executes the tool for kind against the broadcast's watch URL.
func (e *ToolExecutor) Run(ctx context.Context, kind Kind, broadcast live.Broadcast, outputPath string) error {
	binary, ok := e.binary(kind)
	if !ok {
		return services.Wrap(services.ErrValidation, "capture", string(kind), "unknown capture kind", nil)
	}
	args, err := e.Args(kind, broadcast, outputPath)
	if err != nil {
		return err
	}

	logger := e.logger.With(
		logging.String(logging.FieldCaptureKind, string(kind)),
		logging.String(logging.FieldBroadcastID, broadcast.ID),
	)
	logger.Debug("capture command", logging.String("binary", binary), logging.Any("args", args))

	tail := newLineTail(5)
	runErr := e.runner.Run(ctx, binary, args, func(line string) {
		tail.add(line)
		logger.Debug(line, logging.String(logging.FieldEventType, "capture_output"))
	})
	if runErr != nil {
		message := fmt.Sprintf("%s exited with error", binary)
		if last := tail.String(); last != "" {
			message += ": " + last
		}
		return services.Wrap(services.ErrExternalTool, "capture", string(kind), message, runErr)
	}
	return nil
}

// Args returns the argument vector passed to the tool for kind.
func (e *ToolExecutor) Args(kind Kind, broadcast live.Broadcast, outputPath string) ([]string, error) {
	if strings.TrimSpace(broadcast.ID) == "" {
		return nil, services.Wrap(services.ErrValidation, "capture", string(kind), "broadcast id is empty", nil)
	}
	if strings.TrimSpace(outputPath) == "" {
		return nil, services.Wrap(services.ErrValidation, "capture", string(kind), "output path is empty", nil)
	}
	url := e.watchURLBase + broadcast.ID
	switch kind {
	case KindMedia:
		return []string{"--format", e.mediaFormat, "--output", outputPath, url}, nil
	case KindTranscript:
		return []string{url, "--output", outputPath}, nil
	default:
		return nil, services.Wrap(services.ErrValidation, "capture", string(kind), "unknown capture kind", nil)
	}
}

func (e *ToolExecutor) binary(kind Kind) (string, bool) {
	switch kind {
	case KindMedia:
		return e.mediaBinary, e.mediaBinary != ""
	case KindTranscript:
		return e.transcriptBinary, e.transcriptBinary != ""
	default:
		return "", false
	}
}

type processRunner struct{}

func (processRunner) Run(ctx context.Context, binary string, args []string, onOutput func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var wg sync.WaitGroup
	scan := func(r io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			if onOutput != nil {
				onOutput(scanner.Text())
			}
		}
		// Drain whatever the scanner refused so the child never blocks on a full pipe.
		_, _ = io.Copy(io.Discard, r)
	}
	wg.Add(2)
	go scan(stdout)
	go scan(stderr)
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Join(ctxErr, err)
		}
		return fmt.Errorf("wait command: %w", err)
	}
	return nil
}

// lineTail keeps the last n output lines for error messages.
type lineTail struct {
	mu    sync.Mutex
	lines []string
	max   int
}

func newLineTail(n int) *lineTail {
	return &lineTail{max: n}
}

func (t *lineTail) add(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
	if len(t.lines) > t.max {
		t.lines = t.lines[len(t.lines)-t.max:]
	}
}

func (t *lineTail) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.lines) == 0 {
		return ""
	}
	return t.lines[len(t.lines)-1]
}
