package monitor_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"streamvault/internal/capture"
	"streamvault/internal/live"
	"streamvault/internal/logging"
	"streamvault/internal/monitor"
	"streamvault/internal/notifications"
	"streamvault/internal/registry"
	"streamvault/internal/services"
)

type fakeLister struct {
	mu        sync.Mutex
	streamers []registry.Streamer
	err       error
}

func (f *fakeLister) List(context.Context) ([]registry.Streamer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]registry.Streamer(nil), f.streamers...), nil
}

func (f *fakeLister) set(streamers ...registry.Streamer) {
	f.mu.Lock()
	f.streamers = streamers
	f.mu.Unlock()
}

type liveResult struct {
	broadcast *live.Broadcast
	err       error
}

type fakeProvider struct {
	mu      sync.Mutex
	results map[string]liveResult
	calls   map[string]int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{results: make(map[string]liveResult), calls: make(map[string]int)}
}

func (f *fakeProvider) CheckLive(_ context.Context, channelID string) (*live.Broadcast, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[channelID]++
	res := f.results[channelID]
	return res.broadcast, res.err
}

func (f *fakeProvider) ResolveChannelID(context.Context, string) (string, error) {
	return "", services.ErrNotFound
}

func (f *fakeProvider) setLive(channelID, broadcastID string) {
	f.mu.Lock()
	f.results[channelID] = liveResult{broadcast: &live.Broadcast{ID: broadcastID, Title: "Stream " + broadcastID}}
	f.mu.Unlock()
}

func (f *fakeProvider) setOffline(channelID string) {
	f.mu.Lock()
	f.results[channelID] = liveResult{}
	f.mu.Unlock()
}

func (f *fakeProvider) setError(channelID string, err error) {
	f.mu.Lock()
	f.results[channelID] = liveResult{err: err}
	f.mu.Unlock()
}

type dispatchCall struct {
	streamer  registry.Streamer
	broadcast live.Broadcast
	onDone    func(capture.Result)
}

type fakeDispatcher struct {
	mu    sync.Mutex
	calls []dispatchCall
	err   error
}

func (f *fakeDispatcher) StartCapture(_ context.Context, streamer registry.Streamer, broadcast live.Broadcast, onDone func(capture.Result)) (*capture.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.calls = append(f.calls, dispatchCall{streamer: streamer, broadcast: broadcast, onDone: onDone})
	return &capture.Handle{BroadcastID: broadcast.ID}, nil
}

func (f *fakeDispatcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeDispatcher) complete(t *testing.T, index int, status capture.TaskStatus) {
	t.Helper()
	f.mu.Lock()
	call := f.calls[index]
	f.mu.Unlock()
	call.onDone(capture.Result{
		ChannelID:   call.streamer.ChannelID,
		BroadcastID: call.broadcast.ID,
		Tasks: []capture.Task{
			{Kind: capture.KindMedia, Status: status, OutputPath: "/captures/a.mp4"},
			{Kind: capture.KindTranscript, Status: capture.StatusSucceeded},
		},
	})
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (r *recordingNotifier) Publish(_ context.Context, event notifications.Event, _ notifications.Payload) error {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	return nil
}

func (r *recordingNotifier) list() []notifications.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notifications.Event(nil), r.events...)
}

var (
	alice = registry.Streamer{ID: 1, Name: "AliceGaming", ChannelID: "UC123"}
	bob   = registry.Streamer{ID: 2, Name: "BobPlays", ChannelID: "UC456"}
)

type harness struct {
	lister     *fakeLister
	provider   *fakeProvider
	dispatcher *fakeDispatcher
	notifier   *recordingNotifier
	monitor    *monitor.Monitor
}

func newHarness(streamers ...registry.Streamer) *harness {
	h := &harness{
		lister:     &fakeLister{streamers: streamers},
		provider:   newFakeProvider(),
		dispatcher: &fakeDispatcher{},
		notifier:   &recordingNotifier{},
	}
	h.monitor = monitor.New(h.lister, h.provider, h.dispatcher, logging.NewNop(),
		monitor.WithNotifier(h.notifier),
		monitor.WithCheckTimeout(time.Second),
	)
	return h
}

func (h *harness) tick(t *testing.T) {
	t.Helper()
	if err := h.monitor.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
}

func phase(t *testing.T, m *monitor.Monitor, channelID string) monitor.Phase {
	t.Helper()
	state, ok := m.State(channelID)
	if !ok {
		return ""
	}
	return state.Phase
}

func TestStillLiveDispatchesOnce(t *testing.T) {
	h := newHarness(alice)
	h.provider.setLive("UC123", "vid1")

	for range 3 {
		h.tick(t)
	}

	if got := h.dispatcher.count(); got != 1 {
		t.Fatalf("expected exactly one dispatch, got %d", got)
	}
	state, _ := h.monitor.State("UC123")
	if state.Phase != monitor.PhaseCapturing || state.BroadcastID != "vid1" {
		t.Fatalf("unexpected state: %+v", state)
	}
}

func TestContinuouslyLiveBroadcastCapturedOnce(t *testing.T) {
	h := newHarness(alice)
	h.provider.setLive("UC123", "vid1")

	for i := range 4 {
		h.tick(t)
		if i < h.dispatcher.count() {
			h.dispatcher.complete(t, i, capture.StatusFailed)
		}
	}

	if got := h.dispatcher.count(); got != 1 {
		t.Fatalf("expected vid1 dispatched once while it stays live, got %d", got)
	}
	state, _ := h.monitor.State("UC123")
	if state.Phase != monitor.PhaseIdle || state.LastBroadcastID != "vid1" {
		t.Fatalf("unexpected state: %+v", state)
	}
	failed := 0
	for _, event := range h.notifier.list() {
		if event == notifications.EventCaptureFailed {
			failed++
		}
	}
	if failed != 1 {
		t.Fatalf("expected one capture_failed notification, got %d", failed)
	}
}

func TestSameBroadcastCapturedAgainAfterGoingOffline(t *testing.T) {
	h := newHarness(alice)
	h.provider.setLive("UC123", "vid1")
	h.tick(t)
	h.dispatcher.complete(t, 0, capture.StatusSucceeded)

	h.provider.setOffline("UC123")
	h.tick(t)
	if state, _ := h.monitor.State("UC123"); state.LastBroadcastID != "" {
		t.Fatalf("expected offline tick to forget vid1, got %+v", state)
	}

	h.provider.setLive("UC123", "vid1")
	h.tick(t)
	if got := h.dispatcher.count(); got != 2 {
		t.Fatalf("expected capture after the channel went offline and back, got %d", got)
	}
}

func TestProviderErrorKeepsCapturedBroadcast(t *testing.T) {
	h := newHarness(alice)
	h.provider.setLive("UC123", "vid1")
	h.tick(t)
	h.dispatcher.complete(t, 0, capture.StatusSucceeded)

	h.provider.setError("UC123", services.ErrProviderUnavailable)
	h.tick(t)
	h.provider.setLive("UC123", "vid1")
	h.tick(t)
	if got := h.dispatcher.count(); got != 1 {
		t.Fatalf("provider error must not reset the captured broadcast, got %d dispatches", got)
	}
}

func TestShutdownCancellationSkipsFailureNotification(t *testing.T) {
	h := newHarness(alice)
	h.provider.setLive("UC123", "vid1")
	m := monitor.New(h.lister, h.provider, h.dispatcher, logging.NewNop(),
		monitor.WithNotifier(h.notifier),
		monitor.WithInterval(time.Hour),
	)

	ctx, cancel := context.WithCancel(context.Background())
	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for h.dispatcher.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if h.dispatcher.count() != 1 {
		t.Fatal("expected capture dispatched by the first tick")
	}
	m.Stop()
	cancel()
	h.dispatcher.complete(t, 0, capture.StatusFailed)

	if got := phase(t, m, "UC123"); got != monitor.PhaseIdle {
		t.Fatalf("expected idle after cancelled capture, got %q", got)
	}
	for _, event := range h.notifier.list() {
		if event == notifications.EventCaptureFailed {
			t.Fatal("cancelled capture must not publish capture_failed")
		}
	}
}

func TestDifferentBroadcastWhileCapturingIgnored(t *testing.T) {
	h := newHarness(alice)
	h.provider.setLive("UC123", "vid1")
	h.tick(t)
	h.provider.setLive("UC123", "vid2")
	h.tick(t)

	if got := h.dispatcher.count(); got != 1 {
		t.Fatalf("expected second broadcast to be ignored, got %d dispatches", got)
	}
	if state, _ := h.monitor.State("UC123"); state.BroadcastID != "vid1" {
		t.Fatalf("expected original broadcast to be kept, got %q", state.BroadcastID)
	}
}

func TestRedetectionAfterCompletion(t *testing.T) {
	h := newHarness(alice)
	h.provider.setLive("UC123", "vid1")
	h.tick(t)

	h.dispatcher.complete(t, 0, capture.StatusSucceeded)
	if got := phase(t, h.monitor, "UC123"); got != monitor.PhaseIdle {
		t.Fatalf("expected idle after completion, got %q", got)
	}

	h.provider.setLive("UC123", "vid2")
	h.tick(t)
	if got := h.dispatcher.count(); got != 2 {
		t.Fatalf("expected re-dispatch after idle, got %d", got)
	}
	if state, _ := h.monitor.State("UC123"); state.BroadcastID != "vid2" {
		t.Fatalf("expected new broadcast id, got %q", state.BroadcastID)
	}
}

func TestFailedCaptureStillReturnsToIdle(t *testing.T) {
	h := newHarness(alice)
	h.provider.setLive("UC123", "vid1")
	h.tick(t)
	h.dispatcher.complete(t, 0, capture.StatusFailed)

	if got := phase(t, h.monitor, "UC123"); got != monitor.PhaseIdle {
		t.Fatalf("expected idle after failed capture, got %q", got)
	}
	events := h.notifier.list()
	if len(events) != 2 || events[0] != notifications.EventLiveDetected || events[1] != notifications.EventCaptureFailed {
		t.Fatalf("unexpected notifications: %v", events)
	}
}

func TestStaleCompletionIgnored(t *testing.T) {
	h := newHarness(alice)
	h.provider.setLive("UC123", "vid1")
	h.tick(t)
	h.dispatcher.complete(t, 0, capture.StatusSucceeded)
	h.provider.setLive("UC123", "vid2")
	h.tick(t)

	// A second completion for vid1 must not end the vid2 capture.
	h.dispatcher.complete(t, 0, capture.StatusSucceeded)
	if state, _ := h.monitor.State("UC123"); state.Phase != monitor.PhaseCapturing || state.BroadcastID != "vid2" {
		t.Fatalf("stale completion changed state: %+v", state)
	}
}

func TestProviderErrorLeavesStateUntouched(t *testing.T) {
	h := newHarness(alice)
	h.provider.setLive("UC123", "vid1")
	h.tick(t)

	h.provider.setError("UC123", services.ErrProviderUnavailable)
	h.tick(t)
	if state, _ := h.monitor.State("UC123"); state.Phase != monitor.PhaseCapturing || state.BroadcastID != "vid1" {
		t.Fatalf("provider error mutated state: %+v", state)
	}

	h.dispatcher.complete(t, 0, capture.StatusSucceeded)
	h.tick(t)
	if got := phase(t, h.monitor, "UC123"); got != monitor.PhaseIdle {
		t.Fatalf("expected idle to survive provider error, got %q", got)
	}
	if got := h.dispatcher.count(); got != 1 {
		t.Fatalf("provider error must not dispatch, got %d", got)
	}
}

func TestFailuresAreIsolatedPerStreamer(t *testing.T) {
	h := newHarness(alice, bob)
	h.provider.setError("UC123", errors.New("boom"))
	h.provider.setLive("UC456", "vidB")
	h.tick(t)

	if got := h.dispatcher.count(); got != 1 {
		t.Fatalf("expected bob to dispatch despite alice failing, got %d", got)
	}
	if got := phase(t, h.monitor, "UC456"); got != monitor.PhaseCapturing {
		t.Fatalf("expected bob capturing, got %q", got)
	}
	if _, ok := h.monitor.State("UC123"); ok {
		t.Fatal("provider error must not create state")
	}
}

func TestOfflineStreamerStaysIdle(t *testing.T) {
	h := newHarness(alice)
	h.provider.setOffline("UC123")
	h.tick(t)
	if h.dispatcher.count() != 0 {
		t.Fatal("offline streamer must not dispatch")
	}
	if got := h.monitor.Status().Streamers[0].Phase; got != monitor.PhaseIdle {
		t.Fatalf("expected status to report idle, got %q", got)
	}
}

func TestDispatchErrorRollsBackToIdle(t *testing.T) {
	h := newHarness(alice)
	h.provider.setLive("UC123", "vid1")
	h.dispatcher.err = errors.New("disk full")
	h.tick(t)

	if got := phase(t, h.monitor, "UC123"); got != monitor.PhaseIdle {
		t.Fatalf("expected rollback to idle, got %q", got)
	}
	if events := h.notifier.list(); len(events) != 1 || events[0] != notifications.EventError {
		t.Fatalf("expected error notification, got %v", events)
	}

	h.dispatcher.mu.Lock()
	h.dispatcher.err = nil
	h.dispatcher.mu.Unlock()
	h.tick(t)
	if got := h.dispatcher.count(); got != 1 {
		t.Fatalf("expected retry on next tick, got %d dispatches", got)
	}
}

func TestRemovedStreamerStateIsPruned(t *testing.T) {
	h := newHarness(alice, bob)
	h.provider.setOffline("UC123")
	h.provider.setLive("UC456", "vidB")
	h.tick(t)
	if _, ok := h.monitor.State("UC123"); ok {
		t.Fatal("offline streamers need no state")
	}

	h.provider.setLive("UC123", "vidA")
	h.tick(t)
	h.dispatcher.complete(t, 1, capture.StatusSucceeded)
	if got := phase(t, h.monitor, "UC123"); got != monitor.PhaseIdle {
		t.Fatalf("expected alice idle, got %q", got)
	}

	h.lister.set()
	h.tick(t)
	if _, ok := h.monitor.State("UC123"); ok {
		t.Fatal("expected idle state of removed streamer to be pruned")
	}
	if got := phase(t, h.monitor, "UC456"); got != monitor.PhaseCapturing {
		t.Fatalf("capturing state must survive removal until completion, got %q", got)
	}

	h.dispatcher.complete(t, 0, capture.StatusSucceeded)
	if _, ok := h.monitor.State("UC456"); ok {
		t.Fatal("expected orphaned state to be dropped on completion")
	}
}

func TestListErrorReturnedAndStateKept(t *testing.T) {
	h := newHarness(alice)
	h.provider.setLive("UC123", "vid1")
	h.tick(t)

	h.lister.mu.Lock()
	h.lister.err = errors.New("database locked")
	h.lister.mu.Unlock()
	if err := h.monitor.Tick(context.Background()); err == nil {
		t.Fatal("expected list error")
	}
	if got := phase(t, h.monitor, "UC123"); got != monitor.PhaseCapturing {
		t.Fatalf("list error must not prune state, got %q", got)
	}
	if h.monitor.Status().LastError == "" {
		t.Fatal("expected status to report last error")
	}
}

func TestStartRunsTicksUntilStopped(t *testing.T) {
	h := newHarness(alice)
	h.provider.setOffline("UC123")
	m := monitor.New(h.lister, h.provider, h.dispatcher, logging.NewNop(), monitor.WithInterval(10*time.Millisecond))

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.Start(context.Background()); err == nil {
		t.Fatal("expected second Start to fail")
	}

	deadline := time.Now().Add(2 * time.Second)
	for m.Status().TickCount < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if m.Status().TickCount < 3 {
		t.Fatalf("expected repeated ticks, got %d", m.Status().TickCount)
	}
	m.Stop()
	if m.Running() {
		t.Fatal("expected monitor stopped")
	}
	ticks := m.Status().TickCount
	time.Sleep(30 * time.Millisecond)
	if m.Status().TickCount != ticks {
		t.Fatal("ticks continued after Stop")
	}
}

func TestConcurrentTicksNeverDoubleDispatch(t *testing.T) {
	h := newHarness(alice)
	h.provider.setLive("UC123", "vid1")

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.monitor.Tick(context.Background())
		}()
	}
	wg.Wait()
	if got := h.dispatcher.count(); got != 1 {
		t.Fatalf("expected a single dispatch under concurrent ticks, got %d", got)
	}
}
