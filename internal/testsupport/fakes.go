package testsupport

import (
	"context"
	"sync"

	"streamvault/internal/capture"
	"streamvault/internal/live"
	"streamvault/internal/services"
)

// FakeProvider is an in-memory live.Provider.
type FakeProvider struct {
	mu       sync.Mutex
	channels map[string]string
	live     map[string]*live.Broadcast
	errs     map[string]error
}

var _ live.Provider = (*FakeProvider)(nil)

// NewFakeProvider builds a provider resolving the given name to channel id pairs.
func NewFakeProvider(channels map[string]string) *FakeProvider {
	if channels == nil {
		channels = map[string]string{}
	}
	return &FakeProvider{
		channels: channels,
		live:     map[string]*live.Broadcast{},
		errs:     map[string]error{},
	}
}

// SetLive marks channelID live with the given broadcast; nil clears it.
func (f *FakeProvider) SetLive(channelID string, broadcast *live.Broadcast) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.live[channelID] = broadcast
	delete(f.errs, channelID)
}

// SetError makes checks for channelID fail.
func (f *FakeProvider) SetError(channelID string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[channelID] = err
}

// CheckLive implements live.Provider.
func (f *FakeProvider) CheckLive(ctx context.Context, channelID string) (*live.Broadcast, error) {
	if err := ctx.Err(); err != nil {
		return nil, services.Wrap(services.ErrProviderUnavailable, "fake", "check live", "context done", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[channelID]; err != nil {
		return nil, err
	}
	if b := f.live[channelID]; b != nil {
		clone := *b
		return &clone, nil
	}
	return nil, nil
}

// ResolveChannelID implements live.Provider.
func (f *FakeProvider) ResolveChannelID(_ context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.channels[name]; ok {
		return id, nil
	}
	return "", services.Wrap(services.ErrNotFound, "fake", "resolve channel", "no channel matches "+name, nil)
}

// FakeExecutor records capture runs and blocks each one until released or
// cancelled.
type FakeExecutor struct {
	mu      sync.Mutex
	runs    []string
	release chan struct{}
}

var _ capture.Executor = (*FakeExecutor)(nil)

// NewFakeExecutor builds an executor whose runs block until Release.
func NewFakeExecutor() *FakeExecutor {
	return &FakeExecutor{release: make(chan struct{})}
}

// Available implements capture.Executor.
func (f *FakeExecutor) Available(capture.Kind) bool { return true }

// Run implements capture.Executor.
func (f *FakeExecutor) Run(ctx context.Context, kind capture.Kind, broadcast live.Broadcast, _ string) error {
	f.mu.Lock()
	f.runs = append(f.runs, string(kind)+":"+broadcast.ID)
	release := f.release
	f.mu.Unlock()
	select {
	case <-release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release lets every current and future run finish successfully.
func (f *FakeExecutor) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	select {
	case <-f.release:
	default:
		close(f.release)
	}
}

// Runs returns "kind:broadcast" entries in call order.
func (f *FakeExecutor) Runs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.runs...)
}
