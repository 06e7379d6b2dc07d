package testsupport

import (
	"context"
	"testing"

	"streamvault/internal/config"
	"streamvault/internal/registry"
)

// MustOpenStore opens a registry.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *registry.Store {
	t.Helper()
	store, err := registry.Open(cfg)
	if err != nil {
		t.Fatalf("registry.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// SeedStreamers registers name/channel pairs, failing the test on error.
func SeedStreamers(t testing.TB, store *registry.Store, pairs ...[2]string) []registry.Streamer {
	t.Helper()
	out := make([]registry.Streamer, 0, len(pairs))
	for _, pair := range pairs {
		s, err := store.Add(context.Background(), pair[0], pair[1])
		if err != nil {
			t.Fatalf("seed streamer %s: %v", pair[0], err)
		}
		out = append(out, s)
	}
	return out
}
