package main

import (
	"strings"
	"testing"

	"streamvault/internal/api"
)

func TestRenderStatusLine(t *testing.T) {
	line := renderStatusLine("Registry", statusOK, "/tmp/db", false)
	if !strings.Contains(line, "Registry:") || !strings.Contains(line, "[OK] /tmp/db") {
		t.Fatalf("unexpected line %q", line)
	}
	colored := renderStatusLine("Registry", statusError, "", true)
	if !strings.HasPrefix(colored, ansiRed) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected colored line, got %q", colored)
	}
}

func TestStreamerTableShowsLiveBroadcast(t *testing.T) {
	out := streamerTable([]api.Streamer{
		{ID: 1, Name: "AliceGaming", ChannelID: "UC123", Phase: "capturing", BroadcastID: "vid1", Title: "Morning"},
		{ID: 2, Name: "Bob", ChannelID: "UC456", Phase: "idle"},
	})
	for _, want := range []string{"AliceGaming", "Capturing", "vid1 (Morning)", "Bob", "Idle"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected table to contain %q:\n%s", want, out)
		}
	}
}

func TestShouldColorizeNonTerminal(t *testing.T) {
	var sb strings.Builder
	if shouldColorize(&sb) {
		t.Fatal("expected no color for non-file writer")
	}
}
