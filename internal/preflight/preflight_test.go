package preflight

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"streamvault/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatalf("expected nil for nil config, got %v", results)
	}
}

func TestRunAll_ReportsMissingPieces(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.CaptureDir = t.TempDir()
	cfg.Capture.MediaBinary = "clearly-not-present-yt-dlp"
	cfg.Capture.TranscriptBinary = "sh"

	results := RunAll(context.Background(), &cfg)
	failed := Failed(results)

	names := map[string]bool{}
	for _, r := range failed {
		names[r.Name] = true
	}
	if !names["YouTube API key"] {
		t.Fatalf("expected missing api key failure, got %+v", failed)
	}
	if !names["yt-dlp"] {
		t.Fatalf("expected missing yt-dlp failure, got %+v", failed)
	}
	if names["chat_downloader"] || names["Capture directory"] {
		t.Fatalf("unexpected failures %+v", failed)
	}
}

func TestRunAll_IncludesNotificationsWhenConfigured(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.CaptureDir = t.TempDir()
	cfg.YouTube.APIKey = "key"
	cfg.Notifications.NtfyTopic = "https://ntfy.sh/test"

	found := false
	for _, r := range RunAll(context.Background(), &cfg) {
		if r.Name == "Notifications" && r.Passed {
			found = true
		}
	}
	if !found {
		t.Fatal("expected notifications check in results")
	}
}
