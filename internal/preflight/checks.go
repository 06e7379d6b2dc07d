package preflight

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"streamvault/internal/config"
	"streamvault/internal/deps"
)

// CheckDirectoryAccess verifies that path exists, is a directory, and is
// readable, writable, and searchable by the current user.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckCredentials reports whether the YouTube API key is configured.
func CheckCredentials(cfg *config.Config) Result {
	if err := cfg.RequireCredentials(); err != nil {
		return Result{Name: "YouTube API key", Detail: "missing (set YOUTUBE_API_KEY or youtube.api_key)"}
	}
	return Result{Name: "YouTube API key", Passed: true, Detail: "configured"}
}

// CheckSystemDeps evaluates the capture tools for the given config. Both the
// daemon and the CLI status command use it so the requirement list lives in
// one place.
func CheckSystemDeps(_ context.Context, cfg *config.Config) []deps.Status {
	return deps.CheckBinaries([]deps.Requirement{
		{
			Name:        "yt-dlp",
			Command:     cfg.Capture.MediaBinary,
			Description: "Required for live media capture",
		},
		{
			Name:        "chat_downloader",
			Command:     cfg.Capture.TranscriptBinary,
			Description: "Required for live chat capture",
		},
	})
}
