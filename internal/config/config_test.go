package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"streamvault/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"YOUTUBE_API_KEY", "CHECK_INTERVAL", "DATABASE_PATH", "NTFY_TOPIC"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	clearEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if want := filepath.Join(tempHome, "streamvault"); cfg.Paths.CaptureDir != want {
		t.Fatalf("unexpected capture dir: got %q want %q", cfg.Paths.CaptureDir, want)
	}
	if want := filepath.Join(tempHome, ".local", "share", "streamvault", "streamvault.db"); cfg.Paths.StorePath != want {
		t.Fatalf("unexpected store path: got %q want %q", cfg.Paths.StorePath, want)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7488" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.PollInterval() != 60*time.Second {
		t.Fatalf("unexpected poll interval: %s", cfg.PollInterval())
	}
	if cfg.Capture.MediaBinary != "yt-dlp" || cfg.Capture.TranscriptBinary != "chat_downloader" {
		t.Fatalf("unexpected capture binaries: %+v", cfg.Capture)
	}
	if err := cfg.RequireCredentials(); err == nil {
		t.Fatal("expected missing api key to be reported")
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.CaptureDir, cfg.Paths.LogDir, filepath.Dir(cfg.Paths.StorePath)} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	clearEnv(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "streamvault.toml")

	type payload struct {
		YouTube struct {
			APIKey  string `toml:"api_key"`
			BaseURL string `toml:"base_url"`
		} `toml:"youtube"`
		Paths struct {
			APIBind string `toml:"api_bind"`
		} `toml:"paths"`
		Workflow struct {
			PollInterval int `toml:"poll_interval"`
		} `toml:"workflow"`
	}
	custom := payload{}
	custom.YouTube.APIKey = "abc123"
	custom.YouTube.BaseURL = "https://example.com/yt/"
	custom.Workflow.PollInterval = 15
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.YouTube.APIKey != "abc123" {
		t.Fatalf("expected api key from file, got %q", cfg.YouTube.APIKey)
	}
	if cfg.YouTube.BaseURL != "https://example.com/yt" {
		t.Fatalf("expected trimmed base url override, got %q", cfg.YouTube.BaseURL)
	}
	if cfg.PollInterval() != 15*time.Second {
		t.Fatalf("expected poll interval 15s, got %s", cfg.PollInterval())
	}
	if cfg.Paths.APIBind != "" {
		t.Fatalf("expected empty api bind to disable the API, got %q", cfg.Paths.APIBind)
	}
	if err := cfg.RequireCredentials(); err != nil {
		t.Fatalf("RequireCredentials: %v", err)
	}
}

func TestEnvOverridesConfigFile(t *testing.T) {
	clearEnv(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "streamvault.toml")
	contents := "[youtube]\napi_key = \"file-key\"\n[workflow]\npoll_interval = 90\n[paths]\nstore_path = \"/tmp/file.db\"\n"
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	dbPath := filepath.Join(tempDir, "env.db")
	t.Setenv("YOUTUBE_API_KEY", "env-key")
	t.Setenv("CHECK_INTERVAL", "5")
	t.Setenv("DATABASE_PATH", dbPath)

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.YouTube.APIKey != "env-key" {
		t.Errorf("expected api key from env, got %q", cfg.YouTube.APIKey)
	}
	if cfg.Workflow.PollInterval != 5 {
		t.Errorf("expected poll interval from env, got %d", cfg.Workflow.PollInterval)
	}
	if cfg.Paths.StorePath != dbPath {
		t.Errorf("expected store path from env, got %q", cfg.Paths.StorePath)
	}
}

func TestInvalidCheckIntervalEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CHECK_INTERVAL", "soon")
	if _, _, _, err := config.Load(""); err == nil {
		t.Fatal("expected error for non-numeric CHECK_INTERVAL")
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "your_youtube_api_key_here") {
		t.Fatalf("sample config missing placeholder api key: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Workflow.PollInterval != 60 {
		t.Fatalf("expected sample poll interval 60, got %d", cfg.Workflow.PollInterval)
	}
	if !strings.Contains(cfg.Paths.CaptureDir, "streamvault") {
		t.Fatalf("expected capture dir to contain streamvault, got %q", cfg.Paths.CaptureDir)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cfg := config.Default()
	cfg.Workflow.PollInterval = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive poll interval")
	}

	cfg = config.Default()
	cfg.Workflow.CheckTimeout = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative check timeout")
	}

	cfg = config.Default()
	cfg.Capture.MediaBinary = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing media binary")
	}

	cfg = config.Default()
	cfg.Logging.Level = "chatty"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown log level")
	}

	cfg = config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}
