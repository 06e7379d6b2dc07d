package config

const (
	defaultConfigPath       = "~/.config/streamvault/config.toml"
	defaultCaptureDir       = "~/streamvault"
	defaultStorePath        = "~/.local/share/streamvault/streamvault.db"
	defaultLogDir           = "~/.local/share/streamvault/logs"
	defaultAPIBind          = "127.0.0.1:7488"
	defaultYouTubeBaseURL   = "https://www.googleapis.com/youtube/v3"
	defaultYouTubeTimeout   = 15
	defaultMediaBinary      = "yt-dlp"
	defaultMediaFormat      = "best"
	defaultTranscriptBinary = "chat_downloader"
	defaultWatchURLBase     = "https://www.youtube.com/watch?v="
	defaultPollInterval     = 60
	defaultCheckTimeout     = 20
	defaultNotifyTimeout    = 10
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30
	envYouTubeAPIKey        = "YOUTUBE_API_KEY"
	envCheckInterval        = "CHECK_INTERVAL"
	envDatabasePath         = "DATABASE_PATH"
	envNtfyTopic            = "NTFY_TOPIC"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CaptureDir: defaultCaptureDir,
			StorePath:  defaultStorePath,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
		},
		YouTube: YouTube{
			BaseURL:        defaultYouTubeBaseURL,
			RequestTimeout: defaultYouTubeTimeout,
		},
		Capture: Capture{
			MediaBinary:      defaultMediaBinary,
			MediaFormat:      defaultMediaFormat,
			TranscriptBinary: defaultTranscriptBinary,
			WatchURLBase:     defaultWatchURLBase,
		},
		Workflow: Workflow{
			PollInterval: defaultPollInterval,
			CheckTimeout: defaultCheckTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Live:           true,
			Captures:       true,
			Errors:         true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
