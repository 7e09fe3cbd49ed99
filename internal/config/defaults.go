package config

const (
	defaultConfigPath           = "~/.config/tv-shows/config.toml"
	defaultShowsDir             = "~"
	defaultStateDir             = "~/.local/state/tv-shows"
	defaultMaxItems             = 15
	defaultSubtitleLanguage     = "English"
	defaultQuality              = "720p"
	defaultCountry              = "US"
	defaultOrganizeConcurrency  = 4
	defaultPlexURL              = "http://127.0.0.1:32400"
	defaultPlexStatePath        = "~/.config/tv-shows/plex_auth.json"
	defaultPlexPollIntervalMS   = 1500
	defaultPlexLinkTimeoutSecs  = 300
	defaultTVMazeBaseURL        = "https://api.tvmaze.com"
	defaultTVMazeRequestsPerSec = 2.0
	defaultTVMazeCacheMinutes   = 30
	defaultNotifyRequestTimeout = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

var (
	defaultVideoExtensions    = []string{"mkv", "mp4"}
	defaultSubtitleExtensions = []string{"srt"}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		ShowsDir:         defaultShowsDir,
		StateDir:         defaultStateDir,
		MaxItems:         defaultMaxItems,
		SubtitleLanguage: defaultSubtitleLanguage,
		Quality:          defaultQuality,
		Country:          defaultCountry,
		Organize: Organize{
			VideoExtensions:    append([]string(nil), defaultVideoExtensions...),
			SubtitleExtensions: append([]string(nil), defaultSubtitleExtensions...),
			Concurrency:        defaultOrganizeConcurrency,
		},
		Plex: Plex{
			URL:                defaultPlexURL,
			StatePath:          defaultPlexStatePath,
			PollIntervalMillis: defaultPlexPollIntervalMS,
			LinkTimeoutSeconds: defaultPlexLinkTimeoutSecs,
		},
		TVMaze: TVMaze{
			BaseURL:           defaultTVMazeBaseURL,
			RequestsPerSecond: defaultTVMazeRequestsPerSec,
			CacheMinutes:      defaultTVMazeCacheMinutes,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
