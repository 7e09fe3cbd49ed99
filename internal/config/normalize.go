package config

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	textlanguage "golang.org/x/text/language"
)

var titleCaser = cases.Title(textlanguage.English)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeListing()
	c.normalizeOrganize()
	if err := c.normalizePlex(); err != nil {
		return err
	}
	c.normalizeTVMaze()
	c.normalizeNotifications()
	if err := c.normalizeMetrics(); err != nil {
		return err
	}
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("TVSHOWS_SHOWS_DIR"); ok && strings.TrimSpace(value) != "" {
		c.ShowsDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.ShowsDir) == "" {
		c.ShowsDir = defaultShowsDir
	}
	var err error
	if c.ShowsDir, err = expandPath(strings.TrimSpace(c.ShowsDir)); err != nil {
		return fmt.Errorf("shows_dir: %w", err)
	}
	if strings.TrimSpace(c.StateDir) == "" {
		c.StateDir = defaultStateDir
	}
	if c.StateDir, err = expandPath(strings.TrimSpace(c.StateDir)); err != nil {
		return fmt.Errorf("state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeListing() {
	if c.MaxItems <= 0 {
		c.MaxItems = defaultMaxItems
	}
	c.SubtitleLanguage = strings.TrimSpace(c.SubtitleLanguage)
	if c.SubtitleLanguage == "" {
		c.SubtitleLanguage = defaultSubtitleLanguage
	}
	if len(c.SubtitleLanguage) > 3 {
		c.SubtitleLanguage = titleCaser.String(c.SubtitleLanguage)
	}
	c.Quality = strings.TrimSpace(c.Quality)
	c.Country = strings.ToUpper(strings.TrimSpace(c.Country))
	if c.Country == "" {
		c.Country = defaultCountry
	}
}

func (c *Config) normalizeOrganize() {
	c.Organize.VideoExtensions = normalizeExtensions(c.Organize.VideoExtensions, defaultVideoExtensions)
	c.Organize.SubtitleExtensions = normalizeExtensions(c.Organize.SubtitleExtensions, defaultSubtitleExtensions)
	if c.Organize.Concurrency <= 0 {
		c.Organize.Concurrency = defaultOrganizeConcurrency
	}
	c.Organize.Schedule = strings.TrimSpace(c.Organize.Schedule)
}

// normalizeExtensions lowercases, strips leading dots and deduplicates while
// preserving declaration order.
func normalizeExtensions(values, fallback []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		normalized := strings.TrimLeft(strings.ToLower(strings.TrimSpace(value)), ".")
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	if len(out) == 0 {
		return append([]string(nil), fallback...)
	}
	return out
}

func (c *Config) normalizePlex() error {
	if value, ok := os.LookupEnv("PLEX_URL"); ok && strings.TrimSpace(value) != "" {
		c.Plex.URL = value
	}
	c.Plex.URL = strings.TrimRight(strings.TrimSpace(c.Plex.URL), "/")
	if c.Plex.URL == "" {
		c.Plex.URL = defaultPlexURL
	}
	if strings.TrimSpace(c.Plex.StatePath) == "" {
		c.Plex.StatePath = defaultPlexStatePath
	}
	var err error
	if c.Plex.StatePath, err = expandPath(strings.TrimSpace(c.Plex.StatePath)); err != nil {
		return fmt.Errorf("plex.state_path: %w", err)
	}
	if c.Plex.PollIntervalMillis <= 0 {
		c.Plex.PollIntervalMillis = defaultPlexPollIntervalMS
	}
	if c.Plex.LinkTimeoutSeconds <= 0 {
		c.Plex.LinkTimeoutSeconds = defaultPlexLinkTimeoutSecs
	}
	return nil
}

func (c *Config) normalizeTVMaze() {
	c.TVMaze.BaseURL = strings.TrimRight(strings.TrimSpace(c.TVMaze.BaseURL), "/")
	if c.TVMaze.BaseURL == "" {
		c.TVMaze.BaseURL = defaultTVMazeBaseURL
	}
	if c.TVMaze.RequestsPerSecond <= 0 {
		c.TVMaze.RequestsPerSecond = defaultTVMazeRequestsPerSec
	}
	if c.TVMaze.CacheMinutes < 0 {
		c.TVMaze.CacheMinutes = 0
	}
}

func (c *Config) normalizeNotifications() {
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = value
		}
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeMetrics() error {
	if strings.TrimSpace(c.Metrics.Textfile) == "" {
		c.Metrics.Textfile = ""
		return nil
	}
	var err error
	if c.Metrics.Textfile, err = expandPath(strings.TrimSpace(c.Metrics.Textfile)); err != nil {
		return fmt.Errorf("metrics.textfile: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Logging.File) != "" {
		var err error
		if c.Logging.File, err = expandPath(strings.TrimSpace(c.Logging.File)); err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
	}
	return nil
}
