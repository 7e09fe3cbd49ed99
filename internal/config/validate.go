package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/robfig/cron/v3"

	"tvshows/internal/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateShowsDir(); err != nil {
		return err
	}
	if !language.Known(c.SubtitleLanguage) {
		return fmt.Errorf("subtitle_language: unsupported language %q", c.SubtitleLanguage)
	}
	if err := c.validateShows(); err != nil {
		return err
	}
	if err := c.validateOrganize(); err != nil {
		return err
	}
	if err := c.validatePlex(); err != nil {
		return err
	}
	if err := c.validateTVMaze(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateShowsDir() error {
	info, err := os.Stat(c.ShowsDir)
	if err != nil {
		return fmt.Errorf("shows_dir %q: %w", c.ShowsDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("shows directory %q is not a directory", c.ShowsDir)
	}
	return nil
}

func (c *Config) validateShows() error {
	seen := make(map[int]struct{}, len(c.Shows))
	for i, show := range c.Shows {
		if show.TVMazeID <= 0 {
			return fmt.Errorf("shows[%d].tvmaze_id must be positive", i)
		}
		if show.Addic7edID < 0 {
			return fmt.Errorf("shows[%d].addic7ed_id must not be negative", i)
		}
		if _, dup := seen[show.TVMazeID]; dup {
			return fmt.Errorf("shows[%d].tvmaze_id %d is listed more than once", i, show.TVMazeID)
		}
		seen[show.TVMazeID] = struct{}{}
	}
	return nil
}

func (c *Config) validateOrganize() error {
	if c.Organize.Schedule == "" {
		return nil
	}
	if _, err := cron.ParseStandard(c.Organize.Schedule); err != nil {
		return fmt.Errorf("organize.schedule: %w", err)
	}
	return nil
}

func (c *Config) validatePlex() error {
	parsed, err := url.Parse(c.Plex.URL)
	if err != nil {
		return fmt.Errorf("plex.url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("plex.url must use http or https, got %q", c.Plex.URL)
	}
	if c.Plex.LinkTimeoutSeconds*1000 < c.Plex.PollIntervalMillis {
		return errors.New("plex.link_timeout_seconds must be longer than plex.poll_interval_ms")
	}
	return nil
}

func (c *Config) validateTVMaze() error {
	parsed, err := url.Parse(c.TVMaze.BaseURL)
	if err != nil {
		return fmt.Errorf("tvmaze.base_url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("tvmaze.base_url must be an absolute URL, got %q", c.TVMaze.BaseURL)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}
