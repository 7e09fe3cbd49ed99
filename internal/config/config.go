package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Show identifies a tracked TV show by its external catalogue identifiers.
type Show struct {
	TVMazeID   int `toml:"tvmaze_id"`
	Addic7edID int `toml:"addic7ed_id"`
}

// Organize contains configuration for subtitle/video reconciliation.
type Organize struct {
	VideoExtensions    []string `toml:"video_extensions"`
	SubtitleExtensions []string `toml:"subtitle_extensions"`
	Concurrency        int      `toml:"concurrency"`
	Schedule           string   `toml:"schedule"`
}

// Plex contains configuration for Plex Media Server integration.
type Plex struct {
	URL                   string `toml:"url"`
	RefreshLibrary        bool   `toml:"refresh_library"`
	RemoveWatchedEpisodes bool   `toml:"remove_watched_episodes"`
	StatePath             string `toml:"state_path"`
	PollIntervalMillis    int    `toml:"poll_interval_ms"`
	LinkTimeoutSeconds    int    `toml:"link_timeout_seconds"`
}

// TVMaze contains configuration for the episode schedule source.
type TVMaze struct {
	BaseURL           string  `toml:"base_url"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	CacheMinutes      int     `toml:"cache_minutes"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Metrics contains configuration for the Prometheus textfile export.
type Metrics struct {
	Textfile string `toml:"textfile"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Config encapsulates all configuration values for tv-shows.
//
// Configuration sections by subsystem:
//   - top level: shows directory, state directory, tracked shows, listing preferences
//   - Organize: subtitle/video reconciliation under the shows directory
//   - Plex: media server link, library refresh, watched episode pruning
//   - TVMaze: episode schedule lookups
//   - Notifications: ntfy push notification settings
//   - Metrics: optional Prometheus textfile written after organize runs
//   - Logging: log format, level, and optional log file
type Config struct {
	ShowsDir         string `toml:"shows_dir"`
	StateDir         string `toml:"state_dir"`
	MaxItems         int    `toml:"max_items"`
	SubtitleLanguage string `toml:"subtitle_language"`
	Quality          string `toml:"quality"`
	Country          string `toml:"country"`
	Shows            []Show `toml:"shows"`

	Organize      Organize      `toml:"organize"`
	Plex          Plex          `toml:"plex"`
	TVMaze        TVMaze        `toml:"tvmaze"`
	Notifications Notifications `toml:"notifications"`
	Metrics       Metrics       `toml:"metrics"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if err := loadDotEnv(filepath.Dir(resolvedPath)); err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("tv-shows.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// loadDotEnv reads a .env file beside the config so the environment fallbacks
// (TVSHOWS_SHOWS_DIR, PLEX_URL, NTFY_TOPIC) can live next to it. Variables
// already set in the process environment win.
func loadDotEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// DatabasePath returns the location of the state database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.StateDir, "tv-shows.db")
}

// EnsureDirectories creates the state directory when missing.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.StateDir, 0o755); err != nil {
		return fmt.Errorf("create state_dir %q: %w", c.StateDir, err)
	}
	return nil
}

// ShowIDs returns the configured TVmaze identifiers in declaration order.
func (c *Config) ShowIDs() []int {
	ids := make([]int, 0, len(c.Shows))
	for _, show := range c.Shows {
		ids = append(ids, show.TVMazeID)
	}
	return ids
}

// FindShow returns the configured show with the given TVmaze identifier.
func (c *Config) FindShow(tvmazeID int) (Show, bool) {
	for _, show := range c.Shows {
		if show.TVMazeID == tvmazeID {
			return show, true
		}
	}
	return Show{}, false
}

// PlexEnabled reports whether any Plex follow-up is configured after organizing.
func (c *Config) PlexEnabled() bool {
	return c.Plex.RefreshLibrary || c.Plex.RemoveWatchedEpisodes
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() (string, error) {
	var b strings.Builder
	encoder := toml.NewEncoder(&b)
	encoder.SetIndentTables(true)
	if err := encoder.Encode(c); err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return b.String(), nil
}
