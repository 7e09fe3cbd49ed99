package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"tvshows/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.ShowsDir = filepath.Join(base, "shows")
	cfgVal.StateDir = filepath.Join(base, "state")
	cfgVal.Plex.StatePath = filepath.Join(cfgVal.StateDir, "plex_auth.json")
	cfgVal.Plex.URL = "http://127.0.0.1:0"
	cfgVal.TVMaze.BaseURL = "http://127.0.0.1:0"
	cfgVal.TVMaze.RequestsPerSecond = 1000
	cfgVal.Organize.Concurrency = 2

	if err := os.MkdirAll(cfgVal.ShowsDir, 0o755); err != nil {
		t.Fatalf("mkdir shows dir: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithShows registers tracked shows by TVmaze identifier.
func WithShows(ids ...int) ConfigOption {
	return func(b *configBuilder) {
		for _, id := range ids {
			b.cfg.Shows = append(b.cfg.Shows, config.Show{TVMazeID: id})
		}
	}
}

// WithPlexURL points the config at a test Plex server.
func WithPlexURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Plex.URL = url
	}
}

// WithTVMazeURL points the config at a test TVmaze server.
func WithTVMazeURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.TVMaze.BaseURL = url
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.ShowsDir)
}
