package main

import (
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"tvshows/internal/config"
	"tvshows/internal/logging"
	"tvshows/internal/metrics"
	"tvshows/internal/notifications"
	"tvshows/internal/services/plex"
	"tvshows/internal/store"
	"tvshows/internal/tvmaze"
)

type commandContext struct {
	configFlag  *string
	verboseFlag *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error

	// Overridable in tests.
	notifier notifications.Service
	recorder *metrics.Recorder
}

func newCommandContext(configFlag *string, verboseFlag *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		verboseFlag: verboseFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		if c.verboseFlag != nil && *c.verboseFlag {
			cfg.Logging.Level = "debug"
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) openStore() (*store.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return store.Open(cfg)
}

func (c *commandContext) notificationService() notifications.Service {
	if c.notifier == nil {
		c.notifier = notifications.NewService(c.configValue())
	}
	return c.notifier
}

func (c *commandContext) metricsRecorder() *metrics.Recorder {
	if c.recorder == nil {
		c.recorder = metrics.NewRecorder()
	}
	return c.recorder
}

// tvmazeSource builds an episode source over the configured shows. The
// returned close function releases the response cache database.
func (c *commandContext) tvmazeSource() (*tvmaze.Source, *tvmaze.Client, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, nil, err
	}

	opts := []tvmaze.Option{tvmaze.WithLogger(logger)}
	closeFn := func() {}
	if st, err := store.Open(cfg); err != nil {
		logging.WarnWithContext(logger, "response cache unavailable", "store_open",
			logging.Error(err),
			logging.String(logging.FieldImpact, "tvmaze responses are only cached in memory"),
		)
	} else {
		opts = append(opts, tvmaze.WithResponseCache(st))
		closeFn = func() { _ = st.Close() }
	}

	client := tvmaze.NewClient(cfg, opts...)
	return tvmaze.NewSource(client, cfg.ShowIDs()), client, closeFn, nil
}

func (c *commandContext) plexClients() (*plex.TokenManager, *plex.LibraryClient, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}
	manager, err := plex.NewTokenManager(cfg)
	if err != nil {
		return nil, nil, err
	}
	library, err := plex.NewLibraryClient(cfg, manager, plex.WithLibraryLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	return manager, library, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func requireConfig(cfg *config.Config) error {
	if cfg == nil {
		return errors.New("configuration not loaded")
	}
	return nil
}
