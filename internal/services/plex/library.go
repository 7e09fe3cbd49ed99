package plex

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"tvshows/internal/config"
	"tvshows/internal/logging"
	"tvshows/internal/services"
)

// MediaServer is the subset of Plex the CLI drives after organizing files.
type MediaServer interface {
	RefreshLibrary(ctx context.Context) error
	WatchedEpisodes(ctx context.Context) ([]WatchedEpisode, error)
	RemoveEpisode(ctx context.Context, id int64) error
}

// TokenProvider supplies the credentials attached to Plex server requests.
type TokenProvider interface {
	AuthorizationToken() (string, error)
	ClientIdentifier() string
}

// Section is a Plex library section of type "show".
type Section struct {
	Key   string
	Title string
}

// WatchedEpisode is an episode Plex reports as viewed at least once.
type WatchedEpisode struct {
	ID           int64
	ShowTitle    string
	EpisodeTitle string
}

func (e WatchedEpisode) String() string {
	return fmt.Sprintf("%s - %s", e.ShowTitle, e.EpisodeTitle)
}

// PruneResult lists the outcome of removing watched episodes.
type PruneResult struct {
	Removed []WatchedEpisode
	Failed  []WatchedEpisode
}

// LibraryClient talks to a Plex Media Server over its XML API.
type LibraryClient struct {
	baseURL  string
	provider TokenProvider
	client   HTTPDoer
	logger   *slog.Logger

	mu       sync.Mutex
	sections []Section
}

// LibraryOption customizes a LibraryClient.
type LibraryOption func(*LibraryClient)

// WithLibraryHTTPClient overrides the HTTP backend.
func WithLibraryHTTPClient(client HTTPDoer) LibraryOption {
	return func(c *LibraryClient) {
		if client != nil {
			c.client = client
		}
	}
}

// WithLibraryLogger attaches a logger.
func WithLibraryLogger(logger *slog.Logger) LibraryOption {
	return func(c *LibraryClient) {
		c.logger = logging.NewComponentLogger(logger, "plex")
	}
}

// NewLibraryClient builds a client for cfg.Plex.URL.
func NewLibraryClient(cfg *config.Config, provider TokenProvider, opts ...LibraryOption) (*LibraryClient, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if provider == nil {
		return nil, errors.New("token provider is nil")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.Plex.URL), "/")
	if baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "plex", "init", "plex.url not configured", nil)
	}

	c := &LibraryClient{
		baseURL:  baseURL,
		provider: provider,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logging.NewComponentLogger(nil, "plex"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CheckAuth verifies the server accepts the stored authorization token.
func (c *LibraryClient) CheckAuth(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/library/sections", nil)
}

// ShowSections returns the library sections holding TV shows. The list is
// fetched once per client.
func (c *LibraryClient) ShowSections(ctx context.Context) ([]Section, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sections != nil {
		return c.sections, nil
	}

	type directory struct {
		Key   string `xml:"key,attr"`
		Title string `xml:"title,attr"`
		Type  string `xml:"type,attr"`
	}
	type mediaContainer struct {
		Directories []directory `xml:"Directory"`
	}

	var container mediaContainer
	if err := c.do(ctx, http.MethodGet, "/library/sections", &container); err != nil {
		return nil, fmt.Errorf("fetch plex sections: %w", err)
	}

	sections := make([]Section, 0, len(container.Directories))
	for _, dir := range container.Directories {
		if dir.Key == "" || dir.Type != "show" {
			continue
		}
		sections = append(sections, Section{Key: dir.Key, Title: dir.Title})
	}
	c.sections = sections
	return sections, nil
}

// RefreshLibrary asks Plex to rescan every show section.
func (c *LibraryClient) RefreshLibrary(ctx context.Context) error {
	sections, err := c.ShowSections(ctx)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, section := range sections {
		g.Go(func() error {
			path := fmt.Sprintf("/library/sections/%s/refresh", section.Key)
			if err := c.do(gctx, http.MethodGet, path, nil); err != nil {
				return fmt.Errorf("refresh plex section %q: %w", section.Title, err)
			}
			c.logger.Info("plex section refresh requested",
				logging.String("section", section.Title),
				logging.String("key", section.Key),
			)
			return nil
		})
	}
	return g.Wait()
}

// WatchedEpisodes lists episodes with a view count of at least one across all
// show sections, in section order.
func (c *LibraryClient) WatchedEpisodes(ctx context.Context) ([]WatchedEpisode, error) {
	sections, err := c.ShowSections(ctx)
	if err != nil {
		return nil, err
	}

	type video struct {
		RatingKey        string `xml:"ratingKey,attr"`
		Title            string `xml:"title,attr"`
		GrandparentTitle string `xml:"grandparentTitle,attr"`
		ViewCount        int    `xml:"viewCount,attr"`
	}
	type mediaContainer struct {
		Videos []video `xml:"Video"`
	}

	perSection := make([][]WatchedEpisode, len(sections))
	g, gctx := errgroup.WithContext(ctx)
	for i, section := range sections {
		g.Go(func() error {
			var container mediaContainer
			path := fmt.Sprintf("/library/sections/%s/all?type=4", section.Key)
			if err := c.do(gctx, http.MethodGet, path, &container); err != nil {
				return fmt.Errorf("list plex section %q: %w", section.Title, err)
			}
			for _, v := range container.Videos {
				if v.ViewCount < 1 {
					continue
				}
				id, err := strconv.ParseInt(v.RatingKey, 10, 64)
				if err != nil {
					continue
				}
				perSection[i] = append(perSection[i], WatchedEpisode{
					ID:           id,
					ShowTitle:    v.GrandparentTitle,
					EpisodeTitle: v.Title,
				})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var watched []WatchedEpisode
	for _, episodes := range perSection {
		watched = append(watched, episodes...)
	}
	return watched, nil
}

// RemoveEpisode deletes an episode, including its media files, from Plex.
func (c *LibraryClient) RemoveEpisode(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/library/metadata/%d", id), nil)
}

// PruneWatched removes every watched episode. Individual removal failures are
// logged and reported in the result rather than aborting the run.
func PruneWatched(ctx context.Context, server MediaServer, logger *slog.Logger) (PruneResult, error) {
	logger = logging.NewComponentLogger(logger, "plex")
	watched, err := server.WatchedEpisodes(ctx)
	if err != nil {
		return PruneResult{}, err
	}

	var result PruneResult
	for _, episode := range watched {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := server.RemoveEpisode(ctx, episode.ID); err != nil {
			logging.WarnWithContext(logger, "failed to remove watched episode", "plex_remove",
				logging.Int64("episode_id", episode.ID),
				logging.String("episode", episode.String()),
				logging.Error(err),
				logging.String(logging.FieldImpact, "episode stays in the plex library"),
			)
			result.Failed = append(result.Failed, episode)
			continue
		}
		result.Removed = append(result.Removed, episode)
	}
	return result, nil
}

func (c *LibraryClient) do(ctx context.Context, method, path string, out any) error {
	token, err := c.provider.AuthorizationToken()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build plex request: %w", err)
	}
	req.Header.Set("X-Plex-Token", token)
	req.Header.Set("Accept", "application/xml")
	applyStandardHeaders(req, c.provider.ClientIdentifier())

	resp, err := c.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "plex", strings.ToLower(method), "plex request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		_, _ = io.Copy(io.Discard, resp.Body)
		return ErrAuthorizationMissing
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return services.Wrap(services.ErrNotFound, "plex", strings.ToLower(method), path, nil)
	case resp.StatusCode >= http.StatusBadRequest:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("plex %s %s returned %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := xml.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode plex response: %w", err)
	}
	return nil
}
