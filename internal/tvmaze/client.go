package tvmaze

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"tvshows/internal/config"
	"tvshows/internal/logging"
	"tvshows/internal/services"
)

const userAgent = "tv-shows/1.0.0"

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// ResponseCache persists raw response bodies between runs.
type ResponseCache interface {
	GetResponse(ctx context.Context, key string, maxAge time.Duration) ([]byte, bool, error)
	PutResponse(ctx context.Context, key string, body []byte) error
}

// Client is a rate-limited, caching TVmaze API client.
type Client struct {
	baseURL string
	http    HTTPDoer
	limiter *rate.Limiter
	memory  *cache.Cache
	disk    ResponseCache
	ttl     time.Duration
	logger  *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP backend.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithResponseCache persists responses through cache.
func WithResponseCache(cache ResponseCache) Option {
	return func(c *Client) {
		c.disk = cache
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "tvmaze")
	}
}

// NewClient builds a client from the [tvmaze] configuration section.
func NewClient(cfg *config.Config, opts ...Option) *Client {
	ttl := time.Duration(cfg.TVMaze.CacheMinutes) * time.Minute
	rps := cfg.TVMaze.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.TVMaze.BaseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		ttl:     ttl,
		logger:  logging.NewComponentLogger(nil, "tvmaze"),
	}
	if ttl > 0 {
		c.memory = cache.New(ttl, 2*ttl)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Show fetches a show by its TVmaze identifier.
func (c *Client) Show(ctx context.Context, id int) (Show, error) {
	var show Show
	if err := c.getJSON(ctx, fmt.Sprintf("/shows/%d", id), &show); err != nil {
		return Show{}, fmt.Errorf("show %d: %w", id, err)
	}
	return show, nil
}

// Episodes lists every episode of a show in broadcast order. Each episode is
// stamped with the show's identifier and, when known, title.
func (c *Client) Episodes(ctx context.Context, show Show) ([]Episode, error) {
	var episodes []Episode
	if err := c.getJSON(ctx, fmt.Sprintf("/shows/%d/episodes", show.ID), &episodes); err != nil {
		return nil, fmt.Errorf("episodes of show %d: %w", show.ID, err)
	}
	for i := range episodes {
		episodes[i].ShowID = show.ID
		episodes[i].ShowTitle = show.Name
	}
	return episodes, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	body, err := c.get(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	if c.memory != nil {
		if cached, ok := c.memory.Get(path); ok {
			if body, ok := cached.([]byte); ok {
				return body, nil
			}
		}
	}
	if c.disk != nil && c.ttl > 0 {
		body, ok, err := c.disk.GetResponse(ctx, path, c.ttl)
		if err != nil {
			logging.WarnWithContext(c.logger, "response cache read failed", "tvmaze_cache",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "falling back to the network"),
			)
		} else if ok {
			c.remember(path, body)
			return body, nil
		}
	}

	body, err := c.fetch(ctx, path)
	if err != nil {
		return nil, err
	}
	c.remember(path, body)
	if c.disk != nil && c.ttl > 0 {
		if err := c.disk.PutResponse(ctx, path, body); err != nil {
			logging.WarnWithContext(c.logger, "response cache write failed", "tvmaze_cache",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "next run fetches this response again"),
			)
		}
	}
	return body, nil
}

func (c *Client) remember(path string, body []byte) {
	if c.memory != nil {
		c.memory.Set(path, body, cache.DefaultExpiration)
	}
}

func (c *Client) fetch(ctx context.Context, path string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "br, gzip")
	req.Header.Set("User-Agent", userAgent)

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "tvmaze", "get", path, err)
	}
	defer resp.Body.Close()

	reader, err := decodeBody(resp)
	if err != nil {
		return nil, err
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	c.logger.Debug("tvmaze request",
		logging.String("path", path),
		logging.Int("status", resp.StatusCode),
		logging.Duration("elapsed", time.Since(started)),
	)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, services.Wrap(services.ErrNotFound, "tvmaze", "get", path, nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, services.Wrap(services.ErrTransient, "tvmaze", "get", "rate limited by tvmaze", nil)
	case resp.StatusCode >= http.StatusBadRequest:
		snippet := body
		if len(snippet) > 512 {
			snippet = snippet[:512]
		}
		return nil, fmt.Errorf("tvmaze %s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return body, nil
}

func decodeBody(resp *http.Response) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "", "identity":
		return resp.Body, nil
	case "br":
		return brotli.NewReader(resp.Body), nil
	case "gzip":
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("open gzip body: %w", err)
		}
		return zr, nil
	default:
		return nil, errors.New("unsupported content encoding " + resp.Header.Get("Content-Encoding"))
	}
}

