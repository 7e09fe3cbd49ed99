package tvmaze

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

const fetchConcurrency = 4

// EpisodeSource answers schedule questions about the tracked shows.
type EpisodeSource interface {
	Shows(ctx context.Context) ([]Show, error)
	EpisodesByDate(ctx context.Context, dates ...time.Time) ([]Episode, error)
	EpisodesByShow(ctx context.Context, showID int) ([]Episode, error)
}

// Release is a downloadable candidate for an episode.
type Release struct {
	Title string
	Link  string
	Kind  ReleaseKind
}

// ReleaseKind distinguishes video releases from subtitle files.
type ReleaseKind string

const (
	ReleaseTorrent  ReleaseKind = "torrent"
	ReleaseSubtitle ReleaseKind = "subtitle"
)

// ReleaseFinder looks up download candidates for an episode.
type ReleaseFinder interface {
	Torrents(ctx context.Context, episode Episode, quality string) ([]Release, error)
	Subtitles(ctx context.Context, episode Episode, language string) ([]Release, error)
}

// Downloader fetches a release and returns the local path it was stored at.
type Downloader interface {
	Download(ctx context.Context, link string) (string, error)
}

// Source implements EpisodeSource for a fixed list of TVmaze show ids.
type Source struct {
	client  *Client
	showIDs []int
}

var _ EpisodeSource = (*Source)(nil)

// NewSource tracks showIDs through client.
func NewSource(client *Client, showIDs []int) *Source {
	return &Source{client: client, showIDs: append([]int(nil), showIDs...)}
}

// Shows resolves every tracked show, preserving configuration order.
func (s *Source) Shows(ctx context.Context) ([]Show, error) {
	shows := make([]Show, len(s.showIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, id := range s.showIDs {
		g.Go(func() error {
			show, err := s.client.Show(gctx, id)
			if err != nil {
				return err
			}
			shows[i] = show
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return shows, nil
}

// EpisodesByDate returns episodes of tracked shows that aired on any of the
// given calendar days, ordered by air date, then show title, then episode.
func (s *Source) EpisodesByDate(ctx context.Context, dates ...time.Time) ([]Episode, error) {
	if len(dates) == 0 {
		return nil, nil
	}
	wanted := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		wanted[d.Format(airdateLayout)] = struct{}{}
	}

	shows, err := s.Shows(ctx)
	if err != nil {
		return nil, err
	}

	perShow := make([][]Episode, len(shows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, show := range shows {
		g.Go(func() error {
			episodes, err := s.client.Episodes(gctx, show)
			if err != nil {
				return err
			}
			for _, ep := range episodes {
				if _, ok := wanted[ep.Airdate]; ok {
					perShow[i] = append(perShow[i], ep)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []Episode
	for _, episodes := range perShow {
		out = append(out, episodes...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Airdate != out[j].Airdate {
			return out[i].Airdate < out[j].Airdate
		}
		if out[i].ShowTitle != out[j].ShowTitle {
			return out[i].ShowTitle < out[j].ShowTitle
		}
		return episodeBefore(out[i], out[j])
	})
	return out, nil
}

// EpisodesByShow lists one show's episodes, newest season first and, within a
// season, highest episode number first.
func (s *Source) EpisodesByShow(ctx context.Context, showID int) ([]Episode, error) {
	show, err := s.client.Show(ctx, showID)
	if err != nil {
		return nil, err
	}
	episodes, err := s.client.Episodes(ctx, show)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(episodes, func(i, j int) bool {
		return episodeBefore(episodes[j], episodes[i])
	})
	return episodes, nil
}

func episodeBefore(a, b Episode) bool {
	if a.Season != b.Season {
		return a.Season < b.Season
	}
	return a.Number < b.Number
}
