package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tvshows/internal/humandate"
	"tvshows/internal/services"
	"tvshows/internal/tvmaze"
)

type episodeView struct {
	Show    string `json:"show"`
	Code    string `json:"code"`
	Title   string `json:"title"`
	Airdate string `json:"airdate"`
	Release string `json:"release"`
	URL     string `json:"url,omitempty"`
}

func newEpisodeView(episode tvmaze.Episode) episodeView {
	return episodeView{
		Show:    episode.ShowTitle,
		Code:    episode.Code(),
		Title:   episode.Name,
		Airdate: episode.Airdate,
		Release: episode.ReleaseName(),
		URL:     episode.URL,
	}
}

func newEpisodesCommand(ctx *commandContext) *cobra.Command {
	var dateQuery string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "episodes",
		Short: "List episodes of the configured shows that aired on a date",
		Example: `  tv-shows episodes
  tv-shows episodes --date today
  tv-shows episodes --date "last 3 days"
  tv-shows episodes --date "2026-10-01 .. 2026-10-07"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			if err := requireConfig(cfg); err != nil {
				return err
			}
			dates, err := humandate.Parse(dateQuery, time.Now())
			if err != nil {
				return services.Wrap(services.ErrValidation, "episodes", "date", "", err)
			}
			if len(cfg.Shows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No shows configured; add [[shows]] entries to the config")
				return nil
			}

			source, _, closeFn, err := ctx.tvmazeSource()
			if err != nil {
				return err
			}
			defer closeFn()

			episodes, err := source.EpisodesByDate(cmd.Context(), dates...)
			if err != nil {
				return err
			}
			if len(episodes) > cfg.MaxItems {
				episodes = episodes[:cfg.MaxItems]
			}

			views := make([]episodeView, 0, len(episodes))
			for _, episode := range episodes {
				views = append(views, newEpisodeView(episode))
			}
			if asJSON {
				return writeJSON(cmd, views)
			}
			if len(views) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No episodes aired %s\n", describeDates(dates))
				return nil
			}
			rows := make([][]string, 0, len(views))
			for _, view := range views {
				rows = append(rows, []string{view.Airdate, view.Show, view.Code, view.Title})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{
				{header: "Aired"},
				{header: "Show", maxWidth: 32},
				{header: "Episode"},
				{header: "Title", maxWidth: 48},
			}, rows))
			return nil
		},
	}

	cmd.Flags().StringVarP(&dateQuery, "date", "d", humandate.DefaultQuery, "Air date: today, yesterday, \"last 7 days\", a weekday, YYYY-MM-DD, or a range")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newShowsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "shows",
		Short: "List the configured shows",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			if err := requireConfig(cfg); err != nil {
				return err
			}
			if len(cfg.Shows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No shows configured; add [[shows]] entries to the config")
				return nil
			}

			source, _, closeFn, err := ctx.tvmazeSource()
			if err != nil {
				return err
			}
			defer closeFn()

			shows, err := source.Shows(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, shows)
			}
			rows := make([][]string, 0, len(shows))
			for _, show := range shows {
				rows = append(rows, []string{
					strconv.Itoa(show.ID),
					show.Name,
					orDash(show.Channel()),
					orDash(show.Status),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{
				{header: "TVmaze ID", align: alignRight},
				{header: "Title", maxWidth: 40},
				{header: "Channel", maxWidth: 24},
				{header: "Status"},
			}, rows))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var all bool

	cmd := &cobra.Command{
		Use:   "show <tvmaze-id>",
		Short: "List the latest episodes of one show",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			if err := requireConfig(cfg); err != nil {
				return err
			}
			id, err := strconv.Atoi(strings.TrimSpace(args[0]))
			if err != nil || id <= 0 {
				return services.Wrap(services.ErrValidation, "show", "id", fmt.Sprintf("invalid tvmaze id %q", args[0]), nil)
			}

			source, client, closeFn, err := ctx.tvmazeSource()
			if err != nil {
				return err
			}
			defer closeFn()

			show, err := client.Show(cmd.Context(), id)
			if err != nil {
				return err
			}
			episodes, err := source.EpisodesByShow(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !all && len(episodes) > cfg.MaxItems {
				episodes = episodes[:cfg.MaxItems]
			}

			views := make([]episodeView, 0, len(episodes))
			for _, episode := range episodes {
				views = append(views, newEpisodeView(episode))
			}
			if asJSON {
				return writeJSON(cmd, views)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", show.Name, orDash(show.Channel()))
			if summary := show.SummaryText(); summary != "" {
				fmt.Fprintf(out, "%s\n", summary)
			}
			fmt.Fprintln(out)
			rows := make([][]string, 0, len(views))
			for _, view := range views {
				rows = append(rows, []string{view.Code, view.Title, orDash(view.Airdate)})
			}
			fmt.Fprintln(out, renderTable([]column{
				{header: "Episode"},
				{header: "Title", maxWidth: 48},
				{header: "Aired"},
			}, rows))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "List every episode instead of max_items")
	return cmd
}

func describeDates(dates []time.Time) string {
	switch len(dates) {
	case 0:
		return "on no date"
	case 1:
		return "on " + dates[0].Format("Mon 2006-01-02")
	default:
		return fmt.Sprintf("between %s and %s", dates[0].Format("2006-01-02"), dates[len(dates)-1].Format("2006-01-02"))
	}
}
