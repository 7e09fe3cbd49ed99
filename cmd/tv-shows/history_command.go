package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"tvshows/internal/store"
)

type runView struct {
	RunID         string           `json:"run_id"`
	StartedAt     time.Time        `json:"started_at"`
	FinishedAt    time.Time        `json:"finished_at"`
	Moved         int              `json:"moved"`
	FailedDeletes int              `json:"failed_deletes"`
	Error         string           `json:"error,omitempty"`
	Relocations   []relocationView `json:"relocations,omitempty"`
}

type relocationView struct {
	Input    string  `json:"input"`
	Output   string  `json:"output"`
	Score    float64 `json:"score"`
	Removed  bool    `json:"removed"`
	Language string  `json:"language,omitempty"`
}

func newRunView(run store.Run) runView {
	view := runView{
		RunID:         run.RunID,
		StartedAt:     run.StartedAt,
		FinishedAt:    run.FinishedAt,
		Moved:         run.Moved,
		FailedDeletes: run.FailedDeletes,
		Error:         run.ErrorMessage,
	}
	for _, r := range run.Relocations {
		view.Relocations = append(view.Relocations, relocationView{
			Input:    r.InputPath,
			Output:   r.OutputPath,
			Score:    r.Score,
			Removed:  r.Removed,
			Language: r.Language,
		})
	}
	return view
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool
	var verbose bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent organize runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			views := make([]runView, 0, len(runs))
			for _, run := range runs {
				views = append(views, newRunView(run))
			}
			if asJSON {
				return writeJSON(cmd, views)
			}

			out := cmd.OutOrStdout()
			if len(views) == 0 {
				fmt.Fprintln(out, "No organize runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(views))
			for _, view := range views {
				rows = append(rows, []string{
					view.StartedAt.Local().Format("2006-01-02 15:04"),
					view.RunID,
					strconv.Itoa(view.Moved),
					strconv.Itoa(view.FailedDeletes),
					orDash(view.Error),
				})
			}
			fmt.Fprintln(out, renderTable([]column{
				{header: "Started"},
				{header: "Run"},
				{header: "Moved", align: alignRight},
				{header: "Failed deletes", align: alignRight},
				{header: "Error", maxWidth: 48},
			}, rows))

			if !verbose {
				return nil
			}
			for _, view := range views {
				if len(view.Relocations) == 0 {
					continue
				}
				fmt.Fprintf(out, "\n%s\n", view.RunID)
				for _, r := range view.Relocations {
					status := "moved"
					if !r.Removed {
						status = "original kept"
					}
					fmt.Fprintf(out, "  %s -> %s [%s, %.2f, %s]\n",
						filepath.Base(r.Input), r.Output, status, r.Score, orDash(r.Language))
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "Number of runs to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	cmd.Flags().BoolVar(&verbose, "details", false, "List every relocated subtitle")
	cmd.AddCommand(newHistoryPruneCommand(ctx))
	return cmd
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var keepDays int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete organize runs older than --keep-days",
		RunE: func(cmd *cobra.Command, args []string) error {
			if keepDays < 0 {
				return fmt.Errorf("--keep-days must be zero or positive")
			}
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			cutoff := time.Now().AddDate(0, 0, -keepDays)
			removed, err := st.PruneRuns(cmd.Context(), cutoff)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", plural(int(removed), "run"))
			return nil
		},
	}

	cmd.Flags().IntVar(&keepDays, "keep-days", 90, "Keep runs finished within this many days")
	return cmd
}

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached TVmaze responses",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Drop every cached TVmaze response",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			removed, err := st.PruneResponses(cmd.Context(), time.Now().Add(time.Second))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", plural(int(removed), "cached response"))
			return nil
		},
	})
	return cmd
}
