package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tvshows/internal/config"
	"tvshows/internal/logging"
	"tvshows/internal/metrics"
	"tvshows/internal/notifications"
	"tvshows/internal/organizer"
	"tvshows/internal/preflight"
	"tvshows/internal/services"
	"tvshows/internal/services/plex"
	"tvshows/internal/store"
	"tvshows/internal/subtitles"
)

type organizeOptions struct {
	dryRun bool
	noPlex bool
	watch  bool
}

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	var opts organizeOptions

	cmd := &cobra.Command{
		Use:   "organize",
		Short: "Move downloaded subtitles next to their matching videos",
		Long: `Scan shows_dir for videos and subtitles, match every subtitle to the
video whose name it resembles most, copy it beside that video, and delete the
original once every copy succeeded. Afterwards the Plex library is refreshed
and watched episodes are removed when enabled in the [plex] section.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			if err := requireConfig(cfg); err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			if opts.watch {
				return watchOrganize(cmd.Context(), ctx, cfg, logger, cmd.OutOrStdout(), opts)
			}
			if opts.dryRun {
				return planOrganize(cmd.Context(), cfg, logger, cmd.OutOrStdout())
			}
			return runOrganize(cmd.Context(), ctx, cfg, logger, cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.dryRun, "dry-run", "n", false, "Show the planned moves without touching any file")
	cmd.Flags().BoolVar(&opts.noPlex, "no-plex", false, "Skip the Plex refresh and watched episode cleanup")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Keep running and organize on organize.schedule")
	cmd.MarkFlagsMutuallyExclusive("dry-run", "watch")
	return cmd
}

func planOrganize(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	plan, err := organizer.New(cfg, logger).Plan(ctx)
	if err != nil {
		return err
	}

	moves := 0
	rows := make([][]string, 0, len(plan.Pairs))
	for _, pair := range plan.Pairs {
		if pair.InPlace() {
			continue
		}
		moves++
		rows = append(rows, []string{
			relativeTo(cfg.ShowsDir, pair.InputPath),
			relativeTo(cfg.ShowsDir, pair.OutputPath),
			fmt.Sprintf("%.2f", pair.Score),
		})
	}
	if moves == 0 {
		fmt.Fprintln(out, "Nothing to move")
	} else {
		fmt.Fprintln(out, renderTable([]column{
			{header: "Subtitle", maxWidth: 60},
			{header: "Destination", maxWidth: 70},
			{header: "Score", align: alignRight},
		}, rows))
		fmt.Fprintf(out, "Would move %s\n", plural(moves, "subtitle"))
	}
	for _, subtitle := range plan.Unmatched() {
		printStatus(out, statusWarn, "No matching video: %s", relativeTo(cfg.ShowsDir, subtitle.FilePath))
	}
	return nil
}

func runOrganize(ctx context.Context, cc *commandContext, cfg *config.Config, logger *slog.Logger, out io.Writer, opts organizeOptions) error {
	if check := preflight.CheckDirectoryAccess("shows_dir", cfg.ShowsDir); !check.Passed {
		return services.Wrap(services.ErrConfiguration, "organize", "preflight", check.Detail, nil)
	}

	ctx = services.WithRunID(ctx, "")
	runID, _ := services.RunIDFromContext(ctx)
	runLogger := logger.With(logging.String(logging.FieldRunID, runID))
	notifier := cc.notificationService()
	recorder := cc.metricsRecorder()

	started := time.Now()
	org := organizer.New(cfg, logger)
	plan, err := org.Plan(ctx)
	var result organizer.Result
	if err == nil {
		result, err = org.Apply(ctx, plan)
	}
	finished := time.Now()

	languages := detectLanguages(cfg, runLogger, result)
	failed := result.FailedDeletes()
	recorder.Organize(result.Moved(), len(failed), len(plan.Unmatched()), finished.Sub(started), finished, err)
	recordHistory(ctx, cc, runLogger, store.Run{
		RunID:         runID,
		StartedAt:     started,
		FinishedAt:    finished,
		Moved:         result.Moved(),
		FailedDeletes: len(failed),
		ErrorMessage:  errorText(err),
		Relocations:   historyRelocations(result, languages),
	})

	if err != nil {
		publish(ctx, notifier, runLogger, notifications.EventError, notifications.Payload{
			"context": "organize",
			"error":   err,
		})
		writeMetrics(cfg, recorder, runLogger)
		return err
	}

	printStatus(out, statusOK, "Moved %s", plural(result.Moved(), "subtitle"))
	for _, outcome := range failed {
		printStatus(out, statusWarn, "Could not delete %s: %v", outcome.Pair.InputPath, outcome.Err)
		publish(ctx, notifier, runLogger, notifications.EventDeleteFailed, notifications.Payload{
			"input":  outcome.Pair.InputPath,
			"output": outcome.Pair.OutputPath,
		})
	}
	for _, pair := range result.Pairs {
		if detection, ok := languages[pair.OutputPath]; ok && detection.Reliable && !detection.Matches(cfg.SubtitleLanguage) {
			printStatus(out, statusWarn, "%s looks like %s, expected %s",
				relativeTo(cfg.ShowsDir, pair.OutputPath), detection.Name, cfg.SubtitleLanguage)
		}
	}
	publish(ctx, notifier, runLogger, notifications.EventOrganizeCompleted, notifications.Payload{
		"moved":         result.Moved(),
		"failedDeletes": len(failed),
	})

	var plexErr error
	if !opts.noPlex && cfg.PlexEnabled() {
		plexErr = runPlexFollowUp(ctx, cc, cfg, runLogger, out)
		if plexErr != nil {
			publish(ctx, notifier, runLogger, notifications.EventError, notifications.Payload{
				"context": "plex",
				"error":   plexErr,
			})
		}
	}

	writeMetrics(cfg, recorder, runLogger)
	return plexErr
}

// runPlexFollowUp refreshes the library and prunes watched episodes as
// configured. A refresh is only requested when Plex is linked.
func runPlexFollowUp(ctx context.Context, cc *commandContext, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	manager, library, err := cc.plexClients()
	if err != nil {
		return err
	}
	if !manager.HasAuthorization() {
		return plex.ErrAuthorizationMissing
	}

	if cfg.Plex.RefreshLibrary {
		if err := library.RefreshLibrary(ctx); err != nil {
			return fmt.Errorf("refresh plex library: %w", err)
		}
		printStatus(out, statusOK, "Plex library refresh requested")
	}
	if cfg.Plex.RemoveWatchedEpisodes {
		if err := pruneWatched(ctx, cc, library, logger, out); err != nil {
			return err
		}
	}
	return nil
}

func pruneWatched(ctx context.Context, cc *commandContext, server plex.MediaServer, logger *slog.Logger, out io.Writer) error {
	result, err := plex.PruneWatched(ctx, server, logger)
	cc.metricsRecorder().Prune(len(result.Removed), len(result.Failed))
	if err != nil {
		return fmt.Errorf("remove watched episodes: %w", err)
	}

	printStatus(out, statusOK, "Removed %s", plural(len(result.Removed), "episode"))
	names := make([]string, 0, len(result.Removed))
	for _, episode := range result.Removed {
		fmt.Fprintf(out, "  %s\n", episode)
		names = append(names, episode.String())
	}
	for _, episode := range result.Failed {
		printStatus(out, statusWarn, "Could not remove %s", episode)
	}
	publish(ctx, cc.notificationService(), logger, notifications.EventEpisodesRemoved, notifications.Payload{
		"removed":  len(result.Removed),
		"episodes": names,
	})
	return nil
}

// detectLanguages inspects every subtitle that now sits beside its video.
func detectLanguages(cfg *config.Config, logger *slog.Logger, result organizer.Result) map[string]subtitles.Detection {
	detections := make(map[string]subtitles.Detection, len(result.Pairs))
	for _, pair := range result.Pairs {
		detection, err := subtitles.DetectLanguage(pair.OutputPath)
		if err != nil {
			logger.Debug("subtitle language detection skipped",
				logging.String("path", pair.OutputPath),
				logging.Error(err),
			)
			continue
		}
		detections[pair.OutputPath] = detection
		if detection.Reliable && !detection.Matches(cfg.SubtitleLanguage) {
			logging.WarnWithContext(logger, "subtitle language differs from subtitle_language", "subtitle_language",
				logging.String("path", pair.OutputPath),
				logging.String("detected", detection.Name),
				logging.String("expected", cfg.SubtitleLanguage),
				logging.Float64("confidence", detection.Confidence),
			)
		}
	}
	return detections
}

func historyRelocations(result organizer.Result, languages map[string]subtitles.Detection) []store.Relocation {
	removed := make(map[string]bool, len(result.Deletes))
	for _, outcome := range result.Deletes {
		removed[outcome.Pair.InputPath] = outcome.Removed()
	}
	relocations := make([]store.Relocation, 0, len(result.Pairs))
	for _, pair := range result.Pairs {
		relocation := store.Relocation{
			InputPath:  pair.InputPath,
			OutputPath: pair.OutputPath,
			VideoPath:  pair.VideoPath,
			Score:      pair.Score,
			Removed:    removed[pair.InputPath],
		}
		if detection, ok := languages[pair.OutputPath]; ok && detection.Reliable {
			relocation.Language = detection.Code
		}
		relocations = append(relocations, relocation)
	}
	return relocations
}

func recordHistory(ctx context.Context, cc *commandContext, logger *slog.Logger, run store.Run) {
	st, err := cc.openStore()
	if err != nil {
		logging.WarnWithContext(logger, "organize history unavailable", "store_open",
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run is missing from `tv-shows history`"),
		)
		return
	}
	defer st.Close()
	if _, err := st.RecordRun(context.WithoutCancel(ctx), run); err != nil {
		logging.WarnWithContext(logger, "failed to record organize run", "store_write",
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run is missing from `tv-shows history`"),
		)
	}
}

func publish(ctx context.Context, notifier notifications.Service, logger *slog.Logger, event notifications.Event, payload notifications.Payload) {
	if err := notifier.Publish(ctx, event, payload); err != nil {
		logging.WarnWithContext(logger, "notification failed", "notify",
			logging.String("event", string(event)),
			logging.Error(err),
		)
	}
}

func writeMetrics(cfg *config.Config, recorder *metrics.Recorder, logger *slog.Logger) {
	if err := recorder.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		logging.WarnWithContext(logger, "metrics export failed", "metrics",
			logging.String("path", cfg.Metrics.Textfile),
			logging.Error(err),
		)
	}
}

func relativeTo(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
