package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"tvshows/internal/config"
	"tvshows/internal/logging"
	"tvshows/internal/services"
)

// watchOrganize runs one organize pass immediately and then one per tick of
// organize.schedule until ctx is canceled. A tick that fires while the
// previous pass is still running is skipped.
func watchOrganize(ctx context.Context, cc *commandContext, cfg *config.Config, logger *slog.Logger, out io.Writer, opts organizeOptions) error {
	if cfg.Organize.Schedule == "" {
		return services.Wrap(services.ErrConfiguration, "organize", "watch", "organize.schedule is empty", nil)
	}

	pass := func() {
		err := runOrganize(ctx, cc, cfg, logger, out, opts)
		if err == nil || ctx.Err() != nil {
			return
		}
		attrs := []logging.Attr{logging.Error(err)}
		if hint := services.Hint(err); hint != "" {
			attrs = append(attrs, logging.String(logging.FieldErrorHint, hint))
		}
		logging.ErrorWithContext(logger, "organize pass failed", "organize_watch", attrs...)
	}

	schedule, err := cron.ParseStandard(cfg.Organize.Schedule)
	if err != nil {
		return fmt.Errorf("organize.schedule: %w", err)
	}
	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	scheduler.Schedule(schedule, cron.FuncJob(pass))

	pass()
	scheduler.Start()
	logger.Info("watching shows directory",
		logging.String("schedule", cfg.Organize.Schedule),
		logging.String("next_run", schedule.Next(time.Now()).Format("2006-01-02 15:04")),
	)

	<-ctx.Done()
	<-scheduler.Stop().Done()
	logger.Info("organize watch stopped")
	return nil
}
