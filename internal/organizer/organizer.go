package organizer

import (
	"context"
	"log/slog"
	"time"

	"tvshows/internal/config"
	"tvshows/internal/logging"
	"tvshows/internal/services"
)

// Organizer wires the scanner, matcher, and relocator for the configured
// shows directory.
type Organizer struct {
	cfg       *config.Config
	logger    *slog.Logger
	relocator *Relocator
}

// Option customizes an Organizer.
type Option func(*Organizer)

// WithRelocator injects a preconfigured relocator.
func WithRelocator(r *Relocator) Option {
	return func(o *Organizer) {
		if r != nil {
			o.relocator = r
		}
	}
}

// New constructs an organizer for cfg.ShowsDir.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Organizer {
	componentLogger := logging.NewComponentLogger(logger, "organizer")
	o := &Organizer{cfg: cfg, logger: componentLogger}
	for _, opt := range opts {
		opt(o)
	}
	if o.relocator == nil {
		o.relocator = NewRelocator(
			WithConcurrency(cfg.Organize.Concurrency),
			WithRelocatorLogger(componentLogger),
		)
	}
	return o
}

// Plan scans and matches without touching any file.
func (o *Organizer) Plan(ctx context.Context) (Plan, error) {
	logger := o.runLogger(ctx)
	videos, subtitles, err := Scan(ctx, o.cfg.ShowsDir, ScanOptions{
		VideoExtensions:    o.cfg.Organize.VideoExtensions,
		SubtitleExtensions: o.cfg.Organize.SubtitleExtensions,
		Logger:             logger,
	})
	if err != nil {
		return Plan{}, err
	}

	pairs := Match(videos, subtitles)
	for _, pair := range pairs {
		logger.Debug("subtitle matched",
			logging.String("input", pair.InputPath),
			logging.String("video", pair.VideoPath),
			logging.Float64("score", pair.Score),
		)
	}
	plan := Plan{Videos: videos, Subtitles: subtitles, Pairs: pairs}
	for _, subtitle := range plan.Unmatched() {
		logger.Info("subtitle has no matching video", logging.String("input", subtitle.FilePath))
	}
	logger.Info("organize plan ready",
		logging.Int("videos", len(videos)),
		logging.Int("subtitles", len(subtitles)),
		logging.Int("matched", len(pairs)),
	)
	return plan, nil
}

// Run plans and then relocates every matched subtitle.
func (o *Organizer) Run(ctx context.Context) (Result, error) {
	plan, err := o.Plan(ctx)
	if err != nil {
		return Result{}, err
	}
	return o.Apply(ctx, plan)
}

// Apply relocates the pairs of a previously computed plan.
func (o *Organizer) Apply(ctx context.Context, plan Plan) (Result, error) {
	started := time.Now()
	result, err := o.relocator.Relocate(ctx, plan.Pairs)
	if err != nil {
		return Result{}, err
	}

	o.runLogger(ctx).Info("organize complete",
		logging.Int("moved", result.Moved()),
		logging.Int("failed_deletes", len(result.FailedDeletes())),
		logging.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}

func (o *Organizer) runLogger(ctx context.Context) *slog.Logger {
	if id, ok := services.RunIDFromContext(ctx); ok {
		return o.logger.With(logging.String(logging.FieldRunID, id))
	}
	return o.logger
}
