package organizer

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"tvshows/internal/fileutil"
	"tvshows/internal/logging"
)

const defaultConcurrency = 4

// Relocator copies matched subtitles into place and then removes the originals.
type Relocator struct {
	concurrency int
	logger      *slog.Logger
	copyFile    func(src, dst string) error
	removeFile  func(path string) (bool, error)
}

// RelocatorOption customizes a Relocator.
type RelocatorOption func(*Relocator)

// WithConcurrency bounds how many pairs are copied or deleted at once.
func WithConcurrency(n int) RelocatorOption {
	return func(r *Relocator) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithRelocatorLogger sets the logger used for per-pair diagnostics.
func WithRelocatorLogger(logger *slog.Logger) RelocatorOption {
	return func(r *Relocator) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithCopier replaces the file copy implementation.
func WithCopier(fn func(src, dst string) error) RelocatorOption {
	return func(r *Relocator) {
		if fn != nil {
			r.copyFile = fn
		}
	}
}

// WithRemover replaces the file removal implementation. It reports whether a
// file was removed; a missing file must not be an error.
func WithRemover(fn func(path string) (bool, error)) RelocatorOption {
	return func(r *Relocator) {
		if fn != nil {
			r.removeFile = fn
		}
	}
}

// NewRelocator constructs a Relocator with atomic copies and default concurrency.
func NewRelocator(opts ...RelocatorOption) *Relocator {
	r := &Relocator{
		concurrency: defaultConcurrency,
		logger:      logging.NewNop(),
		copyFile:    fileutil.CopyFileAtomic,
		removeFile:  fileutil.RemoveIfExists,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Relocate copies every pair to its output path and, once all copies have
// succeeded, deletes every original. Pairs already at their destination are
// returned untouched. If any copy fails a *RelocationError naming the first
// failing pair is returned and nothing is deleted. Delete failures are
// reported in Result.Deletes.
func (r *Relocator) Relocate(ctx context.Context, pairs []MatchedPair) (Result, error) {
	if err := r.copyAll(ctx, pairs); err != nil {
		return Result{}, err
	}
	deletes := r.deleteAll(ctx, pairs)
	return Result{Pairs: pairs, Deletes: deletes}, nil
}

// copyAll runs one task per distinct output path. Pairs sharing an output are
// copied sequentially in pair order so the last one wins.
func (r *Relocator) copyAll(ctx context.Context, pairs []MatchedPair) error {
	groups := make(map[string][]int)
	var order []string
	for i, pair := range pairs {
		if pair.InPlace() {
			continue
		}
		key := filepath.Clean(pair.OutputPath)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}

	errs := make([]error, len(pairs))
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for _, key := range order {
		indexes := groups[key]
		g.Go(func() error {
			for _, idx := range indexes {
				if err := ctx.Err(); err != nil {
					errs[idx] = err
					return nil
				}
				if err := r.copyPair(pairs[idx]); err != nil {
					errs[idx] = err
					return nil
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range errs {
		if err != nil {
			r.logger.Error("subtitle copy failed",
				logging.String("input", pairs[i].InputPath),
				logging.String("output", pairs[i].OutputPath),
				logging.Error(err),
			)
			return &RelocationError{Pair: pairs[i], Err: err}
		}
	}
	return nil
}

func (r *Relocator) copyPair(pair MatchedPair) error {
	dir := filepath.Dir(pair.OutputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &FileSystemError{Op: "mkdir", Path: dir, Err: err}
	}
	if err := r.copyFile(pair.InputPath, pair.OutputPath); err != nil {
		return &FileSystemError{Op: "copy", Path: pair.OutputPath, Err: err}
	}
	r.logger.Debug("subtitle copied",
		logging.String("input", pair.InputPath),
		logging.String("output", pair.OutputPath),
	)
	return nil
}

func (r *Relocator) deleteAll(ctx context.Context, pairs []MatchedPair) []DeleteOutcome {
	var pending []int
	for i, pair := range pairs {
		if !pair.InPlace() {
			pending = append(pending, i)
		}
	}

	outcomes := make([]DeleteOutcome, len(pending))
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for slot, idx := range pending {
		pair := pairs[idx]
		g.Go(func() error {
			outcomes[slot] = DeleteOutcome{Pair: pair, Err: r.deletePair(ctx, pair)}
			return nil
		})
	}
	_ = g.Wait()

	for _, outcome := range outcomes {
		if outcome.Err != nil {
			logging.WarnWithContext(r.logger, "original subtitle not removed", "delete_failed",
				logging.String("input", outcome.Pair.InputPath),
				logging.Error(outcome.Err),
				logging.String(logging.FieldImpact, "subtitle remains in the shows directory and will be matched again"),
				logging.String(logging.FieldErrorHint, "remove the file manually or re-run organize"),
			)
		}
	}
	return outcomes
}

func (r *Relocator) deletePair(ctx context.Context, pair MatchedPair) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	removed, err := r.removeFile(pair.InputPath)
	if err != nil {
		return &FileSystemError{Op: "remove", Path: pair.InputPath, Err: err}
	}
	if !removed {
		r.logger.Debug("original subtitle already removed", logging.String("input", pair.InputPath))
	}
	return nil
}

