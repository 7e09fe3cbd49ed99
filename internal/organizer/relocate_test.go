package organizer_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"tvshows/internal/fileutil"
	"tvshows/internal/organizer"
	"tvshows/internal/testsupport"
)

func threePairs(t *testing.T) (string, []organizer.MatchedPair) {
	t.Helper()
	root := t.TempDir()
	var pairs []organizer.MatchedPair
	for _, name := range []string{"a", "b", "c"} {
		in := filepath.Join(root, name+".srt")
		testsupport.WriteContent(t, in, "subtitle "+name)
		pairs = append(pairs, organizer.MatchedPair{
			InputPath:  in,
			OutputPath: filepath.Join(root, "Show."+name, "episode.srt"),
		})
	}
	return root, pairs
}

func TestRelocateCopiesThenDeletes(t *testing.T) {
	_, pairs := threePairs(t)

	result, err := organizer.NewRelocator().Relocate(context.Background(), pairs)
	if err != nil {
		t.Fatalf("Relocate returned error: %v", err)
	}
	if len(result.Pairs) != 3 || result.Moved() != 3 {
		t.Fatalf("expected 3 moved pairs, got %+v", result)
	}
	if failed := result.FailedDeletes(); len(failed) != 0 {
		t.Fatalf("expected no failed deletes, got %+v", failed)
	}
	for i, pair := range pairs {
		testsupport.RequireMissing(t, pair.InputPath)
		want := "subtitle " + string(rune('a'+i))
		if got := testsupport.ReadContent(t, pair.OutputPath); got != want {
			t.Fatalf("output %s content %q, want %q", pair.OutputPath, got, want)
		}
	}
}

func TestRelocateCopyFailureDeletesNothing(t *testing.T) {
	_, pairs := threePairs(t)
	boom := errors.New("disk full")

	relocator := organizer.NewRelocator(
		organizer.WithConcurrency(1),
		organizer.WithCopier(func(src, dst string) error {
			if src == pairs[1].InputPath {
				return boom
			}
			return fileutil.CopyFileAtomic(src, dst)
		}),
	)

	_, err := relocator.Relocate(context.Background(), pairs)
	if err == nil {
		t.Fatal("expected relocation error")
	}
	if !errors.Is(err, organizer.ErrRelocation) {
		t.Fatalf("expected ErrRelocation, got %v", err)
	}
	if !errors.Is(err, organizer.ErrFileSystem) {
		t.Fatalf("expected wrapped ErrFileSystem, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected cause to be preserved, got %v", err)
	}
	var relErr *organizer.RelocationError
	if !errors.As(err, &relErr) {
		t.Fatalf("expected *RelocationError, got %T", err)
	}
	if relErr.Pair.InputPath != pairs[1].InputPath {
		t.Fatalf("expected failing pair %q, got %q", pairs[1].InputPath, relErr.Pair.InputPath)
	}

	for _, pair := range pairs {
		testsupport.RequireExists(t, pair.InputPath)
	}
	testsupport.RequireMissing(t, pairs[1].OutputPath)
}

func TestRelocateReportsFirstFailureInPairOrder(t *testing.T) {
	_, pairs := threePairs(t)

	relocator := organizer.NewRelocator(
		organizer.WithConcurrency(3),
		organizer.WithCopier(func(src, dst string) error {
			if src == pairs[0].InputPath {
				return nil
			}
			return errors.New("fail " + filepath.Base(src))
		}),
	)

	_, err := relocator.Relocate(context.Background(), pairs)
	var relErr *organizer.RelocationError
	if !errors.As(err, &relErr) {
		t.Fatalf("expected *RelocationError, got %v", err)
	}
	if relErr.Pair.InputPath != pairs[1].InputPath {
		t.Fatalf("expected earliest failing pair, got %q", relErr.Pair.InputPath)
	}
}

func TestRelocateSkipsPairsAlreadyInPlace(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "Show.S01E01.srt")
	testsupport.WriteContent(t, path, "keep me")

	pairs := []organizer.MatchedPair{{InputPath: path, OutputPath: path}}
	result, err := organizer.NewRelocator().Relocate(context.Background(), pairs)
	if err != nil {
		t.Fatalf("Relocate returned error: %v", err)
	}
	if len(result.Pairs) != 1 {
		t.Fatalf("expected in-place pair to be returned, got %+v", result.Pairs)
	}
	if result.Moved() != 0 || len(result.Deletes) != 0 {
		t.Fatalf("expected no copy or delete, got moved=%d deletes=%d", result.Moved(), len(result.Deletes))
	}
	if got := testsupport.ReadContent(t, path); got != "keep me" {
		t.Fatalf("in-place subtitle modified: %q", got)
	}
}

func TestRelocateSharedOutputLastPairWins(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "Show.S01E01", "Show.S01E01.srt")
	first := filepath.Join(root, "Show.S01E01.en.srt")
	second := filepath.Join(root, "Show.S01E01.hdtv.srt")
	testsupport.WriteContent(t, first, "first")
	testsupport.WriteContent(t, second, "second")

	var mu sync.Mutex
	var order []string
	relocator := organizer.NewRelocator(
		organizer.WithConcurrency(4),
		organizer.WithCopier(func(src, dst string) error {
			mu.Lock()
			order = append(order, src)
			mu.Unlock()
			return fileutil.CopyFileAtomic(src, dst)
		}),
	)

	pairs := []organizer.MatchedPair{
		{InputPath: first, OutputPath: out},
		{InputPath: second, OutputPath: out},
	}
	if _, err := relocator.Relocate(context.Background(), pairs); err != nil {
		t.Fatalf("Relocate returned error: %v", err)
	}
	if len(order) != 2 || order[0] != first || order[1] != second {
		t.Fatalf("expected sequential copies in pair order, got %v", order)
	}
	if got := testsupport.ReadContent(t, out); got != "second" {
		t.Fatalf("expected last pair to win, got %q", got)
	}
}

func TestRelocateMissingSourceCountsAsRemoved(t *testing.T) {
	_, pairs := threePairs(t)

	relocator := organizer.NewRelocator(
		organizer.WithRemover(func(path string) (bool, error) {
			if path == pairs[0].InputPath {
				return false, nil
			}
			return fileutil.RemoveIfExists(path)
		}),
	)
	result, err := relocator.Relocate(context.Background(), pairs)
	if err != nil {
		t.Fatalf("Relocate returned error: %v", err)
	}
	if failed := result.FailedDeletes(); len(failed) != 0 {
		t.Fatalf("expected missing source to count as removed, got %+v", failed)
	}
}

func TestRelocateReportsDeleteFailures(t *testing.T) {
	_, pairs := threePairs(t)
	denied := errors.New("permission denied")

	relocator := organizer.NewRelocator(
		organizer.WithRemover(func(path string) (bool, error) {
			if path == pairs[2].InputPath {
				return false, denied
			}
			return fileutil.RemoveIfExists(path)
		}),
	)
	result, err := relocator.Relocate(context.Background(), pairs)
	if err != nil {
		t.Fatalf("delete failures must not fail the run: %v", err)
	}
	failed := result.FailedDeletes()
	if len(failed) != 1 || failed[0].Pair.InputPath != pairs[2].InputPath {
		t.Fatalf("expected one failed delete for third pair, got %+v", failed)
	}
	if !errors.Is(failed[0].Err, denied) {
		t.Fatalf("unexpected delete error %v", failed[0].Err)
	}
	if len(result.Pairs) != 3 {
		t.Fatalf("expected all pairs returned, got %d", len(result.Pairs))
	}
}

func TestRelocateCanceledContextAbortsBeforeDeletes(t *testing.T) {
	_, pairs := threePairs(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := organizer.NewRelocator().Relocate(ctx, pairs)
	if !errors.Is(err, organizer.ErrRelocation) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled relocation error, got %v", err)
	}
	for _, pair := range pairs {
		testsupport.RequireExists(t, pair.InputPath)
	}
}
