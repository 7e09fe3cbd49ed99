package organizer_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"tvshows/internal/organizer"
	"tvshows/internal/testsupport"
)

var defaultScanOptions = organizer.ScanOptions{
	VideoExtensions:    []string{"mkv", "mp4"},
	SubtitleExtensions: []string{"srt"},
}

func filePaths(files []organizer.MediaFile) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.FilePath)
	}
	return out
}

func TestScanDiscoversVideosAndSubtitles(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteContent(t, filepath.Join(root, "Belle.S01E01", "Belle.S01E01.mkv"), "v")
	testsupport.WriteContent(t, filepath.Join(root, "Sandy.S02E03", "Sandy.S02E03.MP4.part"), "v")
	testsupport.WriteContent(t, filepath.Join(root, "Sandy.S02E03", "notes.txt"), "x")
	testsupport.WriteContent(t, filepath.Join(root, "nested", "deeper", "Show.S01E01", "Show.S01E01.mp4"), "v")
	testsupport.WriteContent(t, filepath.Join(root, "Belle.S01E01.srt"), "s")
	testsupport.WriteContent(t, filepath.Join(root, "Sandy.S02E03.SRT"), "s")
	testsupport.WriteContent(t, filepath.Join(root, "Belle.S01E01", "inside.srt"), "s")
	testsupport.WriteContent(t, filepath.Join(root, "readme.md"), "x")

	videos, subtitles, err := organizer.Scan(context.Background(), root, defaultScanOptions)
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}

	wantVideos := []string{
		filepath.Join(root, "Belle.S01E01", "Belle.S01E01.mkv"),
		filepath.Join(root, "Sandy.S02E03", "Sandy.S02E03.MP4"),
		filepath.Join(root, "nested", "deeper", "Show.S01E01", "Show.S01E01.mp4"),
	}
	if diff := cmp.Diff(wantVideos, filePaths(videos)); diff != "" {
		t.Fatalf("videos mismatch (-want +got):\n%s", diff)
	}
	wantSubs := []string{
		filepath.Join(root, "Belle.S01E01.srt"),
		filepath.Join(root, "Sandy.S02E03.SRT"),
	}
	if diff := cmp.Diff(wantSubs, filePaths(subtitles)); diff != "" {
		t.Fatalf("subtitles mismatch (-want +got):\n%s", diff)
	}

	if videos[0].Directory != filepath.Join(root, "Belle.S01E01") {
		t.Fatalf("unexpected video directory %q", videos[0].Directory)
	}
	if videos[0].Query != organizer.NormalizeQuery(filepath.Join(root, "Belle.S01E01")) {
		t.Fatalf("video query should derive from its directory, got %q", videos[0].Query)
	}
	if subtitles[0].Query != organizer.NormalizeQuery(subtitles[0].FilePath) {
		t.Fatalf("subtitle query should derive from its path, got %q", subtitles[0].Query)
	}
}

func TestScanSkipsHiddenEntries(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteContent(t, filepath.Join(root, ".cache", "Show.S01E01.mkv"), "v")
	testsupport.WriteContent(t, filepath.Join(root, "Show.S01E01", ".Show.S01E01.mkv"), "v")
	testsupport.WriteContent(t, filepath.Join(root, ".Show.S01E01.srt"), "s")

	videos, subtitles, err := organizer.Scan(context.Background(), root, defaultScanOptions)
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if len(videos) != 0 || len(subtitles) != 0 {
		t.Fatalf("expected hidden entries ignored, got videos=%v subtitles=%v", filePaths(videos), filePaths(subtitles))
	}
}

func TestScanEmptyRootIsNotAnError(t *testing.T) {
	videos, subtitles, err := organizer.Scan(context.Background(), t.TempDir(), defaultScanOptions)
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if videos == nil || subtitles == nil {
		t.Fatal("expected empty, non-nil slices")
	}
	if len(videos) != 0 || len(subtitles) != 0 {
		t.Fatalf("expected no files, got %d videos and %d subtitles", len(videos), len(subtitles))
	}
}

func TestScanMissingRootReturnsFileSystemError(t *testing.T) {
	root := filepath.Join(t.TempDir(), "missing")

	_, _, err := organizer.Scan(context.Background(), root, defaultScanOptions)
	if err == nil {
		t.Fatal("expected error for missing root")
	}
	if !errors.Is(err, organizer.ErrFileSystem) {
		t.Fatalf("expected ErrFileSystem, got %v", err)
	}
	var fsErr *organizer.FileSystemError
	if !errors.As(err, &fsErr) {
		t.Fatalf("expected *FileSystemError, got %T", err)
	}
	if fsErr.Path != root {
		t.Fatalf("unexpected error path %q", fsErr.Path)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected cause to unwrap to ErrNotExist, got %v", err)
	}
}

func TestScanSkipsUnreadableSubdirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	root := t.TempDir()
	locked := filepath.Join(root, "Locked.S01E01")
	testsupport.WriteContent(t, filepath.Join(locked, "Locked.S01E01.mkv"), "v")
	testsupport.WriteContent(t, filepath.Join(root, "Open.S01E01", "Open.S01E01.mkv"), "v")
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	videos, _, err := organizer.Scan(context.Background(), root, defaultScanOptions)
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	want := []string{filepath.Join(root, "Open.S01E01", "Open.S01E01.mkv")}
	if diff := cmp.Diff(want, filePaths(videos)); diff != "" {
		t.Fatalf("videos mismatch (-want +got):\n%s", diff)
	}
}

func TestScanHonorsCancellation(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteContent(t, filepath.Join(root, "Show.S01E01", "Show.S01E01.mkv"), "v")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := organizer.Scan(ctx, root, defaultScanOptions); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
