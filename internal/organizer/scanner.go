package organizer

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"tvshows/internal/logging"
)

// ScanOptions selects which files a scan considers.
type ScanOptions struct {
	// VideoExtensions are matched case-insensitively, without the leading dot.
	// Each is also accepted with the partial download marker appended.
	VideoExtensions []string
	// SubtitleExtensions are matched case-insensitively, without the leading dot.
	SubtitleExtensions []string
	Logger             *slog.Logger
}

// Scan discovers videos anywhere below rootDir and subtitles directly inside
// it. Both slices are in lexical walk order.
func Scan(ctx context.Context, rootDir string, opts ScanOptions) ([]MediaFile, []MediaFile, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	root, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, nil, &FileSystemError{Op: "resolve", Path: rootDir, Err: err}
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, nil, &FileSystemError{Op: "scan", Path: root, Err: err}
	}

	subtitleExts := extensionSet(opts.SubtitleExtensions)
	subtitles := make([]MediaFile, 0)
	for _, entry := range entries {
		if entry.IsDir() || isHidden(entry.Name()) {
			continue
		}
		if !hasExtension(entry.Name(), subtitleExts) {
			continue
		}
		path := filepath.Join(root, entry.Name())
		subtitles = append(subtitles, MediaFile{
			Directory: root,
			FilePath:  path,
			Query:     NormalizeQuery(path),
		})
	}

	videoExts := extensionSet(opts.VideoExtensions)
	videos := make([]MediaFile, 0)
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == root {
				return &FileSystemError{Op: "scan", Path: root, Err: err}
			}
			logging.WarnWithContext(logger, "skipping unreadable path", "scan_skip",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "videos below this path are not matched"),
				logging.String(logging.FieldErrorHint, "check directory permissions"),
			)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if path != root && isHidden(d.Name()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !hasExtension(strings.TrimSuffix(strings.ToLower(d.Name()), partialSuffix), videoExts) {
			return nil
		}
		dir := filepath.Dir(path)
		videos = append(videos, MediaFile{
			Directory: dir,
			FilePath:  NormalizeFilePath(path),
			Query:     NormalizeQuery(dir),
		})
		return nil
	})
	if walkErr != nil {
		return nil, nil, walkErr
	}

	logger.Debug("scan complete",
		logging.String("root", root),
		logging.Int("videos", len(videos)),
		logging.Int("subtitles", len(subtitles)),
	)
	return videos, subtitles, nil
}

func extensionSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, value := range values {
		ext := strings.TrimLeft(strings.ToLower(strings.TrimSpace(value)), ".")
		if ext != "" {
			set["."+ext] = struct{}{}
		}
	}
	return set
}

func hasExtension(name string, exts map[string]struct{}) bool {
	_, ok := exts[strings.ToLower(filepath.Ext(name))]
	return ok
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func samePath(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}
