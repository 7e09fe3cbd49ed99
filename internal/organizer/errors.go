package organizer

import (
	"errors"
	"fmt"
)

var (
	// ErrFileSystem marks failures reading or writing the shows directory.
	ErrFileSystem = errors.New("file system error")
	// ErrRelocation marks a copy phase that did not complete.
	ErrRelocation = errors.New("relocation failed")
)

// FileSystemError reports a failed file system operation on Path.
type FileSystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileSystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileSystemError) Unwrap() error { return e.Err }

func (e *FileSystemError) Is(target error) bool { return target == ErrFileSystem }

// RelocationError identifies the pair whose copy failed. When it is returned no
// original subtitle has been deleted.
type RelocationError struct {
	Pair MatchedPair
	Err  error
}

func (e *RelocationError) Error() string {
	return fmt.Sprintf("relocate %s -> %s: %v", e.Pair.InputPath, e.Pair.OutputPath, e.Err)
}

func (e *RelocationError) Unwrap() error { return e.Err }

func (e *RelocationError) Is(target error) bool { return target == ErrRelocation }
