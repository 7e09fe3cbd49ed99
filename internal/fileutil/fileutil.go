package fileutil

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// CopyFileAtomic copies src into a temporary file beside dst, reads the
// temporary file back to check its size and SHA256, then renames it over dst.
// A reader never observes a partially written dst, and an interrupted copy
// leaves dst untouched.
func CopyFileAtomic(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	dir := filepath.Dir(dst)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if err := copyVerified(src, srcInfo.Size(), tmp); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, srcInfo.Mode().Perm()); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	committed = true
	return nil
}

// copyVerified streams src into out and then re-reads out from the start,
// rejecting the copy unless its size and SHA256 match what was read from src.
func copyVerified(src string, srcSize int64, out *os.File) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	srcHasher := sha256.New()
	written, err := io.Copy(out, io.TeeReader(in, srcHasher))
	if err != nil {
		return err
	}
	if written != srcSize {
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcSize, written)
	}
	return verifyWritten(out, written, srcHasher.Sum(nil))
}

// verifyWritten hashes what actually landed in f.
func verifyWritten(f *os.File, size int64, want []byte) error {
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind temp file: %w", err)
	}
	dstHasher := sha256.New()
	read, err := io.Copy(dstHasher, f)
	if err != nil {
		return fmt.Errorf("read back temp file: %w", err)
	}
	if read != size {
		return fmt.Errorf("copy size mismatch: expected %d bytes, found %d bytes", size, read)
	}
	if !bytes.Equal(want, dstHasher.Sum(nil)) {
		return fmt.Errorf("copy hash mismatch: file corrupted during copy")
	}
	return nil
}

// RemoveIfExists deletes path. A path that is already gone is not an error.
func RemoveIfExists(path string) (bool, error) {
	err := os.Remove(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}
