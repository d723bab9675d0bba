package fs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrAtomicWriteDirSync indicates the parent directory could not be synced after rename.
//
// When returned, the new file is in place but durability is not guaranteed.
// Callers can detect this with errors.Is(err, ErrAtomicWriteDirSync).
var ErrAtomicWriteDirSync = errors.New("dir sync")

// atomicWritePerm is the permission every file this writer produces is
// chmod'd to, regardless of umask. [config.Save] is the only caller and
// only ever writes the project config file, so there's one fixed mode
// rather than a per-call option nothing in this repo varies.
const atomicWritePerm = os.FileMode(0o644)

// AtomicWriter writes a file atomically using a temp-file-then-rename, for
// [github.com/dcoats/tilespace/internal/config.Save]'s one call site:
// persist the project config file without ever leaving a half-written
// tilespace.jsonc behind.
type AtomicWriter struct {
	fs FS
}

// NewAtomicWriter creates an AtomicWriter that uses the given filesystem.
// Panics if fs is nil.
func NewAtomicWriter(fs FS) *AtomicWriter {
	if fs == nil {
		panic("fs is nil")
	}

	return &AtomicWriter{fs: fs}
}

// Write writes data from r to path atomically and durably: into a temp file
// in the same directory, synced, renamed over path, then the parent
// directory is synced.
//
// If the directory sync step fails, the returned error satisfies
// errors.Is(err, ErrAtomicWriteDirSync).
func (w *AtomicWriter) Write(path string, reader io.Reader) error {
	if reader == nil {
		panic("reader is nil")
	}

	if path == "" {
		return errors.New("path is empty")
	}

	dir, base := filepath.Split(path)
	if base == "" || base == string(os.PathSeparator) || base == "." {
		return fmt.Errorf("path is invalid: %q", path)
	}

	if dir == "" {
		dir = "."
	}

	dir = filepath.Clean(dir)
	tmpPath := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d", base, os.Getpid()))

	tmpFile, err := w.fs.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, atomicWritePerm)
	if err != nil {
		return fmt.Errorf("create temp file %q: %w", tmpPath, err)
	}

	cleanup := func() error {
		closeErr := closeTmpFile(tmpPath, tmpFile)
		removeErr := removeTempFile(w.fs, tmpPath)

		return errors.Join(closeErr, removeErr)
	}

	if chmodErr := tmpFile.Chmod(atomicWritePerm); chmodErr != nil {
		return errors.Join(
			fmt.Errorf("chmod temp file %q: %w", tmpPath, chmodErr),
			cleanup(),
		)
	}

	if writeErr := writeAndSyncTempFile(tmpFile, tmpPath, reader); writeErr != nil {
		return errors.Join(
			writeErr,
			cleanup(),
		)
	}

	if renameErr := w.fs.Rename(tmpPath, path); renameErr != nil {
		return errors.Join(
			fmt.Errorf("rename: %w", renameErr),
			cleanup(),
		)
	}

	cleanupErr := cleanup()

	if err := fsyncDir(w.fs, dir); err != nil {
		return errors.Join(err, cleanupErr)
	}

	// Don't surface cleanup errors if all main operations worked.
	return nil
}

func writeAndSyncTempFile(file File, path string, r io.Reader) error {
	_, copyErr := io.Copy(file, r)
	if copyErr != nil {
		return fmt.Errorf("write temp file %q: %w", path, copyErr)
	}

	err := file.Sync()
	if err != nil {
		return fmt.Errorf("sync temp file %q: %w", path, err)
	}

	return nil
}

func fsyncDir(fs FS, dirPath string) error {
	dirFd, err := fs.Open(dirPath)
	if err != nil {
		return errors.Join(ErrAtomicWriteDirSync, fmt.Errorf("open dir %q: %w", dirPath, err))
	}

	syncErr := dirFd.Sync()
	if syncErr == nil {
		return closeDir(dirPath, dirFd)
	}

	return errors.Join(
		ErrAtomicWriteDirSync,
		fmt.Errorf("%q: %w", dirPath, syncErr),
		closeDir(dirPath, dirFd),
	)
}

func closeDir(dir string, file File) error {
	err := file.Close()
	if err == nil {
		return nil
	}

	return fmt.Errorf("close dir %q: %w", dir, err)
}

func closeTmpFile(path string, file File) error {
	err := file.Close()
	if err == nil {
		return nil
	}

	return fmt.Errorf("close temp file %q: %w", path, err)
}

func removeTempFile(fs FS, path string) error {
	err := fs.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove temp file %q: %w", path, err)
	}

	return nil
}
