// Package fs provides the narrow filesystem surface tilespace's config
// loader and atomic writer need, so [github.com/dcoats/tilespace/internal/config]
// can be exercised against something other than the real filesystem in
// tests.
//
// The main types are:
//   - [FS]: the filesystem operations config load/save actually calls
//   - [File]: interface for open files (satisfied by [os.File])
//   - [Real]: production implementation using the [os] package
//
// This is deliberately not a general-purpose filesystem abstraction: it
// covers exactly the calls [AtomicWriter] and config.Load make (read a
// whole file, open/rename/remove a temp file, fsync a directory), not the
// full surface of [os].
package fs

import (
	"os"
)

// File represents an OS-backed open file descriptor, restricted to the
// methods [AtomicWriter] needs: writing the temp file's bytes, syncing it
// and the parent directory, fixing its permissions, and closing it.
//
// This interface is satisfied by [os.File].
//
// Implementations must be safe for concurrent use by multiple goroutines.
type File interface {
	// Write appends to the file. See [os.File.Write].
	Write(p []byte) (int, error)

	// Close releases the file descriptor. See [os.File.Close].
	Close() error

	// Sync commits the file's contents to disk. See [os.File.Sync].
	Sync() error

	// Chmod changes the mode of the file. See [os.File.Chmod].
	Chmod(mode os.FileMode) error
}

// FS defines the filesystem operations [AtomicWriter] and
// [github.com/dcoats/tilespace/internal/config.Load] use: read a config
// file whole, and write one atomically via a temp-file-then-rename.
//
// Implementations in this package include:
//   - [Real]: production use, wraps the [os] package
//
// Paths use OS semantics (like the os package and path/filepath), not the
// slash-separated paths used by the standard library io/fs package.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type FS interface {
	// Open opens a file for reading. See [os.Open]. AtomicWriter uses this
	// only to fsync the parent directory after a rename.
	Open(path string) (File, error)

	// OpenFile opens a file with specified flags and permissions. See
	// [os.OpenFile]. AtomicWriter uses this to create its temp file with
	// [os.O_EXCL].
	OpenFile(path string, flag int, perm os.FileMode) (File, error)

	// ReadFile reads an entire file into memory. See [os.ReadFile]. This is
	// the whole of what config.Load needs to read the project config file.
	ReadFile(path string) ([]byte, error)

	// Remove deletes a file. See [os.Remove]. AtomicWriter uses this to
	// clean up its temp file on any failure path.
	Remove(path string) error

	// Rename moves/renames a file. See [os.Rename]. Atomic on the same
	// filesystem; this is the operation that makes a config save atomic.
	Rename(oldpath, newpath string) error
}

// Compile-time interface checks.
var _ File = (*os.File)(nil)
