package fs

import (
	"os"
)

// Real implements [FS] using the real filesystem. All methods are pure
// passthroughs to the [os] package with identical behavior and error
// semantics.
type Real struct{}

// NewReal returns a new [Real] filesystem.
func NewReal() *Real {
	return &Real{}
}

// A passthrough wrapper for [os.Open].
func (r *Real) Open(path string) (File, error) {
	return os.Open(path)
}

// A passthrough wrapper for [os.OpenFile].
func (r *Real) OpenFile(path string, flag int, perm os.FileMode) (File, error) {
	return os.OpenFile(path, flag, perm)
}

// A passthrough wrapper for [os.ReadFile].
func (r *Real) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// A passthrough wrapper for [os.Remove].
func (r *Real) Remove(path string) error {
	return os.Remove(path)
}

// A passthrough wrapper for [os.Rename].
func (r *Real) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}

// Compile-time interface check.
var _ FS = (*Real)(nil)
