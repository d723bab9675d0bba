// Package bigarray provides a memory-mapped, fixed-size array of uint64
// values backed by a private temporary file.
//
// The backing file exists only to give the operating system somewhere to
// page the array to and from; it is owned exclusively by the [Array] that
// created it and is removed when that [Array] is closed. Nothing about the
// file's name or location is part of this package's contract.
package bigarray

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ErrIO classifies failures that originate from the filesystem or the
// memory-mapping layer (temp file creation, truncation, mmap, munmap).
var ErrIO = errors.New("bigarray: io error")

// ErrInvariant classifies programming errors that should be unreachable:
// zero length or a misaligned mapping. An out-of-range index passed to Get,
// Set, or CopyFrom panics instead.
var ErrInvariant = errors.New("bigarray: invariant violation")

const elementSize = 8 // bytes per uint64

// Array is a flat, file-backed vector of uint64 values, memory-mapped for
// direct indexed access. The zero value is not usable; construct with [New]
// or [NewZeroed].
type Array struct {
	file   *os.File
	data   []byte   // the raw mmap'd region
	values []uint64 // data reinterpreted as uint64, natural-alignment asserted
	path   string
	closed bool
}

// New creates a new Array holding n uint64 elements, mapped read/write over
// a freshly created private temp file. The file's contents are whatever the
// OS provides for a freshly truncated file (typically zero, via a sparse
// file hole) — use [NewZeroed] if the caller needs that guaranteed rather
// than assumed.
//
// Possible errors: wraps [ErrInvariant] if n == 0; wraps [ErrIO] for any
// temp-file, truncate, or mmap failure.
func New(n int) (*Array, error) {
	if n <= 0 {
		return nil, fmt.Errorf("length must be > 0, got %d: %w", n, ErrInvariant)
	}

	f, err := os.CreateTemp("", "bigarray-*.bin")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w: %w", err, ErrIO)
	}

	size := int64(n) * elementSize

	err = f.Truncate(size)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())

		return nil, fmt.Errorf("truncate temp file: %w: %w", err, ErrIO)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())

		return nil, fmt.Errorf("mmap: %w: %w", err, ErrIO)
	}

	values, err := asUint64Slice(data)
	if err != nil {
		_ = unix.Munmap(data)
		_ = f.Close()
		_ = os.Remove(f.Name())

		return nil, err
	}

	return &Array{
		file:   f,
		data:   data,
		values: values,
		path:   f.Name(),
	}, nil
}

// NewZeroed is like [New] but guarantees every element is explicitly zeroed,
// rather than relying on file-hole semantics.
func NewZeroed(n int) (*Array, error) {
	a, err := New(n)
	if err != nil {
		return nil, err
	}

	for i := range a.values {
		a.values[i] = 0
	}

	return a, nil
}

// asUint64Slice reinterprets a byte slice as a uint64 slice in place,
// asserting the OS-returned base address is naturally 8-byte aligned.
func asUint64Slice(data []byte) ([]uint64, error) {
	if len(data) == 0 {
		return nil, nil
	}

	base := uintptr(unsafe.Pointer(&data[0]))
	if base%elementSize != 0 {
		return nil, fmt.Errorf("mmap base %#x is not 8-byte aligned: %w", base, ErrInvariant)
	}

	return unsafe.Slice((*uint64)(unsafe.Pointer(&data[0])), len(data)/elementSize), nil
}

// Len returns the number of elements in the array.
func (a *Array) Len() int {
	return len(a.values)
}

// Get returns the element at index i.
func (a *Array) Get(i int) uint64 {
	return a.values[i]
}

// Set writes v to index i.
func (a *Array) Set(i int, v uint64) {
	a.values[i] = v
}

// Slice returns the array's contents as a []uint64 view. Mutating the
// returned slice mutates the array; the view is invalid after Close.
func (a *Array) Slice() []uint64 {
	return a.values
}

// Sort sorts the array's elements ascending, in place.
func (a *Array) Sort() {
	sort.Sort(uint64Slice(a.values))
}

// SearchSorted reports whether v is present, assuming the array is sorted
// ascending (the caller must have called [Array.Sort] or otherwise maintain
// the invariant — SearchSorted does not verify it).
func (a *Array) SearchSorted(v uint64) bool {
	n := len(a.values)
	i := sort.Search(n, func(i int) bool { return a.values[i] >= v })

	return i < n && a.values[i] == v
}

// CopyFrom copies src into the array starting at offset, overwriting
// whatever was there. Panics if it would run past the end of the array, the
// same as a plain slice copy would via an out-of-bounds index.
func (a *Array) CopyFrom(offset int, src []uint64) {
	copy(a.values[offset:offset+len(src)], src)
}

// Close unmaps the array, closes the backing file descriptor, and removes
// the backing file. Safe to call more than once.
func (a *Array) Close() error {
	if a.closed {
		return nil
	}

	a.closed = true

	var errs []error

	if a.data != nil {
		if err := unix.Munmap(a.data); err != nil {
			errs = append(errs, fmt.Errorf("munmap: %w: %w", err, ErrIO))
		}
	}

	if err := a.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close: %w: %w", err, ErrIO))
	}

	if err := os.Remove(a.path); err != nil && !os.IsNotExist(err) {
		errs = append(errs, fmt.Errorf("remove %q: %w: %w", a.path, err, ErrIO))
	}

	return errors.Join(errs...)
}

type uint64Slice []uint64

func (s uint64Slice) Len() int           { return len(s) }
func (s uint64Slice) Less(i, j int) bool { return s[i] < s[j] }
func (s uint64Slice) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }
