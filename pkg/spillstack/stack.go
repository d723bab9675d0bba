// Package spillstack implements a bounded-RAM, last-in-first-out container
// that spills to temporary files when it grows past its capacity.
//
// The container behaves like a stack only up to spill granularity: items
// flushed together as a batch may come back in any relative order among
// themselves. Callers must tolerate that — see [Stack.Pop].
package spillstack

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pierrec/lz4/v4"
)

// ErrIO classifies failures from temp-file creation, writing, or reading.
var ErrIO = errors.New("spillstack: io error")

// ErrSerialization classifies failures encoding or decoding a spilled item.
var ErrSerialization = errors.New("spillstack: serialization error")

// ErrInvariant classifies programming errors that should be unreachable.
var ErrInvariant = errors.New("spillstack: invariant violation")

// Codec encodes and decodes values of type T to and from a self-delimiting
// byte stream: sequential Decode calls over the concatenation of several
// Encode calls must reproduce the original sequence and report a clean EOF
// after the last one.
type Codec[T any] interface {
	Encode(w io.Writer, v T) error
	Decode(r io.Reader) (T, error)
}

// Stack is a bounded-RAM LIFO container for values of type T that spills
// the oldest half of its in-memory buffer to an LZ4-compressed temp file
// whenever it reaches capacity.
type Stack[T any] struct {
	codec    Codec[T]
	buffer   []T // used as a deque; front = oldest, back = newest
	capacity int
	files    []string // temp file paths, oldest first
}

// New creates a Stack with the given codec and in-memory capacity. Capacity
// must be >= 2, per spec: a stack that can't hold at least two items has no
// meaningful "half" to spill.
func New[T any](codec Codec[T], capacity int) (*Stack[T], error) {
	if codec == nil {
		return nil, fmt.Errorf("codec is nil: %w", ErrInvariant)
	}

	if capacity < 2 {
		return nil, fmt.Errorf("capacity must be >= 2, got %d: %w", capacity, ErrInvariant)
	}

	return &Stack[T]{
		codec:    codec,
		buffer:   make([]T, 0, capacity),
		capacity: capacity,
	}, nil
}

func (s *Stack[T]) halfCapacity() int {
	return s.capacity / 2
}

// Push pushes an item onto the stack. If the in-memory buffer is at
// capacity, the oldest half is first spilled to a new temp file.
//
// Possible errors: wraps [ErrIO] if the temp file can't be created or
// written; wraps [ErrSerialization] if the codec fails to encode an item.
// Per spec, I/O errors here are fatal for the traversal using this stack.
func (s *Stack[T]) Push(item T) error {
	if len(s.buffer) == s.capacity {
		if err := s.spill(); err != nil {
			return err
		}
	}

	s.buffer = append(s.buffer, item)

	return nil
}

func (s *Stack[T]) spill() error {
	half := s.halfCapacity()

	f, err := os.CreateTemp("", "spillstack-*.bin")
	if err != nil {
		return fmt.Errorf("create spill file: %w: %w", err, ErrIO)
	}

	path := f.Name()

	lzw := lz4.NewWriter(f)
	bw := bufio.NewWriter(lzw)

	lenBuf := make([]byte, binary.MaxVarintLen64)

	for _, item := range s.buffer[:half] {
		if err := encodeFramed(bw, lenBuf, s.codec, item); err != nil {
			_ = f.Close()
			_ = os.Remove(path)

			return err
		}
	}

	if err := bw.Flush(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)

		return fmt.Errorf("flush spill file: %w: %w", err, ErrIO)
	}

	if err := lzw.Close(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)

		return fmt.Errorf("close lz4 writer: %w: %w", err, ErrIO)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(path)

		return fmt.Errorf("close spill file: %w: %w", err, ErrIO)
	}

	// Drain the spilled prefix from the front of the buffer.
	remaining := len(s.buffer) - half
	copy(s.buffer, s.buffer[half:])
	s.buffer = s.buffer[:remaining]

	s.files = append(s.files, path)

	return nil
}

func encodeFramed[T any](w io.Writer, lenBuf []byte, codec Codec[T], item T) error {
	var buf fixedBuffer

	if err := codec.Encode(&buf, item); err != nil {
		return fmt.Errorf("encode item: %w: %w", err, ErrSerialization)
	}

	n := binary.PutUvarint(lenBuf, uint64(len(buf.data)))

	if _, err := w.Write(lenBuf[:n]); err != nil {
		return fmt.Errorf("write frame length: %w: %w", err, ErrIO)
	}

	if _, err := w.Write(buf.data); err != nil {
		return fmt.Errorf("write frame body: %w: %w", err, ErrIO)
	}

	return nil
}

// Pop removes and returns an item from the stack. If the in-memory buffer
// is empty and at least one spill file exists, the newest file is fully
// loaded into the buffer (and deleted) before popping. Returns false if the
// stack is empty.
//
// Possible errors: wraps [ErrIO] if a spill file can't be opened or read;
// wraps [ErrSerialization] if a frame fails to decode.
func (s *Stack[T]) Pop() (T, bool, error) {
	if len(s.buffer) == 0 {
		if len(s.files) == 0 {
			var zero T

			return zero, false, nil
		}

		if err := s.refill(); err != nil {
			var zero T

			return zero, false, err
		}
	}

	last := len(s.buffer) - 1
	item := s.buffer[last]
	s.buffer = s.buffer[:last]

	return item, true, nil
}

func (s *Stack[T]) refill() error {
	path := s.files[len(s.files)-1]
	s.files = s.files[:len(s.files)-1]

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open spill file %q: %w: %w", path, err, ErrIO)
	}
	defer f.Close()

	lzr := lz4.NewReader(f)
	br := bufio.NewReader(lzr)

	for {
		itemLen, err := binary.ReadUvarint(br)
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return fmt.Errorf("read frame length from %q: %w: %w", path, err, ErrSerialization)
		}

		item, err := s.codec.Decode(io.LimitReader(br, int64(itemLen)))
		if err != nil {
			return fmt.Errorf("decode item from %q: %w: %w", path, err, ErrSerialization)
		}

		s.buffer = append(s.buffer, item)
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove spill file %q: %w: %w", path, err, ErrIO)
	}

	return nil
}

// Len returns the total number of items held by the stack: those in the
// in-memory buffer plus an accounting estimate of half-capacity per spill
// file (the exact count per file, since every spill always writes exactly
// half the capacity).
func (s *Stack[T]) Len() int {
	return len(s.buffer) + len(s.files)*s.halfCapacity()
}

// Close removes any remaining spill files without loading them and drops the
// in-memory buffer, leaving the stack empty. Use this to abandon a stack's
// contents, for example after a fatal enumeration error.
func (s *Stack[T]) Close() error {
	s.buffer = nil

	var errs []error

	for _, path := range s.files {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("remove spill file %q: %w: %w", path, err, ErrIO))
		}
	}

	s.files = nil

	return errors.Join(errs...)
}

// fixedBuffer is a minimal io.Writer sink for a codec's Encode.
type fixedBuffer struct {
	data []byte
}

func (b *fixedBuffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)

	return len(p), nil
}
