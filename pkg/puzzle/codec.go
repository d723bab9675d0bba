package puzzle

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/dcoats/tilespace/internal/enumerate"
)

// ErrSerialization indicates a malformed or truncated encoded board.
var ErrSerialization = errSerialization("puzzle: serialization error")

type errSerialization string

func (e errSerialization) Error() string { return string(e) }

// Codec encodes and decodes [Board] values as [enumerate.State], for use
// with a spilling frontier stack. The wire format is w, h (as uint32) then
// w*h tile bytes.
type Codec struct{}

var _ enumerate.Codec[enumerate.State] = Codec{}

// Encode writes v, which must be a Board, to w.
//
// Possible errors: wraps [ErrInvariant] if v is not a Board; wraps
// [ErrSerialization] if the underlying writer fails.
func (Codec) Encode(w io.Writer, v enumerate.State) error {
	b, ok := v.(Board)
	if !ok {
		return fmt.Errorf("codec given a %T, not a puzzle.Board: %w", v, ErrInvariant)
	}

	var header [8]byte
	binary.LittleEndian.PutUint32(header[0:4], uint32(b.w))
	binary.LittleEndian.PutUint32(header[4:8], uint32(b.h))

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write board header: %w: %w", err, ErrSerialization)
	}

	if _, err := w.Write(b.tiles); err != nil {
		return fmt.Errorf("write board tiles: %w: %w", err, ErrSerialization)
	}

	return nil
}

// Decode reads one encoded Board from r.
//
// Possible errors: wraps [ErrSerialization] if r is truncated or malformed.
func (Codec) Decode(r io.Reader) (enumerate.State, error) {
	var header [8]byte

	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("read board header: %w: %w", err, ErrSerialization)
	}

	w := int(binary.LittleEndian.Uint32(header[0:4]))
	h := int(binary.LittleEndian.Uint32(header[4:8]))

	tiles := make([]uint8, w*h)
	if _, err := io.ReadFull(r, tiles); err != nil {
		return nil, fmt.Errorf("read board tiles: %w: %w", err, ErrSerialization)
	}

	return Board{tiles: tiles, w: w, h: h}, nil
}
