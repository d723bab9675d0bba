// Package puzzle implements a sliding-tile board as a concrete
// [enumerate.State]: the w*h grid of distinct tile values (0 = blank), with
// moves that swap the blank with an orthogonal neighbor.
package puzzle

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/dcoats/tilespace/internal/enumerate"
)

// ErrInvariant indicates a board was constructed with invalid dimensions or
// tile values.
var ErrInvariant = errInvariant("puzzle: invariant violation")

type errInvariant string

func (e errInvariant) Error() string { return string(e) }

// Pt is a coordinate into a board's grid, row-major: [row, col].
type Pt [2]int

// Board is a w by h grid of tile values stored row-major, with 0 reserved
// for the blank.
type Board struct {
	tiles []uint8
	w, h  int
}

// New builds a Board from a flat row-major slice of w*h distinct values in
// [0, w*h), with exactly one 0 (the blank).
//
// Possible errors: wraps [ErrInvariant] if len(tiles) != w*h, if w or h is
// <= 0, or if tiles is not a permutation of [0, w*h).
func New(tiles []uint8, w, h int) (Board, error) {
	if w <= 0 || h <= 0 {
		return Board{}, fmt.Errorf("board dimensions must be positive, got %dx%d: %w", w, h, ErrInvariant)
	}

	if len(tiles) != w*h {
		return Board{}, fmt.Errorf(
			"expected %d tiles for a %dx%d board, got %d: %w", w*h, w, h, len(tiles), ErrInvariant)
	}

	seen := make([]bool, len(tiles))

	for _, v := range tiles {
		if int(v) >= len(tiles) || seen[v] {
			return Board{}, fmt.Errorf("tiles must be a permutation of 0..%d: %w", len(tiles)-1, ErrInvariant)
		}

		seen[v] = true
	}

	owned := make([]uint8, len(tiles))
	copy(owned, tiles)

	return Board{tiles: owned, w: w, h: h}, nil
}

// Identity builds the solved w by h board: 0, 1, 2, ..., w*h-1 in row-major
// order.
func Identity(w, h int) Board {
	tiles := make([]uint8, w*h)
	for i := range tiles {
		tiles[i] = uint8(i)
	}

	b, _ := New(tiles, w, h) // identity is trivially a valid permutation
	return b
}

func (b Board) at(p Pt) uint8 {
	return b.tiles[p[0]*b.w+p[1]]
}

func (b Board) set(p Pt, v uint8) {
	b.tiles[p[0]*b.w+p[1]] = v
}

func (b Board) blank() Pt {
	for i, v := range b.tiles {
		if v == 0 {
			return Pt{i / b.w, i % b.w}
		}
	}

	panic("puzzle: board has no blank tile")
}

// permute returns a fresh Board with the tiles at pt1 and pt2 swapped,
// mirroring board.rs's permute.
func (b Board) permute(pt1, pt2 Pt) Board {
	tiles := make([]uint8, len(b.tiles))
	copy(tiles, b.tiles)

	out := Board{tiles: tiles, w: b.w, h: b.h}
	out.set(pt1, b.at(pt2))
	out.set(pt2, b.at(pt1))

	return out
}

var offsets = [4]Pt{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

// Hash returns a fingerprint over the board's tiles and dimensions, so
// boards of different shapes never collide by construction.
func (b Board) Hash() uint64 {
	buf := make([]byte, 2*8+len(b.tiles))
	binary.LittleEndian.PutUint64(buf[0:8], uint64(b.w))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(b.h))
	copy(buf[16:], b.tiles)

	return xxhash.Sum64(buf)
}

// Successors returns one Board per valid slide of the blank into an
// orthogonal neighbor, up to 4. Each returned Board owns its own backing
// slice; none alias the receiver's.
func (b Board) Successors() []enumerate.State {
	p1 := b.blank()

	out := make([]enumerate.State, 0, 4)

	for _, d := range offsets {
		p2 := Pt{p1[0] + d[0], p1[1] + d[1]}
		if p2[0] < 0 || p2[0] >= b.h || p2[1] < 0 || p2[1] >= b.w {
			continue
		}

		out = append(out, b.permute(p1, p2))
	}

	return out
}

// Tiles returns a copy of the board's flat row-major tile values.
func (b Board) Tiles() []uint8 {
	out := make([]uint8, len(b.tiles))
	copy(out, b.tiles)

	return out
}

// Width and Height return the board's dimensions.
func (b Board) Width() int  { return b.w }
func (b Board) Height() int { return b.h }

var _ enumerate.State = Board{}
