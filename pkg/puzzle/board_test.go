package puzzle_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcoats/tilespace/internal/enumerate"
	"github.com/dcoats/tilespace/pkg/puzzle"
)

func TestNewRejectsWrongTileCount(t *testing.T) {
	_, err := puzzle.New([]uint8{0, 1, 2}, 2, 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, puzzle.ErrInvariant))
}

func TestNewRejectsNonPermutation(t *testing.T) {
	_, err := puzzle.New([]uint8{0, 1, 1, 3}, 2, 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, puzzle.ErrInvariant))
}

// TestPermute mirrors board.rs's test_board_permute: permuting the identity
// 2x2 board at [0,0] and [0,1] must yield [1, 0, 2, 3].
func TestPermute(t *testing.T) {
	a1, err := puzzle.New([]uint8{0, 1, 2, 3}, 2, 2)
	require.NoError(t, err)

	want, err := puzzle.New([]uint8{1, 0, 2, 3}, 2, 2)
	require.NoError(t, err)

	successors := a1.Successors()

	var got enumerate.State

	for _, s := range successors {
		b := s.(puzzle.Board)
		if b.Tiles()[0] == 1 {
			got = s
		}
	}

	require.NotNil(t, got)
	assert.Equal(t, want.Tiles(), got.(puzzle.Board).Tiles())
}

func TestSuccessorsCountByPosition(t *testing.T) {
	// Blank in a corner of a 2x2 board has exactly 2 valid slides.
	corner, err := puzzle.New([]uint8{0, 1, 2, 3}, 2, 2)
	require.NoError(t, err)
	assert.Len(t, corner.Successors(), 2)

	// Blank in the interior of a 3x3 board has all 4 valid slides.
	interior, err := puzzle.New([]uint8{1, 2, 3, 4, 0, 5, 6, 7, 8}, 3, 3)
	require.NoError(t, err)
	assert.Len(t, interior.Successors(), 4)
}

func TestSuccessorsAreFreshNonAliasingClones(t *testing.T) {
	b := puzzle.Identity(2, 2)
	original := b.Tiles()

	successors := b.Successors()
	require.NotEmpty(t, successors)

	for _, s := range successors {
		_ = s.(puzzle.Board).Tiles() // force materializing a copy
	}

	assert.Equal(t, original, b.Tiles(), "expanding successors must not mutate the receiver")
}

func TestHashDiffersByShapeAndContent(t *testing.T) {
	a := puzzle.Identity(2, 2)
	b, err := puzzle.New([]uint8{1, 0, 2, 3}, 2, 2)
	require.NoError(t, err)

	assert.NotEqual(t, a.Hash(), b.Hash())

	c := puzzle.Identity(4, 1)
	d := puzzle.Identity(2, 2)
	assert.NotEqual(t, c.Hash(), d.Hash(), "differently shaped boards with overlapping tile bytes must not collide")
}

func TestHashIsStableAcrossEqualBoards(t *testing.T) {
	a, err := puzzle.New([]uint8{3, 1, 0, 2}, 2, 2)
	require.NoError(t, err)

	b, err := puzzle.New([]uint8{3, 1, 0, 2}, 2, 2)
	require.NoError(t, err)

	assert.Equal(t, a.Hash(), b.Hash())
}

func TestCodecRoundTrip(t *testing.T) {
	original := puzzle.Identity(3, 3)

	var buf bytes.Buffer

	codec := puzzle.Codec{}
	require.NoError(t, codec.Encode(&buf, original))

	decoded, err := codec.Decode(&buf)
	require.NoError(t, err)

	got := decoded.(puzzle.Board)
	assert.Equal(t, original.Tiles(), got.Tiles())
	assert.Equal(t, original.Width(), got.Width())
	assert.Equal(t, original.Height(), got.Height())
}

func TestCodecEncodeRejectsWrongType(t *testing.T) {
	codec := puzzle.Codec{}

	var buf bytes.Buffer

	err := codec.Encode(&buf, fakeState{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, puzzle.ErrInvariant))
}

// TestSuccessorsMatchExpectedSet compares the 2x2 identity board's
// successors against the expected set, order-independent, using go-cmp's
// unexported-field-free comparer plus cmpopts.SortSlices.
func TestSuccessorsMatchExpectedSet(t *testing.T) {
	b := puzzle.Identity(2, 2)

	want := []puzzle.Board{
		mustBoard(t, []uint8{1, 0, 2, 3}, 2, 2),
		mustBoard(t, []uint8{2, 1, 0, 3}, 2, 2),
	}

	got := make([]puzzle.Board, 0, len(b.Successors()))
	for _, s := range b.Successors() {
		got = append(got, s.(puzzle.Board))
	}

	boardCmp := cmp.Comparer(func(a, b puzzle.Board) bool {
		return a.Width() == b.Width() && a.Height() == b.Height() && cmp.Equal(a.Tiles(), b.Tiles())
	})

	less := func(a, b puzzle.Board) bool {
		at, bt := a.Tiles(), b.Tiles()
		for i := range at {
			if at[i] != bt[i] {
				return at[i] < bt[i]
			}
		}

		return false
	}

	if diff := cmp.Diff(want, got, boardCmp, cmpopts.SortSlices(less)); diff != "" {
		t.Errorf("successors mismatch (-want +got):\n%s", diff)
	}
}

func mustBoard(t *testing.T, tiles []uint8, w, h int) puzzle.Board {
	t.Helper()

	b, err := puzzle.New(tiles, w, h)
	require.NoError(t, err)

	return b
}

type fakeState struct{}

func (fakeState) Hash() uint64                  { return 0 }
func (fakeState) Successors() []enumerate.State { return nil }
