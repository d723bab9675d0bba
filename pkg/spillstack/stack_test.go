package spillstack_test

import (
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcoats/tilespace/pkg/spillstack"
)

// intCodec encodes ints as fixed 8-byte little-endian values.
type intCodec struct{}

func (intCodec) Encode(w io.Writer, v int) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	_, err := w.Write(buf[:])

	return err
}

func (intCodec) Decode(r io.Reader) (int, error) {
	var buf [8]byte

	_, err := io.ReadFull(r, buf[:])
	if err != nil {
		return 0, err
	}

	return int(binary.LittleEndian.Uint64(buf[:])), nil
}

func TestNewRejectsSmallCapacity(t *testing.T) {
	_, err := spillstack.New[int](intCodec{}, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, spillstack.ErrInvariant))
}

func TestPushPopWithinCapacity(t *testing.T) {
	s, err := spillstack.New[int](intCodec{}, 5)
	require.NoError(t, err)

	for i := range 3 {
		require.NoError(t, s.Push(i))
	}

	assert.Equal(t, 3, s.Len())

	v, ok, err := s.Pop()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

// S4: push 0..9 in order, ten pops return the multiset {0..9}; the first five
// pops return {5..9} in some order, the last five return {0..4} in some order.
func TestSpillAndRefillMultiset(t *testing.T) {
	s, err := spillstack.New[int](intCodec{}, 5)
	require.NoError(t, err)
	defer s.Close()

	for i := range 10 {
		require.NoError(t, s.Push(i))
	}

	assert.Equal(t, 10, s.Len())

	var popped []int

	for range 10 {
		v, ok, err := s.Pop()
		require.NoError(t, err)
		require.True(t, ok)

		popped = append(popped, v)
	}

	_, ok, err := s.Pop()
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, popped)
	assert.ElementsMatch(t, []int{5, 6, 7, 8, 9}, popped[:5])
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4}, popped[5:])
}

func TestLenAccountsForSpilledFiles(t *testing.T) {
	s, err := spillstack.New[int](intCodec{}, 4)
	require.NoError(t, err)
	defer s.Close()

	for i := range 6 {
		require.NoError(t, s.Push(i))
	}

	// capacity 4 spills 2 at a time; after 6 pushes: 1 file of 2 + 4 in buffer.
	assert.Equal(t, 6, s.Len())
}

func TestCloseRemovesSpillFilesWithoutLoadingThem(t *testing.T) {
	s, err := spillstack.New[int](intCodec{}, 4)
	require.NoError(t, err)

	for i := range 10 {
		require.NoError(t, s.Push(i))
	}

	require.NoError(t, s.Close())
	assert.Equal(t, 0, len(func() []int {
		var drained []int

		for {
			v, ok, err := s.Pop()
			if err != nil || !ok {
				break
			}

			drained = append(drained, v)
		}

		return drained
	}()))
}
