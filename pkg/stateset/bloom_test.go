package stateset_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcoats/tilespace/pkg/stateset"
)

func TestNewBloomSetRejectsBadParams(t *testing.T) {
	_, err := stateset.NewBloomSet(0, 0.01, 16)
	require.Error(t, err)
	assert.True(t, errors.Is(err, stateset.ErrInvariant))

	_, err = stateset.NewBloomSet(100, 0, 16)
	require.Error(t, err)
	assert.True(t, errors.Is(err, stateset.ErrInvariant))

	_, err = stateset.NewBloomSet(100, 1, 16)
	require.Error(t, err)
	assert.True(t, errors.Is(err, stateset.ErrInvariant))
}

func TestBloomSetNeverFalseNegative(t *testing.T) {
	b, err := stateset.NewBloomSet(1000, 0.01, 64)
	require.NoError(t, err)
	defer b.Close()

	for h := range uint64(500) {
		require.NoError(t, b.Insert(h))
	}

	for h := range uint64(500) {
		assert.True(t, b.Contains(h), "inserted item must never be reported absent")
	}

	assert.Equal(t, 500, b.Len())
}

func TestBloomSetRejectsObviousAbsentees(t *testing.T) {
	b, err := stateset.NewBloomSet(1000, 0.001, 64)
	require.NoError(t, err)
	defer b.Close()

	for h := range uint64(100) {
		require.NoError(t, b.Insert(h * 2))
	}

	falsePositives := 0

	for h := uint64(1); h < 200; h += 2 {
		if b.Contains(h) {
			falsePositives++
		}
	}

	// A Bloom hit is re-checked against the exact store, so none of the 100
	// absent probes may be reported present, whatever the filter returns.
	assert.Less(t, falsePositives, 10)
}
