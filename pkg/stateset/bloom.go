package stateset

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// BloomSet fronts a [CacheStore] with a Bloom filter, so that cold negative
// lookups (the common case while expanding a large frontier) can be
// rejected without a binary search against the on-disk run.
//
// Every inserted item is recorded in the Bloom filter before being inserted
// into the underlying store, so the filter never produces a false negative.
type BloomSet struct {
	bits      []uint64 // bit array, 64 bits per word
	numBits   uint64
	numHashes uint32
	store     *CacheStore

	expected uint64
	inserted uint64
	overrun  sync.Once
}

// NewBloomSet creates a BloomSet sized for expectedItems at the given target
// false-positive rate, fronting a [CacheStore] with the given cache
// capacity.
//
// Possible errors: wraps [ErrInvariant] if expectedItems == 0, fpRate is out
// of (0, 1), or cacheCapacity == 0.
func NewBloomSet(expectedItems int, fpRate float64, cacheCapacity int) (*BloomSet, error) {
	if expectedItems <= 0 {
		return nil, fmt.Errorf("expected item count must be > 0, got %d: %w", expectedItems, ErrInvariant)
	}

	if fpRate <= 0 || fpRate >= 1 {
		return nil, fmt.Errorf("false-positive rate must be in (0, 1), got %v: %w", fpRate, ErrInvariant)
	}

	store, err := NewCacheStore(cacheCapacity)
	if err != nil {
		return nil, err
	}

	numBits, numHashes := optimalBloomParams(expectedItems, fpRate)

	return &BloomSet{
		bits:      make([]uint64, (numBits+63)/64),
		numBits:   numBits,
		numHashes: numHashes,
		store:     store,
		expected:  uint64(expectedItems),
	}, nil
}

// optimalBloomParams computes the standard bit-count and hash-count formulas
// for a Bloom filter sized for n items at false-positive rate p.
func optimalBloomParams(n int, p float64) (numBits uint64, numHashes uint32) {
	ln2 := math.Ln2
	m := -float64(n) * math.Log(p) / (ln2 * ln2)
	k := m / float64(n) * ln2

	numBits = uint64(math.Ceil(m))
	if numBits == 0 {
		numBits = 1
	}

	numHashes = uint32(math.Round(k))
	if numHashes < 1 {
		numHashes = 1
	}

	return numBits, numHashes
}

// bloomSalt domain-separates the second hash's input from the first's, so
// h2 isn't just a fixed function of h1 (xxhash applied twice to the same
// bytes, or a post-hoc XOR, would leave the two offsets correlated).
const bloomSalt = 0x9E3779B97F4A7C15

// bloomOffsets derives the two independent hash values used to generate all
// numHashes bit positions via Kirsch-Mitzenmacher double hashing: position_i
// = (h1 + i*h2) mod numBits.
func (b *BloomSet) bloomOffsets(h uint64) (h1, h2 uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], h)
	h1 = xxhash.Sum64(buf[:])

	var salted [8]byte
	binary.LittleEndian.PutUint64(salted[:], h^bloomSalt)
	h2 = xxhash.Sum64(salted[:])

	return h1, h2
}

func (b *BloomSet) setBit(pos uint64) {
	b.bits[pos/64] |= 1 << (pos % 64)
}

func (b *BloomSet) getBit(pos uint64) bool {
	return b.bits[pos/64]&(1<<(pos%64)) != 0
}

func (b *BloomSet) addToFilter(h uint64) {
	h1, h2 := b.bloomOffsets(h)

	for i := range uint64(b.numHashes) {
		pos := (h1 + i*h2) % b.numBits
		b.setBit(pos)
	}
}

func (b *BloomSet) maybeInFilter(h uint64) bool {
	h1, h2 := b.bloomOffsets(h)

	for i := range uint64(b.numHashes) {
		pos := (h1 + i*h2) % b.numBits
		if !b.getBit(pos) {
			return false
		}
	}

	return true
}

// Insert sets this fingerprint's Bloom bits and inserts it into the
// underlying store.
//
// Possible errors: wraps [ErrIO] if the underlying store's flush fails.
func (b *BloomSet) Insert(h uint64) error {
	b.addToFilter(h)

	b.inserted++
	if b.inserted > b.expected {
		b.overrun.Do(func() {
			slog.Warn("bloom filter insertions exceeded expected_items; false-positive rate will degrade",
				"expected_items", b.expected)
		})
	}

	return b.store.Insert(h)
}

// Contains reports whether a fingerprint may be present. A false from the
// Bloom filter is authoritative (no false negatives); a true re-checks the
// underlying store, since the filter alone may produce false positives.
func (b *BloomSet) Contains(h uint64) bool {
	if !b.maybeInFilter(h) {
		return false
	}

	return b.store.Contains(h)
}

// Len returns the size of the underlying store.
func (b *BloomSet) Len() int {
	return b.store.Len()
}

// Close releases the underlying store's on-disk run.
func (b *BloomSet) Close() error {
	return b.store.Close()
}

var _ Set = (*BloomSet)(nil)
