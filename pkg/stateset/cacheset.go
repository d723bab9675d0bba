package stateset

import (
	"fmt"

	"github.com/dcoats/tilespace/pkg/bigarray"
)

// CacheStore is a set of 64-bit fingerprints: an in-memory cache, flushed
// into a single sorted on-disk run once the cache reaches its capacity.
//
// State machine: {empty, cache-only, cache+one-run}. There is no
// compaction across multiple runs — each flush allocates a strictly larger
// run than the last and the previous run is released, trading peak disk use
// during a flush (about 2x the final run size) for simplicity.
type CacheStore struct {
	cache    map[uint64]struct{}
	capacity int
	run      *bigarray.Array // nil until the first flush
}

// NewCacheStore creates an empty CacheStore whose cache holds at most
// capacity fingerprints before flushing to a sorted run.
//
// Possible errors: wraps [ErrInvariant] if capacity == 0 (a cache that never
// flushes grows unbounded, which the spec treats as a configuration error).
func NewCacheStore(capacity int) (*CacheStore, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("cache capacity must be > 0, got %d: %w", capacity, ErrInvariant)
	}

	return &CacheStore{
		cache:    make(map[uint64]struct{}, capacity),
		capacity: capacity,
	}, nil
}

// Insert adds a fingerprint. If the cache is at capacity after the insert,
// it is merged with the current run (if any) into a new, larger sorted run
// and the cache is drained.
//
// Possible errors: wraps [ErrIO] if allocating the new run fails.
func (c *CacheStore) Insert(h uint64) error {
	c.cache[h] = struct{}{}

	if len(c.cache) < c.capacity {
		return nil
	}

	return c.flush()
}

func (c *CacheStore) flush() error {
	oldLen := 0
	if c.run != nil {
		oldLen = c.run.Len()
	}

	newRun, err := bigarray.New(oldLen + len(c.cache))
	if err != nil {
		return fmt.Errorf("allocate flush run: %w: %w", err, ErrIO)
	}

	i := 0

	if c.run != nil {
		newRun.CopyFrom(0, c.run.Slice())
		i = c.run.Len()
	}

	for h := range c.cache {
		newRun.Set(i, h)
		i++
	}

	newRun.Sort()

	if c.run != nil {
		if err := c.run.Close(); err != nil {
			_ = newRun.Close()

			return fmt.Errorf("release previous run: %w: %w", err, ErrIO)
		}
	}

	c.run = newRun
	clear(c.cache)

	return nil
}

// Contains reports whether a fingerprint is present, up to hash collisions.
func (c *CacheStore) Contains(h uint64) bool {
	if _, ok := c.cache[h]; ok {
		return true
	}

	if c.run == nil {
		return false
	}

	return c.run.SearchSorted(h)
}

// Len returns the cache size plus the run size (0 if there is no run yet).
func (c *CacheStore) Len() int {
	n := len(c.cache)
	if c.run != nil {
		n += c.run.Len()
	}

	return n
}

// Close releases the on-disk run, if any.
func (c *CacheStore) Close() error {
	if c.run == nil {
		return nil
	}

	err := c.run.Close()
	c.run = nil

	return err
}

// compile-time interface check.
var _ Set = (*CacheStore)(nil)
