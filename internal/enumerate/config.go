package enumerate

import "fmt"

// Config controls the memory/disk tradeoffs of [Enumerate]. Zero values are
// not defaults: Enumerate validates the combination and rejects degenerate
// configurations (including a zero capacity, shard count, or batch width)
// with ErrInvariant rather than silently clamping them.
type Config struct {
	// FrontierCapacity is the in-memory capacity of each of the two
	// frontier stacks (current level, next level) before either spills
	// to a temp file.
	FrontierCapacity int

	// SetShardCount is the number of lock-striped shards the claimed-set
	// is partitioned into.
	SetShardCount int

	// SetCachePerShard is the in-memory cache capacity of each shard
	// before it flushes to a sorted on-disk run. If PrimeCacheSizes is
	// true, it instead names the total cache capacity to distribute
	// across shards.
	SetCachePerShard int

	// UseBloom fronts each shard with a Bloom filter sized by
	// ExpectedItems and BloomFPRate.
	UseBloom bool

	// BloomFPRate is the target false-positive rate for the Bloom
	// filter, used only if UseBloom is true.
	BloomFPRate float64

	// ExpectedItems sizes the Bloom filter, used only if UseBloom is
	// true.
	ExpectedItems int

	// WorkerBatch is the maximum number of states expanded concurrently
	// while draining a frontier.
	WorkerBatch int

	// PrimeCacheSizes staggers each shard's cache capacity proportional
	// to small primes instead of giving every shard SetCachePerShard,
	// smoothing flush I/O across shards.
	PrimeCacheSizes bool
}

// validate rejects configurations that cannot be realized, per the
// invariants enforced by the components Enumerate composes.
func (c Config) validate() error {
	if c.FrontierCapacity < 2 {
		return fmt.Errorf("frontier capacity must be >= 2, got %d: %w", c.FrontierCapacity, ErrInvariant)
	}

	if c.SetShardCount <= 0 {
		return fmt.Errorf("set shard count must be > 0, got %d: %w", c.SetShardCount, ErrInvariant)
	}

	if c.SetCachePerShard <= 0 {
		return fmt.Errorf("set cache per shard must be > 0, got %d: %w", c.SetCachePerShard, ErrInvariant)
	}

	if c.PrimeCacheSizes && c.SetCachePerShard < c.SetShardCount {
		return fmt.Errorf(
			"total cache capacity %d must be >= shard count %d when prime-staggering caches: %w",
			c.SetCachePerShard, c.SetShardCount, ErrInvariant)
	}

	if c.UseBloom {
		if c.ExpectedItems <= 0 {
			return fmt.Errorf("expected items must be > 0 when using a bloom filter, got %d: %w",
				c.ExpectedItems, ErrInvariant)
		}

		if c.BloomFPRate <= 0 || c.BloomFPRate >= 1 {
			return fmt.Errorf("bloom false-positive rate must be in (0, 1), got %v: %w",
				c.BloomFPRate, ErrInvariant)
		}
	}

	if c.WorkerBatch <= 0 {
		return fmt.Errorf("worker batch width must be > 0, got %d: %w", c.WorkerBatch, ErrInvariant)
	}

	return nil
}
