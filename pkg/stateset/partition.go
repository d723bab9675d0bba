package stateset

import "fmt"

// ShardFactory constructs one shard of a partitioned set. Called once per
// shard at construction time.
type ShardFactory func(shardIndex int) (Set, error)

// PartitionSet shards fingerprints across P independent [Set] instances,
// selected by h mod P. Each shard's on-disk run is P times smaller than an
// unpartitioned set's would be, so binary search and flush cost drop
// accordingly.
type PartitionSet struct {
	shards []Set
}

// NewPartitionSet creates a PartitionSet with shardCount shards, each built
// by calling factory once.
//
// Possible errors: wraps [ErrInvariant] if shardCount == 0; propagates
// whatever error factory returns.
func NewPartitionSet(shardCount int, factory ShardFactory) (*PartitionSet, error) {
	shards, err := buildShards(shardCount, factory)
	if err != nil {
		return nil, err
	}

	return &PartitionSet{shards: shards}, nil
}

func buildShards(shardCount int, factory ShardFactory) ([]Set, error) {
	if shardCount <= 0 {
		return nil, fmt.Errorf("shard count must be > 0, got %d: %w", shardCount, ErrInvariant)
	}

	shards := make([]Set, shardCount)

	for i := range shardCount {
		shard, err := factory(i)
		if err != nil {
			closeShards(shards[:i])

			return nil, fmt.Errorf("create shard %d: %w", i, err)
		}

		shards[i] = shard
	}

	return shards, nil
}

func closeShards(shards []Set) {
	for _, s := range shards {
		if s != nil {
			_ = s.Close()
		}
	}
}

func (p *PartitionSet) shardFor(h uint64) Set {
	return p.shards[h%uint64(len(p.shards))]
}

// Insert adds a fingerprint to its shard.
func (p *PartitionSet) Insert(h uint64) error {
	return p.shardFor(h).Insert(h)
}

// Contains reports whether a fingerprint is present in its shard.
func (p *PartitionSet) Contains(h uint64) bool {
	return p.shardFor(h).Contains(h)
}

// Len returns the sum of all shard sizes.
func (p *PartitionSet) Len() int {
	total := 0
	for _, s := range p.shards {
		total += s.Len()
	}

	return total
}

// Close closes every shard, returning the first error encountered.
func (p *PartitionSet) Close() error {
	return closeAll(p.shards)
}

func closeAll(shards []Set) error {
	var firstErr error

	for _, s := range shards {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

var _ Set = (*PartitionSet)(nil)
