package stateset

import (
	"fmt"
	"sync"
)

// shardPrimes are the staggering weights used by [NewParallelSetPrimeCache]:
// cache capacities proportional to these primes flush at different points
// during a run, smoothing the I/O that flushing otherwise bursts all at
// once when every shard fills at the same rate.
var shardPrimes = []int{3, 5, 7, 11}

// ParallelSet is a [PartitionSet]-shaped set with a mutex per shard,
// exposing [ParallelSet.InsertCheck] as an atomic test-and-set so that
// concurrent workers can each claim a state exactly once.
//
// insert_check is linearizable per shard; across shards there is no global
// order, and distinct shards only contend on [ParallelSet.Len], which
// acquires every shard's lock to take a consistent snapshot.
type ParallelSet struct {
	shards []Set
	locks  []sync.Mutex
}

// NewParallelSet creates a ParallelSet with shardCount shards, each built by
// calling factory once.
//
// Possible errors: wraps [ErrInvariant] if shardCount == 0; propagates
// whatever error factory returns.
func NewParallelSet(shardCount int, factory ShardFactory) (*ParallelSet, error) {
	shards, err := buildShards(shardCount, factory)
	if err != nil {
		return nil, err
	}

	return &ParallelSet{
		shards: shards,
		locks:  make([]sync.Mutex, shardCount),
	}, nil
}

// NewParallelSetPrimeCache creates a ParallelSet whose per-shard cache
// capacity is weighted proportionally to the primes 3, 5, 7, 11 (cycled if
// shardCount > 4), so shards flush at staggered times instead of in lockstep.
// totalCacheCapacity is distributed across shards by that weighting, with
// every shard guaranteed at least one slot.
//
// Possible errors: wraps [ErrInvariant] if shardCount == 0 or
// totalCacheCapacity < shardCount; propagates whatever error newShard
// returns.
func NewParallelSetPrimeCache(
	shardCount int,
	totalCacheCapacity int,
	newShard func(cacheCapacity int) (Set, error),
) (*ParallelSet, error) {
	if shardCount <= 0 {
		return nil, fmt.Errorf("shard count must be > 0, got %d: %w", shardCount, ErrInvariant)
	}

	if totalCacheCapacity < shardCount {
		return nil, fmt.Errorf(
			"total cache capacity %d must be >= shard count %d: %w", totalCacheCapacity, shardCount, ErrInvariant)
	}

	capacities := primeWeightedCapacities(shardCount, totalCacheCapacity)

	return NewParallelSet(shardCount, func(i int) (Set, error) {
		return newShard(capacities[i])
	})
}

// primeWeightedCapacities distributes total across shardCount buckets
// proportionally to shardPrimes (cycled), using the largest-remainder method
// so the capacities sum to exactly total while every bucket gets >= 1.
func primeWeightedCapacities(shardCount, total int) []int {
	weights := make([]float64, shardCount)

	weightSum := 0.0
	for i := range shardCount {
		w := float64(shardPrimes[i%len(shardPrimes)])
		weights[i] = w
		weightSum += w
	}

	capacities := make([]int, shardCount)

	assigned := 0
	remainders := make([]shardRemainder, shardCount)

	for i, w := range weights {
		exact := w / weightSum * float64(total)
		base := int(exact)

		if base < 1 {
			base = 1
		}

		capacities[i] = base
		assigned += base
		remainders[i] = shardRemainder{index: i, frac: exact - float64(base)}
	}

	// Distribute or claw back the rounding error, largest fractional part
	// first, never taking a shard below 1.
	for assigned != total {
		if assigned < total {
			best := largestRemainderIndex(remainders)
			capacities[best.index]++
			remainders[best.index].frac = -1 // consumed
			assigned++
		} else {
			best := smallestEligibleRemainderIndex(remainders, capacities)
			capacities[best]--
			assigned--
		}
	}

	return capacities
}

// shardRemainder tracks, for one shard, the fractional part left over after
// flooring its proportional cache capacity.
type shardRemainder struct {
	index int
	frac  float64
}

func largestRemainderIndex(remainders []shardRemainder) shardRemainder {
	best := remainders[0]
	for _, r := range remainders[1:] {
		if r.frac > best.frac {
			best = r
		}
	}

	return best
}

func smallestEligibleRemainderIndex(remainders []shardRemainder, capacities []int) int {
	best := -1

	for _, r := range remainders {
		if capacities[r.index] <= 1 {
			continue
		}

		if best == -1 || r.frac < remainders[best].frac {
			best = r.index
		}
	}

	if best == -1 {
		// Every shard is already at the floor; fall back to the first one.
		return 0
	}

	return best
}

func (p *ParallelSet) shardIndex(h uint64) int {
	return int(h % uint64(len(p.shards)))
}

// InsertCheck claims a fingerprint: if already present, returns (true, nil)
// without modifying the set. Otherwise inserts it and returns (false, nil),
// giving the caller the unique right to expand the corresponding state.
//
// Possible errors: wraps [ErrIO] if the shard's flush fails.
func (p *ParallelSet) InsertCheck(h uint64) (wasPresent bool, err error) {
	i := p.shardIndex(h)

	p.locks[i].Lock()
	defer p.locks[i].Unlock()

	if p.shards[i].Contains(h) {
		return true, nil
	}

	if err := p.shards[i].Insert(h); err != nil {
		return false, err
	}

	return false, nil
}

// Contains reports whether a fingerprint is present, taking only that
// shard's lock.
func (p *ParallelSet) Contains(h uint64) bool {
	i := p.shardIndex(h)

	p.locks[i].Lock()
	defer p.locks[i].Unlock()

	return p.shards[i].Contains(h)
}

// Len acquires every shard's lock and sums their sizes, giving a consistent
// snapshot even while other shards may be concurrently mutated.
func (p *ParallelSet) Len() int {
	for i := range p.locks {
		p.locks[i].Lock()
	}

	defer func() {
		for i := range p.locks {
			p.locks[i].Unlock()
		}
	}()

	total := 0
	for _, s := range p.shards {
		total += s.Len()
	}

	return total
}

// Close closes every shard, returning the first error encountered.
func (p *ParallelSet) Close() error {
	return closeAll(p.shards)
}
