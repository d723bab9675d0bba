package enumerate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dcoats/tilespace/pkg/spillstack"
	"github.com/dcoats/tilespace/pkg/stateset"
)

// Enumerate performs a level-synchronous breadth-first traversal of the
// state space reachable from seed, returning the number of distinct states
// (by Hash) discovered. Memory use is bounded by cfg regardless of how
// large the reachable state space turns out to be: both frontiers and the
// claimed-set spill to temporary files once their in-memory portion fills.
//
// Possible errors: wraps [ErrInvariant] if cfg is not internally
// consistent; wraps whatever a composed component (frontier spill, set
// flush) returns otherwise; returns ctx.Err() if ctx is canceled mid-run.
func Enumerate(ctx context.Context, seed State, codec Codec[State], cfg Config) (uint64, error) {
	if err := cfg.validate(); err != nil {
		return 0, err
	}

	claimed, err := buildClaimedSet(cfg)
	if err != nil {
		return 0, fmt.Errorf("build claimed set: %w", err)
	}
	defer claimed.Close()

	current, err := spillstack.New[State](codec, cfg.FrontierCapacity)
	if err != nil {
		return 0, fmt.Errorf("create frontier: %w", err)
	}
	defer current.Close()

	next, err := spillstack.New[State](codec, cfg.FrontierCapacity)
	if err != nil {
		return 0, fmt.Errorf("create frontier: %w", err)
	}
	defer next.Close()

	if _, err := claimed.InsertCheck(seed.Hash()); err != nil {
		return 0, fmt.Errorf("claim seed: %w", err)
	}

	if err := current.Push(seed); err != nil {
		return 0, fmt.Errorf("push seed: %w", err)
	}

	level := 0

	for current.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		for current.Len() > 0 {
			batch, err := popBatch(current, cfg.WorkerBatch)
			if err != nil {
				return 0, err
			}

			fresh, err := expandBatch(ctx, batch, claimed, cfg.WorkerBatch)
			if err != nil {
				return 0, err
			}

			for _, s := range fresh {
				if err := next.Push(s); err != nil {
					return 0, fmt.Errorf("push successor: %w", err)
				}
			}
		}

		slog.Debug("enumerate: level drained", "level", level, "claimed", claimed.Len())
		level++

		current, next = next, current
	}

	return uint64(claimed.Len()), nil
}

// buildClaimedSet constructs the claimed-set, a [stateset.ParallelSet]
// optionally fronting each shard with a Bloom filter and optionally
// staggering per-shard cache capacity by cfg.PrimeCacheSizes.
func buildClaimedSet(cfg Config) (*stateset.ParallelSet, error) {
	newShard := func(cacheCapacity int) (stateset.Set, error) {
		if !cfg.UseBloom {
			return stateset.NewCacheStore(cacheCapacity)
		}

		perShardExpected := cfg.ExpectedItems / cfg.SetShardCount
		if perShardExpected < 1 {
			perShardExpected = 1
		}

		return stateset.NewBloomSet(perShardExpected, cfg.BloomFPRate, cacheCapacity)
	}

	if cfg.PrimeCacheSizes {
		return stateset.NewParallelSetPrimeCache(cfg.SetShardCount, cfg.SetCachePerShard, newShard)
	}

	return stateset.NewParallelSet(cfg.SetShardCount, func(int) (stateset.Set, error) {
		return newShard(cfg.SetCachePerShard)
	})
}

// popBatch pops up to n items off s, stopping early if s empties first.
func popBatch(s *spillstack.Stack[State], n int) ([]State, error) {
	batch := make([]State, 0, n)

	for len(batch) < n {
		item, ok, err := s.Pop()
		if err != nil {
			return nil, fmt.Errorf("pop frontier: %w", err)
		}

		if !ok {
			break
		}

		batch = append(batch, item)
	}

	return batch, nil
}

// expandBatch expands every state in batch concurrently (bounded by
// workerLimit), claiming each successor's fingerprint exactly once. It
// returns the successors that were not already claimed by some other
// state's expansion, which the caller pushes onto the next frontier.
func expandBatch(
	ctx context.Context,
	batch []State,
	claimed *stateset.ParallelSet,
	workerLimit int,
) ([]State, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workerLimit)

	var (
		mu    sync.Mutex
		fresh []State
	)

	for _, s := range batch {
		g.Go(func() error {
			for _, succ := range s.Successors() {
				wasPresent, err := claimed.InsertCheck(succ.Hash())
				if err != nil {
					return fmt.Errorf("claim successor: %w", err)
				}

				if !wasPresent {
					mu.Lock()
					fresh = append(fresh, succ)
					mu.Unlock()
				}
			}

			return ctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return fresh, nil
}
