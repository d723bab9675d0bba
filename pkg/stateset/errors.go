// Package stateset implements the hash-set family used by the enumeration
// engine: a cache-plus-sorted-run set, a Bloom-filtered variant, a
// hash-partitioned variant, and a lock-striped parallel variant built on top
// of it. All four hold 64-bit fingerprints only — never the original items —
// so membership is exact only up to hash collisions, which is acceptable per
// the enumeration engine's contract.
package stateset

import "errors"

// Error kinds. Implementations wrap one of these with additional context;
// callers classify with errors.Is.
var (
	// ErrIO indicates a temp-file or mmap failure during a flush.
	ErrIO = errors.New("stateset: io error")

	// ErrInvariant indicates a programming error that should be
	// unreachable: zero cache capacity, zero shard count, and so on.
	ErrInvariant = errors.New("stateset: invariant violation")
)

// Set is a set of 64-bit fingerprints. [CacheStore], [BloomSet], and
// [PartitionSet] implement it. [ParallelSet] does not: it exposes
// [ParallelSet.InsertCheck] in place of Insert.
type Set interface {
	// Insert adds a fingerprint to the set.
	Insert(h uint64) error

	// Contains reports whether a fingerprint is present.
	Contains(h uint64) bool

	// Len returns the number of fingerprints in the set.
	Len() int

	// Close releases any resources (on-disk runs) held by the set.
	Close() error
}
