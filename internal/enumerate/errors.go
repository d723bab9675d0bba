// Package enumerate implements the level-synchronous breadth-first
// enumeration of a bounded-memory, out-of-core state space: a "claimed"
// set of fingerprints (package stateset) guards a spilling frontier stack
// (package spillstack) so memory use stays bounded by configuration rather
// than by the size of the reachable state space.
package enumerate

import "errors"

// Error kinds; callers classify with errors.Is. [Enumerate] wraps
// ErrInvariant for an invalid Config. Errors from the composed components
// are passed through wrapping those packages' own sentinels (for example
// stateset.ErrIO or spillstack.ErrIO), not ErrIO from this package.
var (
	// ErrIO names a temp-file or mmap failure. Enumerate does not
	// return errors wrapping it; see the note above.
	ErrIO = errors.New("enumerate: io error")

	// ErrInvariant indicates an invalid Config or an internal
	// consistency violation.
	ErrInvariant = errors.New("enumerate: invariant violation")
)
