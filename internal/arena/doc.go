// Package arena provides a two-ended bump allocator over a single
// caller-owned fixed-size buffer.
//
// The buffer is carved from both ends:
//
//   - The tail grows downward and holds persistent allocations (variable
//     tensor storage, operator private data). Tail bytes are never reclaimed
//     until the arena itself is discarded.
//   - The head grows upward and holds the committed non-persistent plan area
//     shared by all tenants of the arena. The committed head line only ever
//     moves up (GrowHead), so head usage approaches the maximum requirement
//     of any single tenant rather than the sum.
//   - Above the committed head line, temporary per-pass bookkeeping is
//     allocated with AllocateFromHead and reclaimed wholesale by ResetTemp.
//
// The invariant is head <= temp <= tail at all times; an allocation that
// would cross returns ErrArenaExhausted and changes nothing.
//
// # Concurrency Model
//
// Allocator is NOT safe for concurrent use. Allocation passes on a shared
// arena must be fully serialized by the caller; interleaving two passes
// would corrupt the shared head/tail cursors.
package arena
