// Package allocator turns an immutable graph description into a bound,
// executable node list inside one fixed arena.
//
// A GraphAllocator drives the allocation pass: it derives tensor and node
// records from the graph, resolves each operator against the capability
// table, runs every kernel's prepare step, plans non-persistent storage with
// a greedy lifetime planner, commits the plan into the arena's head region
// and binds every tensor to concrete storage. Persistent allocations
// (variable tensors, operator data, node metadata) come from the arena tail
// and accumulate across passes; planning bookkeeping lives in temporary
// space that is reclaimed when the pass commits.
//
// One GraphAllocator may be shared by several graphs ("multi-tenant"): the
// committed head region only ever grows to the largest single plan, while
// tail usage accumulates. Passes must be serialized by the caller; nothing
// here locks.
package allocator
