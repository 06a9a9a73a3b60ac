// Package planner computes byte offsets for buffers with known lifetime
// intervals, packing them into the smallest arena plan it can while never
// assigning overlapping lifetimes to the same bytes.
//
// The algorithm is a greedy first-fit: buffers are placed in decreasing-size
// order (ties broken by earlier first use, then by insertion order), and each
// buffer takes the first gap between already-placed, lifetime-overlapping
// neighbours that is large enough, or extends the end of the plan. The
// ordering is fully deterministic, so the same set of requirements always
// produces the same plan; reproducible firmware builds depend on this.
package planner
