// Package container provides allocator-aware containers built on pool/alloc.
//
// Each container acquires storage for its elements one at a time through an
// alloc.Allocator, so it can run on a BlockPool or on the pass-through
// alloc.Std allocator without code changes:
//
//   - Vector: append-only sequence, one allocation per element
//   - Map: ordered map (AA tree), one allocation per node
//
// Containers are not safe for concurrent use. Close destroys and releases
// every element; the allocator itself is owned by the caller.
package container
