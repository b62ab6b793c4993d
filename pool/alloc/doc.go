// Package alloc provides a fixed-block pool allocator for values of a single Go type.
//
// # Overview
//
// A BlockPool serves many same-sized allocation requests from storage it
// reserved up front, instead of going to the system memory provider for every
// request. Released blocks are kept on a free list and handed out again in
// last-in, first-out order, so recently released storage is the first to be
// reused.
//
// # Allocator Interface
//
// Containers consume the pool through the Allocator interface:
//
//   - Allocate(count): obtain storage for count contiguous values
//   - Deallocate(block, count): release storage obtained with the same count
//   - Construct(dst, v): store a value into allocated storage
//   - Destroy(dst): finalize the value at dst without releasing storage
//   - Equal(other): report whether other can release this allocator's blocks
//
// # Implementations
//
// BlockPool: pooled allocator with index-based free lists
//
//   - O(1) amortized Allocate and Deallocate
//   - Lazy expansion by Config.Granularity runs per size class
//   - Oversized requests (count > Config.BlockSize) bypass the pool
//   - All reserved storage is returned to the provider on Close
//
// Std: pass-through allocator backed by the Go heap, no pooling
//
// Synchronized: mutex-guarded wrapper for sharing an Allocator between goroutines
//
// # Usage Example
//
//	p, err := alloc.New[int](alloc.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	b, err := p.Allocate(1)
//	if err != nil {
//	    return err
//	}
//	p.Construct(b.Ptr(), 42)
//
//	// Later, finalize and release the slot
//	p.Destroy(b.Ptr())
//	p.Deallocate(b, 1)
//
// # Size Classes
//
// Every request count from 1 to BlockSize has its own free list. The
// single-slot class is the common case; a class for count n hands out runs of
// n contiguous slots carved from its own chunks:
//
//	count == 1               single-slot free list
//	1 < count <= BlockSize   run-length free list for count
//	count > BlockSize        system provider, no free list
//
// Deallocate must be called with the count used for Allocate so both paths
// agree on the class.
//
// # Expansion
//
// When a class has no free run, the pool reserves Granularity runs from the
// provider in a single call. If the provider fails, Allocate returns an error
// wrapping ErrOutOfMemory and the pool keeps its previous state. The pool
// never shrinks while it is open.
//
// # Providers
//
// The system memory provider is chosen by Config.Backing:
//
//	BackingHeap  Go heap slices, optional byte budget (Config.Limit)
//	BackingMmap  anonymous mappings, pointer-free element types only
//
// # Equivalence
//
// A Block remembers the pool that issued it, so any pool with the same
// BlockSize can release it. Rebind creates a pool for another element type
// with the same configuration.
//
// # Thread Safety
//
// BlockPool instances are not thread-safe. Callers must hold a lock around
// Allocate and Deallocate, or wrap the pool with NewSynchronized.
package alloc
