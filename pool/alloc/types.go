package alloc

// Allocator defines the capability surface an allocator-aware container needs
// to acquire and release storage for individual elements.
//
// Implementations:
//   - BlockPool: pooled allocator with per-count free lists
//   - Std: pass-through allocator on the Go heap
//   - Synchronized: mutex-guarded wrapper around another Allocator
type Allocator[T any] interface {
	// Allocate returns storage for count contiguous values of T.
	// The storage is not constructed; its contents are unspecified.
	Allocate(count int) (Block[T], error)

	// Deallocate releases a block obtained from Allocate with the same count.
	// It never destroys the values held in the block.
	Deallocate(b Block[T], count int)

	// Construct stores v at dst.
	Construct(dst *T, v T)

	// Destroy finalizes the value at dst. Storage stays allocated.
	Destroy(dst *T)

	// Equal reports whether blocks from this allocator may be released
	// through other, and the other way around.
	Equal(other Allocator[T]) bool
}

// Destroyer is implemented by element types that must release something
// before their slot is reused. Destroy calls it on *T before zeroing the slot.
type Destroyer interface {
	Destroy()
}

// unwrapper is implemented by wrappers such as Synchronized so that Equal can
// compare the underlying allocators.
type unwrapper[T any] interface {
	Unwrap() Allocator[T]
}

// Block is a handle to storage returned by Allocate.
//
// A pooled block names a run in its pool's arena by index; an oversized block
// carries storage reserved directly from the provider. The zero Block holds
// no storage.
type Block[T any] struct {
	owner *BlockPool[T]
	index int // run index within its size class, -1 when not pooled
	data  []T
}

// Ptr returns a pointer to the first slot of the block, or nil for the zero Block.
func (b Block[T]) Ptr() *T {
	if len(b.data) == 0 {
		return nil
	}
	return &b.data[0]
}

// Slice returns the slots of the block. Its capacity equals its length.
func (b Block[T]) Slice() []T {
	return b.data
}

// Len returns the number of slots in the block.
func (b Block[T]) Len() int {
	return len(b.data)
}

// IsZero reports whether b holds no storage.
func (b Block[T]) IsZero() bool {
	return b.data == nil
}

// Oversized reports whether the block bypassed the pool's free lists.
func (b Block[T]) Oversized() bool {
	return b.data != nil && b.index < 0
}

// construct and destroy are shared by every Allocator implementation.
func construct[T any](dst *T, v T) {
	*dst = v
}

func destroy[T any](dst *T) {
	if d, ok := any(dst).(Destroyer); ok {
		d.Destroy()
	}
	var zero T
	*dst = zero
}
