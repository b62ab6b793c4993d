package alloc

import "fmt"

// Std is the pass-through allocator: every Allocate is a fresh Go slice and
// Deallocate leaves the storage to the garbage collector. It is the default
// a container uses when no pool is supplied.
type Std[T any] struct{}

// Allocate returns count zeroed slots from the Go heap.
func (Std[T]) Allocate(count int) (Block[T], error) {
	if count < 1 {
		return Block[T]{}, fmt.Errorf("%w: got %d", ErrInvalidCount, count)
	}
	return Block[T]{index: -1, data: make([]T, count)}, nil
}

// Deallocate drops b.
func (Std[T]) Deallocate(Block[T], int) {}

// Construct stores v at dst.
func (Std[T]) Construct(dst *T, v T) {
	construct(dst, v)
}

// Destroy finalizes the value at dst.
func (Std[T]) Destroy(dst *T) {
	destroy(dst)
}

// Equal reports whether other is also a Std allocator.
func (Std[T]) Equal(other Allocator[T]) bool {
	for {
		u, ok := other.(unwrapper[T])
		if !ok {
			break
		}
		other = u.Unwrap()
	}
	switch other.(type) {
	case Std[T], *Std[T]:
		return true
	}
	return false
}

// Compile-time interface check
var _ Allocator[int] = Std[int]{}
