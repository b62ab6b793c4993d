package alloc

import "sync"

// Synchronized guards an Allocator with a mutex so several goroutines can
// share it. Construct and Destroy touch only caller-owned slots and are not
// locked.
type Synchronized[T any] struct {
	mu    sync.Mutex
	inner Allocator[T]
}

// NewSynchronized wraps a.
func NewSynchronized[T any](a Allocator[T]) *Synchronized[T] {
	return &Synchronized[T]{inner: a}
}

// Allocate calls the wrapped Allocate under the lock.
func (s *Synchronized[T]) Allocate(count int) (Block[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Allocate(count)
}

// Deallocate calls the wrapped Deallocate under the lock.
//
// The lock only covers the wrapped allocator. A block issued by a different
// pool is released into that pool, which the caller must not use concurrently.
func (s *Synchronized[T]) Deallocate(b Block[T], count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inner.Deallocate(b, count)
}

// Construct stores v at dst.
func (s *Synchronized[T]) Construct(dst *T, v T) {
	s.inner.Construct(dst, v)
}

// Destroy finalizes the value at dst.
func (s *Synchronized[T]) Destroy(dst *T) {
	s.inner.Destroy(dst)
}

// Equal compares the wrapped allocator with other.
func (s *Synchronized[T]) Equal(other Allocator[T]) bool {
	return s.inner.Equal(other)
}

// Unwrap returns the wrapped allocator.
func (s *Synchronized[T]) Unwrap() Allocator[T] {
	return s.inner
}

// Compile-time interface check
var _ Allocator[int] = (*Synchronized[int])(nil)
