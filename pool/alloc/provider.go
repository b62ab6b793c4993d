package alloc

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/joshuapare/poolkit/internal/buf"
)

// Provider is the system memory provider behind a pool. It reserves and
// releases whole slices of T; the pool carves slots out of them.
type Provider[T any] interface {
	// Reserve returns storage for n values of T, or an error wrapping
	// ErrOutOfMemory when it cannot.
	Reserve(n int) ([]T, error)

	// Release returns storage obtained from Reserve.
	Release(s []T) error
}

// newProvider builds the provider selected by cfg.Backing.
func newProvider[T any](cfg Config) (Provider[T], error) {
	switch cfg.Backing {
	case BackingHeap:
		return newHeapProvider[T](cfg.Limit), nil
	case BackingMmap:
		return newMmapProvider[T](cfg.Limit)
	default:
		return nil, fmt.Errorf("%w: unknown backing %q", ErrInvalidConfig, cfg.Backing)
	}
}

// budget tracks bytes held against an optional limit.
type budget struct {
	limit int // 0 means unlimited
	used  int
}

// take charges n bytes, failing with ErrOutOfMemory past the limit.
func (b *budget) take(n int) error {
	next, ok := buf.AddOverflowSafe(b.used, n)
	if !ok || (b.limit > 0 && next > b.limit) {
		return fmt.Errorf("%w: %d bytes requested, %d of %d in use", ErrOutOfMemory, n, b.used, b.limit)
	}
	b.used = next
	return nil
}

func (b *budget) refund(n int) {
	b.used -= n
	if b.used < 0 {
		b.used = 0
	}
}

// heapProvider reserves storage as ordinary Go slices.
type heapProvider[T any] struct {
	elemSize int
	budget   budget
}

func newHeapProvider[T any](limit int64) *heapProvider[T] {
	var zero T
	return &heapProvider[T]{
		elemSize: int(unsafe.Sizeof(zero)),
		budget:   budget{limit: clampLimit(limit)},
	}
}

func (h *heapProvider[T]) Reserve(n int) (s []T, err error) {
	size, ok := buf.ByteSize(n, h.elemSize)
	if !ok {
		return nil, fmt.Errorf("%w: %d slots of %d bytes overflows", ErrOutOfMemory, n, h.elemSize)
	}
	if err := h.budget.take(size); err != nil {
		return nil, err
	}

	// makeslice panics on lengths the runtime refuses; surface it as OOM.
	defer func() {
		if r := recover(); r != nil {
			h.budget.refund(size)
			s, err = nil, fmt.Errorf("%w: %v", ErrOutOfMemory, r)
		}
	}()
	return make([]T, n), nil
}

func (h *heapProvider[T]) Release(s []T) error {
	h.budget.refund(len(s) * h.elemSize)
	return nil
}

// used reports bytes currently reserved. Tests only.
func (h *heapProvider[T]) used() int {
	return h.budget.used
}

func clampLimit(limit int64) int {
	if limit > int64(^uint(0)>>1) {
		return int(^uint(0) >> 1)
	}
	return int(limit)
}

// hasPointers reports whether values of t hold references the garbage
// collector must trace.
func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.UnsafePointer, reflect.Map, reflect.Chan,
		reflect.Func, reflect.Interface, reflect.Slice, reflect.String:
		return true
	case reflect.Array:
		return t.Len() > 0 && hasPointers(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
