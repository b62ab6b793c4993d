//go:build unix

package alloc

import (
	"errors"
	"fmt"
	"reflect"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/joshuapare/poolkit/internal/buf"
)

// mmapProvider reserves storage as anonymous private mappings. The garbage
// collector does not scan mapped memory, so T must be pointer-free.
type mmapProvider[T any] struct {
	elemSize int
	budget   budget
}

func newMmapProvider[T any](limit int64) (Provider[T], error) {
	t := reflect.TypeFor[T]()
	if hasPointers(t) {
		return nil, fmt.Errorf("%w: %s cannot use %s backing", ErrPointerElem, t, BackingMmap)
	}
	size := int(t.Size())
	if size == 0 {
		// Nothing to map for zero-size values.
		return newHeapProvider[T](limit), nil
	}
	return &mmapProvider[T]{
		elemSize: size,
		budget:   budget{limit: clampLimit(limit)},
	}, nil
}

func (m *mmapProvider[T]) Reserve(n int) ([]T, error) {
	size, ok := buf.ByteSize(n, m.elemSize)
	if !ok || size == 0 {
		return nil, fmt.Errorf("%w: cannot map %d slots of %d bytes", ErrOutOfMemory, n, m.elemSize)
	}
	if err := m.budget.take(size); err != nil {
		return nil, err
	}
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		m.budget.refund(size)
		return nil, fmt.Errorf("%w: mmap %d bytes: %w", ErrOutOfMemory, size, err)
	}
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(data))), n), nil
}

func (m *mmapProvider[T]) Release(s []T) error {
	if len(s) == 0 {
		return nil
	}
	size := len(s) * m.elemSize
	data := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), size)
	err := unix.Munmap(data)
	if errors.Is(err, unix.EINVAL) {
		// Treat double-unmap as no-op for callers.
		return nil
	}
	if err != nil {
		return fmt.Errorf("alloc: munmap %d bytes: %w", size, err)
	}
	m.budget.refund(size)
	return nil
}
