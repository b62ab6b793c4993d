package alloc

import "errors"

var (
	// ErrOutOfMemory indicates the system memory provider could not reserve the requested storage.
	ErrOutOfMemory = errors.New("alloc: out of memory")

	// ErrInvalidCount indicates an allocation request for fewer than one slot.
	ErrInvalidCount = errors.New("alloc: count must be >= 1")

	// ErrInvalidConfig indicates a pool configuration that failed validation.
	ErrInvalidConfig = errors.New("alloc: invalid config")

	// ErrClosed indicates use of a pool after Close.
	ErrClosed = errors.New("alloc: pool closed")

	// ErrPointerElem indicates an element type holding pointers was paired with a
	// backing the garbage collector cannot scan.
	ErrPointerElem = errors.New("alloc: element type contains pointers")
)
