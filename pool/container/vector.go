package container

import (
	"fmt"
	"io"
	"iter"

	"github.com/joshuapare/poolkit/pool/alloc"
)

// Vector is an append-only sequence whose elements each live in their own
// single-slot block.
type Vector[T any] struct {
	alloc alloc.Allocator[T]
	elems []alloc.Block[T]
}

// NewVector returns an empty Vector using a. A nil a means alloc.Std.
func NewVector[T any](a alloc.Allocator[T]) *Vector[T] {
	if a == nil {
		a = alloc.Std[T]{}
	}
	return &Vector[T]{alloc: a}
}

// PushBack appends x.
func (v *Vector[T]) PushBack(x T) error {
	b, err := v.alloc.Allocate(1)
	if err != nil {
		return fmt.Errorf("container: push back: %w", err)
	}
	v.alloc.Construct(b.Ptr(), x)
	v.elems = append(v.elems, b)
	return nil
}

// Len returns the number of elements.
func (v *Vector[T]) Len() int {
	return len(v.elems)
}

// Empty reports whether the vector has no elements.
func (v *Vector[T]) Empty() bool {
	return len(v.elems) == 0
}

// At returns element i. It panics if i is out of range.
func (v *Vector[T]) At(i int) T {
	return *v.elems[i].Ptr()
}

// All yields index and value of every element in insertion order.
func (v *Vector[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, b := range v.elems {
			if !yield(i, *b.Ptr()) {
				return
			}
		}
	}
}

// Print writes every element followed by a space, then a newline.
func (v *Vector[T]) Print(w io.Writer) error {
	for _, b := range v.elems {
		if _, err := fmt.Fprintf(w, "%v ", *b.Ptr()); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

// Allocator returns the allocator the vector draws from.
func (v *Vector[T]) Allocator() alloc.Allocator[T] {
	return v.alloc
}

// Close destroys and deallocates every element. The vector is empty and
// reusable afterwards.
func (v *Vector[T]) Close() {
	for _, b := range v.elems {
		v.alloc.Destroy(b.Ptr())
		v.alloc.Deallocate(b, 1)
	}
	v.elems = nil
}
