//go:build !unix

package alloc

import (
	"fmt"
	"reflect"
)

// newMmapProvider falls back to heap storage where anonymous mappings are
// not available. The pointer check still applies so that a configuration
// behaves the same on every platform.
func newMmapProvider[T any](limit int64) (Provider[T], error) {
	t := reflect.TypeFor[T]()
	if hasPointers(t) {
		return nil, fmt.Errorf("%w: %s cannot use %s backing", ErrPointerElem, t, BackingMmap)
	}
	return newHeapProvider[T](limit), nil
}
