// Package buf contains overflow-checked size arithmetic for storage reservations.
package buf

import "math"

// AddOverflowSafe adds a and b, returning ok = false when the sum does not fit in an int.
func AddOverflowSafe(a, b int) (int, bool) {
	if (b > 0 && a > math.MaxInt-b) || (b < 0 && a < math.MinInt-b) {
		return 0, false
	}
	return a + b, true
}

// MulOverflowSafe multiplies a and b, returning ok = false when the product does not fit in an int.
func MulOverflowSafe(a, b int) (int, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	p := a * b
	if p/b != a || (a == -1 && b == math.MinInt) || (b == -1 && a == math.MinInt) {
		return 0, false
	}
	return p, true
}

// ByteSize returns count*elemSize for a reservation of count elements.
// It reports ok = false for negative inputs and for products that overflow.
//
//	n, ok := buf.ByteSize(slots, int(unsafe.Sizeof(zero)))
//	if !ok {
//	    return nil, ErrOutOfMemory
//	}
func ByteSize(count, elemSize int) (int, bool) {
	if count < 0 || elemSize < 0 {
		return 0, false
	}
	return MulOverflowSafe(count, elemSize)
}
