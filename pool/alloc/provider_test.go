package alloc

import (
	"math"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeapProvider_Budget(t *testing.T) {
	hp := newHeapProvider[int32](40)

	a, err := hp.Reserve(6)
	require.NoError(t, err)
	assert.Len(t, a, 6)
	assert.Equal(t, 24, hp.used())

	_, err = hp.Reserve(5)
	require.ErrorIs(t, err, ErrOutOfMemory, "24 + 20 bytes exceeds the 40 byte limit")
	assert.Equal(t, 24, hp.used(), "failed reservation is not charged")

	require.NoError(t, hp.Release(a))
	assert.Equal(t, 0, hp.used())

	b, err := hp.Reserve(10)
	require.NoError(t, err)
	assert.Len(t, b, 10)
}

func TestHeapProvider_Unlimited(t *testing.T) {
	hp := newHeapProvider[byte](0)

	s, err := hp.Reserve(1 << 16)
	require.NoError(t, err)
	assert.Len(t, s, 1<<16)
}

func TestHeapProvider_Overflow(t *testing.T) {
	hp := newHeapProvider[int64](0)

	_, err := hp.Reserve(math.MaxInt / 2)
	require.ErrorIs(t, err, ErrOutOfMemory)
	assert.Equal(t, 0, hp.used())
}

func TestHeapProvider_ZeroSize(t *testing.T) {
	hp := newHeapProvider[struct{}](1)

	s, err := hp.Reserve(1000)
	require.NoError(t, err)
	assert.Len(t, s, 1000)
	assert.Equal(t, 0, hp.used())
}

func TestNewProvider_UnknownBacking(t *testing.T) {
	_, err := newProvider[int](Config{Backing: "tape"})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestHasPointers(t *testing.T) {
	type flat struct {
		A int64
		B [4]uint16
		C float64
	}
	type nested struct {
		F flat
		S string
	}
	type emptyArr struct {
		P [0]*int
	}

	tests := []struct {
		name string
		typ  reflect.Type
		want bool
	}{
		{"int", reflect.TypeFor[int](), false},
		{"float array", reflect.TypeFor[[8]float32](), false},
		{"flat struct", reflect.TypeFor[flat](), false},
		{"empty struct", reflect.TypeFor[struct{}](), false},
		{"zero-length pointer array", reflect.TypeFor[emptyArr](), false},
		{"string", reflect.TypeFor[string](), true},
		{"pointer", reflect.TypeFor[*int](), true},
		{"slice", reflect.TypeFor[[]byte](), true},
		{"map", reflect.TypeFor[map[int]int](), true},
		{"interface", reflect.TypeFor[any](), true},
		{"func", reflect.TypeFor[func()](), true},
		{"chan", reflect.TypeFor[chan int](), true},
		{"nested string", reflect.TypeFor[nested](), true},
		{"array of pointers", reflect.TypeFor[[2]*int](), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, hasPointers(tt.typ))
		})
	}
}

func TestMmapBacking_RejectsPointerTypes(t *testing.T) {
	_, err := New[string](Config{Backing: BackingMmap})
	require.ErrorIs(t, err, ErrPointerElem)

	_, err = New[record](Config{Backing: BackingMmap})
	require.ErrorIs(t, err, ErrPointerElem)
}
