package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Pool Creation Utilities
// ============================================================================

// newTestPool creates a heap-backed pool with the given threshold and granularity.
func newTestPool[T any](t testing.TB, blockSize, granularity int, opts ...Option) *BlockPool[T] {
	t.Helper()

	p, err := New[T](Config{
		Name:        t.Name(),
		BlockSize:   blockSize,
		Granularity: granularity,
	}, opts...)
	require.NoError(t, err, "failed to create test pool")

	t.Cleanup(func() { _ = p.Close() })
	return p
}

// allocN allocates n single slots and fails the test on error.
func allocN[T any](t testing.TB, p *BlockPool[T], n int) []Block[T] {
	t.Helper()

	blocks := make([]Block[T], 0, n)
	for i := range n {
		b, err := p.Allocate(1)
		require.NoError(t, err, "allocation %d", i)
		blocks = append(blocks, b)
	}
	return blocks
}

// heapUsed returns the bytes held by a heap-backed pool's provider.
func heapUsed[T any](t testing.TB, p *BlockPool[T]) int {
	t.Helper()

	hp, ok := p.provider.(*heapProvider[T])
	require.True(t, ok, "pool is not heap-backed")
	return hp.used()
}

// ============================================================================
// Invariant Checks
// ============================================================================

// assertInvariants verifies the free-list bookkeeping of every size class:
//   - free indices are in range and unique
//   - every chunk holds exactly Granularity runs
//   - ReservedSlots equals the slots held in chunks
func assertInvariants[T any](t testing.TB, p *BlockPool[T]) {
	t.Helper()

	reserved := 0
	for n, c := range p.classes {
		assert.Equal(t, n, c.width, "class %d has wrong run width", n)
		assert.LessOrEqual(t, n, p.cfg.BlockSize, "class %d above BlockSize", n)

		total := len(c.chunks) * p.cfg.Granularity
		seen := make(map[int]bool, len(c.free))
		for _, idx := range c.free {
			assert.GreaterOrEqual(t, idx, 0, "class %d: negative free index", c.width)
			assert.Less(t, idx, total, "class %d: free index %d out of range", c.width, idx)
			assert.False(t, seen[idx], "class %d: index %d on free list twice", c.width, idx)
			seen[idx] = true
		}
		assert.LessOrEqual(t, len(c.free), total, "class %d: more free runs than reserved", c.width)

		for j, chunk := range c.chunks {
			assert.Len(t, chunk, p.cfg.Granularity*c.width, "class %d chunk %d has wrong size", c.width, j)
			reserved += len(chunk)
		}
	}
	assert.Equal(t, reserved, p.stats.ReservedSlots, "ReservedSlots out of sync with chunks")
}
