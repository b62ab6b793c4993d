package alloc

import "testing"

// Benchmark_Pool_AllocFree benchmarks the pooled single-slot fast path.
func Benchmark_Pool_AllocFree(b *testing.B) {
	p := newTestPool[[4]int64](b, 10, 64)

	b.ReportAllocs()
	b.ResetTimer()

	for range b.N {
		blk, err := p.Allocate(1)
		if err != nil {
			b.Fatal(err)
		}
		p.Deallocate(blk, 1)
	}
}

// Benchmark_Pool_Batch benchmarks allocating and releasing a batch, which
// exercises expansion once and reuse afterwards.
func Benchmark_Pool_Batch(b *testing.B) {
	p := newTestPool[[4]int64](b, 10, 64)
	blocks := make([]Block[[4]int64], 256)

	b.ReportAllocs()
	b.ResetTimer()

	for range b.N {
		for i := range blocks {
			blk, err := p.Allocate(1)
			if err != nil {
				b.Fatal(err)
			}
			blocks[i] = blk
		}
		for i := len(blocks) - 1; i >= 0; i-- {
			p.Deallocate(blocks[i], 1)
		}
	}
}

// Benchmark_Std_Batch is the pass-through baseline for Benchmark_Pool_Batch.
func Benchmark_Std_Batch(b *testing.B) {
	var a Std[[4]int64]
	blocks := make([]Block[[4]int64], 256)

	b.ReportAllocs()
	b.ResetTimer()

	for range b.N {
		for i := range blocks {
			blk, err := a.Allocate(1)
			if err != nil {
				b.Fatal(err)
			}
			blocks[i] = blk
		}
		for i := len(blocks) - 1; i >= 0; i-- {
			a.Deallocate(blocks[i], 1)
		}
	}
}

// Benchmark_Pool_Oversized benchmarks the pass-through path of a pool.
func Benchmark_Pool_Oversized(b *testing.B) {
	p := newTestPool[int64](b, 10, 10)

	b.ReportAllocs()
	b.ResetTimer()

	for range b.N {
		blk, err := p.Allocate(32)
		if err != nil {
			b.Fatal(err)
		}
		p.Deallocate(blk, 32)
	}
}
