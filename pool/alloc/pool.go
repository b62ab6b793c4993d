package alloc

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joshuapare/poolkit/internal/buf"
)

// Debug flag - set to true to check block/count agreement on Deallocate (compile-time toggle).
const debugPool = false

// Runtime flag for per-call allocation logging - controlled by POOLKIT_LOG_ALLOC env var.
var logAlloc = os.Getenv("POOLKIT_LOG_ALLOC") != ""

// BlockPool is a fixed-block pool allocator for values of type T.
//
//   - Requests for count <= BlockSize are served from a free list per count
//   - Free lists hold run indices into chunks reserved from the provider
//   - Released runs are reused last-in, first-out
//   - Requests for count > BlockSize go straight to the provider
//
// A BlockPool is not safe for concurrent use.
type BlockPool[T any] struct {
	cfg      Config
	opts     options
	provider Provider[T]
	log      *slog.Logger

	// classes[n] serves requests for n slots; created on first use.
	classes map[int]*sizeClass[T]

	// Statistics for testing and instrumentation
	stats poolStats

	closed bool
}

// sizeClass is the arena and free list for runs of a single length.
type sizeClass[T any] struct {
	width  int   // slots per run
	chunks [][]T // each chunk holds Granularity runs
	free   []int // stack of free run indices, top is last
}

// poolStats holds internal pool statistics.
type poolStats struct {
	Allocs            int // Pooled Allocate() calls
	Deallocs          int // Pooled Deallocate() calls
	Expansions        int // Reservations triggered by an empty free list
	Oversized         int // Allocate() calls passed to the provider
	OversizedReleases int // Deallocate() calls passed to the provider
	Failures          int // Failed provider reservations
	ReservedSlots     int // Slots currently held in chunks
}

// Stats is a snapshot of pool state.
type Stats struct {
	Allocs            int `json:"allocs"`
	Deallocs          int `json:"deallocs"`
	Expansions        int `json:"expansions"`
	Oversized         int `json:"oversized"`
	OversizedReleases int `json:"oversized_releases"`
	Failures          int `json:"failures"`
	ReservedSlots     int `json:"reserved_slots"`
	FreeSlots         int `json:"free_slots"`
	LiveOversized     int `json:"live_oversized"`
}

// New creates an empty pool. No storage is reserved until the first Allocate.
func New[T any](cfg Config, opts ...Option) (*BlockPool[T], error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	provider, err := newProvider[T](cfg)
	if err != nil {
		return nil, err
	}

	log := o.logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &BlockPool[T]{
		cfg:      cfg,
		opts:     o,
		provider: provider,
		log:      log.With("pool", cfg.Name),
		classes:  make(map[int]*sizeClass[T]),
	}, nil
}

// Rebind creates a pool for U with the configuration, logger and metrics of
// p. The new pool has its own, empty arena.
func Rebind[U, T any](p *BlockPool[T]) (*BlockPool[U], error) {
	return New[U](p.cfg, WithLogger(p.opts.logger), WithMetrics(p.opts.metrics))
}

// Equivalent reports whether blocks can move between a and b's kinds of
// allocator, which holds when both use the same BlockSize.
func Equivalent[T, U any](a *BlockPool[T], b *BlockPool[U]) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.cfg.BlockSize == b.cfg.BlockSize
}

// Config returns the effective configuration of the pool.
func (p *BlockPool[T]) Config() Config {
	return p.cfg
}

// Allocate returns storage for count contiguous values of T.
//
// Requests for more than BlockSize slots are reserved directly from the
// provider. Smaller requests pop the most recently released run of their
// size class, expanding the class first when its free list is empty.
func (p *BlockPool[T]) Allocate(count int) (Block[T], error) {
	if count < 1 {
		return Block[T]{}, fmt.Errorf("%w: got %d", ErrInvalidCount, count)
	}
	if p.closed {
		return Block[T]{}, ErrClosed
	}

	if count > p.cfg.BlockSize {
		return p.allocOversized(count)
	}

	c := p.class(count)
	if len(c.free) == 0 {
		if err := p.expand(c); err != nil {
			return Block[T]{}, err
		}
	}

	top := len(c.free) - 1
	idx := c.free[top]
	c.free = c.free[:top]

	p.stats.Allocs++
	if p.opts.metrics != nil {
		p.opts.metrics.RecordAlloc(p.cfg.Name)
	}
	if logAlloc {
		p.log.Debug("allocate", "count", count, "index", idx, "free", len(c.free))
	}

	return Block[T]{owner: p, index: idx, data: c.run(idx, p.cfg.Granularity)}, nil
}

// Deallocate releases b, which must come from Allocate(count) on this pool or
// an equivalent one. The release goes to the pool that issued b. The values
// in b are not destroyed; call Destroy first. Releasing the zero Block is a
// no-op.
func (p *BlockPool[T]) Deallocate(b Block[T], count int) {
	owner := b.owner
	if owner == nil {
		owner = p
	}
	owner.release(b, count)
}

func (p *BlockPool[T]) release(b Block[T], count int) {
	if b.IsZero() {
		return
	}
	if debugPool {
		if len(b.data) != count {
			panic(fmt.Sprintf("alloc: deallocate count %d for block of %d slots", count, len(b.data)))
		}
		if count <= p.cfg.BlockSize && b.index < 0 {
			panic(fmt.Sprintf("alloc: deallocate unpooled block as %d pooled slots", count))
		}
	}

	if count > p.cfg.BlockSize {
		p.stats.OversizedReleases++
		if p.opts.metrics != nil {
			p.opts.metrics.RecordOversizedRelease(p.cfg.Name)
		}
		if err := p.provider.Release(b.data); err != nil {
			p.log.Warn("release oversized block", "count", count, "error", err)
		}
		return
	}

	if p.closed || count < 1 {
		// Chunks are gone after Close; nothing to return the run to.
		return
	}

	c := p.class(count)
	c.free = append(c.free, b.index)

	p.stats.Deallocs++
	if p.opts.metrics != nil {
		p.opts.metrics.RecordDealloc(p.cfg.Name)
	}
	if logAlloc {
		p.log.Debug("deallocate", "count", count, "index", b.index, "free", len(c.free))
	}
}

// Construct stores v at dst.
func (p *BlockPool[T]) Construct(dst *T, v T) {
	construct(dst, v)
}

// ConstructFunc zeroes dst and then runs init on it.
func (p *BlockPool[T]) ConstructFunc(dst *T, init func(*T)) {
	var zero T
	*dst = zero
	init(dst)
}

// Destroy finalizes the value at dst: it calls Destroy when *T implements
// Destroyer, then zeroes the slot. Storage stays allocated.
func (p *BlockPool[T]) Destroy(dst *T) {
	destroy(dst)
}

// Equal reports whether other is a block pool with the same BlockSize.
func (p *BlockPool[T]) Equal(other Allocator[T]) bool {
	for {
		u, ok := other.(unwrapper[T])
		if !ok {
			break
		}
		other = u.Unwrap()
	}
	o, ok := other.(*BlockPool[T])
	return ok && Equivalent(p, o)
}

// Available returns the number of free runs in the size class for count.
// It is 0 for oversized counts, which have no free list.
func (p *BlockPool[T]) Available(count int) int {
	if count < 1 || count > p.cfg.BlockSize {
		return 0
	}
	c, ok := p.classes[count]
	if !ok {
		return 0
	}
	return len(c.free)
}

// Reserved returns the number of slots currently held by the pool's chunks.
func (p *BlockPool[T]) Reserved() int {
	return p.stats.ReservedSlots
}

// Stats returns a snapshot of pool activity.
func (p *BlockPool[T]) Stats() Stats {
	free := 0
	for _, c := range p.classes {
		free += len(c.free) * c.width
	}
	live := p.stats.Oversized - p.stats.OversizedReleases
	if live < 0 {
		live = 0
	}
	return Stats{
		Allocs:            p.stats.Allocs,
		Deallocs:          p.stats.Deallocs,
		Expansions:        p.stats.Expansions,
		Oversized:         p.stats.Oversized,
		OversizedReleases: p.stats.OversizedReleases,
		Failures:          p.stats.Failures,
		ReservedSlots:     p.stats.ReservedSlots,
		FreeSlots:         free,
		LiveOversized:     live,
	}
}

// Close returns every chunk to the provider. Blocks obtained from the pool's
// free lists must not be used afterwards; oversized blocks stay valid until
// they are deallocated. Close is idempotent.
func (p *BlockPool[T]) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true

	var errs []error
	released := 0
	for _, c := range p.classes {
		for _, chunk := range c.chunks {
			if err := p.provider.Release(chunk); err != nil {
				errs = append(errs, err)
			}
			released += len(chunk)
		}
	}
	clear(p.classes)
	p.stats.ReservedSlots = 0

	p.log.Debug("close", "released_slots", released, "live_oversized", p.Stats().LiveOversized)
	return errors.Join(errs...)
}

// class returns the size class for count, creating it on first use.
func (p *BlockPool[T]) class(count int) *sizeClass[T] {
	c, ok := p.classes[count]
	if !ok {
		c = &sizeClass[T]{width: count}
		p.classes[count] = c
	}
	return c
}

// expand reserves Granularity runs for c in one provider call. On failure
// c is left untouched.
func (p *BlockPool[T]) expand(c *sizeClass[T]) error {
	g := p.cfg.Granularity
	n, ok := buf.MulOverflowSafe(g, c.width)
	if !ok {
		return fmt.Errorf("alloc: expand class %d: %w: %d runs overflow", c.width, ErrOutOfMemory, g)
	}
	chunk, err := p.reserve(n)
	if err != nil {
		return fmt.Errorf("alloc: expand class %d: %w", c.width, err)
	}

	base := len(c.chunks) * g
	c.chunks = append(c.chunks, chunk)

	// Push in reverse so the lowest index is on top and runs are handed out
	// in address order.
	for i := g - 1; i >= 0; i-- {
		c.free = append(c.free, base+i)
	}

	p.stats.Expansions++
	p.stats.ReservedSlots += len(chunk)
	if p.opts.metrics != nil {
		p.opts.metrics.RecordExpansion(p.cfg.Name)
	}
	p.log.Debug("expand", "class", c.width, "runs", g, "reserved_slots", p.stats.ReservedSlots)
	return nil
}

func (p *BlockPool[T]) allocOversized(count int) (Block[T], error) {
	data, err := p.reserve(count)
	if err != nil {
		return Block[T]{}, fmt.Errorf("alloc: oversized request of %d slots: %w", count, err)
	}

	p.stats.Oversized++
	if p.opts.metrics != nil {
		p.opts.metrics.RecordOversized(p.cfg.Name)
	}
	if logAlloc {
		p.log.Debug("allocate oversized", "count", count)
	}
	return Block[T]{owner: p, index: -1, data: data}, nil
}

// reserve asks the provider for n slots and records failures.
func (p *BlockPool[T]) reserve(n int) ([]T, error) {
	data, err := p.provider.Reserve(n)
	if err != nil {
		p.stats.Failures++
		if p.opts.metrics != nil {
			p.opts.metrics.RecordFailure(p.cfg.Name)
		}
		return nil, err
	}
	return data[:n:n], nil
}

// run returns the slots of run idx.
func (c *sizeClass[T]) run(idx, granularity int) []T {
	chunk := c.chunks[idx/granularity]
	off := (idx % granularity) * c.width
	return chunk[off : off+c.width : off+c.width]
}

// Compile-time interface check
var _ Allocator[int] = (*BlockPool[int])(nil)
