package container

import (
	"cmp"
	"fmt"
	"iter"

	"github.com/joshuapare/poolkit/pool/alloc"
)

// MapNode is a node of a Map. It is exported so callers can name the
// allocator type, e.g. alloc.New[container.MapNode[int, string]](cfg).
type MapNode[K cmp.Ordered, V any] struct {
	key   K
	value V
	left  *MapNode[K, V]
	right *MapNode[K, V]
	level int

	// blk is the block holding this node.
	blk alloc.Block[MapNode[K, V]]
}

// Map is an ordered map backed by an AA tree. Every node is a single-slot
// block from the map's allocator.
type Map[K cmp.Ordered, V any] struct {
	alloc alloc.Allocator[MapNode[K, V]]
	root  *MapNode[K, V]
	n     int
}

// NewMap returns an empty Map using a. A nil a means alloc.Std.
func NewMap[K cmp.Ordered, V any](a alloc.Allocator[MapNode[K, V]]) *Map[K, V] {
	if a == nil {
		a = alloc.Std[MapNode[K, V]]{}
	}
	return &Map[K, V]{alloc: a}
}

// Len returns the number of entries.
func (m *Map[K, V]) Len() int {
	return m.n
}

// Get returns the value stored for k.
func (m *Map[K, V]) Get(k K) (V, bool) {
	for t := m.root; t != nil; {
		switch c := cmp.Compare(k, t.key); {
		case c < 0:
			t = t.left
		case c > 0:
			t = t.right
		default:
			return t.value, true
		}
	}
	var zero V
	return zero, false
}

// Set stores v for k, replacing any previous value. Replacing does not
// allocate. On allocation failure the map is unchanged.
func (m *Map[K, V]) Set(k K, v V) error {
	root, added, err := m.insert(m.root, k, v)
	if err != nil {
		return err
	}
	m.root = root
	if added {
		m.n++
	}
	return nil
}

// Delete removes k and reports whether it was present.
func (m *Map[K, V]) Delete(k K) bool {
	root, removed := m.remove(m.root, k)
	m.root = root
	if removed {
		m.n--
	}
	return removed
}

// All yields every entry in ascending key order.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		walk(m.root, yield)
	}
}

// Keys yields every key in ascending order.
func (m *Map[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		walk(m.root, func(k K, _ V) bool { return yield(k) })
	}
}

// Close destroys and deallocates every node. The map is empty and reusable
// afterwards.
func (m *Map[K, V]) Close() {
	m.freeTree(m.root)
	m.root = nil
	m.n = 0
}

func walk[K cmp.Ordered, V any](t *MapNode[K, V], yield func(K, V) bool) bool {
	if t == nil {
		return true
	}
	return walk(t.left, yield) && yield(t.key, t.value) && walk(t.right, yield)
}

func (m *Map[K, V]) newNode(k K, v V) (*MapNode[K, V], error) {
	b, err := m.alloc.Allocate(1)
	if err != nil {
		return nil, fmt.Errorf("container: map node: %w", err)
	}
	n := b.Ptr()
	m.alloc.Construct(n, MapNode[K, V]{key: k, value: v, level: 1, blk: b})
	return n, nil
}

func (m *Map[K, V]) freeNode(n *MapNode[K, V]) {
	b := n.blk
	m.alloc.Destroy(n)
	m.alloc.Deallocate(b, 1)
}

func (m *Map[K, V]) freeTree(t *MapNode[K, V]) {
	if t == nil {
		return
	}
	m.freeTree(t.left)
	m.freeTree(t.right)
	m.freeNode(t)
}

func (m *Map[K, V]) insert(t *MapNode[K, V], k K, v V) (*MapNode[K, V], bool, error) {
	if t == nil {
		n, err := m.newNode(k, v)
		if err != nil {
			return nil, false, err
		}
		return n, true, nil
	}

	var (
		child *MapNode[K, V]
		added bool
		err   error
	)
	switch c := cmp.Compare(k, t.key); {
	case c < 0:
		if child, added, err = m.insert(t.left, k, v); err != nil {
			return t, false, err
		}
		t.left = child
	case c > 0:
		if child, added, err = m.insert(t.right, k, v); err != nil {
			return t, false, err
		}
		t.right = child
	default:
		t.value = v
		return t, false, nil
	}

	return split(skew(t)), added, nil
}

func (m *Map[K, V]) remove(t *MapNode[K, V], k K) (*MapNode[K, V], bool) {
	if t == nil {
		return nil, false
	}

	var removed bool
	switch c := cmp.Compare(k, t.key); {
	case c < 0:
		t.left, removed = m.remove(t.left, k)
	case c > 0:
		t.right, removed = m.remove(t.right, k)
	default:
		switch {
		case t.left == nil && t.right == nil:
			m.freeNode(t)
			return nil, true
		case t.right != nil:
			s := t.right
			for s.left != nil {
				s = s.left
			}
			sk, sv := s.key, s.value
			t.right, _ = m.remove(t.right, sk)
			t.key, t.value = sk, sv
		default:
			p := t.left
			for p.right != nil {
				p = p.right
			}
			pk, pv := p.key, p.value
			t.left, _ = m.remove(t.left, pk)
			t.key, t.value = pk, pv
		}
		removed = true
	}
	if !removed {
		return t, false
	}

	// Rebalance on the way up.
	t = decreaseLevel(t)
	t = skew(t)
	t.right = skew(t.right)
	if t.right != nil {
		t.right.right = skew(t.right.right)
	}
	t = split(t)
	t.right = split(t.right)
	return t, true
}

func level[K cmp.Ordered, V any](t *MapNode[K, V]) int {
	if t == nil {
		return 0
	}
	return t.level
}

// skew removes a left horizontal link.
func skew[K cmp.Ordered, V any](t *MapNode[K, V]) *MapNode[K, V] {
	if t == nil || t.left == nil || t.left.level != t.level {
		return t
	}
	l := t.left
	t.left = l.right
	l.right = t
	return l
}

// split removes two consecutive right horizontal links.
func split[K cmp.Ordered, V any](t *MapNode[K, V]) *MapNode[K, V] {
	if t == nil || t.right == nil || t.right.right == nil || t.right.right.level != t.level {
		return t
	}
	r := t.right
	t.right = r.left
	r.left = t
	r.level++
	return r
}

func decreaseLevel[K cmp.Ordered, V any](t *MapNode[K, V]) *MapNode[K, V] {
	want := min(level(t.left), level(t.right)) + 1
	if want < t.level {
		t.level = want
		if t.right != nil && want < t.right.level {
			t.right.level = want
		}
	}
	return t
}
