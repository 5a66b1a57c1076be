package hamt

import (
	"math/bits"
	"sync/atomic"
)

type nodeKind uint8

const (
	branchKind nodeKind = iota
	leafKind
)

// entry is one key/value pair stored in a leaf, tagged with the full hash
// that placed it there. A leaf normally holds exactly one entry; more than
// one means a genuine collision between distinct keys' full 64-bit hashes.
type entry[K comparable, V any] struct {
	hash uint64
	key  K
	val  V
}

// node is one trie node: either a branch (a bitmap-compressed dense array
// of child nodes) or a leaf (one or more colliding entries). refs counts
// how many parent slots (or Map roots, via Clone) currently point at this
// exact node; it is read and written atomically since two Maps produced by
// a Clone relationship may be used from separate goroutines.
//
// A refcount alone does not decide mutability: a node with refs == 1 under
// a shared ancestor is still reachable from every clone of that ancestor.
// insert and remove therefore thread a shared flag down the descent — once
// any node on the path has refs > 1, everything below it must be copied
// before mutation, refcounts notwithstanding. The parent is made unique
// before the child is, never the other way around.
type node[K comparable, V any] struct {
	kind     nodeKind
	refs     int32
	bitmap   uint64
	children []*node[K, V] // branchKind only, dense, ordered by slot index
	entries  []entry[K, V] // leafKind only
}

func newCNode[K comparable, V any]() *node[K, V] {
	return &node[K, V]{kind: branchKind, refs: 1}
}

func newSNode[K comparable, V any](hash uint64, key K, val V) *node[K, V] {
	return &node[K, V]{kind: leafKind, refs: 1, entries: []entry[K, V]{{hash, key, val}}}
}

func (n *node[K, V]) retain() {
	atomic.AddInt32(&n.refs, 1)
}

// clone returns an independent copy of n with its own reference count of
// one. A branch's children are shallow-copied (same pointers) and each
// child's reference count is bumped, since n's existing parent still
// points at the original n's children while this new copy now does too.
func (n *node[K, V]) clone() *node[K, V] {
	m := &node[K, V]{kind: n.kind, refs: 1}
	switch n.kind {
	case branchKind:
		m.bitmap = n.bitmap
		m.children = append([]*node[K, V](nil), n.children...)
		for _, c := range m.children {
			c.retain()
		}
	case leafKind:
		m.entries = append([]entry[K, V](nil), n.entries...)
	}
	return m
}

// cow ("clone on write") returns a node safe to mutate directly: n itself
// when nothing else can reach it, otherwise a fresh clone. shared means
// some ancestor on the current descent path is reachable from more than
// one parent, in which case n must be copied even if its own refcount is
// one.
func (n *node[K, V]) cow(shared bool) *node[K, V] {
	if !shared {
		return n
	}
	return n.clone()
}

func bitIndex(hash uint64, depth, w uint32) uint64 {
	return (hash >> (depth * w)) & ((uint64(1) << w) - 1)
}

func (n *node[K, V]) count() int {
	switch n.kind {
	case leafKind:
		return len(n.entries)
	default:
		total := 0
		for _, c := range n.children {
			total += c.count()
		}
		return total
	}
}

func (n *node[K, V]) walk(f func(K, V) bool) bool {
	switch n.kind {
	case leafKind:
		for _, e := range n.entries {
			if !f(e.key, e.val) {
				return false
			}
		}
		return true
	default:
		for _, c := range n.children {
			if !c.walk(f) {
				return false
			}
		}
		return true
	}
}

func (n *node[K, V]) get(hash uint64, key K, depth, w uint32) (V, bool) {
	switch n.kind {
	case leafKind:
		for _, e := range n.entries {
			if e.hash == hash && e.key == key {
				return e.val, true
			}
		}
		var zero V
		return zero, false
	default:
		bit := uint64(1) << bitIndex(hash, depth, w)
		if n.bitmap&bit == 0 {
			var zero V
			return zero, false
		}
		pos := bits.OnesCount64(n.bitmap & (bit - 1))
		return n.children[pos].get(hash, key, depth+1, w)
	}
}

// insert returns the node that should replace n at its current slot (which
// may be n itself, mutated in place), along with the value previously
// bound to key, if any. When the returned node differs from n, the caller
// is responsible for releasing n's reference at that slot. shared carries
// the descent-path sharedness described on node's doc comment; callers at
// the root pass false.
func (n *node[K, V]) insert(hash uint64, key K, val V, depth, w uint32, shared bool) (*node[K, V], V, bool) {
	shared = shared || atomic.LoadInt32(&n.refs) > 1

	switch n.kind {
	case leafKind:
		for i, e := range n.entries {
			if e.hash == hash && e.key == key {
				m := n.cow(shared)
				old := m.entries[i].val
				m.entries[i].val = val
				return m, old, true
			}
		}
		var zero V
		if len(n.entries) > 0 && n.entries[0].hash == hash {
			m := n.cow(shared)
			m.entries = append(m.entries, entry[K, V]{hash, key, val})
			return m, zero, false
		}
		e0 := n.entries[0]
		newChild := splitLeaf[K, V](e0.hash, e0.key, e0.val, hash, key, val, depth, w)
		return newChild, zero, false

	default:
		idx := bitIndex(hash, depth, w)
		bit := uint64(1) << idx
		var zero V
		if n.bitmap&bit == 0 {
			m := n.cow(shared)
			pos := bits.OnesCount64(m.bitmap & (bit - 1))
			leaf := newSNode[K, V](hash, key, val)
			children := make([]*node[K, V], 0, len(m.children)+1)
			children = append(children, m.children[:pos]...)
			children = append(children, leaf)
			children = append(children, m.children[pos:]...)
			m.bitmap |= bit
			m.children = children
			return m, zero, false
		}
		pos := bits.OnesCount64(n.bitmap & (bit - 1))
		child := n.children[pos]
		newChild, old, hadOld := child.insert(hash, key, val, depth+1, w, shared)
		if newChild == child {
			return n, old, hadOld
		}
		m := n.cow(shared)
		atomic.AddInt32(&child.refs, -1)
		m.children[pos] = newChild
		return m, old, hadOld
	}
}

// splitLeaf builds a fresh branch (or chain of branches, if the two hashes
// continue to share bit groups at deeper levels) distinguishing two
// distinct hashes that land in the same slot. It never reuses an existing
// node's pointer, so the caller's generic "replace this slot" bookkeeping
// applies uniformly.
func splitLeaf[K comparable, V any](h1 uint64, k1 K, v1 V, h2 uint64, k2 K, v2 V, depth, w uint32) *node[K, V] {
	idx1 := bitIndex(h1, depth, w)
	idx2 := bitIndex(h2, depth, w)
	if idx1 == idx2 {
		child := splitLeaf[K, V](h1, k1, v1, h2, k2, v2, depth+1, w)
		return &node[K, V]{
			kind:     branchKind,
			refs:     1,
			bitmap:   uint64(1) << idx1,
			children: []*node[K, V]{child},
		}
	}
	leaf1 := newSNode[K, V](h1, k1, v1)
	leaf2 := newSNode[K, V](h2, k2, v2)
	children := []*node[K, V]{leaf1, leaf2}
	if idx1 > idx2 {
		children[0], children[1] = children[1], children[0]
	}
	return &node[K, V]{
		kind:     branchKind,
		refs:     1,
		bitmap:   uint64(1)<<idx1 | uint64(1)<<idx2,
		children: children,
	}
}

// remove returns the node that should replace n at its current slot (nil
// if n became empty), along with the value previously bound to key, if
// any. The same "return n unchanged" convention as insert applies when
// key is absent, and the same shared threading governs in-place mutation.
func (n *node[K, V]) remove(hash uint64, key K, depth, w uint32, shared bool) (*node[K, V], V, bool) {
	shared = shared || atomic.LoadInt32(&n.refs) > 1

	switch n.kind {
	case leafKind:
		for i, e := range n.entries {
			if e.hash == hash && e.key == key {
				if len(n.entries) == 1 {
					return nil, e.val, true
				}
				m := n.cow(shared)
				rest := append([]entry[K, V](nil), m.entries[:i]...)
				rest = append(rest, m.entries[i+1:]...)
				m.entries = rest
				return m, e.val, true
			}
		}
		var zero V
		return n, zero, false

	default:
		bit := uint64(1) << bitIndex(hash, depth, w)
		var zero V
		if n.bitmap&bit == 0 {
			return n, zero, false
		}
		pos := bits.OnesCount64(n.bitmap & (bit - 1))
		child := n.children[pos]
		newChild, old, hadOld := child.remove(hash, key, depth+1, w, shared)
		if !hadOld {
			return n, old, false
		}
		if newChild == child {
			return n, old, true
		}
		m := n.cow(shared)
		atomic.AddInt32(&child.refs, -1)
		if newChild == nil {
			m.bitmap &^= bit
			children := append([]*node[K, V](nil), m.children[:pos]...)
			children = append(children, m.children[pos+1:]...)
			m.children = children
			if len(m.children) == 0 {
				return nil, old, true
			}
			return m, old, true
		}
		m.children[pos] = newChild
		return m, old, true
	}
}
