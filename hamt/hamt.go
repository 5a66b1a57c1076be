// Package hamt implements a persistent (copy-on-write) hash-array-mapped
// trie: an associative container whose Clone is O(1), after which mutating
// one clone never affects another, while unmodified subtrees are shared
// between clones rather than copied.
//
// Each lookup or update computes a 64-bit hash of the key and consumes it w
// bits at a time (w is the table's branch power, derived from its branch
// factor). At each level, the bits select a branch via a bitmap-compressed
// dense array: a 64-bit bitmap records which of 2^w slots are occupied, and
// the population count below the target bit gives that slot's position in
// the dense array. A slot holds either a leaf (one or more key/value pairs
// sharing a hash, normally exactly one — more than one only on a genuine
// hash collision) or another branch, recursing one level deeper.
//
// Mutation is copy-on-write driven by reference counts: every node carries
// a count of how many parents currently point to it. A
// node is mutated directly only when its whole descent path is exclusively
// owned — its own count is one and so is every ancestor's. As soon as any
// node on the path is shared (because some ancestor was Cloned), that node
// and everything mutated below it is copied first, and each copy's children
// have their reference counts bumped since they now also have two parents. This gives amortized O(log n) updates
// with the unmodified parts of the tree shared across every clone, and it
// is why Insert/Remove/Clear take a pointer receiver and mutate the Map in
// place rather than returning a new value: a Map is a mutable handle onto a
// versioned, shared tree, not the tree itself.
package hamt

import (
	"hash/maphash"
	"math/bits"
	"sync/atomic"
)

const (
	minBranchPower = 1
	maxBranchPower = 6
	defaultBranch  = 32
)

var seed = maphash.MakeSeed()

// Map is a persistent hash-array-mapped trie from K to V.
//
// The zero Map is not usable; construct one with New or
// NewWithBranchFactor. Insert, Remove, and Clear mutate the Map in place.
// Clone returns an independent Map over the same contents: mutating one
// afterward never affects the other, but unmodified subtrees are shared
// between them rather than copied, so Clone is O(1).
//
// A Map is not safe for concurrent mutation, and must not be mutated
// concurrently with a Clone() call on it. Two Maps produced by a Clone
// relationship may be read (Get, Range, Len) concurrently from separate
// goroutines, and either may be mutated concurrently with reads of the
// other, since the copy-on-write bookkeeping uses atomic reference counts
// precisely to make that safe.
type Map[K comparable, V any] struct {
	w    uint32 // branch power: each level consumes w bits of the hash
	root *node[K, V]
}

// New returns an empty Map with the default branch factor (32).
func New[K comparable, V any]() *Map[K, V] {
	return NewWithBranchFactor[K, V](defaultBranch)
}

// NewWithBranchFactor returns an empty Map whose branch factor is n rounded
// up to the next power of two, clamped so its log2 (the branch power) lies
// in [1,6]. A larger branch factor gives a shallower, wider tree at the
// cost of copying more per path-copy; 32 is a reasonable default.
func NewWithBranchFactor[K comparable, V any](n uint32) *Map[K, V] {
	if n < 2 {
		n = 2
	}
	w := uint32(bits.Len32(n - 1))
	if w < minBranchPower {
		w = minBranchPower
	}
	if w > maxBranchPower {
		w = maxBranchPower
	}
	return &Map[K, V]{w: w, root: newCNode[K, V]()}
}

// hashKey computes a process-seeded 64-bit hash of key. The process-wide
// seed (hash/maphash's own randomized seed) plays the role of the random
// seed mixed into every hash that defends a HAMT against adversarial keys:
// an attacker who doesn't know the process's seed cannot predict
// collisions.
func hashKey[K comparable](key K) uint64 {
	return maphash.Comparable(seed, key)
}

// Clone returns a Map sharing this Map's current contents. Cloning is
// O(1): it does not copy a single node, it only bumps the shared root's
// reference count. Subsequent mutation of either the original or the clone
// path-copies only the nodes that mutation actually touches.
func (m *Map[K, V]) Clone() *Map[K, V] {
	m.root.retain()
	return &Map[K, V]{w: m.w, root: m.root}
}

// Len reports the number of key/value pairs in the map.
func (m *Map[K, V]) Len() int {
	return m.root.count()
}

// Get returns the value associated with key, if any.
func (m *Map[K, V]) Get(key K) (V, bool) {
	return m.root.get(hashKey(key), key, 0, m.w)
}

// MustGet returns the value associated with key. It panics if key is not
// present.
func (m *Map[K, V]) MustGet(key K) V {
	v, ok := m.Get(key)
	if !ok {
		panic("hamt: no entry found for key")
	}
	return v
}

// Insert binds key to val, returning the value it previously held, if any.
// Insert mutates m in place; any Map obtained from m via Clone before this
// call continues to observe the old contents.
func (m *Map[K, V]) Insert(key K, val V) (old V, hadOld bool) {
	oldRoot := m.root
	newRoot, old, hadOld := oldRoot.insert(hashKey(key), key, val, 0, m.w, false)
	if newRoot != oldRoot {
		atomic.AddInt32(&oldRoot.refs, -1)
	}
	m.root = newRoot
	return old, hadOld
}

// Remove unbinds key, returning the value it held, if any. Remove mutates m
// in place; any Map obtained from m via Clone before this call continues to
// observe the old contents.
func (m *Map[K, V]) Remove(key K) (old V, hadOld bool) {
	oldRoot := m.root
	newRoot, old, hadOld := oldRoot.remove(hashKey(key), key, 0, m.w, false)
	if newRoot != oldRoot {
		atomic.AddInt32(&oldRoot.refs, -1)
	}
	if newRoot == nil {
		newRoot = newCNode[K, V]()
	}
	m.root = newRoot
	return old, hadOld
}

// Clear empties m. Clear mutates m in place; any Map obtained from m via
// Clone before this call continues to observe the old contents.
func (m *Map[K, V]) Clear() {
	atomic.AddInt32(&m.root.refs, -1)
	m.root = newCNode[K, V]()
}

// Range calls f for every key/value pair in the map, in unspecified order.
// Range stops early if f returns false.
func (m *Map[K, V]) Range(f func(key K, val V) bool) {
	m.root.walk(f)
}
