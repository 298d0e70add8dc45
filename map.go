// Copyright 2024 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package openaddr

import (
	"iter"

	"github.com/cockroachdb/errors"
)

// Entry is a key and value pair.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// Map is an unordered map from unique keys to values. Keys are immutable
// once stored; values can be modified in place through Index, MapIterator.Value
// or InsertOrAssign.
//
// A Map is NOT goroutine-safe.
type Map[K comparable, V any] struct {
	t table[K, V]
}

// New constructs a new Map with hint+1 buckets. The zero value for a Map is
// not usable; use New or Init.
func New[K comparable, V any](hint int, options ...Option[K, V]) *Map[K, V] {
	m := &Map[K, V]{}
	m.Init(hint, options...)
	return m
}

// NewFromSeq constructs a new Map with hint+1 buckets and inserts the pairs
// produced by seq. A later pair with a key already present is ignored.
func NewFromSeq[K comparable, V any](
	seq iter.Seq2[K, V], hint int, options ...Option[K, V],
) *Map[K, V] {
	m := New(hint, options...)
	m.InsertSeq(seq)
	return m
}

// NewFromEntries constructs a new Map with hint+1 buckets and inserts
// entries in order. A later entry with a key already present is ignored.
func NewFromEntries[K comparable, V any](
	hint int, entries []Entry[K, V], options ...Option[K, V],
) *Map[K, V] {
	m := New(hint, options...)
	m.InsertEntries(entries...)
	return m
}

// Init initializes a Map with hint+1 buckets, discarding any previous
// contents without releasing them to the allocator.
func (m *Map[K, V]) Init(hint int, options ...Option[K, V]) {
	m.t.init(hint, options)
}

// Close releases the arrays of the map to its configured allocator. It is
// unnecessary to close a map using the default allocator. It is invalid to use
// a Map after it has been closed, though Close itself is idempotent.
func (m *Map[K, V]) Close() {
	m.t.free()
	m.t.used = 0
	m.t.deleted = 0
}

// Clone returns a copy of m. Entries occupy the same buckets in the copy as in
// m, and the copy shares m's hash function, seed, equality and probing.
func (m *Map[K, V]) Clone() *Map[K, V] {
	c := &Map[K, V]{}
	c.t.copyFrom(&m.t)
	return c
}

// CopyFrom replaces the contents and configuration of m with a copy of other.
func (m *Map[K, V]) CopyFrom(other *Map[K, V]) {
	m.t.copyFrom(&other.t)
}

// MoveFrom transfers the contents and configuration of other to m without
// copying. other is left empty with a single bucket.
func (m *Map[K, V]) MoveFrom(other *Map[K, V]) {
	m.t.moveFrom(&other.t)
}

// Assign replaces the contents of m with entries.
func (m *Map[K, V]) Assign(entries ...Entry[K, V]) {
	m.t.clear()
	m.InsertEntries(entries...)
}

// Swap exchanges the contents and configuration of m and other.
func (m *Map[K, V]) Swap(other *Map[K, V]) {
	m.t.swap(&other.t)
}

// Clear removes all entries. The bucket count is retained.
func (m *Map[K, V]) Clear() {
	m.t.clear()
}

// Len returns the number of entries in the map.
func (m *Map[K, V]) Len() int {
	return m.t.used
}

// Empty returns true if the map has no entries.
func (m *Map[K, V]) Empty() bool {
	return m.t.used == 0
}

// BucketCount returns the number of buckets.
func (m *Map[K, V]) BucketCount() int {
	return m.t.bucketCount()
}

// Tombstones returns the number of buckets holding erased entries that have
// not yet been reclaimed by a rehash.
func (m *Map[K, V]) Tombstones() int {
	return m.t.deleted
}

// LoadFactor returns Len()/BucketCount().
func (m *Map[K, V]) LoadFactor() float64 {
	return m.t.loadFactor()
}

// MaxLoadFactor returns the maximum load factor, which is fixed at 1.
func (m *Map[K, V]) MaxLoadFactor() float64 {
	return 1
}

// BucketSize returns the number of entries a bucket can hold, which is always
// 1.
func (m *Map[K, V]) BucketSize(i int) int {
	return 1
}

// MaxBucketCount returns the largest bucket count the container can reach.
func (m *Map[K, V]) MaxBucketCount() int {
	return m.t.maxBucketCount()
}

// MaxSize returns the largest number of entries the container can hold,
// which equals MaxBucketCount since the maximum load factor is 1.
func (m *Map[K, V]) MaxSize() int {
	return m.t.maxBucketCount()
}

// Bucket returns the bucket at which the probe sequence for key starts. It is
// always less than BucketCount().
func (m *Map[K, V]) Bucket(key K) int {
	return int(m.t.bucket(&key))
}

// Rehash re-lays the map into max(n, BucketCount()) buckets if n exceeds
// BucketCount() or tombstones outnumber entries.
func (m *Map[K, V]) Rehash(n int) {
	m.t.rehash(n)
}

// Reserve is equivalent to Rehash.
func (m *Map[K, V]) Reserve(n int) {
	m.t.rehash(n)
}

func (m *Map[K, V]) iter(i uintptr) MapIterator[K, V] {
	return MapIterator[K, V]{c: m.t.scan(i)}
}

// Begin returns an iterator at the first entry in bucket order, or the end
// iterator if the map is empty.
func (m *Map[K, V]) Begin() MapIterator[K, V] {
	return m.iter(0)
}

// BeginAt returns an iterator at the first entry at or cyclically after
// bucket i. The iterator visits every entry once, wrapping around the end of
// the bucket array.
func (m *Map[K, V]) BeginAt(i int) MapIterator[K, V] {
	if i < 0 {
		return MapIterator[K, V]{}
	}
	return m.iter(uintptr(i))
}

// End returns the end iterator.
func (m *Map[K, V]) End() MapIterator[K, V] {
	return MapIterator[K, V]{}
}

// Find returns an iterator at the entry for key, or the end iterator.
func (m *Map[K, V]) Find(key K) MapIterator[K, V] {
	if i, ok := m.t.find(&key); ok {
		return m.iter(i)
	}
	return MapIterator[K, V]{}
}

// Contains returns true if key is present.
func (m *Map[K, V]) Contains(key K) bool {
	_, ok := m.t.find(&key)
	return ok
}

// Count returns the number of entries with key, which is 0 or 1.
func (m *Map[K, V]) Count(key K) int {
	if m.Contains(key) {
		return 1
	}
	return 0
}

// Get retrieves the value from the map for the specified key, returning
// ok=false if the key is not present.
func (m *Map[K, V]) Get(key K) (value V, ok bool) {
	i, ok := m.t.find(&key)
	if !ok {
		return value, false
	}
	return m.t.slots[i].value, true
}

// At returns the value for key. If key is not present it returns an error
// satisfying errors.Is(err, ErrKeyNotFound) and errors.Is(err, ErrOutOfRange).
func (m *Map[K, V]) At(key K) (V, error) {
	i, ok := m.t.find(&key)
	if !ok {
		var zero V
		return zero, errors.Mark(errors.Wrapf(ErrKeyNotFound, "at(%v)", key), ErrOutOfRange)
	}
	return m.t.slots[i].value, nil
}

// Index returns a pointer to the value for key, first inserting the zero value
// if key is not present. The pointer is valid until the next operation that
// may rehash the map.
func (m *Map[K, V]) Index(key K) *V {
	i, found := m.t.prepareInsert(&key)
	if !found {
		var zero V
		m.t.commit(i, key, zero)
	}
	return &m.t.slots[i].value
}

// EqualRange returns the range of entries whose key equals key. Keys are
// unique, so the range holds at most one entry.
func (m *Map[K, V]) EqualRange(key K) (first, last MapIterator[K, V]) {
	return MapIterator[K, V]{c: m.t.equalRange(&key)}, MapIterator[K, V]{}
}

// Insert inserts key with value if key is not present. It returns an
// iterator at the entry for key and whether an insertion took place. An
// existing value is never overwritten.
func (m *Map[K, V]) Insert(key K, value V) (MapIterator[K, V], bool) {
	i, found := m.t.prepareInsert(&key)
	if found {
		return m.iter(i), false
	}
	m.t.commit(i, key, value)
	return m.iter(i), true
}

// InsertHint is Insert with a guess at the entry's position. If hint is
// positioned at the entry for key, or at its tombstone, the probe is skipped.
// A wrong or stale hint costs one key comparison.
func (m *Map[K, V]) InsertHint(hint MapIterator[K, V], key K, value V) MapIterator[K, V] {
	if i, ok := m.t.useHint(&hint.c, &key); ok {
		if m.t.ctrls[i] == ctrlDeleted {
			m.t.commit(i, key, value)
		}
		return m.iter(i)
	}
	it, _ := m.Insert(key, value)
	return it
}

// InsertSeq inserts every pair produced by seq as if by Insert.
func (m *Map[K, V]) InsertSeq(seq iter.Seq2[K, V]) {
	for k, v := range seq {
		m.Insert(k, v)
	}
}

// InsertEntries inserts entries in order as if by Insert.
func (m *Map[K, V]) InsertEntries(entries ...Entry[K, V]) {
	for _, e := range entries {
		m.Insert(e.Key, e.Value)
	}
}

// Emplace is equivalent to Insert.
func (m *Map[K, V]) Emplace(key K, value V) (MapIterator[K, V], bool) {
	return m.Insert(key, value)
}

// EmplaceHint is equivalent to InsertHint.
func (m *Map[K, V]) EmplaceHint(hint MapIterator[K, V], key K, value V) MapIterator[K, V] {
	return m.InsertHint(hint, key, value)
}

// TryEmplace inserts key with the value returned by mk if key is not present.
// mk is only called when an insertion takes place.
func (m *Map[K, V]) TryEmplace(key K, mk func() V) (MapIterator[K, V], bool) {
	i, found := m.t.prepareInsert(&key)
	if found {
		return m.iter(i), false
	}
	m.t.commit(i, key, mk())
	return m.iter(i), true
}

// TryEmplaceHint is TryEmplace with a guess at the entry's position.
func (m *Map[K, V]) TryEmplaceHint(hint MapIterator[K, V], key K, mk func() V) MapIterator[K, V] {
	if i, ok := m.t.useHint(&hint.c, &key); ok {
		if m.t.ctrls[i] == ctrlDeleted {
			m.t.commit(i, key, mk())
		}
		return m.iter(i)
	}
	it, _ := m.TryEmplace(key, mk)
	return it
}

// InsertOrAssign inserts key with value, or assigns value to the existing
// entry for key. It returns an iterator at the entry and whether an insertion
// took place.
func (m *Map[K, V]) InsertOrAssign(key K, value V) (MapIterator[K, V], bool) {
	i, found := m.t.prepareInsert(&key)
	if found {
		m.t.slots[i].value = value
		return m.iter(i), false
	}
	m.t.commit(i, key, value)
	return m.iter(i), true
}

// InsertOrAssignHint is InsertOrAssign with a guess at the entry's position.
func (m *Map[K, V]) InsertOrAssignHint(hint MapIterator[K, V], key K, value V) MapIterator[K, V] {
	if i, ok := m.t.useHint(&hint.c, &key); ok {
		if m.t.ctrls[i] == ctrlDeleted {
			m.t.commit(i, key, value)
		} else {
			m.t.slots[i].value = value
		}
		return m.iter(i)
	}
	it, _ := m.InsertOrAssign(key, value)
	return it
}

// Put inserts an entry into the map, overwriting an existing value if an
// entry with the same key already exists.
func (m *Map[K, V]) Put(key K, value V) {
	m.InsertOrAssign(key, value)
}

// Erase removes the entry at it and returns an iterator at the next entry.
// Erasing the end iterator returns the end iterator. Other iterators remain
// valid: erasure never moves entries.
func (m *Map[K, V]) Erase(it MapIterator[K, V]) MapIterator[K, V] {
	return MapIterator[K, V]{c: m.t.erase(it.c)}
}

// EraseRange removes the entries from first up to, but not including, last.
// It returns the iterator produced by the final erasure, or the end iterator
// if the range was empty.
func (m *Map[K, V]) EraseRange(first, last MapIterator[K, V]) MapIterator[K, V] {
	return MapIterator[K, V]{c: m.t.eraseRange(first.c, last.c)}
}

// EraseKey removes the entry for key and returns the number of entries
// removed, which is 0 or 1.
func (m *Map[K, V]) EraseKey(key K) int {
	return m.t.eraseKey(&key)
}

// Delete deletes the entry corresponding to the specified key from the map,
// returning true if it was present.
func (m *Map[K, V]) Delete(key K) bool {
	return m.t.eraseKey(&key) == 1
}

// All returns an iterator over the key and value of every entry in bucket
// order. The map can be mutated during iteration, though there is no guarantee
// that the mutations will be visible to the iteration.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		m.t.all(func(s *Slot[K, V]) bool {
			return yield(s.key, s.value)
		})
	}
}

// Keys returns an iterator over the keys of the map in bucket order.
func (m *Map[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		m.t.all(func(s *Slot[K, V]) bool {
			return yield(s.key)
		})
	}
}

// Values returns an iterator over the values of the map in bucket order.
func (m *Map[K, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		m.t.all(func(s *Slot[K, V]) bool {
			return yield(s.value)
		})
	}
}

// Equal returns true if m and other hold the same keys with values equal under
// eq. Insertion order and bucket layout are irrelevant.
func (m *Map[K, V]) Equal(other *Map[K, V], eq func(a, b V) bool) bool {
	return m.t.used == other.t.used &&
		includes(&m.t, &other.t, eq) && includes(&other.t, &m.t, eq)
}

// Equal returns true if a and b hold the same entries.
func Equal[K, V comparable](a, b *Map[K, V]) bool {
	return a.Equal(b, func(x, y V) bool { return x == y })
}

// includes returns true if every entry of a is present in b with an equal
// value.
func includes[K comparable, V any](a, b *table[K, V], eq func(x, y V) bool) bool {
	ok := true
	a.all(func(s *Slot[K, V]) bool {
		i, found := b.find(&s.key)
		ok = found && eq(s.value, b.slots[i].value)
		return ok
	})
	return ok
}
