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

import "iter"

// Set is an unordered set of unique keys sharing the table engine of Map.
//
// A Set is NOT goroutine-safe.
type Set[K comparable] struct {
	t table[K, struct{}]
}

// NewSet constructs a new Set with hint+1 buckets.
func NewSet[K comparable](hint int, options ...SetOption[K]) *Set[K] {
	s := &Set[K]{}
	s.Init(hint, options...)
	return s
}

// NewSetFromSeq constructs a new Set with hint+1 buckets holding the keys
// produced by seq.
func NewSetFromSeq[K comparable](seq iter.Seq[K], hint int, options ...SetOption[K]) *Set[K] {
	s := NewSet(hint, options...)
	s.InsertSeq(seq)
	return s
}

// NewSetFromKeys constructs a new Set with hint+1 buckets holding keys.
func NewSetFromKeys[K comparable](hint int, keys []K, options ...SetOption[K]) *Set[K] {
	s := NewSet(hint, options...)
	s.InsertKeys(keys...)
	return s
}

// Init initializes a Set with hint+1 buckets.
func (s *Set[K]) Init(hint int, options ...SetOption[K]) {
	s.t.init(hint, options)
}

// Close releases the arrays of the set to its configured allocator. It is
// invalid to use a Set after it has been closed.
func (s *Set[K]) Close() {
	s.t.free()
	s.t.used = 0
	s.t.deleted = 0
}

// Clone returns a copy of s with keys in the same buckets.
func (s *Set[K]) Clone() *Set[K] {
	c := &Set[K]{}
	c.t.copyFrom(&s.t)
	return c
}

// CopyFrom replaces the contents and configuration of s with a copy of other.
func (s *Set[K]) CopyFrom(other *Set[K]) {
	s.t.copyFrom(&other.t)
}

// MoveFrom transfers the contents and configuration of other to s. other is
// left empty with a single bucket.
func (s *Set[K]) MoveFrom(other *Set[K]) {
	s.t.moveFrom(&other.t)
}

// Assign replaces the contents of s with keys.
func (s *Set[K]) Assign(keys ...K) {
	s.t.clear()
	s.InsertKeys(keys...)
}

// Swap exchanges the contents and configuration of s and other.
func (s *Set[K]) Swap(other *Set[K]) {
	s.t.swap(&other.t)
}

// Clear removes all keys. The bucket count is retained.
func (s *Set[K]) Clear() {
	s.t.clear()
}

// Len returns the number of keys in the set.
func (s *Set[K]) Len() int {
	return s.t.used
}

// Empty returns true if the set has no keys.
func (s *Set[K]) Empty() bool {
	return s.t.used == 0
}

// BucketCount returns the number of buckets.
func (s *Set[K]) BucketCount() int {
	return s.t.bucketCount()
}

// Tombstones returns the number of erased keys not yet reclaimed.
func (s *Set[K]) Tombstones() int {
	return s.t.deleted
}

// LoadFactor returns Len()/BucketCount().
func (s *Set[K]) LoadFactor() float64 {
	return s.t.loadFactor()
}

// MaxLoadFactor returns the maximum load factor, which is fixed at 1.
func (s *Set[K]) MaxLoadFactor() float64 {
	return 1
}

// BucketSize returns the number of entries a bucket can hold, which is always
// 1.
func (s *Set[K]) BucketSize(i int) int {
	return 1
}

// MaxBucketCount returns the largest bucket count the container can reach.
func (s *Set[K]) MaxBucketCount() int {
	return s.t.maxBucketCount()
}

// MaxSize returns the largest number of entries the container can hold,
// which equals MaxBucketCount since the maximum load factor is 1.
func (s *Set[K]) MaxSize() int {
	return s.t.maxBucketCount()
}

// Bucket returns the bucket at which the probe sequence for key starts.
func (s *Set[K]) Bucket(key K) int {
	return int(s.t.bucket(&key))
}

// Rehash re-lays the set into max(n, BucketCount()) buckets if n exceeds
// BucketCount() or tombstones outnumber keys.
func (s *Set[K]) Rehash(n int) {
	s.t.rehash(n)
}

// Reserve is equivalent to Rehash.
func (s *Set[K]) Reserve(n int) {
	s.t.rehash(n)
}

func (s *Set[K]) iter(i uintptr) SetIterator[K] {
	return SetIterator[K]{c: s.t.scan(i)}
}

// Begin returns an iterator at the first key in bucket order.
func (s *Set[K]) Begin() SetIterator[K] {
	return s.iter(0)
}

// BeginAt returns an iterator at the first key at or cyclically after bucket
// i.
func (s *Set[K]) BeginAt(i int) SetIterator[K] {
	if i < 0 {
		return SetIterator[K]{}
	}
	return s.iter(uintptr(i))
}

// End returns the end iterator.
func (s *Set[K]) End() SetIterator[K] {
	return SetIterator[K]{}
}

// Find returns an iterator at key, or the end iterator.
func (s *Set[K]) Find(key K) SetIterator[K] {
	if i, ok := s.t.find(&key); ok {
		return s.iter(i)
	}
	return SetIterator[K]{}
}

// Contains returns true if key is present.
func (s *Set[K]) Contains(key K) bool {
	_, ok := s.t.find(&key)
	return ok
}

// Count returns 1 if key is present and 0 otherwise.
func (s *Set[K]) Count(key K) int {
	if s.Contains(key) {
		return 1
	}
	return 0
}

// EqualRange returns the range of keys equal to key, which holds at most one
// key.
func (s *Set[K]) EqualRange(key K) (first, last SetIterator[K]) {
	return SetIterator[K]{c: s.t.equalRange(&key)}, SetIterator[K]{}
}

// Insert inserts key if it is not present. It returns an iterator at key and
// whether an insertion took place.
func (s *Set[K]) Insert(key K) (SetIterator[K], bool) {
	i, found := s.t.prepareInsert(&key)
	if found {
		return s.iter(i), false
	}
	s.t.commit(i, key, struct{}{})
	return s.iter(i), true
}

// InsertHint is Insert with a guess at the key's position.
func (s *Set[K]) InsertHint(hint SetIterator[K], key K) SetIterator[K] {
	if i, ok := s.t.useHint(&hint.c, &key); ok {
		if s.t.ctrls[i] == ctrlDeleted {
			s.t.commit(i, key, struct{}{})
		}
		return s.iter(i)
	}
	it, _ := s.Insert(key)
	return it
}

// InsertSeq inserts every key produced by seq.
func (s *Set[K]) InsertSeq(seq iter.Seq[K]) {
	for k := range seq {
		s.Insert(k)
	}
}

// InsertKeys inserts keys in order.
func (s *Set[K]) InsertKeys(keys ...K) {
	for _, k := range keys {
		s.Insert(k)
	}
}

// Emplace is equivalent to Insert.
func (s *Set[K]) Emplace(key K) (SetIterator[K], bool) {
	return s.Insert(key)
}

// EmplaceHint is equivalent to InsertHint.
func (s *Set[K]) EmplaceHint(hint SetIterator[K], key K) SetIterator[K] {
	return s.InsertHint(hint, key)
}

// Add inserts key, returning true if it was not already present.
func (s *Set[K]) Add(key K) bool {
	_, inserted := s.Insert(key)
	return inserted
}

// Erase removes the key at it and returns an iterator at the next key.
func (s *Set[K]) Erase(it SetIterator[K]) SetIterator[K] {
	return SetIterator[K]{c: s.t.erase(it.c)}
}

// EraseRange removes the keys from first up to, but not including, last.
func (s *Set[K]) EraseRange(first, last SetIterator[K]) SetIterator[K] {
	return SetIterator[K]{c: s.t.eraseRange(first.c, last.c)}
}

// EraseKey removes key and returns the number of keys removed, 0 or 1.
func (s *Set[K]) EraseKey(key K) int {
	return s.t.eraseKey(&key)
}

// Delete removes key, returning true if it was present.
func (s *Set[K]) Delete(key K) bool {
	return s.t.eraseKey(&key) == 1
}

// All returns an iterator over the keys of the set in bucket order.
func (s *Set[K]) All() iter.Seq[K] {
	return func(yield func(K) bool) {
		s.t.all(func(sl *Slot[K, struct{}]) bool {
			return yield(sl.key)
		})
	}
}

// Equal returns true if s and other hold the same keys.
func (s *Set[K]) Equal(other *Set[K]) bool {
	eq := func(struct{}, struct{}) bool { return true }
	return s.t.used == other.t.used &&
		includes(&s.t, &other.t, eq) && includes(&other.t, &s.t, eq)
}
