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

import "github.com/cockroachdb/errors"

// cursor is a forward position in a table. It borrows the bucket arrays that
// were current when it was created; it never owns them. The zero cursor is the
// end cursor.
//
// In scan mode the cursor sits on a live bucket and advances cyclically,
// (current+1)%B, to the next live bucket, becoming the end cursor when it
// wraps around to the bucket it started from. In ordered mode it visits a
// supplied list of buckets, consuming the list from the tail.
type cursor[K comparable, V any] struct {
	t       *table[K, V]
	ctrls   []ctrl
	slots   []Slot[K, V]
	current uintptr
	start   uintptr
	valid   bool
	ordered bool
	order   []uintptr
}

// scan returns a scan mode cursor positioned at the first live bucket at or
// cyclically after bucket i.
func (t *table[K, V]) scan(i uintptr) cursor[K, V] {
	n := uintptr(len(t.ctrls))
	if i >= n {
		return cursor[K, V]{}
	}
	c := cursor[K, V]{
		t:       t,
		ctrls:   t.ctrls,
		slots:   t.slots,
		current: i,
		start:   i,
		valid:   true,
	}
	for c.ctrls[c.current] != ctrlLive {
		c.current = (c.current + 1) % n
		if c.current == c.start {
			return cursor[K, V]{}
		}
	}
	return c
}

// ordered returns an ordered mode cursor over the given buckets.
func (t *table[K, V]) ordered(order []uintptr) cursor[K, V] {
	c := cursor[K, V]{
		t:       t,
		ctrls:   t.ctrls,
		slots:   t.slots,
		valid:   true,
		ordered: true,
		order:   order,
	}
	c.next()
	return c
}

// owns returns true if c is positioned in the current arrays of t.
func (t *table[K, V]) owns(c *cursor[K, V]) bool {
	return c.valid && c.t == t && len(c.ctrls) == len(t.ctrls) &&
		&c.ctrls[0] == &t.ctrls[0] && c.current < uintptr(len(t.ctrls))
}

func (c *cursor[K, V]) next() {
	if !c.valid {
		return
	}
	if c.ordered {
		if len(c.order) == 0 {
			*c = cursor[K, V]{}
			return
		}
		last := len(c.order) - 1
		c.current = c.order[last]
		c.order = c.order[:last]
		return
	}
	n := uintptr(len(c.ctrls))
	for {
		c.current = (c.current + 1) % n
		if c.current == c.start {
			*c = cursor[K, V]{}
			return
		}
		if c.ctrls[c.current] == ctrlLive {
			return
		}
	}
}

// equal returns true if both cursors are the end cursor, or both are
// positioned at the same bucket of the same table.
func (c *cursor[K, V]) equal(o *cursor[K, V]) bool {
	if !c.valid {
		return !o.valid
	}
	return o.valid && c.t == o.t && c.current == o.current
}

func (c *cursor[K, V]) slot() (*Slot[K, V], error) {
	if !c.valid {
		return nil, errors.Mark(ErrEndIterator, ErrOutOfRange)
	}
	return &c.slots[c.current], nil
}

func (c *cursor[K, V]) bucket() int {
	if !c.valid {
		return -1
	}
	return int(c.current)
}

// MapIterator is a forward iterator over the entries of a Map. The zero
// MapIterator is the end iterator.
//
// An iterator is invalidated by any operation that may rehash the map (every
// insert, Rehash, Reserve, CopyFrom, MoveFrom, Assign) and by Clear. Erase
// invalidates only the iterator it erases through. Iteration order is bucket
// order, which depends on hash values and on the history of the map.
//
//	for it := m.Begin(); it.Valid(); it.Next() {
//	  k, _ := it.Key()
//	  v, _ := it.Value()
//	  *v += k
//	}
type MapIterator[K comparable, V any] struct {
	c cursor[K, V]
}

// Valid returns false if it is the end iterator.
func (it MapIterator[K, V]) Valid() bool {
	return it.c.valid
}

// Next advances it to the next entry, or to the end.
func (it *MapIterator[K, V]) Next() {
	it.c.next()
}

// Key returns the key of the entry at it, or ErrEndIterator.
func (it MapIterator[K, V]) Key() (K, error) {
	s, err := it.c.slot()
	if err != nil {
		var zero K
		return zero, err
	}
	return s.key, nil
}

// Value returns a pointer to the value of the entry at it, through which the
// value can be modified in place, or ErrEndIterator.
func (it MapIterator[K, V]) Value() (*V, error) {
	s, err := it.c.slot()
	if err != nil {
		return nil, err
	}
	return &s.value, nil
}

// Bucket returns the index of the bucket it is positioned at, or -1 at the
// end.
func (it MapIterator[K, V]) Bucket() int {
	return it.c.bucket()
}

// Equal returns true if it and o are both the end iterator or are positioned
// at the same bucket of the same map.
func (it MapIterator[K, V]) Equal(o MapIterator[K, V]) bool {
	return it.c.equal(&o.c)
}

// SetIterator is a forward iterator over the keys of a Set. The zero
// SetIterator is the end iterator. It is invalidated under the same rules as
// MapIterator.
type SetIterator[K comparable] struct {
	c cursor[K, struct{}]
}

// Valid returns false if it is the end iterator.
func (it SetIterator[K]) Valid() bool {
	return it.c.valid
}

// Next advances it to the next key, or to the end.
func (it *SetIterator[K]) Next() {
	it.c.next()
}

// Key returns the key at it, or ErrEndIterator.
func (it SetIterator[K]) Key() (K, error) {
	s, err := it.c.slot()
	if err != nil {
		var zero K
		return zero, err
	}
	return s.key, nil
}

// Bucket returns the index of the bucket it is positioned at, or -1 at the
// end.
func (it SetIterator[K]) Bucket() int {
	return it.c.bucket()
}

// Equal returns true if it and o are both the end iterator or are positioned
// at the same bucket of the same set.
func (it SetIterator[K]) Equal(o SetIterator[K]) bool {
	return it.c.equal(&o.c)
}
