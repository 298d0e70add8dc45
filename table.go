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

// Package openaddr provides an unordered map (Map) and set (Set) built on a
// single open-addressing hash table with tombstone deletion and a selectable
// probing policy. See https://en.wikipedia.org/wiki/Open_addressing.
//
// # Layout
//
// A table is an array of B >= 1 buckets. Each bucket has a control byte and a
// slot holding a key (and, for a Map, a value). The control byte puts the
// bucket in one of three states:
//
//	empty:   the bucket has not held a live entry since the last rehash
//	live:    the bucket holds an entry that lookups can find
//	deleted: the bucket held a live entry that was erased (a tombstone)
//
// Slots are stored inline in the bucket array rather than individually
// allocated. Iterators and pointers into a table therefore do not survive a
// rehash, which every insert may trigger.
//
// # Probing
//
// The probe sequence for a key starts at the base bucket hash(key)%B and
// continues at (base+offset)%B where the offsets come from the table's
// Probing policy (see Policy). Every traversal uses its own probe sequence
// so lookups never disturb the state of another operation.
//
// For every live bucket i holding key k there is a step s < B such that i is
// the s'th bucket of k's probe sequence and every bucket at an earlier step is
// non-empty. Lookup relies on this: it walks the sequence and stops at the
// first empty bucket, at a live bucket holding k, or at a tombstone holding k
// (an erased key is absent). Tombstones of other keys are stepped over. At
// most B buckets are inspected.
//
// Erasure converts a live bucket into a tombstone and leaves the key in place.
// Re-inserting the same key revives the tombstone. A tombstone never becomes
// empty except through a rehash, which re-lays all live entries into a fresh
// array and drops the tombstones.
//
// # Growth
//
// The maximum load factor is 1: an insert first reserves room for one more
// live entry, growing the bucket array to exactly the live count plus one
// when it is full. The same reservation compacts the table in place when
// tombstones outnumber live entries. An insert then probes the base bucket
// and at most ceil(B/2) further buckets. If that budget is exhausted without
// finding the key, an empty bucket or the key's tombstone, the table grows by
// a factor of 3 and the insert restarts.
//
// A Map or Set is NOT goroutine-safe.
package openaddr

import (
	"fmt"
	"math"
	"strings"
	"unsafe"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

const (
	debug = false

	// growthFactor is the multiplier applied to the bucket count when an
	// insert exhausts its probe budget.
	growthFactor = 3
)

// Each bucket has a control byte recording its state.
type ctrl uint8

const (
	ctrlEmpty ctrl = iota
	ctrlLive
	ctrlDeleted
)

func (c ctrl) String() string {
	switch c {
	case ctrlEmpty:
		return "empty"
	case ctrlLive:
		return "live"
	case ctrlDeleted:
		return "deleted"
	default:
		return fmt.Sprintf("ctrl(%d)", uint8(c))
	}
}

// Slot holds a key and value. A Set stores Slot[K, struct{}].
type Slot[K comparable, V any] struct {
	key   K
	value V
}

type hashFn[K any] func(key *K, seed uintptr) uintptr

type equalFn[K any] func(a, b *K) bool

// table is the engine shared by Map and Set.
type table[K comparable, V any] struct {
	// ctrls and slots are both B in length.
	ctrls []ctrl
	slots []Slot[K, V]
	// The number of live buckets.
	used int
	// The number of tombstones.
	deleted int

	hash    hashFn[K]
	seed    uintptr
	equal   equalFn[K]
	probing Probing
	// The allocator to use for the ctrls and slots slices.
	allocator Allocator[K, V]
	logger    *zap.Logger
}

func (t *table[K, V]) init(hint int, options []Option[K, V]) {
	*t = table[K, V]{
		hash:      defaultHash[K],
		seed:      newSeed(),
		equal:     defaultEqual[K],
		probing:   LinearProbing,
		allocator: defaultAllocator[K, V]{},
		logger:    zap.NewNop(),
	}
	for _, op := range options {
		op.apply(t)
	}
	if hint < 0 {
		hint = 0
	}
	// hint+1 guarantees a non-empty bucket array even for a zero hint.
	t.alloc(hint + 1)
	t.checkInvariants()
}

// config returns an empty table sharing the hash, equality, probing,
// allocator and logger of t. The returned table has no buckets.
func (t *table[K, V]) config() table[K, V] {
	return table[K, V]{
		hash:      t.hash,
		seed:      t.seed,
		equal:     t.equal,
		probing:   t.probing,
		allocator: t.allocator,
		logger:    t.logger,
	}
}

// alloc installs fresh arrays of n empty buckets. Any previous arrays are not
// released.
func (t *table[K, V]) alloc(n int) {
	ctrls := unsafeConvertSlice[ctrl](t.allocator.AllocControls(n))
	slots := t.allocator.AllocSlots(n)
	clear(ctrls)
	t.ctrls = ctrls
	t.slots = slots
	t.used = 0
	t.deleted = 0
}

// free releases the arrays of t to its allocator.
func (t *table[K, V]) free() {
	if t.ctrls == nil {
		return
	}
	t.allocator.FreeSlots(t.slots)
	t.allocator.FreeControls(unsafeConvertSlice[uint8](t.ctrls))
	t.ctrls = nil
	t.slots = nil
}

func (t *table[K, V]) bucketCount() int {
	return len(t.slots)
}

// maxBucketCount returns the largest bucket count whose slot and control
// arrays fit in the address space.
func (t *table[K, V]) maxBucketCount() int {
	per := unsafe.Sizeof(Slot[K, V]{}) + unsafe.Sizeof(ctrl(0))
	return int(uintptr(math.MaxInt) / per)
}

// bucket returns the base bucket of the probe sequence for key.
func (t *table[K, V]) bucket(key *K) uintptr {
	return t.hash(key, t.seed) % uintptr(len(t.slots))
}

// insertBudget returns the number of buckets an insert inspects before
// growing the table: the base bucket plus ceil(n/2) further probes.
func insertBudget(n uintptr) uintptr {
	return 1 + (n+1)/2
}

// find returns the index of the live bucket holding key.
func (t *table[K, V]) find(key *K) (uintptr, bool) {
	n := uintptr(len(t.slots))
	seq := makeProbeSeq(t.probing, t.hash(key, t.seed), n)
	if debug {
		t.logger.Debug("find", zap.Any("key", *key), zap.Stringer("seq", seq))
	}

	for i := uintptr(0); i < n; i, seq = i+1, seq.next() {
		c := t.ctrls[seq.offset]
		if debug {
			t.logger.Debug("find(probing)", zap.Uintptr("index", seq.offset), zap.Stringer("ctrl", c))
		}
		switch c {
		case ctrlEmpty:
			return 0, false
		case ctrlLive:
			if t.equal(&t.slots[seq.offset].key, key) {
				return seq.offset, true
			}
		case ctrlDeleted:
			if t.equal(&t.slots[seq.offset].key, key) {
				return 0, false
			}
		}
	}
	return 0, false
}

// prepareInsert reserves room for one more entry and locates the bucket for
// key. If key is live, found is true and i is its bucket. Otherwise i is
// either an empty bucket or the tombstone left by an earlier erasure of key,
// and the caller completes the insertion with commit.
func (t *table[K, V]) prepareInsert(key *K) (i uintptr, found bool) {
	t.rehash(t.used + 1)

	for {
		n := uintptr(len(t.slots))
		seq := makeProbeSeq(t.probing, t.hash(key, t.seed), n)
		if debug {
			t.logger.Debug("insert", zap.Any("key", *key), zap.Stringer("seq", seq))
		}

		for budget := insertBudget(n); budget > 0; budget, seq = budget-1, seq.next() {
			c := t.ctrls[seq.offset]
			if debug {
				t.logger.Debug("insert(probing)", zap.Uintptr("index", seq.offset), zap.Stringer("ctrl", c))
			}
			switch c {
			case ctrlEmpty:
				return seq.offset, false
			case ctrlLive:
				if t.equal(&t.slots[seq.offset].key, key) {
					return seq.offset, true
				}
			case ctrlDeleted:
				if t.equal(&t.slots[seq.offset].key, key) {
					return seq.offset, false
				}
			}
		}

		if ce := t.logger.Check(zap.DebugLevel, "probe budget exhausted"); ce != nil {
			ce.Write(zap.Int("buckets", int(n)), zap.Int("live", t.used), zap.Int("tombstones", t.deleted))
		}
		t.resize(growthFactor*int(n), "probe budget exhausted")
	}
}

// commit stores key and value in bucket i, which must be empty or a tombstone
// returned by prepareInsert, and marks it live.
func (t *table[K, V]) commit(i uintptr, key K, value V) {
	switch t.ctrls[i] {
	case ctrlDeleted:
		t.deleted--
	case ctrlLive:
		panic(errors.AssertionFailedf("openaddr: commit to live bucket %d", errors.Safe(i)))
	}
	t.ctrls[i] = ctrlLive
	t.slots[i] = Slot[K, V]{key: key, value: value}
	t.used++
	t.checkInvariants()
}

// uncheckedPut inserts an entry known not to be in the table, which must
// contain no tombstones. Used by resize to re-lay live entries into a fresh
// array: every bucket is either empty or holds a different key, so there is no
// need to compare keys or reserve capacity.
func (t *table[K, V]) uncheckedPut(key K, value V) {
	for {
		n := uintptr(len(t.slots))
		seq := makeProbeSeq(t.probing, t.hash(&key, t.seed), n)
		for budget := insertBudget(n); budget > 0; budget, seq = budget-1, seq.next() {
			if t.ctrls[seq.offset] == ctrlEmpty {
				t.ctrls[seq.offset] = ctrlLive
				t.slots[seq.offset] = Slot[K, V]{key: key, value: value}
				t.used++
				return
			}
		}
		t.resize(growthFactor*int(n), "probe budget exhausted during resize")
	}
}

// rehash re-lays the table into n buckets if n exceeds the current bucket
// count, or compacts it in place when tombstones outnumber live entries.
// Otherwise it is a noop.
func (t *table[K, V]) rehash(n int) {
	if b := len(t.slots); n > b {
		t.resize(n, "grow")
	} else if t.deleted > t.used {
		t.resize(b, "compact")
	}
}

// resize allocates a fresh array of max(B, n) buckets, uncheckedPuts every
// live entry into it, and discards the old arrays along with their
// tombstones. The new arrays are fully built before t is modified.
func (t *table[K, V]) resize(n int, reason string) {
	n = max(n, len(t.slots), 1)

	nt := t.config()
	nt.alloc(n)
	for i := range t.ctrls {
		if t.ctrls[i] != ctrlLive {
			continue
		}
		s := &t.slots[i]
		nt.uncheckedPut(s.key, s.value)
	}

	if ce := t.logger.Check(zap.DebugLevel, "resize"); ce != nil {
		ce.Write(
			zap.String("reason", reason),
			zap.Int("buckets", len(t.slots)),
			zap.Int("new-buckets", len(nt.slots)),
			zap.Int("live", t.used),
			zap.Int("tombstones", t.deleted),
		)
	}

	t.free()
	t.ctrls, t.slots = nt.ctrls, nt.slots
	t.used, t.deleted = nt.used, 0
	t.checkInvariants()
}

// eraseAt turns the live bucket i into a tombstone. The key stays in place so
// that a lookup for it stops here and a re-insertion revives the bucket; the
// value is zeroed so the table does not retain what it referenced.
func (t *table[K, V]) eraseAt(i uintptr) {
	var zero V
	t.ctrls[i] = ctrlDeleted
	t.slots[i].value = zero
	t.used--
	t.deleted++
	t.checkInvariants()
}

// erase erases the entry c is positioned at and returns c advanced to the
// next live bucket. Erasing the end cursor returns the end cursor.
func (t *table[K, V]) erase(c cursor[K, V]) cursor[K, V] {
	if !c.valid {
		return cursor[K, V]{}
	}
	if !t.owns(&c) || t.ctrls[c.current] != ctrlLive {
		panic(errors.AssertionFailedf("openaddr: erase through an invalidated iterator (bucket %d)",
			errors.Safe(c.current)))
	}
	t.eraseAt(c.current)
	c.next()
	return c
}

// eraseRange erases every entry from first up to, but not including, last.
// It returns the cursor produced by the final erasure, or the end cursor if
// nothing was erased.
func (t *table[K, V]) eraseRange(first, last cursor[K, V]) cursor[K, V] {
	var res cursor[K, V]
	for it := first; it.valid && !it.equal(&last); {
		it = t.erase(it)
		res = it
	}
	return res
}

// eraseKey erases key and returns the number of erased entries (0 or 1).
func (t *table[K, V]) eraseKey(key *K) int {
	i, ok := t.find(key)
	if !ok {
		return 0
	}
	t.eraseAt(i)
	return 1
}

// useHint returns the bucket hint is positioned at if it is a current cursor
// of t whose bucket is non-empty and holds key. The bucket may be live or a
// tombstone of key.
func (t *table[K, V]) useHint(hint *cursor[K, V], key *K) (uintptr, bool) {
	if !t.owns(hint) {
		return 0, false
	}
	i := hint.current
	if t.ctrls[i] == ctrlEmpty || !t.equal(&t.slots[i].key, key) {
		return 0, false
	}
	return i, true
}

// clear empties every bucket. The bucket count is retained.
func (t *table[K, V]) clear() {
	clear(t.ctrls)
	clear(t.slots)
	t.used = 0
	t.deleted = 0
	t.checkInvariants()
}

// copyFrom replaces the contents of t with a copy of o. Entries and tombstones
// keep their bucket indices, which is valid because the copy shares the hash
// function, seed and bucket count of o.
func (t *table[K, V]) copyFrom(o *table[K, V]) {
	if t == o {
		return
	}
	t.free()
	*t = o.config()
	t.alloc(len(o.slots))
	copy(t.ctrls, o.ctrls)
	copy(t.slots, o.slots)
	t.used = o.used
	t.deleted = o.deleted
	t.checkInvariants()
}

// moveFrom transfers the arrays and configuration of o to t. o is left empty
// with a single bucket.
func (t *table[K, V]) moveFrom(o *table[K, V]) {
	if t == o {
		return
	}
	t.free()
	*t = *o
	o.alloc(1)
	t.checkInvariants()
	o.checkInvariants()
}

func (t *table[K, V]) swap(o *table[K, V]) {
	*t, *o = *o, *t
}

// loadFactor returns live/B. Tombstones are not counted.
func (t *table[K, V]) loadFactor() float64 {
	return float64(t.used) / float64(len(t.slots))
}

// equalRange returns an ordered cursor over every live bucket whose key
// equals key. Keys are unique, so it yields at most one entry.
func (t *table[K, V]) equalRange(key *K) cursor[K, V] {
	var order []uintptr
	for i := range t.ctrls {
		if t.ctrls[i] == ctrlLive && t.equal(key, &t.slots[i].key) {
			order = append(order, uintptr(i))
		}
	}
	return t.ordered(order)
}

// all calls yield for each live slot in bucket order. It iterates over a
// snapshot of the arrays, so a rehash during iteration neither invalidates it
// nor is reflected in it.
func (t *table[K, V]) all(yield func(s *Slot[K, V]) bool) {
	ctrls, slots := t.ctrls, t.slots
	for i := range ctrls {
		if ctrls[i] == ctrlLive {
			if !yield(&slots[i]) {
				return
			}
		}
	}
}

func (t *table[K, V]) checkInvariants() {
	if invariants {
		n := len(t.slots)
		if n < 1 {
			panic(fmt.Sprintf("invariant failed: bucket count is %d", n))
		}
		if len(t.ctrls) != n {
			panic(fmt.Sprintf("invariant failed: %d ctrls for %d slots", len(t.ctrls), n))
		}

		// For every live bucket, verify we can retrieve the key using find and
		// that it is found at this bucket. Count the live and deleted buckets.
		var used, deleted int
		for i := range t.ctrls {
			switch c := t.ctrls[i]; c {
			case ctrlEmpty:
			case ctrlDeleted:
				deleted++
			case ctrlLive:
				s := &t.slots[i]
				if j, ok := t.find(&s.key); !ok || j != uintptr(i) {
					panic(fmt.Sprintf("invariant failed: slot(%d): %v not found (found=%t at %d)\n%s",
						i, s.key, ok, j, t.debugString()))
				}
				used++
			default:
				panic(fmt.Sprintf("invariant failed: ctrl(%d): unexpected %s", i, c))
			}
		}

		if used != t.used {
			panic(fmt.Sprintf("invariant failed: found %d live buckets, but live count is %d\n%s",
				used, t.used, t.debugString()))
		}
		if deleted != t.deleted {
			panic(fmt.Sprintf("invariant failed: found %d tombstones, but tombstone count is %d\n%s",
				deleted, t.deleted, t.debugString()))
		}
		if t.used+t.deleted > n {
			panic(fmt.Sprintf("invariant failed: live %d + tombstones %d > buckets %d",
				t.used, t.deleted, n))
		}
	}
}

func (t *table[K, V]) debugString() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "buckets=%d  live=%d  tombstones=%d  probing=%s\n",
		len(t.slots), t.used, t.deleted, t.probing)
	for i := range t.ctrls {
		switch c := t.ctrls[i]; c {
		case ctrlEmpty:
			fmt.Fprintf(&buf, "  %4d: empty\n", i)
		case ctrlDeleted:
			fmt.Fprintf(&buf, "  %4d: deleted %v [base=%d]\n", i, t.slots[i].key, t.bucket(&t.slots[i].key))
		default:
			fmt.Fprintf(&buf, "  %4d: %v [base=%d]\n", i, t.slots[i].key, t.bucket(&t.slots[i].key))
		}
	}
	return buf.String()
}

func unsafeConvertSlice[Dest any, Src any](s []Src) []Dest {
	return unsafe.Slice((*Dest)(unsafe.Pointer(unsafe.SliceData(s))), len(s))
}
