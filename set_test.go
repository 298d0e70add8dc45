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
	"maps"
	"math/rand"
	"slices"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func (s *Set[K]) toBuiltinMap() map[K]struct{} {
	r := make(map[K]struct{})
	for k := range s.All() {
		r[k] = struct{}{}
	}
	return r
}

func newIdentitySet(hint int, probing Probing) *Set[int] {
	return NewSet[int](hint,
		WithHash[int, struct{}](IdentityHash[int]),
		WithProbing[int, struct{}](probing))
}

func TestSetBasic(t *testing.T) {
	for _, probing := range probings {
		t.Run(probing.String(), func(t *testing.T) {
			s := NewSet[int](0, WithProbing[int, struct{}](probing))
			e := make(map[int]struct{})
			for i := 0; i < 5000; i++ {
				k := rand.Intn(1000)
				switch rand.Intn(3) {
				case 0:
					_, exists := e[k]
					require.Equal(t, exists, s.Delete(k))
					delete(e, k)
				default:
					_, exists := e[k]
					require.Equal(t, !exists, s.Add(k))
					e[k] = struct{}{}
				}
				require.Equal(t, len(e), s.Len())
			}
			require.Equal(t, e, s.toBuiltinMap())
			for k := range e {
				require.True(t, s.Contains(k))
				require.Equal(t, 1, s.Count(k))
			}
			verifyTable(t, &s.t)
		})
	}
}

func TestSetCollidingKeys(t *testing.T) {
	s := newIdentitySet(3, LinearProbing)
	for i, k := range []int{0, 4, 8} {
		it, inserted := s.Insert(k)
		require.True(t, inserted)
		require.Equal(t, i, it.Bucket())
	}
	it, inserted := s.Emplace(4)
	require.False(t, inserted)
	require.Equal(t, 1, it.Bucket())

	require.Equal(t, 1, s.EraseKey(0))
	require.Equal(t, 0, s.EraseKey(0))
	require.Equal(t, 1, s.Tombstones())
	require.Equal(t, 1, s.Find(4).Bucket())
	require.False(t, s.Find(0).Valid())

	it, inserted = s.Insert(0)
	require.True(t, inserted)
	require.Equal(t, 0, it.Bucket())
	require.Equal(t, 0, s.Tombstones())
	require.Equal(t, 3, s.Len())

	// Tombstones outnumbering keys are compacted away by the next insert.
	s.Delete(0)
	s.Delete(4)
	it, inserted = s.Insert(12)
	require.True(t, inserted)
	require.Equal(t, 1, it.Bucket())
	require.Equal(t, 0, s.Find(8).Bucket())
	require.Equal(t, 0, s.Tombstones())
	require.Equal(t, 4, s.BucketCount())
	verifyTable(t, &s.t)
}

func TestSetQuadraticGrowth(t *testing.T) {
	s := newIdentitySet(7, QuadraticProbing)
	for _, k := range []int{0, 8, 16, 24} {
		require.True(t, s.Add(k))
	}
	require.Equal(t, 24, s.BucketCount())
	require.Equal(t, 1, s.Find(24).Bucket())
	require.Equal(t, 0, s.Find(0).Bucket())
	require.Equal(t, 8, s.Find(8).Bucket())
	require.Equal(t, 16, s.Find(16).Bucket())
}

func TestSetIterator(t *testing.T) {
	s := newIdentitySet(7, LinearProbing)
	s.InsertKeys(6, 1, 3)

	var keys []int
	for it := s.Begin(); it.Valid(); it.Next() {
		k, err := it.Key()
		require.NoError(t, err)
		keys = append(keys, k)
	}
	require.Equal(t, []int{1, 3, 6}, keys)

	keys = keys[:0]
	for it := s.BeginAt(4); it.Valid(); it.Next() {
		k, _ := it.Key()
		keys = append(keys, k)
	}
	require.Equal(t, []int{6, 1, 3}, keys)
	require.False(t, s.BeginAt(-1).Valid())

	_, err := s.End().Key()
	require.True(t, errors.Is(err, ErrEndIterator))
	require.True(t, errors.Is(err, ErrOutOfRange))
	require.Equal(t, -1, s.End().Bucket())

	first, last := s.EqualRange(3)
	require.True(t, first.Equal(s.Find(3)))
	first.Next()
	require.True(t, first.Equal(last))

	first, last = s.EqualRange(4)
	require.True(t, first.Equal(last))
}

func TestSetErase(t *testing.T) {
	s := newIdentitySet(7, LinearProbing)
	s.InsertKeys(0, 1, 2, 3, 4, 5)

	it := s.Erase(s.Find(2))
	require.Equal(t, 3, it.Bucket())
	require.True(t, s.Erase(s.End()).Equal(s.End()))

	it = s.EraseRange(s.Find(3), s.Find(5))
	require.Equal(t, 5, it.Bucket())
	require.Equal(t, map[int]struct{}{0: {}, 1: {}, 5: {}}, s.toBuiltinMap())

	it = s.EraseRange(s.Begin(), s.End())
	require.False(t, it.Valid())
	require.True(t, s.Empty())
	require.Equal(t, 6, s.Tombstones())

	s.Rehash(0)
	require.Equal(t, 0, s.Tombstones())
	verifyTable(t, &s.t)
}

func TestSetHints(t *testing.T) {
	s := newIdentitySet(7, LinearProbing)
	s.InsertKeys(1, 9)

	hint := s.Find(9)
	require.Equal(t, 2, s.InsertHint(hint, 9).Bucket())
	require.Equal(t, 2, s.Len())

	s.Erase(hint)
	require.Equal(t, 2, s.EmplaceHint(hint, 9).Bucket())
	require.Equal(t, 2, s.Len())
	require.Equal(t, 0, s.Tombstones())

	require.Equal(t, 3, s.InsertHint(s.Find(1), 17).Bucket())
	verifyTable(t, &s.t)
}

func TestSetLifecycle(t *testing.T) {
	s := NewSetFromKeys(0, []string{"a", "b", "c", "a"})
	require.Equal(t, 3, s.Len())

	c := s.Clone()
	require.True(t, s.Equal(c))
	require.Equal(t, s.BucketCount(), c.BucketCount())
	c.Delete("a")
	require.False(t, s.Equal(c))
	require.True(t, s.Contains("a"))

	var d Set[string]
	d.Init(0)
	d.CopyFrom(s)
	require.True(t, s.Equal(&d))

	var e Set[string]
	e.Init(0)
	e.MoveFrom(&d)
	require.True(t, s.Equal(&e))
	require.True(t, d.Empty())
	require.Equal(t, 1, d.BucketCount())

	e.Swap(c)
	require.Equal(t, map[string]struct{}{"b": {}, "c": {}}, e.toBuiltinMap())
	require.Equal(t, 3, c.Len())

	e.Assign("x", "y")
	require.Equal(t, map[string]struct{}{"x": {}, "y": {}}, e.toBuiltinMap())

	buckets := e.BucketCount()
	e.Clear()
	e.Clear()
	require.True(t, e.Empty())
	require.Equal(t, buckets, e.BucketCount())

	f := NewSetFromSeq(maps.Keys(map[int]bool{1: true, 2: true}), 0)
	keys := slices.Sorted(f.All())
	require.Equal(t, []int{1, 2}, keys)

	require.Equal(t, 1.0, f.MaxLoadFactor())
	require.Equal(t, 1, f.BucketSize(0))
	require.Equal(t, f.MaxBucketCount(), f.MaxSize())
	require.Greater(t, f.MaxSize(), f.BucketCount())
	require.Equal(t, float64(f.Len())/float64(f.BucketCount()), f.LoadFactor())
	f.Reserve(100)
	require.GreaterOrEqual(t, f.BucketCount(), 100)
	require.Less(t, f.Bucket(1), f.BucketCount())

	f.Close()
}

func TestSetEqual(t *testing.T) {
	a := NewSet[int](0)
	b := NewSet[int](50)
	for i := 0; i < 20; i++ {
		a.Add(i)
		b.Add(19 - i)
	}
	require.True(t, a.Equal(b))
	b.Delete(3)
	require.False(t, a.Equal(b))
	b.Add(20)
	require.False(t, a.Equal(b))
	require.False(t, b.Equal(a))
}
