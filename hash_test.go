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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashFunctions(t *testing.T) {
	type point struct{ x, y int }

	t.Run("default", func(t *testing.T) {
		a, b := point{1, 2}, point{1, 2}
		require.Equal(t, defaultHash(&a, 7), defaultHash(&b, 7))
		require.True(t, defaultEqual(&a, &b))
		require.NotEqual(t, newSeed(), newSeed())

		m := New[point, string](0)
		for i := 0; i < 100; i++ {
			m.Put(point{i, -i}, "p")
		}
		require.True(t, m.Contains(point{42, -42}))
		require.False(t, m.Contains(point{42, 42}))
	})

	t.Run("string", func(t *testing.T) {
		a, b := "hello", "hel"+"lo"
		require.Equal(t, StringHash(&a, 1), StringHash(&b, 1))
		require.NotEqual(t, StringHash(&a, 1), StringHash(&a, 2))
	})

	t.Run("integer", func(t *testing.T) {
		k := int32(-5)
		require.Equal(t, IntegerHash(&k, 3), IntegerHash(&k, 3))
		require.NotEqual(t, IntegerHash(&k, 3), IntegerHash(&k, 4))

		m := New[uint16, int](0, WithHash[uint16, int](IntegerHash[uint16]))
		for i := 0; i < 1000; i++ {
			m.Put(uint16(i), i)
		}
		require.Equal(t, 1000, m.Len())
		verifyTable(t, &m.t)
	})

	t.Run("identity", func(t *testing.T) {
		k := uint8(200)
		require.EqualValues(t, 200, IdentityHash(&k, 12345))
	})
}
