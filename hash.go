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
	"hash/maphash"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/exp/constraints"
	"golang.org/x/exp/rand"
)

// runtimeSeed keys the default hash. It is mixed with the per-container seed.
var runtimeSeed = maphash.MakeSeed()

// defaultHash hashes any comparable key with the same hash function Go's
// builtin map uses for K.
func defaultHash[K comparable](key *K, seed uintptr) uintptr {
	return uintptr(maphash.Comparable(runtimeSeed, *key) ^ uint64(seed))
}

func defaultEqual[K comparable](a, b *K) bool {
	return *a == *b
}

func newSeed() uintptr {
	return uintptr(rand.Uint64())
}

// StringHash hashes string keys with xxHash64. It is usually faster than the
// default hash for long keys.
//
//	m := openaddr.New[string, int](0, openaddr.WithHash[string, int](openaddr.StringHash))
func StringHash(key *string, seed uintptr) uintptr {
	return uintptr(xxhash.Sum64String(*key) ^ uint64(seed))
}

// IntegerHash hashes integer keys by mixing their bits with the seed using the
// 64-bit finalizer of MurmurHash3.
func IntegerHash[K constraints.Integer](key *K, seed uintptr) uintptr {
	x := uint64(*key) ^ uint64(seed)
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	x *= 0xc4ceb9fe1a85ec53
	x ^= x >> 33
	return uintptr(x)
}

// IdentityHash returns the integer key itself and ignores the seed, so a key k
// has base bucket k%B. It disperses poorly but makes bucket layouts fully
// predictable.
func IdentityHash[K constraints.Integer](key *K, _ uintptr) uintptr {
	return uintptr(*key)
}
