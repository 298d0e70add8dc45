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

import "go.uber.org/zap"

// Option configures a Map[K,V] or, with V = struct{}, a Set[K] while it is
// being created.
type Option[K comparable, V any] interface {
	apply(t *table[K, V])
}

// SetOption is the Option type accepted by Set constructors.
type SetOption[K comparable] = Option[K, struct{}]

type hashOption[K comparable, V any] struct {
	hash func(key *K, seed uintptr) uintptr
}

func (op hashOption[K, V]) apply(t *table[K, V]) {
	t.hash = op.hash
}

// WithHash is an option to specify the hash function to use for a container.
// The hash must be deterministic and consistent with the equality predicate:
// keys that compare equal must hash to the same value. The seed is the
// per-container seed (see WithSeed) and may be ignored.
func WithHash[K comparable, V any](hash func(key *K, seed uintptr) uintptr) Option[K, V] {
	return hashOption[K, V]{hash}
}

type equalOption[K comparable, V any] struct {
	equal func(a, b *K) bool
}

func (op equalOption[K, V]) apply(t *table[K, V]) {
	t.equal = op.equal
}

// WithEqual is an option to specify the key equality predicate. It must be an
// equivalence relation. The default is ==.
func WithEqual[K comparable, V any](equal func(a, b *K) bool) Option[K, V] {
	return equalOption[K, V]{equal}
}

type probingOption[K comparable, V any] struct {
	probing Probing
}

func (op probingOption[K, V]) apply(t *table[K, V]) {
	t.probing = op.probing
}

// WithProbing is an option to specify the probing policy. The default is
// LinearProbing.
func WithProbing[K comparable, V any](probing Probing) Option[K, V] {
	return probingOption[K, V]{probing}
}

type seedOption[K comparable, V any] struct {
	seed uintptr
}

func (op seedOption[K, V]) apply(t *table[K, V]) {
	t.seed = op.seed
}

// WithSeed fixes the seed passed to the hash function. By default every
// container draws a random seed. Fixing it makes bucket layouts reproducible.
func WithSeed[K comparable, V any](seed uintptr) Option[K, V] {
	return seedOption[K, V]{seed}
}

type loggerOption[K comparable, V any] struct {
	logger *zap.Logger
}

func (op loggerOption[K, V]) apply(t *table[K, V]) {
	if op.logger == nil {
		t.logger = zap.NewNop()
		return
	}
	t.logger = op.logger
}

// WithLogger is an option to specify a logger for resize events, which are
// logged at debug level. The default logger discards everything.
func WithLogger[K comparable, V any](logger *zap.Logger) Option[K, V] {
	return loggerOption[K, V]{logger}
}

// Allocator specifies an interface for allocating and releasing memory used
// by a container. The default allocator utilizes Go's builtin make() and
// allows the GC to reclaim memory.
//
// If the allocator is manually managing memory and requires that slots and
// controls be freed then Close must be called in order to ensure FreeSlots and
// FreeControls are called.
type Allocator[K comparable, V any] interface {
	// AllocSlots should return a slice equivalent to make([]Slot[K,V], n).
	AllocSlots(n int) []Slot[K, V]

	// AllocControls should return a slice equivalent to make([]uint8, n).
	AllocControls(n int) []uint8

	// FreeSlots can optional release the memory associated with the supplied
	// slice that is guaranteed to have been allocated by AllocSlots.
	FreeSlots(v []Slot[K, V])

	// FreeControls can optional release the memory associated with the
	// supplied slice that is guaranteed to have been allocated by
	// AllocControls.
	FreeControls(v []uint8)
}

type defaultAllocator[K comparable, V any] struct{}

func (defaultAllocator[K, V]) AllocSlots(n int) []Slot[K, V] {
	return make([]Slot[K, V], n)
}

func (defaultAllocator[K, V]) AllocControls(n int) []uint8 {
	return make([]uint8, n)
}

func (defaultAllocator[K, V]) FreeSlots(v []Slot[K, V]) {
}

func (defaultAllocator[K, V]) FreeControls(v []uint8) {
}

type allocatorOption[K comparable, V any] struct {
	allocator Allocator[K, V]
}

func (op allocatorOption[K, V]) apply(t *table[K, V]) {
	t.allocator = op.allocator
}

// WithAllocator is an option for specify the Allocator to use for a container.
func WithAllocator[K comparable, V any](allocator Allocator[K, V]) Option[K, V] {
	return allocatorOption[K, V]{allocator}
}
