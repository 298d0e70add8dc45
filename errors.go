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

// ErrOutOfRange is the class of errors returned when an access falls outside
// the entries of a container. Every error returned for ErrKeyNotFound or
// ErrEndIterator is also marked with ErrOutOfRange; use errors.Is to test for
// either the class or the specific cause.
var ErrOutOfRange = errors.New("openaddr: out of range")

var (
	// ErrKeyNotFound is the cause of the error returned by Map.At for a key that
	// is not present.
	ErrKeyNotFound = errors.New("openaddr: key not found")
	// ErrEndIterator is the cause of the error returned when dereferencing an
	// end iterator.
	ErrEndIterator = errors.New("openaddr: dereference of end iterator")
)
