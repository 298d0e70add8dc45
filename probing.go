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

import "fmt"

// Probing selects the probe sequence a table uses to resolve collisions. The
// first probe always inspects the base bucket hash(key)%B; the offsets of the
// following probes relative to the base bucket are:
//
//	LinearProbing:     1, 2, 3, 4, ...
//	QuadraticProbing:  1, 4, 9, 16, ...
//	TriangularProbing: 1, 3, 6, 10, ...
//
// Linear probing is dense and cache friendly but prone to primary
// clustering. Quadratic probing reduces clustering, but the offsets i^2 do
// not form a complete residue system modulo an arbitrary bucket count, so
// some buckets may never be visited for a given base. Triangular probing,
// (i^2+i)/2, visits every bucket exactly once when the bucket count is a
// power of two. When a probe sequence fails to find a slot within the insert
// budget the table grows, so every policy terminates regardless of coverage.
type Probing uint8

const (
	LinearProbing Probing = iota
	QuadraticProbing
	TriangularProbing
)

func (p Probing) String() string {
	switch p {
	case LinearProbing:
		return "linear"
	case QuadraticProbing:
		return "quadratic"
	case TriangularProbing:
		return "triangular"
	default:
		return fmt.Sprintf("probing(%d)", uint8(p))
	}
}

// Policy is the stateful generator of a probe offset sequence. After Reset,
// successive calls to Next return the offsets of the second, third, ...
// probes. A Policy depends only on its kind and the number of calls made, never
// on the key, so a lookup replays exactly the sequence an insertion used.
type Policy struct {
	kind Probing
	ind  uint64
}

// NewPolicy returns a reset Policy of the given kind.
func NewPolicy(kind Probing) Policy {
	return Policy{kind: kind}
}

// Kind returns the probing kind of p.
func (p *Policy) Kind() Probing {
	return p.kind
}

// Reset rewinds the sequence so that the next call to Next returns the first
// non-zero offset.
func (p *Policy) Reset() {
	p.ind = 0
}

// Next returns the next positive offset in the sequence.
func (p *Policy) Next() uint64 {
	p.ind++
	switch p.kind {
	case QuadraticProbing:
		return p.ind * p.ind
	case TriangularProbing:
		return p.ind * (p.ind + 1) / 2
	default:
		return p.ind
	}
}

// probeSeq maintains the state for a probe sequence over a table of n
// buckets. offset is the bucket currently inspected. It starts at the base
// bucket hash%n and each call to next moves it to (base+policy.Next())%n.
type probeSeq struct {
	policy Policy
	n      uintptr
	base   uintptr
	offset uintptr
}

func makeProbeSeq(kind Probing, hash, n uintptr) probeSeq {
	base := hash % n
	return probeSeq{
		policy: NewPolicy(kind),
		n:      n,
		base:   base,
		offset: base,
	}
}

func (s probeSeq) next() probeSeq {
	s.offset = (s.base + uintptr(s.policy.Next()%uint64(s.n))) % s.n
	return s
}

func (s probeSeq) String() string {
	return fmt.Sprintf("probing=%s n=%d base=%d offset=%d", s.policy.kind, s.n, s.base, s.offset)
}
