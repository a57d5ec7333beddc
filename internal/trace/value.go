// Copyright 2020-2021 Dolthub, Inc.
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

// Package trace implements the arrangement contract: an
// indexed multiset of (key, value) pairs supporting shared read access
// across dataflow operators. Only the current epoch's weights are kept; no
// per-epoch version history is stored.
package trace

import "github.com/mitchellh/hashstructure/v2"

// Value is the total-order, hashable contract every concrete relation tuple
// type must satisfy so it can be arranged, joined and deduplicated.
type Value interface {
	// CompareTo returns <0, 0, >0 as the receiver sorts before, equal to, or
	// after other. Used only for deterministic iteration/tie-breaking; rule
	// output sets are a pure function of input state regardless of this
	// order, used to make evaluation deterministic across runs.
	CompareTo(other Value) int
	// Hash returns a stable fingerprint for use as a map/index key.
	Hash() uint64
}

// HashValue is a fallback Hash() implementation for types that would rather
// not hand-write one: it structurally hashes the argument with
// hashstructure, matching how a plain Go struct's fields determine its
// identity as an arrangement key.
func HashValue(v interface{}) uint64 {
	h, err := hashstructure.Hash(v, hashstructure.FormatV2, nil)
	if err != nil {
		// hashstructure only fails on unsupported field types (channels,
		// funcs); relation tuples are always plain data, so this would be a
		// programming error, not a runtime condition to recover from.
		panic(err)
	}
	return h
}

// Weighted pairs a Value with its multiplicity (negative = retraction) at
// the current logical time. Time is tracked by the caller's epoch, not
// stored per-tuple, since this implementation materializes the *current*
// state of each relation rather than its full version history.
type Weighted struct {
	Value  Value
	Weight int64
}

type weightedBucket struct {
	value  Value
	weight int64
}

// GroupWeighted sums weights for equal Values and returns the ones whose
// summed weight is nonzero, in first-seen order. Values are grouped the same
// way MapArrangement/SetArrangement index their keys: bucketed by Hash, then
// disambiguated within the bucket by CompareTo, so two distinct Values that
// happen to share a Hash are never merged into one entry.
func GroupWeighted(in []Weighted) []Weighted {
	index := map[uint64][]*weightedBucket{}
	var order []*weightedBucket
	for _, w := range in {
		h := w.Value.Hash()
		var b *weightedBucket
		for _, cand := range index[h] {
			if cand.value.CompareTo(w.Value) == 0 {
				b = cand
				break
			}
		}
		if b == nil {
			b = &weightedBucket{value: w.Value}
			index[h] = append(index[h], b)
			order = append(order, b)
		}
		b.weight += w.Weight
	}
	out := make([]Weighted, 0, len(order))
	for _, b := range order {
		if b.weight != 0 {
			out = append(out, Weighted{Value: b.value, Weight: b.weight})
		}
	}
	return out
}
