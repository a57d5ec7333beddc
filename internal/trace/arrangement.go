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

package trace

import "sort"

// Entry is one (key, value) pair with its accumulated weight, as read back
// out of an arrangement.
type Entry struct {
	Key    Value
	Val    Value
	Weight int64
}

// MapArrangement is a Map-shaped arrangement: an index
// from key to (value, weight) pairs. It is built by Arrange and is shared
// read-only across every operator that consumes it (join, semijoin,
// antijoin, aggregate).
type MapArrangement struct {
	Name string
	// index groups accumulated entries by key hash; a slice handles hash
	// collisions between distinct keys.
	index map[uint64][]*mapBucket
}

type mapBucket struct {
	key     Value
	entries map[uint64]*valWeight // value hash -> (value, weight)
}

type valWeight struct {
	val    Value
	weight int64
}

// NewMapArrangement creates an empty Map arrangement.
func NewMapArrangement(name string) *MapArrangement {
	return &MapArrangement{Name: name, index: make(map[uint64][]*mapBucket)}
}

func (a *MapArrangement) bucketFor(key Value) *mapBucket {
	h := key.Hash()
	for _, b := range a.index[h] {
		if b.key.CompareTo(key) == 0 {
			return b
		}
	}
	b := &mapBucket{key: key, entries: make(map[uint64]*valWeight)}
	a.index[h] = append(a.index[h], b)
	return b
}

// Add accumulates weight onto the (key, val) entry, pruning it once its
// weight returns to zero, so redundant insert/delete pairs leave no trace.
func (a *MapArrangement) Add(key, val Value, weight int64) {
	b := a.bucketFor(key)
	vh := val.Hash()
	if e, ok := b.entries[vh]; ok {
		e.weight += weight
		if e.weight == 0 {
			delete(b.entries, vh)
		}
		return
	}
	if weight != 0 {
		b.entries[vh] = &valWeight{val: val, weight: weight}
	}
}

// Lookup returns the positive-and-negative weighted values for key; zero-
// weight entries are never stored so every returned entry is non-zero.
func (a *MapArrangement) Lookup(key Value) []Weighted {
	h := key.Hash()
	for _, b := range a.index[h] {
		if b.key.CompareTo(key) != 0 {
			continue
		}
		out := make([]Weighted, 0, len(b.entries))
		for _, e := range b.entries {
			out = append(out, Weighted{Value: e.val, Weight: e.weight})
		}
		sortWeighted(out)
		return out
	}
	return nil
}

// HasPositive reports whether key has any entry with strictly positive
// weight — the test antijoin/semijoin use to decide membership.
func (a *MapArrangement) HasPositive(key Value) bool {
	for _, w := range a.Lookup(key) {
		if w.Weight > 0 {
			return true
		}
	}
	return false
}

// Keys returns every distinct key currently present with at least one
// nonzero-weight entry.
func (a *MapArrangement) Keys() []Value {
	var out []Value
	for _, buckets := range a.index {
		for _, b := range buckets {
			if len(b.entries) > 0 {
				out = append(out, b.key)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompareTo(out[j]) < 0 })
	return out
}

// Dump returns every (key, value, weight) entry in the arrangement, sorted
// for deterministic test assertions.
func (a *MapArrangement) Dump() []Entry {
	var out []Entry
	for _, buckets := range a.index {
		for _, b := range buckets {
			for _, e := range b.entries {
				out = append(out, Entry{Key: b.key, Val: e.val, Weight: e.weight})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Key.CompareTo(out[j].Key); c != 0 {
			return c < 0
		}
		return out[i].Val.CompareTo(out[j].Val) < 0
	})
	return out
}

func sortWeighted(w []Weighted) {
	sort.Slice(w, func(i, j int) bool { return w[i].Value.CompareTo(w[j].Value) < 0 })
}

// SetArrangement is a Set-shaped arrangement: a key-only
// index used on the right side of semijoin/antijoin. Building one that will
// back an antijoin requires a preceding collapse to {0,1} weights. The
// Distinct field records whether that collapse was applied when the
// arrangement was built (see dataflow.ArrangeSet); SetArrangement itself
// does not check it, since the same Set arrangement can legitimately serve
// plain membership queries without that collapse.
type SetArrangement struct {
	Name     string
	Distinct bool
	index    map[uint64][]*setBucket
}

type setBucket struct {
	key    Value
	weight int64
}

// NewSetArrangement creates an empty Set arrangement. distinct marks it as
// having already passed through ThresholdTotal to {0,1} weights, which is
// required before it may be used as the right side of Antijoin.
func NewSetArrangement(name string, distinct bool) *SetArrangement {
	return &SetArrangement{Name: name, Distinct: distinct, index: make(map[uint64][]*setBucket)}
}

func (a *SetArrangement) Add(key Value, weight int64) {
	h := key.Hash()
	for _, b := range a.index[h] {
		if b.key.CompareTo(key) == 0 {
			b.weight += weight
			if b.weight == 0 {
				// leave the zero-weight bucket; HasPositive treats it as
				// absent and Add re-raises it on the next positive delta.
			}
			return
		}
	}
	a.index[h] = append(a.index[h], &setBucket{key: key, weight: weight})
}

// HasPositive reports whether key is present with positive weight.
func (a *SetArrangement) HasPositive(key Value) bool {
	h := key.Hash()
	for _, b := range a.index[h] {
		if b.key.CompareTo(key) == 0 {
			return b.weight > 0
		}
	}
	return false
}

// Dump returns every key currently holding positive weight.
func (a *SetArrangement) Dump() []Value {
	var out []Value
	for _, buckets := range a.index {
		for _, b := range buckets {
			if b.weight > 0 {
				out = append(out, b.key)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompareTo(out[j]) < 0 })
	return out
}
