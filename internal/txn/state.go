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

package txn

import (
	"github.com/lintflow/lintflow/internal/dataflow"
	"github.com/lintflow/lintflow/internal/trace"
)

// deltaOp is one recorded net change, used to drive rollback's inverse
// replay. Deltas are never cleared except on commit or rollback.
type deltaOp struct {
	value  trace.Value
	weight int64 // +1 insertion, -1 deletion
}

// multisetEntry tracks a Multiset relation's per-value count.
type multisetEntry struct {
	value trace.Value
	count int64
}

// relState is the per-relation live state the manager mutates inside
// apply_updates, keyed by caching mode.
type relState struct {
	rel *dataflow.Relation

	streamDelta int64 // Stream: only a counter is kept.

	multiset map[uint64]*multisetEntry // Multiset

	set map[uint64]trace.Value // Set

	indexed    map[uint64]trace.Value // Indexed: key hash -> value
	indexedKey map[uint64]trace.Value // Indexed: key hash -> key (for DeleteKey/Modify)

	deltas []deltaOp
}

func newRelState(r *dataflow.Relation) *relState {
	return &relState{
		rel:        r,
		multiset:   map[uint64]*multisetEntry{},
		set:        map[uint64]trace.Value{},
		indexed:    map[uint64]trace.Value{},
		indexedKey: map[uint64]trace.Value{},
	}
}

func (s *relState) recordDelta(v trace.Value, weight int64) {
	s.deltas = append(s.deltas, deltaOp{value: v, weight: weight})
}

// snapshot returns the relation's current full contents as a Collection,
// for handing to the dataflow Database at flush time.
func (s *relState) snapshot() dataflow.Collection {
	var out dataflow.Collection
	switch s.rel.Mode {
	case dataflow.Stream:
		// Streams keep no element set; Collection form is empty, the net
		// insert/delete counter is exposed separately via StreamDelta.
	case dataflow.Multiset:
		for _, e := range s.multiset {
			if e.count != 0 {
				out = append(out, trace.Weighted{Value: e.value, Weight: e.count})
			}
		}
	case dataflow.Set:
		for _, v := range s.set {
			out = append(out, trace.Weighted{Value: v, Weight: 1})
		}
	case dataflow.Indexed:
		for _, v := range s.indexed {
			out = append(out, trace.Weighted{Value: v, Weight: 1})
		}
	}
	return out
}

func (s *relState) clearDeltas() { s.deltas = nil }
