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

package program

import (
	"github.com/lintflow/lintflow/internal/dataflow"
	"github.com/lintflow/lintflow/internal/trace"
)

// Database holds the materialized state of every relation and arrangement
// at the current stable epoch. It backs Query/DumpArrangement and is what
// each rule's Env is built from during evaluation.
//
// evalRelation/Evaluate/evalSCC below recompute every derived relation's
// full content from its inputs at each Flush; none of the internal/dataflow
// operators have a delta-in/delta-out form, so this is full-batch
// recomputation, not per-tuple differential propagation. See "Open Question
// decision: full recompute per Flush" in DESIGN.md for why, and for what it
// costs relative to the spec's incremental-maintenance description.
type Database struct {
	relations    map[dataflow.RelationID]*dataflow.Relation
	collections  map[dataflow.RelationID]dataflow.Collection
	mapArr       map[string]*trace.MapArrangement
	setArr       map[string]*trace.SetArrangement
	epoch        uint64
}

// NewDatabase creates an empty Database over the given relation set.
func NewDatabase(relations map[dataflow.RelationID]*dataflow.Relation) *Database {
	return &Database{
		relations:   relations,
		collections: map[dataflow.RelationID]dataflow.Collection{},
		mapArr:      map[string]*trace.MapArrangement{},
		setArr:      map[string]*trace.SetArrangement{},
	}
}

// SetInput installs the current full contents of an input relation, as
// provided by the transaction manager after a commit.
func (db *Database) SetInput(id dataflow.RelationID, coll dataflow.Collection) {
	db.collections[id] = coll
}

// Collection returns a relation's current materialized contents.
func (db *Database) Collection(id dataflow.RelationID) dataflow.Collection {
	return db.collections[id]
}

// Arrangement returns a named Map arrangement, or nil if none has been
// published under that name yet.
func (db *Database) Arrangement(name string) *trace.MapArrangement { return db.mapArr[name] }

// SetArrangement returns a named Set arrangement, or nil if none has been
// published under that name yet.
func (db *Database) SetArrangement(name string) *trace.SetArrangement { return db.setArr[name] }

// Epoch returns the current logical epoch.
func (db *Database) Epoch() uint64 { return db.epoch }

func (db *Database) env(ts dataflow.Timestamp) *dataflow.Env {
	return &dataflow.Env{Arrangements: db.mapArr, SetArrangements: db.setArr, Timestamp: ts}
}

// publishArrangements builds every ArrangementSpec a relation declares from
// its freshly computed collection.
func (db *Database) publishArrangements(r *dataflow.Relation, coll dataflow.Collection) {
	for _, spec := range r.Arrangements {
		if spec.IsSet {
			db.setArr[spec.Name] = dataflow.ArrangeSet(spec.Name, coll, spec.SetProj, spec.Distinct)
		} else {
			db.mapArr[spec.Name] = dataflow.Arrange(spec.Name, coll, spec.MapProj)
		}
	}
}

// evalRelation computes the union of a relation's rules over the current
// Database state: a relation's rules contribute to its content by union.
func (db *Database) evalRelation(r *dataflow.Relation, ts dataflow.Timestamp) dataflow.Collection {
	if r.Input {
		return db.collections[r.ID]
	}
	var out dataflow.Collection
	for _, rule := range r.Rules {
		env := db.env(ts)
		switch rule.Kind {
		case dataflow.CollectionRuleKind:
			env.Collection = db.collections[rule.Source]
		case dataflow.ArrangementRuleKind:
			env.Arrangement = db.mapArr[rule.SourceArrangement]
		}
		out = append(out, rule.Xform(env)...)
	}
	if r.Distinct {
		out = dataflow.ThresholdDistinct(out)
	}
	return out
}

// Evaluate runs every program node in order against the current input
// snapshot, populating db.collections/mapArr/setArr for every relation
// for each of the Rel/Apply/SCC node kinds.
func Evaluate(prog Program, db *Database, ts dataflow.Timestamp) error {
	for _, n := range prog.Nodes {
		switch n.Kind {
		case NodeRelation:
			coll := db.evalRelation(n.Rel, ts)
			db.collections[n.Rel.ID] = coll
			db.publishArrangements(n.Rel, coll)
		case NodeApply:
			if err := n.Apply(db); err != nil {
				return err
			}
		case NodeSCC:
			evalSCC(n.SCC, db, ts)
		}
	}
	return nil
}

// maxFixpointIterations bounds the SCC loop as a safety valve against a
// non-monotonic rule set: an unconditional loop is not implementable.
const maxFixpointIterations = 10000

// evalSCC iterates every member relation's rule-union until no member's
// collection changes, implementing a nested-scope fixpoint.
func evalSCC(members []SCCMember, db *Database, ts dataflow.Timestamp) {
	for _, m := range members {
		if _, ok := db.collections[m.Relation.ID]; !ok {
			db.collections[m.Relation.ID] = nil
		}
	}
	for iter := 0; iter < maxFixpointIterations; iter++ {
		innerTS := dataflow.Timestamp{Epoch: ts.Epoch, Iteration: uint32(iter)}
		changed := false
		next := map[dataflow.RelationID]dataflow.Collection{}
		for _, m := range members {
			coll := db.evalRelation(m.Relation, innerTS)
			if m.Distinct {
				coll = dataflow.ThresholdDistinct(coll)
			}
			next[m.Relation.ID] = coll
		}
		for _, m := range members {
			if !collectionsEqual(db.collections[m.Relation.ID], next[m.Relation.ID]) {
				changed = true
			}
			db.collections[m.Relation.ID] = next[m.Relation.ID]
			db.publishArrangements(m.Relation, next[m.Relation.ID])
		}
		if !changed {
			return
		}
	}
}

// collectionsEqual reports whether a and b hold the same Value->weight
// multiset. It negates b's weights and folds both collections through the
// same Hash-bucket/CompareTo grouping the arrangements use, so two distinct
// Values that happen to share a Hash are never mistaken for one: if nothing
// is left after cancellation, a and b agree on every Value's weight.
func collectionsEqual(a, b dataflow.Collection) bool {
	combined := make([]trace.Weighted, 0, len(a)+len(b))
	combined = append(combined, a...)
	for _, w := range b {
		combined = append(combined, trace.Weighted{Value: w.Value, Weight: -w.Weight})
	}
	return len(trace.GroupWeighted(combined)) == 0
}
