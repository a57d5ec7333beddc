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

// Package dataflow implements the operator chain: map,
// flat-map, filter, filter-map, inspect, arrange, join, semijoin, antijoin,
// aggregate, threshold-distinct, fixpoint.
package dataflow

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/lintflow/lintflow/internal/trace"
)

// Collection is an in-memory multiset of weighted tuples at the current
// logical time — the value dataflow rules pass between operators.
type Collection []trace.Weighted

// Timestamp is the (epoch, iteration) logical clock:
// epoch ticks per external transaction, iteration per fixpoint round inside
// an SCC.
type Timestamp struct {
	Epoch     uint64
	Iteration uint32
}

// Map transforms every tuple 1-to-1.
func Map(in Collection, f func(trace.Value) trace.Value) Collection {
	out := make(Collection, len(in))
	for i, w := range in {
		out[i] = trace.Weighted{Value: f(w.Value), Weight: w.Weight}
	}
	return out
}

// FlatMap transforms every tuple 1-to-n; n may be zero.
func FlatMap(in Collection, f func(trace.Value) []trace.Value) Collection {
	var out Collection
	for _, w := range in {
		for _, v := range f(w.Value) {
			out = append(out, trace.Weighted{Value: v, Weight: w.Weight})
		}
	}
	return out
}

// FlatMapArrangement is FlatMap over an arrangement's keys: the key is
// discarded and the value set flat-mapped.
func FlatMapArrangement(a *trace.MapArrangement, f func(trace.Value) []trace.Value) Collection {
	var out Collection
	for _, e := range a.Dump() {
		for _, v := range f(e.Val) {
			out = append(out, trace.Weighted{Value: v, Weight: e.Weight})
		}
	}
	return out
}

// Filter keeps tuples matching pred.
func Filter(in Collection, pred func(trace.Value) bool) Collection {
	var out Collection
	for _, w := range in {
		if pred(w.Value) {
			out = append(out, w)
		}
	}
	return out
}

// FilterMap fuses Filter+Map: f returns (value, true) to keep a
// (possibly transformed) tuple, or (_, false) to drop it.
func FilterMap(in Collection, f func(trace.Value) (trace.Value, bool)) Collection {
	var out Collection
	for _, w := range in {
		if v, ok := f(w.Value); ok {
			out = append(out, trace.Weighted{Value: v, Weight: w.Weight})
		}
	}
	return out
}

// Inspect is an identity operator that observes every tuple, logging it
// through the supplied logger: it observes (v, (epoch, iter), weight) and
// never mutates the collection.
func Inspect(in Collection, ts Timestamp, log logrus.FieldLogger, desc string) Collection {
	if log != nil {
		for _, w := range in {
			log.WithFields(logrus.Fields{
				"op":     desc,
				"epoch":  ts.Epoch,
				"iter":   ts.Iteration,
				"weight": w.Weight,
			}).Debug("dataflow tuple")
		}
	}
	return in
}

// Arrange builds a MapArrangement from a collection via a user-supplied
// projection of type T -> Option<(K,V)>.
func Arrange(name string, in Collection, proj func(trace.Value) (trace.Value, trace.Value, bool)) *trace.MapArrangement {
	a := trace.NewMapArrangement(name)
	for _, w := range in {
		if k, v, ok := proj(w.Value); ok {
			a.Add(k, v, w.Weight)
		}
	}
	return a
}

// ArrangeSet builds a SetArrangement, optionally forcing distinct
// (threshold-to-{0,1}) semantics before arranging, as required when the
// result backs an Antijoin.
func ArrangeSet(name string, in Collection, proj func(trace.Value) (trace.Value, bool), distinct bool) *trace.SetArrangement {
	a := trace.NewSetArrangement(name, distinct)
	if !distinct {
		for _, w := range in {
			if k, ok := proj(w.Value); ok {
				a.Add(k, w.Weight)
			}
		}
		return a
	}
	var projected []trace.Weighted
	for _, w := range in {
		if k, ok := proj(w.Value); ok {
			projected = append(projected, trace.Weighted{Value: k, Weight: w.Weight})
		}
	}
	for _, g := range trace.GroupWeighted(projected) {
		if g.Weight > 0 {
			a.Add(g.Value, 1)
		}
	}
	return a
}

// Join implements join_core: for matching keys, combine every
// left value with every right value via j, which may emit zero or more
// outputs; multiplicity is the product of input weights.
func Join(left, right *trace.MapArrangement, j func(key, l, r trace.Value) []trace.Value) Collection {
	var out Collection
	for _, k := range left.Keys() {
		rvals := right.Lookup(k)
		if len(rvals) == 0 {
			continue
		}
		for _, lw := range left.Lookup(k) {
			for _, rw := range rvals {
				for _, v := range j(k, lw.Value, rw.Value) {
					out = append(out, trace.Weighted{Value: v, Weight: lw.Weight * rw.Weight})
				}
			}
		}
	}
	return out
}

// Semijoin keeps value-bearing left tuples whose key is present with
// positive weight in a set arrangement.
func Semijoin(left *trace.MapArrangement, keys *trace.SetArrangement) Collection {
	var out Collection
	for _, k := range left.Keys() {
		if !keys.HasPositive(k) {
			continue
		}
		out = append(out, left.Lookup(k)...)
	}
	return out
}

// Antijoin keeps left tuples whose key does NOT appear with positive weight
// in keys. ffun, if non-nil, pre-filters the
// left side before the key test is applied.
func Antijoin(left *trace.MapArrangement, keys *trace.SetArrangement, ffun func(key, val trace.Value) bool) Collection {
	var out Collection
	for _, k := range left.Keys() {
		if keys.HasPositive(k) {
			continue
		}
		for _, w := range left.Lookup(k) {
			if ffun != nil && !ffun(k, w.Value) {
				continue
			}
			out = append(out, w)
		}
	}
	return out
}

// Aggregate applies agg per key:
// only non-zero-weight values participate; agg returning false means no
// output for that key. ffun, if non-nil, pre-filters values before agg
// sees them.
func Aggregate(a *trace.MapArrangement, ffun func(key, val trace.Value) bool, agg func(key trace.Value, vals []trace.Weighted) (trace.Value, bool)) Collection {
	var out Collection
	for _, k := range a.Keys() {
		vals := a.Lookup(k)
		if ffun != nil {
			filtered := vals[:0:0]
			for _, w := range vals {
				if ffun(k, w.Value) {
					filtered = append(filtered, w)
				}
			}
			vals = filtered
		}
		if len(vals) == 0 {
			continue
		}
		if v, ok := agg(k, vals); ok {
			out = append(out, trace.Weighted{Value: v, Weight: 1})
		}
	}
	return out
}

// ThresholdTotal replaces each key's accumulated weight with f(weight); a
// zero result removes the key.
func ThresholdTotal(a *trace.MapArrangement, f func(weight int64) int64) *trace.MapArrangement {
	out := trace.NewMapArrangement(a.Name)
	for _, k := range a.Keys() {
		var total int64
		for _, w := range a.Lookup(k) {
			total += w.Weight
		}
		nw := f(total)
		if nw != 0 {
			out.Add(k, k, nw)
		}
	}
	return out
}

// ThresholdDistinct collapses a collection to set semantics: each distinct
// value present with positive net weight appears exactly once with weight
// 1. Used both for relations marked distinct and for an SCC member's
// loop-back distinct marker.
func ThresholdDistinct(in Collection) Collection {
	grouped := trace.GroupWeighted([]trace.Weighted(in))
	var out Collection
	for _, w := range grouped {
		if w.Weight > 0 {
			out = append(out, trace.Weighted{Value: w.Value, Weight: 1})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value.CompareTo(out[j].Value) < 0 })
	return out
}
