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

package dataflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lintflow/lintflow/internal/trace"
)

func ints(vs ...int64) Collection {
	var out Collection
	for _, v := range vs {
		out = append(out, trace.Weighted{Value: trace.Int(v), Weight: 1})
	}
	return out
}

func TestMapFilterFlatMap(t *testing.T) {
	in := ints(1, 2, 3)

	mapped := Map(in, func(v trace.Value) trace.Value { return trace.Int(v.(trace.Int) * 2) })
	assert.Equal(t, trace.Int(2), mapped[0].Value)

	filtered := Filter(in, func(v trace.Value) bool { return v.(trace.Int)%2 == 0 })
	require.Len(t, filtered, 1)
	assert.Equal(t, trace.Int(2), filtered[0].Value)

	flat := FlatMap(in, func(v trace.Value) []trace.Value {
		return []trace.Value{v, trace.Int(v.(trace.Int) + 100)}
	})
	assert.Len(t, flat, 6)
}

func TestJoinMultipliesWeights(t *testing.T) {
	left := trace.NewMapArrangement("left")
	left.Add(trace.Int(1), trace.Str("L"), 2)
	right := trace.NewMapArrangement("right")
	right.Add(trace.Int(1), trace.Str("R"), 3)

	out := Join(left, right, func(k, l, r trace.Value) []trace.Value {
		return []trace.Value{trace.Pair{A: l, B: r}}
	})
	require.Len(t, out, 1)
	assert.Equal(t, int64(6), out[0].Weight)
}

func TestAntijoinExcludesPresentKeys(t *testing.T) {
	left := trace.NewMapArrangement("left")
	left.Add(trace.Int(1), trace.Str("a"), 1)
	left.Add(trace.Int(2), trace.Str("b"), 1)

	keys := trace.NewSetArrangement("keys", true)
	keys.Add(trace.Int(1), 1)

	out := Antijoin(left, keys, nil)
	require.Len(t, out, 1)
	assert.Equal(t, trace.Str("b"), out[0].Value)
}

func TestSemijoinKeepsOnlyPresentKeys(t *testing.T) {
	left := trace.NewMapArrangement("left")
	left.Add(trace.Int(1), trace.Str("a"), 1)
	left.Add(trace.Int(2), trace.Str("b"), 1)

	keys := trace.NewSetArrangement("keys", true)
	keys.Add(trace.Int(2), 1)

	out := Semijoin(left, keys)
	require.Len(t, out, 1)
	assert.Equal(t, trace.Str("b"), out[0].Value)
}

func TestThresholdDistinctCollapsesDuplicates(t *testing.T) {
	in := Collection{
		{Value: trace.Int(1), Weight: 2},
		{Value: trace.Int(1), Weight: -1},
		{Value: trace.Int(2), Weight: 1},
	}
	out := ThresholdDistinct(in)
	require.Len(t, out, 2)
	assert.Equal(t, int64(1), out[0].Weight)
	assert.Equal(t, int64(1), out[1].Weight)
}

func TestThresholdTotalKeepsPositiveKeys(t *testing.T) {
	a := trace.NewMapArrangement("a")
	a.Add(trace.Int(1), trace.Str("x"), 2)
	out := ThresholdTotal(a, func(w int64) int64 {
		if w > 0 {
			return 1
		}
		return 0
	})
	assert.True(t, out.HasPositive(trace.Int(1)))
}

func TestAggregateEmitsOneValuePerGroup(t *testing.T) {
	a := trace.NewMapArrangement("a")
	a.Add(trace.Int(1), trace.Str("x"), 1)
	a.Add(trace.Int(1), trace.Str("y"), 1)

	out := Aggregate(a, nil, func(key trace.Value, vals []trace.Weighted) (trace.Value, bool) {
		return trace.Int(len(vals)), true
	})
	require.Len(t, out, 1)
	assert.Equal(t, trace.Int(2), out[0].Value)
}
