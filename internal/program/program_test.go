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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lintflow/lintflow/internal/dataflow"
	"github.com/lintflow/lintflow/internal/trace"
)

const (
	relInput  dataflow.RelationID = 1
	relEvens  dataflow.RelationID = 2
)

func buildEvensProgram() Program {
	input := &dataflow.Relation{ID: relInput, Name: "Input", Input: true, Mode: dataflow.Multiset}
	evens := &dataflow.Relation{
		ID:   relEvens,
		Name: "Evens",
		Arrangements: []dataflow.ArrangementSpec{{
			Name: "EvensByValue",
			MapProj: func(v trace.Value) (trace.Value, trace.Value, bool) {
				return v, v, true
			},
		}},
		Rules: []dataflow.Rule{{
			Kind:   dataflow.CollectionRuleKind,
			Source: relInput,
			Xform: func(env *dataflow.Env) dataflow.Collection {
				return dataflow.Filter(env.Collection, func(v trace.Value) bool {
					return v.(trace.Int)%2 == 0
				})
			},
		}},
	}
	return Program{Nodes: []Node{RelNode(input), RelNode(evens)}}
}

func TestCompileAndRunEvensProgram(t *testing.T) {
	prog := buildEvensProgram()
	compiled, err := Compile(prog, nil)
	require.NoError(t, err)

	rp, err := compiled.Run(2)
	require.NoError(t, err)
	defer rp.Stop()

	rp.StageUpdate(relInput, trace.Int(1), 1)
	rp.StageUpdate(relInput, trace.Int(2), 1)
	rp.StageUpdate(relInput, trace.Int(4), 1)
	require.NoError(t, rp.Flush())

	dump, err := rp.DumpArrangement("EvensByValue")
	require.NoError(t, err)
	require.Len(t, dump, 2)
	assert.Equal(t, trace.Int(2), dump[0].Key)
	assert.Equal(t, trace.Int(4), dump[1].Key)

	entries, err := rp.QueryArrangement("EvensByValue", trace.Int(2))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entries, err = rp.QueryArrangement("EvensByValue", trace.Int(1))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCompileRejectsDuplicateRelationID(t *testing.T) {
	a := &dataflow.Relation{ID: 1, Name: "A", Input: true, Mode: dataflow.Set}
	b := &dataflow.Relation{ID: 1, Name: "B", Input: true, Mode: dataflow.Set}
	_, err := Compile(Program{Nodes: []Node{RelNode(a), RelNode(b)}}, nil)
	assert.Error(t, err)
}

func TestCompileRejectsInputRelationWithRules(t *testing.T) {
	a := &dataflow.Relation{
		ID: 1, Name: "A", Input: true, Mode: dataflow.Set,
		Rules: []dataflow.Rule{{Kind: dataflow.CollectionRuleKind, Source: 1}},
	}
	_, err := Compile(Program{Nodes: []Node{RelNode(a)}}, nil)
	assert.Error(t, err)
}

func TestCompileRejectsIllegalPredecessor(t *testing.T) {
	b := &dataflow.Relation{
		ID: 2, Name: "B",
		Rules: []dataflow.Rule{{Kind: dataflow.CollectionRuleKind, Source: 99, Xform: func(e *dataflow.Env) dataflow.Collection { return nil }}},
	}
	_, err := Compile(Program{Nodes: []Node{RelNode(b)}}, nil)
	assert.Error(t, err)
}

func TestSCCFixpointConverges(t *testing.T) {
	// Reachable(x) :- Edge(x,_). Reachable(y) :- Edge(x,y), Reachable(x).
	// Modeled with a single self-referential relation closing over a fixed
	// edge set via the Edge relation's EdgeByFrom arrangement.
	const edges dataflow.RelationID = 10
	const reach dataflow.RelationID = 11

	edgeRel := &dataflow.Relation{
		ID: edges, Name: "Edge", Input: true, Mode: dataflow.Set,
		Arrangements: []dataflow.ArrangementSpec{{
			Name:    "EdgeByFrom",
			MapProj: func(v trace.Value) (trace.Value, trace.Value, bool) { p := v.(trace.Pair); return p.A, p.B, true },
		}},
	}
	reachRel := &dataflow.Relation{
		ID:       reach,
		Name:     "Reach",
		Distinct: true,
		Rules: []dataflow.Rule{
			{
				Kind:   dataflow.CollectionRuleKind,
				Source: edges,
				Xform: func(env *dataflow.Env) dataflow.Collection {
					return dataflow.FlatMap(env.Collection, func(v trace.Value) []trace.Value {
						p := v.(trace.Pair)
						return []trace.Value{p.A}
					})
				},
			},
			{
				Kind:   dataflow.CollectionRuleKind,
				Source: reach,
				Xform: func(env *dataflow.Env) dataflow.Collection {
					edgeByFrom := env.Arrangements["EdgeByFrom"]
					if edgeByFrom == nil {
						return nil
					}
					var out dataflow.Collection
					for _, w := range env.Collection {
						for _, e := range edgeByFrom.Lookup(w.Value) {
							out = append(out, trace.Weighted{Value: e.Value, Weight: w.Weight})
						}
					}
					return out
				},
			},
		},
	}

	prog := Program{Nodes: []Node{
		RelNode(edgeRel),
		SCCNode(SCCMember{Relation: reachRel, Distinct: true}),
	}}
	compiled, err := Compile(prog, nil)
	require.NoError(t, err)
	rp, err := compiled.Run(1)
	require.NoError(t, err)
	defer rp.Stop()

	rp.StageUpdate(edges, trace.Pair{A: trace.Int(1), B: trace.Int(2)}, 1)
	rp.StageUpdate(edges, trace.Pair{A: trace.Int(2), B: trace.Int(3)}, 1)
	rp.StageUpdate(edges, trace.Pair{A: trace.Int(3), B: trace.Int(4)}, 1)
	require.NoError(t, rp.Flush())

	reached := rp.Collection(reach)
	var vals []int64
	for _, w := range reached {
		vals = append(vals, int64(w.Value.(trace.Int)))
	}
	assert.ElementsMatch(t, []int64{1, 2, 3, 4}, vals)
}
