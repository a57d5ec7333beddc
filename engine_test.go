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

package lintflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lintflow/lintflow/internal/dataflow"
	"github.com/lintflow/lintflow/internal/profile"
	"github.com/lintflow/lintflow/internal/program"
	"github.com/lintflow/lintflow/internal/txn"
	"github.com/lintflow/lintflow/internal/value"
	"github.com/lintflow/lintflow/scope"
)

// relationsOf walks a compiled Program's node list and collects every
// relation it declares, the same traversal program.Compile does
// internally, so a test can hand a Config its full relation set without
// duplicating scope's own wiring.
func relationsOf(p program.Program) map[dataflow.RelationID]*dataflow.Relation {
	out := map[dataflow.RelationID]*dataflow.Relation{}
	for _, n := range p.Nodes {
		switch n.Kind {
		case program.NodeRelation:
			out[n.Rel.ID] = n.Rel
		case program.NodeSCC:
			for _, m := range n.SCC {
				out[m.Relation.ID] = m.Relation
			}
		}
	}
	return out
}

func newScopeEngine(t *testing.T) *Engine {
	t.Helper()
	p := scope.Build()
	return New(Config{Program: p, Relations: relationsOf(p)})
}

func TestEngineRunAndStopLifecycle(t *testing.T) {
	e := newScopeEngine(t)
	rp, err := e.Run(2)
	require.NoError(t, err)
	require.NotNil(t, rp)
	assert.Equal(t, uint64(0), rp.Epoch())
	require.NoError(t, e.Stop())
}

func TestEngineStopBeforeRunFails(t *testing.T) {
	e := newScopeEngine(t)
	err := e.Stop()
	require.Error(t, err)
}

func TestEngineVerbsRequireRun(t *testing.T) {
	e := newScopeEngine(t)
	assert.Error(t, e.Begin())
	_, err := e.Epoch()
	assert.Error(t, err)
}

func TestEngineCompileErrorSurfacesFromRun(t *testing.T) {
	bad := program.Program{Nodes: []program.Node{
		program.RelNode(&dataflow.Relation{
			ID:    1,
			Name:  "Derived",
			Input: false,
			Rules: []dataflow.Rule{{Kind: dataflow.CollectionRuleKind, Source: 99}},
		}),
	}}
	e := New(Config{Program: bad})
	_, err := e.Run(1)
	require.Error(t, err)
}

func TestEngineCommitAppliesDeltaToRunningProgram(t *testing.T) {
	e := newScopeEngine(t)
	_, err := e.Run(1)
	require.NoError(t, err)
	defer e.Stop()

	row := scope.NewExpression(1, 10, 0, 1, scope.Span{})

	require.NoError(t, e.Begin())
	require.NoError(t, e.Insert(scope.RelExpression, row))
	require.NoError(t, e.Commit())

	coll, err := e.Collection(scope.RelExpression)
	require.NoError(t, err)
	require.Len(t, coll, 1)
	assert.Equal(t, int64(1), coll[0].Weight)

	entries, err := e.QueryArrangement("ExpressionByID", scope.ExprID(1))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestEngineRollbackDiscardsStagedInsert(t *testing.T) {
	e := newScopeEngine(t)
	_, err := e.Run(1)
	require.NoError(t, err)
	defer e.Stop()

	row := scope.NewExpression(2, 10, 0, 1, scope.Span{})

	require.NoError(t, e.Begin())
	require.NoError(t, e.Insert(scope.RelExpression, row))
	require.NoError(t, e.Rollback())

	coll, err := e.Collection(scope.RelExpression)
	require.NoError(t, err)
	assert.Len(t, coll, 0)
}

func TestEngineApplyUpdatesOutsideTransactionFails(t *testing.T) {
	e := newScopeEngine(t)
	_, err := e.Run(1)
	require.NoError(t, err)
	defer e.Stop()

	err = e.ApplyUpdates([]txn.Update{{Kind: txn.Insert, RelationID: scope.RelExpression}}, nil)
	require.Error(t, err)
}

func TestEngineProfilingTogglesCollectSamples(t *testing.T) {
	e := newScopeEngine(t)
	_, err := e.Run(1)
	require.NoError(t, err)
	defer e.Stop()

	e.EnableCPUProfiling(true)
	e.SubmitProfile(profile.Message{Kind: profile.CPUMessage, Label: "build-program", Duration: time.Millisecond})

	require.Eventually(t, func() bool {
		return e.Profile().CPUTotals()["build-program"] > 0
	}, time.Second, time.Millisecond)
}

func TestRecordTextFormRoundTrips(t *testing.T) {
	r := value.NewStructPositional("Point", value.IntFromInt64(1), value.IntFromInt64(2))
	text := FormatRecord(r)
	parsed, err := ParseRecordText(text)
	require.NoError(t, err)
	assert.True(t, r.Equal(parsed))
}
