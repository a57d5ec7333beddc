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

package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lintflow/lintflow/internal/program"
	"github.com/lintflow/lintflow/internal/trace"
)

func newRunning(t *testing.T) *program.RunningProgram {
	t.Helper()
	compiled, err := program.Compile(Build(), nil)
	require.NoError(t, err)
	rp, err := compiled.Run(1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rp.Stop() })
	return rp
}

func noTypeofUndefRows(rp *program.RunningProgram) []NoTypeofUndefRow {
	var out []NoTypeofUndefRow
	for _, w := range rp.Collection(RelNoTypeofUndef) {
		out = append(out, w.Value.(trace.Tuple[NoTypeofUndefRow]).Val)
	}
	return out
}

func withinTypeofExprRows(rp *program.RunningProgram) []WithinTypeofExprRow {
	var out []WithinTypeofExprRow
	for _, w := range rp.Collection(RelWithinTypeofExpr) {
		out = append(out, w.Value.(trace.Tuple[WithinTypeofExprRow]).Val)
	}
	return out
}

func noUndefRows(rp *program.RunningProgram) []NoUndefRow {
	var out []NoUndefRow
	for _, w := range rp.Collection(RelNoUndef) {
		out = append(out, w.Value.(trace.Tuple[NoUndefRow]).Val)
	}
	return out
}

func chainedWithRows(rp *program.RunningProgram) []ChainedWithRow {
	var out []ChainedWithRow
	for _, w := range rp.Collection(RelChainedWith) {
		out = append(out, w.Value.(trace.Tuple[ChainedWithRow]).Val)
	}
	return out
}

func labelUsageRows(rp *program.RunningProgram) []LabelUsageRow {
	var out []LabelUsageRow
	for _, w := range rp.Collection(RelLabelUsage) {
		out = append(out, w.Value.(trace.Tuple[LabelUsageRow]).Val)
	}
	return out
}

func usedLabelsRows(rp *program.RunningProgram) []UsedLabelsRow {
	var out []UsedLabelsRow
	for _, w := range rp.Collection(RelUsedLabels) {
		out = append(out, w.Value.(trace.Tuple[UsedLabelsRow]).Val)
	}
	return out
}

func noUnusedLabelsRows(rp *program.RunningProgram) []NoUnusedLabelsRow {
	var out []NoUnusedLabelsRow
	for _, w := range rp.Collection(RelNoUnusedLabels) {
		out = append(out, w.Value.(trace.Tuple[NoUnusedLabelsRow]).Val)
	}
	return out
}

// TestUnboundTypeof covers: typeof foo, with foo never in scope, emits
// exactly one NoTypeofUndef finding pointing at the typeof expression and
// the unresolved name reference.
func TestUnboundTypeof(t *testing.T) {
	rp := newRunning(t)
	const f FileID = 1
	const s ScopeID = 1
	const e1 ExprID = 1 // NameRef "foo"
	const e2 ExprID = 2 // UnaryOp typeof

	rp.StageUpdate(RelEnableNoTypeofUndef, NewFileRow(f), 1)
	rp.StageUpdate(RelExpression, NewExpression(e1, f, KindNameRef, s, Span{}), 1)
	rp.StageUpdate(RelNameRef, NewNameRef(e1, f, "foo"), 1)
	rp.StageUpdate(RelExpression, NewExpression(e2, f, KindUnary, s, Span{}), 1)
	rp.StageUpdate(RelUnaryOp, NewUnaryOp(e2, f, UnaryTypeof, e1), 1)
	require.NoError(t, rp.Flush())

	rows := noTypeofUndefRows(rp)
	require.Len(t, rows, 1)
	assert.Equal(t, NoTypeofUndefRow{WholeExpr: e2, UndefinedExpr: e1, File: f}, rows[0])
}

// TestGroupedTypeof covers: typeof (foo) — the grouping closure makes
// WithinTypeofExpr(e2, e1, f) still hold through the intermediate grouping
// expression, and the same NoTypeofUndef finding is emitted.
func TestGroupedTypeof(t *testing.T) {
	rp := newRunning(t)
	const f FileID = 1
	const s ScopeID = 1
	const e1 ExprID = 1 // NameRef "foo"
	const eg ExprID = 2 // grouping (foo)
	const e2 ExprID = 3 // UnaryOp typeof, targets eg

	rp.StageUpdate(RelEnableNoTypeofUndef, NewFileRow(f), 1)
	rp.StageUpdate(RelExpression, NewExpression(e1, f, KindNameRef, s, Span{}), 1)
	rp.StageUpdate(RelNameRef, NewNameRef(e1, f, "foo"), 1)
	rp.StageUpdate(RelExpression, NewExpression(eg, f, KindGrouping, s, Span{}), 1)
	rp.StageUpdate(RelExprGroupingInner, NewExprGroupingInner(eg, e1), 1)
	rp.StageUpdate(RelExpression, NewExpression(e2, f, KindUnary, s, Span{}), 1)
	rp.StageUpdate(RelUnaryOp, NewUnaryOp(e2, f, UnaryTypeof, eg), 1)
	require.NoError(t, rp.Flush())

	within := withinTypeofExprRows(rp)
	assert.Contains(t, within, WithinTypeofExprRow{TypeOf: e2, Expr: e1, File: f})

	rows := noTypeofUndefRows(rp)
	require.Len(t, rows, 1)
	assert.Equal(t, NoTypeofUndefRow{WholeExpr: e2, UndefinedExpr: e1, File: f}, rows[0])
}

// TestUndeclaredDestructuringAssignment covers: `{ bar } = obj` with `bar`
// never declared in scope, emitting one NoUndef finding for it.
func TestUndeclaredDestructuringAssignment(t *testing.T) {
	rp := newRunning(t)
	const f FileID = 2
	const s ScopeID = 2
	const e ExprID = 10
	barSpan := Span{StartByte: 3, EndByte: 6}

	rp.StageUpdate(RelEnableNoUndef, NewFileRow(f), 1)
	rp.StageUpdate(RelExpression, NewExpression(e, f, KindOther, s, Span{}), 1)
	rp.StageUpdate(RelAssign, NewAssign(e, f, []Spanned{{Data: "bar", Span: barSpan}}), 1)
	require.NoError(t, rp.Flush())

	rows := noUndefRows(rp)
	require.Len(t, rows, 1)
	assert.Equal(t, NoUndefRow{Name: "bar", Scope: s, Span: barSpan, File: f}, rows[0])
}

// TestMemberChainSuppression covers: obj.unknown — ChainedWith(o,p,f) holds
// and no NoUndef is emitted for the property position even though "unknown"
// is itself never declared.
func TestMemberChainSuppression(t *testing.T) {
	rp := newRunning(t)
	const f FileID = 3
	const s ScopeID = 3
	const o ExprID = 20 // NameRef "obj"
	const p ExprID = 21 // dot-access property position

	rp.StageUpdate(RelEnableNoUndef, NewFileRow(f), 1)
	rp.StageUpdate(RelExpression, NewExpression(o, f, KindNameRef, s, Span{}), 1)
	rp.StageUpdate(RelNameRef, NewNameRef(o, f, "obj"), 1)
	rp.StageUpdate(RelExpression, NewExpression(p, f, KindNameRef, s, Span{}), 1)
	rp.StageUpdate(RelNameRef, NewNameRef(p, f, "unknown"), 1)
	rp.StageUpdate(RelDotAccess, NewDotAccess(p, o, p, f), 1)
	require.NoError(t, rp.Flush())

	chained := chainedWithRows(rp)
	require.Contains(t, chained, ChainedWithRow{Object: o, Property: p, File: f})

	for _, row := range noUndefRows(rp) {
		assert.NotEqual(t, p, ExprID(0), "sanity")
		assert.False(t, row.Name == "unknown" && row.File == f, "member access property must not be flagged")
	}
}

// TestLabelLifecycle covers label usage through a descendant scope, and its
// retraction in a follow-up commit re-surfacing the unused-label finding.
func TestLabelLifecycle(t *testing.T) {
	rp := newRunning(t)
	const f FileID = 4
	const sBody ScopeID = 10
	const sInner ScopeID = 11
	const l StmtID = 100
	const b StmtID = 101
	outer := Spanned{Data: "outer", Span: Span{StartByte: 1, EndByte: 6}}

	rp.StageUpdate(RelEnableNoUnusedLabels, NewFileRow(f), 1)
	rp.StageUpdate(RelLabel, NewLabel(l, f, &outer, sBody), 1)
	rp.StageUpdate(RelScopeEdge, NewScopeEdge(sBody, sInner), 1)
	rp.StageUpdate(RelStatement, NewStatement(b, f, sInner), 1)
	rp.StageUpdate(RelBreak, NewBreak(b, f, &outer), 1)
	require.NoError(t, rp.Flush())

	assert.Contains(t, labelUsageRows(rp), LabelUsageRow{Stmt: b, Name: "outer", Scope: sInner})
	assert.Contains(t, usedLabelsRows(rp), UsedLabelsRow{Stmt: l, Name: "outer"})
	assert.Empty(t, noUnusedLabelsRows(rp))

	// Retract the Break: in the same follow-up commit, UsedLabels drops and
	// NoUnusedLabels reappears for the label.
	rp.StageUpdate(RelBreak, NewBreak(b, f, &outer), -1)
	require.NoError(t, rp.Flush())

	assert.NotContains(t, usedLabelsRows(rp), UsedLabelsRow{Stmt: l, Name: "outer"})
	assert.Contains(t, noUnusedLabelsRows(rp), NoUnusedLabelsRow{Stmt: l, Name: outer})
}
