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
	"github.com/lintflow/lintflow/internal/dataflow"
	"github.com/lintflow/lintflow/internal/trace"
)

// RelationID values for every relation this package wires into a Program.
// Numbering only needs to be unique within one compiled program; the values
// are consecutive (the blank lines only group them visually).
const (
	RelExpression dataflow.RelationID = iota + 1
	RelNameRef
	RelAssign
	RelBracketAccess
	RelDotAccess
	RelUnaryOp
	RelStatement
	RelBreak
	RelContinue
	RelLabel
	RelNameInScope
	RelScopeEdge

	RelExprGroupingInner
	RelExprSequenceTail

	RelEnableNoTypeofUndef
	RelEnableNoUndef
	RelEnableNoUnusedLabels

	RelScopeFamily
	RelNeedsWithinTypeofExpr
	RelWithinTypeofExpr
	RelNoTypeofUndef
	RelChainedWith
	RelNoUndef
	RelLabelUsage
	RelUsedLabels
	RelNoUnusedLabels
)

// Row shapes for the input relations. Each one is wrapped as a
// trace.Tuple[T] when staged into the dataflow engine.

// ExpressionRow is one Expression(id, file, kind, scope, span) fact.
type ExpressionRow struct {
	ID    ExprID
	File  FileID
	Kind  ExprKind
	Scope ScopeID
	Span  Span
}

func NewExpression(id ExprID, file FileID, kind ExprKind, scope ScopeID, span Span) trace.Value {
	return trace.NewTuple(ExpressionRow{ID: id, File: file, Kind: kind, Scope: scope, Span: span})
}

// NameRefRow is one NameRef(expr, file, value) fact.
type NameRefRow struct {
	Expr  ExprID
	File  FileID
	Value Name
}

func NewNameRef(expr ExprID, file FileID, value Name) trace.Value {
	return trace.NewTuple(NameRefRow{Expr: expr, File: file, Value: value})
}

// AssignRow is one Assign fact. BoundVars is the destructuring pattern's flattened
// bound variables (bound_vars(pat)); HasPattern is false for assignments
// whose left-hand side is a plain name ref rather than a pattern, which
// contribute no destructuring bindings of their own.
type AssignRow struct {
	Expr       ExprID
	File       FileID
	HasPattern bool
	BoundVars  []Spanned
}

func NewAssign(expr ExprID, file FileID, boundVars []Spanned) trace.Value {
	return trace.NewTuple(AssignRow{Expr: expr, File: file, HasPattern: len(boundVars) > 0, BoundVars: boundVars})
}

// BracketAccessRow is one BracketAccess(expr_id, file, object, prop) fact.
type BracketAccessRow struct {
	Expr      ExprID
	File      FileID
	HasObject bool
	Object    ExprID
	HasProp   bool
	Prop      ExprID
}

func NewBracketAccess(expr, object, prop ExprID, file FileID) trace.Value {
	return trace.NewTuple(BracketAccessRow{Expr: expr, File: file, HasObject: true, Object: object, HasProp: true, Prop: prop})
}

// DotAccessRow is one DotAccess(expr_id, file, object, prop) fact.
type DotAccessRow struct {
	Expr      ExprID
	File      FileID
	HasObject bool
	Object    ExprID
	Prop      ExprID
}

func NewDotAccess(expr, object, prop ExprID, file FileID) trace.Value {
	return trace.NewTuple(DotAccessRow{Expr: expr, File: file, HasObject: true, Object: object, Prop: prop})
}

// UnaryOpRow is one UnaryOp(expr_id, file, op, expr) fact.
type UnaryOpRow struct {
	Expr      ExprID
	File      FileID
	Op        UnaryOpKind
	HasOperand bool
	Operand   ExprID
}

func NewUnaryOp(expr ExprID, file FileID, op UnaryOpKind, operand ExprID) trace.Value {
	return trace.NewTuple(UnaryOpRow{Expr: expr, File: file, Op: op, HasOperand: true, Operand: operand})
}

// StatementRow is one Statement(stmt_id, file, scope) fact.
type StatementRow struct {
	Stmt  StmtID
	File  FileID
	Scope ScopeID
}

func NewStatement(stmt StmtID, file FileID, scope ScopeID) trace.Value {
	return trace.NewTuple(StatementRow{Stmt: stmt, File: file, Scope: scope})
}

// BreakRow is one Break(stmt_id, label?) fact.
type BreakRow struct {
	Stmt     StmtID
	File     FileID
	HasLabel bool
	Label    Spanned
}

func NewBreak(stmt StmtID, file FileID, label *Spanned) trace.Value {
	r := BreakRow{Stmt: stmt, File: file}
	if label != nil {
		r.HasLabel, r.Label = true, *label
	}
	return trace.NewTuple(r)
}

// ContinueRow is one Continue(stmt_id, label?) fact.
type ContinueRow struct {
	Stmt     StmtID
	File     FileID
	HasLabel bool
	Label    Spanned
}

func NewContinue(stmt StmtID, file FileID, label *Spanned) trace.Value {
	r := ContinueRow{Stmt: stmt, File: file}
	if label != nil {
		r.HasLabel, r.Label = true, *label
	}
	return trace.NewTuple(r)
}

// LabelRow is one Label(stmt_id, name?, body_scope) fact.
type LabelRow struct {
	Stmt      StmtID
	File      FileID
	HasName   bool
	Name      Spanned
	BodyScope ScopeID
}

func NewLabel(stmt StmtID, file FileID, name *Spanned, bodyScope ScopeID) trace.Value {
	r := LabelRow{Stmt: stmt, File: file, BodyScope: bodyScope}
	if name != nil {
		r.HasName, r.Name = true, *name
	}
	return trace.NewTuple(r)
}

// NameInScopeRow is one NameInScope(file, name, scope, declared) fact,
// accepted as an opaque external input view per the rule contracts: the
// binding resolution producing it lives outside this package's perimeter.
type NameInScopeRow struct {
	File     FileID
	Name     Name
	Scope    ScopeID
	Declared bool
}

func NewNameInScope(file FileID, name Name, scope ScopeID, declared bool) trace.Value {
	return trace.NewTuple(NameInScopeRow{File: file, Name: name, Scope: scope, Declared: declared})
}

// ScopeEdgeRow is one direct parent->child scope-nesting fact, the seed
// ScopeFamily's reflexive-transitive closure is built from. The rule
// contracts describe ScopeFamily's closure behavior but not how the direct
// nesting edges reach the engine; modeling them as their own input relation
// (rather than e.g. deriving them from Expression spans) keeps the scope
// tree an explicit fact the lowering stage controls.
type ScopeEdgeRow struct {
	Parent ScopeID
	Child  ScopeID
}

func NewScopeEdge(parent, child ScopeID) trace.Value {
	return trace.NewTuple(ScopeEdgeRow{Parent: parent, Child: child})
}

// ExprGroupingInnerRow satellite-relation fact: Expression(e) is a
// grouping whose inner expression is Inner. Expression's own five fields
// (id, file, kind, scope, span) can't also carry this kind-specific payload,
// so it is modeled as its own input relation keyed by the grouping's expr id.
type ExprGroupingInnerRow struct {
	Expr  ExprID
	Inner ExprID
}

func NewExprGroupingInner(expr, inner ExprID) trace.Value {
	return trace.NewTuple(ExprGroupingInnerRow{Expr: expr, Inner: inner})
}

// ExprSequenceTailRow satellite-relation fact: Expression(e) is a sequence
// expression whose last sub-expression is Last.
type ExprSequenceTailRow struct {
	Expr ExprID
	Last ExprID
}

func NewExprSequenceTail(expr, last ExprID) trace.Value {
	return trace.NewTuple(ExprSequenceTailRow{Expr: expr, Last: last})
}

// FileRow is the shared single-field shape for every per-file gate/sink
// relation below (EnableNoTypeofUndef, EnableNoUndef, EnableNoUnusedLabels,
// NeedsWithinTypeofExpr).
type FileRow struct {
	File FileID
}

func NewFileRow(file FileID) trace.Value { return trace.NewTuple(FileRow{File: file}) }
