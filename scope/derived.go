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

import "github.com/lintflow/lintflow/internal/trace"

// ScopeFamilyRow is one (parent, child) pair in the reflexive-transitive
// parent->descendant closure over ScopeEdge.
type ScopeFamilyRow struct {
	Parent ScopeID
	Child  ScopeID
}

func NewScopeFamily(parent, child ScopeID) trace.Value {
	return trace.NewTuple(ScopeFamilyRow{Parent: parent, Child: child})
}

// WithinTypeofExprRow is one (type_of, expr, file) fact.
type WithinTypeofExprRow struct {
	TypeOf ExprID
	Expr   ExprID
	File   FileID
}

func NewWithinTypeofExpr(typeOf, expr ExprID, file FileID) trace.Value {
	return trace.NewTuple(WithinTypeofExprRow{TypeOf: typeOf, Expr: expr, File: file})
}

// NoTypeofUndefRow is one NoTypeofUndef(whole_expr, undefined_expr, file) finding.
type NoTypeofUndefRow struct {
	WholeExpr     ExprID
	UndefinedExpr ExprID
	File          FileID
}

func NewNoTypeofUndef(wholeExpr, undefinedExpr ExprID, file FileID) trace.Value {
	return trace.NewTuple(NoTypeofUndefRow{WholeExpr: wholeExpr, UndefinedExpr: undefinedExpr, File: file})
}

// ChainedWithRow is one (object, property, file) fact in the transitive
// member-access-chain closure.
type ChainedWithRow struct {
	Object   ExprID
	Property ExprID
	File     FileID
}

func NewChainedWith(object, property ExprID, file FileID) trace.Value {
	return trace.NewTuple(ChainedWithRow{Object: object, Property: property, File: file})
}

// NoUndefRow is one NoUndef(name, scope, span, file) finding.
type NoUndefRow struct {
	Name  Name
	Scope ScopeID
	Span  Span
	File  FileID
}

func NewNoUndef(name Name, scope ScopeID, span Span, file FileID) trace.Value {
	return trace.NewTuple(NoUndefRow{Name: name, Scope: scope, Span: span, File: file})
}

// LabelUsageRow is one LabelUsage(stmt, name, scope) fact.
type LabelUsageRow struct {
	Stmt  StmtID
	Name  Name
	Scope ScopeID
}

func NewLabelUsage(stmt StmtID, name Name, scope ScopeID) trace.Value {
	return trace.NewTuple(LabelUsageRow{Stmt: stmt, Name: name, Scope: scope})
}

// UsedLabelsRow is one UsedLabels(stmt, name) fact.
type UsedLabelsRow struct {
	Stmt StmtID
	Name Name
}

func NewUsedLabels(stmt StmtID, name Name) trace.Value {
	return trace.NewTuple(UsedLabelsRow{Stmt: stmt, Name: name})
}

// NoUnusedLabelsRow is one NoUnusedLabels(stmt, name) finding, name carrying
// its original span since the lint report needs a source location.
type NoUnusedLabelsRow struct {
	Stmt StmtID
	Name Spanned
}

func NewNoUnusedLabels(stmt StmtID, name Spanned) trace.Value {
	return trace.NewTuple(NoUnusedLabelsRow{Stmt: stmt, Name: name})
}
