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

// Package scope wires the name-resolution/scope-analysis rule set onto the
// dataflow engine: Expression/NameRef/Assign/... input relations flow
// through WithinTypeofExpr, ChainedWith and ScopeFamily closures into the
// NoTypeofUndef, NoUndef and NoUnusedLabels lint-finding sinks.
package scope

import "github.com/lintflow/lintflow/internal/trace"

// FileID, ScopeID, ExprID and StmtID are opaque structured identifiers
// assigned during lowering of one file; they are never reused across files
// once that file is retracted.
type FileID int64

func (f FileID) CompareTo(o trace.Value) int { return cmpInt64(int64(f), int64(o.(FileID))) }
func (f FileID) Hash() uint64                { return trace.HashValue(int64(f)) }

type ScopeID int64

func (s ScopeID) CompareTo(o trace.Value) int { return cmpInt64(int64(s), int64(o.(ScopeID))) }
func (s ScopeID) Hash() uint64                { return trace.HashValue(int64(s)) }

type ExprID int64

func (e ExprID) CompareTo(o trace.Value) int { return cmpInt64(int64(e), int64(o.(ExprID))) }
func (e ExprID) Hash() uint64                { return trace.HashValue(int64(e)) }

type StmtID int64

func (s StmtID) CompareTo(o trace.Value) int { return cmpInt64(int64(s), int64(o.(StmtID))) }
func (s StmtID) Hash() uint64                { return trace.HashValue(int64(s)) }

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Span is an immutable byte/line/column source range.
type Span struct {
	StartByte, EndByte         int
	StartLine, StartCol        int
	EndLine, EndCol            int
}

// Name is an interned identifier string; interning itself is left to the
// lowering stage that produces input facts, this type only carries the
// already-interned value across the relation boundary.
type Name string

// ExprKind distinguishes the Expression-relation variants relevant to the
// rule set. Kinds outside this set (literals, calls, binary ops, ...) are
// all folded into KindOther since no rule below inspects them.
type ExprKind int

const (
	KindOther ExprKind = iota
	KindNameRef
	KindGrouping
	KindSequence
	KindUnary
)

func (k ExprKind) String() string {
	switch k {
	case KindNameRef:
		return "NameRef"
	case KindGrouping:
		return "Grouping"
	case KindSequence:
		return "Sequence"
	case KindUnary:
		return "Unary"
	default:
		return "Other"
	}
}

// UnaryOpKind distinguishes which unary operator a UnaryOp fact records;
// only Typeof participates in any rule.
type UnaryOpKind int

const (
	UnaryOther UnaryOpKind = iota
	UnaryTypeof
)

// Spanned pairs a piece of data (a name, most often) with the source span
// it came from, matching bound_vars(pat) and label references yielding
// Spanned{data, span} in the rule contracts.
type Spanned struct {
	Data Name
	Span Span
}
