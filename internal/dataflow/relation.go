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

import "github.com/lintflow/lintflow/internal/trace"

// RelationID names a relation either by stable integer id or textual name.
type RelationID int

// CachingMode is the input-relation storage discipline.
type CachingMode int

const (
	// Stream relations keep no element set, only a per-transaction delta
	// counter.
	Stream CachingMode = iota
	// Multiset relations maintain a counted multiset.
	Multiset
	// Set relations maintain a deduplicated value set.
	Set
	// Indexed relations maintain a key -> value map via a key-extractor.
	Indexed
)

func (m CachingMode) String() string {
	switch m {
	case Stream:
		return "stream"
	case Multiset:
		return "multiset"
	case Set:
		return "set"
	case Indexed:
		return "indexed"
	default:
		return "unknown"
	}
}

// KeyFunc extracts an Indexed input relation's key from one of its values.
// It must be deterministic and total; the engine does not verify this,
// matching the non-verification stance taken for Apply-node monotonicity.
type KeyFunc func(trace.Value) trace.Value

// RuleKind distinguishes the two rule shapes a Rule can take.
type RuleKind int

const (
	// CollectionRuleKind reads from a predecessor's Collection.
	CollectionRuleKind RuleKind = iota
	// ArrangementRuleKind reads from a predecessor's arrangement.
	ArrangementRuleKind
)

// Rule is one derivation rule contributing to a derived relation's union,
// applied in order and unioned together.
type Rule struct {
	Kind RuleKind

	// Source is the predecessor relation a CollectionRuleKind rule reads
	// its Collection from.
	Source RelationID
	// SourceArrangement names the predecessor arrangement an
	// ArrangementRuleKind rule reads from.
	SourceArrangement string

	// Xform is the operator chain: it receives the source data and returns
	// the contribution of this rule to the target relation. The chain
	// terminator is an implicit no-op (returning its input unchanged),
	// matching that terminator semantics.
	Xform func(env *Env) Collection

	// Description identifies this rule for profiling only.
	Description string
}

// Env is the evaluation environment a rule's Xform runs in: the source
// collection/arrangement plus every arrangement built so far in the current
// evaluation round, so a rule can reference arrangements other relations
// published this round, since arrangements are shared across rules.
type Env struct {
	// Collection is populated for CollectionRuleKind rules.
	Collection Collection
	// Arrangement is populated for ArrangementRuleKind rules.
	Arrangement *trace.MapArrangement
	// Arrangements indexes every named arrangement published so far this
	// round, keyed by name, for rules that join/antijoin/semijoin against a
	// sibling relation's arrangement.
	Arrangements map[string]*trace.MapArrangement
	SetArrangements map[string]*trace.SetArrangement
	Timestamp    Timestamp
}

// ArrangementSpec describes one arrangement a relation publishes: its name, whether it is Map- or Set-shaped, its projection, and
// (for Set) whether it is pre-thresholded to distinct.
type ArrangementSpec struct {
	Name     string
	IsSet    bool
	Distinct bool // Set-only: required before use as an antijoin's right side.
	// MapProj projects a tuple to (key, value) for Map arrangements.
	MapProj func(trace.Value) (trace.Value, trace.Value, bool)
	// SetProj projects a tuple to a key for Set arrangements.
	SetProj func(trace.Value) (trace.Value, bool)
}

// Relation is the declarative relation descriptor.
type Relation struct {
	ID    RelationID
	Name  string
	Input bool
	// Distinct applies set semantics after unioning this relation's rules
	// after unioning its rules.
	Distinct bool
	// Mode only applies to input relations.
	Mode    CachingMode
	KeyFunc KeyFunc // Indexed input relations only.

	Rules        []Rule
	Arrangements []ArrangementSpec
}
