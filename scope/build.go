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
	"github.com/lintflow/lintflow/internal/program"
	"github.com/lintflow/lintflow/internal/trace"
)

// Composite arrangement-key shapes. Each is wrapped via trace.NewTuple so it
// satisfies trace.Value without a hand-written CompareTo/Hash pair.
type exprFileKey struct {
	Expr ExprID
	File FileID
}
type nameScopeKey struct {
	Name  Name
	Scope ScopeID
}
type fileNameScopeKey struct {
	File  FileID
	Name  Name
	Scope ScopeID
}
type stmtNameKey struct {
	Stmt StmtID
	Name Name
}
type objectFileKey struct {
	Object ExprID
	File   FileID
}
type propertyFileKey struct {
	Property ExprID
	File     FileID
}

func key(v interface{}) trace.Value {
	switch t := v.(type) {
	case exprFileKey:
		return trace.NewTuple(t)
	case nameScopeKey:
		return trace.NewTuple(t)
	case fileNameScopeKey:
		return trace.NewTuple(t)
	case stmtNameKey:
		return trace.NewTuple(t)
	case objectFileKey:
		return trace.NewTuple(t)
	case propertyFileKey:
		return trace.NewTuple(t)
	default:
		panic("scope: unhandled key shape")
	}
}

// inputRelation builds a plain Set-mode input relation with no arrangements.
func inputRelation(id dataflow.RelationID, name string) *dataflow.Relation {
	return &dataflow.Relation{ID: id, Name: name, Input: true, Mode: dataflow.Set}
}

// Build assembles the full scope-analysis Program: every input relation,
// the ScopeFamily/WithinTypeofExpr/ChainedWith recursive closures, and the
// NoTypeofUndef/NoUndef/NoUnusedLabels sinks, wired in the dependency order
// Compile requires (a relation's predecessors, and arrangements it
// references, must be declared earlier in the node list).
func Build() program.Program {
	expression := inputRelation(RelExpression, "Expression")
	expression.Arrangements = []dataflow.ArrangementSpec{{
		Name: "ExpressionByID",
		MapProj: func(v trace.Value) (trace.Value, trace.Value, bool) {
			row := v.(trace.Tuple[ExpressionRow]).Val
			return row.ID, v, true
		},
	}}

	nameRef := inputRelation(RelNameRef, "NameRef")
	assign := inputRelation(RelAssign, "Assign")
	bracketAccess := inputRelation(RelBracketAccess, "BracketAccess")
	dotAccess := inputRelation(RelDotAccess, "DotAccess")
	unaryOp := inputRelation(RelUnaryOp, "UnaryOp")

	statement := inputRelation(RelStatement, "Statement")
	statement.Arrangements = []dataflow.ArrangementSpec{{
		Name: "StatementByID",
		MapProj: func(v trace.Value) (trace.Value, trace.Value, bool) {
			row := v.(trace.Tuple[StatementRow]).Val
			return row.Stmt, row.Scope, true
		},
	}}

	brk := inputRelation(RelBreak, "Break")
	cont := inputRelation(RelContinue, "Continue")
	label := inputRelation(RelLabel, "Label")

	nameInScope := inputRelation(RelNameInScope, "NameInScope")
	nameInScope.Arrangements = []dataflow.ArrangementSpec{{
		Name:  "NameInScopeKeySet",
		IsSet: true,
		SetProj: func(v trace.Value) (trace.Value, bool) {
			row := v.(trace.Tuple[NameInScopeRow]).Val
			return key(fileNameScopeKey{File: row.File, Name: row.Name, Scope: row.Scope}), true
		},
	}}

	scopeEdge := inputRelation(RelScopeEdge, "ScopeEdge")
	scopeEdge.Arrangements = []dataflow.ArrangementSpec{{
		Name: "ScopeEdgeByParent",
		MapProj: func(v trace.Value) (trace.Value, trace.Value, bool) {
			row := v.(trace.Tuple[ScopeEdgeRow]).Val
			return row.Parent, row.Child, true
		},
	}}

	groupingInner := inputRelation(RelExprGroupingInner, "ExprGroupingInner")
	groupingInner.Arrangements = []dataflow.ArrangementSpec{{
		Name: "ExprGroupingInnerByExpr",
		MapProj: func(v trace.Value) (trace.Value, trace.Value, bool) {
			row := v.(trace.Tuple[ExprGroupingInnerRow]).Val
			return row.Expr, row.Inner, true
		},
	}}

	sequenceTail := inputRelation(RelExprSequenceTail, "ExprSequenceTail")
	sequenceTail.Arrangements = []dataflow.ArrangementSpec{{
		Name: "ExprSequenceTailByExpr",
		MapProj: func(v trace.Value) (trace.Value, trace.Value, bool) {
			row := v.(trace.Tuple[ExprSequenceTailRow]).Val
			return row.Expr, row.Last, true
		},
	}}

	enableNoTypeofUndef := inputRelation(RelEnableNoTypeofUndef, "EnableNoTypeofUndef")
	enableNoTypeofUndef.Arrangements = []dataflow.ArrangementSpec{setByFile("EnableNoTypeofUndefSet")}
	enableNoUndef := inputRelation(RelEnableNoUndef, "EnableNoUndef")
	enableNoUndef.Arrangements = []dataflow.ArrangementSpec{setByFile("EnableNoUndefSet")}
	enableNoUnusedLabels := inputRelation(RelEnableNoUnusedLabels, "EnableNoUnusedLabels")
	enableNoUnusedLabels.Arrangements = []dataflow.ArrangementSpec{setByFile("EnableNoUnusedLabelsSet")}

	scopeFamily := &dataflow.Relation{
		ID:   RelScopeFamily,
		Name: "ScopeFamily",
		Rules: []dataflow.Rule{
			{
				Kind:        dataflow.CollectionRuleKind,
				Source:      RelScopeEdge,
				Description: "ScopeFamily: reflexive + direct edge",
				Xform: func(env *dataflow.Env) dataflow.Collection {
					var out dataflow.Collection
					for _, w := range env.Collection {
						row := w.Value.(trace.Tuple[ScopeEdgeRow]).Val
						out = append(out,
							trace.Weighted{Value: NewScopeFamily(row.Parent, row.Parent), Weight: w.Weight},
							trace.Weighted{Value: NewScopeFamily(row.Child, row.Child), Weight: w.Weight},
							trace.Weighted{Value: NewScopeFamily(row.Parent, row.Child), Weight: w.Weight},
						)
					}
					return out
				},
			},
			{
				Kind:        dataflow.CollectionRuleKind,
				Source:      RelScopeFamily,
				Description: "ScopeFamily: transitive step",
				Xform: func(env *dataflow.Env) dataflow.Collection {
					edges := env.Arrangements["ScopeEdgeByParent"]
					if edges == nil {
						return nil
					}
					var out dataflow.Collection
					for _, w := range env.Collection {
						row := w.Value.(trace.Tuple[ScopeFamilyRow]).Val
						for _, e := range edges.Lookup(row.Child) {
							out = append(out, trace.Weighted{
								Value:  NewScopeFamily(row.Parent, e.Value.(ScopeID)),
								Weight: w.Weight * e.Weight,
							})
						}
					}
					return out
				},
			},
		},
		Arrangements: []dataflow.ArrangementSpec{
			{
				Name: "ScopeFamilyByChild",
				MapProj: func(v trace.Value) (trace.Value, trace.Value, bool) {
					row := v.(trace.Tuple[ScopeFamilyRow]).Val
					return row.Child, row.Parent, true
				},
			},
			{
				Name: "ScopeFamilyByParent",
				MapProj: func(v trace.Value) (trace.Value, trace.Value, bool) {
					row := v.(trace.Tuple[ScopeFamilyRow]).Val
					return row.Parent, row.Child, true
				},
			},
		},
	}

	needsWithinTypeofExpr := &dataflow.Relation{
		ID:       RelNeedsWithinTypeofExpr,
		Name:     "NeedsWithinTypeofExpr",
		Distinct: true,
		Rules: []dataflow.Rule{
			fileGateRule(RelEnableNoTypeofUndef, "NeedsWithinTypeofExpr from EnableNoTypeofUndef"),
			fileGateRule(RelEnableNoUndef, "NeedsWithinTypeofExpr from EnableNoUndef"),
		},
		Arrangements: []dataflow.ArrangementSpec{{
			Name:  "NeedsWithinTypeofExprSet",
			IsSet: true,
			SetProj: func(v trace.Value) (trace.Value, bool) {
				return v.(trace.Tuple[FileRow]).Val.File, true
			},
		}},
	}

	withinTypeofExpr := &dataflow.Relation{
		ID:   RelWithinTypeofExpr,
		Name: "WithinTypeofExpr",
		Rules: []dataflow.Rule{
			{
				Kind:        dataflow.CollectionRuleKind,
				Source:      RelUnaryOp,
				Description: "WithinTypeofExpr: seed from typeof",
				Xform: func(env *dataflow.Env) dataflow.Collection {
					needs := env.SetArrangements["NeedsWithinTypeofExprSet"]
					var out dataflow.Collection
					for _, w := range env.Collection {
						row := w.Value.(trace.Tuple[UnaryOpRow]).Val
						if row.Op != UnaryTypeof || !row.HasOperand {
							continue
						}
						if needs == nil || !needs.HasPositive(row.File) {
							continue
						}
						out = append(out, trace.Weighted{
							Value:  NewWithinTypeofExpr(row.Expr, row.Operand, row.File),
							Weight: w.Weight,
						})
					}
					return out
				},
			},
			{
				Kind:        dataflow.CollectionRuleKind,
				Source:      RelWithinTypeofExpr,
				Description: "WithinTypeofExpr: grouping/sequence closure",
				Xform: func(env *dataflow.Env) dataflow.Collection {
					grouping := env.Arrangements["ExprGroupingInnerByExpr"]
					sequence := env.Arrangements["ExprSequenceTailByExpr"]
					var out dataflow.Collection
					for _, w := range env.Collection {
						row := w.Value.(trace.Tuple[WithinTypeofExprRow]).Val
						if grouping != nil {
							for _, e := range grouping.Lookup(row.Expr) {
								out = append(out, trace.Weighted{
									Value:  NewWithinTypeofExpr(row.TypeOf, e.Value.(ExprID), row.File),
									Weight: w.Weight * e.Weight,
								})
							}
						}
						if sequence != nil {
							for _, e := range sequence.Lookup(row.Expr) {
								out = append(out, trace.Weighted{
									Value:  NewWithinTypeofExpr(row.TypeOf, e.Value.(ExprID), row.File),
									Weight: w.Weight * e.Weight,
								})
							}
						}
					}
					return out
				},
			},
		},
		Arrangements: []dataflow.ArrangementSpec{{
			Name: "WithinTypeofExprByExprFile",
			MapProj: func(v trace.Value) (trace.Value, trace.Value, bool) {
				row := v.(trace.Tuple[WithinTypeofExprRow]).Val
				return key(exprFileKey{Expr: row.Expr, File: row.File}), row.TypeOf, true
			},
		}},
	}

	noTypeofUndef := &dataflow.Relation{
		ID:   RelNoTypeofUndef,
		Name: "NoTypeofUndef",
		Rules: []dataflow.Rule{{
			Kind:        dataflow.CollectionRuleKind,
			Source:      RelNameRef,
			Description: "NoTypeofUndef",
			Xform: func(env *dataflow.Env) dataflow.Collection {
				exprs := env.Arrangements["ExpressionByID"]
				withinTypeof := env.Arrangements["WithinTypeofExprByExprFile"]
				nameInScope := env.SetArrangements["NameInScopeKeySet"]
				enabled := env.SetArrangements["EnableNoTypeofUndefSet"]
				var out dataflow.Collection
				for _, w := range env.Collection {
					row := w.Value.(trace.Tuple[NameRefRow]).Val
					if enabled == nil || !enabled.HasPositive(row.File) {
						continue
					}
					if exprs == nil {
						continue
					}
					entries := exprs.Lookup(row.Expr)
					if len(entries) == 0 {
						continue
					}
					expr := entries[0].Value.(trace.Tuple[ExpressionRow]).Val
					if expr.Kind != KindNameRef {
						continue
					}
					if withinTypeof == nil {
						continue
					}
					typeOfEntries := withinTypeof.Lookup(key(exprFileKey{Expr: row.Expr, File: row.File}))
					if len(typeOfEntries) == 0 {
						continue
					}
					if nameInScope != nil && nameInScope.HasPositive(key(fileNameScopeKey{File: row.File, Name: row.Value, Scope: expr.Scope})) {
						continue
					}
					for _, t := range typeOfEntries {
						out = append(out, trace.Weighted{
							Value:  NewNoTypeofUndef(t.Value.(ExprID), row.Expr, row.File),
							Weight: w.Weight * t.Weight,
						})
					}
				}
				return out
			},
		}},
	}

	chainedWith := &dataflow.Relation{
		ID:   RelChainedWith,
		Name: "ChainedWith",
		Rules: []dataflow.Rule{
			{
				Kind:        dataflow.CollectionRuleKind,
				Source:      RelBracketAccess,
				Description: "ChainedWith: seed from bracket access",
				Xform: func(env *dataflow.Env) dataflow.Collection {
					enabled := env.SetArrangements["EnableNoUndefSet"]
					var out dataflow.Collection
					for _, w := range env.Collection {
						row := w.Value.(trace.Tuple[BracketAccessRow]).Val
						if !row.HasObject || !row.HasProp {
							continue
						}
						if enabled == nil || !enabled.HasPositive(row.File) {
							continue
						}
						out = append(out, trace.Weighted{Value: NewChainedWith(row.Object, row.Prop, row.File), Weight: w.Weight})
					}
					return out
				},
			},
			{
				Kind:        dataflow.CollectionRuleKind,
				Source:      RelDotAccess,
				Description: "ChainedWith: seed from dot access",
				Xform: func(env *dataflow.Env) dataflow.Collection {
					enabled := env.SetArrangements["EnableNoUndefSet"]
					var out dataflow.Collection
					for _, w := range env.Collection {
						row := w.Value.(trace.Tuple[DotAccessRow]).Val
						if !row.HasObject {
							continue
						}
						if enabled == nil || !enabled.HasPositive(row.File) {
							continue
						}
						out = append(out, trace.Weighted{Value: NewChainedWith(row.Object, row.Expr, row.File), Weight: w.Weight})
					}
					return out
				},
			},
			{
				Kind:        dataflow.CollectionRuleKind,
				Source:      RelChainedWith,
				Description: "ChainedWith: transitive step",
				Xform: func(env *dataflow.Env) dataflow.Collection {
					byObject := env.Arrangements["ChainedWithByObjectFile"]
					var out dataflow.Collection
					for _, w := range env.Collection {
						row := w.Value.(trace.Tuple[ChainedWithRow]).Val
						if byObject == nil {
							continue
						}
						for _, e := range byObject.Lookup(key(objectFileKey{Object: row.Property, File: row.File})) {
							out = append(out, trace.Weighted{
								Value:  NewChainedWith(row.Object, e.Value.(ExprID), row.File),
								Weight: w.Weight * e.Weight,
							})
						}
					}
					return out
				},
			},
		},
		Arrangements: []dataflow.ArrangementSpec{
			{
				Name: "ChainedWithByObjectFile",
				MapProj: func(v trace.Value) (trace.Value, trace.Value, bool) {
					row := v.(trace.Tuple[ChainedWithRow]).Val
					return key(objectFileKey{Object: row.Object, File: row.File}), row.Property, true
				},
			},
			{
				Name: "ChainedWithByPropertyFile",
				MapProj: func(v trace.Value) (trace.Value, trace.Value, bool) {
					row := v.(trace.Tuple[ChainedWithRow]).Val
					return key(propertyFileKey{Property: row.Property, File: row.File}), row.Object, true
				},
			},
		},
	}

	noUndef := &dataflow.Relation{
		ID:   RelNoUndef,
		Name: "NoUndef",
		Rules: []dataflow.Rule{
			{
				Kind:        dataflow.CollectionRuleKind,
				Source:      RelNameRef,
				Description: "NoUndef: direct name reference",
				Xform: func(env *dataflow.Env) dataflow.Collection {
					exprs := env.Arrangements["ExpressionByID"]
					withinTypeof := env.Arrangements["WithinTypeofExprByExprFile"]
					chainedWith := env.Arrangements["ChainedWithByPropertyFile"]
					nameInScope := env.SetArrangements["NameInScopeKeySet"]
					enabled := env.SetArrangements["EnableNoUndefSet"]
					var out dataflow.Collection
					for _, w := range env.Collection {
						row := w.Value.(trace.Tuple[NameRefRow]).Val
						if enabled == nil || !enabled.HasPositive(row.File) {
							continue
						}
						if exprs == nil {
							continue
						}
						entries := exprs.Lookup(row.Expr)
						if len(entries) == 0 {
							continue
						}
						expr := entries[0].Value.(trace.Tuple[ExpressionRow]).Val
						if expr.Kind != KindNameRef {
							continue
						}
						if withinTypeof != nil && len(withinTypeof.Lookup(key(exprFileKey{Expr: row.Expr, File: row.File}))) > 0 {
							continue
						}
						if chainedWith != nil && len(chainedWith.Lookup(key(propertyFileKey{Property: row.Expr, File: row.File}))) > 0 {
							continue
						}
						if nameInScope != nil && nameInScope.HasPositive(key(fileNameScopeKey{File: row.File, Name: row.Value, Scope: expr.Scope})) {
							continue
						}
						out = append(out, trace.Weighted{
							Value:  NewNoUndef(row.Value, expr.Scope, expr.Span, row.File),
							Weight: w.Weight,
						})
					}
					return out
				},
			},
			{
				Kind:        dataflow.CollectionRuleKind,
				Source:      RelAssign,
				Description: "NoUndef: destructuring assignment",
				Xform: func(env *dataflow.Env) dataflow.Collection {
					exprs := env.Arrangements["ExpressionByID"]
					nameInScope := env.SetArrangements["NameInScopeKeySet"]
					enabled := env.SetArrangements["EnableNoUndefSet"]
					var out dataflow.Collection
					for _, w := range env.Collection {
						row := w.Value.(trace.Tuple[AssignRow]).Val
						if !row.HasPattern {
							continue
						}
						if enabled == nil || !enabled.HasPositive(row.File) {
							continue
						}
						if exprs == nil {
							continue
						}
						entries := exprs.Lookup(row.Expr)
						if len(entries) == 0 {
							continue
						}
						expr := entries[0].Value.(trace.Tuple[ExpressionRow]).Val
						for _, bv := range row.BoundVars {
							if nameInScope != nil && nameInScope.HasPositive(key(fileNameScopeKey{File: row.File, Name: bv.Data, Scope: expr.Scope})) {
								continue
							}
							out = append(out, trace.Weighted{
								Value:  NewNoUndef(bv.Data, expr.Scope, bv.Span, row.File),
								Weight: w.Weight,
							})
						}
					}
					return out
				},
			},
		},
	}

	labelUsage := &dataflow.Relation{
		ID:   RelLabelUsage,
		Name: "LabelUsage",
		Rules: []dataflow.Rule{
			labelUsageRule(RelBreak, func(v trace.Value) (StmtID, FileID, bool, Spanned) {
				r := v.(trace.Tuple[BreakRow]).Val
				return r.Stmt, r.File, r.HasLabel, r.Label
			}),
			labelUsageRule(RelContinue, func(v trace.Value) (StmtID, FileID, bool, Spanned) {
				r := v.(trace.Tuple[ContinueRow]).Val
				return r.Stmt, r.File, r.HasLabel, r.Label
			}),
		},
		Arrangements: []dataflow.ArrangementSpec{{
			Name: "LabelUsageByNameScope",
			MapProj: func(v trace.Value) (trace.Value, trace.Value, bool) {
				row := v.(trace.Tuple[LabelUsageRow]).Val
				return key(nameScopeKey{Name: row.Name, Scope: row.Scope}), row.Stmt, true
			},
		}},
	}

	usedLabels := &dataflow.Relation{
		ID:   RelUsedLabels,
		Name: "UsedLabels",
		Rules: []dataflow.Rule{{
			Kind:        dataflow.CollectionRuleKind,
			Source:      RelLabel,
			Description: "UsedLabels",
			Xform: func(env *dataflow.Env) dataflow.Collection {
				byNameScope := env.Arrangements["LabelUsageByNameScope"]
				byParent := env.Arrangements["ScopeFamilyByParent"]
				enabled := env.SetArrangements["EnableNoUnusedLabelsSet"]
				var out dataflow.Collection
				for _, w := range env.Collection {
					row := w.Value.(trace.Tuple[LabelRow]).Val
					if !row.HasName {
						continue
					}
					if enabled == nil || !enabled.HasPositive(row.File) {
						continue
					}
					used := false
					if byNameScope != nil && len(byNameScope.Lookup(key(nameScopeKey{Name: row.Name.Data, Scope: row.BodyScope}))) > 0 {
						used = true
					}
					if !used && byParent != nil && byNameScope != nil {
						for _, child := range byParent.Lookup(row.BodyScope) {
							if len(byNameScope.Lookup(key(nameScopeKey{Name: row.Name.Data, Scope: child.Value.(ScopeID)}))) > 0 {
								used = true
								break
							}
						}
					}
					if used {
						out = append(out, trace.Weighted{Value: NewUsedLabels(row.Stmt, row.Name.Data), Weight: w.Weight})
					}
				}
				return out
			},
		}},
		Distinct: true,
		Arrangements: []dataflow.ArrangementSpec{{
			Name:  "UsedLabelsKeySet",
			IsSet: true,
			SetProj: func(v trace.Value) (trace.Value, bool) {
				row := v.(trace.Tuple[UsedLabelsRow]).Val
				return key(stmtNameKey{Stmt: row.Stmt, Name: row.Name}), true
			},
		}},
	}

	noUnusedLabels := &dataflow.Relation{
		ID:   RelNoUnusedLabels,
		Name: "NoUnusedLabels",
		Rules: []dataflow.Rule{{
			Kind:        dataflow.CollectionRuleKind,
			Source:      RelLabel,
			Description: "NoUnusedLabels",
			Xform: func(env *dataflow.Env) dataflow.Collection {
				used := env.SetArrangements["UsedLabelsKeySet"]
				enabled := env.SetArrangements["EnableNoUnusedLabelsSet"]
				var out dataflow.Collection
				for _, w := range env.Collection {
					row := w.Value.(trace.Tuple[LabelRow]).Val
					if !row.HasName {
						continue
					}
					if enabled == nil || !enabled.HasPositive(row.File) {
						continue
					}
					if used != nil && used.HasPositive(key(stmtNameKey{Stmt: row.Stmt, Name: row.Name.Data})) {
						continue
					}
					out = append(out, trace.Weighted{Value: NewNoUnusedLabels(row.Stmt, row.Name), Weight: w.Weight})
				}
				return out
			},
		}},
	}

	return program.Program{Nodes: []program.Node{
		program.RelNode(expression),
		program.RelNode(nameRef),
		program.RelNode(assign),
		program.RelNode(bracketAccess),
		program.RelNode(dotAccess),
		program.RelNode(unaryOp),
		program.RelNode(statement),
		program.RelNode(brk),
		program.RelNode(cont),
		program.RelNode(label),
		program.RelNode(nameInScope),
		program.RelNode(scopeEdge),
		program.RelNode(groupingInner),
		program.RelNode(sequenceTail),
		program.RelNode(enableNoTypeofUndef),
		program.RelNode(enableNoUndef),
		program.RelNode(enableNoUnusedLabels),
		program.SCCNode(program.SCCMember{Relation: scopeFamily, Distinct: true}),
		program.RelNode(needsWithinTypeofExpr),
		program.SCCNode(program.SCCMember{Relation: withinTypeofExpr, Distinct: false}),
		program.RelNode(noTypeofUndef),
		program.SCCNode(program.SCCMember{Relation: chainedWith, Distinct: true}),
		program.RelNode(noUndef),
		program.RelNode(labelUsage),
		program.RelNode(usedLabels),
		program.RelNode(noUnusedLabels),
	}}
}

func setByFile(name string) dataflow.ArrangementSpec {
	return dataflow.ArrangementSpec{
		Name:  name,
		IsSet: true,
		SetProj: func(v trace.Value) (trace.Value, bool) {
			return v.(trace.Tuple[FileRow]).Val.File, true
		},
	}
}

func fileGateRule(source dataflow.RelationID, desc string) dataflow.Rule {
	return dataflow.Rule{
		Kind:        dataflow.CollectionRuleKind,
		Source:      source,
		Description: desc,
		Xform: func(env *dataflow.Env) dataflow.Collection {
			var out dataflow.Collection
			for _, w := range env.Collection {
				file := w.Value.(trace.Tuple[FileRow]).Val.File
				out = append(out, trace.Weighted{Value: NewFileRow(file), Weight: w.Weight})
			}
			return out
		},
	}
}

func labelUsageRule(source dataflow.RelationID, extract func(trace.Value) (StmtID, FileID, bool, Spanned)) dataflow.Rule {
	return dataflow.Rule{
		Kind:        dataflow.CollectionRuleKind,
		Source:      source,
		Description: "LabelUsage seed",
		Xform: func(env *dataflow.Env) dataflow.Collection {
			statements := env.Arrangements["StatementByID"]
			var out dataflow.Collection
			for _, w := range env.Collection {
				stmt, _, hasLabel, label := extract(w.Value)
				if !hasLabel || statements == nil {
					continue
				}
				entries := statements.Lookup(stmt)
				if len(entries) == 0 {
					continue
				}
				scope := entries[0].Value.(ScopeID)
				out = append(out, trace.Weighted{Value: NewLabelUsage(stmt, label.Data, scope), Weight: w.Weight})
			}
			return out
		},
	}
}
