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

// Package program implements the compiler and worker pool: it compiles a
// Program description (relation / SCC / transformer-apply nodes) into a
// running dataflow across N worker goroutines with timestamped inputs.
package program

import (
	"fmt"

	"github.com/sirupsen/logrus"

	lferrors "github.com/lintflow/lintflow/internal/errors"
	"github.com/lintflow/lintflow/internal/dataflow"
)

// NodeKind distinguishes the three Program node shapes.
type NodeKind int

const (
	// NodeRelation places one relation outside any recursive scope.
	NodeRelation NodeKind = iota
	// NodeApply installs a user fragment in the top scope.
	NodeApply
	// NodeSCC evaluates a set of mutually recursive relations to a
	// fixpoint inside a nested timestamp scope.
	NodeSCC
)

// ApplyFunc is a user fragment that reads existing collections and installs
// new ones in the top scope only. It must be monotonic under unioning
// updates; the engine does not verify this.
type ApplyFunc func(db *Database) error

// SCCMember is one relation inside a recursive scope, with whether its
// loop-back value passes through a distinct threshold stage.
type SCCMember struct {
	Relation *dataflow.Relation
	Distinct bool
}

// Node is one entry of a compiled Program.
type Node struct {
	Kind  NodeKind
	Rel   *dataflow.Relation
	Apply ApplyFunc
	SCC   []SCCMember

	// Name labels an Apply node for error messages/profiling; Rel and SCC
	// nodes are already named by their relation(s).
	Name string
}

// RelNode constructs a NodeRelation program node.
func RelNode(rel *dataflow.Relation) Node { return Node{Kind: NodeRelation, Rel: rel} }

// ApplyNode constructs a NodeApply program node.
func ApplyNode(name string, fn ApplyFunc) Node { return Node{Kind: NodeApply, Name: name, Apply: fn} }

// SCCNode constructs a NodeSCC program node.
func SCCNode(members ...SCCMember) Node { return Node{Kind: NodeSCC, SCC: members} }

// Program is an ordered list of nodes.
type Program struct {
	Nodes []Node
}

// Compile validates relation and rule wiring invariants and returns a
// *Compiled program ready to Run. Validation failures are returned as
// ErrDuplicateRelationID / ErrIllegalPredecessor / ErrMissingArrangement /
// ErrInputRelationHasRule.
func Compile(p Program, log logrus.FieldLogger) (*Compiled, error) {
	c := &Compiled{
		program:    p,
		relsByID:   map[dataflow.RelationID]*dataflow.Relation{},
		relsByName: map[string]*dataflow.Relation{},
		declared:   map[dataflow.RelationID]bool{},
		log:        log,
	}

	allRelations := func(yield func(*dataflow.Relation)) {
		for _, n := range p.Nodes {
			switch n.Kind {
			case NodeRelation:
				yield(n.Rel)
			case NodeSCC:
				for _, m := range n.SCC {
					yield(m.Relation)
				}
			}
		}
	}

	// (a) relation ids are unique.
	allRelations(func(r *dataflow.Relation) {
		if r == nil {
			return
		}
	})
	seen := map[dataflow.RelationID]bool{}
	var dupErr error
	allRelations(func(r *dataflow.Relation) {
		if dupErr != nil || r == nil {
			return
		}
		if seen[r.ID] {
			dupErr = lferrors.ErrDuplicateRelationID.New(int(r.ID))
			return
		}
		seen[r.ID] = true
		c.relsByID[r.ID] = r
		if r.Name != "" {
			c.relsByName[r.Name] = r
		}
	})
	if dupErr != nil {
		return nil, dupErr
	}

	// (d) input relations do not occur on any rule's left-hand side, and
	// have no rules of their own.
	for _, r := range c.relsByID {
		if r.Input && len(r.Rules) > 0 {
			return nil, lferrors.ErrInputRelationHasRule.New(r.Name)
		}
	}

	// (b)/(c): rules reference only legal predecessors, and every
	// referenced arrangement exists. We walk nodes in order, tracking which
	// relations/arrangements are legally visible so far: a relation is
	// visible if declared earlier or a member of the same SCC currently
	// being declared; an arrangement only if declared by an earlier node.
	visibleRel := map[dataflow.RelationID]bool{}
	visibleArr := map[string]bool{}
	checkRule := func(r *dataflow.Relation, rule dataflow.Rule, sccScope map[dataflow.RelationID]bool) error {
		switch rule.Kind {
		case dataflow.CollectionRuleKind:
			if !visibleRel[rule.Source] && !sccScope[rule.Source] {
				return lferrors.ErrIllegalPredecessor.New(r.Name, fmt.Sprintf("relation#%d", rule.Source))
			}
		case dataflow.ArrangementRuleKind:
			if !visibleArr[rule.SourceArrangement] {
				return lferrors.ErrMissingArrangement.New(r.Name, rule.SourceArrangement)
			}
		}
		return nil
	}

	for _, n := range p.Nodes {
		switch n.Kind {
		case NodeRelation:
			for _, rule := range n.Rel.Rules {
				if err := checkRule(n.Rel, rule, nil); err != nil {
					return nil, err
				}
			}
			visibleRel[n.Rel.ID] = true
			for _, a := range n.Rel.Arrangements {
				visibleArr[a.Name] = true
			}
		case NodeSCC:
			sccScope := map[dataflow.RelationID]bool{}
			for _, m := range n.SCC {
				sccScope[m.Relation.ID] = true
			}
			for _, m := range n.SCC {
				for _, rule := range m.Relation.Rules {
					if err := checkRule(m.Relation, rule, sccScope); err != nil {
						return nil, err
					}
				}
			}
			for _, m := range n.SCC {
				visibleRel[m.Relation.ID] = true
				for _, a := range m.Relation.Arrangements {
					visibleArr[a.Name] = true
				}
			}
		}
	}

	c.db = NewDatabase(c.relsByID)
	return c, nil
}

// Compiled is a validated Program ready to Run.
type Compiled struct {
	program    Program
	relsByID   map[dataflow.RelationID]*dataflow.Relation
	relsByName map[string]*dataflow.Relation
	declared   map[dataflow.RelationID]bool
	db         *Database
	log        logrus.FieldLogger
}

// Relation resolves a relation by id or name, resolving a name eagerly.
func (c *Compiled) Relation(id dataflow.RelationID, name string) (*dataflow.Relation, error) {
	if name != "" {
		if r, ok := c.relsByName[name]; ok {
			return r, nil
		}
		return nil, lferrors.ErrUnknownRelation.New(name)
	}
	if r, ok := c.relsByID[id]; ok {
		return r, nil
	}
	return nil, lferrors.ErrUnknownRelation.New(fmt.Sprintf("#%d", id))
}
