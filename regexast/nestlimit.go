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

package regexast

import (
	"math"

	lferrors "github.com/lintflow/lintflow/internal/errors"
)

// limitNestDepth walks the finished Ast bumping a depth counter on every
// composite node, failing if the limit is ever exceeded. It runs after the
// whole tree is built (not during parsing) because the limit is meant to
// bound how deep a consumer's own recursive walk over the Ast can go, not
// to bound parser work.
func limitNestDepth(tree Ast, limit uint32) (Ast, error) {
	l := &nestLimiter{limit: limit}
	if err := l.visitAst(tree); err != nil {
		return nil, err
	}
	return tree, nil
}

type nestLimiter struct {
	limit uint32
	depth uint32
}

func (l *nestLimiter) incr() error {
	if l.depth == math.MaxUint32 {
		return lferrors.ErrNestLimitExceeded.New(l.limit)
	}
	l.depth++
	if l.depth > l.limit {
		return lferrors.ErrNestLimitExceeded.New(l.limit)
	}
	return nil
}

func (l *nestLimiter) decr() { l.depth-- }

// visitAst walks a, bumping the depth on every node that counts toward
// nesting: Class (when Bracketed), Repetition, Group, Alternation and
// Concat, plus Bracketed/Union and every BinaryOp within a class-set tree.
func (l *nestLimiter) visitAst(a Ast) error {
	switch v := a.(type) {
	case Repetition:
		if err := l.incr(); err != nil {
			return err
		}
		defer l.decr()
		return l.visitAst(v.Ast)
	case Group:
		if err := l.incr(); err != nil {
			return err
		}
		defer l.decr()
		return l.visitAst(v.Ast)
	case Alternation:
		if err := l.incr(); err != nil {
			return err
		}
		defer l.decr()
		for _, sub := range v.Asts {
			if err := l.visitAst(sub); err != nil {
				return err
			}
		}
		return nil
	case Concat:
		if err := l.incr(); err != nil {
			return err
		}
		defer l.decr()
		for _, sub := range v.Asts {
			if err := l.visitAst(sub); err != nil {
				return err
			}
		}
		return nil
	case Class:
		return l.visitClassItem(v.Item)
	default:
		return nil
	}
}

func (l *nestLimiter) visitClassItem(item ClassSetItem) error {
	switch v := item.(type) {
	case ClassBracketed:
		if err := l.incr(); err != nil {
			return err
		}
		defer l.decr()
		return l.visitClassItem(v.Item)
	case ClassUnion:
		if err := l.incr(); err != nil {
			return err
		}
		defer l.decr()
		for _, sub := range v.Items {
			if err := l.visitClassItem(sub); err != nil {
				return err
			}
		}
		return nil
	case ClassBinaryOp:
		if err := l.incr(); err != nil {
			return err
		}
		defer l.decr()
		if err := l.visitClassItem(v.LHS); err != nil {
			return err
		}
		return l.visitClassItem(v.RHS)
	default:
		return nil
	}
}
