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

package trace

import (
	"fmt"
)

// Tuple wraps a plain Go struct as a Value, deriving CompareTo/Hash
// structurally instead of requiring every relation schema to hand-write
// both methods. Ordering is a deterministic string comparison of the
// wrapped value, not a semantically meaningful order; callers that need
// more than "some stable total order" should implement Value directly.
type Tuple[T any] struct {
	Val T
}

// NewTuple wraps v as a Value.
func NewTuple[T any](v T) Tuple[T] { return Tuple[T]{Val: v} }

func (t Tuple[T]) CompareTo(other Value) int {
	o := other.(Tuple[T])
	a, b := fmt.Sprintf("%+v", t.Val), fmt.Sprintf("%+v", o.Val)
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (t Tuple[T]) Hash() uint64 { return HashValue(t.Val) }
